package pool

import (
	"errors"
	"testing"
)

func TestAllocUntilExhausted(t *testing.T) {
	p := New[int](4, 3)

	var blocks []int
	for i := 0; i < p.Len(); i++ {
		idx, err := p.Alloc()
		if err != nil {
			t.Fatalf("Alloc %d: %v", i, err)
		}
		b := p.Block(idx)
		for j := range b {
			b[j] = idx*10 + j
		}
		blocks = append(blocks, idx)
	}

	if _, err := p.Alloc(); !errors.Is(err, ErrExhausted) {
		t.Fatalf("Alloc past capacity = %v, want ErrExhausted", err)
	}
	if p.Used() != 3 {
		t.Errorf("Used = %d, want 3", p.Used())
	}

	for _, idx := range blocks {
		for j, v := range p.Block(idx) {
			if v != idx*10+j {
				t.Errorf("block %d[%d] = %d, want %d", idx, j, v, idx*10+j)
			}
		}
	}
}

func TestFreeReuses(t *testing.T) {
	p := New[int](2, 2)
	a, _ := p.Alloc()
	b, _ := p.Alloc()
	p.Block(a)[0] = 7

	if err := p.Free(a); err != nil {
		t.Fatalf("Free: %v", err)
	}
	c, err := p.Alloc()
	if err != nil {
		t.Fatalf("Alloc after Free: %v", err)
	}
	if c != a {
		t.Errorf("first-fit returned %d, want %d", c, a)
	}
	if p.Block(c)[0] != 0 {
		t.Error("reallocated block not zeroed")
	}
	if !p.InUse(b) {
		t.Error("untouched block lost")
	}
}

func TestFreeErrors(t *testing.T) {
	p := New[int](2, 2)
	if err := p.Free(5); !errors.Is(err, ErrInvalidBlock) {
		t.Errorf("Free(5) = %v, want ErrInvalidBlock", err)
	}
	if err := p.Free(0); !errors.Is(err, ErrNotInUse) {
		t.Errorf("Free(unallocated) = %v, want ErrNotInUse", err)
	}
}

func TestReset(t *testing.T) {
	p := New[int](2, 4)
	for i := 0; i < 4; i++ {
		p.Alloc()
	}
	p.Reset()
	if p.Used() != 0 {
		t.Errorf("Used after Reset = %d", p.Used())
	}
	if _, err := p.Alloc(); err != nil {
		t.Errorf("Alloc after Reset: %v", err)
	}
}

func TestBlockCapacityIsolated(t *testing.T) {
	p := New[int](2, 2)
	a, _ := p.Alloc()
	b, _ := p.Alloc()
	p.Block(b)[0] = 42

	grown := append(p.Block(a), 99)
	if len(grown) != 3 {
		t.Fatalf("len = %d", len(grown))
	}
	if p.Block(b)[0] != 42 {
		t.Error("append past block capacity overwrote the neighbour")
	}
}
