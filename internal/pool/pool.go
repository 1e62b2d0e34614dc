// Package pool implements a fixed-capacity slab allocator of equally sized blocks.
//
// All blocks live in one backing slice allocated up front; the pool never grows.
// Strokes use it to hold their control points so that vertex storage is isolated
// from the stroke count.
package pool

import "errors"

var (
	ErrExhausted    = errors.New("pool: no free blocks")
	ErrInvalidBlock = errors.New("pool: block index out of range")
	ErrNotInUse     = errors.New("pool: block is not allocated")
)

// Pool hands out blocks of blockSize elements of T.
type Pool[T any] struct {
	blockSize int
	data      []T
	inUse     []bool
	used      int
}

// New allocates a pool of blockCount blocks, each holding blockSize elements.
func New[T any](blockSize, blockCount int) *Pool[T] {
	if blockSize <= 0 || blockCount <= 0 {
		panic("pool: block size and count must be positive")
	}
	return &Pool[T]{
		blockSize: blockSize,
		data:      make([]T, blockSize*blockCount),
		inUse:     make([]bool, blockCount),
	}
}

// Alloc reserves the first free block and returns its index. The block is
// zeroed. It returns ErrExhausted when every block is in use.
func (p *Pool[T]) Alloc() (int, error) {
	for i, used := range p.inUse {
		if used {
			continue
		}
		p.inUse[i] = true
		p.used++
		clear(p.Block(i))
		return i, nil
	}
	return -1, ErrExhausted
}

// Block returns the storage of block i with length and capacity blockSize.
// Appending past the capacity reallocates instead of spilling into a neighbour.
func (p *Pool[T]) Block(i int) []T {
	lo := i * p.blockSize
	hi := lo + p.blockSize
	return p.data[lo:hi:hi]
}

// Free releases block i.
func (p *Pool[T]) Free(i int) error {
	if i < 0 || i >= len(p.inUse) {
		return ErrInvalidBlock
	}
	if !p.inUse[i] {
		return ErrNotInUse
	}
	p.inUse[i] = false
	p.used--
	return nil
}

// Reset marks every block free.
func (p *Pool[T]) Reset() {
	clear(p.inUse)
	p.used = 0
}

// InUse reports whether block i is allocated.
func (p *Pool[T]) InUse(i int) bool {
	return i >= 0 && i < len(p.inUse) && p.inUse[i]
}

// Used returns the number of allocated blocks.
func (p *Pool[T]) Used() int { return p.used }

// Len returns the total number of blocks.
func (p *Pool[T]) Len() int { return len(p.inUse) }

// BlockSize returns the number of elements per block.
func (p *Pool[T]) BlockSize() int { return p.blockSize }
