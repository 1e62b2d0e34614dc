package document

import (
	"errors"
	"testing"

	"github.com/linebaby/linebaby/internal/geom"
)

func newStroke(t *testing.T, s *Scene, anchors ...geom.Point) StrokeID {
	t.Helper()
	id, _, err := s.CreateStroke()
	if err != nil {
		t.Fatalf("CreateStroke: %v", err)
	}
	for _, a := range anchors {
		v, _, err := s.AddVertex(id)
		if err != nil {
			t.Fatalf("AddVertex: %v", err)
		}
		*v = smooth(a, 10)
	}
	return id
}

func TestCreateStrokeCapacity(t *testing.T) {
	s := NewScene()
	for i := 0; i < MaxStrokes; i++ {
		if _, _, err := s.CreateStroke(); err != nil {
			t.Fatalf("CreateStroke %d: %v", i, err)
		}
	}
	if _, _, err := s.CreateStroke(); !errors.Is(err, ErrTooManyStrokes) {
		t.Fatalf("CreateStroke past capacity = %v, want ErrTooManyStrokes", err)
	}
	if s.Len() != MaxStrokes || s.PoolUsed() != MaxStrokes {
		t.Errorf("Len = %d, PoolUsed = %d after rejected create", s.Len(), s.PoolUsed())
	}
}

func TestCreateStrokeDefaults(t *testing.T) {
	s := NewScene()
	_, st, _ := s.CreateStroke()
	if st.Len() != 0 {
		t.Errorf("new stroke has %d vertices", st.Len())
	}
	if st.Enter.Method != AnimateDraw || st.Exit.Method != AnimateDraw {
		t.Errorf("transitions = %v/%v, want draw", st.Enter.Method, st.Exit.Method)
	}
	if st.Scale != DefaultScale || st.Enter.Duration != DefaultTransitionDuration {
		t.Errorf("scale %f, enter %f", st.Scale, st.Enter.Duration)
	}
}

func TestAddVertexCapacity(t *testing.T) {
	s := NewScene()
	id, _, _ := s.CreateStroke()
	for i := 0; i < MaxStrokeVertices; i++ {
		if _, idx, err := s.AddVertex(id); err != nil || idx != i {
			t.Fatalf("AddVertex %d = %d, %v", i, idx, err)
		}
	}
	if _, _, err := s.AddVertex(id); !errors.Is(err, ErrTooManyVertices) {
		t.Fatalf("AddVertex past capacity = %v", err)
	}
	if n := s.Stroke(id).Len(); n != MaxStrokeVertices {
		t.Errorf("Len = %d after rejected append", n)
	}
}

func TestDeleteStrokeInvalidatesHandle(t *testing.T) {
	s := NewScene()
	a := newStroke(t, s, geom.Pt(0, 0), geom.Pt(10, 0))
	b := newStroke(t, s, geom.Pt(0, 5), geom.Pt(10, 5))
	c := newStroke(t, s, geom.Pt(0, 9), geom.Pt(10, 9))

	if !s.DeleteStroke(a) {
		t.Fatal("DeleteStroke returned false for a live stroke")
	}
	if s.Stroke(a) != nil || s.Valid(a) {
		t.Error("deleted handle still resolves")
	}
	if s.DeleteStroke(a) {
		t.Error("second delete of the same handle succeeded")
	}

	// Swap-with-last puts c where a was.
	ids := s.IDs()
	if len(ids) != 2 || ids[0] != c || ids[1] != b {
		t.Errorf("draw order = %v, want [%v %v]", ids, c, b)
	}

	// Reusing the slot must not revive the old handle.
	d := newStroke(t, s, geom.Pt(1, 1), geom.Pt(2, 2))
	if d.Slot != a.Slot {
		t.Fatalf("new stroke took slot %d, want reused slot %d", d.Slot, a.Slot)
	}
	if s.Valid(a) {
		t.Error("stale handle resolves to the stroke reusing its slot")
	}
	if s.PoolUsed() != 3 {
		t.Errorf("PoolUsed = %d, want 3", s.PoolUsed())
	}
}

func TestDeleteStrokeKeepsStrokeWhenBlockNotHeld(t *testing.T) {
	s := NewScene()
	a := newStroke(t, s, geom.Pt(0, 0), geom.Pt(10, 0))
	newStroke(t, s, geom.Pt(0, 5), geom.Pt(10, 5))

	// Release the block behind the arena's back.
	if err := s.vertices.Free(s.Stroke(a).block); err != nil {
		t.Fatalf("Free: %v", err)
	}
	if s.DeleteStroke(a) {
		t.Error("DeleteStroke succeeded for a block the pool no longer holds")
	}
	if !s.Valid(a) || s.Len() != 2 {
		t.Errorf("Valid = %v, Len = %d after refused delete, want true, 2", s.Valid(a), s.Len())
	}
}

func TestDeleteVertexKeepsOrder(t *testing.T) {
	s := NewScene()
	id := newStroke(t, s, geom.Pt(0, 0), geom.Pt(10, 0), geom.Pt(20, 0), geom.Pt(30, 0))

	deleted, err := s.DeleteVertex(s.Ref(id, 1))
	if err != nil || deleted {
		t.Fatalf("DeleteVertex = %v, %v", deleted, err)
	}
	var xs []float32
	for _, v := range s.Stroke(id).Vertices() {
		xs = append(xs, v.Anchor.X)
	}
	want := []float32{0, 20, 30}
	if len(xs) != len(want) {
		t.Fatalf("anchors = %v, want %v", xs, want)
	}
	for i := range want {
		if xs[i] != want[i] {
			t.Errorf("anchors = %v, want %v", xs, want)
			break
		}
	}
}

func TestDeleteVertexAutoDeletesStroke(t *testing.T) {
	s := NewScene()
	id := newStroke(t, s, geom.Pt(0, 0), geom.Pt(10, 0))

	deleted, err := s.DeleteVertex(s.Ref(id, 0))
	if err != nil {
		t.Fatalf("DeleteVertex: %v", err)
	}
	if !deleted {
		t.Error("stroke left with one vertex was not deleted")
	}
	if s.Len() != 0 || s.Valid(id) {
		t.Errorf("Len = %d, Valid = %v", s.Len(), s.Valid(id))
	}
	if s.PoolUsed() != 0 {
		t.Errorf("vertex block leaked: PoolUsed = %d", s.PoolUsed())
	}
}

func TestVertexRefGoesStale(t *testing.T) {
	s := NewScene()
	id := newStroke(t, s, geom.Pt(0, 0), geom.Pt(10, 0), geom.Pt(20, 0))
	ref := s.Ref(id, 2)
	if s.Vertex(ref) == nil {
		t.Fatal("fresh reference does not resolve")
	}
	if _, err := s.DeleteVertex(s.Ref(id, 0)); err != nil {
		t.Fatal(err)
	}
	if s.Vertex(ref) != nil {
		t.Error("reference survived a topology change")
	}
	if _, err := s.DeleteVertex(ref); !errors.Is(err, ErrStaleVertex) {
		t.Errorf("DeleteVertex(stale) = %v, want ErrStaleVertex", err)
	}
}

func TestInsertVertexShiftsRight(t *testing.T) {
	s := NewScene()
	id := newStroke(t, s, geom.Pt(0, 0), geom.Pt(20, 0))
	v, err := s.InsertVertex(id, 1)
	if err != nil {
		t.Fatalf("InsertVertex: %v", err)
	}
	*v = smooth(geom.Pt(10, 0), 5)
	vs := s.Stroke(id).Vertices()
	if len(vs) != 3 || vs[0].Anchor.X != 0 || vs[1].Anchor.X != 10 || vs[2].Anchor.X != 20 {
		t.Errorf("vertices after insert = %+v", vs)
	}
	if _, err := s.InsertVertex(id, 9); err == nil {
		t.Error("InsertVertex out of range succeeded")
	}
}

func TestSelectedStrokeClearsStaleSelection(t *testing.T) {
	s := NewScene()
	id := newStroke(t, s, geom.Pt(0, 0), geom.Pt(10, 0))
	s.Selected = id
	s.SelectedVertex = s.Ref(id, 1)
	s.DeleteStroke(id)

	if s.SelectedStroke() != nil {
		t.Fatal("SelectedStroke resolved a deleted stroke")
	}
	if !s.Selected.IsZero() || !s.SelectedVertex.IsZero() {
		t.Errorf("selection not cleared: %v %v", s.Selected, s.SelectedVertex)
	}
}

func TestSetTimelinePositionClamps(t *testing.T) {
	s := NewScene()
	s.TimelineDuration = 4
	for _, tc := range []struct{ in, want float32 }{{-1, 0}, {2, 2}, {9, 4}} {
		if got := s.SetTimelinePosition(tc.in); got != tc.want {
			t.Errorf("SetTimelinePosition(%f) = %f, want %f", tc.in, got, tc.want)
		}
	}
}

func TestResetFreesEverything(t *testing.T) {
	s := NewSampleScene()
	ids := s.IDs()
	s.Selected = ids[0]
	s.Reset()
	if s.Len() != 0 || s.PoolUsed() != 0 {
		t.Errorf("Len = %d, PoolUsed = %d after Reset", s.Len(), s.PoolUsed())
	}
	if s.Valid(ids[0]) || !s.Selected.IsZero() {
		t.Error("handles survived Reset")
	}
}

func TestStrokeSegmentDirection(t *testing.T) {
	s := NewScene()
	id := newStroke(t, s, geom.Pt(0, 0), geom.Pt(10, 0), geom.Pt(20, 0))
	st := s.Stroke(id)

	a, h1, h2, b := st.Segment(0, false)
	if a != geom.Pt(0, 0) || h1 != geom.Pt(10, 0) || h2 != geom.Pt(0, 0) || b != geom.Pt(10, 0) {
		t.Errorf("forward segment 0 = %v %v %v %v", a, h1, h2, b)
	}
	a, h1, h2, b = st.Segment(0, true)
	if a != geom.Pt(20, 0) || h1 != geom.Pt(10, 0) || h2 != geom.Pt(20, 0) || b != geom.Pt(10, 0) {
		t.Errorf("reverse segment 0 = %v %v %v %v", a, h1, h2, b)
	}
}

func TestSetHandleMirrors(t *testing.T) {
	v := smooth(geom.Pt(50, 50), 20)
	v.SetHandle(0, geom.Pt(13, 71), false)
	if v.Handles[1] != geom.Pt(87, 29) {
		t.Errorf("mirrored handle = %v, want (87, 29)", v.Handles[1])
	}
	v.SetHandle(1, geom.Pt(60, 60), true)
	if v.Handles[0] != geom.Pt(13, 71) {
		t.Errorf("free drag moved the opposite handle to %v", v.Handles[0])
	}
}

func TestSpan(t *testing.T) {
	st := Stroke{
		GlobalStartTime: 1,
		FullDuration:    2,
		Enter:           StrokeTransition{Method: AnimateNone, Duration: 5},
		Exit:            StrokeTransition{Method: AnimateFade, Duration: 0.5},
	}
	start, enterEnd, fullEnd, exitEnd := st.Span()
	if start != 1 || enterEnd != 1 || fullEnd != 3 || exitEnd != 3.5 {
		t.Errorf("Span = %f %f %f %f", start, enterEnd, fullEnd, exitEnd)
	}
}
