package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/linebaby/linebaby/internal/geom"
	"github.com/linebaby/linebaby/internal/pool"
)

const (
	MaxStrokes        = 64
	MaxStrokeVertices = 128
)

var (
	ErrTooManyStrokes  = errors.New("scene: stroke capacity reached")
	ErrTooManyVertices = errors.New("scene: stroke vertex capacity reached")
	ErrPoolExhausted   = errors.New("scene: vertex pool exhausted")
	ErrStaleStroke     = errors.New("scene: stroke no longer exists")
	ErrStaleVertex     = errors.New("scene: vertex reference is stale")
)

type InputMode int

const (
	InputSelect InputMode = iota
	InputDraw
	InputArtboard
	InputTrim
)

func (m InputMode) String() string {
	switch m {
	case InputSelect:
		return "select"
	case InputDraw:
		return "draw"
	case InputArtboard:
		return "artboard"
	case InputTrim:
		return "trim"
	default:
		return "unknown"
	}
}

type DragMode int

const (
	DragNone DragMode = iota
	DragAnchor
	DragHandle
	DragStroke
	DragPan
)

func (m DragMode) String() string {
	switch m {
	case DragNone:
		return "none"
	case DragAnchor:
		return "anchor"
	case DragHandle:
		return "handle"
	case DragStroke:
		return "stroke"
	case DragPan:
		return "pan"
	default:
		return "unknown"
	}
}

// StrokeID is a weak handle to a stroke. Deleting the stroke bumps the
// generation of its slot, so old handles stop resolving. The zero value never
// resolves.
type StrokeID struct {
	Slot uint16 `json:"slot"`
	Gen  uint32 `json:"gen"`
}

var NoStroke StrokeID

func (id StrokeID) IsZero() bool { return id.Gen == 0 }

func (id StrokeID) String() string {
	return fmt.Sprintf("%d.%d", id.Slot, id.Gen)
}

// VertexRef is a weak handle to one control point. Gen is the topology
// generation of the stroke when the reference was taken; inserting or removing
// vertices invalidates it.
type VertexRef struct {
	Stroke StrokeID `json:"stroke"`
	Index  int      `json:"index"`
	Gen    uint32   `json:"gen"`
}

var NoVertex VertexRef

func (r VertexRef) IsZero() bool { return r.Stroke.IsZero() }

type slot struct {
	stroke Stroke
	gen    uint32
	live   bool
}

// Scene is the editable document: a bounded arena of strokes plus the global
// timeline and editing state.
type Scene struct {
	TimelineDuration float32
	TimelinePosition float32
	Playing          bool
	Scrubbing        bool

	Selected       StrokeID
	SelectedVertex VertexRef
	InputMode      InputMode
	DragMode       DragMode

	ArtboardSet bool
	Artboard    [2]geom.Point
	ExportRange [2]float32
	ClearColor  [4]float32

	slots    [MaxStrokes]slot
	order    []uint16
	vertices *pool.Pool[BezierPoint]
}

// NewScene returns an empty scene with the default timeline.
func NewScene() *Scene {
	s := &Scene{
		TimelineDuration: DefaultTimelineDuration,
		ClearColor:       DefaultClearColor,
		order:            make([]uint16, 0, MaxStrokes),
		vertices:         pool.New[BezierPoint](MaxStrokeVertices, MaxStrokes),
	}
	s.ExportRange = [2]float32{0, s.TimelineDuration}
	return s
}

// CreateStroke allocates a vertex block and appends an empty stroke with the
// default appearance. On error the scene is unchanged.
func (s *Scene) CreateStroke() (StrokeID, *Stroke, error) {
	if len(s.order) >= MaxStrokes {
		return NoStroke, nil, ErrTooManyStrokes
	}
	free := -1
	for i := range s.slots {
		if !s.slots[i].live {
			free = i
			break
		}
	}
	if free < 0 {
		return NoStroke, nil, ErrTooManyStrokes
	}
	block, err := s.vertices.Alloc()
	if err != nil {
		return NoStroke, nil, fmt.Errorf("%w: %v", ErrPoolExhausted, err)
	}

	sl := &s.slots[free]
	sl.gen++
	sl.live = true
	sl.stroke = Stroke{
		block:    block,
		vertices: s.vertices.Block(block)[:0],
	}
	sl.stroke.ApplyDefaults()
	s.order = append(s.order, uint16(free))

	return StrokeID{Slot: uint16(free), Gen: sl.gen}, &sl.stroke, nil
}

// DeleteStroke frees the stroke's vertex block and removes it from the draw
// order by swapping the last stroke into its place. It reports false for a
// stale handle, or when the pool does not hold the stroke's block, and then
// changes nothing. Selection is left to the caller.
func (s *Scene) DeleteStroke(id StrokeID) bool {
	sl := s.slot(id)
	if sl == nil {
		return false
	}
	if err := s.vertices.Free(sl.stroke.block); err != nil {
		// Pool and arena disagree about the block; leave both untouched.
		return false
	}
	sl.live = false
	sl.gen++
	sl.stroke = Stroke{}

	for i, o := range s.order {
		if o != id.Slot {
			continue
		}
		last := len(s.order) - 1
		s.order[i] = s.order[last]
		s.order = s.order[:last]
		break
	}
	return true
}

func (s *Scene) slot(id StrokeID) *slot {
	if id.IsZero() || int(id.Slot) >= len(s.slots) {
		return nil
	}
	sl := &s.slots[id.Slot]
	if !sl.live || sl.gen != id.Gen {
		return nil
	}
	return sl
}

// Stroke resolves a handle, returning nil if the stroke was deleted.
func (s *Scene) Stroke(id StrokeID) *Stroke {
	sl := s.slot(id)
	if sl == nil {
		return nil
	}
	return &sl.stroke
}

// Valid reports whether id still refers to a live stroke.
func (s *Scene) Valid(id StrokeID) bool {
	return s.slot(id) != nil
}

// Len returns the number of live strokes.
func (s *Scene) Len() int {
	return len(s.order)
}

// IDs returns the live stroke handles in draw order.
func (s *Scene) IDs() []StrokeID {
	ids := make([]StrokeID, len(s.order))
	for i, o := range s.order {
		ids[i] = StrokeID{Slot: o, Gen: s.slots[o].gen}
	}
	return ids
}

// Strokes iterates live strokes in draw order. The scene must not be
// structurally modified during iteration.
func (s *Scene) Strokes() iter.Seq2[StrokeID, *Stroke] {
	return func(yield func(StrokeID, *Stroke) bool) {
		for _, o := range s.order {
			sl := &s.slots[o]
			if !yield(StrokeID{Slot: o, Gen: sl.gen}, &sl.stroke) {
				return
			}
		}
	}
}

// AddVertex appends a zeroed control point to the stroke and returns it with
// its index.
func (s *Scene) AddVertex(id StrokeID) (*BezierPoint, int, error) {
	st := s.Stroke(id)
	if st == nil {
		return nil, -1, ErrStaleStroke
	}
	n := len(st.vertices)
	if n >= cap(st.vertices) {
		return nil, -1, ErrTooManyVertices
	}
	st.vertices = st.vertices[:n+1]
	st.vertices[n] = BezierPoint{}
	return &st.vertices[n], n, nil
}

// InsertVertex opens a zeroed control point at index, shifting the following
// points right. index == Len() appends.
func (s *Scene) InsertVertex(id StrokeID, index int) (*BezierPoint, error) {
	st := s.Stroke(id)
	if st == nil {
		return nil, ErrStaleStroke
	}
	n := len(st.vertices)
	if index < 0 || index > n {
		return nil, fmt.Errorf("insert vertex %d of %d: %w", index, n, ErrStaleVertex)
	}
	if n >= cap(st.vertices) {
		return nil, ErrTooManyVertices
	}
	st.vertices = st.vertices[:n+1]
	copy(st.vertices[index+1:], st.vertices[index:n])
	st.vertices[index] = BezierPoint{}
	st.topo++
	return &st.vertices[index], nil
}

// DeleteVertex removes the referenced control point, keeping the order of the
// rest. A stroke left with one vertex or none is deleted, which is reported
// through strokeDeleted.
func (s *Scene) DeleteVertex(ref VertexRef) (strokeDeleted bool, err error) {
	st := s.Stroke(ref.Stroke)
	if st == nil {
		return false, ErrStaleStroke
	}
	if ref.Gen != st.topo || ref.Index < 0 || ref.Index >= len(st.vertices) {
		return false, ErrStaleVertex
	}
	n := len(st.vertices)
	copy(st.vertices[ref.Index:], st.vertices[ref.Index+1:])
	st.vertices = st.vertices[:n-1]
	st.topo++

	if len(st.vertices) <= 1 {
		s.DeleteStroke(ref.Stroke)
		return true, nil
	}
	return false, nil
}

// Ref builds a reference to vertex index of the stroke.
func (s *Scene) Ref(id StrokeID, index int) VertexRef {
	st := s.Stroke(id)
	if st == nil {
		return NoVertex
	}
	return VertexRef{Stroke: id, Index: index, Gen: st.topo}
}

// Vertex resolves a reference, returning nil when it is stale.
func (s *Scene) Vertex(ref VertexRef) *BezierPoint {
	st := s.Stroke(ref.Stroke)
	if st == nil || ref.Gen != st.topo || ref.Index < 0 || ref.Index >= len(st.vertices) {
		return nil
	}
	return &st.vertices[ref.Index]
}

// Reset removes every stroke and clears selection. Timeline and artboard
// settings are kept.
func (s *Scene) Reset() {
	s.vertices.Reset()
	for i := range s.slots {
		if s.slots[i].live {
			s.slots[i].gen++
		}
		s.slots[i].live = false
		s.slots[i].stroke = Stroke{}
	}
	s.order = s.order[:0]
	s.ClearSelection()
	s.DragMode = DragNone
}

// ClearSelection drops both weak selection references.
func (s *Scene) ClearSelection() {
	s.Selected = NoStroke
	s.SelectedVertex = NoVertex
}

// SelectedStroke resolves the selection, clearing it if it went stale.
func (s *Scene) SelectedStroke() *Stroke {
	st := s.Stroke(s.Selected)
	if st == nil && !s.Selected.IsZero() {
		s.ClearSelection()
	}
	return st
}

// SetTimelinePosition moves the playhead, clamped to the timeline.
func (s *Scene) SetTimelinePosition(t float32) float32 {
	s.TimelinePosition = s.ClampTime(t)
	return s.TimelinePosition
}

// ClampTime clamps t to [0, TimelineDuration]. NaN maps to 0.
func (s *Scene) ClampTime(t float32) float32 {
	switch {
	case math.IsNaN(float64(t)) || t < 0:
		return 0
	case t > s.TimelineDuration:
		return s.TimelineDuration
	}
	return t
}

// ArtboardRect returns the normalized artboard, or the empty rect if none is set.
func (s *Scene) ArtboardRect() geom.Rect {
	if !s.ArtboardSet {
		return geom.Rect{}
	}
	return geom.RectFromCorners(s.Artboard[0], s.Artboard[1])
}

// PoolUsed returns the number of vertex blocks in use.
func (s *Scene) PoolUsed() int {
	return s.vertices.Used()
}

type sceneJSON struct {
	TimelineDuration float32       `json:"timelineDuration"`
	TimelinePosition float32       `json:"timelinePosition"`
	Playing          bool          `json:"playing"`
	ArtboardSet      bool          `json:"artboardSet"`
	Artboard         [2]geom.Point `json:"artboard"`
	ExportRange      [2]float32    `json:"exportRange"`
	ClearColor       [4]float32    `json:"clearColor"`
	Strokes          []strokeJSON  `json:"strokes"`
}

// MarshalJSON encodes the scene for live sync. Editing state that is local to a
// session (selection, modes) is not included.
func (s *Scene) MarshalJSON() ([]byte, error) {
	out := sceneJSON{
		TimelineDuration: s.TimelineDuration,
		TimelinePosition: s.TimelinePosition,
		Playing:          s.Playing,
		ArtboardSet:      s.ArtboardSet,
		Artboard:         s.Artboard,
		ExportRange:      s.ExportRange,
		ClearColor:       s.ClearColor,
		Strokes:          make([]strokeJSON, 0, len(s.order)),
	}
	for id, st := range s.Strokes() {
		out.Strokes = append(out.Strokes, st.toJSON(id))
	}
	return json.Marshal(out)
}
