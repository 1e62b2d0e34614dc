package document

import (
	"encoding/json"

	"github.com/linebaby/linebaby/internal/geom"
)

// BezierPoint is one knot of a piecewise cubic Bézier curve.
// Handles[0] is the incoming tangent control, Handles[1] the outgoing one.
type BezierPoint struct {
	Anchor  geom.Point    `json:"anchor"`
	Handles [2]geom.Point `json:"handles"`
}

// Translate moves the anchor and both handles by d.
func (v *BezierPoint) Translate(d geom.Point) {
	v.Anchor = v.Anchor.Add(d)
	v.Handles[0] = v.Handles[0].Add(d)
	v.Handles[1] = v.Handles[1].Add(d)
}

// SetHandle moves handle i to p. Unless free is set, the opposite handle is
// mirrored through the anchor so the tangent stays continuous.
func (v *BezierPoint) SetHandle(i int, p geom.Point, free bool) {
	v.Handles[i] = p
	if !free {
		v.Handles[1-i] = v.Anchor.Mirror(p)
	}
}

type AnimateMethod int32

const (
	AnimateNone AnimateMethod = iota
	AnimateDraw
	AnimateFade
)

func (m AnimateMethod) String() string {
	switch m {
	case AnimateNone:
		return "none"
	case AnimateDraw:
		return "draw"
	case AnimateFade:
		return "fade"
	default:
		return "unknown"
	}
}

// StrokeTransition describes how a stroke enters or leaves visibility.
type StrokeTransition struct {
	Method   AnimateMethod `json:"method"`
	Easing   Easing        `json:"easing"`
	Duration float32       `json:"duration"`
	Reverse  bool          `json:"reverse"`
}

// EffectiveDuration is the time the transition occupies on the timeline.
func (t StrokeTransition) EffectiveDuration() float32 {
	if t.Method == AnimateNone || t.Duration < 0 {
		return 0
	}
	return t.Duration
}

// ThicknessCurve maps the arc fraction of a stamp (x) to a multiplier of the
// stroke scale (y). Both axes span the unit square.
type ThicknessCurve struct {
	A  geom.Point `json:"a"`
	H1 geom.Point `json:"h1"`
	H2 geom.Point `json:"h2"`
	B  geom.Point `json:"b"`
}

// FlatThickness keeps the stamp size constant along the stroke.
var FlatThickness = ThicknessCurve{
	A:  geom.Pt(0, 1),
	H1: geom.Pt(1.0/3, 1),
	H2: geom.Pt(2.0/3, 1),
	B:  geom.Pt(1, 1),
}

// At returns the multiplier at arc fraction f. The zero curve is flat.
func (c ThicknessCurve) At(f float32) float32 {
	if c == (ThicknessCurve{}) {
		return 1
	}
	y := geom.BezierCubic(c.A, c.H1, c.H2, c.B, geom.Clamp01(f)).Y
	if y < 0 {
		return 0
	}
	return y
}

const (
	DefaultScale              = 4
	DefaultFullDuration       = 1
	DefaultTransitionDuration = 0.35
	DefaultTimelineDuration   = 10
)

var (
	DefaultColor      = [4]float32{0.08, 0.08, 0.1, 1}
	DefaultClearColor = [4]float32{0.96, 0.95, 0.92, 1}
)

// Stroke is a brush stroke: an ordered run of control points plus its place on
// the timeline and its appearance. Vertex storage is one block of the scene's
// vertex pool.
type Stroke struct {
	GlobalStartTime float32
	FullDuration    float32
	Scale           float32
	Jitter          float32
	Color           [4]float32
	Enter           StrokeTransition
	Exit            StrokeTransition
	Thickness       ThicknessCurve

	block    int
	vertices []BezierPoint
	topo     uint32
}

// ApplyDefaults sets the appearance and timing used for freshly drawn strokes.
func (s *Stroke) ApplyDefaults() {
	s.FullDuration = DefaultFullDuration
	s.Scale = DefaultScale
	s.Jitter = 0
	s.Color = DefaultColor
	s.Enter = StrokeTransition{Method: AnimateDraw, Easing: EaseLinear, Duration: DefaultTransitionDuration}
	s.Exit = StrokeTransition{Method: AnimateDraw, Easing: EaseLinear, Duration: DefaultTransitionDuration}
	s.Thickness = FlatThickness
}

// Vertices returns the live control points. Elements may be modified in place;
// use the Scene to add or remove them.
func (s *Stroke) Vertices() []BezierPoint {
	return s.vertices
}

// Len returns the number of control points.
func (s *Stroke) Len() int {
	return len(s.vertices)
}

// Renderable reports whether the stroke has at least one segment.
func (s *Stroke) Renderable() bool {
	return len(s.vertices) >= 2
}

// Translate moves every control point by d.
func (s *Stroke) Translate(d geom.Point) {
	for i := range s.vertices {
		s.vertices[i].Translate(d)
	}
}

// Bounds returns the bounding box of all anchors and handles, which contains the
// curve.
func (s *Stroke) Bounds() geom.Rect {
	if len(s.vertices) == 0 {
		return geom.Rect{}
	}
	pts := make([]geom.Point, 0, len(s.vertices)*3)
	for _, v := range s.vertices {
		pts = append(pts, v.Anchor, v.Handles[0], v.Handles[1])
	}
	return geom.BoundsOf(pts...)
}

// Span returns the four timeline boundaries of the stroke.
func (s *Stroke) Span() (start, enterEnd, fullEnd, exitEnd float32) {
	start = s.GlobalStartTime
	enterEnd = start + s.Enter.EffectiveDuration()
	fullEnd = enterEnd + s.FullDuration
	exitEnd = fullEnd + s.Exit.EffectiveDuration()
	return start, enterEnd, fullEnd, exitEnd
}

// Segment returns the control points of segment i in the requested direction.
// Forward segment i joins vertex i to i+1; reverse segment i joins vertex
// n-1-i to n-2-i, using the knots' opposite handles as tangents.
func (s *Stroke) Segment(i int, reverse bool) (a, h1, h2, b geom.Point) {
	if !reverse {
		v0, v1 := s.vertices[i], s.vertices[i+1]
		return v0.Anchor, v0.Handles[1], v1.Handles[0], v1.Anchor
	}
	n := len(s.vertices)
	v0, v1 := s.vertices[n-1-i], s.vertices[n-2-i]
	return v0.Anchor, v0.Handles[0], v1.Handles[1], v1.Anchor
}

// Segments returns the number of curve segments.
func (s *Stroke) Segments() int {
	if len(s.vertices) < 2 {
		return 0
	}
	return len(s.vertices) - 1
}

type strokeJSON struct {
	ID              StrokeID         `json:"id"`
	GlobalStartTime float32          `json:"globalStartTime"`
	FullDuration    float32          `json:"fullDuration"`
	Scale           float32          `json:"scale"`
	Jitter          float32          `json:"jitter"`
	Color           [4]float32       `json:"color"`
	Enter           StrokeTransition `json:"enter"`
	Exit            StrokeTransition `json:"exit"`
	Thickness       ThicknessCurve   `json:"thickness"`
	Vertices        []BezierPoint    `json:"vertices"`
}

func (s *Stroke) toJSON(id StrokeID) strokeJSON {
	return strokeJSON{
		ID:              id,
		GlobalStartTime: s.GlobalStartTime,
		FullDuration:    s.FullDuration,
		Scale:           s.Scale,
		Jitter:          s.Jitter,
		Color:           s.Color,
		Enter:           s.Enter,
		Exit:            s.Exit,
		Thickness:       s.Thickness,
		Vertices:        s.vertices,
	}
}

// MarshalJSON encodes the stroke with its vertices. Strokes are only ever
// decoded through the binary project format.
func (s *Stroke) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.toJSON(StrokeID{}))
}
