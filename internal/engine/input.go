package engine

import (
	"github.com/linebaby/linebaby/internal/document"
	"github.com/linebaby/linebaby/internal/geom"
)

// Modifiers is a bit set of held modifier keys.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
)

const (
	// ModFree drags a handle without mirroring the opposite one.
	ModFree = ModAlt
	// ModFine multiplies keyboard nudges by ten.
	ModFine = ModShift
	// ModInsert turns a click on the selected stroke's body into a knot insertion.
	ModInsert = ModCtrl
)

func (m Modifiers) Has(f Modifiers) bool { return m&f != 0 }

type PointerKind int

const (
	PointerMove PointerKind = iota
	PointerDown
	PointerUp
)

type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

// PointerEvent is a pointer action in screen coordinates.
type PointerEvent struct {
	Kind   PointerKind `json:"kind"`
	Button Button      `json:"button"`
	Pos    geom.Point  `json:"pos"`
	Mods   Modifiers   `json:"mods"`
}

const (
	// Handles of a freshly drawn knot sit this far either side of the anchor.
	drawHandleReach = 20
)

// dragState is what a drag needs to remember between pointer events.
type dragState struct {
	start  geom.Point
	last   geom.Point
	handle int
	origin []document.BezierPoint
}

// HandlePointer feeds one pointer event to the edit controller.
func (e *Engine) HandlePointer(ev PointerEvent) {
	screen := ev.Pos
	p := e.toCanvas(screen)

	switch ev.Kind {
	case PointerDown:
		if ev.Button == ButtonMiddle {
			e.scene.DragMode = document.DragPan
			e.drag.last = screen
			return
		}
		if ev.Button != ButtonPrimary {
			return
		}
		switch e.scene.InputMode {
		case document.InputSelect:
			e.selectDown(p, ev.Mods)
		case document.InputDraw:
			e.drawDown(p)
		case document.InputArtboard:
			e.artboardClick(p)
		case document.InputTrim:
			e.rangeClick(screen)
		}

	case PointerMove:
		e.pointerMove(p, screen, ev.Mods)

	case PointerUp:
		e.scene.DragMode = document.DragNone
		e.drag.origin = e.drag.origin[:0]
	}
}

func (e *Engine) selectDown(p geom.Point, mods Modifiers) {
	s := e.scene
	tol := e.tolerance()
	st := s.SelectedStroke()
	if st == nil {
		if id, _, ok := pickStroke(s, p, tol); ok {
			s.Selected = id
			s.SelectedVertex = document.NoVertex
			e.logger.Debug("stroke selected", "stroke", id)
		}
		return
	}

	if i, part, ok := hitControl(st, p, tol); ok {
		s.SelectedVertex = s.Ref(s.Selected, i)
		e.drag.last = p
		if part == partAnchor {
			s.DragMode = document.DragAnchor
		} else {
			s.DragMode = document.DragHandle
			e.drag.handle = part
		}
		return
	}

	if hit, ok := hitCurve(st, p, tol); ok {
		if mods.Has(ModInsert) {
			e.insertKnot(hit)
			return
		}
		s.DragMode = document.DragStroke
		e.drag.start = p
		e.drag.origin = append(e.drag.origin[:0], st.Vertices()...)
		return
	}

	e.releaseSelection()
}

// insertKnot splits the hit segment at the hit parameter so the new knot
// leaves the curve shape unchanged.
func (e *Engine) insertKnot(hit curveHit) {
	s := e.scene
	st := s.Stroke(s.Selected)
	i := hit.Segment
	a, h1, h2, b := st.Segment(i, false)
	l1, l2, m, r1, r2 := geom.SplitCubic(a, h1, h2, b, hit.T)

	if _, err := s.InsertVertex(s.Selected, i+1); err != nil {
		e.logger.Debug("insert vertex rejected", "stroke", s.Selected, "error", err)
		return
	}
	vs := st.Vertices()
	vs[i].Handles[1] = l1
	vs[i+1] = document.BezierPoint{Anchor: m, Handles: [2]geom.Point{l2, r1}}
	vs[i+2].Handles[0] = r2
	s.SelectedVertex = s.Ref(s.Selected, i+1)
}

func (e *Engine) drawDown(p geom.Point) {
	s := e.scene
	if s.SelectedStroke() == nil {
		id, st, err := s.CreateStroke()
		if err != nil {
			e.logger.Debug("create stroke rejected", "error", err)
			return
		}
		st.GlobalStartTime = max(0, s.TimelinePosition-document.DefaultTransitionDuration)
		s.Selected = id
		e.logger.Debug("stroke created", "stroke", id, "start", st.GlobalStartTime)
	}

	v, idx, err := s.AddVertex(s.Selected)
	if err != nil {
		e.logger.Debug("add vertex rejected", "stroke", s.Selected, "error", err)
		return
	}
	reach := geom.Pt(drawHandleReach, 0)
	*v = document.BezierPoint{
		Anchor:  p,
		Handles: [2]geom.Point{p.Sub(reach), p.Add(reach)},
	}
	s.SelectedVertex = s.Ref(s.Selected, idx)
	s.DragMode = document.DragHandle
	e.drag.handle = 0
	e.drag.last = p
}

func (e *Engine) artboardClick(p geom.Point) {
	s := e.scene
	if !e.capturing {
		s.Artboard = [2]geom.Point{p, p}
		s.ArtboardSet = true
		e.capturing = true
		return
	}
	r := geom.RectFromCorners(s.Artboard[0], p)
	s.Artboard = [2]geom.Point{r.Min, r.Max}
	e.capturing = false
	s.InputMode = document.InputSelect
}

func (e *Engine) rangeClick(screen geom.Point) {
	s := e.scene
	t := e.screenToTime(screen.X)
	if !e.capturing {
		s.ExportRange = [2]float32{t, t}
		e.capturing = true
		return
	}
	lo, hi := s.ExportRange[0], t
	if hi < lo {
		lo, hi = hi, lo
	}
	s.ExportRange = [2]float32{lo, hi}
	e.capturing = false
	s.InputMode = document.InputSelect
}

func (e *Engine) pointerMove(p, screen geom.Point, mods Modifiers) {
	s := e.scene

	if e.capturing {
		switch s.InputMode {
		case document.InputArtboard:
			s.Artboard[1] = p
		case document.InputTrim:
			s.ExportRange[1] = e.screenToTime(screen.X)
		}
	}

	switch s.DragMode {
	case document.DragAnchor:
		if v := s.Vertex(s.SelectedVertex); v != nil {
			v.Translate(p.Sub(e.drag.last))
		}
		e.drag.last = p
	case document.DragHandle:
		if v := s.Vertex(s.SelectedVertex); v != nil {
			v.SetHandle(e.drag.handle, p, mods.Has(ModFree))
		}
	case document.DragStroke:
		st := s.SelectedStroke()
		if st == nil || st.Len() != len(e.drag.origin) {
			s.DragMode = document.DragNone
			return
		}
		d := p.Sub(e.drag.start)
		vs := st.Vertices()
		for i := range vs {
			vs[i] = e.drag.origin[i]
			vs[i].Translate(d)
		}
	case document.DragPan:
		d := screen.Sub(e.drag.last)
		e.view = geom.Translate(d.X, d.Y).Multiply(e.view)
		e.drag.last = screen
	}
}

// releaseSelection deselects, deleting the selected stroke if it never got
// enough vertices to be drawn.
func (e *Engine) releaseSelection() {
	s := e.scene
	if st := s.Stroke(s.Selected); st != nil && !st.Renderable() {
		s.DeleteStroke(s.Selected)
		e.logger.Debug("unfinished stroke discarded", "stroke", s.Selected)
	}
	s.ClearSelection()
	s.DragMode = document.DragNone
}

func (e *Engine) toCanvas(screen geom.Point) geom.Point {
	return e.view.Invert().Apply(screen)
}

func (e *Engine) tolerance() float32 {
	f := e.view.ScaleFactor()
	if f <= 0 {
		return HitTolerance
	}
	return HitTolerance / f
}

// screenToTime maps a horizontal screen position across the viewport to a
// timeline time.
func (e *Engine) screenToTime(x float32) float32 {
	if e.viewport.X <= 0 {
		return 0
	}
	return e.scene.TimelineDuration * geom.Clamp01(x/e.viewport.X)
}
