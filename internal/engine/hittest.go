package engine

import (
	"github.com/linebaby/linebaby/internal/document"
	"github.com/linebaby/linebaby/internal/geom"
)

// HitTolerance is the pick radius in screen pixels.
const HitTolerance = 8

const (
	hitIterations = 4
	partAnchor    = -1
)

// curveHit is the result of picking a stroke body.
type curveHit struct {
	Segment int
	T       float32
	Point   geom.Point
	Dist    float32
}

// hitCurve finds the point of st's curve nearest to p. ok is false when the
// nearest point is farther than tol.
func hitCurve(st *document.Stroke, p geom.Point, tol float32) (curveHit, bool) {
	best := curveHit{Segment: -1}
	// The control polygon bounds the curve.
	if !st.Bounds().Expand(tol).Contains(p) {
		return best, false
	}
	for i := 0; i < st.Segments(); i++ {
		a, h1, h2, b := st.Segment(i, false)
		res := geom.MinSegments(geom.EstimateLength(a, h1, h2, b))
		q, t := geom.ClosestPointOnCurve(a, h1, h2, b, res, hitIterations, p)
		d := q.Distance(p)
		if best.Segment < 0 || d < best.Dist {
			best = curveHit{Segment: i, T: t, Point: q, Dist: d}
		}
	}
	return best, best.Segment >= 0 && best.Dist <= tol
}

// hitControl picks a control point of st. Vertices are tested last to first so
// the most recent one wins; within a vertex the anchor beats handle 0 beats
// handle 1. part is partAnchor or a handle index.
func hitControl(st *document.Stroke, p geom.Point, tol float32) (index, part int, ok bool) {
	vs := st.Vertices()
	tol2 := tol * tol
	for i := len(vs) - 1; i >= 0; i-- {
		switch {
		case vs[i].Anchor.DistanceSquared(p) <= tol2:
			return i, partAnchor, true
		case vs[i].Handles[0].DistanceSquared(p) <= tol2:
			return i, 0, true
		case vs[i].Handles[1].DistanceSquared(p) <= tol2:
			return i, 1, true
		}
	}
	return -1, 0, false
}

// pickStroke returns the topmost stroke whose curve passes within tol of p.
func pickStroke(scene *document.Scene, p geom.Point, tol float32) (document.StrokeID, curveHit, bool) {
	ids := scene.IDs()
	for i := len(ids) - 1; i >= 0; i-- {
		if hit, ok := hitCurve(scene.Stroke(ids[i]), p, tol); ok {
			return ids[i], hit, true
		}
	}
	return document.NoStroke, curveHit{}, false
}

// HitTest returns the topmost stroke under the screen position p, or the zero
// StrokeID.
func (e *Engine) HitTest(p geom.Point) document.StrokeID {
	id, _, _ := pickStroke(e.scene, e.toCanvas(p), e.tolerance())
	return id
}

// SelectionBounds returns the canvas-space bounds of the selected stroke.
func (e *Engine) SelectionBounds() geom.Rect {
	if st := e.scene.SelectedStroke(); st != nil {
		return st.Bounds()
	}
	return geom.Rect{}
}
