package engine

import (
	"github.com/linebaby/linebaby/internal/document"
	"github.com/linebaby/linebaby/internal/geom"
)

var (
	overlayCurve    = [4]float32{0.16, 0.5, 0.96, 1}
	overlayHandle   = [4]float32{0.55, 0.55, 0.6, 1}
	overlayKnot     = [4]float32{1, 1, 1, 1}
	overlayActive   = [4]float32{0.96, 0.65, 0.14, 1}
	overlayArtboard = [4]float32{0.45, 0.45, 0.5, 1}
)

// Overlay sizes in screen pixels.
const (
	overlayLineWidth = 1
	knotBoxRadius    = 3
)

// buildOverlay appends the editing overlay: the artboard outline, an artboard
// capture in progress, and the curve, handle arms and control boxes of the
// selected stroke.
func (e *Engine) buildOverlay(dst []Polyline) []Polyline {
	s := e.scene
	px := 1 / max(e.view.ScaleFactor(), 1e-6)

	if s.ArtboardSet {
		r := geom.RectFromCorners(s.Artboard[0], s.Artboard[1])
		c := r.Corners()
		dst = append(dst, Polyline{
			Points: c[:],
			Color:  overlayArtboard,
			Width:  overlayLineWidth * px,
			Closed: true,
		})
	}

	st := s.SelectedStroke()
	if st == nil || st.Len() == 0 {
		return dst
	}

	if st.Segments() > 0 {
		var curve []geom.Point
		for i := 0; i < st.Segments(); i++ {
			a, h1, h2, b := st.Segment(i, false)
			pts := geom.Tessellate(nil, a, h1, h2, b)
			if i > 0 {
				// Segments share their joining anchor.
				pts = pts[1:]
			}
			curve = append(curve, pts...)
		}
		dst = append(dst, Polyline{Points: curve, Color: overlayCurve, Width: overlayLineWidth * px})
	}

	active := s.Vertex(s.SelectedVertex)
	for i := range st.Vertices() {
		v := &st.Vertices()[i]
		dst = append(dst, Polyline{
			Points: []geom.Point{v.Handles[0], v.Anchor, v.Handles[1]},
			Color:  overlayHandle,
			Width:  overlayLineWidth * px,
		})
		color := overlayKnot
		if v == active {
			color = overlayActive
		}
		dst = append(dst,
			box(v.Anchor, knotBoxRadius*px, color, px),
			box(v.Handles[0], knotBoxRadius*px*0.7, overlayHandle, px),
			box(v.Handles[1], knotBoxRadius*px*0.7, overlayHandle, px),
		)
	}
	return dst
}

func box(c geom.Point, r float32, color [4]float32, px float32) Polyline {
	corners := geom.Rect{Min: c.Sub(geom.Pt(r, r)), Max: c.Add(geom.Pt(r, r))}.Corners()
	return Polyline{Points: corners[:], Color: color, Width: overlayLineWidth * px, Closed: true}
}

// overlayVisible reports whether editing chrome should be drawn.
func (e *Engine) overlayVisible() bool {
	return !e.scene.Playing || e.scene.DragMode != document.DragNone
}
