package raster

import (
	"github.com/linebaby/linebaby/internal/document"
	"github.com/linebaby/linebaby/internal/geom"
)

// ContentBounds is the region a preview shows: the artboard when one is set,
// otherwise the bounds of every stroke.
func ContentBounds(s *document.Scene) geom.Rect {
	if s.ArtboardSet {
		if r := s.ArtboardRect(); r.Width() > 0 && r.Height() > 0 {
			return r
		}
	}
	var r geom.Rect
	first := true
	for _, st := range s.Strokes() {
		if st.Len() == 0 {
			continue
		}
		b := st.Bounds().Expand(st.Scale / 2)
		if first {
			r, first = b, false
			continue
		}
		r = r.Union(b)
	}
	return r
}

// FitView maps content into a width×height image, scaled uniformly and
// centered. Empty content maps with the identity.
func FitView(content geom.Rect, width, height int) geom.Matrix2D {
	cw, ch := content.Width(), content.Height()
	if cw <= 0 || ch <= 0 || width <= 0 || height <= 0 {
		return geom.Identity()
	}
	s := min(float32(width)/cw, float32(height)/ch)
	ox := (float32(width) - cw*s) / 2
	oy := (float32(height) - ch*s) / 2
	return geom.Translate(ox, oy).
		Multiply(geom.Scale(s, s)).
		Multiply(geom.Translate(-content.Min.X, -content.Min.Y))
}
