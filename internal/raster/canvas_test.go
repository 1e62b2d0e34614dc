package raster

import (
	"bytes"
	"errors"
	"image/png"
	"testing"

	"github.com/linebaby/linebaby/internal/document"
	"github.com/linebaby/linebaby/internal/engine"
	"github.com/linebaby/linebaby/internal/geom"
)

func lineEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e := engine.New()
	s := e.Scene()
	s.ClearColor = [4]float32{1, 1, 1, 1}
	id, st, err := s.CreateStroke()
	if err != nil {
		t.Fatal(err)
	}
	for _, x := range []float32{10, 90} {
		v, _, err := s.AddVertex(id)
		if err != nil {
			t.Fatal(err)
		}
		*v = document.BezierPoint{Anchor: geom.Pt(x, 50), Handles: [2]geom.Point{geom.Pt(x-10, 50), geom.Pt(x+10, 50)}}
	}
	st.Color = [4]float32{1, 0, 0, 1}
	st.Scale = 8
	st.GlobalStartTime = 0
	e.SetPlayhead(st.Enter.Duration + st.FullDuration/2)
	return e
}

func TestCanvasPaintsStamps(t *testing.T) {
	e := lineEngine(t)
	c, err := Render(e, 100, 100, false)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	img := c.Image()

	on := img.RGBAAt(50, 50)
	if on.R < 200 || on.G > 60 || on.B > 60 {
		t.Errorf("pixel on the stroke = %v, want red", on)
	}
	off := img.RGBAAt(50, 10)
	if off.R != 255 || off.G != 255 || off.B != 255 {
		t.Errorf("pixel off the stroke = %v, want the clear color", off)
	}
}

func TestCanvasOverlayToggle(t *testing.T) {
	e := lineEngine(t)
	s := e.Scene()
	s.ArtboardSet = true
	s.Artboard = [2]geom.Point{geom.Pt(5, 5), geom.Pt(95, 95)}

	with, err := Render(e, 100, 100, true)
	if err != nil {
		t.Fatal(err)
	}
	without, err := Render(e, 100, 100, false)
	if err != nil {
		t.Fatal(err)
	}
	if px := with.Image().RGBAAt(50, 5); px.R == 255 && px.G == 255 && px.B == 255 {
		t.Error("artboard outline not drawn with the overlay on")
	}
	if px := without.Image().RGBAAt(50, 5); px.R != 255 || px.G != 255 || px.B != 255 {
		t.Errorf("overlay drawn with the overlay off: %v", px)
	}
}

func TestCanvasFollowsView(t *testing.T) {
	e := lineEngine(t)
	e.SetView(geom.Translate(0, 30))
	c, err := Render(e, 100, 100, false)
	if err != nil {
		t.Fatal(err)
	}
	if px := c.Image().RGBAAt(50, 80); px.G > 60 {
		t.Errorf("pixel under the panned stroke = %v, want red", px)
	}
	if px := c.Image().RGBAAt(50, 50); px.G != 255 {
		t.Errorf("pixel at the unpanned position = %v, want clear", px)
	}
}

func TestCanvasErrors(t *testing.T) {
	c := NewCanvas(10, 10)
	if _, err := c.InitTexture(2, 2, make([]byte, 3)); !errors.Is(err, ErrBadTexture) {
		t.Errorf("InitTexture = %v, want ErrBadTexture", err)
	}
	if err := c.DrawIndexed(1); !errors.Is(err, ErrNoFrame) {
		t.Errorf("DrawIndexed before PrepareFrame = %v", err)
	}
	if err := c.PrepareFrame(engine.FrameState{View: geom.Identity()}); err != nil {
		t.Fatal(err)
	}
	if err := c.DrawIndexed(7); !errors.Is(err, ErrUnknownTexture) {
		t.Errorf("DrawIndexed(unknown) = %v", err)
	}
}

func TestEncodePNG(t *testing.T) {
	e := lineEngine(t)
	c, err := Render(e, 64, 32, false)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := c.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 32 {
		t.Errorf("bounds = %v", b)
	}
}

func TestFitView(t *testing.T) {
	content := geom.Rect{Min: geom.Pt(100, 100), Max: geom.Pt(300, 200)}
	m := FitView(content, 400, 400)
	if got := m.Apply(content.Min); got != geom.Pt(0, 100) {
		t.Errorf("top-left maps to %v, want (0,100)", got)
	}
	if got := m.Apply(content.Max); got != geom.Pt(400, 300) {
		t.Errorf("bottom-right maps to %v, want (400,300)", got)
	}
	if m := FitView(geom.Rect{}, 10, 10); !m.IsIdentity() {
		t.Errorf("empty content = %v, want identity", m)
	}
}

func TestContentBounds(t *testing.T) {
	s := document.NewSampleScene()
	if got := ContentBounds(s); got != s.ArtboardRect() {
		t.Errorf("ContentBounds = %v, want the artboard %v", got, s.ArtboardRect())
	}
	s.ArtboardSet = false
	got := ContentBounds(s)
	if got.Width() <= 0 || got.Height() <= 0 {
		t.Errorf("stroke bounds = %v", got)
	}
	if got := ContentBounds(document.NewScene()); got != (geom.Rect{}) {
		t.Errorf("empty scene bounds = %v", got)
	}
}
