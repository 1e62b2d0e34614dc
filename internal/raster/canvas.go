// Package raster is a software rendering backend for the editor. It paints
// brush stamps and the editing overlay into an *image.RGBA.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/linebaby/linebaby/internal/engine"
	"github.com/linebaby/linebaby/internal/geom"
)

var (
	ErrBadTexture     = errors.New("texture data does not match its size")
	ErrUnknownTexture = errors.New("unknown texture")
	ErrNoFrame        = errors.New("draw before prepare frame")
)

// Canvas implements engine.Backend on the CPU.
type Canvas struct {
	// Overlay controls whether editing chrome is painted. Previews turn it off.
	Overlay bool

	img  *image.RGBA
	rast *vector.Rasterizer

	textures map[engine.TextureID]*image.Alpha
	nextTex  engine.TextureID
	masks    map[maskKey]*image.Alpha

	state    engine.FrameState
	prepared bool
	stamps   []engine.Stamp
	overlay  []engine.Polyline
}

type maskKey struct {
	tex  engine.TextureID
	size int
}

var _ engine.Backend = (*Canvas)(nil)

// NewCanvas creates a width×height canvas with the overlay enabled.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{
		Overlay:  true,
		img:      image.NewRGBA(image.Rect(0, 0, width, height)),
		rast:     vector.NewRasterizer(width, height),
		textures: make(map[engine.TextureID]*image.Alpha),
		masks:    make(map[maskKey]*image.Alpha),
	}
}

// Image returns the canvas pixels. It is overwritten by the next frame.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// EncodePNG writes the last frame as a PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, c.img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// InitTexture keeps the alpha channel of rgba; stamps are tinted with their
// own color.
func (c *Canvas) InitTexture(width, height int, rgba []byte) (engine.TextureID, error) {
	if width <= 0 || height <= 0 || len(rgba) != width*height*4 {
		return 0, ErrBadTexture
	}
	a := image.NewAlpha(image.Rect(0, 0, width, height))
	for i := range a.Pix {
		a.Pix[i] = rgba[i*4+3]
	}
	c.nextTex++
	c.textures[c.nextTex] = a
	return c.nextTex, nil
}

// PrepareFrame clears the canvas to the frame's clear color.
func (c *Canvas) PrepareFrame(state engine.FrameState) error {
	c.state = state
	c.prepared = true
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(toNRGBA(state.Clear, 1)), image.Point{}, draw.Src)
	return nil
}

func (c *Canvas) UploadVertexData(stamps []engine.Stamp, overlay []engine.Polyline) error {
	c.stamps = append(c.stamps[:0], stamps...)
	c.overlay = append(c.overlay[:0], overlay...)
	return nil
}

// DrawIndexed paints the uploaded stamps with brush tex, then the overlay.
func (c *Canvas) DrawIndexed(tex engine.TextureID) error {
	if !c.prepared {
		return ErrNoFrame
	}
	brush, ok := c.textures[tex]
	if !ok {
		return fmt.Errorf("draw texture %d: %w", tex, ErrUnknownTexture)
	}

	view := c.state.View
	scale := view.ScaleFactor()
	for _, s := range c.stamps {
		a := s.Color[3] * s.Alpha
		if a <= 0 {
			continue
		}
		size := int(math.Ceil(float64(s.Scale * scale)))
		if size < 1 {
			size = 1
		}
		mask := c.mask(tex, brush, size)
		center := view.Apply(s.Pos)
		tl := image.Pt(
			int(math.Round(float64(center.X)-float64(size)/2)),
			int(math.Round(float64(center.Y)-float64(size)/2)),
		)
		r := image.Rectangle{Min: tl, Max: tl.Add(image.Pt(size, size))}
		draw.DrawMask(c.img, r, image.NewUniform(toNRGBA(s.Color, s.Alpha)), image.Point{}, mask, image.Point{}, draw.Over)
	}

	if c.Overlay {
		for _, pl := range c.overlay {
			c.strokePolyline(pl, view)
		}
	}
	c.prepared = false
	return nil
}

// mask returns the brush resampled to size×size pixels.
func (c *Canvas) mask(tex engine.TextureID, brush *image.Alpha, size int) *image.Alpha {
	k := maskKey{tex, size}
	if m, ok := c.masks[k]; ok {
		return m
	}
	m := image.NewAlpha(image.Rect(0, 0, size, size))
	xdraw.ApproxBiLinear.Scale(m, m.Bounds(), brush, brush.Bounds(), xdraw.Src, nil)
	c.masks[k] = m
	return m
}

// strokePolyline fills one quad per segment of pl, mapped to screen space.
func (c *Canvas) strokePolyline(pl engine.Polyline, view geom.Matrix2D) {
	n := len(pl.Points)
	if n < 2 {
		return
	}
	half := max(pl.Width*view.ScaleFactor(), 1) / 2
	b := c.img.Bounds()
	c.rast.Reset(b.Dx(), b.Dy())

	segs := n - 1
	if pl.Closed {
		segs = n
	}
	for i := 0; i < segs; i++ {
		p := view.Apply(pl.Points[i])
		q := view.Apply(pl.Points[(i+1)%n])
		d := q.Sub(p)
		l := d.Len()
		if l == 0 {
			continue
		}
		// Extend each quad by half the width so joints overlap.
		u := d.Mul(half / l)
		nrm := geom.Pt(-u.Y, u.X)
		p, q = p.Sub(u), q.Add(u)
		c.rast.MoveTo(p.X+nrm.X, p.Y+nrm.Y)
		c.rast.LineTo(q.X+nrm.X, q.Y+nrm.Y)
		c.rast.LineTo(q.X-nrm.X, q.Y-nrm.Y)
		c.rast.LineTo(p.X-nrm.X, p.Y-nrm.Y)
		c.rast.ClosePath()
	}
	c.rast.DrawOp = draw.Over
	c.rast.Draw(c.img, b, image.NewUniform(toNRGBA(pl.Color, 1)), image.Point{})
}

func toNRGBA(c [4]float32, alpha float32) color.NRGBA {
	return color.NRGBA{
		R: unit8(c[0]),
		G: unit8(c[1]),
		B: unit8(c[2]),
		A: unit8(c[3] * alpha),
	}
}

func unit8(v float32) uint8 {
	return uint8(math.Round(float64(geom.Clamp01(v)) * 255))
}

// Render draws the engine's current frame onto a new width×height canvas.
func Render(e *engine.Engine, width, height int, overlay bool) (*Canvas, error) {
	c := NewCanvas(width, height)
	c.Overlay = overlay
	if err := e.RenderTo(c); err != nil {
		return nil, err
	}
	return c, nil
}
