package engine

import (
	"fmt"
	"math"

	"github.com/linebaby/linebaby/internal/geom"
)

// TextureID names a texture owned by a Backend.
type TextureID uint32

// FrameState is the per-frame fixed state handed to a Backend before any
// vertex data.
type FrameState struct {
	Time  float32
	Clear [4]float32
	View  geom.Matrix2D
}

// Backend is the small set of capabilities the editor needs from a renderer.
// A GPU implementation would upload stamps as instanced quads textured with the
// brush; the software rasterizer in package raster paints them directly.
type Backend interface {
	InitTexture(width, height int, rgba []byte) (TextureID, error)
	PrepareFrame(state FrameState) error
	UploadVertexData(stamps []Stamp, overlay []Polyline) error
	DrawIndexed(tex TextureID) error
}

// BrushSize is the edge length of the generated brush texture.
const BrushSize = 32

// BrushTexture returns a premultiplied RGBA soft round brush of size×size
// pixels.
func BrushTexture(size int) []byte {
	pix := make([]byte, size*size*4)
	c := float64(size-1) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := math.Hypot(float64(x)-c, float64(y)-c) / (c + 0.5)
			a := 1 - smoothstep(0.7, 1, d)
			v := byte(math.Round(a * 255))
			i := (y*size + x) * 4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = v, v, v, v
		}
	}
	return pix
}

func smoothstep(e0, e1, x float64) float64 {
	t := math.Max(0, math.Min(1, (x-e0)/(e1-e0)))
	return t * t * (3 - 2*t)
}

// RenderTo evaluates the current frame and drives one draw on b. The brush
// texture is created on the first call for each backend.
func (e *Engine) RenderTo(b Backend) error {
	if e.brushFor != b {
		tex, err := b.InitTexture(BrushSize, BrushSize, BrushTexture(BrushSize))
		if err != nil {
			return fmt.Errorf("init brush texture: %w", err)
		}
		e.brush, e.brushFor = tex, b
	}

	frame := e.Frame()
	if err := b.PrepareFrame(FrameState{Time: frame.Time, Clear: frame.Clear, View: frame.View}); err != nil {
		return fmt.Errorf("prepare frame: %w", err)
	}
	if err := b.UploadVertexData(frame.Stamps, frame.Overlay); err != nil {
		return fmt.Errorf("upload vertex data: %w", err)
	}
	if err := b.DrawIndexed(e.brush); err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	return nil
}
