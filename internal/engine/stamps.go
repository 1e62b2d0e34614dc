package engine

import (
	"math"
	"math/rand/v2"

	"github.com/linebaby/linebaby/internal/document"
	"github.com/linebaby/linebaby/internal/geom"
)

// Stamp is one brush dab of a stroke.
type Stamp struct {
	Pos      geom.Point `json:"pos"`
	Rotation int        `json:"rot"`
	Scale    float32    `json:"scale"`
	Color    [4]float32 `json:"color"`
	Alpha    float32    `json:"alpha"`
}

// minSpacing keeps the stamp count finite for strokes with a zero scale.
const minSpacing = 0.5

// Stamper walks strokes by arc length and emits evenly spaced stamps. Its
// distance cache is scratch space, valid only for the segment being walked.
type Stamper struct {
	cache   geom.DistanceCache
	lengths [document.MaxStrokeVertices]float32
}

// Stamps appends the stamps for stroke st in frame f to dst. seed makes the
// jitter of a stroke stable from frame to frame.
func (sp *Stamper) Stamps(dst []Stamp, st *document.Stroke, f StrokeFrame, seed uint64) []Stamp {
	n := st.Segments()
	if n == 0 || !f.Visible() {
		return dst
	}

	var total float32
	for i := 0; i < n; i++ {
		a, h1, h2, b := st.Segment(i, f.Reverse)
		sp.lengths[i] = sp.cache.Update(a, h1, h2, b)
		total += sp.lengths[i]
	}

	e := emitter{st: st, alpha: f.Alpha, total: total}
	if st.Jitter > 0 {
		e.rng = rand.New(rand.NewPCG(seed, uint64(st.Len())))
	}

	if total <= 0 {
		if f.Reveal >= 1 {
			a, _, _, _ := st.Segment(0, f.Reverse)
			dst = e.emit(dst, a, 0)
		}
		return dst
	}

	spacing := max(st.Scale/2, minSpacing)
	target := total * f.Reveal
	full := f.Reveal >= 1
	var soFar float32
	for i := 0; i < n; i++ {
		segLen := sp.lengths[i]
		if segLen <= 0 {
			continue
		}
		// Summed lengths drift, so a full reveal walks every segment whole.
		segFrac := float32(1)
		if !full {
			segFrac = geom.Clamp01((target - soFar) / segLen)
		}
		if segFrac <= 0 {
			break
		}

		a, h1, h2, b := st.Segment(i, f.Reverse)
		sp.cache.Update(a, h1, h2, b)
		perSeg := max(int(math.Ceil(float64(segLen/spacing))), 1)
		count := int(math.Ceil(float64(float32(perSeg) * segFrac)))
		for j := 0; j < count; j++ {
			arc := float32(j) / float32(perSeg)
			p := geom.BezierCubic(a, h1, h2, b, sp.cache.ClosestT(arc))
			dst = e.emit(dst, p, (soFar+arc*segLen)/total)
		}
		if segFrac >= 1 && i == n-1 {
			dst = e.emit(dst, b, 1)
		}
		soFar += segLen
	}
	return dst
}

type emitter struct {
	st      *document.Stroke
	alpha   float32
	total   float32
	ordinal int
	rng     *rand.Rand
}

func (e *emitter) emit(dst []Stamp, p geom.Point, arcFraction float32) []Stamp {
	if e.rng != nil {
		r := e.st.Jitter * e.st.Scale
		p = p.Add(geom.Pt((e.rng.Float32()*2-1)*r, (e.rng.Float32()*2-1)*r))
	}
	dst = append(dst, Stamp{
		Pos:      p,
		Rotation: e.ordinal,
		Scale:    e.st.Scale * e.st.Thickness.At(arcFraction),
		Color:    e.st.Color,
		Alpha:    e.alpha,
	})
	e.ordinal++
	return dst
}
