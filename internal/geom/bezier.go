package geom

import "math"

// MinTessellationSegments is the floor applied by MinSegments.
const MinTessellationSegments = 10

// BezierCubic evaluates the cubic Bézier (a, h1, h2, b) at t using the Bernstein
// basis. t is not clamped; values outside [0, 1] extrapolate the curve.
func BezierCubic(a, h1, h2, b Point, t float32) Point {
	mt := 1 - t
	c0 := mt * mt * mt
	c1 := 3 * mt * mt * t
	c2 := 3 * mt * t * t
	c3 := t * t * t
	return Point{
		X: c0*a.X + c1*h1.X + c2*h2.X + c3*b.X,
		Y: c0*a.Y + c1*h1.Y + c2*h2.Y + c3*b.Y,
	}
}

// EstimateLength returns an upper bound of the curve length: the length of the
// control polygon, rounded up. It is only meant for sizing tessellation.
func EstimateLength(a, h1, h2, b Point) float32 {
	l := h1.Distance(a) + h2.Distance(h1) + b.Distance(h2)
	return float32(math.Ceil(float64(l)))
}

// MinSegments maps an estimated curve length to a tessellation segment count.
// The count grows along a hyperbola: roughly linear for long curves and never
// below MinTessellationSegments for short ones.
func MinSegments(length float32) int {
	l := float64(length) / 30
	m := float64(MinTessellationSegments)
	return int(math.Ceil(math.Sqrt(0.6*l*l + m*m)))
}

// Tessellate appends MinSegments(EstimateLength(...))+1 points along the curve to dst.
func Tessellate(dst []Point, a, h1, h2, b Point) []Point {
	n := MinSegments(EstimateLength(a, h1, h2, b))
	for i := 0; i <= n; i++ {
		dst = append(dst, BezierCubic(a, h1, h2, b, float32(i)/float32(n)))
	}
	return dst
}

// ClosestPointOnCurve finds the point of the curve nearest to q by iterative grid
// refinement. Each iteration samples the current parameter window at resolution
// points, then narrows the window to a third of its width centred on the best
// sample, clamped to [0, 1]. It returns the point and its parameter.
func ClosestPointOnCurve(a, h1, h2, b Point, resolution, iterations int, q Point) (Point, float32) {
	if resolution < 2 {
		resolution = 2
	}
	if iterations < 1 {
		iterations = 1
	}

	var start, end float32 = 0, 1
	bestT := float32(0)
	best := a
	for it := 0; it < iterations; it++ {
		bestDist := float32(math.Inf(1))
		step := (end - start) / float32(resolution-1)
		for i := 0; i < resolution; i++ {
			t := start + step*float32(i)
			p := BezierCubic(a, h1, h2, b, t)
			if d := p.DistanceSquared(q); d < bestDist {
				bestDist = d
				bestT = t
				best = p
			}
		}

		half := (end - start) / 6
		start = Clamp01(bestT - half)
		end = Clamp01(bestT + half)
	}
	return best, bestT
}

// SplitCubic splits the curve at t with de Casteljau's algorithm. The first curve
// is (a, l1, l2, m) and the second (m, r1, r2, b); both together trace the original.
func SplitCubic(a, h1, h2, b Point, t float32) (l1, l2, m, r1, r2 Point) {
	p01 := a.Lerp(h1, t)
	p12 := h1.Lerp(h2, t)
	p23 := h2.Lerp(b, t)
	l2 = p01.Lerp(p12, t)
	r1 = p12.Lerp(p23, t)
	m = l2.Lerp(r1, t)
	return p01, l2, m, r1, p23
}
