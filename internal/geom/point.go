package geom

import (
	"fmt"
	"math"
)

// Point is a 2D coordinate used for anchors, tangent handles and curve samples.
// Components are float32 so that points survive the project file format unchanged.
type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Pt returns the point (x, y).
func Pt(x, y float32) Point {
	return Point{X: x, Y: y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// Add returns p+o.
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// Sub returns p-o.
func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// Mul scales both components by f.
func (p Point) Mul(f float32) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// Lerp linearly interpolates between two points.
func (p Point) Lerp(o Point, t float32) Point {
	return Point{
		X: p.X + (o.X-p.X)*t,
		Y: p.Y + (o.Y-p.Y)*t,
	}
}

// Mirror reflects o through p, i.e. returns 2p - o.
func (p Point) Mirror(o Point) Point {
	return Point{X: 2*p.X - o.X, Y: 2*p.Y - o.Y}
}

// Len returns the euclidean length of p seen as a vector.
func (p Point) Len() float32 {
	return float32(math.Hypot(float64(p.X), float64(p.Y)))
}

// Distance returns the euclidean distance between two points.
func (p Point) Distance(o Point) float32 {
	return p.Sub(o).Len()
}

// DistanceSquared returns the squared euclidean distance between two points.
func (p Point) DistanceSquared(o Point) float32 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	return dx*dx + dy*dy
}

// IsNaN reports whether at least one of x and y is NaN.
func (p Point) IsNaN() bool {
	return math.IsNaN(float64(p.X)) || math.IsNaN(float64(p.Y))
}

// Map linearly maps value from the range [istart, istop] to [ostart, ostop].
// A degenerate input range maps everything to ostop.
func Map(value, istart, istop, ostart, ostop float32) float32 {
	if istop == istart {
		return ostop
	}
	return ostart + (ostop-ostart)*((value-istart)/(istop-istart))
}

// Clamp01 clamps v into [0, 1]. NaN becomes 0.
func Clamp01(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
