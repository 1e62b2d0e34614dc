package geom

// DistanceCacheSize is the number of uniform parameter steps sampled per segment.
const DistanceCacheSize = 512

// DistanceCache holds the sub-lengths of a single Bézier segment sampled at
// uniform parameter steps. It describes only the most recently cached segment:
// call Update for a segment before querying ClosestT for it.
//
// The zero value is an empty cache.
type DistanceCache struct {
	sub   [DistanceCacheSize]float32
	total float32
	valid bool
}

// Update samples the segment (a, h1, h2, b) and returns its approximate arc length.
func (c *DistanceCache) Update(a, h1, h2, b Point) float32 {
	prev := a
	var total float32
	for i := 0; i < DistanceCacheSize; i++ {
		p := BezierCubic(a, h1, h2, b, float32(i+1)/DistanceCacheSize)
		d := p.Distance(prev)
		c.sub[i] = d
		total += d
		prev = p
	}
	c.total = total
	c.valid = true
	return total
}

// Total returns the length computed by the last Update.
func (c *DistanceCache) Total() float32 {
	return c.total
}

// Valid reports whether the cache holds a segment.
func (c *DistanceCache) Valid() bool {
	return c.valid
}

// Invalidate empties the cache.
func (c *DistanceCache) Invalidate() {
	c.total = 0
	c.valid = false
}

// ClosestT converts a fraction of the cached segment's arc length into the curve
// parameter reaching that distance, interpolating linearly inside the bracketing
// sample. Fractions at or beyond the ends are returned unchanged. On an empty cache
// the fraction is returned clamped to [0, 1].
func (c *DistanceCache) ClosestT(fraction float32) float32 {
	if fraction <= 0 || fraction >= 1 {
		return fraction
	}
	if !c.valid || c.total <= 0 {
		return Clamp01(fraction)
	}

	target := fraction * c.total
	var acc float32
	for i := 0; i < DistanceCacheSize; i++ {
		d := c.sub[i]
		if acc+d >= target {
			var local float32
			if d > 0 {
				local = (target - acc) / d
			}
			return (float32(i) + local) / DistanceCacheSize
		}
		acc += d
	}
	return 1
}
