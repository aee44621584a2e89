package track

import "github.com/paulmach/orb"

// Bounds returns the lon/lat bounding box of points. An empty slice gives
// the zero bound.
func Bounds(points []Point) orb.Bound {
	return ExtendBounds(orb.Bound{}, points, 0)
}

// ExtendBounds grows b by points[from:] only. When from is 0 the bound is
// rebuilt from the first point, so b is ignored.
func ExtendBounds(b orb.Bound, points []Point, from int) orb.Bound {
	if from >= len(points) {
		return b
	}
	if from <= 0 {
		p := points[0].LonLat()
		b = orb.Bound{Min: p, Max: p}
		from = 1
	}
	for _, p := range points[from:] {
		b = b.Extend(p.LonLat())
	}
	return b
}
