// Package simplify reduces a track to the points that matter at a given
// zoom with the Ramer-Douglas-Peucker algorithm.
package simplify

import (
	"context"
	"math"

	"gps_track_render/internal/geometry"
	"gps_track_render/internal/track"
)

// Tolerance returns the simplification epsilon for a zoom level on a map of
// tileSize pixel tiles. Simplify measures it in world pixels of a 256 pixel
// pyramid at zoom 0, so on screen it is always 2^segmentSize pixels wide
// whatever the zoom or tile size.
func Tolerance(segmentSize, zoom, tileSize float64) float64 {
	if tileSize <= 0 {
		tileSize = geometry.TileSize
	}
	return math.Pow(2, segmentSize-zoom) * geometry.TileSize / tileSize
}

// Simplify returns the subsequence of points kept by Ramer-Douglas-Peucker
// with the given epsilon. An interior point is kept when its distance to the
// chord of its neighbours is at least epsilon, so epsilon 0 keeps every
// point. On equal distances the earlier point wins.
//
// The context is checked on every recursive step; a cancelled run returns
// ctx.Err() and no points. The input slice is never modified.
func Simplify(ctx context.Context, points []track.Point, epsilon float64) ([]track.Point, error) {
	if len(points) < 3 {
		return points, nil
	}

	r := &reducer{
		done: ctx.Done(),
		px:   make([]geometry.Point, len(points)),
		keep: make([]bool, len(points)),
		eps:  epsilon,
	}
	for i, p := range points {
		r.px[i] = geometry.WorldPixel(p.Lat, p.Lon, 0, geometry.TileSize)
	}

	r.keep[0] = true
	r.keep[len(points)-1] = true
	kept := 2
	if !r.reduce(0, len(points)-1, &kept) {
		return nil, ctx.Err()
	}

	out := make([]track.Point, 0, kept)
	for i, k := range r.keep {
		if k {
			out = append(out, points[i])
		}
	}
	return out, nil
}

type reducer struct {
	done <-chan struct{}
	px   []geometry.Point
	keep []bool
	eps  float64
}

// reduce marks the points kept between first and last, both exclusive.
// It returns false once the context is done.
func (r *reducer) reduce(first, last int, kept *int) bool {
	select {
	case <-r.done:
		return false
	default:
	}

	if last-first < 2 {
		return true
	}

	maxD := -1.0
	maxI := first
	for i := first + 1; i < last; i++ {
		d := geometry.SegmentDistance(r.px[i], r.px[first], r.px[last])
		if d > maxD {
			maxD = d
			maxI = i
		}
	}

	if maxD < r.eps {
		return true
	}

	r.keep[maxI] = true
	*kept++
	return r.reduce(first, maxI, kept) && r.reduce(maxI, last, kept)
}
