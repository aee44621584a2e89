// Package geometry holds the pure helpers shared by the simplifier and the
// renderer: slippy-map projection, planar distances and the visibility tests
// applied to consecutive track points.
package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"golang.org/x/exp/constraints"
)

const (
	// TileSize is the pixel size of one tile of the world pyramid.
	TileSize = 256.0

	earthRadiusKm = 6371
)

// Point is a planar point, either world pixels or screen pixels.
type Point struct {
	X, Y float64
}

// WorldPixel projects lat/lon to world pixel coordinates of a tile pyramid
// at the given (possibly fractional) zoom.
func WorldPixel(lat, lon, zoom, tileSize float64) Point {
	latRad := lat * math.Pi / 180
	n := math.Pow(2, zoom) * tileSize
	x := (lon + 180) / 360 * n
	y := (1 - math.Asinh(math.Tan(latRad))/math.Pi) / 2 * n
	return Point{X: x, Y: y}
}

// LatLon is the inverse of WorldPixel.
func LatLon(p Point, zoom, tileSize float64) (lat, lon float64) {
	n := math.Pow(2, zoom) * tileSize
	lon = p.X/n*360 - 180
	lat = math.Atan(math.Sinh(math.Pi*(1-2*p.Y/n))) * 180 / math.Pi
	return Clamp(lat, -85.0511, 85.0511), lon
}

// Distance is the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// SegmentDistance is the distance from p to the segment [a, b].
func SegmentDistance(p, a, b Point) float64 {
	d := (b.X-a.X)*(b.X-a.X) + (b.Y-a.Y)*(b.Y-a.Y)
	if d == 0 {
		return Distance(p, a)
	}
	t := ((p.X-a.X)*(b.X-a.X) + (p.Y-a.Y)*(b.Y-a.Y)) / d
	if t < 0 {
		return Distance(p, a)
	} else if t > 1 {
		return Distance(p, b)
	}
	return Distance(p, Point{X: a.X + t*(b.X-a.X), Y: a.Y + t*(b.Y-a.Y)})
}

// Angle returns the direction of the segment from a to b in degrees, in
// (-180, 180].
func Angle(a, b Point) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X) * 180 / math.Pi
}

// AngleDiff returns the signed difference a-b of two directions, wrapped
// to [-180, 180).
func AngleDiff(a, b float64) float64 {
	return math.Mod(a-b+540, 360) - 180
}

// SegmentInsideBounds reports whether the lon/lat extent of the segment
// [a, b] overlaps bounds. Touching edges do not count.
func SegmentInsideBounds(a, b orb.Point, bounds orb.Bound) bool {
	return math.Min(a.Lon(), b.Lon()) < bounds.Right() &&
		math.Max(a.Lon(), b.Lon()) > bounds.Left() &&
		math.Min(a.Lat(), b.Lat()) < bounds.Top() &&
		math.Max(a.Lat(), b.Lat()) > bounds.Bottom()
}

// CrossesAntimeridian reports whether a line between the two longitudes
// would have to wrap around the 180th meridian. Such a pair is never drawn.
func CrossesAntimeridian(lonA, lonB float64) bool {
	return math.Abs(lonA-lonB) > 180
}

// Haversine returns the great-circle distance in kilometers.
func Haversine(latA, lonA, latB, lonB float64) float64 {
	lat1 := latA * math.Pi / 180
	lat2 := latB * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (lonB - lonA) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
