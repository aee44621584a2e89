// Package track holds the track point model and the per-point values
// derived from it (distance, speed, slope) that drive gradient coloring.
package track

import (
	"math"
	"time"

	"github.com/paulmach/orb"

	"gps_track_render/internal/geometry"
)

const (
	slopeMaxEleChange = 3.0
	slopeHalfWindowM  = 25.0
)

// Point is a single recorded track point. Distance is in km from the start
// of the track, Speed in km/h, Slope in percent.
type Point struct {
	Lat, Lon, Ele float64
	Time          time.Time

	Distance, Speed, Slope float64
}

// LonLat returns the point as an orb point.
func (p Point) LonLat() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// Preprocess fills in Distance, Speed and Slope. The input is not modified.
func Preprocess(points []Point) []Point {
	out := make([]Point, len(points))
	copy(out, points)
	if len(out) < 2 {
		return out
	}

	// elevation jumps larger than slopeMaxEleChange between fixes are noise
	ele := make([]float64, len(out))
	ele[0] = out[0].Ele
	for i := 1; i < len(out); i++ {
		ele[i] = out[i].Ele
		if math.Abs(ele[i]-ele[i-1]) > slopeMaxEleChange {
			ele[i] = ele[i-1]
		}
	}

	for i := 1; i < len(out); i++ {
		out[i].Distance = out[i-1].Distance + dist(out[i-1], out[i])

		// Speed calculation (centered 5 points)
		windowStart := max(i-2, 0)
		windowEnd := min(i+2, len(out)-1)

		var totalDist, totalTime float64
		for j := windowStart; j < windowEnd; j++ {
			totalDist += dist(out[j], out[j+1])
			totalTime += out[j+1].Time.Sub(out[j].Time).Seconds()
		}
		if totalTime > 0 {
			out[i].Speed = (totalDist * 3600) / totalTime
		} else {
			out[i].Speed = out[i-1].Speed
		}
	}
	out[0].Speed = out[1].Speed

	// --- Slope Calculation (centered 50m distance) ---
	for i := range out {
		startIdx := -1
		for j := i; j >= 0; j-- {
			if (out[i].Distance-out[j].Distance)*1000 >= slopeHalfWindowM {
				startIdx = j
				break
			}
		}
		endIdx := -1
		for j := i; j < len(out); j++ {
			if (out[j].Distance-out[i].Distance)*1000 >= slopeHalfWindowM {
				endIdx = j
				break
			}
		}

		if startIdx != -1 && endIdx != -1 {
			distanceDelta := (out[endIdx].Distance - out[startIdx].Distance) * 1000
			if distanceDelta > 1 {
				out[i].Slope = (ele[endIdx] - ele[startIdx]) / distanceDelta * 100
			}
		} else if i > 0 {
			// no full window near the ends, carry the previous slope
			out[i].Slope = out[i-1].Slope
		}
	}

	return out
}

func dist(a, b Point) float64 {
	return geometry.Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}
