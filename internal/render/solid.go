package render

import (
	"image/color"
	"math"

	"github.com/paulmach/orb"

	"gps_track_render/internal/geometry"
	"gps_track_render/internal/track"
)

const (
	arrowSpacing = 80.0
	arrowSize    = 6.0
)

// drawable reports whether the pair a-b may be joined by a line: it has to
// touch the visible area and must not wrap around the antimeridian.
func drawable(a, b track.Point, bounds orb.Bound) bool {
	return geometry.SegmentInsideBounds(a.LonLat(), b.LonLat(), bounds) &&
		!geometry.CrossesAntimeridian(a.Lon, b.Lon)
}

// solidRuns projects pts into runs of connected screen points. A run ends
// at every pair that is not drawable.
func solidRuns(pts []track.Point, projector Projector, bounds orb.Bound) [][]Point {
	var runs [][]Point
	var run []Point
	recalculateLast := true
	last := pts[0]
	for _, pt := range pts[1:] {
		if drawable(last, pt, bounds) {
			if recalculateLast {
				recalculateLast = false
				if len(run) > 1 {
					runs = append(runs, run)
				}
				run = []Point{projector.Project(last.Lat, last.Lon)}
			}
			run = append(run, projector.Project(pt.Lat, pt.Lon))
		} else {
			recalculateLast = true
		}
		last = pt
	}
	if len(run) > 1 {
		runs = append(runs, run)
	}
	return runs
}

func (s *segment) drawSolid(pts []track.Point, paint Paint, surface Surface, bounds orb.Bound, projector Projector) {
	for _, run := range solidRuns(pts, projector, bounds) {
		surface.StrokePath(run, paint)
		if s.drawArrows {
			ap := Paint{Color: color.White, Width: math.Max(1, paint.Width/4)}
			for _, a := range arrowMarks(run, arrowSpacing, math.Max(arrowSize, paint.Width)) {
				surface.StrokePath(a, ap)
			}
		}
	}
}

// arrowMarks places a chevron every spacing pixels along run, pointing in
// the direction of travel.
func arrowMarks(run []Point, spacing, size float64) [][]Point {
	var marks [][]Point
	next := spacing / 2
	walked := 0.0
	for i := 1; i < len(run); i++ {
		a, b := run[i-1], run[i]
		l := geometry.Distance(a, b)
		if l == 0 {
			continue
		}
		dx, dy := (b.X-a.X)/l, (b.Y-a.Y)/l
		for next <= walked+l {
			t := next - walked
			tip := Point{X: a.X + dx*t, Y: a.Y + dy*t}
			back := Point{X: tip.X - dx*size, Y: tip.Y - dy*size}
			marks = append(marks, []Point{
				{X: back.X - dy*size*0.6, Y: back.Y + dx*size*0.6},
				tip,
				{X: back.X + dy*size*0.6, Y: back.Y - dx*size*0.6},
			})
			next += spacing
		}
		walked += l
	}
	return marks
}
