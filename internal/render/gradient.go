package render

import (
	"image/color"
	"math"

	"github.com/paulmach/orb"

	"gps_track_render/internal/colorize"
	"gps_track_render/internal/geometry"
	"gps_track_render/internal/track"
)

// Boundary tells why a gradient sub-path was closed.
type Boundary int

const (
	BoundaryEnd Boundary = iota
	BoundaryBreak
	BoundaryAngle
)

// GradientSubpath is a run of connected screen points sharing one linear
// gradient.
type GradientSubpath struct {
	Points   []Point
	Colors   []color.Color
	Gradient LinearGradient
	Boundary Boundary
}

// Tessellate splits pts into gradient sub-paths. A sub-path ends where a
// pair is not drawable and where the direction of the next edge differs
// from the sub-path's first edge by more than GradientAngleThreshold; the
// point at an angle split starts the following sub-path.
func Tessellate(pts []track.Point, scale colorize.GradientScale, colorizer colorize.Colorizer, projector Projector, bounds orb.Bound) []GradientSubpath {
	if len(pts) < 2 {
		return nil
	}

	var (
		out           []GradientSubpath
		points        []Point
		colors        []color.Color
		gradientAngle float64
		recalculate   = true
		reason        = BoundaryEnd
	)

	// each point is projected once even though it is looked at as "next"
	// and then as "current"
	cacheIdx := -1
	var cacheXY Point
	project := func(i int) Point {
		if i != cacheIdx {
			cacheIdx = i
			cacheXY = projector.Project(pts[i].Lat, pts[i].Lon)
		}
		return cacheXY
	}
	closeWith := func(r Boundary) {
		if !recalculate {
			recalculate = true
			reason = r
		}
	}
	flush := func(r Boundary) {
		if len(points) > 1 {
			out = append(out, GradientSubpath{
				Points:   points,
				Colors:   colors,
				Gradient: newGradient(points, colors),
				Boundary: r,
			})
		}
		points, colors = nil, nil
	}

	last := pts[0]
	for i := 1; i < len(pts); i++ {
		pt := pts[i]
		if !drawable(last, pt, bounds) {
			closeWith(BoundaryBreak)
			last = pt
			continue
		}

		if recalculate {
			recalculate = false
			flush(reason)
			points = append(points, projector.Project(last.Lat, last.Lon))
			colors = append(colors, colorizer.ColorFor(last, scale))
		}
		xy := project(i)
		points = append(points, xy)
		colors = append(colors, colorizer.ColorFor(pt, scale))

		if len(points) == 2 {
			gradientAngle = geometry.Angle(points[0], xy)
		}
		if i+1 < len(pts) {
			nextAngle := geometry.Angle(xy, project(i+1))
			if math.Abs(geometry.AngleDiff(nextAngle, gradientAngle)) > GradientAngleThreshold {
				closeWith(BoundaryAngle)
			}
		}
		last = pt
	}
	flush(BoundaryEnd)
	return out
}

// newGradient anchors a gradient at the first and last point and places
// each color at its share of the cumulative pixel length. A zero length
// path gets all-zero positions.
func newGradient(points []Point, colors []color.Color) LinearGradient {
	positions := make([]float64, len(points))
	cumulative := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		cumulative[i] = cumulative[i-1] + geometry.Distance(points[i-1], points[i])
	}
	if total := cumulative[len(cumulative)-1]; total > 0 {
		for i := range positions {
			positions[i] = cumulative[i] / total
		}
	}

	return LinearGradient{
		Start:     points[0],
		End:       points[len(points)-1],
		Colors:    colors,
		Positions: positions,
	}
}

func (s *segment) drawGradient(zoom float64, pts []track.Point, paint Paint, surface Surface, bounds orb.Bound, projector Projector) {
	scale, ok := s.style.Coloring.GradientScale()
	if !ok {
		return
	}

	subpaths := Tessellate(pts, scale, s.colorizer, projector, bounds)
	if len(subpaths) == 0 {
		return
	}

	segmentBorder := s.hasBorder() && zoom >= BorderZoomThreshold
	if segmentBorder {
		surface.StrokePath(subpaths[0].Points, s.borderPaint)
	}
	for i, sp := range subpaths {
		// the next border goes under this sub-path so it covers the seam
		if segmentBorder && i+1 < len(subpaths) {
			surface.StrokePath(subpaths[i+1].Points, s.borderPaint)
		}
		surface.StrokeGradientPath(sp.Points, sp.Gradient, paint.Width)
	}
}
