// Package render draws GPS track segments: it keeps a zoom appropriate
// simplification of each segment up to date in the background and strokes
// the best points available, either solid or as gradient colored sub-paths.
package render

import (
	"image/color"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"gps_track_render/internal/colorize"
	"gps_track_render/internal/geometry"
	"gps_track_render/internal/track"
)

// Segment is a drawable track segment.
//
// All methods except CurrentTrack.Append belong to the goroutine that draws.
type Segment interface {
	DrawSegment(zoom float64, paint Paint, surface Surface, viewport Viewport, projector Projector)
	SetTrackParams(c color.Color, width string, coloring colorize.ColoringType, attribute string) bool
	SetRoute(route []RouteSegment) bool
	SetDrawArrows(drawArrows bool) bool
	SetBorderPaint(p Paint)
	PointsForDrawing() []track.Point
	Bounds() orb.Bound
	Close()
}

// segment is the state and drawing logic shared by both segment kinds.
type segment struct {
	points      []track.Point
	segmentSize float64
	bounds      orb.Bound

	style       *TrackStyle
	route       []RouteSegment
	drawArrows  bool
	borderPaint Paint

	colorizer colorize.Colorizer
	logger    *zap.Logger
}

func newSegment(points []track.Point, segmentSize float64, opts []Option) (segment, options) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	pts := slices.Clone(points)
	if o.colorizer == nil {
		o.colorizer = colorize.NewRangeColorizer(pts)
	}

	return segment{
		points:      pts,
		segmentSize: segmentSize,
		bounds:      track.Bounds(pts),
		style:       &TrackStyle{Coloring: colorize.TrackSolid},
		colorizer:   o.colorizer,
		logger:      o.logger,
	}, o
}

// SetTrackParams replaces the style and reports whether anything changed.
func (s *segment) SetTrackParams(c color.Color, width string, coloring colorize.ColoringType, attribute string) bool {
	next := &TrackStyle{Color: c, Width: width, Coloring: coloring, Attribute: attribute}
	if s.style.equal(next) {
		return false
	}
	s.style = next
	return true
}

// Style returns the current style. The pointer changes exactly when
// SetTrackParams reports a change.
func (s *segment) Style() *TrackStyle {
	return s.style
}

func (s *segment) SetRoute(route []RouteSegment) bool {
	changed := !sameSlice(s.route, route)
	s.route = route
	return changed
}

// Route returns the route segments last set.
func (s *segment) Route() []RouteSegment {
	return s.route
}

func (s *segment) SetDrawArrows(drawArrows bool) bool {
	changed := s.drawArrows != drawArrows
	s.drawArrows = drawArrows
	return changed
}

func (s *segment) SetBorderPaint(p Paint) {
	s.borderPaint = p
}

func (s *segment) Bounds() orb.Bound {
	return s.bounds
}

func (s *segment) hasBorder() bool {
	return drawBorder && s.borderPaint.Color != nil && s.borderPaint.Width > 0
}

// localPaint derives the stroke actually used from the caller's paint.
// Gradients are always drawn opaque.
func (s *segment) localPaint(p Paint) Paint {
	c := p.Color
	if c == nil {
		c = s.style.Color
	}
	if c == nil {
		c = color.Black
	}
	if s.style.Coloring.IsGradient() {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		n.A = 0xFF
		c = n
	}
	return Paint{Color: c, Width: p.Width}
}

func (s *segment) drawSingleSegment(zoom float64, paint Paint, surface Surface, bounds orb.Bound, projector Projector, pts []track.Point, solidOnly bool) {
	if len(pts) < 2 {
		return
	}

	p := s.localPaint(paint)
	switch {
	case s.style.Coloring.IsGradient() && !solidOnly:
		if s.hasBorder() && zoom < BorderZoomThreshold {
			s.drawSolid(pts, s.borderPaint, surface, bounds, projector)
		}
		s.drawGradient(zoom, pts, p, surface, bounds, projector)
	case s.style.Coloring.IsRouteInfoAttribute() && !solidOnly && len(s.route) > 0:
		// route indices refer to the original points
		if s.hasBorder() {
			s.drawSolid(s.points, s.borderPaint, surface, bounds, projector)
		}
		s.drawAttributes(p, surface, bounds, projector)
	default:
		s.drawSolid(pts, p, surface, bounds, projector)
	}
}

// drawAttributes strokes each route segment in the color of its value for
// the style's attribute. Points no route segment covers, and segments
// without a value, use p.
func (s *segment) drawAttributes(p Paint, surface Surface, bounds orb.Bound, projector Projector) {
	last := len(s.points) - 1
	next := 0
	stroke := func(from, to int, c color.Color) {
		if to <= from {
			return
		}
		s.drawSolid(s.points[from:to+1], Paint{Color: c, Width: p.Width}, surface, bounds, projector)
	}
	for _, rs := range s.route {
		start := geometry.Clamp(rs.Start, next, last)
		end := geometry.Clamp(rs.End, start, last)
		if end == start {
			continue
		}
		stroke(next, start, p.Color)
		c, ok := colorize.AttributeColor(rs.Attributes[s.style.Attribute])
		if !ok {
			c = p.Color
		}
		stroke(start, end, c)
		next = end
	}
	stroke(next, last, p.Color)
}

// sameSlice reports whether a and b are the same slice, not just equal
// contents.
func sameSlice[T any](a, b []T) bool {
	if len(a) != len(b) || cap(a) != cap(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}
