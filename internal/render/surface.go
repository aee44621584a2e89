package render

import (
	"image/color"

	"github.com/paulmach/orb"

	"gps_track_render/internal/geometry"
)

// Point is a screen point in pixels.
type Point = geometry.Point

// Paint is the stroke a path is drawn with.
type Paint struct {
	Color color.Color
	Width float64
}

// LinearGradient is a gradient shader anchored at Start and End. Colors and
// Positions are parallel; positions are non-decreasing in [0, 1].
type LinearGradient struct {
	Start, End Point
	Colors     []color.Color
	Positions  []float64
}

// Surface is where segments are drawn. Paths are open polylines stroked with
// round caps and joins.
type Surface interface {
	StrokePath(path []Point, paint Paint)
	StrokeGradientPath(path []Point, gradient LinearGradient, width float64)
}

// Projector maps lat/lon to screen pixels. It must not change during a draw
// call.
type Projector interface {
	Project(lat, lon float64) Point
}

// ProjectorFunc adapts a function, e.g. a call into another map renderer,
// to Projector.
type ProjectorFunc func(lat, lon float64) Point

func (f ProjectorFunc) Project(lat, lon float64) Point {
	return f(lat, lon)
}

// Viewport provides the geographic rectangle currently on screen.
type Viewport interface {
	VisibleBounds() orb.Bound
}
