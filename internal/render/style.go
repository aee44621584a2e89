package render

import (
	"image/color"

	"go.uber.org/zap"

	"gps_track_render/internal/colorize"
	"gps_track_render/internal/pool"
)

const (
	// MinCullerZoom is the zoom from which original points are drawn as is.
	MinCullerZoom = 16
	// BorderZoomThreshold is the zoom from which every gradient sub-path
	// gets its own border stroke.
	BorderZoomThreshold = 21
	// GradientAngleThreshold is the direction change in degrees that closes
	// a gradient sub-path.
	GradientAngleThreshold = 20.0

	drawBorder = true
	unsetZoom  = -1
)

// TrackStyle is the immutable set of track parameters. A segment replaces
// its style instead of mutating it, so pointer identity tells dependents
// when to refresh.
type TrackStyle struct {
	Color     color.Color
	Width     string
	Coloring  colorize.ColoringType
	Attribute string
}

func (s *TrackStyle) equal(o *TrackStyle) bool {
	return sameColor(s.Color, o.Color) &&
		s.Width == o.Width &&
		s.Coloring == o.Coloring &&
		s.Attribute == o.Attribute
}

func sameColor(a, b color.Color) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	r1, g1, b1, a1 := a.RGBA()
	r2, g2, b2, a2 := b.RGBA()
	return r1 == r2 && g1 == g2 && b1 == b2 && a1 == a2
}

// RouteSegment carries routing attributes for the points in [Start, End].
type RouteSegment struct {
	Start, End int
	Attributes map[string]string
}

// Executor runs simplification jobs in the background. TrySubmit must not
// block.
type Executor interface {
	TrySubmit(t pool.Task) error
}

type options struct {
	executor  Executor
	logger    *zap.Logger
	colorizer colorize.Colorizer
	tileSize  float64
}

type Option func(*options)

// WithExecutor sets where simplification jobs run. Defaults to pool.Default.
func WithExecutor(e Executor) Option {
	return func(o *options) { o.executor = e }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTileSize sets the tile size of the map the segment is drawn on, so
// the simplification tolerance stays the same number of screen pixels.
// Defaults to 256.
func WithTileSize(size float64) Option {
	return func(o *options) { o.tileSize = size }
}

// WithColorizer sets the colorization source for gradient modes. Without
// one, a RangeColorizer over the segment's own points is used.
func WithColorizer(c colorize.Colorizer) Option {
	return func(o *options) { o.colorizer = c }
}
