package render

import (
	"context"
	"image/color"

	"github.com/paulmach/orb"

	"gps_track_render/internal/colorize"
	"gps_track_render/internal/pool"
	"gps_track_render/internal/track"
)

var (
	world = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

	// 1000 px per degree, north up
	flatProjector = ProjectorFunc(func(lat, lon float64) Point {
		return Point{X: lon * 1000, Y: -lat * 1000}
	})

	bluePaint   = Paint{Color: color.RGBA{B: 255, A: 255}, Width: 4}
	borderPaint = Paint{Color: color.Black, Width: 6}
)

type boundsViewport orb.Bound

func (v boundsViewport) VisibleBounds() orb.Bound {
	return orb.Bound(v)
}

type stroke struct {
	path     []Point
	paint    Paint
	gradient *LinearGradient
	width    float64
}

type recordingSurface struct {
	strokes []stroke
}

func (s *recordingSurface) StrokePath(path []Point, paint Paint) {
	s.strokes = append(s.strokes, stroke{path: path, paint: paint})
}

func (s *recordingSurface) StrokeGradientPath(path []Point, gradient LinearGradient, width float64) {
	g := gradient
	s.strokes = append(s.strokes, stroke{path: path, gradient: &g, width: width})
}

func (s *recordingSurface) gradients() int {
	n := 0
	for _, st := range s.strokes {
		if st.gradient != nil {
			n++
		}
	}
	return n
}

// manualExecutor queues tasks until the test runs them.
type manualExecutor struct {
	tasks  []pool.Task
	reject error
}

func (m *manualExecutor) TrySubmit(t pool.Task) error {
	if m.reject != nil {
		return m.reject
	}
	m.tasks = append(m.tasks, t)
	return nil
}

func (m *manualExecutor) run(i int) {
	m.runWith(i, context.Background())
}

// runWith runs task i with ctx standing in for the pool's context.
func (m *manualExecutor) runWith(i int, ctx context.Context) {
	m.tasks[i](ctx)
}

type constColorizer struct{}

func (constColorizer) ColorFor(p track.Point, s colorize.GradientScale) color.Color {
	return color.RGBA{R: uint8(p.Speed), A: 255}
}

// straight returns n collinear points running north.
func straight(n int) []track.Point {
	pts := make([]track.Point, n)
	for i := range pts {
		pts[i] = track.Point{Lat: 45 + float64(i)*1e-4, Lon: 7, Speed: float64(i)}
	}
	return pts
}

func draw(s Segment, zoom float64, surface Surface) {
	s.DrawSegment(zoom, bluePaint, surface, boundsViewport(world), flatProjector)
}
