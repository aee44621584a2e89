package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/paulmach/orb"
	"golang.org/x/image/font"

	"gps_track_render/internal/canvas"
	"gps_track_render/internal/geometry"
	"gps_track_render/internal/metrics"
	"gps_track_render/internal/render"
	"gps_track_render/internal/track"
)

const (
	fitMargin     = 0.9
	markerRadius  = 8.0
	settleTimeout = 5 * time.Second
)

// scene owns the segment and draws frames of it. All of its methods run on
// the one goroutine that draws.
type scene struct {
	args    *Arguments
	points  []track.Point
	segment render.Segment
	live    *render.CurrentTrack

	center  orb.Point
	fitZoom float64

	valueFace font.Face
	unitFace  font.Face
}

func newScene(args *Arguments, points []track.Point, segment render.Segment, ttf *truetype.Font) *scene {
	s := &scene{
		args:      args,
		points:    points,
		segment:   segment,
		center:    track.Bounds(points).Center(),
		valueFace: truetype.NewFace(ttf, &truetype.Options{Size: float64(args.VideoHeight) / 18}),
		unitFace:  truetype.NewFace(ttf, &truetype.Options{Size: float64(args.VideoHeight) / 36}),
	}
	s.live, _ = segment.(*render.CurrentTrack)
	s.fitZoom = fitZoom(track.Bounds(points), args.VideoWidth, args.VideoHeight, float64(args.TileSize))
	return s
}

// fitZoom is the largest zoom at which b fits the frame.
func fitZoom(b orb.Bound, width, height int, tileSize float64) float64 {
	tl := geometry.WorldPixel(b.Top(), b.Left(), 0, tileSize)
	br := geometry.WorldPixel(b.Bottom(), b.Right(), 0, tileSize)
	dx, dy := math.Abs(br.X-tl.X), math.Abs(br.Y-tl.Y)
	if dx == 0 && dy == 0 {
		return render.MinCullerZoom
	}
	scale := math.Inf(1)
	if dx > 0 {
		scale = float64(width) * fitMargin / dx
	}
	if dy > 0 {
		scale = math.Min(scale, float64(height)*fitMargin/dy)
	}
	return geometry.Clamp(math.Log2(scale), 0, 22)
}

// zoomAt is the zoom of frame n of a sweep of total frames.
func (s *scene) zoomAt(n, total int) float64 {
	from := s.args.ZoomFrom
	if from <= 0 {
		from = s.fitZoom
	}
	if total <= 1 {
		return from
	}
	t := float64(n) / float64(total-1)
	return from + (s.args.ZoomTo-from)*t
}

// advanceLive appends the points recorded up to frame n.
func (s *scene) advanceLive(n, total int) {
	if s.live == nil {
		return
	}
	want := int(math.Ceil(float64(len(s.points)) * float64(n+1) / float64(total)))
	want = geometry.Clamp(want, 1, len(s.points))
	have := len(s.live.PointsForDrawing())
	if want > have {
		s.live.Append(s.points[have:want]...)
	}
}

func (s *scene) tileBox(zoom float64) *render.TileBox {
	tb := render.NewTileBox(s.center.Lat(), s.center.Lon(), zoom, s.args.VideoWidth, s.args.VideoHeight)
	tb.Rotate = s.args.Rotate
	tb.TileSize = float64(s.args.TileSize)
	return tb
}

func (s *scene) renderFrame(n, total int) image.Image {
	start := time.Now()
	s.advanceLive(n, total)
	img := s.draw(s.zoomAt(n, total))
	metrics.FramesRendered.Inc()
	metrics.FrameRenderDuration.Observe(time.Since(start).Seconds())
	return img
}

func (s *scene) draw(zoom float64) image.Image {
	dc := gg.NewContext(s.args.VideoWidth, s.args.VideoHeight)
	dc.SetColor(s.args.Background)
	dc.Clear()

	tb := s.tileBox(zoom)
	s.segment.DrawSegment(zoom, render.Paint{Color: s.args.PathColor, Width: s.args.PathWidth}, canvas.New(dc), tb, tb)

	drawn := s.segment.PointsForDrawing()
	if len(drawn) > 0 {
		last := drawn[len(drawn)-1]
		if s.live != nil {
			p := tb.Project(last.Lat, last.Lon)
			drawMarker(dc, p.X, p.Y, color.RGBA{0, 0, 255, 255})
			s.drawIndicators(dc, last)
		} else {
			first := tb.Project(drawn[0].Lat, drawn[0].Lon)
			end := tb.Project(last.Lat, last.Lon)
			drawMarker(dc, first.X, first.Y, color.RGBA{0, 160, 0, 255})
			drawMarker(dc, end.X, end.Y, color.RGBA{200, 0, 0, 255})
		}
	}
	s.drawLabel(dc, zoom, len(drawn))
	return dc.Image()
}

func drawMarker(dc *gg.Context, x, y float64, c color.Color) {
	dc.SetColor(c)
	dc.DrawPoint(x, y, markerRadius)
	dc.Fill()
	dc.SetColor(color.White)
	dc.SetLineWidth(2)
	dc.DrawPoint(x, y, markerRadius)
	dc.Stroke()
}

// drawLabel prints the zoom and how many points the segment drew.
func (s *scene) drawLabel(dc *gg.Context, zoom float64, drawn int) {
	text := fmt.Sprintf("z %.2f  %d / %d pts", zoom, drawn, len(s.points))
	if st, ok := s.segment.(*render.StandardTrack); ok {
		state, _ := st.State()
		text += "  " + state.String()
	}
	dc.SetFontFace(s.unitFace)
	dc.SetColor(s.args.IndicatorColor)
	dc.DrawStringAnchored(text, 20, float64(s.args.VideoHeight)-20, 0, 0)
}

func drawSpeedIcon(dc *gg.Context, x, y, size, lineWidth float64) {
	dc.Push()
	dc.Translate(x, y)
	dc.SetLineWidth(lineWidth)

	dc.DrawArc(0, 0, size/2, gg.Radians(165), gg.Radians(375))
	dc.Stroke()

	needleAngle := gg.Radians(210)
	dc.MoveTo(0, 0)
	dc.LineTo(math.Cos(needleAngle)*size/2.2, math.Sin(needleAngle)*size/2.2)
	dc.Stroke()
	dc.Pop()
}

func drawSlopeIcon(dc *gg.Context, x, y, size, lineWidth float64) {
	dc.Push()
	dc.Translate(x, y)
	dc.SetLineWidth(lineWidth)
	legY := size * math.Tan(gg.Radians(30))
	dc.MoveTo(size, legY/2)
	dc.LineTo(0, legY/2)
	dc.LineTo(size, -legY/2)
	dc.Stroke()
	dc.Pop()
}

// drawIndicators shows speed, slope and distance of the latest live point
// in the top left corner.
func (s *scene) drawIndicators(dc *gg.Context, p track.Point) {
	const x = 20.0
	iconSize := float64(s.args.VideoHeight) / 20
	lineWidth := math.Max(1, iconSize/12)
	rowHeight := iconSize * 1.6
	y := 20 + iconSize

	dc.SetColor(s.args.IndicatorColor)
	rows := []struct {
		icon  func(dc *gg.Context, x, y, size, lineWidth float64)
		value string
		unit  string
	}{
		{drawSpeedIcon, fmt.Sprintf("%.0f", math.Round(p.Speed)), " km/h"},
		{drawSlopeIcon, fmt.Sprintf("%.1f", p.Slope), " %"},
		{nil, fmt.Sprintf("%.2f", p.Distance), " km"},
	}
	for _, r := range rows {
		if r.icon != nil {
			r.icon(dc, x+iconSize/2, y-iconSize/2, iconSize, lineWidth)
		}
		textX := x + iconSize*1.5
		dc.SetFontFace(s.valueFace)
		dc.DrawString(r.value, textX, y)
		w, _ := dc.MeasureString(r.value)
		dc.SetFontFace(s.unitFace)
		dc.DrawString(r.unit, textX+w, y)
		y += rowHeight
	}
}

// settle waits until the background simplification for the last drawn zoom
// has arrived, so a single still frame shows the simplified track.
func (s *scene) settle(ctx context.Context) {
	st, ok := s.segment.(*render.StandardTrack)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		if state, _ := st.State(); state != render.Simplifying {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// renderStill draws one frame at zoom, giving the simplification a chance
// to finish first.
func (s *scene) renderStill(ctx context.Context, zoom float64) image.Image {
	if s.live != nil {
		s.live.Append(s.points[len(s.live.PointsForDrawing()):]...)
	}
	s.draw(zoom)
	s.settle(ctx)
	return s.draw(zoom)
}
