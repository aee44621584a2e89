// Package canvas draws render paths onto a fogleman/gg context.
package canvas

import (
	"github.com/fogleman/gg"

	"gps_track_render/internal/render"
)

// Surface strokes paths on a gg context with round caps and joins.
type Surface struct {
	dc *gg.Context
}

var _ render.Surface = (*Surface)(nil)

func New(dc *gg.Context) *Surface {
	return &Surface{dc: dc}
}

func (s *Surface) Context() *gg.Context {
	return s.dc
}

func (s *Surface) StrokePath(path []render.Point, paint render.Paint) {
	if len(path) < 2 || paint.Color == nil {
		return
	}
	s.dc.Push()
	defer s.dc.Pop()

	s.dc.SetColor(paint.Color)
	s.stroke(path, paint.Width)
}

func (s *Surface) StrokeGradientPath(path []render.Point, gradient render.LinearGradient, width float64) {
	if len(path) < 2 || len(gradient.Colors) == 0 {
		return
	}
	s.dc.Push()
	defer s.dc.Pop()

	g := gg.NewLinearGradient(gradient.Start.X, gradient.Start.Y, gradient.End.X, gradient.End.Y)
	for i, c := range gradient.Colors {
		g.AddColorStop(gradient.Positions[i], c)
	}
	s.dc.SetStrokeStyle(g)
	s.stroke(path, width)
}

func (s *Surface) stroke(path []render.Point, width float64) {
	s.dc.SetLineWidth(width)
	s.dc.SetLineCap(gg.LineCapRound)
	s.dc.SetLineJoin(gg.LineJoinRound)
	s.dc.NewSubPath()
	s.dc.MoveTo(path[0].X, path[0].Y)
	for _, p := range path[1:] {
		s.dc.LineTo(p.X, p.Y)
	}
	s.dc.Stroke()
}
