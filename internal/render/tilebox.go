package render

import (
	"math"

	"github.com/paulmach/orb"

	"gps_track_render/internal/geometry"
)

// TileBox is a planar map view: a screen of Width x Height pixels centered
// on a lat/lon at a fractional zoom, rotated by Rotate degrees clockwise.
// It is both the Projector and the Viewport of a draw call.
type TileBox struct {
	CenterLat, CenterLon float64
	Zoom                 float64
	Width, Height        int
	Rotate               float64
	TileSize             float64
}

func NewTileBox(centerLat, centerLon, zoom float64, width, height int) *TileBox {
	return &TileBox{
		CenterLat: centerLat,
		CenterLon: centerLon,
		Zoom:      zoom,
		Width:     width,
		Height:    height,
		TileSize:  geometry.TileSize,
	}
}

func (tb *TileBox) tileSize() float64 {
	if tb.TileSize <= 0 {
		return geometry.TileSize
	}
	return tb.TileSize
}

func (tb *TileBox) Project(lat, lon float64) Point {
	ts := tb.tileSize()
	c := geometry.WorldPixel(tb.CenterLat, tb.CenterLon, tb.Zoom, ts)
	p := geometry.WorldPixel(lat, lon, tb.Zoom, ts)
	dx, dy := p.X-c.X, p.Y-c.Y
	if tb.Rotate != 0 {
		sin, cos := math.Sincos(-tb.Rotate * math.Pi / 180)
		dx, dy = dx*cos-dy*sin, dx*sin+dy*cos
	}
	return Point{X: float64(tb.Width)/2 + dx, Y: float64(tb.Height)/2 + dy}
}

// unproject is the inverse of Project.
func (tb *TileBox) unproject(x, y float64) orb.Point {
	ts := tb.tileSize()
	dx, dy := x-float64(tb.Width)/2, y-float64(tb.Height)/2
	if tb.Rotate != 0 {
		sin, cos := math.Sincos(tb.Rotate * math.Pi / 180)
		dx, dy = dx*cos-dy*sin, dx*sin+dy*cos
	}
	c := geometry.WorldPixel(tb.CenterLat, tb.CenterLon, tb.Zoom, ts)
	lat, lon := geometry.LatLon(Point{X: c.X + dx, Y: c.Y + dy}, tb.Zoom, ts)
	return orb.Point{lon, lat}
}

// VisibleBounds covers the four screen corners, so a rotated view yields
// the enclosing lat/lon rectangle.
func (tb *TileBox) VisibleBounds() orb.Bound {
	w, h := float64(tb.Width), float64(tb.Height)
	return orb.MultiPoint{
		tb.unproject(0, 0),
		tb.unproject(w, 0),
		tb.unproject(0, h),
		tb.unproject(w, h),
	}.Bound()
}
