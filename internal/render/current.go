package render

import (
	"sync"

	"gps_track_render/internal/track"
)

// CurrentTrack is a track that is still being recorded. It is never
// simplified, since that would hide the newest points, and it is always
// drawn solid. Its bounds grow with the points appended since the last draw.
type CurrentTrack struct {
	segment

	mu        sync.Mutex
	pointSize int
}

var _ Segment = (*CurrentTrack)(nil)

func NewCurrentTrack(points []track.Point, opts ...Option) *CurrentTrack {
	seg, _ := newSegment(points, 0, opts)
	return &CurrentTrack{
		segment:   seg,
		pointSize: len(seg.points),
	}
}

// Append adds recorded points. It is safe to call while another goroutine
// draws.
func (t *CurrentTrack) Append(points ...track.Point) {
	t.mu.Lock()
	t.points = append(t.points, points...)
	t.mu.Unlock()
}

// snapshot returns the points recorded so far. Later appends never write
// into the returned slice.
func (t *CurrentTrack) snapshot() []track.Point {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.points[:len(t.points):len(t.points)]
}

// updateBounds merges only the points added since the last call.
func (t *CurrentTrack) updateBounds(pts []track.Point) {
	if len(pts) == t.pointSize {
		return
	}
	prevSize := t.pointSize
	t.pointSize = len(pts)
	t.bounds = track.ExtendBounds(t.bounds, pts, prevSize)
}

func (t *CurrentTrack) DrawSegment(zoom float64, paint Paint, surface Surface, viewport Viewport, projector Projector) {
	pts := t.snapshot()
	t.updateBounds(pts)
	if len(pts) < 2 {
		return
	}

	bounds := viewport.VisibleBounds()
	if !bounds.Intersects(t.bounds) {
		return
	}
	t.drawSingleSegment(zoom, paint, surface, bounds, projector, pts, true)
}

func (t *CurrentTrack) PointsForDrawing() []track.Point {
	return t.snapshot()
}

func (t *CurrentTrack) Close() {}
