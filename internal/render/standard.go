package render

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"gps_track_render/internal/geometry"
	"gps_track_render/internal/metrics"
	"gps_track_render/internal/pool"
	"gps_track_render/internal/simplify"
	"gps_track_render/internal/track"
)

// SimplifyState is where a StandardTrack is in its simplification cycle.
type SimplifyState int

const (
	NoSimplification SimplifyState = iota
	Simplifying
	Simplified
)

func (s SimplifyState) String() string {
	switch s {
	case Simplifying:
		return "simplifying"
	case Simplified:
		return "simplified"
	}
	return "no simplification"
}

// StandardTrack is a stored track. While drawn solid it keeps a simplified
// copy of its points for the current zoom, computed in the background.
//
// The cache, the last zoom and the in-flight job are only touched by the
// drawing goroutine. Workers publish finished results into pending; the
// drawing goroutine installs them if their generation is still current.
type StandardTrack struct {
	segment

	executor Executor
	tileSize float64

	lastZoom   float64
	culled     []track.Point
	culledZoom float64
	inflight   *simplifyJob

	generation atomic.Uint64
	pending    atomic.Pointer[simplifyResult]
}

var _ Segment = (*StandardTrack)(nil)

// NewStandardTrack copies points. segmentSize is the base-2 logarithm of the
// on-screen simplification tolerance in pixels.
func NewStandardTrack(points []track.Point, segmentSize float64, opts ...Option) *StandardTrack {
	seg, o := newSegment(points, segmentSize, opts)
	if o.executor == nil {
		o.executor = pool.Default()
	}
	if o.tileSize <= 0 {
		o.tileSize = geometry.TileSize
	}
	return &StandardTrack{
		segment:  seg,
		executor: o.executor,
		tileSize: o.tileSize,
		lastZoom: unsetZoom,
	}
}

func (t *StandardTrack) DrawSegment(zoom float64, paint Paint, surface Surface, viewport Viewport, projector Projector) {
	if len(t.points) < 2 {
		return
	}
	bounds := viewport.VisibleBounds()
	if !bounds.Intersects(t.bounds) {
		return
	}

	t.installPending()
	if t.style.Coloring.IsTrackSolid() {
		t.startCuller(zoom)
	}
	t.drawSingleSegment(zoom, paint, surface, bounds, projector, t.PointsForDrawing(), false)
}

// PointsForDrawing returns the simplified points when there are any, the
// original points otherwise.
func (t *StandardTrack) PointsForDrawing() []track.Point {
	t.installPending()
	if len(t.culled) == 0 {
		return t.points
	}
	return t.culled
}

// State returns the simplification state and the zoom it refers to.
func (t *StandardTrack) State() (SimplifyState, float64) {
	t.installPending()
	switch {
	case t.inflight != nil:
		return Simplifying, t.inflight.zoom
	case len(t.culled) > 0:
		return Simplified, t.culledZoom
	}
	return NoSimplification, t.lastZoom
}

// Close cancels any background work. The track can still be drawn from its
// original points.
func (t *StandardTrack) Close() {
	t.generation.Add(1)
	if t.inflight != nil {
		t.inflight.cancel()
		t.inflight = nil
	}
	t.pending.Store(nil)
}

// startCuller reacts to a zoom change. Zooming in drops the cache at once,
// since the original points are always at least as detailed.
func (t *StandardTrack) startCuller(newZoom float64) {
	if t.lastZoom == newZoom {
		return
	}

	if t.inflight != nil {
		t.inflight.cancel()
		t.inflight = nil
	}
	gen := t.generation.Add(1)

	if t.lastZoom < newZoom {
		t.culled = nil
	}
	prevZoom := t.lastZoom
	t.lastZoom = newZoom
	if newZoom >= MinCullerZoom {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	job := &simplifyJob{
		owner:   t,
		gen:     gen,
		zoom:    newZoom,
		points:  t.points,
		epsilon: simplify.Tolerance(t.segmentSize, newZoom, t.tileSize),
		ctx:     ctx,
		cancel:  cancel,
	}
	if err := t.executor.TrySubmit(job.run); err != nil {
		cancel()
		// keep the current cache, the next draw retries
		t.lastZoom = prevZoom
		metrics.SimplifyJobsRejected.Inc()
		t.logger.Debug("Simplification rejected",
			zap.Float64("zoom", newZoom),
			zap.Error(err))
		return
	}
	t.inflight = job
	metrics.SimplifyJobsSubmitted.Inc()
	t.logger.Debug("Simplification submitted",
		zap.Float64("zoom", newZoom),
		zap.Float64("epsilon", job.epsilon),
		zap.Uint64("generation", gen),
		zap.Int("points", len(t.points)))
}

// offer publishes a finished result. It runs on a worker and never lets an
// older generation replace a newer one.
func (t *StandardTrack) offer(r *simplifyResult) {
	for {
		if r.gen != t.generation.Load() {
			metrics.SimplifyJobsDiscarded.Inc()
			return
		}
		old := t.pending.Load()
		if old != nil && old.gen >= r.gen {
			metrics.SimplifyJobsDiscarded.Inc()
			return
		}
		if t.pending.CompareAndSwap(old, r) {
			return
		}
	}
}

// installPending moves a published result into the cache if nothing has
// superseded it since it was submitted. A failed job only releases the
// in-flight slot and forgets its zoom, so the next draw submits again.
func (t *StandardTrack) installPending() {
	r := t.pending.Swap(nil)
	if r == nil {
		return
	}
	if r.gen != t.generation.Load() {
		metrics.SimplifyJobsDiscarded.Inc()
		t.logger.Debug("Simplification result superseded", zap.Uint64("generation", r.gen))
		return
	}
	if r.failed {
		t.inflight = nil
		// the cache, if any, still matches culledZoom
		t.lastZoom = unsetZoom
		if len(t.culled) > 0 {
			t.lastZoom = t.culledZoom
		}
		return
	}
	t.culled = r.points
	t.culledZoom = r.zoom
	t.inflight = nil
	metrics.SimplifyJobsInstalled.Inc()
}

type simplifyResult struct {
	gen    uint64
	zoom   float64
	points []track.Point
	failed bool
}

// simplifyJob is owned by the executor that runs it; the track keeps it only
// to cancel it.
type simplifyJob struct {
	owner   *StandardTrack
	gen     uint64
	zoom    float64
	points  []track.Point
	epsilon float64
	ctx     context.Context
	cancel  context.CancelFunc
}

func (j *simplifyJob) run(poolCtx context.Context) {
	defer j.cancel()

	ctx, stop := context.WithCancel(poolCtx)
	defer stop()
	unregister := context.AfterFunc(j.ctx, stop)
	defer unregister()

	start := time.Now()
	out, err := simplify.Simplify(ctx, j.points, j.epsilon)
	if err != nil {
		metrics.SimplifyJobsCancelled.Inc()
		j.owner.logger.Debug("Simplification cancelled",
			zap.Float64("zoom", j.zoom),
			zap.Uint64("generation", j.gen))
		// a job that was not superseded, e.g. stopped by the pool closing,
		// still has to release the track
		j.owner.offer(&simplifyResult{gen: j.gen, zoom: j.zoom, failed: true})
		return
	}
	metrics.SimplifyDuration.Observe(time.Since(start).Seconds())
	metrics.SimplifyPointsRemoved.Add(float64(len(j.points) - len(out)))

	j.owner.offer(&simplifyResult{gen: j.gen, zoom: j.zoom, points: out})
}
