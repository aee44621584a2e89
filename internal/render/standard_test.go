package render

import (
	"context"
	"image/color"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"gps_track_render/internal/colorize"
	"gps_track_render/internal/metrics"
	"gps_track_render/internal/pool"
)

func expectState(t *testing.T, tr *StandardTrack, state SimplifyState, zoom float64) {
	t.Helper()
	s, z := tr.State()
	if s != state || z != zoom {
		t.Fatalf("state = %v at %v, want %v at %v", s, z, state, zoom)
	}
}

func TestStandardTrackZoomCycle(t *testing.T) {
	ex := &manualExecutor{}
	pts := straight(100)
	tr := NewStandardTrack(pts, 3, WithExecutor(ex))
	surface := &recordingSurface{}

	draw(tr, 10, surface)
	if len(ex.tasks) != 1 {
		t.Fatalf("%d jobs submitted", len(ex.tasks))
	}
	expectState(t, tr, Simplifying, 10)
	if len(tr.PointsForDrawing()) != len(pts) {
		t.Fatal("original points should be drawn until a result arrives")
	}

	ex.run(0)
	if n := len(tr.PointsForDrawing()); n != 2 {
		t.Fatalf("simplified to %d points", n)
	}
	expectState(t, tr, Simplified, 10)

	// same zoom does nothing
	draw(tr, 10, surface)
	if len(ex.tasks) != 1 {
		t.Fatal("redraw at the same zoom submitted a job")
	}

	// zooming in drops the cache before the new job runs
	draw(tr, 12, surface)
	if len(ex.tasks) != 2 {
		t.Fatal("zoom in did not submit a job")
	}
	if len(tr.PointsForDrawing()) != len(pts) {
		t.Fatal("cache survived a zoom in")
	}
	expectState(t, tr, Simplifying, 12)
	ex.run(1)
	expectState(t, tr, Simplified, 12)

	// zooming out keeps the coarser cache meanwhile
	draw(tr, 8, surface)
	if len(tr.PointsForDrawing()) != 2 {
		t.Fatal("cache dropped on zoom out")
	}
	expectState(t, tr, Simplifying, 8)

	// close zooms draw the original points and cancel the pending job
	draw(tr, MinCullerZoom, surface)
	if len(ex.tasks) != 3 {
		t.Fatalf("%d jobs submitted", len(ex.tasks))
	}
	expectState(t, tr, NoSimplification, MinCullerZoom)
	ex.run(2)
	if len(tr.PointsForDrawing()) != len(pts) {
		t.Fatal("cancelled job installed its result")
	}
}

func TestStandardTrackSupersededResult(t *testing.T) {
	ex := &manualExecutor{}
	pts := straight(50)
	tr := NewStandardTrack(pts, 3, WithExecutor(ex))
	surface := &recordingSurface{}

	draw(tr, 10, surface)
	first := tr.inflight
	draw(tr, 11, surface)
	if first.ctx.Err() == nil {
		t.Fatal("superseded job was not cancelled")
	}

	ex.run(1)
	expectState(t, tr, Simplified, 11)
	ex.run(0)
	expectState(t, tr, Simplified, 11)

	// a late result from a job that never noticed the cancellation
	discarded := testutil.ToFloat64(metrics.SimplifyJobsDiscarded)
	tr.offer(&simplifyResult{gen: first.gen, zoom: 10, points: pts[:5]})
	expectState(t, tr, Simplified, 11)
	if n := len(tr.PointsForDrawing()); n != 2 {
		t.Fatalf("stale result replaced the cache: %d points", n)
	}
	if d := testutil.ToFloat64(metrics.SimplifyJobsDiscarded) - discarded; d != 1 {
		t.Errorf("discarded delta = %v", d)
	}
}

func TestStandardTrackRejectedSubmission(t *testing.T) {
	ex := &manualExecutor{}
	tr := NewStandardTrack(straight(50), 3, WithExecutor(ex))
	surface := &recordingSurface{}

	draw(tr, 10, surface)
	ex.run(0)
	expectState(t, tr, Simplified, 10)

	rejected := testutil.ToFloat64(metrics.SimplifyJobsRejected)
	ex.reject = pool.ErrQueueFull
	draw(tr, 8, surface)
	if d := testutil.ToFloat64(metrics.SimplifyJobsRejected) - rejected; d != 1 {
		t.Fatalf("rejected delta = %v", d)
	}
	// the old cache stays and the zoom change is not forgotten
	expectState(t, tr, Simplified, 10)
	if len(surface.strokes) == 0 {
		t.Fatal("rejected submission skipped drawing")
	}

	ex.reject = nil
	draw(tr, 8, surface)
	if len(ex.tasks) != 2 {
		t.Fatal("next draw did not retry the submission")
	}
	ex.run(1)
	expectState(t, tr, Simplified, 8)
}

func TestStandardTrackFailedJob(t *testing.T) {
	ex := &manualExecutor{}
	pts := straight(50)
	tr := NewStandardTrack(pts, 3, WithExecutor(ex))
	surface := &recordingSurface{}

	stopped, cancel := context.WithCancel(context.Background())
	cancel()

	draw(tr, 10, surface)
	ex.runWith(0, stopped)
	if s, _ := tr.State(); s != NoSimplification {
		t.Fatalf("state after a failed job = %v", s)
	}
	if len(tr.PointsForDrawing()) != len(pts) {
		t.Fatal("failed job installed points")
	}

	// the same zoom is tried again
	draw(tr, 10, surface)
	if len(ex.tasks) != 2 {
		t.Fatalf("%d jobs submitted", len(ex.tasks))
	}
	ex.run(1)
	expectState(t, tr, Simplified, 10)

	// a failed zoom out keeps the cache it would have replaced
	draw(tr, 8, surface)
	ex.runWith(2, stopped)
	expectState(t, tr, Simplified, 10)
	draw(tr, 8, surface)
	if len(ex.tasks) != 4 {
		t.Fatalf("%d jobs submitted", len(ex.tasks))
	}
	ex.run(3)
	expectState(t, tr, Simplified, 8)
}

func TestStandardTrackTileSize(t *testing.T) {
	ex := &manualExecutor{}
	small := NewStandardTrack(straight(10), 3, WithExecutor(ex))
	large := NewStandardTrack(straight(10), 3, WithExecutor(ex), WithTileSize(512))

	draw(small, 10, &recordingSurface{})
	draw(large, 10, &recordingSurface{})
	if small.inflight == nil || large.inflight == nil {
		t.Fatal("no job submitted")
	}
	if e := large.inflight.epsilon; e != small.inflight.epsilon/2 {
		t.Fatalf("epsilon on 512 px tiles = %v, on 256 px tiles = %v", e, small.inflight.epsilon)
	}
}

func TestStandardTrackClose(t *testing.T) {
	ex := &manualExecutor{}
	pts := straight(50)
	tr := NewStandardTrack(pts, 3, WithExecutor(ex))

	draw(tr, 10, &recordingSurface{})
	tr.Close()
	ex.run(0)

	if len(tr.PointsForDrawing()) != len(pts) {
		t.Fatal("result installed after Close")
	}
	if s, _ := tr.State(); s != NoSimplification {
		t.Fatalf("state after Close = %v", s)
	}
}

func TestStandardTrackGradientDoesNotSimplify(t *testing.T) {
	ex := &manualExecutor{}
	tr := NewStandardTrack(straight(50), 3, WithExecutor(ex), WithColorizer(constColorizer{}))
	tr.SetTrackParams(nil, "", colorize.Speed, "")
	surface := &recordingSurface{}

	draw(tr, 10, surface)
	if len(ex.tasks) != 0 {
		t.Fatal("gradient coloring submitted a simplification")
	}
	if surface.gradients() == 0 {
		t.Fatal("no gradient strokes")
	}
}

func TestStandardTrackOffscreen(t *testing.T) {
	ex := &manualExecutor{}
	tr := NewStandardTrack(straight(50), 3, WithExecutor(ex))
	surface := &recordingSurface{}

	tr.DrawSegment(10, bluePaint, surface, boundsViewport{Min: orb.Point{-10, -10}, Max: orb.Point{-5, -5}}, flatProjector)
	if len(surface.strokes) != 0 || len(ex.tasks) != 0 {
		t.Fatalf("off-screen segment drew %d strokes and submitted %d jobs", len(surface.strokes), len(ex.tasks))
	}
}

func TestStandardTrackShort(t *testing.T) {
	ex := &manualExecutor{}
	tr := NewStandardTrack(straight(1), 3, WithExecutor(ex))
	surface := &recordingSurface{}

	draw(tr, 10, surface)
	if len(surface.strokes) != 0 || len(ex.tasks) != 0 {
		t.Fatal("single point segment did something")
	}
}

func TestStandardTrackWithPool(t *testing.T) {
	p := pool.New(pool.Config{Workers: 2, QueueSize: 4}, zap.NewNop())
	defer p.Close()

	pts := straight(2000)
	tr := NewStandardTrack(pts, 3, WithExecutor(p))
	defer tr.Close()

	draw(tr, 8, &recordingSurface{})
	deadline := time.Now().Add(5 * time.Second)
	for len(tr.PointsForDrawing()) == len(pts) {
		if time.Now().After(deadline) {
			t.Fatal("simplification never arrived")
		}
		time.Sleep(time.Millisecond)
	}
	expectState(t, tr, Simplified, 8)
}

func TestSetTrackParams(t *testing.T) {
	tr := NewStandardTrack(straight(3), 3, WithExecutor(&manualExecutor{}))
	style := tr.Style()

	red := color.RGBA{R: 255, A: 255}
	if !tr.SetTrackParams(red, "bold", colorize.TrackSolid, "") {
		t.Fatal("change not reported")
	}
	if tr.Style() == style {
		t.Fatal("style pointer kept after a change")
	}
	style = tr.Style()

	if tr.SetTrackParams(color.NRGBA{R: 255, A: 255}, "bold", colorize.TrackSolid, "") {
		t.Fatal("equal color reported as a change")
	}
	if tr.Style() != style {
		t.Fatal("style pointer replaced without a change")
	}
	if !tr.SetTrackParams(red, "bold", colorize.Attribute, "surface") {
		t.Fatal("coloring change not reported")
	}
}

func TestSetRouteAndArrows(t *testing.T) {
	tr := NewStandardTrack(straight(3), 3, WithExecutor(&manualExecutor{}))

	route := []RouteSegment{{Start: 0, End: 2, Attributes: map[string]string{"surface": "asphalt"}}}
	if !tr.SetRoute(route) {
		t.Fatal("new route not reported")
	}
	if tr.SetRoute(route) {
		t.Fatal("same route reported as a change")
	}
	if !tr.SetRoute(append([]RouteSegment(nil), route...)) {
		t.Fatal("a copy is a different route")
	}
	if len(tr.Route()) != 1 {
		t.Fatal(tr.Route())
	}

	if !tr.SetDrawArrows(true) || tr.SetDrawArrows(true) || !tr.SetDrawArrows(false) {
		t.Fatal("arrow flag changes misreported")
	}
}

func TestAttributeColoring(t *testing.T) {
	tr := NewStandardTrack(turn(), 3, WithExecutor(&manualExecutor{}))
	tr.SetTrackParams(nil, "", colorize.Attribute, "surface")
	tr.SetRoute([]RouteSegment{
		{Start: 0, End: 1, Attributes: map[string]string{"surface": "asphalt"}},
		{Start: 1, End: 3, Attributes: map[string]string{"surface": "gravel"}},
	})

	surface := &recordingSurface{}
	draw(tr, 10, surface)
	if len(surface.strokes) != 2 {
		t.Fatalf("%d strokes", len(surface.strokes))
	}
	asphalt, _ := colorize.AttributeColor("asphalt")
	gravel, _ := colorize.AttributeColor("gravel")
	if first := surface.strokes[0]; first.paint.Color != asphalt || len(first.path) != 2 {
		t.Errorf("first stroke %v", first)
	}
	if second := surface.strokes[1]; second.paint.Color != gravel || len(second.path) != 3 {
		t.Errorf("second stroke %v", second)
	}
	if surface.strokes[0].paint.Width != bluePaint.Width {
		t.Error("attribute stroke lost the width")
	}

	// uncovered points and missing values use the track paint
	tr.SetRoute([]RouteSegment{{Start: 0, End: 1, Attributes: map[string]string{"smoothness": "good"}}})
	surface = &recordingSurface{}
	draw(tr, 10, surface)
	if len(surface.strokes) != 2 {
		t.Fatalf("%d strokes", len(surface.strokes))
	}
	for i, st := range surface.strokes {
		if st.paint.Color != bluePaint.Color {
			t.Errorf("stroke %d color %v", i, st.paint.Color)
		}
	}

	// without a route the track is drawn solid in one piece
	tr.SetRoute(nil)
	surface = &recordingSurface{}
	draw(tr, 10, surface)
	if len(surface.strokes) != 1 || len(surface.strokes[0].path) != 4 {
		t.Fatalf("strokes %v", surface.strokes)
	}
}

func TestSwitchToSolidStartsSimplification(t *testing.T) {
	ex := &manualExecutor{}
	tr := NewStandardTrack(straight(50), 3, WithExecutor(ex), WithColorizer(constColorizer{}))
	tr.SetTrackParams(nil, "", colorize.Slope, "")
	draw(tr, 10, &recordingSurface{})

	tr.SetTrackParams(nil, "", colorize.TrackSolid, "")
	surface := &recordingSurface{}
	draw(tr, 10, surface)
	if len(ex.tasks) != 1 {
		t.Fatal("switching to solid did not start a simplification")
	}
	if surface.gradients() != 0 {
		t.Fatal("solid style drew gradients")
	}
}
