package simplify

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"gps_track_render/internal/geometry"
	"gps_track_render/internal/track"
)

func randomWalk(seed int64, n int) []track.Point {
	rnd := rand.New(rand.NewSource(seed))
	pts := make([]track.Point, n)
	lat, lon := 46.5, 7.5
	for i := range pts {
		lat += (rnd.Float64() - 0.5) * 0.002
		lon += (rnd.Float64() - 0.5) * 0.002
		pts[i] = track.Point{Lat: lat, Lon: lon}
	}
	return pts
}

// indices maps every point of sub back to its index in pts and fails when
// sub is not an order preserving subsequence.
func indices(t *testing.T, pts, sub []track.Point) []int {
	t.Helper()
	idx := make([]int, 0, len(sub))
	j := 0
	for _, s := range sub {
		for j < len(pts) && pts[j] != s {
			j++
		}
		if j == len(pts) {
			t.Fatalf("simplified output is not a subsequence of the input")
		}
		idx = append(idx, j)
		j++
	}
	return idx
}

func project(p track.Point) geometry.Point {
	return geometry.WorldPixel(p.Lat, p.Lon, 0, geometry.TileSize)
}

func TestSimplifyInvariants(t *testing.T) {
	pts := randomWalk(1, 500)

	for _, zoom := range []float64{4, 8, 11, 13, 15} {
		e := Tolerance(3, zoom, geometry.TileSize)
		out, err := Simplify(context.Background(), pts, e)
		if err != nil {
			t.Fatal(err)
		}
		if out[0] != pts[0] || out[len(out)-1] != pts[len(pts)-1] {
			t.Errorf("z%v: first or last point dropped", zoom)
		}

		idx := indices(t, pts, out)
		for k := 1; k < len(idx); k++ {
			a, b := project(pts[idx[k-1]]), project(pts[idx[k]])
			for i := idx[k-1] + 1; i < idx[k]; i++ {
				if d := geometry.SegmentDistance(project(pts[i]), a, b); d >= e {
					t.Errorf("z%v: excluded point %d is %v from its edge, epsilon %v", zoom, i, d, e)
				}
			}
		}
	}
}

func TestSimplifyIdempotent(t *testing.T) {
	pts := randomWalk(2, 300)
	e := Tolerance(2, 12, geometry.TileSize)

	once, _ := Simplify(context.Background(), pts, e)
	twice, _ := Simplify(context.Background(), once, e)

	if len(once) != len(twice) {
		t.Fatalf("got %d points, then %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("point %d differs", i)
		}
	}
}

func TestSimplifyMonotonic(t *testing.T) {
	pts := randomWalk(3, 400)

	prev, _ := Simplify(context.Background(), pts, Tolerance(3, 16, geometry.TileSize))
	for zoom := 15.0; zoom >= 5; zoom-- {
		cur, _ := Simplify(context.Background(), pts, Tolerance(3, zoom, geometry.TileSize))
		if len(cur) > len(prev) {
			t.Errorf("z%v kept %d points, finer tolerance kept %d", zoom, len(cur), len(prev))
		}
		// fails the test when cur is not a subsequence of prev
		indices(t, prev, cur)
		prev = cur
	}
}

func TestSimplifyDeterministic(t *testing.T) {
	pts := randomWalk(4, 200)
	e := Tolerance(3, 10, geometry.TileSize)

	a, _ := Simplify(context.Background(), pts, e)
	b, _ := Simplify(context.Background(), pts, e)
	if len(a) != len(b) {
		t.Fatal("different lengths")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("point %d differs", i)
		}
	}
}

func TestSimplifyTieBreak(t *testing.T) {
	// points 1 and 3 are both 1 unit off the chord, the earlier one is kept
	pts := []track.Point{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}, {Lat: 0, Lon: 2}, {Lat: 1, Lon: 3}, {Lat: 0, Lon: 4}}
	out, _ := Simplify(context.Background(), pts, 1e9)
	if len(out) != 2 {
		t.Fatal(out)
	}

	d1 := geometry.SegmentDistance(project(pts[1]), project(pts[0]), project(pts[4]))
	out, _ = Simplify(context.Background(), pts, d1)
	if len(out) != 3 || out[1] != pts[1] {
		t.Error(out)
	}
}

func TestSimplifyLossless(t *testing.T) {
	pts := make([]track.Point, 1000)
	for i := range pts {
		// collinear on purpose: distance 0 still survives epsilon 0
		pts[i] = track.Point{Lat: 10 + float64(i)*1e-4, Lon: 20}
	}

	out, err := Simplify(context.Background(), pts, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(pts) {
		t.Fatalf("epsilon 0 kept %d of %d points", len(out), len(pts))
	}
	for i := range pts {
		if out[i] != pts[i] {
			t.Errorf("point %d differs", i)
		}
	}

	out, _ = Simplify(context.Background(), randomWalk(5, 1000), math.Inf(1))
	if len(out) != 2 {
		t.Errorf("huge epsilon kept %d points", len(out))
	}
}

func TestSimplifyShortInput(t *testing.T) {
	for n := 0; n < 3; n++ {
		pts := randomWalk(6, n)
		out, err := Simplify(context.Background(), pts, 1e9)
		if err != nil || len(out) != n {
			t.Errorf("%d points: got %d, %v", n, len(out), err)
		}
	}
}

func TestSimplifyDoesNotMutate(t *testing.T) {
	pts := randomWalk(7, 100)
	orig := make([]track.Point, len(pts))
	copy(orig, pts)

	Simplify(context.Background(), pts, Tolerance(3, 8, geometry.TileSize))
	for i := range pts {
		if pts[i] != orig[i] {
			t.Fatalf("input point %d was modified", i)
		}
	}
}

func TestSimplifyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := Simplify(ctx, randomWalk(8, 100), 0)
	if err != context.Canceled {
		t.Error(err)
	}
	if out != nil {
		t.Error(out)
	}
}

func TestTolerance(t *testing.T) {
	if e := Tolerance(3, 3, geometry.TileSize); e != 1 {
		t.Error(e)
	}
	if Tolerance(3, 10, geometry.TileSize) >= Tolerance(3, 9, geometry.TileSize) {
		t.Error("tolerance must shrink as zoom grows")
	}
	// 512 pixel tiles draw everything twice as large
	if e := Tolerance(3, 3, 512); e != 0.5 {
		t.Error(e)
	}
	if e := Tolerance(3, 3, 0); e != 1 {
		t.Error(e)
	}
}
