package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	geojson "github.com/paulmach/go.geojson"
	"github.com/tkrajina/gpxgo/gpx"

	"gps_track_render/internal/track"
)

var errNotEnoughPoints = errors.New("not enough points in GPX file")

// --- GPX Parsing ---

// parseGpx reads every track segment of a GPX file as one point list. Fixes
// without elevation take the elevation of the nearest earlier fix, or of the
// first fix that has one.
func parseGpx(filePath string) ([]track.Point, error) {
	gpxFile, err := gpx.ParseFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GPX file: %w", err)
	}

	var points []track.Point
	for _, t := range gpxFile.Tracks {
		for _, segment := range t.Segments {
			for _, p := range segment.Points {
				var ele float64
				if p.Elevation.NotNull() {
					ele = p.Elevation.Value()
				}
				points = append(points, track.Point{Lat: p.Latitude, Lon: p.Longitude, Ele: ele, Time: p.Timestamp})
			}
		}
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("%s: %w", filePath, errNotEnoughPoints)
	}

	fillElevation(points)
	return points, nil
}

func fillElevation(points []track.Point) {
	firstEleIdx := -1
	for i, p := range points {
		if p.Ele != 0 {
			firstEleIdx = i
			break
		}
	}
	if firstEleIdx == -1 {
		return
	}
	for i := 0; i < firstEleIdx; i++ {
		points[i].Ele = points[firstEleIdx].Ele
	}

	lastEle := points[0].Ele
	for i := range points {
		if points[i].Ele != 0 {
			lastEle = points[i].Ele
		} else {
			points[i].Ele = lastEle
		}
	}
}

// --- Cutting ---

// parseCutBoundary turns "90s" or "2.5km" into an index of points. An empty
// boundary gives def.
func parseCutBoundary(boundary string, points []track.Point, def int) (int, error) {
	switch {
	case boundary == "":
		return def, nil
	case strings.HasSuffix(boundary, "km"):
		km, err := strconv.ParseFloat(strings.TrimSuffix(boundary, "km"), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid distance %q: %w", boundary, err)
		}
		for i, p := range points {
			if p.Distance >= km {
				return i, nil
			}
		}
		return len(points), nil
	case strings.HasSuffix(boundary, "s"):
		seconds, err := strconv.ParseFloat(strings.TrimSuffix(boundary, "s"), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid time %q: %w", boundary, err)
		}
		startTime := points[0].Time
		for i, p := range points {
			if p.Time.Sub(startTime).Seconds() >= seconds {
				return i, nil
			}
		}
		return len(points), nil
	}
	return 0, fmt.Errorf("cut boundary %q needs an s or km suffix", boundary)
}

// cutTrack keeps the points between from and to. A range that ends up empty
// leaves the track whole.
func cutTrack(points []track.Point, from, to string) ([]track.Point, error) {
	if len(points) == 0 {
		return points, nil
	}
	fromIdx, err := parseCutBoundary(from, points, 0)
	if err != nil {
		return nil, err
	}
	toIdx, err := parseCutBoundary(to, points, len(points))
	if err != nil {
		return nil, err
	}
	if fromIdx >= toIdx {
		return points, nil
	}
	return points[fromIdx:toIdx], nil
}

// --- GeoJSON Export ---

func trackFeatureCollection(original, simplified []track.Point, zoom float64) *geojson.FeatureCollection {
	coords := make([][]float64, len(simplified))
	for i, p := range simplified {
		coords[i] = []float64{p.Lon, p.Lat, p.Ele}
	}

	line := geojson.NewLineStringFeature(coords)
	line.SetProperty("zoom", zoom)
	line.SetProperty("points", len(simplified))
	line.SetProperty("originalPoints", len(original))
	if len(simplified) > 0 {
		line.SetProperty("distanceKm", simplified[len(simplified)-1].Distance)
	}

	fc := geojson.NewFeatureCollection()
	fc.AddFeature(line)
	if len(original) > 0 {
		start := geojson.NewPointFeature([]float64{original[0].Lon, original[0].Lat})
		start.SetProperty("name", "start")
		end := geojson.NewPointFeature([]float64{original[len(original)-1].Lon, original[len(original)-1].Lat})
		end.SetProperty("name", "end")
		fc.AddFeature(start)
		fc.AddFeature(end)
	}
	return fc
}

func writeGeoJSON(path string, original, simplified []track.Point, zoom float64) error {
	data, err := trackFeatureCollection(original, simplified, zoom).MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode GeoJSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
