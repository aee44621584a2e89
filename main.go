package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/goregular"

	"gps_track_render/internal/colorize"
	"gps_track_render/internal/metrics"
	"gps_track_render/internal/pool"
	"gps_track_render/internal/render"
	"gps_track_render/internal/simplify"
	"gps_track_render/internal/track"
)

const firstFrameFile = "first_frame.png"

// --- Main Logic ---

func main() {
	loadEnv()
	args, err := parseArguments(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := newLogger(args.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(args, logger); err != nil {
		logger.Fatal("Render failed", zap.Error(err))
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(args *Arguments, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if args.MetricsAddr != "" {
		go metrics.Serve(ctx, args.MetricsAddr, logger)
	}

	points, err := loadTrack(args)
	if err != nil {
		return err
	}
	logger.Info("Track loaded",
		zap.String("file", args.GpxFile),
		zap.Int("points", len(points)),
		zap.Float64("distanceKm", points[len(points)-1].Distance))

	if args.GeoJSONFile != "" {
		return exportGeoJSON(ctx, args, points, logger)
	}

	ttf, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return fmt.Errorf("failed to parse font: %w", err)
	}

	workers := pool.New(pool.DefaultConfig(), logger)
	defer workers.Close()

	segment := newSegment(args, points, workers, logger)
	defer segment.Close()

	s := newScene(args, points, segment, ttf)

	if args.RenderFirstFrame {
		logger.Info("Rendering first frame only", zap.Float64("zoom", args.MapZoom))
		if err := gg.SavePNG(firstFrameFile, s.renderStill(ctx, args.MapZoom)); err != nil {
			return fmt.Errorf("failed to save %s: %w", firstFrameFile, err)
		}
		logger.Info("Saved first frame", zap.String("file", firstFrameFile))
		return nil
	}

	if err := runVideoPipeline(ctx, s, logger); err != nil {
		return err
	}
	fmt.Printf("\nVideo saved to %s\n", args.OutputFile)
	return nil
}

func loadTrack(args *Arguments) ([]track.Point, error) {
	points, err := parseGpx(args.GpxFile)
	if err != nil {
		return nil, err
	}
	points, err = cutTrack(track.Preprocess(points), args.From, args.To)
	if err != nil {
		return nil, err
	}
	if len(points) < 2 {
		return nil, errNotEnoughPoints
	}
	return points, nil
}

// newSegment builds the segment the command draws: a live track that is fed
// frame by frame, or a stored track simplified on the pool.
func newSegment(args *Arguments, points []track.Point, workers *pool.Pool, logger *zap.Logger) render.Segment {
	opts := []render.Option{
		render.WithExecutor(workers),
		render.WithLogger(logger),
		render.WithColorizer(colorize.NewRangeColorizer(points)),
		render.WithTileSize(float64(args.TileSize)),
	}

	var segment render.Segment
	if args.Live {
		segment = render.NewCurrentTrack(points[:1], opts...)
	} else {
		segment = render.NewStandardTrack(points, args.SegmentSize, opts...)
	}
	segment.SetTrackParams(args.PathColor, fmt.Sprintf("%g", args.PathWidth), args.Coloring, "")
	segment.SetDrawArrows(args.Arrows)
	if args.BorderWidth > 0 {
		segment.SetBorderPaint(render.Paint{Color: args.BorderColor, Width: args.BorderWidth})
	}
	return segment
}

func exportGeoJSON(ctx context.Context, args *Arguments, points []track.Point, logger *zap.Logger) error {
	simplified, err := simplify.Simplify(ctx, points, simplify.Tolerance(args.SegmentSize, args.MapZoom, float64(args.TileSize)))
	if err != nil {
		return fmt.Errorf("simplification interrupted: %w", err)
	}
	if err := writeGeoJSON(args.GeoJSONFile, points, simplified, args.MapZoom); err != nil {
		return err
	}
	logger.Info("GeoJSON written",
		zap.String("file", args.GeoJSONFile),
		zap.Float64("zoom", args.MapZoom),
		zap.Int("points", len(simplified)),
		zap.Int("originalPoints", len(points)))
	return nil
}
