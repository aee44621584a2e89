package main

import (
	"fmt"
	"image/color"
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"gps_track_render/internal/colorize"
)

// --- Structs ---

type Arguments struct {
	GpxFile     string
	OutputFile  string
	GeoJSONFile string
	MetricsAddr string
	From, To    string

	VideoWidth  int
	VideoHeight int
	Bitrate     string
	Workers     int
	Framerate   float64
	Duration    float64

	MapZoom     float64
	ZoomFrom    float64
	ZoomTo      float64
	Rotate      float64
	SegmentSize float64
	TileSize    int

	PathWidth      float64
	BorderWidth    float64
	PathColor      color.Color
	BorderColor    color.Color
	IndicatorColor color.Color
	Background     color.Color
	Coloring       colorize.ColoringType
	Arrows         bool

	RenderFirstFrame bool
	Live             bool
	Verbose          bool
}

// --- Argument Parsing ---

// loadEnv reads an optional .env file. Variables already set win.
func loadEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func parseArguments(argv []string) (*Arguments, error) {
	args := &Arguments{}
	fs := flag.NewFlagSet("gps_track_render", flag.ContinueOnError)

	var pathColorStr, borderColorStr, indicatorColorStr, backgroundStr, coloringStr string
	var is2x bool

	fs.StringVar(&args.GpxFile, "gpx", getEnv("GPX_FILE", "example.gpx"), "Path to the GPX file.")
	fs.StringVarP(&args.OutputFile, "output", "o", getEnv("OUTPUT_FILE", "output_go.mp4"), "Output video file name.")
	fs.StringVar(&args.GeoJSONFile, "geojson", "", "Write the track simplified for --map-zoom as GeoJSON and exit.")
	fs.StringVar(&args.From, "from", "", "Start of the rendered part, e.g. 90s or 2.5km.")
	fs.StringVar(&args.To, "to", "", "End of the rendered part, e.g. 600s or 10km.")
	fs.StringVar(&args.MetricsAddr, "metrics-addr", getEnv("METRICS_ADDR", ""), "Serve Prometheus metrics on this address (e.g. :9090).")
	fs.StringVar(&args.Bitrate, "bitrate", getEnv("BITRATE", "5M"), "Video bitrate (e.g., 5M).")
	fs.IntVar(&args.Workers, "workers", getEnvAsInt("WORKERS", runtime.NumCPU()), "Number of parallel PNG encoders.")
	fs.Float64Var(&args.Framerate, "framerate", getEnvAsFloat("FRAMERATE", 23.976), "Video framerate.")
	fs.Float64Var(&args.Duration, "duration", 10, "Length of the video in seconds.")
	fs.IntVar(&args.VideoWidth, "width", 1280, "Video width in pixels.")
	fs.IntVar(&args.VideoHeight, "height", 720, "Video height in pixels.")
	fs.Float64Var(&args.MapZoom, "map-zoom", 12, "Zoom of the first frame and of the GeoJSON export.")
	fs.Float64Var(&args.ZoomFrom, "zoom-from", 0, "Zoom at the start of the sweep. 0 fits the whole track.")
	fs.Float64Var(&args.ZoomTo, "zoom-to", 17, "Zoom at the end of the sweep.")
	fs.Float64Var(&args.Rotate, "rotate", 0, "Map rotation in degrees clockwise.")
	fs.Float64Var(&args.SegmentSize, "segment-size", 3, "Base-2 logarithm of the simplification tolerance in screen pixels.")
	fs.Float64Var(&args.PathWidth, "path-width", 10, "Width of the drawn path.")
	fs.Float64Var(&args.BorderWidth, "border-width", 14, "Width of the path border. 0 disables it.")
	fs.StringVar(&pathColorStr, "path-color", "#FF0000", "Color of the drawn path (hex).")
	fs.StringVar(&borderColorStr, "border-color", "#ff9800", "Color of the path border (hex).")
	fs.StringVar(&indicatorColorStr, "indicator-color", "#FFFFFF", "Color of the text indicators (hex).")
	fs.StringVar(&backgroundStr, "background", "#303030", "Background color (hex).")
	fs.StringVar(&coloringStr, "coloring", "solid", "Track coloring: solid, speed, altitude, slope.")
	fs.BoolVar(&args.Arrows, "arrows", false, "Draw direction arrows on solid tracks.")
	fs.BoolVar(&args.RenderFirstFrame, "first-frame", false, "Render only the first frame and save as first_frame.png.")
	fs.BoolVar(&args.Live, "live", false, "Replay the track as a recording in progress.")
	fs.BoolVar(&is2x, "2x", false, "Use 512 px tiles.")
	fs.BoolVarP(&args.Verbose, "verbose", "v", false, "Development logging.")

	if err := fs.Parse(argv); err != nil {
		return nil, err
	}

	var err error
	if args.PathColor, err = parseHexColor(pathColorStr); err != nil {
		return nil, fmt.Errorf("path color: %w", err)
	}
	if args.BorderColor, err = parseHexColor(borderColorStr); err != nil {
		return nil, fmt.Errorf("border color: %w", err)
	}
	if args.IndicatorColor, err = parseHexColor(indicatorColorStr); err != nil {
		return nil, fmt.Errorf("indicator color: %w", err)
	}
	if args.Background, err = parseHexColor(backgroundStr); err != nil {
		return nil, fmt.Errorf("background color: %w", err)
	}
	if args.Coloring, err = colorize.ParseColoringType(coloringStr); err != nil {
		return nil, err
	}
	if args.Workers < 1 {
		args.Workers = 1
	}
	if args.Framerate <= 0 || args.Duration <= 0 {
		return nil, fmt.Errorf("framerate and duration must be positive")
	}

	if is2x {
		args.TileSize = 512
	} else {
		args.TileSize = 256
	}

	return args, nil
}

func (a *Arguments) totalFrames() int {
	n := int(a.Duration * a.Framerate)
	if n < 1 {
		n = 1
	}
	return n
}

func parseHexColor(s string) (color.Color, error) {
	var r, g, b uint8
	_, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b)
	if err != nil {
		return color.Black, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
