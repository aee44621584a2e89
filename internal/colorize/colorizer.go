package colorize

import (
	"hash/fnv"
	"image/color"
	"math"
	"strings"

	"github.com/fogleman/gg"

	"gps_track_render/internal/geometry"
	"gps_track_render/internal/track"
)

// paletteSteps is the resolution a palette gradient is sampled at.
const paletteSteps = 1000

// slopeLimit bounds the slope scale in percent.
const slopeLimit = 25.0

// Colorizer colors a single point on a gradient scale.
type Colorizer interface {
	ColorFor(p track.Point, s GradientScale) color.Color
}

// Value returns the scalar of p used for scale s.
func Value(p track.Point, s GradientScale) float64 {
	switch s {
	case ScaleSpeed:
		return p.Speed
	case ScaleAltitude:
		return p.Ele
	case ScaleSlope:
		return p.Slope
	}
	return 0
}

// Palette samples a gradient over [0, 1].
type Palette struct {
	g gg.Gradient
}

// NewPalette spreads colors evenly over [0, 1].
func NewPalette(colors ...color.Color) Palette {
	g := gg.NewLinearGradient(0, 0, paletteSteps, 0)
	for i, c := range colors {
		offset := 0.0
		if len(colors) > 1 {
			offset = float64(i) / float64(len(colors)-1)
		}
		g.AddColorStop(offset, c)
	}
	return Palette{g: g}
}

// At returns the color at t, clamped to [0, 1].
func (p Palette) At(t float64) color.Color {
	if math.IsNaN(t) {
		t = 0
	}
	x := int(math.Round(geometry.Clamp(t, 0, 1) * paletteSteps))
	return p.g.ColorAt(x, 0)
}

var (
	trafficLight = NewPalette(
		color.RGBA{R: 0, G: 185, B: 0, A: 255},
		color.RGBA{R: 255, G: 222, B: 2, A: 255},
		color.RGBA{R: 243, G: 0, B: 0, A: 255},
	)
	slopePalette = NewPalette(
		color.RGBA{R: 0, G: 105, B: 225, A: 255},
		color.RGBA{R: 0, G: 185, B: 0, A: 255},
		color.RGBA{R: 243, G: 0, B: 0, A: 255},
	)
)

type valueRange struct {
	min, max float64
}

func (r valueRange) norm(v float64) float64 {
	if r.max <= r.min {
		return 0
	}
	return (v - r.min) / (r.max - r.min)
}

// RangeColorizer stretches each scale over the values seen in one track.
// Slope uses a fixed symmetric range so that flat ground is always the
// middle color.
type RangeColorizer struct {
	ranges   map[GradientScale]valueRange
	palettes map[GradientScale]Palette
}

func NewRangeColorizer(points []track.Point) *RangeColorizer {
	c := &RangeColorizer{
		ranges: map[GradientScale]valueRange{
			ScaleSlope: {min: -slopeLimit, max: slopeLimit},
		},
		palettes: map[GradientScale]Palette{
			ScaleSpeed:    trafficLight,
			ScaleAltitude: trafficLight,
			ScaleSlope:    slopePalette,
		},
	}
	for _, s := range []GradientScale{ScaleSpeed, ScaleAltitude} {
		r := valueRange{min: math.Inf(1), max: math.Inf(-1)}
		for _, p := range points {
			v := Value(p, s)
			r.min = math.Min(r.min, v)
			r.max = math.Max(r.max, v)
		}
		if len(points) == 0 {
			r = valueRange{}
		}
		c.ranges[s] = r
	}
	return c
}

func (c *RangeColorizer) ColorFor(p track.Point, s GradientScale) color.Color {
	pal, ok := c.palettes[s]
	if !ok {
		return color.Transparent
	}
	return pal.At(c.ranges[s].norm(Value(p, s)))
}

// attributeColors are the fixed colors of common routing attribute values.
// Any other value gets one of categoryColors by hash.
var (
	attributeColors = map[string]color.RGBA{
		"asphalt":   {R: 110, G: 110, B: 110, A: 255},
		"paved":     {R: 110, G: 110, B: 110, A: 255},
		"concrete":  {R: 160, G: 160, B: 160, A: 255},
		"gravel":    {R: 196, G: 140, B: 60, A: 255},
		"unpaved":   {R: 170, G: 110, B: 40, A: 255},
		"dirt":      {R: 130, G: 80, B: 30, A: 255},
		"ground":    {R: 130, G: 80, B: 30, A: 255},
		"grass":     {R: 90, G: 170, B: 60, A: 255},
		"sand":      {R: 235, G: 210, B: 120, A: 255},
		"motorway":  {R: 230, G: 50, B: 50, A: 255},
		"primary":   {R: 250, G: 160, B: 40, A: 255},
		"secondary": {R: 240, G: 220, B: 60, A: 255},
		"tertiary":  {R: 255, G: 255, B: 180, A: 255},
		"cycleway":  {R: 40, G: 90, B: 230, A: 255},
		"footway":   {R: 230, G: 110, B: 160, A: 255},
		"track":     {R: 150, G: 100, B: 50, A: 255},
	}
	categoryColors = []color.RGBA{
		{R: 31, G: 119, B: 180, A: 255},
		{R: 255, G: 127, B: 14, A: 255},
		{R: 44, G: 160, B: 44, A: 255},
		{R: 214, G: 39, B: 40, A: 255},
		{R: 148, G: 103, B: 189, A: 255},
		{R: 140, G: 86, B: 75, A: 255},
		{R: 227, G: 119, B: 194, A: 255},
		{R: 188, G: 189, B: 34, A: 255},
		{R: 23, G: 190, B: 207, A: 255},
	}
)

// AttributeColor returns the color a routing attribute value is drawn in.
// The same value always gets the same color. ok is false for an empty
// value.
func AttributeColor(value string) (c color.Color, ok bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return nil, false
	}
	if known, found := attributeColors[value]; found {
		return known, true
	}
	h := fnv.New32a()
	h.Write([]byte(value))
	return categoryColors[h.Sum32()%uint32(len(categoryColors))], true
}
