// Package colorize maps coloring modes to gradient scales and track points
// to colors on those scales.
package colorize

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownColoring = errors.New("unknown coloring type")

// ColoringType is how a track is painted.
type ColoringType int

const (
	TrackSolid ColoringType = iota
	Speed
	Altitude
	Slope
	// Attribute colors by a named routing attribute. The values come with
	// the route segments, see AttributeColor.
	Attribute
)

var coloringNames = map[ColoringType]string{
	TrackSolid: "solid",
	Speed:      "speed",
	Altitude:   "altitude",
	Slope:      "slope",
	Attribute:  "attribute",
}

func (c ColoringType) String() string {
	if s, ok := coloringNames[c]; ok {
		return s
	}
	return fmt.Sprintf("ColoringType(%d)", int(c))
}

func ParseColoringType(s string) (ColoringType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, name := range coloringNames {
		if name == s {
			return c, nil
		}
	}
	return TrackSolid, fmt.Errorf("%w: %q", ErrUnknownColoring, s)
}

func (c ColoringType) IsTrackSolid() bool {
	return c == TrackSolid
}

func (c ColoringType) IsGradient() bool {
	return c == Speed || c == Altitude || c == Slope
}

func (c ColoringType) IsRouteInfoAttribute() bool {
	return c == Attribute
}

// GradientScale returns the scale a gradient coloring is drawn on. ok is
// false for every non gradient mode.
func (c ColoringType) GradientScale() (s GradientScale, ok bool) {
	switch c {
	case Speed:
		return ScaleSpeed, true
	case Altitude:
		return ScaleAltitude, true
	case Slope:
		return ScaleSlope, true
	}
	return 0, false
}

// GradientScale is the scalar a gradient is computed from.
type GradientScale int

const (
	ScaleSpeed GradientScale = iota
	ScaleAltitude
	ScaleSlope
)

func (s GradientScale) String() string {
	switch s {
	case ScaleSpeed:
		return "speed"
	case ScaleAltitude:
		return "altitude"
	case ScaleSlope:
		return "slope"
	}
	return fmt.Sprintf("GradientScale(%d)", int(s))
}
