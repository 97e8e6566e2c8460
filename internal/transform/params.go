// Package transform derives the displayed page raster from the captured one:
// quarter-turn rotation, brightness and contrast, a named color filter, and
// the bounding-box crop driven by a user-adjustable quadrilateral.
//
// Rendering is a pure function of the original raster and Params; callers
// re-run Render after every parameter change instead of mutating a canvas.
package transform

import (
	"errors"
	"fmt"
	"strings"
)

// Filter names one of the preset color treatments.
type Filter int

const (
	FilterOriginal Filter = iota
	FilterBW
	FilterEnhanced
	FilterSepia
)

var filterNames = map[Filter]string{
	FilterOriginal: "original",
	FilterBW:       "bw",
	FilterEnhanced: "enhanced",
	FilterSepia:    "sepia",
}

func (f Filter) String() string {
	if s, ok := filterNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Filter(%d)", int(f))
}

// ParseFilter accepts the lower-case names produced by String. An empty
// string means FilterOriginal.
func ParseFilter(s string) (Filter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FilterOriginal, nil
	}
	for f, name := range filterNames {
		if name == s {
			return f, nil
		}
	}
	return FilterOriginal, fmt.Errorf("unknown filter %q", s)
}

// Slider limits, in percent.
const (
	MinLevel     = 50
	MaxLevel     = 150
	NeutralLevel = 100
)

var (
	ErrLevelRange = errors.New("transform: level outside 50..150")
	ErrRotation   = errors.New("transform: rotation is not a multiple of 90")
)

// Params are the editor's working parameters. They live only as long as the
// editor session and are never stored on the document.
type Params struct {
	Rotation   int // degrees, multiple of 90
	Brightness int // percent
	Contrast   int // percent
	Filter     Filter
}

// DefaultParams is the neutral state every editor session starts from.
func DefaultParams() Params {
	return Params{Brightness: NeutralLevel, Contrast: NeutralLevel, Filter: FilterOriginal}
}

// Validate checks the slider ranges and the rotation step.
func (p Params) Validate() error {
	if p.Brightness < MinLevel || p.Brightness > MaxLevel {
		return fmt.Errorf("%w: brightness %d", ErrLevelRange, p.Brightness)
	}
	if p.Contrast < MinLevel || p.Contrast > MaxLevel {
		return fmt.Errorf("%w: contrast %d", ErrLevelRange, p.Contrast)
	}
	if p.Rotation%90 != 0 {
		return fmt.Errorf("%w: %d", ErrRotation, p.Rotation)
	}
	if _, ok := filterNames[p.Filter]; !ok {
		return fmt.Errorf("transform: unknown filter %d", int(p.Filter))
	}
	return nil
}

// NormalizeRotation wraps deg into {0, 90, 180, 270}, snapping to the
// nearest quarter turn.
func NormalizeRotation(deg int) int {
	q := deg / 90
	if r := deg % 90; r >= 45 {
		q++
	} else if r <= -45 {
		q--
	}
	return ((q%4 + 4) % 4) * 90
}

// SwapsExtent reports whether a rotation exchanges width and height.
func SwapsExtent(deg int) bool {
	return NormalizeRotation(deg)%180 != 0
}
