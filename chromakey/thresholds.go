package chromakey

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/esimov/greenscreen-wasm/pixels"
	"github.com/lucasb-eyer/go-colorful"
)

// Range is an inclusive interval of 8-bit channel values.
// An Invalid range never matches, whatever its bounds are.
type Range struct {
	Min, Max uint8
	Invalid  bool
}

// Contains reports whether v lies inside the inclusive range.
func (r Range) Contains(v uint8) bool {
	return !r.Invalid && v >= r.Min && v <= r.Max
}

// Empty reports whether no channel value can satisfy the range.
func (r Range) Empty() bool {
	return r.Invalid || r.Min > r.Max
}

func (r Range) String() string {
	if r.Invalid {
		return "[invalid]"
	}
	return fmt.Sprintf("[%d, %d]", r.Min, r.Max)
}

// Thresholds holds the color range keyed out of a frame.
type Thresholds struct {
	Red, Green, Blue Range
}

// All matches every color.
var All = Thresholds{
	Red:   Range{Min: 0, Max: 255},
	Green: Range{Min: 0, Max: 255},
	Blue:  Range{Min: 0, Max: 255},
}

// Match reports whether the color falls inside all three channel ranges.
func (t Thresholds) Match(r, g, b uint8) bool {
	return t.Red.Contains(r) && t.Green.Contains(g) && t.Blue.Contains(b)
}

// Empty reports whether no pixel can be matched by t.
func (t Thresholds) Empty() bool {
	return t.Red.Empty() || t.Green.Empty() || t.Blue.Empty()
}

// Inverted returns the names of the channels whose minimum exceeds their maximum.
// Such a channel matches nothing and turns the filter into a no-op.
func (t Thresholds) Inverted() []string {
	var names []string
	for _, ch := range []struct {
		name string
		r    Range
	}{{"red", t.Red}, {"green", t.Green}, {"blue", t.Blue}} {
		if !ch.r.Invalid && ch.r.Min > ch.r.Max {
			names = append(names, ch.name)
		}
	}
	return names
}

func (t Thresholds) String() string {
	return fmt.Sprintf("red%v green%v blue%v", t.Red, t.Green, t.Blue)
}

// Control names accepted by ParseThresholds, grouped per channel as (min, max).
var controlNames = map[string][2][]string{
	"red":   {{"rmin", "redMin"}, {"rmax", "redMax"}},
	"green": {{"gmin", "greenMin"}, {"gmax", "greenMax"}},
	"blue":  {{"bmin", "blueMin"}, {"bmax", "blueMax"}},
}

// ParseThresholds builds the threshold set from raw control values keyed by control name.
// Both the short (rmin, gmax, ...) and the long (redMin, greenMax, ...) names are recognized.
// A missing or malformed bound invalidates its channel instead of failing.
func ParseThresholds(values map[string]string) Thresholds {
	return Thresholds{
		Red:   parseRange(values, controlNames["red"]),
		Green: parseRange(values, controlNames["green"]),
		Blue:  parseRange(values, controlNames["blue"]),
	}
}

func parseRange(values map[string]string, names [2][]string) Range {
	lo, okLo := parseBound(lookup(values, names[0]), math.Ceil)
	hi, okHi := parseBound(lookup(values, names[1]), math.Floor)
	if !okLo || !okHi {
		return Range{Invalid: true}
	}
	return Range{Min: lo, Max: hi}
}

func lookup(values map[string]string, names []string) string {
	for _, n := range names {
		if v, ok := values[n]; ok {
			return v
		}
	}
	return ""
}

// parseBound converts a control value to a channel bound. Fractional bounds are
// rounded inward by round, so the integer comparison keeps its numeric meaning.
func parseBound(s string, round func(float64) float64) (uint8, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f < 0 || f > 255 {
		return 0, false
	}
	return uint8(round(f)), true
}

// FromHex returns the thresholds selecting every color within tolerance of the
// hex encoded key color (e.g. "#00b140"), per channel.
func FromHex(hex string, tolerance uint8) (Thresholds, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return Thresholds{}, fmt.Errorf("parsing key color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	around := func(v uint8) Range {
		return Range{
			Min: pixels.ClampByte(int(v) - int(tolerance)),
			Max: pixels.ClampByte(int(v) + int(tolerance)),
		}
	}
	return Thresholds{Red: around(r), Green: around(g), Blue: around(b)}, nil
}
