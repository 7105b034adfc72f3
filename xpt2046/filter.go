package xpt2046

import (
	"errors"
	"time"
)

// ErrDegenerateRange is returned for a calibration axis whose raw range is
// empty.
var ErrDegenerateRange = errors.New("xpt2046: degenerate calibration range")

// Invalid is the coordinate reported for a sample rejected as noise.
const Invalid = -1

// Map linearly maps v from [srcMin, srcMax] to [dstMin, dstMax]. The result
// is not clamped; v outside the source range maps outside the destination
// range. Either range may be inverted.
func Map(v, srcMin, srcMax, dstMin, dstMax float64) (float64, error) {
	if srcMax == srcMin {
		return 0, ErrDegenerateRange
	}
	return dstMin + (dstMax-dstMin)/(srcMax-srcMin)*(v-srcMin), nil
}

// AxisID selects one of the two panel axes.
type AxisID int

const (
	// Long is the 320 pixel axis of the panel.
	Long AxisID = iota
	// Short is the 240 pixel axis of the panel.
	Short
)

func (a AxisID) String() string {
	if a == Short {
		return "short"
	}
	return "long"
}

// Axis is the calibration of one axis.
type Axis struct {
	// RawMin and RawMax are the readings at the first and last pixel.
	// RawMin is larger than RawMax on a mirrored axis.
	RawMin, RawMax float64
	// Max is the last pixel of the axis.
	Max int
	// Margin is added to and subtracted from each reading to damp
	// quantization error, in raw units.
	Margin float64
}

// Calibration holds the calibration of both axes and the orientation of the
// display the coordinates are reported for.
type Calibration struct {
	Long, Short Axis
	// Rotation is the display rotation, 0 to 3.
	Rotation int
}

// DefaultCalibration fits the common 2.8" ILI9341 modules.
var DefaultCalibration = Calibration{
	Long:     Axis{RawMin: 450, RawMax: 3950, Max: 319, Margin: 50},
	Short:    Axis{RawMin: 3800, RawMax: 300, Max: 239, Margin: 50},
	Rotation: 3,
}

func (c *Calibration) validate() error {
	for _, a := range []Axis{c.Long, c.Short} {
		if a.RawMin == a.RawMax {
			return ErrDegenerateRange
		}
		if a.Max <= 0 {
			return errors.New("xpt2046: axis extent must be positive")
		}
	}
	if c.Rotation < 0 || c.Rotation > 3 {
		return errors.New("xpt2046: rotation must be between 0 and 3")
	}
	return nil
}

// Default filter settings.
const (
	DefaultDebounce = 5 * time.Millisecond
	DefaultMaxJump  = 10
)

type axisState struct {
	last  int
	at    time.Time
	valid bool
}

// Filter turns raw axis readings into calibrated coordinates and drops
// readings that jump too far too fast. The zero value is not usable; call
// NewFilter.
type Filter struct {
	// A reading further than MaxJump pixels from the last accepted one is
	// rejected when it comes less than Debounce after it.
	Debounce time.Duration
	MaxJump  int

	axes  [2]Axis
	state [2]axisState
}

// NewFilter returns a filter for c with the default debounce settings.
func NewFilter(c Calibration) (*Filter, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &Filter{
		Debounce: DefaultDebounce,
		MaxJump:  DefaultMaxJump,
		axes:     [2]Axis{c.Long, c.Short},
	}, nil
}

// Apply filters one averaged raw reading of axis a taken at now. It returns
// the coordinate along the axis, clamped to [0, Max], and true; or Invalid
// and false when the reading is rejected as noise. A rejected reading
// leaves the filter untouched.
func (f *Filter) Apply(a AxisID, raw int, now time.Time) (int, bool) {
	ax := f.axes[a]
	v := float64(raw)
	var sum float64
	for _, s := range [...]float64{v - ax.Margin, v + ax.Margin, v} {
		m, _ := Map(s, ax.RawMin, ax.RawMax, 0, float64(ax.Max))
		sum += m
	}
	res := int(min(max(sum/3, 0), float64(ax.Max)))

	st := &f.state[a]
	if st.valid && now.Sub(st.at) < f.Debounce && abs(res-st.last) > f.MaxJump {
		return Invalid, false
	}
	*st = axisState{last: res, at: now, valid: true}
	return res, true
}

// Last returns the last accepted coordinate of axis a.
func (f *Filter) Last(a AxisID) (int, bool) {
	st := f.state[a]
	return st.last, st.valid
}

// Reset forgets the accepted readings, as for a new touch session.
func (f *Filter) Reset() {
	f.state = [2]axisState{}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
