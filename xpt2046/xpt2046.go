// Package xpt2046 reads touch positions from an XPT2046 resistive touch
// controller over SPI.
//
// Each axis is oversampled and averaged, then run through a Filter that
// maps it to display coordinates and rejects noisy jumps. The pen interrupt
// line tells whether the panel is being touched.
package xpt2046

import (
	"errors"
	"fmt"
	"image"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Control bytes: start bit, channel, 12 bit differential conversion with
// the pen interrupt enabled between conversions.
const (
	cmdLong  = 0x90
	cmdShort = 0xD0
)

// Line is a digital input reporting whether the panel is touched.
type Line interface {
	Active() (bool, error)
}

type pinLine struct {
	p gpio.PinIn
}

// PinLine returns a Line for the active low pen interrupt pin p.
func PinLine(p gpio.PinIn) Line {
	return pinLine{p}
}

func (l pinLine) Active() (bool, error) {
	return l.p.Read() == gpio.Low, nil
}

// Opts is the configuration of the touch controller.
type Opts struct {
	Calibration Calibration
	// Samples is the number of readings averaged per axis (default: 16).
	Samples int
	// Debounce and MaxJump configure the Filter (defaults: 5ms, 10).
	Debounce time.Duration
	MaxJump  int
	// Now returns the current time (default: time.Now).
	Now func() time.Time
}

// Dev is a handle to an XPT2046.
type Dev struct {
	c       conn.Conn
	irq     Line
	filter  *Filter
	samples int
	now     func() time.Time
	cal     Calibration

	w, r [3]byte
}

// NewSPI returns a Dev on the SPI port p. irq is the pen interrupt pin.
//
// opts can be nil, and a zero Calibration, to use DefaultCalibration.
func NewSPI(p spi.Port, irq gpio.PinIn, opts *Opts) (*Dev, error) {
	if irq == nil {
		return nil, errors.New("xpt2046: a pen interrupt pin is required")
	}
	if err := irq.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("xpt2046: %w", err)
	}
	c, err := p.Connect(2*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("xpt2046: %w", err)
	}
	return New(c, PinLine(irq), opts)
}

// New returns a Dev on an already connected bus.
func New(c conn.Conn, irq Line, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{Calibration: DefaultCalibration}
	}
	if opts.Samples < 0 {
		return nil, errors.New("xpt2046: samples must be positive")
	}
	cal := opts.Calibration
	if cal == (Calibration{}) {
		cal = DefaultCalibration
	}
	f, err := NewFilter(cal)
	if err != nil {
		return nil, err
	}
	if opts.Debounce != 0 {
		f.Debounce = opts.Debounce
	}
	if opts.MaxJump != 0 {
		f.MaxJump = opts.MaxJump
	}
	d := &Dev{
		c:       c,
		irq:     irq,
		filter:  f,
		samples: opts.Samples,
		now:     opts.Now,
		cal:     cal,
	}
	if d.samples == 0 {
		d.samples = 16
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d, nil
}

// Filter returns the filter of d.
func (d *Dev) Filter() *Filter {
	return d.filter
}

// Touched reports whether the panel is being touched.
func (d *Dev) Touched() (bool, error) {
	if d.irq == nil {
		return false, errors.New("xpt2046: no pen interrupt line")
	}
	return d.irq.Active()
}

func (d *Dev) convert(cmd byte) (int, error) {
	d.w = [3]byte{cmd}
	if err := d.c.Tx(d.w[:], d.r[:]); err != nil {
		return 0, fmt.Errorf("xpt2046: %w", err)
	}
	// The result is clocked out MSB first after one busy bit.
	return int(uint16(d.r[1])<<8|uint16(d.r[2])) >> 3 & 0xFFF, nil
}

// ReadRaw returns the averaged raw readings of both axes.
func (d *Dev) ReadRaw() (long, short int, err error) {
	for range d.samples {
		l, err := d.convert(cmdLong)
		if err != nil {
			return 0, 0, err
		}
		s, err := d.convert(cmdShort)
		if err != nil {
			return 0, 0, err
		}
		long += l
		short += s
	}
	return long / d.samples, short / d.samples, nil
}

// ReadPoint samples the panel and returns the touch position in display
// coordinates. It returns false when a reading was rejected as noise; poll
// again. The position is meaningless when the panel is not touched.
func (d *Dev) ReadPoint() (image.Point, bool, error) {
	long, short, err := d.ReadRaw()
	if err != nil {
		return image.Point{}, false, err
	}
	now := d.now()
	x, okx := d.filter.Apply(Long, long, now)
	y, oky := d.filter.Apply(Short, short, now)
	if !okx || !oky {
		return image.Point{X: Invalid, Y: Invalid}, false, nil
	}
	return d.cal.rotate(x, y), true, nil
}

// rotate maps the long and short axis coordinates to the display
// orientation.
func (c *Calibration) rotate(l, s int) image.Point {
	le, se := c.Long.Max+1, c.Short.Max+1
	switch c.Rotation {
	case 0:
		return image.Pt(se-s, le-l)
	case 1:
		return image.Pt(le-l, s)
	case 2:
		return image.Pt(s, l)
	default:
		return image.Pt(l, se-s)
	}
}

func (d *Dev) String() string {
	return fmt.Sprintf("xpt2046.Dev{%s}", d.c)
}
