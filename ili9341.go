package ili9341

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/ili9341/image565"
)

var (
	// ErrHalted is returned by operations on a halted display.
	ErrHalted = errors.New("ili9341: halted")
	// ErrOutOfBounds is returned for windows that are not inside the panel.
	ErrOutOfBounds = errors.New("ili9341: window out of bounds")
)

// Rotation selects one of the four panel orientations.
type Rotation uint8

const (
	Portrait Rotation = iota
	Landscape
	PortraitFlipped
	LandscapeFlipped
)

// madctl returns the memory access control value for r.
func (r Rotation) madctl() byte {
	switch r % 4 {
	case Landscape:
		return MADCTL_MV | MADCTL_BGR
	case PortraitFlipped:
		return MADCTL_MY | MADCTL_BGR
	case LandscapeFlipped:
		return MADCTL_MX | MADCTL_MY | MADCTL_MV | MADCTL_BGR
	default:
		return MADCTL_MX | MADCTL_BGR
	}
}

// Direction is the direction of a pixel transfer.
type Direction uint8

const (
	// Write streams pixels from the host into display RAM.
	Write Direction = iota
	// Read streams pixels from display RAM back to the host.
	Read
)

func (d Direction) String() string {
	if d == Read {
		return "read"
	}
	return "write"
}

// Opts is the configuration for the ILI9341 display.
type Opts struct {
	// Native panel dimensions in pixels, in portrait orientation
	W int // Width (default: 240, must be ≤240)
	H int // Height (default: 320, must be ≤320)

	Rotation Rotation

	// Optional pins
	RST gpio.PinIO  // Reset pin (nil if not used)
	CS  gpio.PinOut // Chip select held low while the device is open (nil if handled by the SPI port)

	// Background sends pixel data from a goroutine, so that the next block
	// is converted while the previous one is on the wire.
	Background bool

	// NoInit skips the reset and power-on sequence, for controllers that
	// are already configured.
	NoInit bool
}

// Dev is the device handle for the ILI9341 display.
type Dev struct {
	// Communication
	c   conn.Conn   // SPI connection
	dc  gpio.PinOut // Data/Command pin
	cs  gpio.PinOut // Chip select pin (optional)
	rst gpio.PinIO  // Reset pin (optional)

	// Display geometry
	native   image.Point
	rect     image.Rectangle
	rotation Rotation

	// Transfer buffers. Pixel data is converted into one while the other
	// may still be in flight.
	maxTx int
	bufs  [2][]byte
	zeros []byte
	next  int

	// Background transfer, nil when idle.
	background bool
	pending    chan error

	// Open window
	dir       Direction
	remaining int
	dummy     bool

	halted bool
}

// NewSPI creates a new ILI9341 device connected via SPI.
//
// The SPI port is configured for 24MHz, Mode0, 8-bit transfers. The dc
// (Data/Command) GPIO pin must be provided and configured as an output.
//
// opts can be nil to use defaults (240x320 panel in landscape, rotated 180°).
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	// Reads are only reliable below ~24MHz; writes can go faster but the
	// same connection is used for both.
	c, err := p.Connect(24*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("ili9341: %w", err)
	}
	return New(c, dc, opts)
}

// New creates a new ILI9341 device on an already connected bus.
func New(c conn.Conn, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{W: 240, H: 320, Rotation: LandscapeFlipped}
	} else {
		o := *opts
		opts = &o
	}
	if opts.W == 0 {
		opts.W = 240
	}
	if opts.H == 0 {
		opts.H = 320
	}
	if opts.W < 0 || opts.W > 240 {
		return nil, errors.New("ili9341: width must be between 1 and 240")
	}
	if opts.H < 0 || opts.H > 320 {
		return nil, errors.New("ili9341: height must be between 1 and 320")
	}
	if opts.Rotation > LandscapeFlipped {
		return nil, errors.New("ili9341: rotation must be between 0 and 3")
	}
	if dc == nil {
		return nil, errors.New("ili9341: a data/command pin is required")
	}

	maxTx := 4096
	if lim, ok := c.(conn.Limits); ok && lim.MaxTxSize() > 0 {
		maxTx = lim.MaxTxSize()
	}
	d := &Dev{
		c:          c,
		dc:         dc,
		cs:         opts.CS,
		rst:        opts.RST,
		native:     image.Pt(opts.W, opts.H),
		rotation:   opts.Rotation,
		maxTx:      maxTx,
		zeros:      make([]byte, maxTx),
		background: opts.Background,
	}
	d.bufs[0] = make([]byte, maxTx)
	d.bufs[1] = make([]byte, maxTx)
	d.rect = d.bounds(opts.Rotation)

	if d.cs != nil {
		if err := d.cs.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("ili9341: failed to select chip: %w", err)
		}
	}
	if !opts.NoInit {
		if err := d.init(); err != nil {
			return nil, err
		}
	}
	if err := d.sendCommand(MADCTL, d.rotation.madctl()); err != nil {
		return nil, err
	}
	return d, nil
}

// bounds returns the logical display bounds for rotation r.
func (d *Dev) bounds(r Rotation) image.Rectangle {
	if r == Landscape || r == LandscapeFlipped {
		return image.Rect(0, 0, d.native.Y, d.native.X)
	}
	return image.Rect(0, 0, d.native.X, d.native.Y)
}

// init resets the controller and sends the power-on sequence.
func (d *Dev) init() error {
	if d.rst != nil {
		for _, l := range []gpio.Level{gpio.High, gpio.Low, gpio.High} {
			if err := d.rst.Out(l); err != nil {
				return fmt.Errorf("ili9341: failed to toggle RST: %w", err)
			}
			time.Sleep(50 * time.Millisecond)
		}
	} else {
		if err := d.sendCommand(SWRESET); err != nil {
			return err
		}
		time.Sleep(150 * time.Millisecond)
	}

	for i := 0; i < len(initCmds); {
		cmd := initCmds[i]
		if cmd == 0x00 {
			break
		}
		x := initCmds[i+1]
		n := int(x & 0x7F)
		if err := d.sendCommand(cmd, initCmds[i+2:i+2+n]...); err != nil {
			return err
		}
		if x&0x80 != 0 {
			time.Sleep(150 * time.Millisecond)
		}
		i += n + 2
	}
	return nil
}

// wait blocks until the background transfer, if any, has completed.
func (d *Dev) wait() error {
	if d.pending == nil {
		return nil
	}
	err := <-d.pending
	d.pending = nil
	if err != nil {
		return fmt.Errorf("ili9341: background transfer: %w", err)
	}
	return nil
}

// Wait blocks until every transfer started by the device has completed.
// It is a no-op unless Opts.Background is set.
func (d *Dev) Wait() error {
	return d.wait()
}

// sendCommand sends a command byte followed by its arguments.
func (d *Dev) sendCommand(cmd byte, args ...byte) error {
	if err := d.wait(); err != nil {
		return err
	}
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.c.Tx([]byte{cmd}, nil); err != nil {
		return fmt.Errorf("ili9341: command %#02x: %w", cmd, err)
	}
	if len(args) == 0 {
		return nil
	}
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	if err := d.c.Tx(args, nil); err != nil {
		return fmt.Errorf("ili9341: command %#02x: %w", cmd, err)
	}
	return nil
}

// sendData sends pixel data. In background mode the transfer runs from a
// goroutine and data must not be touched until the next wait.
func (d *Dev) sendData(data []byte) error {
	if err := d.wait(); err != nil {
		return err
	}
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	if !d.background {
		if err := d.c.Tx(data, nil); err != nil {
			return fmt.Errorf("ili9341: write: %w", err)
		}
		return nil
	}
	done := make(chan error, 1)
	d.pending = done
	go func() {
		done <- d.c.Tx(data, nil)
	}()
	return nil
}

// receiveData clocks len(data) bytes out of the controller.
func (d *Dev) receiveData(data []byte) error {
	if err := d.wait(); err != nil {
		return err
	}
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	if err := d.c.Tx(d.zeros[:len(data)], data); err != nil {
		return fmt.Errorf("ili9341: read: %w", err)
	}
	return nil
}

// OpenWindow programs the addressing window to r and starts a memory write
// or memory read, depending on dir. The column range is always sent before
// the row range, and both before the memory access command.
func (d *Dev) OpenWindow(r image.Rectangle, dir Direction) error {
	if d.halted {
		return ErrHalted
	}
	if r.Empty() || !r.In(d.rect) {
		return fmt.Errorf("%w: %v not in %v", ErrOutOfBounds, r, d.rect)
	}
	x0, x1 := r.Min.X, r.Max.X-1
	y0, y1 := r.Min.Y, r.Max.Y-1
	if err := d.sendCommand(CASET, byte(x0>>8), byte(x0), byte(x1>>8), byte(x1)); err != nil {
		return err
	}
	if err := d.sendCommand(PASET, byte(y0>>8), byte(y0), byte(y1>>8), byte(y1)); err != nil {
		return err
	}
	cmd := byte(RAMWR)
	if dir == Read {
		cmd = RAMRD
	}
	if err := d.sendCommand(cmd); err != nil {
		return err
	}
	d.dir = dir
	d.remaining = r.Dx() * r.Dy()
	// The first byte clocked out after a memory read is garbage.
	d.dummy = dir == Read
	return nil
}

func (d *Dev) checkWindow(dir Direction, n int) error {
	if d.halted {
		return ErrHalted
	}
	if d.dir != dir {
		return fmt.Errorf("ili9341: window is not open for %s", dir)
	}
	if n > d.remaining {
		return fmt.Errorf("ili9341: %d pixels overrun the window (%d left)", n, d.remaining)
	}
	return nil
}

// WritePixels streams pix into the open write window. Pixels are sent most
// significant byte first.
func (d *Dev) WritePixels(pix []image565.Color) error {
	if err := d.checkWindow(Write, len(pix)); err != nil {
		return err
	}
	per := d.maxTx / 2
	for len(pix) > 0 {
		n := min(len(pix), per)
		buf := d.bufs[d.next]
		d.next ^= 1
		m := image565.PutBigEndian(buf, pix[:n])
		if err := d.sendData(buf[:m]); err != nil {
			return err
		}
		pix = pix[n:]
		d.remaining -= n
	}
	return nil
}

// ReadPixels reads len(pix) pixels from the open read window. The
// controller returns one byte per channel; each pixel is packed back into
// RGB565.
func (d *Dev) ReadPixels(pix []image565.Color) error {
	if err := d.checkWindow(Read, len(pix)); err != nil {
		return err
	}
	if d.dummy && len(pix) > 0 {
		var b [1]byte
		if err := d.receiveData(b[:]); err != nil {
			return err
		}
		d.dummy = false
	}
	per := d.maxTx / 3
	for len(pix) > 0 {
		n := min(len(pix), per)
		buf := d.bufs[d.next][:3*n]
		if err := d.receiveData(buf); err != nil {
			return err
		}
		for i := range n {
			pix[i] = image565.Pack(buf[3*i], buf[3*i+1], buf[3*i+2])
		}
		pix = pix[n:]
		d.remaining -= n
	}
	return nil
}

// Fill paints r, clipped to the display, with a single color.
func (d *Dev) Fill(r image.Rectangle, c image565.Color) error {
	r = r.Intersect(d.rect)
	if r.Empty() {
		return nil
	}
	if err := d.OpenWindow(r, Write); err != nil {
		return err
	}
	line := make([]image565.Color, min(d.maxTx/2, r.Dx()*r.Dy()))
	for i := range line {
		line[i] = c
	}
	for n := r.Dx() * r.Dy(); n > 0; {
		k := min(n, len(line))
		if err := d.WritePixels(line[:k]); err != nil {
			return err
		}
		n -= k
	}
	return d.wait()
}

// ColorModel returns the color model of the display.
func (d *Dev) ColorModel() color.Model {
	return image565.Model
}

// Bounds returns the image bounds of the display in the current rotation.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Draw draws src onto the display. The dst rectangle is clipped to the
// display bounds; the src image is aligned with sp at dst.Min.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return ErrHalted
	}
	clipped := dst.Intersect(d.rect)
	sp = sp.Add(clipped.Min.Sub(dst.Min))
	dst = clipped
	if dst.Empty() {
		return nil
	}
	// Fast path: the source already holds display pixels.
	if img, ok := src.(*image565.Image); ok {
		sr := dst.Sub(dst.Min).Add(sp)
		if sr.In(img.Rect) {
			if err := d.OpenWindow(dst, Write); err != nil {
				return err
			}
			for y := sr.Min.Y; y < sr.Max.Y; y++ {
				off := img.PixOffset(sr.Min.X, y)
				if err := d.WritePixels(img.Pix[off : off+sr.Dx()]); err != nil {
					return err
				}
			}
			return d.wait()
		}
	}
	// Slow path: convert a row at a time.
	row := image565.New(image.Rect(0, 0, dst.Dx(), 1))
	if err := d.OpenWindow(dst, Write); err != nil {
		return err
	}
	for y := 0; y < dst.Dy(); y++ {
		draw.Draw(row, row.Rect, src, sp.Add(image.Pt(0, y)), draw.Src)
		if err := d.WritePixels(row.Pix); err != nil {
			return err
		}
	}
	return d.wait()
}

// SetRotation changes the panel orientation. Bounds changes accordingly.
func (d *Dev) SetRotation(r Rotation) error {
	if d.halted {
		return ErrHalted
	}
	if r > LandscapeFlipped {
		return errors.New("ili9341: rotation must be between 0 and 3")
	}
	if err := d.sendCommand(MADCTL, r.madctl()); err != nil {
		return err
	}
	d.rotation = r
	d.rect = d.bounds(r)
	return nil
}

// Invert inverts the display colors.
func (d *Dev) Invert(invert bool) error {
	if d.halted {
		return ErrHalted
	}
	cmd := byte(INVOFF)
	if invert {
		cmd = INVON
	}
	return d.sendCommand(cmd)
}

// SetScrollMargins defines fixed top and bottom areas that do not take part
// in vertical scrolling.
func (d *Dev) SetScrollMargins(top, bottom int) error {
	if d.halted {
		return ErrHalted
	}
	h := d.native.Y - (top + bottom)
	if top < 0 || bottom < 0 || h < 0 {
		return errors.New("ili9341: scroll margins exceed the panel height")
	}
	return d.sendCommand(VSCRDEF,
		byte(top>>8), byte(top),
		byte(h>>8), byte(h),
		byte(bottom>>8), byte(bottom))
}

// ScrollTo sets the first display RAM line shown at the top of the
// scrolling area.
func (d *Dev) ScrollTo(y int) error {
	if d.halted {
		return ErrHalted
	}
	return d.sendCommand(VSCRSADD, byte(y>>8), byte(y))
}

// ReadID returns the three display identification bytes: manufacturer,
// driver version and driver ID.
func (d *Dev) ReadID() ([3]byte, error) {
	var id [3]byte
	if d.halted {
		return id, ErrHalted
	}
	if err := d.sendCommand(RDDID); err != nil {
		return id, err
	}
	var buf [4]byte
	if err := d.receiveData(buf[:]); err != nil {
		return id, err
	}
	copy(id[:], buf[1:])
	return id, nil
}

// Halt turns the display off and puts the controller to sleep.
// After calling Halt, the display will not respond to further commands.
func (d *Dev) Halt() error {
	if d.halted {
		return nil
	}
	err := d.sendCommand(DISPOFF)
	if err == nil {
		err = d.sendCommand(SLPIN)
	}
	d.halted = true
	if d.cs != nil {
		if cerr := d.cs.Out(gpio.High); err == nil {
			err = cerr
		}
	}
	return err
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("ili9341.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}
