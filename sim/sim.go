// Package sim emulates the display RAM side of an ILI9341 controller.
//
// A Panel implements conn.Conn. It watches the data/command line on every
// transaction and interprets the window addressing and memory access
// commands, so that drivers can be exercised end to end without hardware.
package sim

import (
	"fmt"
	"image"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/devices/v3/ili9341/image565"
)

const (
	cmdRDDID = 0x04
	cmdCASET = 0x2A
	cmdPASET = 0x2B
	cmdRAMWR = 0x2C
	cmdRAMRD = 0x2E
)

// ID is returned by the display identification command.
var ID = [3]byte{0x00, 0x93, 0x41}

// Panel is an emulated controller with w×h pixels of display RAM.
type Panel struct {
	// MaxTx limits the size of a single transaction when non zero.
	MaxTx int

	mu  sync.Mutex
	dc  gpio.PinIn
	ram *image565.Image

	cmd  byte
	args []byte
	log  []byte

	win    image.Rectangle
	cursor image.Point
	hi     int // pending high byte of a written pixel, -1 when none
	phase  int // position within a read pixel, -1 before the dummy byte
}

// New returns a panel of w×h pixels, all black. dc is sampled on each
// transaction: low for commands, high for data.
func New(w, h int, dc gpio.PinIn) *Panel {
	ram := image565.New(image.Rect(0, 0, w, h))
	return &Panel{dc: dc, ram: ram, win: ram.Rect, hi: -1}
}

// Image returns the display RAM. It is shared with the panel.
func (p *Panel) Image() *image565.Image {
	return p.ram
}

// Commands returns every command byte received, in order.
func (p *Panel) Commands() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.log...)
}

// Window returns the current addressing window.
func (p *Panel) Window() image.Rectangle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.win
}

func (p *Panel) String() string {
	return fmt.Sprintf("sim.Panel{%v}", p.ram.Rect.Size())
}

// Duplex implements conn.Conn.
func (p *Panel) Duplex() conn.Duplex {
	return conn.Full
}

// MaxTxSize implements conn.Limits.
func (p *Panel) MaxTxSize() int {
	return p.MaxTx
}

// Tx implements conn.Conn.
func (p *Panel) Tx(w, r []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.MaxTx > 0 && (len(w) > p.MaxTx || len(r) > p.MaxTx) {
		return fmt.Errorf("sim: transaction of %d bytes exceeds %d", max(len(w), len(r)), p.MaxTx)
	}
	if r != nil && w != nil && len(r) != len(w) {
		return fmt.Errorf("sim: full duplex buffers differ in size: %d != %d", len(w), len(r))
	}
	if p.dc.Read() == gpio.Low {
		for _, c := range w {
			p.command(c)
		}
		return nil
	}
	switch p.cmd {
	case cmdRAMWR:
		p.write(w)
	case cmdRAMRD:
		p.read(r)
	case cmdRDDID:
		for i := range r {
			if i > 0 && i <= len(ID) {
				r[i] = ID[i-1]
			} else {
				r[i] = 0
			}
		}
	default:
		p.args = append(p.args, w...)
		p.apply()
		for i := range r {
			r[i] = 0
		}
	}
	return nil
}

func (p *Panel) command(c byte) {
	p.cmd = c
	p.args = p.args[:0]
	p.log = append(p.log, c)
	switch c {
	case cmdRAMWR:
		p.cursor = p.win.Min
		p.hi = -1
	case cmdRAMRD:
		p.cursor = p.win.Min
		p.phase = -1
	}
}

// apply latches window coordinates once all four argument bytes arrived.
func (p *Panel) apply() {
	if len(p.args) < 4 {
		return
	}
	lo := int(p.args[0])<<8 | int(p.args[1])
	hi := int(p.args[2])<<8 | int(p.args[3]) + 1
	switch p.cmd {
	case cmdCASET:
		p.win.Min.X, p.win.Max.X = lo, hi
	case cmdPASET:
		p.win.Min.Y, p.win.Max.Y = lo, hi
	}
}

// advance moves the cursor in raster order within the window, wrapping to
// the window origin after the last pixel.
func (p *Panel) advance() {
	p.cursor.X++
	if p.cursor.X >= p.win.Max.X {
		p.cursor.X = p.win.Min.X
		p.cursor.Y++
		if p.cursor.Y >= p.win.Max.Y {
			p.cursor.Y = p.win.Min.Y
		}
	}
}

func (p *Panel) write(w []byte) {
	for _, b := range w {
		if p.hi < 0 {
			p.hi = int(b)
			continue
		}
		p.ram.SetColor565(p.cursor.X, p.cursor.Y, image565.Color(p.hi<<8|int(b)))
		p.hi = -1
		p.advance()
	}
}

// read fills r with one byte per channel, left aligned, after a leading
// dummy byte.
func (p *Panel) read(r []byte) {
	for i := range r {
		if p.phase < 0 {
			r[i] = 0xFF
			p.phase = 0
			continue
		}
		rr, g, b := p.ram.Color565At(p.cursor.X, p.cursor.Y).Unpack()
		r[i] = [3]byte{rr, g, b}[p.phase]
		p.phase++
		if p.phase == 3 {
			p.phase = 0
			p.advance()
		}
	}
}

var _ conn.Conn = &Panel{}
var _ conn.Limits = &Panel{}
