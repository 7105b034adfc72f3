package sim

import (
	"image"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/devices/v3/ili9341/image565"
)

// send issues cmd followed by args the way a driver would.
func send(t *testing.T, p *Panel, dc *gpiotest.Pin, cmd byte, args ...byte) {
	t.Helper()
	_ = dc.Out(gpio.Low)
	if err := p.Tx([]byte{cmd}, nil); err != nil {
		t.Fatal(err)
	}
	if len(args) == 0 {
		return
	}
	_ = dc.Out(gpio.High)
	if err := p.Tx(args, nil); err != nil {
		t.Fatal(err)
	}
}

func TestPanelWindowWrite(t *testing.T) {
	dc := &gpiotest.Pin{N: "DC"}
	p := New(8, 4, dc)

	send(t, p, dc, cmdCASET, 0, 2, 0, 3)
	send(t, p, dc, cmdPASET, 0, 1, 0, 2)
	if got, want := p.Window(), image.Rect(2, 1, 4, 3); got != want {
		t.Fatalf("Window() = %v, want %v", got, want)
	}
	// Split across transactions, including inside a pixel.
	send(t, p, dc, cmdRAMWR, 0xF8, 0x00, 0x07)
	if err := p.Tx([]byte{0xE0, 0x00, 0x1F, 0xFF, 0xFF}, nil); err != nil {
		t.Fatal(err)
	}

	want := map[image.Point]image565.Color{
		{2, 1}: image565.Red,
		{3, 1}: image565.Green,
		{2, 2}: image565.Blue,
		{3, 2}: image565.White,
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			c := p.Image().Color565At(x, y)
			if c != want[image.Pt(x, y)] {
				t.Errorf("pixel (%d, %d) = %#04x, want %#04x", x, y, c, want[image.Pt(x, y)])
			}
		}
	}
	if got := p.Commands(); string(got) != string([]byte{cmdCASET, cmdPASET, cmdRAMWR}) {
		t.Errorf("Commands() = %#v", got)
	}
}

func TestPanelRead(t *testing.T) {
	dc := &gpiotest.Pin{N: "DC"}
	p := New(4, 4, dc)
	p.Image().SetColor565(1, 1, image565.Red)
	p.Image().SetColor565(2, 1, image565.Blue)

	send(t, p, dc, cmdCASET, 0, 1, 0, 2)
	send(t, p, dc, cmdPASET, 0, 1, 0, 1)
	send(t, p, dc, cmdRAMRD)
	_ = dc.Out(gpio.High)
	r := make([]byte, 7)
	if err := p.Tx(make([]byte, 7), r); err != nil {
		t.Fatal(err)
	}
	want := []byte{0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00, 0xFF}
	if string(r) != string(want) {
		t.Errorf("read = %#v, want %#v", r, want)
	}
}

func TestPanelReadID(t *testing.T) {
	dc := &gpiotest.Pin{N: "DC"}
	p := New(4, 4, dc)
	send(t, p, dc, cmdRDDID)
	_ = dc.Out(gpio.High)
	r := make([]byte, 4)
	if err := p.Tx(make([]byte, 4), r); err != nil {
		t.Fatal(err)
	}
	if r[1] != ID[0] || r[2] != ID[1] || r[3] != ID[2] {
		t.Errorf("id = %#v, want %#v", r[1:], ID)
	}
}

func TestPanelMaxTx(t *testing.T) {
	dc := &gpiotest.Pin{N: "DC"}
	p := New(4, 4, dc)
	p.MaxTx = 2
	if err := p.Tx([]byte{1, 2, 3}, nil); err == nil {
		t.Error("expected an error for an oversized transaction")
	}
}
