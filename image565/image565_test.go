package image565

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"
)

func TestPack(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    Color
	}{
		{"black", 0, 0, 0, Black},
		{"white", 0xFF, 0xFF, 0xFF, White},
		{"red", 0xFF, 0, 0, Red},
		{"green", 0, 0xFF, 0, Green},
		{"blue", 0, 0, 0xFF, Blue},
		{"low bits dropped", 0x07, 0x03, 0x07, Black},
		{"controller readback", 0xFC, 0xFC, 0xFC, White},
		{"mid gray", 0x80, 0x80, 0x80, 0x8410},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Pack(tt.r, tt.g, tt.b); got != tt.want {
				t.Errorf("Pack(%#x, %#x, %#x) = %#04x, want %#04x", tt.r, tt.g, tt.b, got, tt.want)
			}
		})
	}
}

func TestRoundtrip(t *testing.T) {
	for c := 0; c <= math.MaxUint16; c++ {
		r, g, b := Color(c).Unpack()
		if got := Pack(r, g, b); got != Color(c) {
			t.Errorf("%.4x => %.2x, %.2x, %.2x => %.4x", c, r, g, b, got)
		}
	}
}

func TestColorRGBA(t *testing.T) {
	tests := []struct {
		name       string
		c          Color
		r, g, b, a uint32
	}{
		{"black", Black, 0, 0, 0, 0xFFFF},
		{"white", White, 0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF},
		{"red", Red, 0xFFFF, 0, 0, 0xFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, a := tt.c.RGBA()
			if r != tt.r || g != tt.g || b != tt.b || a != tt.a {
				t.Errorf("RGBA() = (%x, %x, %x, %x), want (%x, %x, %x, %x)",
					r, g, b, a, tt.r, tt.g, tt.b, tt.a)
			}
		})
	}
}

func TestModelConvert(t *testing.T) {
	tests := []struct {
		name  string
		input color.Color
		want  Color
	}{
		{"passthrough", Color(0x1234), 0x1234},
		{"black", color.Black, Black},
		{"white", color.White, White},
		{"rgba blue", color.RGBA{0, 0, 0xFF, 0xFF}, Blue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Model.Convert(tt.input).(Color); got != tt.want {
				t.Errorf("Model.Convert(%v) = %#04x, want %#04x", tt.input, got, tt.want)
			}
		})
	}
}

func TestBigEndian(t *testing.T) {
	pix := []Color{0x1234, 0xABCD, Red}
	buf := make([]byte, 6)
	if n := PutBigEndian(buf, pix); n != 6 {
		t.Fatalf("PutBigEndian returned %d, want 6", n)
	}
	want := []byte{0x12, 0x34, 0xAB, 0xCD, 0xF8, 0x00}
	for i := range want {
		if buf[i] != want[i] {
			t.Errorf("buf[%d] = %#02x, want %#02x", i, buf[i], want[i])
		}
	}

	got := make([]Color, 3)
	if n := BigEndian(got, buf); n != 3 {
		t.Fatalf("BigEndian returned %d, want 3", n)
	}
	for i := range pix {
		if got[i] != pix[i] {
			t.Errorf("pixel %d = %#04x, want %#04x", i, got[i], pix[i])
		}
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		rect       image.Rectangle
		wantStride int
		wantPixLen int
	}{
		{"320x240", image.Rect(0, 0, 320, 240), 320, 320 * 240},
		{"16x16", image.Rect(0, 0, 16, 16), 16, 256},
		{"offset rect", image.Rect(16, 8, 20, 10), 4, 8},
		{"empty", image.Rect(0, 0, 0, 10), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := New(tt.rect)
			if img.Rect != tt.rect {
				t.Errorf("Rect = %v, want %v", img.Rect, tt.rect)
			}
			if img.Stride != tt.wantStride {
				t.Errorf("Stride = %d, want %d", img.Stride, tt.wantStride)
			}
			if len(img.Pix) != tt.wantPixLen {
				t.Errorf("len(Pix) = %d, want %d", len(img.Pix), tt.wantPixLen)
			}
		})
	}
}

func TestImageSetGet(t *testing.T) {
	img := New(image.Rect(100, 50, 104, 52))

	img.SetColor565(100, 50, Cyan)
	img.Set(103, 51, color.White)

	if got := img.Color565At(100, 50); got != Cyan {
		t.Errorf("Color565At(100, 50) = %#04x, want %#04x", got, Cyan)
	}
	if got := img.At(103, 51); got != White {
		t.Errorf("At(103, 51) = %v, want White", got)
	}
	if img.Pix[0] != Cyan {
		t.Errorf("Pix[0] = %#04x, want %#04x", img.Pix[0], Cyan)
	}
	if img.Pix[len(img.Pix)-1] != White {
		t.Errorf("last pixel = %#04x, want %#04x", img.Pix[len(img.Pix)-1], White)
	}
}

func TestImageOutOfBounds(t *testing.T) {
	img := New(image.Rect(0, 0, 4, 4))

	img.SetColor565(-1, 0, White)
	img.SetColor565(4, 0, White)
	img.Set(0, 4, color.White)

	for i, c := range img.Pix {
		if c != Black {
			t.Fatalf("Pix[%d] = %#04x after out of bounds writes, want black", i, c)
		}
	}
	if got := img.Color565At(-1, -1); got != Black {
		t.Errorf("Color565At(-1, -1) = %#04x, want black", got)
	}
}

func TestBlock(t *testing.T) {
	img := New(image.Rect(0, 0, 4, 3))
	for i := range img.Pix {
		img.Pix[i] = Color(i)
	}

	got := img.Block(nil, image.Rect(1, 1, 3, 3))
	want := []Color{5, 6, 9, 10}
	if len(got) != len(want) {
		t.Fatalf("len(Block) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Block[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	// Clipped to the image bounds.
	if got := img.Block(nil, image.Rect(3, 2, 8, 8)); len(got) != 1 || got[0] != 11 {
		t.Errorf("clipped Block = %v, want [11]", got)
	}

	dst := New(img.Rect)
	dst.SetBlock(image.Rect(1, 1, 3, 3), want)
	for _, p := range []image.Point{{1, 1}, {2, 1}, {1, 2}, {2, 2}} {
		if dst.Color565At(p.X, p.Y) != img.Color565At(p.X, p.Y) {
			t.Errorf("SetBlock: pixel %v = %d, want %d", p, dst.Color565At(p.X, p.Y), img.Color565At(p.X, p.Y))
		}
	}
	if dst.Color565At(0, 0) != Black {
		t.Error("SetBlock wrote outside its rectangle")
	}
}

func TestSubImage(t *testing.T) {
	img := New(image.Rect(0, 0, 4, 4))
	img.SetColor565(2, 2, Yellow)

	sub := img.SubImage(image.Rect(2, 2, 4, 4)).(*Image)
	if sub.Bounds() != image.Rect(2, 2, 4, 4) {
		t.Errorf("Bounds() = %v", sub.Bounds())
	}
	if got := sub.Color565At(2, 2); got != Yellow {
		t.Errorf("Color565At(2, 2) = %#04x, want %#04x", got, Yellow)
	}
	sub.SetColor565(3, 3, Red)
	if got := img.Color565At(3, 3); got != Red {
		t.Error("SubImage does not share pixels")
	}
}

func TestDrawUniform(t *testing.T) {
	img := New(image.Rect(0, 0, 8, 8))
	img.Draw(image.Rect(2, 2, 4, 4), image.NewUniform(Magenta), image.Point{}, draw.Src)

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			want := Black
			if x >= 2 && x < 4 && y >= 2 && y < 4 {
				want = Magenta
			}
			if got := img.Color565At(x, y); got != want {
				t.Errorf("pixel (%d, %d) = %#04x, want %#04x", x, y, got, want)
			}
		}
	}
}
