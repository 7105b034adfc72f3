// Package image565 provides a 16-bit RGB565 image format matching the ILI9341
// display controller.
//
// Colors are kept host-native in memory. The controller expects each pixel
// most significant byte first on the wire, and the helpers in this package do
// that conversion so callers never have to.
package image565

import (
	"encoding/binary"
	"image"
	"image/color"
	"image/draw"
)

// Color is a packed 5/6/5 color: red in bits 15..11, green in bits 10..5 and
// blue in bits 4..0.
type Color uint16

// Pack combines three 8-bit channel samples into a Color. Low bits that do
// not fit the channel width are dropped.
func Pack(r, g, b uint8) Color {
	return Color(uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b)>>3)
}

// Unpack expands c into 8-bit channels, replicating the high bits into the
// low ones so that white stays 0xFF.
func (c Color) Unpack() (r, g, b uint8) {
	r = uint8(c>>8) & 0xF8
	r |= r >> 5
	g = uint8(c>>3) & 0xFC
	g |= g >> 6
	b = uint8(c << 3)
	b |= b >> 5
	return
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	r8, g8, b8 := c.Unpack()
	r = uint32(r8)
	r |= r << 8
	g = uint32(g8)
	g |= g << 8
	b = uint32(b8)
	b |= b << 8
	return r, g, b, 0xFFFF
}

func toColor(c color.Color) color.Color {
	if c, ok := c.(Color); ok {
		return c
	}
	r, g, b, _ := c.RGBA()
	return Pack(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// Model converts colors to Color.
var Model = color.ModelFunc(toColor)

// Common colors, in the controller's native format.
const (
	Black   Color = 0x0000
	Navy    Color = 0x000F
	Blue    Color = 0x001F
	Green   Color = 0x07E0
	Cyan    Color = 0x07FF
	Maroon  Color = 0x7800
	Red     Color = 0xF800
	Magenta Color = 0xF81F
	Yellow  Color = 0xFFE0
	White   Color = 0xFFFF
)

// PutBigEndian writes pix into dst, two bytes per pixel, most significant
// byte first. dst must hold at least 2*len(pix) bytes. It returns the number
// of bytes written.
func PutBigEndian(dst []byte, pix []Color) int {
	for i, c := range pix {
		binary.BigEndian.PutUint16(dst[2*i:], uint16(c))
	}
	return 2 * len(pix)
}

// BigEndian decodes pixels from src, most significant byte first, into pix.
// It returns the number of pixels decoded.
func BigEndian(pix []Color, src []byte) int {
	n := min(len(pix), len(src)/2)
	for i := range n {
		pix[i] = Color(binary.BigEndian.Uint16(src[2*i:]))
	}
	return n
}

// Image is an in-memory RGB565 image.
type Image struct {
	Pix    []Color
	Stride int // Pixels per row
	Rect   image.Rectangle
}

// New returns an Image with bounds r.
func New(r image.Rectangle) *Image {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return &Image{Rect: r}
	}
	return &Image{
		Pix:    make([]Color, w*h),
		Stride: w,
		Rect:   r,
	}
}

// ColorModel returns Model.
func (p *Image) ColorModel() color.Model {
	return Model
}

// Bounds returns the image bounds.
func (p *Image) Bounds() image.Rectangle {
	return p.Rect
}

// At implements image.Image.
func (p *Image) At(x, y int) color.Color {
	return p.Color565At(x, y)
}

// Color565At returns the pixel at (x, y), or Black outside the bounds.
func (p *Image) Color565At(x, y int) Color {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return Black
	}
	return p.Pix[p.PixOffset(x, y)]
}

// Set implements draw.Image.
func (p *Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	p.Pix[p.PixOffset(x, y)] = Model.Convert(c).(Color)
}

// SetColor565 sets the pixel at (x, y) without color conversion.
func (p *Image) SetColor565(x, y int, c Color) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	p.Pix[p.PixOffset(x, y)] = c
}

// PixOffset returns the index of the pixel at (x, y) in Pix.
func (p *Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x - p.Rect.Min.X)
}

// SubImage returns the part of p visible through r. The returned image
// shares pixels with p.
func (p *Image) SubImage(r image.Rectangle) image.Image {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return &Image{}
	}
	start := p.PixOffset(r.Min.X, r.Min.Y)
	end := p.PixOffset(r.Max.X-1, r.Max.Y-1) + 1
	return &Image{
		Pix:    p.Pix[start:end],
		Stride: p.Stride,
		Rect:   r,
	}
}

// Block copies the pixels of r, clipped to p, into dst in row-major order
// and returns the filled part of dst. dst is grown when it is too small.
func (p *Image) Block(dst []Color, r image.Rectangle) []Color {
	r = r.Intersect(p.Rect)
	n := r.Dx() * r.Dy()
	if cap(dst) < n {
		dst = make([]Color, n)
	}
	dst = dst[:n]
	i := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := p.PixOffset(r.Min.X, y)
		i += copy(dst[i:], p.Pix[off:off+r.Dx()])
	}
	return dst
}

// SetBlock is the inverse of Block: it stores src, row-major, into r.
func (p *Image) SetBlock(r image.Rectangle, src []Color) {
	r = r.Intersect(p.Rect)
	i := 0
	for y := r.Min.Y; y < r.Max.Y && i < len(src); y++ {
		off := p.PixOffset(r.Min.X, y)
		i += copy(p.Pix[off:off+r.Dx()], src[i:])
	}
}

// Draw draws src into p, with a fast path for uniform sources.
func (p *Image) Draw(dr image.Rectangle, src image.Image, sp image.Point, op draw.Op) {
	dr = dr.Intersect(p.Rect)
	if u, ok := src.(*image.Uniform); ok && (op == draw.Src || u.Opaque()) {
		c := Model.Convert(u.C).(Color)
		for y := dr.Min.Y; y < dr.Max.Y; y++ {
			row := p.Pix[p.PixOffset(dr.Min.X, y):]
			for x := range dr.Dx() {
				row[x] = c
			}
		}
		return
	}
	draw.Draw(p, dr, src, sp, op)
}
