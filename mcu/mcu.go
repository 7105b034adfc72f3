// Package mcu cuts decoded images into the fixed size blocks a block based
// decoder produces, so that any image can be rendered with stream.Render.
package mcu

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"periph.io/x/devices/v3/ili9341/image565"
	"periph.io/x/devices/v3/ili9341/stream"
)

// Source serves the blocks of an image in row-major order. It implements
// stream.BlockSource.
type Source struct {
	img      *image565.Image
	mcu      image.Point
	cols     int
	rows     int
	col, row int
	buf      []image565.Color
}

// NewSource returns a Source cutting img into mw×mh blocks. Blocks in the
// last column and row are truncated to the image.
func NewSource(img image.Image, mw, mh int) (*Source, error) {
	if mw <= 0 || mh <= 0 {
		return nil, errors.New("mcu: block size must be positive")
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.New("mcu: empty image")
	}
	// Convert once, with the origin at zero.
	dst := image565.New(image.Rect(0, 0, b.Dx(), b.Dy()))
	dst.Draw(dst.Rect, img, b.Min, draw.Src)
	s := &Source{
		img: dst,
		mcu: image.Pt(mw, mh),
		buf: make([]image565.Color, mw*mh),
	}
	s.cols = (b.Dx() + mw - 1) / mw
	s.rows = (b.Dy() + mh - 1) / mh
	return s, nil
}

// Geometry implements stream.BlockSource.
func (s *Source) Geometry() stream.Geometry {
	return stream.Geometry{Size: s.img.Rect.Size(), MCU: s.mcu}
}

// Next implements stream.BlockSource. The returned pixels are valid until
// the next call.
func (s *Source) Next() (stream.Block, error) {
	if s.row >= s.rows {
		return stream.Block{}, io.EOF
	}
	p := image.Pt(s.col*s.mcu.X, s.row*s.mcu.Y)
	r := image.Rectangle{Min: p, Max: p.Add(s.mcu)}.Intersect(s.img.Rect)
	b := stream.Block{Col: s.col, Row: s.row, Rect: r, Pix: s.img.Block(s.buf, r)}
	s.col++
	if s.col == s.cols {
		s.col = 0
		s.row++
	}
	return b, nil
}

// Rewind restarts the block sequence.
func (s *Source) Rewind() {
	s.col, s.row = 0, 0
}

// Decode decodes an image in any of the registered formats: JPEG, PNG,
// GIF, BMP, TIFF and WebP.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("mcu: %w", err)
	}
	return img, format, nil
}

// Fit scales img down to fit within size, keeping its aspect ratio. With
// rotate set, an image whose orientation differs from size is first turned
// a quarter. Images that already fit are returned unscaled.
func Fit(img image.Image, size image.Point, rotate bool) image.Image {
	b := img.Bounds()
	if rotate && (b.Dx() > b.Dy()) != (size.X > size.Y) && b.Dx() != b.Dy() {
		img = imaging.Rotate90(img)
		b = img.Bounds()
	}
	if b.Dx() <= size.X && b.Dy() <= size.Y {
		return img
	}
	return imaging.Fit(img, size.X, size.Y, imaging.Lanczos)
}
