// Package stream moves rectangular regions of pixels between a windowed
// display and the host, one tile at a time.
//
// Render pushes decoded pixel blocks to the display, Capture reads a region
// back into a sink and Restore writes a previously captured region again.
// All three walk the region with tile.Plan, so a capture followed by a
// restore of the same region and tile size reproduces it exactly.
package stream

import (
	"errors"
	"fmt"
	"image"
	"io"
	"iter"

	"periph.io/x/devices/v3/ili9341"
	"periph.io/x/devices/v3/ili9341/image565"
	"periph.io/x/devices/v3/ili9341/tile"
)

// Window is a display that accepts pixels through an addressing window.
// *ili9341.Dev implements it.
type Window interface {
	Bounds() image.Rectangle
	OpenWindow(r image.Rectangle, dir ili9341.Direction) error
	WritePixels(pix []image565.Color) error
	ReadPixels(pix []image565.Color) error
}

// waiter is implemented by windows with background transfers.
type waiter interface {
	Wait() error
}

// Geometry describes a decoded image: its size and the size of the blocks
// it is delivered in.
type Geometry struct {
	Size image.Point
	MCU  image.Point
}

// Block is one tile worth of pixels in raster order.
type Block struct {
	// Col and Row locate the block in the image's block grid.
	Col, Row int
	// Rect is the area covered by the block. For decoded images it is in
	// image coordinates, for captured regions in display coordinates.
	Rect image.Rectangle
	Pix  []image565.Color
}

// BlockSource delivers the blocks of a decoded image in row-major order.
// Next returns io.EOF after the last block.
type BlockSource interface {
	Geometry() Geometry
	Next() (Block, error)
}

// BlockSink receives captured blocks. The block's pixels are only valid
// for the duration of the call.
type BlockSink interface {
	WriteBlock(b Block) error
}

// BlockReader fills pix with the pixels for t, in raster order.
type BlockReader interface {
	ReadBlock(t tile.Tile, pix []image565.Color) error
}

// CenterRegion returns the region where an image of w×h pixels is centered
// in bounds. Images larger than bounds are aligned to its top left corner.
func CenterRegion(bounds image.Rectangle, w, h int) image.Rectangle {
	x := max((bounds.Dx()-w)/2, 0)
	y := max((bounds.Dy()-h)/2, 0)
	p := bounds.Min.Add(image.Pt(x, y))
	return image.Rectangle{Min: p, Max: p.Add(image.Pt(w, h))}
}

// plan walks region with the device size of w.
func plan(w Window, region image.Rectangle, tw, th int) iter.Seq[tile.Tile] {
	b := w.Bounds()
	return tile.Plan(region, tw, th, b.Max.X, b.Max.Y)
}

func finish(w Window) error {
	if wt, ok := w.(waiter); ok {
		return wt.Wait()
	}
	return nil
}

// Render draws the blocks of src with the image's top left corner at
// region.Min; the extent of the region is that of the image. The source's
// block size is the tile size. Blocks that fall outside the display are
// dropped, and rendering stops at the first block that runs past the bottom
// of it.
func Render(w Window, region image.Rectangle, src BlockSource) error {
	g := src.Geometry()
	region.Max = region.Min.Add(g.Size)
	for t := range plan(w, region, g.MCU.X, g.MCU.Y) {
		b, err := seek(src, t)
		if err != nil {
			return fmt.Errorf("stream: render: tile %v: %w", t.Rect.Min, err)
		}
		if len(b.Pix) != t.Pixels() {
			return fmt.Errorf("stream: render: block (%d, %d) has %d pixels, want %d", b.Col, b.Row, len(b.Pix), t.Pixels())
		}
		if err := w.OpenWindow(t.Rect, ili9341.Write); err != nil {
			return fmt.Errorf("stream: render: %w", err)
		}
		if err := w.WritePixels(b.Pix); err != nil {
			return fmt.Errorf("stream: render: %w", err)
		}
	}
	if err := finish(w); err != nil {
		return fmt.Errorf("stream: render: %w", err)
	}
	return nil
}

// seek pulls blocks from src until the one for t.
func seek(src BlockSource, t tile.Tile) (Block, error) {
	for {
		b, err := src.Next()
		if errors.Is(err, io.EOF) {
			return Block{}, io.ErrUnexpectedEOF
		}
		if err != nil {
			return Block{}, err
		}
		if b.Row > t.Row || (b.Row == t.Row && b.Col > t.Col) {
			return Block{}, fmt.Errorf("block (%d, %d) is out of order", b.Col, b.Row)
		}
		if b.Col == t.Col && b.Row == t.Row {
			return b, nil
		}
	}
}

// Capture reads region back from the display in tw×th tiles and hands each
// one to sink, in row-major order.
func Capture(w Window, region image.Rectangle, tw, th int, sink BlockSink) error {
	buf := make([]image565.Color, max(tw*th, 0))
	for t := range plan(w, region, tw, th) {
		pix := buf[:t.Pixels()]
		if err := w.OpenWindow(t.Rect, ili9341.Read); err != nil {
			return fmt.Errorf("stream: capture: %w", err)
		}
		if err := w.ReadPixels(pix); err != nil {
			return fmt.Errorf("stream: capture: tile %v: %w", t.Rect.Min, err)
		}
		if err := sink.WriteBlock(Block{Col: t.Col, Row: t.Row, Rect: t.Rect, Pix: pix}); err != nil {
			return fmt.Errorf("stream: capture: tile %v: %w", t.Rect.Min, err)
		}
	}
	return nil
}

// Restore writes region to the display in tw×th tiles, taking the pixels
// of each tile from src.
func Restore(w Window, region image.Rectangle, tw, th int, src BlockReader) error {
	buf := make([]image565.Color, max(tw*th, 0))
	for t := range plan(w, region, tw, th) {
		pix := buf[:t.Pixels()]
		if err := src.ReadBlock(t, pix); err != nil {
			return fmt.Errorf("stream: restore: tile %v: %w", t.Rect.Min, err)
		}
		if err := w.OpenWindow(t.Rect, ili9341.Write); err != nil {
			return fmt.Errorf("stream: restore: %w", err)
		}
		if err := w.WritePixels(pix); err != nil {
			return fmt.Errorf("stream: restore: %w", err)
		}
	}
	if err := finish(w); err != nil {
		return fmt.Errorf("stream: restore: %w", err)
	}
	return nil
}

// ImageSink stores captured blocks into an image.
type ImageSink struct {
	Img *image565.Image
}

// WriteBlock implements BlockSink.
func (s ImageSink) WriteBlock(b Block) error {
	s.Img.SetBlock(b.Rect, b.Pix)
	return nil
}

// ImageReader reads blocks from an image.
type ImageReader struct {
	Img *image565.Image
}

// ReadBlock implements BlockReader.
func (r ImageReader) ReadBlock(t tile.Tile, pix []image565.Color) error {
	if !t.Rect.In(r.Img.Rect) {
		return fmt.Errorf("tile %v outside image %v", t.Rect, r.Img.Rect)
	}
	r.Img.Block(pix[:0], t.Rect)
	return nil
}
