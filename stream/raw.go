package stream

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"periph.io/x/devices/v3/ili9341/image565"
	"periph.io/x/devices/v3/ili9341/tile"
)

// A raw dump is the flat sequence of captured pixels, tile after tile, two
// bytes per pixel with the low byte first. It has no header; the region and
// tile size used for the capture are needed to restore it.

// RawWriter is a BlockSink writing a raw dump. Call Flush when done.
type RawWriter struct {
	w   *bufio.Writer
	buf []byte
	n   int64
}

// NewRawWriter returns a RawWriter writing to w.
func NewRawWriter(w io.Writer) *RawWriter {
	return &RawWriter{w: bufio.NewWriter(w)}
}

// WriteBlock implements BlockSink.
func (r *RawWriter) WriteBlock(b Block) error {
	r.buf = r.buf[:0]
	for _, c := range b.Pix {
		r.buf = binary.LittleEndian.AppendUint16(r.buf, uint16(c))
	}
	if _, err := r.w.Write(r.buf); err != nil {
		return err
	}
	r.n += int64(len(b.Pix))
	return nil
}

// Pixels returns the number of pixels written so far.
func (r *RawWriter) Pixels() int64 {
	return r.n
}

// Flush writes any buffered data to the underlying writer.
func (r *RawWriter) Flush() error {
	return r.w.Flush()
}

// RawReader is a BlockReader reading a raw dump.
type RawReader struct {
	r   io.Reader
	buf []byte
}

// NewRawReader returns a RawReader reading from r.
func NewRawReader(r io.Reader) *RawReader {
	return &RawReader{r: bufio.NewReader(r)}
}

// ReadBlock implements BlockReader. A dump that ends before the block is
// complete is reported as io.ErrUnexpectedEOF.
func (r *RawReader) ReadBlock(t tile.Tile, pix []image565.Color) error {
	n := 2 * len(pix)
	if cap(r.buf) < n {
		r.buf = make([]byte, n)
	}
	buf := r.buf[:n]
	if _, err := io.ReadFull(r.r, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("raw dump: %w", err)
	}
	for i := range pix {
		pix[i] = image565.Color(binary.LittleEndian.Uint16(buf[2*i:]))
	}
	return nil
}
