package stream

import (
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// ErrManifest is returned when a canvas manifest does not match its dump.
var ErrManifest = errors.New("stream: invalid canvas manifest")

// PaintPad is the drawing area of the paint screen on a 320x240 display,
// right of the 16 pixel wide tool column. It is the region assumed for a
// canvas without a manifest.
var PaintPad = image.Rect(16, 0, 16+288, 240)

// Tile size used for canvases without a manifest.
const (
	PadTileW = 16
	PadTileH = 16
)

const manifestVersion = 1

// Manifest describes a saved canvas. It is stored next to the raw dump.
type Manifest struct {
	_       struct{} `cbor:",toarray"`
	Version int
	Region  [4]int // x0, y0, x1, y1
	TileW   int
	TileH   int
	Pixels  int64
}

// Rect returns the captured region.
func (m *Manifest) Rect() image.Rectangle {
	return image.Rect(m.Region[0], m.Region[1], m.Region[2], m.Region[3])
}

func manifestPath(path string) string {
	return path + ".cbor"
}

// SaveCanvas captures region of w into the file at path, and writes its
// manifest next to it.
func SaveCanvas(path string, w Window, region image.Rectangle, tw, th int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stream: save: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("stream: save: %w", cerr)
		}
	}()
	raw := NewRawWriter(f)
	if err := Capture(w, region, tw, th, raw); err != nil {
		return err
	}
	if err := raw.Flush(); err != nil {
		return fmt.Errorf("stream: save: %w", err)
	}

	m := Manifest{
		Version: manifestVersion,
		Region:  [4]int{region.Min.X, region.Min.Y, region.Max.X, region.Max.Y},
		TileW:   tw,
		TileH:   th,
		Pixels:  raw.Pixels(),
	}
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return fmt.Errorf("stream: save: %w", err)
	}
	b, err := enc.Marshal(&m)
	if err != nil {
		return fmt.Errorf("stream: save: %w", err)
	}
	if err := os.WriteFile(manifestPath(path), b, 0o644); err != nil {
		return fmt.Errorf("stream: save: %w", err)
	}
	return nil
}

// ReadManifest returns the manifest of the canvas at path. A canvas saved
// without one gets the paint pad defaults.
func ReadManifest(path string) (*Manifest, error) {
	b, err := os.ReadFile(manifestPath(path))
	if errors.Is(err, os.ErrNotExist) {
		m := &Manifest{
			Version: manifestVersion,
			Region:  [4]int{PaintPad.Min.X, PaintPad.Min.Y, PaintPad.Max.X, PaintPad.Max.Y},
			TileW:   PadTileW,
			TileH:   PadTileH,
			Pixels:  int64(PaintPad.Dx() * PaintPad.Dy()),
		}
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stream: load: %w", err)
	}
	mode, err := cbor.DecOptions{
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("stream: load: %w", err)
	}
	m := new(Manifest)
	if err := mode.Unmarshal(b, m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifest, err)
	}
	if m.Version != manifestVersion {
		return nil, fmt.Errorf("%w: version %d", ErrManifest, m.Version)
	}
	if m.TileW <= 0 || m.TileH <= 0 || m.Rect().Empty() {
		return nil, fmt.Errorf("%w: region %v with %dx%d tiles", ErrManifest, m.Rect(), m.TileW, m.TileH)
	}
	return m, nil
}

// LoadCanvas restores the canvas saved at path onto w.
func LoadCanvas(path string, w Window) error {
	m, err := ReadManifest(path)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("stream: load: %w", err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stream: load: %w", err)
	}
	if fi.Size() != 2*m.Pixels {
		return fmt.Errorf("%w: %d pixels recorded, dump holds %d bytes", ErrManifest, m.Pixels, fi.Size())
	}
	return Restore(w, m.Rect(), m.TileW, m.TileH, NewRawReader(f))
}
