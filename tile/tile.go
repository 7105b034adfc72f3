// Package tile splits a rectangular region into the fixed-size blocks that
// a windowed display controller is fed with.
//
// Blocks are produced row-major, left to right then top to bottom, so that
// streaming them in order yields a raster ordered pixel stream. Blocks in the
// last column and last row of a region are truncated to the remainder of the
// region. No block ever extends past the device.
package tile

import (
	"image"
	"iter"
)

// Tile is one block of a planned region, in device coordinates.
type Tile struct {
	Rect image.Rectangle
	// Col and Row are the position of the tile in the region's grid.
	Col, Row int
}

// Pixels returns the number of pixels in t.
func (t Tile) Pixels() int {
	return t.Rect.Dx() * t.Rect.Dy()
}

// Grid returns the number of tile columns and rows needed to cover a region
// of size sz with tiles of tw×th pixels.
func Grid(sz image.Point, tw, th int) (cols, rows int) {
	if tw <= 0 || th <= 0 || sz.X <= 0 || sz.Y <= 0 {
		return 0, 0
	}
	return (sz.X + tw - 1) / tw, (sz.Y + th - 1) / th
}

// edge returns the size of the last tile along an axis of length n.
func edge(n, t int) int {
	if r := n % t; r != 0 {
		return r
	}
	return t
}

// Plan returns the tiles covering region for a device of dw×dh pixels.
//
// Tiles that would extend past the right edge of the device, or that start
// left of or above it, are left out. The walk ends at the first tile whose
// bottom passes the device height, and at the first tile on the bottom
// device row that passes the right edge.
//
// The sequence is computed lazily and may be ranged over any number of
// times.
func Plan(region image.Rectangle, tw, th, dw, dh int) iter.Seq[Tile] {
	return func(yield func(Tile) bool) {
		cols, rows := Grid(region.Size(), tw, th)
		lastW, lastH := 0, 0
		if cols > 0 {
			lastW, lastH = edge(region.Dx(), tw), edge(region.Dy(), th)
		}
		for row := range rows {
			h := th
			if row == rows-1 {
				h = lastH
			}
			for col := range cols {
				w := tw
				if col == cols-1 {
					w = lastW
				}
				p := region.Min.Add(image.Pt(col*tw, row*th))
				t := Tile{
					Rect: image.Rectangle{Min: p, Max: p.Add(image.Pt(w, h))},
					Col:  col,
					Row:  row,
				}
				if !fits(t.Rect, dw, dh) {
					if t.Rect.Max.Y > dh || (t.Rect.Max.Y == dh && t.Rect.Max.X > dw) {
						return
					}
					continue
				}
				if !yield(t) {
					return
				}
			}
		}
	}
}

func fits(r image.Rectangle, dw, dh int) bool {
	return r.Min.X >= 0 && r.Min.Y >= 0 && r.Max.X <= dw && r.Max.Y <= dh
}

// Count returns the number of tiles Plan produces.
func Count(region image.Rectangle, tw, th, dw, dh int) int {
	n := 0
	for range Plan(region, tw, th, dw, dh) {
		n++
	}
	return n
}
