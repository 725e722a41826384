// Package display implements the CHIP-8 monochrome framebuffer.
package display

import (
	"fmt"
	"iter"
	"maps"
	"math/bits"
	"strings"
)

const (
	WIDTH        = 64 // Columns.
	HEIGHT       = 32 // Rows.
	SPRITE_WIDTH = 8  // Pixels per sprite row.
)

var _display_defines = map[string]string{
	"SCREEN_WIDTH":  fmt.Sprintf("%v", WIDTH),
	"SCREEN_HEIGHT": fmt.Sprintf("%v", HEIGHT),
}

// Framebuffer is a WIDTH x HEIGHT grid of single bit pixels.
// Each row is a bit mask, with column 0 in the most significant bit.
type Framebuffer struct {
	Rows [HEIGHT]uint64

	dirty bool
}

// NewFramebuffer returns a cleared framebuffer.
func NewFramebuffer() *Framebuffer {
	return &Framebuffer{dirty: true}
}

// Defines for the display
func (fb *Framebuffer) Defines() iter.Seq2[string, string] {
	return maps.All(_display_defines)
}

// Clear turns off every pixel.
func (fb *Framebuffer) Clear() {
	clear(fb.Rows[:])
	fb.dirty = true
}

// Draw XORs an 8 pixel wide sprite onto the grid with its top left
// corner at (x, y). Both the origin and every pixel wrap around the
// edges. Returns true if any lit pixel was turned off.
func (fb *Framebuffer) Draw(sprite []byte, x, y uint8) (collision bool) {
	col := int(x) % WIDTH
	for n, line := range sprite {
		row := (int(y) + n) % HEIGHT
		mask := bits.RotateLeft64(uint64(line)<<(64-SPRITE_WIDTH), -col)
		if fb.Rows[row]&mask != 0 {
			collision = true
		}
		fb.Rows[row] ^= mask
	}

	if len(sprite) > 0 {
		fb.dirty = true
	}

	return
}

// Get reports whether the pixel at (x, y) is lit. Coordinates wrap.
func (fb *Framebuffer) Get(x, y int) bool {
	x = ((x % WIDTH) + WIDTH) % WIDTH
	y = ((y % HEIGHT) + HEIGHT) % HEIGHT
	return (fb.Rows[y]>>(WIDTH-1-x))&1 != 0
}

// Snapshot returns a copy of the grid.
func (fb *Framebuffer) Snapshot() (rows [HEIGHT]uint64) {
	return fb.Rows
}

// Lit counts the lit pixels.
func (fb *Framebuffer) Lit() (count int) {
	for _, row := range fb.Rows {
		count += bits.OnesCount64(row)
	}
	return
}

// Dirty reports whether the grid changed since the last call.
func (fb *Framebuffer) Dirty() (dirty bool) {
	dirty = fb.dirty
	fb.dirty = false
	return
}

// Pixels iterates over every cell, row by row.
func (fb *Framebuffer) Pixels() iter.Seq2[[2]int, bool] {
	return func(yield func(pos [2]int, lit bool) bool) {
		for y := range HEIGHT {
			for x := range WIDTH {
				if !yield([2]int{x, y}, fb.Get(x, y)) {
					return
				}
			}
		}
	}
}

// String renders the grid with '#' for lit and '.' for unlit pixels.
func (fb *Framebuffer) String() string {
	var sb strings.Builder
	for y := range HEIGHT {
		for x := range WIDTH {
			if fb.Get(x, y) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
