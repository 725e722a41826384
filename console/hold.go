package console

import (
	"github.com/ezrec/chip8/io"
)

const (
	HOLD_FRAMES = 6 // Frames a key stays down after a terminal key event.
)

// KeyHold synthesizes key releases. Terminals report key presses and
// auto-repeat, but never releases, so each press holds the key for a
// number of frames.
type KeyHold struct {
	Frames int // Frames per press. Zero selects HOLD_FRAMES.

	remaining [io.KEY_COUNT]int
}

// Press marks a key as held on the key pad, and restarts its hold.
func (kh *KeyHold) Press(kp *io.Keypad, key uint8) {
	if int(key) >= len(kh.remaining) {
		return
	}

	frames := kh.Frames
	if frames <= 0 {
		frames = HOLD_FRAMES
	}

	kh.remaining[key] = frames
	kp.Press(key)
}

// Step ages all held keys by one frame, releasing the expired ones.
func (kh *KeyHold) Step(kp *io.Keypad) {
	for key, frames := range kh.remaining {
		if frames == 0 {
			continue
		}
		frames--
		kh.remaining[key] = frames
		if frames == 0 {
			kp.Release(uint8(key))
		}
	}
}

// Reset forgets all holds, and releases their keys.
func (kh *KeyHold) Reset(kp *io.Keypad) {
	for key, frames := range kh.remaining {
		if frames != 0 {
			kp.Release(uint8(key))
		}
	}
	clear(kh.remaining[:])
}
