package io

import (
	"sync/atomic"
)

const (
	KEY_COUNT = 16 // Keys on the pad.
)

// Keypad is the pressed state of the 16 keys. Bit n is set while key n
// is held. It may be updated by an input goroutine while the machine
// samples it.
type Keypad struct {
	state atomic.Uint32
}

// Press marks a key as held. Keys outside the pad are ignored.
func (kp *Keypad) Press(key uint8) {
	if key >= KEY_COUNT {
		return
	}
	kp.state.Or(1 << key)
}

// Release marks a key as no longer held.
func (kp *Keypad) Release(key uint8) {
	if key >= KEY_COUNT {
		return
	}
	kp.state.And(^uint32(1 << key))
}

// Pressed reports whether a key is held.
func (kp *Keypad) Pressed(key uint8) bool {
	return key < KEY_COUNT && kp.state.Load()&(1<<key) != 0
}

// Snapshot returns the state of all keys.
func (kp *Keypad) Snapshot() uint16 {
	return uint16(kp.state.Load())
}

// Reset releases all keys.
func (kp *Keypad) Reset() {
	kp.state.Store(0)
}
