// Package console hosts the emulator on a text terminal, with an
// optional square wave tone for the sound timer.
package console

import (
	"unicode"
)

// Keyboard layout, in key pad order.
//
//	1 2 3 4      1 2 3 C
//	Q W E R  ->  4 5 6 D
//	A S D F      7 8 9 E
//	Z X C V      A 0 B F
var keyMap = map[rune]uint8{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xc,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xd,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xe,
	'z': 0xa, 'x': 0x0, 'c': 0xb, 'v': 0xf,
}

// KeyOf maps a keyboard character to a key pad key.
func KeyOf(ch rune) (key uint8, ok bool) {
	key, ok = keyMap[unicode.ToLower(ch)]
	return
}
