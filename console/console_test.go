package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nsf/termbox-go"
	"github.com/stretchr/testify/assert"

	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/io"
)

func TestKeyOf(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		ch  rune
		key uint8
	}{
		{'1', 0x1}, {'2', 0x2}, {'3', 0x3}, {'4', 0xc},
		{'q', 0x4}, {'w', 0x5}, {'e', 0x6}, {'r', 0xd},
		{'a', 0x7}, {'s', 0x8}, {'d', 0x9}, {'f', 0xe},
		{'z', 0xa}, {'x', 0x0}, {'c', 0xb}, {'v', 0xf},
		{'Q', 0x4}, {'V', 0xf},
	}

	for _, entry := range table {
		key, ok := KeyOf(entry.ch)
		assert.True(ok, string(entry.ch))
		assert.Equal(entry.key, key, string(entry.ch))
	}

	for _, ch := range "5ty ;" {
		_, ok := KeyOf(ch)
		assert.False(ok, string(ch))
	}
}

func TestKeyHold(t *testing.T) {
	assert := assert.New(t)

	kp := &io.Keypad{}
	kh := &KeyHold{Frames: 2}

	kh.Press(kp, 0x5)
	assert.True(kp.Pressed(0x5))

	kh.Step(kp)
	assert.True(kp.Pressed(0x5))

	// Auto-repeat restarts the hold.
	kh.Press(kp, 0x5)
	kh.Step(kp)
	assert.True(kp.Pressed(0x5))

	kh.Step(kp)
	assert.False(kp.Pressed(0x5))

	kh.Step(kp)
	assert.Equal(uint16(0), kp.Snapshot())
}

func TestKeyHold_Default(t *testing.T) {
	assert := assert.New(t)

	kp := &io.Keypad{}
	kh := &KeyHold{}

	kh.Press(kp, 0xa)
	kh.Press(kp, 0x10)
	assert.Equal(uint16(1<<0xa), kp.Snapshot())

	for range HOLD_FRAMES - 1 {
		kh.Step(kp)
	}
	assert.True(kp.Pressed(0xa))
	kh.Step(kp)
	assert.False(kp.Pressed(0xa))

	kh.Press(kp, 0x1)
	kh.Press(kp, 0x2)
	kh.Reset(kp)
	assert.Equal(uint16(0), kp.Snapshot())
}

func TestTone(t *testing.T) {
	assert := assert.New(t)

	tone := NewTone()
	samples := make([][2]float64, 200)

	n, ok := tone.Stream(samples)
	assert.True(ok)
	assert.Equal(len(samples), n)
	for _, sample := range samples {
		assert.Equal([2]float64{0, 0}, sample)
	}

	tone.Set(true)
	assert.True(tone.On())
	n, ok = tone.Stream(samples)
	assert.True(ok)
	assert.Equal(len(samples), n)

	high, low := 0, 0
	for _, sample := range samples {
		assert.Equal(sample[0], sample[1])
		switch sample[0] {
		case tone.Volume:
			high++
		case -tone.Volume:
			low++
		default:
			assert.Fail("unexpected sample", "%v", sample)
		}
	}
	// 200 samples at 44.1kHz is about two periods of 440Hz.
	assert.InDelta(high, low, 60)
	assert.Greater(low, 0)

	assert.NoError(tone.Err())
}

func TestPrint(t *testing.T) {
	assert := assert.New(t)

	emu := emulator.NewEmulator()
	emu.Rom = io.Rom{Name: "test", Data: []byte{0x60, 0x2a, 0x00, 0xee}}
	assert.NoError(emu.Reset())

	buf := &bytes.Buffer{}
	Print(buf, emu)
	text := buf.String()

	assert.Equal(strings.Repeat(".", 64), strings.Split(text, "\n")[0])
	assert.Contains(text, "pc: 200")
	assert.Contains(text, "code: LD V0, #2A")
	assert.NotContains(text, "fault")

	_, err := emu.Tick()
	assert.NoError(err)
	_, err = emu.Tick()
	assert.Error(err)

	buf.Reset()
	Print(buf, emu)
	text = buf.String()
	assert.Contains(text, "halted")
	assert.Contains(text, "fault: ")
}

func TestTerminal_HandleKey(t *testing.T) {
	assert := assert.New(t)

	emu := emulator.NewEmulator()
	term := NewTerminal(emu)

	assert.False(term.HandleKey(termbox.Event{Type: termbox.EventKey, Ch: 'w'}))
	assert.True(emu.Keypad.Pressed(0x5))

	assert.False(term.HandleKey(termbox.Event{Type: termbox.EventResize}))
	assert.False(term.HandleKey(termbox.Event{Type: termbox.EventKey, Ch: 'p'}))
	assert.Equal(uint16(1<<0x5), emu.Keypad.Snapshot())

	assert.True(term.HandleKey(termbox.Event{Type: termbox.EventKey, Key: termbox.KeyEsc}))
	assert.True(term.HandleKey(termbox.Event{Type: termbox.EventKey, Key: termbox.KeyCtrlC}))
}
