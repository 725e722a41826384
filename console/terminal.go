package console

import (
	"context"
	"errors"
	"time"

	"github.com/nsf/termbox-go"

	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/emulator"
)

const (
	FRAME = time.Second / 60 // Host refresh interval.
)

var errQuit = errors.New(f("quit"))

// Terminal runs an emulator in a termbox session. Each pixel is two
// cells wide, so the 64x32 screen needs a 128x33 terminal.
type Terminal struct {
	Emulator *emulator.Emulator
	Tone     *Tone // Optional.
	Hold     KeyHold

	events chan termbox.Event
}

// NewTerminal attaches a terminal to an emulator.
func NewTerminal(emu *emulator.Emulator) *Terminal {
	return &Terminal{
		Emulator: emu,
		events:   make(chan termbox.Event, 16),
	}
}

// HandleKey applies a terminal key event, and reports whether the user
// asked to quit.
func (term *Terminal) HandleKey(ev termbox.Event) (quit bool) {
	if ev.Type != termbox.EventKey {
		return
	}

	switch ev.Key {
	case termbox.KeyEsc, termbox.KeyCtrlC:
		quit = true
		return
	}

	if key, ok := KeyOf(ev.Ch); ok {
		term.Hold.Press(&term.Emulator.Keypad, key)
	}

	return
}

// Draw renders the framebuffer and a status line.
func (term *Terminal) Draw() (err error) {
	emu := term.Emulator

	fg, bg := termbox.ColorDefault, termbox.ColorDefault
	err = termbox.Clear(fg, bg)
	if err != nil {
		return
	}

	for at, lit := range emu.Screen.Pixels() {
		if !lit {
			continue
		}
		termbox.SetCell(at[0]*2, at[1], ' ', fg, termbox.ColorWhite)
		termbox.SetCell(at[0]*2+1, at[1], ' ', fg, termbox.ColorWhite)
	}

	status := f("pc %03X  i %03X  ticks %d  [esc] quit", emu.Cpu.Pc, emu.Cpu.I, emu.Ticks())
	for n, ch := range []rune(status) {
		termbox.SetCell(n, display.HEIGHT, ch, fg, bg)
	}

	err = termbox.Flush()
	return
}

// frame is called by the emulator after every host frame.
func (term *Terminal) frame(emu *emulator.Emulator) (err error) {
	term.Hold.Step(&emu.Keypad)

	for pending := true; pending; {
		select {
		case ev := <-term.events:
			if term.HandleKey(ev) {
				err = errQuit
				return
			}
		default:
			pending = false
		}
	}

	if term.Tone != nil {
		term.Tone.Set(emu.Sound())
	}

	if emu.Screen.Dirty() {
		err = term.Draw()
	}

	return
}

// Run takes over the terminal until the user quits, the context is
// cancelled, or the emulator faults. Quitting is not an error.
func (term *Terminal) Run(ctx context.Context) (err error) {
	err = termbox.Init()
	if err != nil {
		return
	}
	defer termbox.Close()

	termbox.SetInputMode(termbox.InputEsc)

	if term.events == nil {
		term.events = make(chan termbox.Event, 16)
	}

	go func() {
		for {
			ev := termbox.PollEvent()
			if ev.Type == termbox.EventInterrupt {
				return
			}
			select {
			case term.events <- ev:
			default:
				// Drop input while the emulator is behind.
			}
		}
	}()
	defer termbox.Interrupt()

	err = term.Emulator.Run(ctx, FRAME, term.frame)
	if errors.Is(err, errQuit) {
		err = nil
	}

	if term.Tone != nil {
		term.Tone.Set(false)
	}

	return
}

