package console

import (
	"fmt"
	"io"

	tm "github.com/buger/goterm"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
)

// Print writes the framebuffer, registers and current instruction.
func Print(w io.Writer, emu *emulator.Emulator) {
	fmt.Fprint(w, emu.Screen.String())
	fmt.Fprintln(w)

	state := emu.Cpu.String()
	if emu.Cpu.State == cpu.STATE_HALTED {
		state = tm.Color(state, tm.RED)
	}
	fmt.Fprint(w, state)

	if code, err := emu.Cpu.Fetch(); err == nil {
		fmt.Fprintf(w, "% 5s: %v\n", "code", code)
	}
	if lineno := emu.LineNo(); lineno != 0 {
		fmt.Fprintf(w, "% 5s: %d\n", "line", lineno)
	}
	if emu.Cpu.Fault != nil {
		fmt.Fprintf(w, "% 5s: %v\n", "fault", emu.Cpu.Fault)
	}
}

// Dump redraws the whole terminal with the machine state.
func Dump(emu *emulator.Emulator) {
	tm.Clear()
	tm.MoveCursor(1, 1)

	Print(tm.Screen, emu)

	tm.Flush()
}
