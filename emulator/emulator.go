// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"fmt"
	"iter"
	"log"
	"maps"
	"time"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/internal"
	"github.com/ezrec/chip8/io"
)

const (
	CPU_HZ    = 500                                // Default instruction rate.
	ROM_LIMIT = cpu.MEMORY_SIZE - cpu.PROGRAM_START // Largest loadable image.
)

var _emulator_defines = map[string]string{
	"CPU_HZ":    fmt.Sprintf("%v", CPU_HZ),
	"ROM_LIMIT": fmt.Sprintf("%v", ROM_LIMIT),
}

// Emulator state. CPU + display + key pad + timers.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Assembled program listing. Takes precedence over Rom when not empty.

	Screen *display.Framebuffer // Display attached to the CPU.
	Rom    io.Rom               // Raw program image.
	Keypad io.Keypad            // Key pad, shared with the host.
	Clock  cpu.TimerClock       // 60Hz timer cadence.

	Hz int // Instruction rate. Zero selects CPU_HZ.

	carry time.Duration
}

// NewEmulator creates a new emulator, with a randomly seeded RND source.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Program: &cpu.Program{},
		Screen:  display.NewFramebuffer(),
		Hz:      CPU_HZ,
	}

	emu.Cpu = cpu.NewCpu(emu.Screen, io.NewRandom(0))

	return
}

// Seed replaces the RND source with a deterministic one.
func (emu *Emulator) Seed(seed uint64) {
	emu.Cpu.Random = io.NewRandom(seed)
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
		emu.Screen.Defines(),
	)
}

// Image returns the program image that Reset will load.
func (emu *Emulator) Image() []byte {
	if emu.Program != nil && len(emu.Program.Opcodes) > 0 {
		return emu.Program.Binary()
	}

	return emu.Rom.Data
}

// Reset the machine, and load the font and the program image.
func (emu *Emulator) Reset() (err error) {
	image := emu.Image()
	if len(image) > ROM_LIMIT {
		err = &io.ErrRom{Name: emu.Rom.Name, Err: io.ErrRomTooLarge}
		return
	}

	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()

	err = emu.Cpu.Memory.Load(cpu.FONT_BASE, cpu.Font[:])
	if err != nil {
		return
	}

	err = emu.Cpu.Memory.Load(cpu.PROGRAM_START, image)
	if err != nil {
		return
	}

	emu.Keypad.Reset()
	emu.Clock.Reset()
	emu.carry = 0

	if emu.Verbose {
		log.Printf("emulator: loaded %d bytes", len(image))
	}

	return
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Pc returns the current program counter.
func (emu *Emulator) Pc() int {
	return int(emu.Cpu.Pc)
}

// LineNo returns the source line of the executing opcode, or zero when
// running a raw image.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}

	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Sound reports whether the tone should be playing.
func (emu *Emulator) Sound() bool {
	return emu.Cpu.Sound > 0
}

// Tick performs a single instruction cycle against the current key pad.
// It is done when the program spins on a jump to itself.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	pc := emu.Cpu.Pc
	running := emu.Cpu.State == cpu.STATE_RUNNING

	err = emu.Cpu.Tick(cpu.Keys(emu.Keypad.Snapshot()))
	if err != nil {
		return
	}

	done = running && emu.Cpu.State == cpu.STATE_RUNNING && emu.Cpu.Pc == pc
	return
}

func (emu *Emulator) period() time.Duration {
	if emu.Hz <= 0 {
		return time.Second / CPU_HZ
	}
	return time.Second / time.Duration(emu.Hz)
}

// Advance runs the instruction cycles and timer ticks owed for elapsed
// host time. The cycle remainder carries to the next call. Once done,
// the owed cycles are dropped, but the timers still run.
func (emu *Emulator) Advance(ctx context.Context, elapsed time.Duration) (done bool, err error) {
	period := emu.period()

	emu.carry += elapsed
	for emu.carry >= period {
		err = ctx.Err()
		if err != nil {
			return
		}

		emu.carry -= period

		done, err = emu.Tick()
		if err != nil {
			return
		}
		if done {
			emu.carry = 0
			break
		}
	}

	emu.Clock.Advance(emu.Cpu, elapsed)

	return
}

// Run advances the emulator once per frame, calling present after each
// frame, until the context is cancelled or a fault occurs.
func (emu *Emulator) Run(ctx context.Context, frame time.Duration, present func(emu *Emulator) error) (err error) {
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		case now := <-ticker.C:
			_, err = emu.Advance(ctx, now.Sub(last))
			last = now
			if err != nil {
				return
			}
			if present != nil {
				err = present(emu)
				if err != nil {
					return
				}
			}
		}
	}
}
