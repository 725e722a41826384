// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"iter"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/ezrec/chip8/console"
	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
)

func main() {
	var compile string
	var rom string
	var verbose bool
	var hz int
	var cycles int
	var seed uint64
	var quirkLoadStore bool
	var quirkSubn bool
	var skipUnknown bool
	var audio bool
	var list bool

	flag.StringVar(&compile, "c", "", ".8o assembly file to compile")
	flag.StringVar(&rom, "r", "", ".ch8 ROM image to run")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.IntVar(&hz, "hz", emulator.CPU_HZ, "Instructions per second")
	flag.IntVar(&cycles, "n", 0, "Run headless for this many cycles, then dump the machine state")
	flag.Uint64Var(&seed, "seed", 0, "RND seed (0 for random)")
	flag.BoolVar(&quirkLoadStore, "quirk-load-store", cpu.DefaultQuirks.LoadAdvancesI, "Fx55/Fx65 leave I advanced past the last register")
	flag.BoolVar(&quirkSubn, "quirk-subn", cpu.DefaultQuirks.SubnKeepOnBorrow, "8xy7 leaves Vx unchanged on borrow")
	flag.BoolVar(&skipUnknown, "skip-unknown", cpu.DefaultQuirks.SkipUnknown, "Skip unknown opcodes instead of halting")
	flag.BoolVar(&audio, "audio", false, "Play a tone while the sound timer runs")
	flag.BoolVar(&list, "list", false, "List the program, do not execute")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if hz <= 0 {
		log.Fatalf("%v: -hz must be positive", os.Args[0])
	}

	if len(compile) == 0 && len(rom) == 0 {
		log.Fatalf("%v: one of -c or -r is required", os.Args[0])
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.Hz = hz
	emu.Cpu.Quirks = cpu.Quirks{
		LoadAdvancesI:    quirkLoadStore,
		SubnKeepOnBorrow: quirkSubn,
		SkipUnknown:      skipUnknown,
	}
	if seed != 0 {
		emu.Seed(seed)
	}

	// Compile a new instruction stream.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &cpu.Assembler{Verbose: verbose}
		for key, value := range emu.Defines() {
			asm.Predefine(key, value)
		}
		emu.Program, err = asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	} else {
		err := emu.Rom.LoadFile(rom, emulator.ROM_LIMIT)
		if err != nil {
			log.Fatal(err)
		}
	}

	if list {
		var codes iter.Seq2[uint16, cpu.Code]
		if len(emu.Program.Opcodes) > 0 {
			codes = emu.Program.Codes()
		} else {
			codes = cpu.Disassemble(emu.Rom.Data, cpu.PROGRAM_START)
		}
		for pc, code := range codes {
			fmt.Printf("%03X %04X %v\n", pc, uint16(code), code)
		}
		return
	}

	err := emu.Reset()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cycles > 0 {
		err = headless(ctx, emu, cycles)
		console.Dump(emu)
	} else {
		err = interactive(ctx, emu, audio)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		if emu.Cpu.Fault != nil {
			log.Printf("\n%v", emu.Cpu.String())
		}
		log.Fatal(err)
	}
}

// headless runs a fixed number of cycles at simulated speed.
func headless(ctx context.Context, emu *emulator.Emulator, cycles int) (err error) {
	cycle := time.Second / time.Duration(emu.Hz)

	for range cycles {
		var done bool
		done, err = emu.Advance(ctx, cycle)
		if err != nil || done {
			return
		}
	}

	return
}

// interactive runs on the terminal until the user quits.
func interactive(ctx context.Context, emu *emulator.Emulator, audio bool) (err error) {
	term := console.NewTerminal(emu)

	if audio {
		tone := console.NewTone()
		err = tone.Play()
		if err != nil {
			return
		}
		defer tone.Close()
		term.Tone = tone
	}

	err = term.Run(ctx)
	return
}
