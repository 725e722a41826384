// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"math/bits"
)

// State is the execution state of the processor.
type State int

//go:generate go tool stringer -linecomment -type=State
const (
	STATE_RUNNING = State(0) // running
	STATE_WAITING = State(1) // waiting for key
	STATE_HALTED  = State(2) // halted
)

const (
	REGISTER_COUNT = 16 // General purpose registers.
	KEY_COUNT      = 16 // Keys on the pad.
	FLAG           = 0xf
)

var _cpu_defines = map[string]string{
	"MEMORY_SIZE":   fmt.Sprintf("%#x", MEMORY_SIZE),
	"PROGRAM_START": fmt.Sprintf("%#x", PROGRAM_START),
	"FONT_BASE":     fmt.Sprintf("%#x", FONT_BASE),
	"STACK_LIMIT":   fmt.Sprintf("%v", STACK_LIMIT),
}

// Display is the framebuffer mutated by CLS and DRW.
type Display interface {
	Clear()
	Draw(sprite []byte, x, y uint8) (collision bool)
}

// Random supplies bytes for RND.
type Random interface {
	Byte() uint8
}

// Keys is a snapshot of the key pad. Bit n is set when key n is pressed.
type Keys uint16

// Pressed reports whether key is held. Keys outside the pad are never pressed.
func (keys Keys) Pressed(key uint8) bool {
	return key < KEY_COUNT && keys&(1<<key) != 0
}

// First returns the lowest numbered pressed key.
func (keys Keys) First() (key uint8, ok bool) {
	if keys == 0 {
		return
	}

	return uint8(bits.TrailingZeros16(uint16(keys))), true
}

// Quirks select between historical interpretations of ambiguous instructions.
type Quirks struct {
	LoadAdvancesI    bool // Fx65 leaves I pointing past the last byte read.
	SubnKeepOnBorrow bool // 8xy7 only writes Vx when VF is set.
	SkipUnknown      bool // Unknown opcodes are logged and stepped over.
}

// DefaultQuirks are used by NewCpu.
var DefaultQuirks = Quirks{
	LoadAdvancesI: true,
}

// Cpu is the simulation context for the CHIP-8 processor.
type Cpu struct {
	Verbose bool   // Set to enable verbose logging.
	Quirks  Quirks // Instruction interpretation options.

	Display Display // Framebuffer for CLS and DRW.
	Random  Random  // Byte source for RND.

	Memory Memory                 // Main memory.
	V      [REGISTER_COUNT]uint8 // General purpose registers.
	I      uint32                 // Index register. Wider than the address space so overflow stays visible.
	Pc     uint16                 // Program counter.
	Stack  Stack                  // Return address stack.
	Delay  uint8                  // Delay timer.
	Sound  uint8                  // Sound timer.

	State State // Execution state.
	Wait  uint8 // Register receiving the key while STATE_WAITING.
	Fault error // Fault that halted the processor.

	Ticks int // Cycles executed since reset.
}

// NewCpu creates a new processor, reset and ready to run.
func NewCpu(display Display, random Random) (cpu *Cpu) {
	cpu = &Cpu{
		Quirks:  DefaultQuirks,
		Display: display,
		Random:  random,
	}

	cpu.Reset()

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	line := func(reg string, strval string) {
		text += fmt.Sprintf("% 5s: %v\n", reg, strval)
	}

	line("pc", fmt.Sprintf("%03X", cpu.Pc))
	line("i", fmt.Sprintf("%03X", cpu.I))
	for n, val := range cpu.V {
		line(fmt.Sprintf("v%x", n), fmt.Sprintf("%02X", val))
	}
	line("dt", fmt.Sprintf("%02X", cpu.Delay))
	line("st", fmt.Sprintf("%02X", cpu.Sound))
	if val, ok := cpu.Stack.Peek(); ok {
		line("stack", fmt.Sprintf("%03X (%d)", val, cpu.Stack.Sp))
	} else {
		line("stack", "---")
	}
	line("state", cpu.State.String())

	return
}

// Reset the CPU state.
// - Clears memory, registers, timers and the stack.
// - Clears the display.
// - Sets the program counter to PROGRAM_START.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.Memory.Reset()
	clear(cpu.V[:])
	cpu.I = 0
	cpu.Pc = PROGRAM_START
	cpu.Stack.Reset()
	cpu.Delay = 0
	cpu.Sound = 0
	cpu.State = STATE_RUNNING
	cpu.Wait = 0
	cpu.Fault = nil
	cpu.Ticks = 0

	if cpu.Display != nil {
		cpu.Display.Clear()
	}
}

// Fetch reads the instruction word at the program counter.
func (cpu *Cpu) Fetch() (code Code, err error) {
	data, err := cpu.Memory.Slice(int(cpu.Pc), 2)
	if err != nil {
		return
	}

	code = Code(uint16(data[0])<<8 | uint16(data[1]))
	return
}

// Tick executes a single processor cycle against a key pad snapshot.
// A halted processor returns its fault without executing.
func (cpu *Cpu) Tick(keys Keys) (err error) {
	switch cpu.State {
	case STATE_HALTED:
		err = cpu.Fault
		if err == nil {
			err = ErrHalted
		}
		return
	case STATE_WAITING:
		cpu.Ticks++
		key, ok := keys.First()
		if !ok {
			return
		}
		cpu.V[cpu.Wait] = key
		cpu.State = STATE_RUNNING
		cpu.Pc += 2
		if cpu.Verbose {
			log.Printf("%03x: key %X to V%X", cpu.Pc, key, cpu.Wait)
		}
		return
	}

	code, err := cpu.Fetch()
	if err != nil {
		err = cpu.halt(code, err)
		return
	}

	cpu.Ticks++

	err = cpu.Execute(code, keys)
	return
}

// TimerTick decrements the delay and sound timers, stopping at zero.
func (cpu *Cpu) TimerTick() {
	if cpu.Delay > 0 {
		cpu.Delay--
	}
	if cpu.Sound > 0 {
		cpu.Sound--
	}
}

// halt records a fatal fault and stops the processor.
func (cpu *Cpu) halt(code Code, err error) error {
	kind := FAULT_MEMORY
	switch {
	case errors.Is(err, ErrStackFull):
		kind = FAULT_STACK_OVERFLOW
	case errors.Is(err, ErrStackEmpty):
		kind = FAULT_STACK_UNDERFLOW
	case errors.Is(err, ErrOpcodeUnknown):
		kind = FAULT_OPCODE
	}

	fault := &ErrFault{Kind: kind, Pc: cpu.Pc, Code: code, Err: err}
	cpu.State = STATE_HALTED
	cpu.Fault = fault

	if cpu.Verbose {
		log.Printf("cpu: %v", fault)
	}

	return fault
}

// Execute executes a single instruction word.
// Operands are validated before any state is written, so a faulting
// instruction leaves the machine as it was.
func (cpu *Cpu) Execute(code Code, keys Keys) (err error) {
	defer func() {
		if err != nil {
			err = cpu.halt(code, err)
		}
	}()

	if cpu.Verbose {
		log.Printf("%03x: %v", cpu.Pc, code)
	}

	next_pc := cpu.Pc + 2
	skip := func(cond bool) {
		if cond {
			next_pc += 2
		}
	}

	x, y := code.X(), code.Y()
	vx, vy := cpu.V[x], cpu.V[y]
	kk := code.KK()

	// The flag is written after the result, so it wins when x is VF.
	setFlag := func(value uint8, flag bool) {
		cpu.V[x] = value
		cpu.V[FLAG] = 0
		if flag {
			cpu.V[FLAG] = 1
		}
	}

	switch code.Op() {
	case OP_CLS:
		cpu.Display.Clear()
	case OP_RET:
		pc, ok := cpu.Stack.Pop()
		if !ok {
			err = ErrStackEmpty
			return
		}
		next_pc = pc
	case OP_SYS, OP_JP:
		next_pc = code.NNN()
	case OP_CALL:
		if !cpu.Stack.Push(cpu.Pc + 2) {
			err = ErrStackFull
			return
		}
		next_pc = code.NNN()
	case OP_SE_BYTE:
		skip(vx == kk)
	case OP_SNE_BYTE:
		skip(vx != kk)
	case OP_SE_REG:
		skip(vx == vy)
	case OP_SNE_REG:
		skip(vx != vy)
	case OP_LD_BYTE:
		cpu.V[x] = kk
	case OP_ADD_BYTE:
		cpu.V[x] = vx + kk
	case OP_LD_REG:
		cpu.V[x] = vy
	case OP_OR:
		cpu.V[x] = vx | vy
	case OP_AND:
		cpu.V[x] = vx & vy
	case OP_XOR:
		cpu.V[x] = vx ^ vy
	case OP_ADD_REG:
		sum := uint16(vx) + uint16(vy)
		setFlag(uint8(sum), sum > 0xff)
	case OP_SUB:
		setFlag(vx-vy, vx > vy)
	case OP_SHR:
		setFlag(vx>>1, vx&0x01 != 0)
	case OP_SUBN:
		borrow := vy <= vx
		if borrow && cpu.Quirks.SubnKeepOnBorrow {
			setFlag(vx, false)
		} else {
			setFlag(vy-vx, !borrow)
		}
	case OP_SHL:
		setFlag(vx<<1, vx&0x80 != 0)
	case OP_LD_I:
		cpu.I = uint32(code.NNN())
	case OP_JP_V0:
		next_pc = code.NNN() + uint16(cpu.V[0])
	case OP_RND:
		cpu.V[x] = cpu.Random.Byte() & kk
	case OP_DRW:
		var sprite []byte
		sprite, err = cpu.Memory.Slice(int(cpu.I), int(code.N()))
		if err != nil {
			return
		}
		collision := cpu.Display.Draw(sprite, vx, vy)
		cpu.V[FLAG] = 0
		if collision {
			cpu.V[FLAG] = 1
		}
	case OP_SKP:
		skip(keys.Pressed(vx))
	case OP_SKNP:
		skip(!keys.Pressed(vx))
	case OP_LD_VX_DT:
		cpu.V[x] = cpu.Delay
	case OP_LD_VX_K:
		key, ok := keys.First()
		if ok {
			cpu.V[x] = key
		} else {
			cpu.State = STATE_WAITING
			cpu.Wait = x
			next_pc = cpu.Pc
		}
	case OP_LD_DT_VX:
		cpu.Delay = vx
	case OP_LD_ST_VX:
		cpu.Sound = vx
	case OP_ADD_I_VX:
		cpu.I += uint32(vx)
	case OP_LD_F_VX:
		cpu.I = FONT_BASE + uint32(vx)*FONT_GLYPH_SIZE
	case OP_LD_B_VX:
		var digits []byte
		digits, err = cpu.Memory.Slice(int(cpu.I), 3)
		if err != nil {
			return
		}
		digits[0] = vx / 100
		digits[1] = (vx / 10) % 10
		digits[2] = vx % 10
	case OP_LD_I_VX:
		var dst []byte
		dst, err = cpu.Memory.Slice(int(cpu.I), int(x)+1)
		if err != nil {
			return
		}
		copy(dst, cpu.V[:x+1])
	case OP_LD_VX_I:
		var src []byte
		src, err = cpu.Memory.Slice(int(cpu.I), int(x)+1)
		if err != nil {
			return
		}
		copy(cpu.V[:x+1], src)
		if cpu.Quirks.LoadAdvancesI {
			cpu.I += uint32(x) + 1
		}
	default:
		if !cpu.Quirks.SkipUnknown {
			err = ErrOpcodeUnknown
			return
		}
		log.Printf("%03x: skipping unknown opcode %04x", cpu.Pc, uint16(code))
	}

	cpu.Pc = next_pc

	return
}
