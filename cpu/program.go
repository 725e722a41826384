package cpu

import (
	"iter"
)

// Opcode is a single assembled source line.
type Opcode struct {
	LineNo    int      // Source line number.
	Address   int      // Load address of the first byte.
	Words     []string // Source words.
	Data      []byte   // Assembled bytes.
	LinkLabel string   // Label to link into the 12-bit address field, if any.
}

// Code returns the first instruction word of the opcode.
func (op *Opcode) Code() Code {
	if len(op.Data) < 2 {
		return Code(0)
	}
	return Code(uint16(op.Data[0])<<8 | uint16(op.Data[1]))
}

type Program struct {
	Opcodes []Opcode
}

type Debug struct {
	*Opcode
	Index int // Byte offset of the address within the opcode.
}

// Debug finds the opcode that assembled the byte at pc.
func (prog *Program) Debug(pc uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(pc) >= op.Address && int(pc) < op.Address+len(op.Data) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(pc) - op.Address,
			}
			break
		}
	}

	return
}

// Binary returns the memory image, starting at PROGRAM_START.
func (prog *Program) Binary() (image []byte) {
	for _, op := range prog.Opcodes {
		end := op.Address + len(op.Data) - PROGRAM_START
		if end > len(image) {
			image = append(image, make([]byte, end-len(image))...)
		}
		copy(image[op.Address-PROGRAM_START:], op.Data)
	}

	return
}

// Codes iterates over every instruction word, by address.
func (prog *Program) Codes() iter.Seq2[uint16, Code] {
	return func(yield func(pc uint16, code Code) bool) {
		for _, op := range prog.Opcodes {
			for n := 0; n+1 < len(op.Data); n += 2 {
				code := Code(uint16(op.Data[n])<<8 | uint16(op.Data[n+1]))
				if !yield(uint16(op.Address+n), code) {
					return
				}
			}
		}
	}
}

// Disassemble iterates over a raw memory image loaded at base.
func Disassemble(image []byte, base uint16) iter.Seq2[uint16, Code] {
	return func(yield func(pc uint16, code Code) bool) {
		for n := 0; n+1 < len(image); n += 2 {
			code := Code(uint16(image[n])<<8 | uint16(image[n+1]))
			if !yield(base+uint16(n), code) {
				return
			}
		}
	}
}
