package cpu

import (
	"fmt"
)

// Code is a single 16-bit instruction word.
type Code uint16

// CodeOp is a decoded instruction form.
type CodeOp int

//go:generate go tool stringer -linecomment -type=CodeOp
const (
	OP_UNKNOWN  = CodeOp(0)  // DW
	OP_CLS      = CodeOp(1)  // CLS
	OP_RET      = CodeOp(2)  // RET
	OP_SYS      = CodeOp(3)  // SYS
	OP_JP       = CodeOp(4)  // JP
	OP_CALL     = CodeOp(5)  // CALL
	OP_SE_BYTE  = CodeOp(6)  // SE
	OP_SNE_BYTE = CodeOp(7)  // SNE
	OP_SE_REG   = CodeOp(8)  // SE
	OP_LD_BYTE  = CodeOp(9)  // LD
	OP_ADD_BYTE = CodeOp(10) // ADD
	OP_LD_REG   = CodeOp(11) // LD
	OP_OR       = CodeOp(12) // OR
	OP_AND      = CodeOp(13) // AND
	OP_XOR      = CodeOp(14) // XOR
	OP_ADD_REG  = CodeOp(15) // ADD
	OP_SUB      = CodeOp(16) // SUB
	OP_SHR      = CodeOp(17) // SHR
	OP_SUBN     = CodeOp(18) // SUBN
	OP_SHL      = CodeOp(19) // SHL
	OP_SNE_REG  = CodeOp(20) // SNE
	OP_LD_I     = CodeOp(21) // LD
	OP_JP_V0    = CodeOp(22) // JP
	OP_RND      = CodeOp(23) // RND
	OP_DRW      = CodeOp(24) // DRW
	OP_SKP      = CodeOp(25) // SKP
	OP_SKNP     = CodeOp(26) // SKNP
	OP_LD_VX_DT = CodeOp(27) // LD
	OP_LD_VX_K  = CodeOp(28) // LD
	OP_LD_DT_VX = CodeOp(29) // LD
	OP_LD_ST_VX = CodeOp(30) // LD
	OP_ADD_I_VX = CodeOp(31) // ADD
	OP_LD_F_VX  = CodeOp(32) // LD
	OP_LD_B_VX  = CodeOp(33) // LD
	OP_LD_I_VX  = CodeOp(34) // LD
	OP_LD_VX_I  = CodeOp(35) // LD
)

// decodeTable matches an instruction word against its fixed bits.
// Entries are checked in order; the first match wins.
var decodeTable = [...]struct {
	Mask  Code
	Value Code
	Op    CodeOp
}{
	{0xffff, 0x00e0, OP_CLS},
	{0xffff, 0x00ee, OP_RET},
	{0xf000, 0x0000, OP_SYS},
	{0xf000, 0x1000, OP_JP},
	{0xf000, 0x2000, OP_CALL},
	{0xf000, 0x3000, OP_SE_BYTE},
	{0xf000, 0x4000, OP_SNE_BYTE},
	{0xf00f, 0x5000, OP_SE_REG},
	{0xf000, 0x6000, OP_LD_BYTE},
	{0xf000, 0x7000, OP_ADD_BYTE},
	{0xf00f, 0x8000, OP_LD_REG},
	{0xf00f, 0x8001, OP_OR},
	{0xf00f, 0x8002, OP_AND},
	{0xf00f, 0x8003, OP_XOR},
	{0xf00f, 0x8004, OP_ADD_REG},
	{0xf00f, 0x8005, OP_SUB},
	{0xf00f, 0x8006, OP_SHR},
	{0xf00f, 0x8007, OP_SUBN},
	{0xf00f, 0x800e, OP_SHL},
	{0xf00f, 0x9000, OP_SNE_REG},
	{0xf000, 0xa000, OP_LD_I},
	{0xf000, 0xb000, OP_JP_V0},
	{0xf000, 0xc000, OP_RND},
	{0xf000, 0xd000, OP_DRW},
	{0xf0ff, 0xe09e, OP_SKP},
	{0xf0ff, 0xe0a1, OP_SKNP},
	{0xf0ff, 0xf007, OP_LD_VX_DT},
	{0xf0ff, 0xf00a, OP_LD_VX_K},
	{0xf0ff, 0xf015, OP_LD_DT_VX},
	{0xf0ff, 0xf018, OP_LD_ST_VX},
	{0xf0ff, 0xf01e, OP_ADD_I_VX},
	{0xf0ff, 0xf029, OP_LD_F_VX},
	{0xf0ff, 0xf033, OP_LD_B_VX},
	{0xf0ff, 0xf055, OP_LD_I_VX},
	{0xf0ff, 0xf065, OP_LD_VX_I},
}

// Nibbles splits the word into its four nibbles, most significant first.
func (code Code) Nibbles() (d0, d1, d2, d3 uint8) {
	d0 = uint8(code>>12) & 0xf
	d1 = uint8(code>>8) & 0xf
	d2 = uint8(code>>4) & 0xf
	d3 = uint8(code>>0) & 0xf
	return
}

// X is the first register operand.
func (code Code) X() uint8 {
	return uint8(code>>8) & 0xf
}

// Y is the second register operand.
func (code Code) Y() uint8 {
	return uint8(code>>4) & 0xf
}

// N is the low nibble (sprite height).
func (code Code) N() uint8 {
	return uint8(code) & 0xf
}

// KK is the low byte immediate.
func (code Code) KK() uint8 {
	return uint8(code)
}

// NNN is the 12-bit address immediate.
func (code Code) NNN() uint16 {
	return uint16(code) & 0xfff
}

// Op decodes the instruction form. Words that match no form return OP_UNKNOWN.
func (code Code) Op() CodeOp {
	for _, entry := range decodeTable {
		if code&entry.Mask == entry.Value {
			return entry.Op
		}
	}

	return OP_UNKNOWN
}

// Operands returns the disassembled operand text.
func (code Code) Operands() string {
	x, y, n, kk, nnn := code.X(), code.Y(), code.N(), code.KK(), code.NNN()

	switch code.Op() {
	case OP_CLS, OP_RET:
		return ""
	case OP_SYS, OP_JP, OP_CALL:
		return fmt.Sprintf("#%03X", nnn)
	case OP_SE_BYTE, OP_SNE_BYTE, OP_LD_BYTE, OP_ADD_BYTE, OP_RND:
		return fmt.Sprintf("V%X, #%02X", x, kk)
	case OP_SE_REG, OP_LD_REG, OP_OR, OP_AND, OP_XOR, OP_ADD_REG,
		OP_SUB, OP_SHR, OP_SUBN, OP_SHL, OP_SNE_REG:
		return fmt.Sprintf("V%X, V%X", x, y)
	case OP_LD_I:
		return fmt.Sprintf("I, #%03X", nnn)
	case OP_JP_V0:
		return fmt.Sprintf("V0, #%03X", nnn)
	case OP_DRW:
		return fmt.Sprintf("V%X, V%X, %d", x, y, n)
	case OP_SKP, OP_SKNP:
		return fmt.Sprintf("V%X", x)
	case OP_LD_VX_DT:
		return fmt.Sprintf("V%X, DT", x)
	case OP_LD_VX_K:
		return fmt.Sprintf("V%X, K", x)
	case OP_LD_DT_VX:
		return fmt.Sprintf("DT, V%X", x)
	case OP_LD_ST_VX:
		return fmt.Sprintf("ST, V%X", x)
	case OP_ADD_I_VX:
		return fmt.Sprintf("I, V%X", x)
	case OP_LD_F_VX:
		return fmt.Sprintf("F, V%X", x)
	case OP_LD_B_VX:
		return fmt.Sprintf("B, V%X", x)
	case OP_LD_I_VX:
		return fmt.Sprintf("[I], V%X", x)
	case OP_LD_VX_I:
		return fmt.Sprintf("V%X, [I]", x)
	}

	return fmt.Sprintf("#%04X", uint16(code))
}

// String disassembles the instruction.
func (code Code) String() string {
	op := code.Op()
	args := code.Operands()
	if len(args) == 0 {
		return op.String()
	}

	return op.String() + " " + args
}
