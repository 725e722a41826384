package cpu

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testProgram() *Program {
	return &Program{
		Opcodes: []Opcode{
			{LineNo: 1, Address: 0x200, Words: []string{"LD", "V0", "#10"}, Data: []byte{0x60, 0x10}},
			{LineNo: 2, Address: 0x202, Words: []string{"db", "1", "2", "3"}, Data: []byte{1, 2, 3}},
			{LineNo: 4, Address: 0x205, Words: []string{"JP", "#200"}, Data: []byte{0x12, 0x00}},
		},
	}
}

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	dbg := prog.Debug(0x200)
	assert.NotNil(dbg.Opcode)
	assert.Equal(1, dbg.LineNo)
	assert.Equal(0, dbg.Index)

	dbg = prog.Debug(0x204)
	assert.NotNil(dbg.Opcode)
	assert.Equal(2, dbg.LineNo)
	assert.Equal(2, dbg.Index)

	dbg = prog.Debug(0x206)
	assert.NotNil(dbg.Opcode)
	assert.Equal(4, dbg.LineNo)
	assert.Equal(1, dbg.Index)
}

func TestProgram_Debug_NotFound(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	dbg := prog.Debug(0x100)
	assert.Nil(dbg.Opcode)
	assert.Equal(0, dbg.Index)

	dbg = prog.Debug(0x207)
	assert.Nil(dbg.Opcode)
}

func TestProgram_Binary(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()
	assert.Equal([]byte{0x60, 0x10, 1, 2, 3, 0x12, 0x00}, prog.Binary())

	empty := &Program{}
	assert.Len(empty.Binary(), 0)
}

func TestProgram_Codes(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	var pcs []uint16
	var codes []Code
	for pc, code := range prog.Codes() {
		pcs = append(pcs, pc)
		codes = append(codes, code)
	}

	assert.Equal([]uint16{0x200, 0x202, 0x205}, pcs)
	assert.Equal([]Code{0x6010, 0x0102, 0x1200}, codes)

	for range prog.Codes() {
		break
	}
}

func TestOpcode_Code(t *testing.T) {
	assert := assert.New(t)

	op := &Opcode{Data: []byte{0xa2, 0x34}}
	assert.Equal(Code(0xa234), op.Code())

	op = &Opcode{Data: []byte{0x12}}
	assert.Equal(Code(0), op.Code())
}

func TestDisassemble(t *testing.T) {
	assert := assert.New(t)

	var text []string
	for pc, code := range Disassemble([]byte{0x00, 0xe0, 0x12, 0x00, 0xff}, PROGRAM_START) {
		text = append(text, fmt.Sprintf("%03X %v", pc, code))
	}

	assert.Equal([]string{"200 CLS", "202 JP #200"}, text)
}
