package cpu

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func assemble(t *testing.T, program []string) (prog *Program, err error) {
	asm := &Assembler{}
	prog, err = asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	return
}

func binaryOf(words ...uint16) (data []byte) {
	for _, word := range words {
		data = append(data, byte(word>>8), byte(word))
	}
	return
}

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Opcodes))

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal(fmt.Sprintf("%#x", PROGRAM_START), asm.Equate["PROGRAM_START"])
	assert.Equal(fmt.Sprintf("%#x", MEMORY_SIZE), asm.Equate["MEMORY_SIZE"])
	assert.Equal(fmt.Sprintf("%#x", FONT_BASE), asm.Equate["FONT_BASE"])
	assert.Equal(fmt.Sprintf("%v", FONT_GLYPH_SIZE), asm.Equate["FONT_GLYPH_SIZE"])
}

func TestAssembler_RoundTrip(t *testing.T) {
	assert := assert.New(t)

	const chunk = 0x400
	for base := 0; base < 0x10000; base += chunk {
		var program []string
		var expected []byte
		for word := base; word < base+chunk; word++ {
			program = append(program, Code(word).String())
			expected = append(expected, byte(word>>8), byte(word))
		}

		prog, err := assemble(t, program)
		if !assert.NoError(err, "chunk %04x", base) {
			continue
		}
		assert.Equal(expected, prog.Binary(), "chunk %04x", base)
	}
}

func TestAssembler_Syntax(t *testing.T) {
	table := [](struct {
		line string
		word uint16
	}){
		{"cls", 0x00e0},
		{"  ld v1,2", 0x6102},
		{"LD\tV1 , 0x2a", 0x612a},
		{"ld va, -1", 0x6aff},
		{"add v3 1", 0x7301},
		{"shr v4", 0x8446},
		{"shl V5", 0x855e},
		{"jp v0 0x300", 0xb300},
		{"ld i 0x123", 0xa123},
		{"ld [i] v2", 0xf255},
		{"ld v2 [i]", 0xf265},
		{"ld v1 'A'", 0x6141},
		{"ld v1 $(2 * 3 + 1)", 0x6107},
		{"ld i $(FONT_BASE + 5 * FONT_GLYPH_SIZE)", 0xa019},
		{"drw v0 v1 0xf", 0xd01f},
		{"sys 0", 0x0000},
		{"dw 0xabcd", 0xabcd},
		{"rnd v9, 0b1010", 0xc90a},
		{"ld v3, LINENO", 0x6301},
	}

	for _, entry := range table {
		assert := assert.New(t)

		prog, err := assemble(t, []string{entry.line})
		if !assert.NoError(err, entry.line) {
			continue
		}
		assert.Equal(binaryOf(entry.word), prog.Binary(), entry.line)
	}
}

func TestAssembler_Labels(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"start:",
		"  ld v0, 5",
		"loop: add v0, -1 ; count down",
		"  se v0, 0",
		"  jp loop",
		"  call sub",
		"  jp start",
		"sub: ret",
		"sprite: db 0xf0 0x90 0xf0",
		"  ld i, sprite",
	}

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(0x200, asm.Label["start"])
	assert.Equal(0x202, asm.Label["loop"])
	assert.Equal(0x20c, asm.Label["sub"])
	assert.Equal(0x20e, asm.Label["sprite"])

	expected := binaryOf(0x6005, 0x70ff, 0x3000, 0x1202, 0x220c, 0x1200, 0x00ee)
	expected = append(expected, 0xf0, 0x90, 0xf0)
	expected = append(expected, binaryOf(0xa20e)...)
	assert.Equal(expected, prog.Binary())

	dbg := prog.Debug(0x20a)
	if assert.NotNil(dbg.Opcode) {
		assert.Equal(7, dbg.LineNo)
		assert.Equal([]string{"jp", "start"}, dbg.Words)
	}
}

func TestAssembler_Equate(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		".equ SCORE V5",
		".equ TOP 0x300",
		"ld SCORE, LIVES",
		"ld i, $(TOP + 2)",
		"jp TOP",
	}

	asm := &Assembler{}
	asm.Predefine("LIVES", "3")
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(binaryOf(0x6503, 0xa302, 0x1300), prog.Binary())
	assert.Equal("V5", asm.Equate["SCORE"])
	assert.Equal("3", asm.Equate["LIVES"])
}

func TestAssembler_Macro(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		".macro wait reg",
		"@loop: ld reg, DT",
		"  se reg, 0",
		"  jp @loop",
		".endm",
		"  wait v1",
		"  wait v2",
	}

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(0x200, asm.Label["wait_1_loop"])
	assert.Equal(0x206, asm.Label["wait_2_loop"])
	assert.Len(prog.Opcodes, 6)
	assert.Equal(binaryOf(
		0xf107, 0x3100, 0x1200,
		0xf207, 0x3200, 0x1206,
	), prog.Binary())

	// Arguments do not leak out of the macro.
	_, ok := asm.Equate["reg"]
	assert.False(ok)
}

func TestAssembler_Macro_UniqueLabels(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		".macro spin",
		"@here: jp @here",
		".endm",
		"  spin",
		"  spin",
	}

	prog, err := assemble(t, program)
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(binaryOf(0x1200, 0x1202), prog.Binary())
}

func TestAssembler_Macro_Error(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		".macro bad",
		"  ld v1, 0x100",
		".endm",
		"  cls",
		"  bad",
	}

	_, err := assemble(t, program)

	var macro *ErrMacro
	if assert.True(errors.As(err, &macro)) {
		assert.Equal("bad", macro.Macro)
		assert.Equal(2, macro.Line)
	}
	var rng ErrValueRange
	assert.True(errors.As(err, &rng))
}

func TestAssembler_Errors(t *testing.T) {
	table := [](struct {
		name    string
		program []string
		err     error
	}){
		{"unknown", []string{"mov v1, v2"}, ErrInstructionInvalid},
		{"register", []string{"add vg, 1"}, ErrRegisterInvalid},
		{"extra", []string{"cls v1"}, ErrOpcodeExtraArgs},
		{"missing", []string{"drw v1, v2"}, ErrOpcodeValueMissing},
		{"target", []string{"ld 5, v1"}, ErrTargetInvalid},
		{"jp_v1", []string{"jp v1, 0x200"}, ErrRegisterInvalid},
		{"label_dup", []string{"a: cls", "a: cls"}, ErrLabelDuplicate},
		{"equ_syntax", []string{".equ A"}, ErrEquateSyntax},
		{"equ_dup", []string{".equ A 1", ".equ A 2"}, ErrEquateDuplicate},
		{"macro_nest", []string{".macro a", ".macro b"}, ErrMacroNesting},
		{"macro_dup", []string{".macro a", ".endm", ".macro a"}, ErrMacroDuplicate},
		{"macro_lonely", []string{".macro a"}, ErrMacroLonely},
		{"endm_lonely", []string{".endm"}, ErrMacroLonelyEndm},
		{"macro_args", []string{".macro a x", ".endm", "a"}, ErrMacroSyntax},
	}

	for _, entry := range table {
		assert := assert.New(t)

		_, err := assemble(t, entry.program)
		assert.True(errors.Is(err, entry.err), "%v: %v", entry.name, err)

		var syntax *ErrSyntax
		assert.True(errors.As(err, &syntax), entry.name)
	}
}

func TestAssembler_Errors_Values(t *testing.T) {
	assert := assert.New(t)

	_, err := assemble(t, []string{"cls", "jp nowhere"})
	var missing ErrLabelMissing
	if assert.True(errors.As(err, &missing)) {
		assert.Equal(ErrLabelMissing("nowhere"), missing)
	}
	var syntax *ErrSyntax
	if assert.True(errors.As(err, &syntax)) {
		assert.Equal(2, syntax.LineNo)
	}

	_, err = assemble(t, []string{"ld v1, 256"})
	var rng ErrValueRange
	if assert.True(errors.As(err, &rng)) {
		assert.Equal(256, rng.Value)
	}

	_, err = assemble(t, []string{"drw v1, v2, 16"})
	assert.True(errors.As(err, &rng))

	_, err = assemble(t, []string{"jp 0x1000"})
	var number ErrParseNumber
	assert.True(errors.As(err, &rng) || errors.As(err, &number))

	_, err = assemble(t, []string{"ld v1, 12x"})
	assert.True(errors.As(err, &number))

	_, err = assemble(t, []string{"ld v1, $(1 +)"})
	assert.Error(err)
}

func TestAssembler_ProgramTooLarge(t *testing.T) {
	assert := assert.New(t)

	line := "db 0 0 0 0 0 0 0 0"
	program := make([]string, (MEMORY_SIZE-PROGRAM_START)/8+1)
	for n := range program {
		program[n] = line
	}

	_, err := assemble(t, program)
	assert.True(errors.Is(err, ErrProgramTooLarge))

	_, err = assemble(t, program[1:])
	assert.NoError(err)
}
