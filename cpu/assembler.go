// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":          "0",
	"MEMORY_SIZE":     fmt.Sprintf("%#x", MEMORY_SIZE),
	"PROGRAM_START":   fmt.Sprintf("%#x", PROGRAM_START),
	"FONT_BASE":       fmt.Sprintf("%#x", FONT_BASE),
	"FONT_GLYPH_SIZE": fmt.Sprintf("%v", FONT_GLYPH_SIZE),
}

var (
	reCharacter  = regexp.MustCompile(`'\\?[^']'`)
	reExpression = regexp.MustCompile(`\$\([^\$]*\)`)
	reIdentifier = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)
)

// Assembler is a single pass macro assembler for CHIP-8 mnemonics.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	expansions int // Macro expansions, used to make '@' labels unique.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int, err error) {
	if len(word) == 0 {
		err = ErrParseNumber(word)
		return
	}
	if word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(strings.Trim(word, "'"))
		return
	}
	text := word
	if text[0] == '#' {
		text = "0x" + text[1:]
	}
	v64, err := strconv.ParseInt(text, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	value = int(v64)
	return
}

// valueIn parses a word, and checks it against [-limit/2, limit).
// Negative values are stored in two's complement.
func (asm *Assembler) valueIn(word string, limit int) (value int, err error) {
	value, err = asm.valueOf(word)
	if err != nil {
		return
	}

	if value >= limit || value < -(limit/2) {
		err = ErrValueRange{Value: value, Limit: limit - 1}
		return
	}

	value &= limit - 1
	return
}

// register parses a Vx register name.
func register(word string) (x uint16, err error) {
	if len(word) != 2 || (word[0] != 'V' && word[0] != 'v') {
		err = ErrRegisterInvalid
		return
	}
	v, perr := strconv.ParseUint(word[1:], 16, 4)
	if perr != nil {
		err = ErrRegisterInvalid
		return
	}
	x = uint16(v)
	return
}

// isRegister reports if the word names a Vx register.
func isRegister(word string) bool {
	_, err := register(word)
	return err == nil
}

// address parses a 12-bit address. Identifiers that are not yet
// known are returned as a label to link after the final pass.
func (asm *Assembler) address(word string) (nnn uint16, label string, err error) {
	value, err := asm.valueIn(word, MEMORY_SIZE)
	if err == nil {
		nnn = uint16(value)
		return
	}

	if addr, ok := asm.Label[word]; ok {
		nnn = uint16(addr)
		err = nil
		return
	}

	if reIdentifier.MatchString(word) {
		label = word
		err = nil
	}
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v int
		v, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(v)
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(addr)
	}
	err = nil
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = int(st_int64)
	return
}

// splitWords splits a line on spaces, tabs and commas.
func splitWords(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
}

// parseLine parses a single line into words.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reExpression.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	words = splitWords(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if strings.EqualFold(words[0], ".equ") {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		asm.Label[label] = asm.currentAddress()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = args[n]
		}
		defer func() { asm.Equate = old_equate }()

		asm.expansions++
		unique := fmt.Sprintf("%v_%v_", name, asm.expansions)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", unique)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentAddress gets the address of the next assembled byte.
func (asm *Assembler) currentAddress() int {
	if len(asm.Opcode) == 0 {
		return PROGRAM_START
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Address + len(last.Data)
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Label = make(map[string]int, 16)
	asm.Opcode = asm.Opcode[:0]
	asm.expansions = 0
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := splitWords(line)

		// .macro NAME arg...
		if len(words) > 0 && strings.EqualFold(words[0], ".macro") {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && strings.EqualFold(words[0], ".endm") {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	if asm.currentAddress() > MEMORY_SIZE {
		err = ErrProgramTooLarge
		return
	}

	// Final linking of address labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		label := op.LinkLabel
		addr, ok := asm.Label[label]
		if !ok {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = ErrLabelMissing(label)
			return
		}
		if addr >= MEMORY_SIZE {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = ErrValueRange{Value: addr, Limit: MEMORY_SIZE - 1}
			return
		}
		op.Data[0] |= byte(addr>>8) & 0xf
		op.Data[1] = byte(addr)
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// argCount checks the number of operands.
func argCount(args []string, want int) (err error) {
	switch {
	case len(args) < want:
		err = ErrOpcodeValueMissing
	case len(args) > want:
		err = ErrOpcodeExtraArgs
	}
	return
}

// regPair parses a 'Vx, Vy' operand pair into an instruction word.
func regPair(base uint16, args []string) (word uint16, err error) {
	err = argCount(args, 2)
	if err != nil {
		return
	}
	x, err := register(args[0])
	if err != nil {
		return
	}
	y, err := register(args[1])
	if err != nil {
		return
	}
	word = base | x<<8 | y<<4
	return
}

// regByte parses a 'Vx, kk' operand pair into an instruction word.
func (asm *Assembler) regByte(base uint16, args []string) (word uint16, err error) {
	err = argCount(args, 2)
	if err != nil {
		return
	}
	x, err := register(args[0])
	if err != nil {
		return
	}
	kk, err := asm.valueIn(args[1], 0x100)
	if err != nil {
		return
	}
	word = base | x<<8 | uint16(kk)
	return
}

// regOnly parses a single 'Vx' operand into an instruction word.
func regOnly(base uint16, args []string) (word uint16, err error) {
	err = argCount(args, 1)
	if err != nil {
		return
	}
	x, err := register(args[0])
	if err != nil {
		return
	}
	word = base | x<<8
	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var data []byte
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if err != nil || len(data) == 0 {
			return
		}
		opcode := Opcode{LineNo: lineno, Address: asm.currentAddress(), Words: initial_words, Data: data, LinkLabel: label}
		asm.Opcode = append(asm.Opcode, opcode)
	}()

	mnemonic := strings.ToUpper(words[0])
	args := words[1:]

	upper := make([]string, len(args))
	for n, arg := range args {
		upper[n] = strings.ToUpper(arg)
	}

	var word uint16

	switch mnemonic {
	case "DB":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, arg := range args {
			var value int
			value, err = asm.valueIn(arg, 0x100)
			if err != nil {
				return
			}
			data = append(data, byte(value))
		}
		return
	case "DW":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, arg := range args {
			var value int
			value, err = asm.valueIn(arg, 0x10000)
			if err != nil {
				return
			}
			data = append(data, byte(value>>8), byte(value))
		}
		return
	case "CLS", "RET":
		err = argCount(args, 0)
		if err != nil {
			return
		}
		word = 0x00e0
		if mnemonic == "RET" {
			word = 0x00ee
		}
	case "SYS", "JP", "CALL":
		base := map[string]uint16{"SYS": 0x0000, "JP": 0x1000, "CALL": 0x2000}[mnemonic]
		if mnemonic == "JP" && len(args) == 2 {
			if upper[0] != "V0" {
				err = ErrRegisterInvalid
				return
			}
			base = 0xb000
			args = args[1:]
		}
		err = argCount(args, 1)
		if err != nil {
			return
		}
		var nnn uint16
		nnn, label, err = asm.address(args[0])
		if err != nil {
			return
		}
		word = base | nnn
	case "SE", "SNE":
		err = argCount(args, 2)
		if err != nil {
			return
		}
		if isRegister(args[1]) {
			word, err = regPair(map[string]uint16{"SE": 0x5000, "SNE": 0x9000}[mnemonic], args)
		} else {
			word, err = asm.regByte(map[string]uint16{"SE": 0x3000, "SNE": 0x4000}[mnemonic], args)
		}
	case "OR", "AND", "XOR", "SUB", "SUBN":
		alu := map[string]uint16{"OR": 1, "AND": 2, "XOR": 3, "SUB": 5, "SUBN": 7}[mnemonic]
		word, err = regPair(0x8000|alu, args)
	case "SHR", "SHL":
		alu := map[string]uint16{"SHR": 0x6, "SHL": 0xe}[mnemonic]
		if len(args) == 1 {
			args = []string{args[0], args[0]}
		}
		word, err = regPair(0x8000|alu, args)
	case "RND":
		word, err = asm.regByte(0xc000, args)
	case "SKP":
		word, err = regOnly(0xe09e, args)
	case "SKNP":
		word, err = regOnly(0xe0a1, args)
	case "DRW":
		err = argCount(args, 3)
		if err != nil {
			return
		}
		word, err = regPair(0xd000, args[:2])
		if err != nil {
			return
		}
		var n int
		n, err = asm.valueIn(args[2], 0x10)
		if err != nil {
			return
		}
		word |= uint16(n)
	case "ADD":
		err = argCount(args, 2)
		if err != nil {
			return
		}
		switch {
		case upper[0] == "I":
			word, err = regOnly(0xf01e, args[1:])
		case isRegister(args[1]):
			word, err = regPair(0x8004, args)
		default:
			word, err = asm.regByte(0x7000, args)
		}
	case "LD":
		err = argCount(args, 2)
		if err != nil {
			return
		}
		switch {
		case upper[0] == "I":
			var nnn uint16
			nnn, label, err = asm.address(args[1])
			word = 0xa000 | nnn
		case upper[0] == "DT":
			word, err = regOnly(0xf015, args[1:])
		case upper[0] == "ST":
			word, err = regOnly(0xf018, args[1:])
		case upper[0] == "F":
			word, err = regOnly(0xf029, args[1:])
		case upper[0] == "B":
			word, err = regOnly(0xf033, args[1:])
		case upper[0] == "[I]":
			word, err = regOnly(0xf055, args[1:])
		case !isRegister(args[0]):
			err = ErrTargetInvalid
		case upper[1] == "DT":
			word, err = regOnly(0xf007, args[:1])
		case upper[1] == "K":
			word, err = regOnly(0xf00a, args[:1])
		case upper[1] == "[I]":
			word, err = regOnly(0xf065, args[:1])
		case isRegister(args[1]):
			word, err = regPair(0x8000, args)
		default:
			word, err = asm.regByte(0x6000, args)
		}
	default:
		err = ErrInstructionInvalid
	}

	if err != nil {
		return
	}

	data = []byte{byte(word >> 8), byte(word)}

	return
}
