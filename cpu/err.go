package cpu

import (
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrMemoryBounds  = errors.New(f("memory access out of bounds"))
	ErrStackEmpty    = errors.New(f("stack empty"))
	ErrStackFull     = errors.New(f("stack full"))
	ErrOpcodeUnknown = errors.New(f("opcode unknown"))
	ErrHalted        = errors.New(f("halted"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeMissing      = errors.New(f("opcode missing"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrRegisterInvalid    = errors.New(f("register invalid"))
	ErrTargetInvalid      = errors.New(f("target invalid"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
	ErrProgramTooLarge    = errors.New(f("program exceeds memory"))
)

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseCharacter string

func (err ErrParseCharacter) Error() string {
	return f("'%v' is not a character", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrValueRange is returned when an operand does not fit its field.
type ErrValueRange struct {
	Value int
	Limit int
}

func (err ErrValueRange) Error() string {
	return f("value %#x exceeds %#x", err.Value, err.Limit)
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}

// FaultKind classifies the fatal conditions that halt the processor.
type FaultKind int

//go:generate go tool stringer -linecomment -type=FaultKind
const (
	FAULT_MEMORY          = FaultKind(0) // memory fault
	FAULT_STACK_OVERFLOW  = FaultKind(1) // stack overflow
	FAULT_STACK_UNDERFLOW = FaultKind(2) // stack underflow
	FAULT_OPCODE          = FaultKind(3) // unknown opcode
)

// Error allows a FaultKind to be used as an errors.Is() target.
func (kind FaultKind) Error() string {
	return f("%v", kind.String())
}

// ErrFault is the fatal error that halts the processor.
type ErrFault struct {
	Kind FaultKind // Classification of the fault.
	Pc   uint16    // Address of the faulting instruction.
	Code Code      // Raw faulting instruction word.
	Err  error     // Underlying cause.
}

func (err *ErrFault) Error() string {
	hi, lo := err.Bytes()
	return f("%v at %03x [%02x %02x] %v: %v", err.Kind, err.Pc, hi, lo, err.Code, err.Err)
}

func (err *ErrFault) Unwrap() error {
	return err.Err
}

func (err *ErrFault) Is(target error) bool {
	kind, ok := target.(FaultKind)
	return ok && kind == err.Kind
}

// Bytes returns the raw instruction bytes, in memory order.
func (err *ErrFault) Bytes() (hi, lo byte) {
	return byte(err.Code >> 8), byte(err.Code)
}
