// Package cpu implements the CHIP-8 processor and assembler.
//
// The processor owns 4KB of byte addressable memory, sixteen 8-bit
// registers (V0-VF, with VF doubling as the carry, borrow and collision
// flag), a 12-bit index register (I), a sixteen entry call stack, and
// the delay and sound timers. Each Tick fetches one big-endian 16-bit
// instruction at the program counter, decodes it and executes it.
//
// Fatal conditions (out of bounds memory, stack overflow or underflow,
// and unknown opcodes) halt the processor with an *ErrFault.
//
// The assembler accepts the conventional mnemonic syntax, supporting
// macros, labels, equates, and compile-time expression evaluation.
package cpu
