package cpu

const (
	MEMORY_SIZE   = 0x1000 // Addressable memory, in bytes.
	PROGRAM_START = 0x200  // Load address of program images.
	FONT_BASE     = 0x000  // Load address of the hexadecimal font.
)

// Memory is the flat, byte addressable store of the machine.
type Memory [MEMORY_SIZE]byte

// Read a single byte.
func (mem *Memory) Read(addr int) (value byte, err error) {
	if addr < 0 || addr >= len(mem) {
		err = ErrMemoryBounds
		return
	}

	value = mem[addr]
	return
}

// Write a single byte.
func (mem *Memory) Write(addr int, value byte) (err error) {
	if addr < 0 || addr >= len(mem) {
		err = ErrMemoryBounds
		return
	}

	mem[addr] = value
	return
}

// Slice returns a view of size bytes starting at addr.
// The whole range is bounds checked before anything is returned.
func (mem *Memory) Slice(addr int, size int) (data []byte, err error) {
	if addr < 0 || size < 0 || addr+size > len(mem) {
		err = ErrMemoryBounds
		return
	}

	data = mem[addr : addr+size]
	return
}

// Load copies data into memory at addr.
func (mem *Memory) Load(addr int, data []byte) (err error) {
	dst, err := mem.Slice(addr, len(data))
	if err != nil {
		return
	}

	copy(dst, data)
	return
}

// Reset zeros all of memory.
func (mem *Memory) Reset() {
	clear(mem[:])
}
