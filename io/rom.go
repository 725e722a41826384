package io

import (
	"io"
	"os"
)

// Rom is a raw program image, with no header or metadata.
type Rom struct {
	Name string // Source of the image.
	Data []byte // Image bytes.
}

// Load reads an image of at most limit bytes. The image is replaced
// only when the whole read succeeds.
func (rom *Rom) Load(name string, input io.Reader, limit int) (err error) {
	defer func() {
		if err != nil {
			err = &ErrRom{Name: name, Err: err}
		}
	}()

	// Read one byte past the limit to detect oversized images.
	data, err := io.ReadAll(io.LimitReader(input, int64(limit)+1))
	if err != nil {
		return
	}

	switch {
	case len(data) == 0:
		err = ErrRomEmpty
		return
	case len(data) > limit:
		err = ErrRomTooLarge
		return
	}

	rom.Name = name
	rom.Data = data
	return
}

// LoadFile loads an image from the filesystem.
func (rom *Rom) LoadFile(path string, limit int) (err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	return rom.Load(path, inf, limit)
}

// Reset forgets the image.
func (rom *Rom) Reset() {
	rom.Name = ""
	rom.Data = nil
}
