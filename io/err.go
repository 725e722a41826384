package io

import (
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	// Rom errors
	ErrRomEmpty    = errors.New(f("rom empty"))
	ErrRomTooLarge = errors.New(f("rom too large"))
)

// ErrRom indicates which ROM failed to load.
type ErrRom struct {
	Name string
	Err  error
}

func (err *ErrRom) Error() string {
	return f("%v: %v", err.Name, err.Err)
}

func (err *ErrRom) Unwrap() error {
	return err.Err
}
