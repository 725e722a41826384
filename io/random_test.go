package io

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandom_Seeded(t *testing.T) {
	assert := assert.New(t)

	a := NewRandom(1234)
	b := NewRandom(1234)

	for range 64 {
		assert.Equal(a.Byte(), b.Byte())
	}
}

func TestRandom_Distribution(t *testing.T) {
	assert := assert.New(t)

	r := NewRandom(0)

	seen := map[uint8]bool{}
	for range 1 << 14 {
		seen[r.Byte()] = true
	}

	assert.Len(seen, 256)
}
