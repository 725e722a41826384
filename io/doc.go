// Package io provides the host side collaborators of the CHIP-8 machine:
// the ROM loader, the shared key pad state, and the random byte source.
package io
