// Package rverrors defines the typed error taxonomy shared by the memory,
// cache, riscv, snapshot, emulator, and rvsim packages.
package rverrors

import (
	"errors"

	"github.com/ezrec/rvcache/translate"
)

var f = translate.From

var (
	// ErrInputIO indicates the input snapshot could not be opened or was
	// truncated mid-field.
	ErrInputIO = errors.New(f("input snapshot io"))
	// ErrOutputIO indicates the output snapshot could not be written.
	ErrOutputIO = errors.New(f("output snapshot io"))
)

// OutOfRange indicates a memory access beyond the 17-bit address space.
type OutOfRange struct {
	Address uint32
}

func (e *OutOfRange) Error() string {
	return f("address 0x%05x out of range", e.Address)
}

// InvalidAccess indicates a cache access with an unsupported size, or one
// that straddles a cache line. This is always a programming error in the
// executor, never a user error.
type InvalidAccess struct {
	Address uint32
	Size    int
	Reason  string
}

func (e *InvalidAccess) Error() string {
	return f("invalid access addr=0x%05x size=%d: %v", e.Address, e.Size, e.Reason)
}

// Runaway indicates the instruction cap was reached before the program
// halted normally. The caller should flush the cache and still produce a
// report; Runaway is not a fatal error.
type Runaway struct {
	PC    uint32
	Count uint64
}

func (e *Runaway) Error() string {
	return f("runaway program: pc=0x%05x after %d instructions", e.PC, e.Count)
}

// Runtime wraps any execution error with the program counter at which it
// occurred, so diagnostics can report address, pc, and kind together.
type Runtime struct {
	PC  uint32
	Err error
}

func (e *Runtime) Error() string {
	return f("pc 0x%05x: %v", e.PC, e.Err)
}

func (e *Runtime) Unwrap() error {
	return e.Err
}
