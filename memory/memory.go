// Package memory implements the emulator's byte-addressable backing store:
// a sparse, range-checked 128 KiB address space. Reads of never-written
// addresses return zero; any touched byte outside the space fails with
// rverrors.OutOfRange. During a run only the cache package talks to Memory
// directly — the executor routes every reference through the cache.
package memory

import (
	"github.com/ezrec/rvcache/rverrors"
)

const (
	// AddressBits is the width of the physical address space.
	AddressBits = 17
	// AddressSpace is the number of addressable bytes (128 KiB).
	AddressSpace = 1 << AddressBits
)

// Memory is a sparse byte store over the 17-bit physical address space.
type Memory struct {
	bytes map[uint32]byte
}

// New creates an empty Memory.
func New() *Memory {
	return &Memory{bytes: make(map[uint32]byte)}
}

// Clone returns an independent copy of m. The driver uses this to give
// each policy run its own Memory over an identical starting image.
func (m *Memory) Clone() *Memory {
	c := &Memory{bytes: make(map[uint32]byte, len(m.bytes))}
	for addr, b := range m.bytes {
		c.bytes[addr] = b
	}
	return c
}

// ReadByte reads a single byte. Unwritten addresses read as zero.
func (m *Memory) ReadByte(addr uint32) (byte, error) {
	if addr >= AddressSpace {
		return 0, &rverrors.OutOfRange{Address: addr}
	}
	return m.bytes[addr], nil
}

// WriteByte writes a single byte.
func (m *Memory) WriteByte(addr uint32, value byte) error {
	if addr >= AddressSpace {
		return &rverrors.OutOfRange{Address: addr}
	}
	if value == 0 {
		delete(m.bytes, addr)
	} else {
		m.bytes[addr] = value
	}
	return nil
}

// ReadU16 reads a little-endian 16-bit word as the byte sequence a, a+1.
func (m *Memory) ReadU16(addr uint32) (uint16, error) {
	lo, err := m.ReadByte(addr)
	if err != nil {
		return 0, err
	}
	hi, err := m.ReadByte(addr + 1)
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

// ReadU32 reads a little-endian 32-bit word as the byte sequence a..a+3.
func (m *Memory) ReadU32(addr uint32) (uint32, error) {
	var value uint32
	for i := uint32(0); i < 4; i++ {
		b, err := m.ReadByte(addr + i)
		if err != nil {
			return 0, err
		}
		value |= uint32(b) << (8 * i)
	}
	return value, nil
}

// WriteU16 writes a little-endian 16-bit word as the byte sequence a, a+1.
func (m *Memory) WriteU16(addr uint32, value uint16) error {
	if err := m.WriteByte(addr, byte(value)); err != nil {
		return err
	}
	return m.WriteByte(addr+1, byte(value>>8))
}

// WriteU32 writes a little-endian 32-bit word as the byte sequence a..a+3.
func (m *Memory) WriteU32(addr uint32, value uint32) error {
	for i := uint32(0); i < 4; i++ {
		if err := m.WriteByte(addr+i, byte(value>>(8*i))); err != nil {
			return err
		}
	}
	return nil
}
