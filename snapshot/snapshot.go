// Package snapshot reads and writes the binary register/memory image that
// bounds the emulator at its boundary: a little-endian PC and 31 general
// registers, followed by zero or more memory fragments.
package snapshot

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ezrec/rvcache/memory"
	"github.com/ezrec/rvcache/rverrors"
)

// State is the register and memory image loaded from an input snapshot.
type State struct {
	PC   uint32
	Regs [32]uint32 // Regs[0] is unused; Regs[1] is initial_ra at load time.

	Memory *memory.Memory
}

// Load reads a snapshot from r: PC, then registers x1..x31 in order, then
// memory fragments of addr:u32, size:u32, bytes[size] read until EOF.
// Later fragments overwrite earlier ones at overlapping addresses.
func Load(r io.Reader) (*State, error) {
	s := &State{Memory: memory.New()}

	if err := binary.Read(r, binary.LittleEndian, &s.PC); err != nil {
		return nil, wrapInputIO(err)
	}

	for i := 1; i <= 31; i++ {
		if err := binary.Read(r, binary.LittleEndian, &s.Regs[i]); err != nil {
			return nil, wrapInputIO(err)
		}
	}

	for {
		var addr, size uint32
		if err := binary.Read(r, binary.LittleEndian, &addr); err != nil {
			if err == io.EOF {
				break
			}
			return nil, wrapInputIO(err)
		}
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, wrapInputIO(err)
		}

		buf := make([]byte, size)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, wrapInputIO(err)
		}
		for i, b := range buf {
			if err := s.Memory.WriteByte(addr+uint32(i), b); err != nil {
				return nil, err
			}
		}
	}

	return s, nil
}

// Save writes pc, registers x1..x31, and exactly one memory fragment
// covering [start, start+size) read from mem, to w.
func Save(w io.Writer, pc uint32, regs [32]uint32, mem *memory.Memory, start, size uint32) error {
	if err := binary.Write(w, binary.LittleEndian, pc); err != nil {
		return wrapOutputIO(err)
	}
	for i := 1; i <= 31; i++ {
		if err := binary.Write(w, binary.LittleEndian, regs[i]); err != nil {
			return wrapOutputIO(err)
		}
	}
	if err := binary.Write(w, binary.LittleEndian, start); err != nil {
		return wrapOutputIO(err)
	}
	if err := binary.Write(w, binary.LittleEndian, size); err != nil {
		return wrapOutputIO(err)
	}

	buf := make([]byte, size)
	for i := uint32(0); i < size; i++ {
		b, err := mem.ReadByte(start + i)
		if err != nil {
			return err
		}
		buf[i] = b
	}
	if _, err := w.Write(buf); err != nil {
		return wrapOutputIO(err)
	}
	return nil
}

func wrapInputIO(err error) error {
	return fmt.Errorf("%w: %v", rverrors.ErrInputIO, err)
}

func wrapOutputIO(err error) error {
	return fmt.Errorf("%w: %v", rverrors.ErrOutputIO, err)
}
