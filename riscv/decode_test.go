package riscv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeAdd(t *testing.T) {
	assert := assert.New(t)

	// add x3, x1, x2
	in := Decode(0x002081B3)
	assert.Equal(OpOp, in.Opcode)
	assert.Equal(F3AddSub, in.Funct3)
	assert.Equal(F7Base, in.Funct7)
	assert.Equal(uint32(3), in.Rd)
	assert.Equal(uint32(1), in.Rs1)
	assert.Equal(uint32(2), in.Rs2)
}

func TestDecodeJalrHalt(t *testing.T) {
	assert := assert.New(t)

	// jalr x0, 0(x1)
	in := Decode(0x00008067)
	assert.Equal(OpJalr, in.Opcode)
	assert.Equal(uint32(0), in.Rd)
	assert.Equal(uint32(1), in.Rs1)
	assert.Equal(int32(0), in.Imm)
}

func TestDecodeIImmSignExtends(t *testing.T) {
	assert := assert.New(t)

	// addi x1, x0, -1  (imm = 0xFFF)
	word := uint32(0xFFF00093)
	in := Decode(word)
	assert.Equal(OpOpImm, in.Opcode)
	assert.Equal(int32(-1), in.Imm)
}

func TestDecodeSImm(t *testing.T) {
	assert := assert.New(t)

	// sw x2, -4(x1): imm = -4
	word := uint32((0x7F << 25) | (2 << 20) | (1 << 15) | (uint32(F3Sw) << 12) | (0x1C << 7) | uint32(OpStore))
	in := Decode(word)
	assert.Equal(OpStore, in.Opcode)
	assert.Equal(int32(-4), in.Imm)
}

func TestDecodeUnknownOpcodeIsZeroImm(t *testing.T) {
	assert := assert.New(t)

	in := Decode(0)
	assert.Equal(Opcode(0), in.Opcode)
	assert.Equal(int32(0), in.Imm)
	assert.Equal("NOP", in.Opcode.String())
}

func TestSignExtend(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(int32(-1), signExtend(0xFF, 8))
	assert.Equal(int32(127), signExtend(0x7F, 8))
	assert.Equal(int32(-1), signExtend(0xFFFFFFFF, 32))
}
