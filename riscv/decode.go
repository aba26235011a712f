// Package riscv decodes and executes the RV32IM integer, multiply, and
// divide instruction subset, routing every instruction fetch and memory
// reference through a cache.Cache so the cache model sees exactly the
// traffic a real core would generate.
package riscv

// Opcode is the low 7-bit opcode field of an RV32I/RV32M instruction word.
type Opcode uint32

const (
	OpLoad   Opcode = 0x03
	OpOpImm  Opcode = 0x13
	OpAuipc  Opcode = 0x17
	OpStore  Opcode = 0x23
	OpOp     Opcode = 0x33
	OpLui    Opcode = 0x37
	OpBranch Opcode = 0x63
	OpJalr   Opcode = 0x67
	OpJal    Opcode = 0x6F
	OpSystem Opcode = 0x73
)

// Funct3 identifies the ALU operation, branch condition, load/store width,
// or system call variant within an opcode class.
type Funct3 uint32

const (
	F3AddSub Funct3 = 0x0
	F3Sll    Funct3 = 0x1
	F3Slt    Funct3 = 0x2
	F3Sltu   Funct3 = 0x3
	F3Xor    Funct3 = 0x4
	F3SrlSra Funct3 = 0x5
	F3Or     Funct3 = 0x6
	F3And    Funct3 = 0x7

	F3Beq  Funct3 = 0x0
	F3Bne  Funct3 = 0x1
	F3Blt  Funct3 = 0x4
	F3Bge  Funct3 = 0x5
	F3Bltu Funct3 = 0x6
	F3Bgeu Funct3 = 0x7

	F3Lb  Funct3 = 0x0
	F3Lh  Funct3 = 0x1
	F3Lw  Funct3 = 0x2
	F3Lbu Funct3 = 0x4
	F3Lhu Funct3 = 0x5

	F3Sb Funct3 = 0x0
	F3Sh Funct3 = 0x1
	F3Sw Funct3 = 0x2

	// RV32M: Funct7 == 0x01 reuses the same Funct3 field for the M-extension.
	F3Mul    Funct3 = 0x0
	F3Mulh   Funct3 = 0x1
	F3Mulhsu Funct3 = 0x2
	F3Mulhu  Funct3 = 0x3
	F3Div    Funct3 = 0x4
	F3Divu   Funct3 = 0x5
	F3Rem    Funct3 = 0x6
	F3Remu   Funct3 = 0x7
)

// Funct7 distinguishes ADD/SUB and SRL/SRA, and flags the RV32M extension.
type Funct7 uint32

const (
	F7Base Funct7 = 0x00
	F7Alt  Funct7 = 0x20 // SUB, SRA
	F7Mul  Funct7 = 0x01 // MUL/MULH/DIV/REM family
)

// Instruction is a single decoded RV32IM instruction.
type Instruction struct {
	Raw    uint32
	Opcode Opcode
	Funct3 Funct3
	Funct7 Funct7
	Rd     uint32
	Rs1    uint32
	Rs2    uint32
	Imm    int32
}

// Decode splits a raw 32-bit instruction word into its fields. It never
// fails: an unrecognized opcode decodes into an Instruction an Executor
// treats as a no-op, per the opcode-0 backstop documented in SPEC_FULL.md
// §9 (the instruction cap, not an illegal-instruction trap, is what bounds
// a program built entirely of zero words).
func Decode(word uint32) Instruction {
	in := Instruction{
		Raw:    word,
		Opcode: Opcode(word & 0x7F),
		Funct3: Funct3((word >> 12) & 0x7),
		Funct7: Funct7((word >> 25) & 0x7F),
		Rd:     (word >> 7) & 0x1F,
		Rs1:    (word >> 15) & 0x1F,
		Rs2:    (word >> 20) & 0x1F,
	}
	in.Imm = decodeImm(in.Opcode, word)
	return in
}

func decodeImm(op Opcode, word uint32) int32 {
	switch op {
	case OpOpImm, OpLoad, OpJalr:
		return signExtend(word>>20, 12)
	case OpStore:
		lo := (word >> 7) & 0x1F
		hi := (word >> 25) & 0x7F
		return signExtend((hi<<5)|lo, 12)
	case OpBranch:
		b11 := (word >> 7) & 0x1
		b4_1 := (word >> 8) & 0xF
		b10_5 := (word >> 25) & 0x3F
		b12 := (word >> 31) & 0x1
		v := (b12 << 12) | (b11 << 11) | (b10_5 << 5) | (b4_1 << 1)
		return signExtend(v, 13)
	case OpLui, OpAuipc:
		return int32(word & 0xFFFFF000)
	case OpJal:
		b19_12 := (word >> 12) & 0xFF
		b11 := (word >> 20) & 0x1
		b10_1 := (word >> 21) & 0x3FF
		b20 := (word >> 31) & 0x1
		v := (b20 << 20) | (b19_12 << 12) | (b11 << 11) | (b10_1 << 1)
		return signExtend(v, 21)
	default:
		return 0
	}
}

// signExtend treats the low bits bits of v as a two's-complement value and
// sign-extends it to 32 bits.
func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

func (op Opcode) String() string {
	switch op {
	case OpLoad:
		return "LOAD"
	case OpOpImm:
		return "OP-IMM"
	case OpAuipc:
		return "AUIPC"
	case OpStore:
		return "STORE"
	case OpOp:
		return "OP"
	case OpLui:
		return "LUI"
	case OpBranch:
		return "BRANCH"
	case OpJalr:
		return "JALR"
	case OpJal:
		return "JAL"
	case OpSystem:
		return "SYSTEM"
	default:
		return "NOP"
	}
}
