// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package riscv

import "fmt"

// regName renders register i in its ABI-free xN form; the RV32I calling
// convention names are not meaningful for an emulator that runs raw
// binary snapshots rather than compiled programs.
func regName(i uint32) string {
	return fmt.Sprintf("x%d", i&0x1F)
}

// Disassemble renders in as a human-readable mnemonic line. This is
// non-normative debug output, not used by Decode or Executor.
func Disassemble(pc uint32, in Instruction) string {
	r := func(i uint32) string { return regName(i) }

	switch in.Opcode {
	case OpOp:
		return fmt.Sprintf("%s %s, %s, %s", opName(in.Funct3, in.Funct7), r(in.Rd), r(in.Rs1), r(in.Rs2))
	case OpOpImm:
		return fmt.Sprintf("%s %s, %s, %d", opImmName(in.Funct3, in.Funct7), r(in.Rd), r(in.Rs1), in.Imm)
	case OpLoad:
		return fmt.Sprintf("%s %s, %d(%s)", loadName(in.Funct3), r(in.Rd), in.Imm, r(in.Rs1))
	case OpStore:
		return fmt.Sprintf("%s %s, %d(%s)", storeName(in.Funct3), r(in.Rs2), in.Imm, r(in.Rs1))
	case OpBranch:
		return fmt.Sprintf("%s %s, %s, 0x%x", branchName(in.Funct3), r(in.Rs1), r(in.Rs2), pc+uint32(in.Imm))
	case OpJal:
		return fmt.Sprintf("jal %s, 0x%x", r(in.Rd), pc+uint32(in.Imm))
	case OpJalr:
		return fmt.Sprintf("jalr %s, %d(%s)", r(in.Rd), in.Imm, r(in.Rs1))
	case OpLui:
		return fmt.Sprintf("lui %s, 0x%x", r(in.Rd), uint32(in.Imm)>>12)
	case OpAuipc:
		return fmt.Sprintf("auipc %s, 0x%x", r(in.Rd), uint32(in.Imm)>>12)
	case OpSystem:
		return "ecall/ebreak"
	default:
		return fmt.Sprintf("nop (raw 0x%08x)", in.Raw)
	}
}

func opName(f3 Funct3, f7 Funct7) string {
	if f7 == F7Mul {
		switch f3 {
		case F3Mul:
			return "mul"
		case F3Mulh:
			return "mulh"
		case F3Mulhsu:
			return "mulhsu"
		case F3Mulhu:
			return "mulhu"
		case F3Div:
			return "div"
		case F3Divu:
			return "divu"
		case F3Rem:
			return "rem"
		case F3Remu:
			return "remu"
		}
	}
	switch f3 {
	case F3AddSub:
		if f7 == F7Alt {
			return "sub"
		}
		return "add"
	case F3Sll:
		return "sll"
	case F3Slt:
		return "slt"
	case F3Sltu:
		return "sltu"
	case F3Xor:
		return "xor"
	case F3SrlSra:
		if f7 == F7Alt {
			return "sra"
		}
		return "srl"
	case F3Or:
		return "or"
	case F3And:
		return "and"
	}
	return "?"
}

func opImmName(f3 Funct3, f7 Funct7) string {
	switch f3 {
	case F3AddSub:
		return "addi"
	case F3Sll:
		return "slli"
	case F3Slt:
		return "slti"
	case F3Sltu:
		return "sltiu"
	case F3Xor:
		return "xori"
	case F3SrlSra:
		if f7 == F7Alt {
			return "srai"
		}
		return "srli"
	case F3Or:
		return "ori"
	case F3And:
		return "andi"
	}
	return "?"
}

func loadName(f3 Funct3) string {
	switch f3 {
	case F3Lb:
		return "lb"
	case F3Lh:
		return "lh"
	case F3Lw:
		return "lw"
	case F3Lbu:
		return "lbu"
	case F3Lhu:
		return "lhu"
	}
	return "?"
}

func storeName(f3 Funct3) string {
	switch f3 {
	case F3Sb:
		return "sb"
	case F3Sh:
		return "sh"
	case F3Sw:
		return "sw"
	}
	return "?"
}

func branchName(f3 Funct3) string {
	switch f3 {
	case F3Beq:
		return "beq"
	case F3Bne:
		return "bne"
	case F3Blt:
		return "blt"
	case F3Bge:
		return "bge"
	case F3Bltu:
		return "bltu"
	case F3Bgeu:
		return "bgeu"
	}
	return "?"
}
