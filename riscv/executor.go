package riscv

import (
	"github.com/ezrec/rvcache/cache"
	"github.com/ezrec/rvcache/memory"
	"github.com/ezrec/rvcache/rverrors"
)

// InstructionCap bounds a run that never reaches initial_ra or ECALL/EBREAK.
const InstructionCap = 1_000_000

// State reflects where an Executor sits in its three-state run loop.
type State int

const (
	Running State = iota
	HaltedNormal
	HaltedRunaway
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case HaltedNormal:
		return "halted-normal"
	case HaltedRunaway:
		return "halted-runaway"
	default:
		return "unknown"
	}
}

// Executor holds the register file, program counter, and the Cache every
// instruction and data reference is routed through. One
// Executor corresponds to one emulated run under one cache policy.
type Executor struct {
	Regs [32]uint32
	PC   uint32

	Cache *cache.Cache

	// InitialRA is the snapshot's initial value of x1, captured once at
	// load time; PC reaching it is the program's normal halt condition.
	InitialRA uint32

	state     State
	icount    uint64
	lastInstr Instruction
}

// NewExecutor binds a cache to a fresh, zeroed register file.
func NewExecutor(c *cache.Cache) *Executor {
	return &Executor{Cache: c}
}

// State reports the executor's current run state.
func (e *Executor) State() State { return e.state }

// InstructionCount is the number of instructions retired so far.
func (e *Executor) InstructionCount() uint64 { return e.icount }

// Run steps the executor until it halts, then flushes the cache. It
// returns a *rverrors.Runaway (non-fatal — the caller should still report
// statistics) if the instruction cap was reached, or any other error the
// cache or memory raised, which is fatal.
func (e *Executor) Run() error {
	for e.state == Running {
		if err := e.Step(); err != nil {
			return &rverrors.Runtime{PC: e.PC, Err: err}
		}
	}

	if err := e.Cache.Flush(); err != nil {
		return &rverrors.Runtime{PC: e.PC, Err: err}
	}

	if e.state == HaltedRunaway {
		return &rverrors.Runaway{PC: e.PC, Count: e.icount}
	}
	return nil
}

// Step fetches, decodes, and executes exactly one instruction, advancing
// state to HaltedNormal or HaltedRunaway as appropriate. It is exported so
// debug tracing can single-step and inspect state between instructions.
func (e *Executor) Step() error {
	if e.state != Running {
		return nil
	}

	// The fetch address wraps within the 17-bit space, so a PC that runs
	// past the top of memory keeps fetching until the instruction cap.
	word, err := e.Cache.Access(e.PC&(memory.AddressSpace-1), false, 0, 4, true)
	if err != nil {
		return err
	}

	in := Decode(word)
	e.lastInstr = in

	if err := e.execute(in); err != nil {
		return err
	}
	e.Regs[0] = 0

	e.icount++
	if e.state == Running {
		if e.PC == e.InitialRA {
			e.state = HaltedNormal
		} else if e.icount >= InstructionCap {
			e.state = HaltedRunaway
		}
	}
	return nil
}

// LastInstruction returns the most recently decoded instruction, for
// debug tracing.
func (e *Executor) LastInstruction() Instruction { return e.lastInstr }

func (e *Executor) reg(i uint32) uint32 { return e.Regs[i&0x1F] }

func (e *Executor) setReg(i uint32, v uint32) {
	if i != 0 {
		e.Regs[i&0x1F] = v
	}
}

func (e *Executor) execute(in Instruction) error {
	pc := e.PC
	nextPC := pc + 4

	switch in.Opcode {
	case OpOp:
		e.setReg(in.Rd, aluOp(in.Funct3, in.Funct7, e.reg(in.Rs1), e.reg(in.Rs2)))

	case OpOpImm:
		e.setReg(in.Rd, aluOpImm(in.Funct3, in.Funct7, e.reg(in.Rs1), in.Imm))

	case OpLoad:
		addr := e.reg(in.Rs1) + uint32(in.Imm)
		v, err := e.load(addr, in.Funct3)
		if err != nil {
			return err
		}
		e.setReg(in.Rd, v)

	case OpStore:
		addr := e.reg(in.Rs1) + uint32(in.Imm)
		if err := e.store(addr, in.Funct3, e.reg(in.Rs2)); err != nil {
			return err
		}

	case OpBranch:
		if branchTaken(in.Funct3, e.reg(in.Rs1), e.reg(in.Rs2)) {
			nextPC = pc + uint32(in.Imm)
		}

	case OpJal:
		e.setReg(in.Rd, pc+4)
		nextPC = pc + uint32(in.Imm)

	case OpJalr:
		e.setReg(in.Rd, pc+4)
		nextPC = (e.reg(in.Rs1) + uint32(in.Imm)) &^ 1

	case OpLui:
		e.setReg(in.Rd, uint32(in.Imm))

	case OpAuipc:
		e.setReg(in.Rd, pc+uint32(in.Imm))

	case OpSystem:
		e.state = HaltedNormal
		return nil

	default:
		// Unknown opcode, including the all-zero word: treat as NOP.
	}

	e.PC = nextPC
	return nil
}

func (e *Executor) load(addr uint32, f3 Funct3) (uint32, error) {
	switch f3 {
	case F3Lb:
		v, err := e.Cache.Access(addr, false, 0, 1, false)
		return uint32(signExtend(v, 8)), err
	case F3Lh:
		v, err := e.Cache.Access(addr, false, 0, 2, false)
		return uint32(signExtend(v, 16)), err
	case F3Lw:
		return e.Cache.Access(addr, false, 0, 4, false)
	case F3Lbu:
		return e.Cache.Access(addr, false, 0, 1, false)
	case F3Lhu:
		return e.Cache.Access(addr, false, 0, 2, false)
	default:
		return e.Cache.Access(addr, false, 0, 4, false)
	}
}

func (e *Executor) store(addr uint32, f3 Funct3, value uint32) error {
	size := 4
	switch f3 {
	case F3Sb:
		size = 1
	case F3Sh:
		size = 2
	case F3Sw:
		size = 4
	}
	_, err := e.Cache.Access(addr, true, value, size, false)
	return err
}

func branchTaken(f3 Funct3, a, b uint32) bool {
	switch f3 {
	case F3Beq:
		return a == b
	case F3Bne:
		return a != b
	case F3Blt:
		return int32(a) < int32(b)
	case F3Bge:
		return int32(a) >= int32(b)
	case F3Bltu:
		return a < b
	case F3Bgeu:
		return a >= b
	default:
		return false
	}
}

func aluOp(f3 Funct3, f7 Funct7, a, b uint32) uint32 {
	if f7 == F7Mul {
		return mulDivOp(f3, a, b)
	}
	switch f3 {
	case F3AddSub:
		if f7 == F7Alt {
			return a - b
		}
		return a + b
	case F3Sll:
		return a << (b & 0x1F)
	case F3Slt:
		return boolToWord(int32(a) < int32(b))
	case F3Sltu:
		return boolToWord(a < b)
	case F3Xor:
		return a ^ b
	case F3SrlSra:
		if f7 == F7Alt {
			return uint32(int32(a) >> (b & 0x1F))
		}
		return a >> (b & 0x1F)
	case F3Or:
		return a | b
	case F3And:
		return a & b
	default:
		return 0
	}
}

func mulDivOp(f3 Funct3, a, b uint32) uint32 {
	switch f3 {
	case F3Mul:
		return a * b
	case F3Mulh:
		return uint32((int64(int32(a)) * int64(int32(b))) >> 32)
	case F3Mulhsu:
		return uint32((int64(int32(a)) * int64(uint64(b))) >> 32)
	case F3Mulhu:
		return uint32((uint64(a) * uint64(b)) >> 32)
	case F3Div:
		sa, sb := int32(a), int32(b)
		switch {
		case sb == 0:
			return 0xFFFFFFFF
		case sa == -0x80000000 && sb == -1:
			return uint32(sa) // INT_MIN, per RISC-V spec
		default:
			return uint32(sa / sb)
		}
	case F3Divu:
		if b == 0 {
			return 0xFFFFFFFF
		}
		return a / b
	case F3Rem:
		sa, sb := int32(a), int32(b)
		switch {
		case sb == 0:
			return uint32(sa)
		case sa == -0x80000000 && sb == -1:
			return 0
		default:
			return uint32(sa % sb)
		}
	case F3Remu:
		if b == 0 {
			return a
		}
		return a % b
	default:
		return 0
	}
}

func aluOpImm(f3 Funct3, f7 Funct7, a uint32, imm int32) uint32 {
	switch f3 {
	case F3AddSub:
		return a + uint32(imm)
	case F3Sll:
		return a << (uint32(imm) & 0x1F)
	case F3Slt:
		return boolToWord(int32(a) < imm)
	case F3Sltu:
		return boolToWord(a < uint32(imm))
	case F3Xor:
		return a ^ uint32(imm)
	case F3SrlSra:
		if f7 == F7Alt {
			return uint32(int32(a) >> (uint32(imm) & 0x1F))
		}
		return a >> (uint32(imm) & 0x1F)
	case F3Or:
		return a | uint32(imm)
	case F3And:
		return a & uint32(imm)
	default:
		return 0
	}
}

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
