// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator binds one riscv.Executor to one memory.Memory and one
// cache.Cache under a single replacement policy, and drives it to
// completion.
package emulator

import (
	"github.com/ezrec/rvcache/cache"
	"github.com/ezrec/rvcache/memory"
	"github.com/ezrec/rvcache/riscv"
)

// Emulator is one independent run: its own Memory, Cache, and Executor.
// The driver constructs two, one per policy, over the same loaded
// snapshot image.
type Emulator struct {
	Memory   *memory.Memory
	Cache    *cache.Cache
	Executor *riscv.Executor
}

// New constructs an Emulator over mem using policy, with pc/regs/initialRA
// seeded from a loaded snapshot. mem is not copied; callers that need two
// independent runs from the same snapshot must pass two independent
// memory.Memory instances loaded with identical content.
func New(policy cache.Policy, mem *memory.Memory, pc uint32, regs [32]uint32, initialRA uint32) *Emulator {
	c := cache.New(policy, mem)
	exec := riscv.NewExecutor(c)
	exec.PC = pc
	exec.Regs = regs
	exec.InitialRA = initialRA

	return &Emulator{Memory: mem, Cache: c, Executor: exec}
}

// Run drives the executor to completion, flushing the cache on halt. A
// *rverrors.Runaway is returned when the instruction cap is reached; the
// caller should treat this as non-fatal and still report statistics. Any
// other error is a fatal *rverrors.Runtime and should abort the run.
func (e *Emulator) Run() error {
	return e.Executor.Run()
}

// Stats returns the cache statistics accumulated over the run so far.
func (e *Emulator) Stats() cache.Stats {
	return e.Cache.Stats()
}
