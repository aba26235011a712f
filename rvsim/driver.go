// Package rvsim drives a loaded snapshot through both cache replacement
// policies and aggregates the resulting statistics for reporting.
package rvsim

import (
	"errors"

	"github.com/ezrec/rvcache/cache"
	"github.com/ezrec/rvcache/emulator"
	"github.com/ezrec/rvcache/memory"
	"github.com/ezrec/rvcache/rverrors"
	"github.com/ezrec/rvcache/snapshot"
)

// PolicyResult holds one policy's final cache statistics.
type PolicyResult struct {
	Stats   cache.Stats
	Runaway bool
}

// Outcome is the result of running a snapshot under both policies.
type Outcome struct {
	LRU  PolicyResult
	PLRU PolicyResult

	// FinalPC, FinalRegs, and FinalMemory come from the LRU run only, per
	// SPEC_FULL.md §6 — the pLRU run exists for statistics alone.
	FinalPC     uint32
	FinalRegs   [32]uint32
	FinalMemory *memory.Memory
}

// Run executes s.State twice, once per policy, and returns the aggregated
// outcome. The LRU run mutates s.Memory in place; the pLRU run works on a
// clone taken before either run starts. A Runaway from
// either run is recorded on the corresponding PolicyResult rather than
// aborting; any other error aborts immediately.
func Run(s *snapshot.State) (*Outcome, error) {
	lruMem := s.Memory
	plruMem := s.Memory.Clone()

	lru := emulator.New(cache.LRU, lruMem, s.PC, s.Regs, s.Regs[1])
	plru := emulator.New(cache.PLRU, plruMem, s.PC, s.Regs, s.Regs[1])

	lruRunaway, err := runPolicy(lru)
	if err != nil {
		return nil, err
	}
	plruRunaway, err := runPolicy(plru)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		LRU:         PolicyResult{Stats: lru.Stats(), Runaway: lruRunaway},
		PLRU:        PolicyResult{Stats: plru.Stats(), Runaway: plruRunaway},
		FinalPC:     lru.Executor.PC,
		FinalRegs:   lru.Executor.Regs,
		FinalMemory: lru.Memory,
	}, nil
}

func runPolicy(emu *emulator.Emulator) (runaway bool, err error) {
	err = emu.Run()
	if err == nil {
		return false, nil
	}

	var ra *rverrors.Runaway
	if errors.As(err, &ra) {
		return true, nil
	}
	return false, err
}
