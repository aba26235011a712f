// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/ezrec/rvcache/cache"
	"github.com/ezrec/rvcache/emulator"
	"github.com/ezrec/rvcache/riscv"
	"github.com/ezrec/rvcache/rvsim"
	"github.com/ezrec/rvcache/snapshot"
)

func main() {
	var input string
	var wantOutput bool
	var debug bool

	flag.StringVar(&input, "i", "", "input snapshot file (required)")
	flag.BoolVar(&wantOutput, "o", false, "write output snapshot; must be followed by: <path> <start_addr> <size>")
	flag.BoolVar(&debug, "d", false, "enable verbose trace")
	flag.BoolVar(&debug, "debug", false, "enable verbose trace")

	flag.Parse()

	if input == "" {
		log.Fatalf("%v: -i <input> is required", os.Args[0])
	}

	if wantOutput && flag.NArg() != 3 {
		log.Fatalf("%v: -o requires exactly three arguments: <path> <start_addr> <size>", os.Args[0])
	}
	if !wantOutput && flag.NArg() != 0 {
		log.Fatalf("%v: unexpected arguments: %v", os.Args[0], flag.Args())
	}

	inf, err := os.Open(input)
	if err != nil {
		log.Fatalf("%v: %v", input, err)
	}
	defer inf.Close()

	state, err := snapshot.Load(inf)
	if err != nil {
		log.Fatalf("%v: %v", input, err)
	}

	if debug {
		trace(state)
	}

	out, err := rvsim.Run(state)
	if err != nil {
		log.Fatalf("%v: %v", input, err)
	}

	if out.LRU.Runaway {
		fmt.Fprintf(os.Stderr, "%v: LRU run did not halt within the instruction cap\n", os.Args[0])
	}
	if out.PLRU.Runaway {
		fmt.Fprintf(os.Stderr, "%v: pLRU run did not halt within the instruction cap\n", os.Args[0])
	}

	if err := rvsim.WriteReport(os.Stdout, out); err != nil {
		log.Fatalf("report: %v", err)
	}

	if wantOutput {
		path, addrArg, sizeArg := flag.Arg(0), flag.Arg(1), flag.Arg(2)
		if err := writeOutput(path, addrArg, sizeArg, out); err != nil {
			log.Fatalf("%v: %v", path, err)
		}
	}
}

// trace steps an independent LRU emulator over a clone of state's memory,
// printing a disassembly line per instruction to stderr. It never affects
// the statistics-producing run: it operates on its own memory clone.
func trace(state *snapshot.State) {
	emu := emulator.New(cache.LRU, state.Memory.Clone(), state.PC, state.Regs, state.Regs[1])
	exec := emu.Executor

	for exec.State() == riscv.Running {
		pc := exec.PC
		if err := exec.Step(); err != nil {
			fmt.Fprintf(os.Stderr, "trace: pc=0x%05x: %v\n", pc, err)
			return
		}
		fmt.Fprintf(os.Stderr, "0x%05x: %s\n", pc, riscv.Disassemble(pc, exec.LastInstruction()))
	}

	fmt.Fprintf(os.Stderr, "trace: %d cache lines valid at halt\n", emu.Cache.ValidLines())
}

func writeOutput(path, addrArg, sizeArg string, out *rvsim.Outcome) error {
	start, err := strconv.ParseUint(addrArg, 0, 32)
	if err != nil {
		return fmt.Errorf("start address %q: %w", addrArg, err)
	}
	size, err := strconv.ParseUint(sizeArg, 0, 32)
	if err != nil {
		return fmt.Errorf("size %q: %w", sizeArg, err)
	}

	ouf, err := os.Create(path)
	if err != nil {
		return err
	}
	defer ouf.Close()

	return snapshot.Save(ouf, out.FinalPC, out.FinalRegs, out.FinalMemory, uint32(start), uint32(size))
}
