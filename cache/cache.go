// Package cache implements the 4-way set-associative cache that every
// memory and instruction-fetch reference in the riscv package is routed
// through. It models write-allocate, write-back semantics with two
// interchangeable replacement policies, chosen once at construction and
// fixed for the lifetime of the Cache (the driver builds one Cache per
// policy rather than parameterizing a single Cache at call time).
package cache

import (
	"iter"

	"github.com/ezrec/rvcache/internal/iterx"
	"github.com/ezrec/rvcache/memory"
	"github.com/ezrec/rvcache/rverrors"
)

// Fixed geometry. See SPEC_FULL.md §3.
const (
	LineBytes  = 64 // payload bytes per cache line
	Ways       = 4  // ways per set
	Sets       = 16 // sets in the cache
	OffsetBits = 6
	IndexBits  = 4
	TagBits    = 7
)

// Policy selects the replacement algorithm a Cache uses for its lifetime.
type Policy int

const (
	// LRU is true least-recently-used, timestamped by a monotonic counter.
	LRU Policy = iota
	// PLRU is tree-based pseudo-LRU over 3 bits per set.
	PLRU
)

func (p Policy) String() string {
	switch p {
	case LRU:
		return "LRU"
	case PLRU:
		return "bpLRU"
	default:
		return "unknown"
	}
}

// Line holds the metadata and payload for one cache line.
type Line struct {
	Valid      bool
	Dirty      bool
	Tag        uint32
	LRUCounter uint32
	Data       [LineBytes]byte
}

type set struct {
	lines [Ways]Line
	plru  uint8 // bit0=b0 bit1=b1 bit2=b2, see SPEC_FULL.md §4.2
}

// Counters accumulates access/hit/miss totals for one access class.
type Counters struct {
	Access uint64
	Hit    uint64
	Miss   uint64
}

// Stats holds every counter bucket the cache maintains.
type Stats struct {
	Instr      Counters
	DataRead   Counters
	DataWrite  Counters
	Evictions  uint64
	WriteBacks uint64
}

// DataAccess is the combined read+write data access count.
func (s Stats) DataAccess() uint64 { return s.DataRead.Access + s.DataWrite.Access }

// DataHit is the combined read+write data hit count.
func (s Stats) DataHit() uint64 { return s.DataRead.Hit + s.DataWrite.Hit }

// TotalAccess is the combined instruction+data access count.
func (s Stats) TotalAccess() uint64 { return s.Instr.Access + s.DataAccess() }

// TotalHit is the combined instruction+data hit count.
func (s Stats) TotalHit() uint64 { return s.Instr.Hit + s.DataHit() }

// Cache is a 4-way set-associative cache bound to one replacement policy
// and one backing Memory for its whole lifetime.
type Cache struct {
	policy        Policy
	mem           *memory.Memory
	sets          [Sets]set
	globalCounter uint32
	stats         Stats
}

// New creates an empty Cache using policy and backed by mem.
func New(policy Policy, mem *memory.Memory) *Cache {
	return &Cache{policy: policy, mem: mem}
}

// Policy returns the replacement policy this Cache was constructed with.
func (c *Cache) Policy() Policy { return c.policy }

// Stats returns a snapshot of the current counters.
func (c *Cache) Stats() Stats { return c.stats }

// WaysOf iterates the four lines of the set at index, in way order. The
// pointers stay valid for the lifetime of c.
func (c *Cache) WaysOf(index int) iter.Seq[*Line] {
	return func(yield func(*Line) bool) {
		s := &c.sets[index]
		for i := range s.lines {
			if !yield(&s.lines[i]) {
				return
			}
		}
	}
}

// Lines iterates every line in the cache, set by set, way by way within
// each set. Used by ValidLines and by tests that check a property across
// the entire cache rather than one set.
func (c *Cache) Lines() iter.Seq[*Line] {
	seqs := make([]iter.Seq[*Line], Sets)
	for index := range seqs {
		seqs[index] = c.WaysOf(index)
	}
	return iterx.Concat(seqs...)
}

func decompose(addr uint32) (tag, index, offset uint32, blockAddr uint32) {
	offset = addr & (LineBytes - 1)
	index = (addr >> OffsetBits) & (Sets - 1)
	tag = (addr >> (OffsetBits + IndexBits)) & ((1 << TagBits) - 1)
	blockAddr = addr &^ (LineBytes - 1)
	return
}

// Access is the cache's single unified entry point: it classifies the
// access, finds a hit or services a miss, and returns a zero-extended
// 32-bit word read back from the line after any write has been applied.
func (c *Cache) Access(addr uint32, isWrite bool, writeData uint32, size int, isInstruction bool) (uint32, error) {
	if size != 1 && size != 2 && size != 4 {
		return 0, &rverrors.InvalidAccess{Address: addr, Size: size, Reason: "unsupported size"}
	}
	if addr >= memory.AddressSpace {
		return 0, &rverrors.InvalidAccess{Address: addr, Size: size, Reason: "address out of range"}
	}
	offsetCheck := addr & (LineBytes - 1)
	if int(offsetCheck)+size > LineBytes {
		return 0, &rverrors.InvalidAccess{Address: addr, Size: size, Reason: "access straddles a cache line"}
	}

	tag, index, offset, blockAddr := decompose(addr)
	s := &c.sets[index]

	counters := c.classCounters(isInstruction, isWrite)
	counters.Access++

	hitWay := -1
	for i := range s.lines {
		if s.lines[i].Valid && s.lines[i].Tag == tag {
			hitWay = i
			break
		}
	}

	if hitWay >= 0 {
		counters.Hit++
		c.updateReplacement(s, hitWay)
		return patchAndRead(&s.lines[hitWay], int(offset), size, isWrite, writeData), nil
	}

	counters.Miss++
	c.stats.Evictions++

	victim := c.victim(s)
	if err := c.fill(s, victim, index, tag, blockAddr); err != nil {
		return 0, err
	}
	c.updateReplacement(s, victim)

	return patchAndRead(&s.lines[victim], int(offset), size, isWrite, writeData), nil
}

func (c *Cache) classCounters(isInstruction, isWrite bool) *Counters {
	switch {
	case isInstruction:
		return &c.stats.Instr
	case isWrite:
		return &c.stats.DataWrite
	default:
		return &c.stats.DataRead
	}
}

func (c *Cache) fill(s *set, way int, index, tag, blockAddr uint32) error {
	line := &s.lines[way]

	if line.Valid && line.Dirty {
		physAddr := (line.Tag << (IndexBits + OffsetBits)) | (index << OffsetBits)
		for i := uint32(0); i < LineBytes; i++ {
			if err := c.mem.WriteByte(physAddr+i, line.Data[i]); err != nil {
				return err
			}
		}
		c.stats.WriteBacks++
	}

	line.Valid = true
	line.Dirty = false
	line.Tag = tag
	for i := uint32(0); i < LineBytes; i++ {
		b, err := c.mem.ReadByte(blockAddr + i)
		if err != nil {
			return err
		}
		line.Data[i] = b
	}

	return nil
}

func patchAndRead(line *Line, offset, size int, isWrite bool, writeData uint32) uint32 {
	if isWrite {
		line.Dirty = true
		for i := 0; i < size; i++ {
			line.Data[offset+i] = byte(writeData >> (8 * i))
		}
	}

	var result uint32
	for i := size - 1; i >= 0; i-- {
		result = (result << 8) | uint32(line.Data[offset+i])
	}
	return result
}

func (c *Cache) victim(s *set) int {
	for i := range s.lines {
		if !s.lines[i].Valid {
			return i
		}
	}
	switch c.policy {
	case PLRU:
		return victimPLRU(s.plru)
	default:
		return victimLRU(s)
	}
}

func victimLRU(s *set) int {
	minWay := 0
	minCounter := s.lines[0].LRUCounter
	for i := 1; i < Ways; i++ {
		if s.lines[i].LRUCounter < minCounter {
			minCounter = s.lines[i].LRUCounter
			minWay = i
		}
	}
	return minWay
}

func victimPLRU(bits uint8) int {
	b0 := bits&0x1 != 0
	b1 := bits&0x2 != 0
	b2 := bits&0x4 != 0
	if !b0 {
		if b1 {
			return 1
		}
		return 0
	}
	if b2 {
		return 3
	}
	return 2
}

func (c *Cache) updateReplacement(s *set, way int) {
	switch c.policy {
	case PLRU:
		updatePLRU(s, way)
	default:
		c.globalCounter++
		s.lines[way].LRUCounter = c.globalCounter
	}
}

func updatePLRU(s *set, way int) {
	switch way {
	case 0:
		s.plru |= 0x1
		s.plru |= 0x2
	case 1:
		s.plru |= 0x1
		s.plru &^= 0x2
	case 2:
		s.plru &^= 0x1
		s.plru |= 0x4
	case 3:
		s.plru &^= 0x1
		s.plru &^= 0x4
	}
}

// ValidLines counts how many lines across the whole cache are currently
// valid, regardless of set. Used for cache-occupancy diagnostics.
func (c *Cache) ValidLines() int {
	n := 0
	for line := range c.Lines() {
		if line.Valid {
			n++
		}
	}
	return n
}

// Flush writes back every valid, dirty line to Memory. It does not reset
// counters or invalidate lines; it is called once when the executor
// halts so the final memory image is consistent with the cache.
func (c *Cache) Flush() error {
	for index := range c.sets {
		s := &c.sets[index]
		for w := range s.lines {
			line := &s.lines[w]
			if !line.Valid || !line.Dirty {
				continue
			}
			physAddr := (line.Tag << (IndexBits + OffsetBits)) | (uint32(index) << OffsetBits)
			for i := uint32(0); i < LineBytes; i++ {
				if err := c.mem.WriteByte(physAddr+i, line.Data[i]); err != nil {
					return err
				}
			}
			c.stats.WriteBacks++
			line.Dirty = false
		}
	}
	return nil
}
