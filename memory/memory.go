// Package memory models the per-context, per-segment storage of the VM and
// the memory operations that are logged against it.
package memory

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// NumGPChannels is the number of general purpose memory channels in a CPU row.
const NumGPChannels = 4

// NumChannels counts the code channel plus the general purpose channels.
const NumChannels = NumGPChannels + 1

// BulkSlots is the number of per-cycle timestamp slots after the row
// channels. Accesses without a row channel (syscall buffers, digests) take
// one slot each.
const BulkSlots = 1 << 15

// CycleStride is the timestamp distance between two cycles.
const CycleStride = NumChannels + BulkSlots

// MemoryAddress identifies one 32-bit cell.
type MemoryAddress struct {
	Context int     `json:"context"`
	Segment Segment `json:"segment"`
	Virt    uint32  `json:"virt"`
}

func NewMemoryAddress(context int, segment Segment, virt uint32) MemoryAddress {
	return MemoryAddress{Context: context, Segment: segment, Virt: virt}
}

func (a MemoryAddress) String() string {
	return fmt.Sprintf("(%d,%s,0x%x)", a.Context, a.Segment, a.Virt)
}

// MemoryChannel is the CPU row channel a memory operation was performed on.
// Code is channel 0; GeneralPurpose(n) is channel n+1.
type MemoryChannel int

// CodeChannel is the channel used by instruction fetches.
const CodeChannel MemoryChannel = 0

// GeneralPurpose returns the channel for general purpose slot n.
func GeneralPurpose(n int) MemoryChannel {
	if n < 0 || n >= NumGPChannels {
		panic(fmt.Sprintf("general purpose channel %d out of range", n))
	}
	return MemoryChannel(n + 1)
}

// BulkChannel returns the n-th bulk slot of a cycle.
func BulkChannel(n int) MemoryChannel {
	if n < 0 || n >= BulkSlots {
		panic(fmt.Sprintf("bulk slot %d out of range", n))
	}
	return MemoryChannel(NumChannels + n)
}

func (c MemoryChannel) Index() int {
	return int(c)
}

// IsBulk reports whether c is a bulk slot rather than a row channel.
func (c MemoryChannel) IsBulk() bool {
	return int(c) >= NumChannels
}

func (c MemoryChannel) String() string {
	switch {
	case c == CodeChannel:
		return "code"
	case c.IsBulk():
		return fmt.Sprintf("bulk%d", int(c)-NumChannels)
	}
	return fmt.Sprintf("gp%d", int(c)-1)
}

type MemoryOpKind uint8

const (
	Read MemoryOpKind = iota
	Write
)

func (k MemoryOpKind) String() string {
	if k == Write {
		return "write"
	}
	return "read"
}

// MemoryOp is one entry of the append-only memory log. It is never mutated
// after creation.
type MemoryOp struct {
	// Filter is false for padding operations.
	Filter    bool          `json:"filter"`
	Timestamp uint64        `json:"timestamp"`
	Address   MemoryAddress `json:"address"`
	Kind      MemoryOpKind  `json:"kind"`
	Value     uint32        `json:"value"`
}

// NewMemoryOp stamps the op with clock*CycleStride+channel, so no two ops
// logged in a run share a timestamp as long as each row channel and bulk
// slot is used at most once per cycle.
func NewMemoryOp(channel MemoryChannel, clock uint64, address MemoryAddress, kind MemoryOpKind, value uint32) MemoryOp {
	return MemoryOp{
		Filter:    true,
		Timestamp: clock*CycleStride + uint64(channel.Index()),
		Address:   address,
		Kind:      kind,
		Value:     value,
	}
}

func (op MemoryOp) String() string {
	return fmt.Sprintf("%s %s=0x%x @%d", op.Kind, op.Address, op.Value, op.Timestamp)
}

// MemorySegmentState holds the cells of one segment. Cells that were never
// written read as zero.
type MemorySegmentState struct {
	Content map[uint32]uint32
}

func (s *MemorySegmentState) get(virt uint32) uint32 {
	return s.Content[virt]
}

func (s *MemorySegmentState) set(virt uint32, value uint32) {
	if s.Content == nil {
		s.Content = make(map[uint32]uint32)
	}
	s.Content[virt] = value
}

// Cell is one (virt, value) pair of a segment dump.
type Cell struct {
	Virt  uint32 `json:"virt"`
	Value uint32 `json:"value"`
}

// Dump returns the written cells ordered by virtual address.
func (s *MemorySegmentState) Dump() []Cell {
	keys := make([]uint32, 0, len(s.Content))
	for k := range s.Content {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	cells := make([]Cell, 0, len(keys))
	for _, k := range keys {
		cells = append(cells, Cell{Virt: k, Value: s.Content[k]})
	}
	return cells
}

type MemoryContextState struct {
	Segments [NumSegments]MemorySegmentState
}

// MemoryState is the committed memory of every context.
type MemoryState struct {
	Contexts []MemoryContextState
}

func NewMemoryState(numContexts int) *MemoryState {
	if numContexts <= 0 {
		numContexts = 1
	}
	return &MemoryState{Contexts: make([]MemoryContextState, numContexts)}
}

func (m *MemoryState) NumContexts() int {
	return len(m.Contexts)
}

// segment panics on out-of-range addressing: callers validate context and
// segment bounds before building an address.
func (m *MemoryState) segment(address MemoryAddress) *MemorySegmentState {
	if address.Context < 0 || address.Context >= len(m.Contexts) {
		panic(fmt.Sprintf("memory: context %d out of range (have %d)", address.Context, len(m.Contexts)))
	}
	if !address.Segment.Valid() {
		panic(fmt.Sprintf("memory: segment %d out of range", int(address.Segment)))
	}
	return &m.Contexts[address.Context].Segments[address.Segment]
}

func (m *MemoryState) Get(address MemoryAddress) uint32 {
	return m.segment(address).get(address.Virt)
}

func (m *MemoryState) Set(address MemoryAddress, value uint32) {
	m.segment(address).set(address.Virt, value)
}

// Segment returns the committed contents of one segment.
func (m *MemoryState) Segment(context int, segment Segment) *MemorySegmentState {
	return m.segment(MemoryAddress{Context: context, Segment: segment})
}

// ApplyOp commits a single logged operation. Reads leave memory untouched.
func (m *MemoryState) ApplyOp(op MemoryOp) {
	if op.Kind == Write {
		m.Set(op.Address, op.Value)
	}
}

// ApplyOps replays a contiguous slice of the log into memory.
func (m *MemoryState) ApplyOps(ops []MemoryOp) {
	for _, op := range ops {
		m.ApplyOp(op)
	}
}

// LoadWords writes an initial image without logging; it is used only before
// the first cycle.
func (m *MemoryState) LoadWords(context int, segment Segment, base uint32, words []uint32) {
	for i, w := range words {
		m.Set(MemoryAddress{Context: context, Segment: segment, Virt: base + uint32(4*i)}, w)
	}
}
