package witness

import (
	"github.com/colorfulnotion/zkmips/arithmetic"
	"github.com/colorfulnotion/zkmips/cpu"
	"github.com/colorfulnotion/zkmips/keccak"
	"github.com/colorfulnotion/zkmips/logic"
	"github.com/colorfulnotion/zkmips/memory"
)

// TraceCheckpoint records the length of every append-only log.
type TraceCheckpoint struct {
	ArithmeticLen int
	CpuLen        int
	KeccakLen     int
	LogicLen      int
	MemoryLen     int
}

// Traces are the append-only logs produced by the interpreter. Entries past
// a checkpoint are speculative until the transition commits.
type Traces struct {
	ArithmeticOps []arithmetic.Operation
	CpuRows       []cpu.CpuColumnsView
	KeccakOps     []keccak.SpongeOp
	LogicOps      []logic.Operation
	MemoryOps     []memory.MemoryOp
}

func (t *Traces) Checkpoint() TraceCheckpoint {
	return TraceCheckpoint{
		ArithmeticLen: len(t.ArithmeticOps),
		CpuLen:        len(t.CpuRows),
		KeccakLen:     len(t.KeccakOps),
		LogicLen:      len(t.LogicOps),
		MemoryLen:     len(t.MemoryOps),
	}
}

// Rollback drops every entry appended after cp.
func (t *Traces) Rollback(cp TraceCheckpoint) {
	t.ArithmeticOps = t.ArithmeticOps[:cp.ArithmeticLen]
	t.CpuRows = t.CpuRows[:cp.CpuLen]
	t.KeccakOps = t.KeccakOps[:cp.KeccakLen]
	t.LogicOps = t.LogicOps[:cp.LogicLen]
	t.MemoryOps = t.MemoryOps[:cp.MemoryLen]
}

// MemOpsSince returns the memory log entries appended after cp. The slice
// aliases the log; callers must not modify it.
func (t *Traces) MemOpsSince(cp TraceCheckpoint) []memory.MemoryOp {
	return t.MemoryOps[cp.MemoryLen:]
}

// Clock is the cycle number of the next row.
func (t *Traces) Clock() uint64 {
	return uint64(len(t.CpuRows))
}

func (t *Traces) PushArithmetic(op arithmetic.Operation) {
	t.ArithmeticOps = append(t.ArithmeticOps, op)
}

func (t *Traces) PushLogic(op logic.Operation) {
	t.LogicOps = append(t.LogicOps, op)
}

func (t *Traces) PushKeccak(op keccak.SpongeOp) {
	t.KeccakOps = append(t.KeccakOps, op)
}

func (t *Traces) PushMemory(op memory.MemoryOp) {
	t.MemoryOps = append(t.MemoryOps, op)
}

func (t *Traces) PushCpu(row cpu.CpuColumnsView) {
	t.CpuRows = append(t.CpuRows, row)
}
