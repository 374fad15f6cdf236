package witness

import (
	"fmt"

	"github.com/colorfulnotion/zkmips/cpu"
	"github.com/colorfulnotion/zkmips/kernel"
	"github.com/colorfulnotion/zkmips/log"
	"github.com/colorfulnotion/zkmips/memory"
	"github.com/colorfulnotion/zkmips/vmerrors"
)

const (
	DefaultNumContexts = 4
	// DefaultUserContext is where programs are loaded; context 0 holds the
	// kernel image.
	DefaultUserContext = 1

	// DefaultMaxBulkBytes caps the bytes a single syscall or Keccak cycle
	// may move through memory.
	DefaultMaxBulkBytes = 1 << 16
	// maxBulkBytesLimit keeps every bulk access of a cycle inside its bulk
	// timestamp slots, with room for the unaligned head word and the digest.
	maxBulkBytesLimit = 4 * (memory.BulkSlots - 16)
)

// PublicValue is one (a0, a1) pair committed by the COMMIT syscall.
type PublicValue struct {
	Key   uint32 `json:"key"`
	Value uint32 `json:"value"`
}

// ioCursor captures how far the input streams have been consumed and how
// much output was produced, so a faulted instruction can be undone.
type ioCursor struct {
	hint      int
	prover    int
	stdout    int
	stderr    int
	committed int
}

// Checkpoint is a value snapshot taken before each instruction.
type Checkpoint struct {
	Registers RegistersState
	Traces    TraceCheckpoint
	io        ioCursor
}

type Config struct {
	NumContexts int
	// StackBase and StackLimit bound the stack window [StackLimit, StackBase).
	// A zero StackBase disables the window.
	StackBase  uint32
	StackLimit uint32
	Kernel     *kernel.Kernel
	// MaxBulkBytes defaults to DefaultMaxBulkBytes.
	MaxBulkBytes uint32
}

// GenerationState is everything the interpreter reads and writes while
// producing a witness.
type GenerationState struct {
	Registers RegistersState
	Memory    *memory.MemoryState
	Traces    Traces
	Kernel    *kernel.Kernel

	StackBase    uint32
	StackLimit   uint32
	MaxBulkBytes uint32

	// bulkSlot is the next free bulk timestamp slot of the current cycle.
	bulkSlot int

	// codeSize is the code bound in bytes of each context.
	codeSize []uint32

	hints        [][]byte
	proverInputs []uint32
	io           ioCursor

	Stdout       []byte
	Stderr       []byte
	PublicValues []PublicValue

	// ExceptionCount counts committed exception cycles.
	ExceptionCount uint64
}

// NewGenerationState builds an empty machine and loads the kernel image into
// the code segment of context 0. The machine starts in kernel mode at pc 0.
func NewGenerationState(cfg Config) (*GenerationState, error) {
	if cfg.NumContexts == 0 {
		cfg.NumContexts = DefaultNumContexts
	}
	if cfg.NumContexts < 1 {
		return nil, fmt.Errorf("invalid number of contexts %d", cfg.NumContexts)
	}
	if cfg.MaxBulkBytes == 0 {
		cfg.MaxBulkBytes = DefaultMaxBulkBytes
	}
	if cfg.MaxBulkBytes > maxBulkBytesLimit {
		return nil, fmt.Errorf("max bulk bytes %d above limit %d", cfg.MaxBulkBytes, maxBulkBytesLimit)
	}
	if cfg.StackBase != 0 && cfg.StackLimit >= cfg.StackBase {
		return nil, fmt.Errorf("stack limit 0x%x must be below stack base 0x%x", cfg.StackLimit, cfg.StackBase)
	}
	state := &GenerationState{
		Registers:    RegistersState{IsKernel: true},
		Memory:       memory.NewMemoryState(cfg.NumContexts),
		Kernel:       cfg.Kernel,
		StackBase:    cfg.StackBase,
		StackLimit:   cfg.StackLimit,
		MaxBulkBytes: cfg.MaxBulkBytes,
		codeSize:     make([]uint32, cfg.NumContexts),
	}
	if cfg.Kernel != nil {
		state.Memory.LoadWords(0, memory.Code, 0, cfg.Kernel.Code)
		state.codeSize[0] = cfg.Kernel.CodeSize()
	}
	return state, nil
}

// LoadProgram places code at address 0 of context ctx and makes it the
// current user program starting at entry.
func (s *GenerationState) LoadProgram(ctx int, code []uint32, entry uint32) error {
	if ctx <= 0 || ctx >= s.Memory.NumContexts() {
		return fmt.Errorf("program context %d out of range [1,%d)", ctx, s.Memory.NumContexts())
	}
	size := uint32(4 * len(code))
	if entry%4 != 0 || entry >= size {
		return fmt.Errorf("entry point 0x%x outside program of %d bytes", entry, size)
	}
	s.Memory.LoadWords(ctx, memory.Code, 0, code)
	s.codeSize[ctx] = size
	s.Registers = RegistersState{ProgramCounter: entry, Context: ctx}
	return nil
}

// SetRegister seeds a general purpose register before the first cycle.
func (s *GenerationState) SetRegister(ctx int, reg uint8, value uint32) {
	if reg == RegZero {
		return
	}
	s.Memory.Set(memory.NewMemoryAddress(ctx, memory.RegisterFile, uint32(reg)), value)
}

// Register returns the committed value of a general purpose register in the
// current context.
func (s *GenerationState) Register(reg uint8) uint32 {
	return s.Memory.Get(s.registerAddress(reg))
}

func (s *GenerationState) SetHints(hints [][]byte) {
	s.hints = hints
	s.io.hint = 0
}

func (s *GenerationState) SetProverInputs(inputs []uint32) {
	s.proverInputs = inputs
	s.io.prover = 0
}

// CodeSize is the code bound in bytes of context ctx.
func (s *GenerationState) CodeSize(ctx int) uint32 {
	if ctx < 0 || ctx >= len(s.codeSize) {
		return 0
	}
	return s.codeSize[ctx]
}

func (s *GenerationState) Checkpoint() Checkpoint {
	return Checkpoint{
		Registers: s.Registers,
		Traces:    s.Traces.Checkpoint(),
		io: ioCursor{
			hint:      s.io.hint,
			prover:    s.io.prover,
			stdout:    len(s.Stdout),
			stderr:    len(s.Stderr),
			committed: len(s.PublicValues),
		},
	}
}

// Rollback restores the registers and truncates every log to cp. Memory is
// untouched because nothing after cp has been applied.
func (s *GenerationState) Rollback(cp Checkpoint) {
	log.Debug(log.MemoryMonitoring, "Rollback", "clock", s.Traces.Clock(),
		"dropped_ops", len(s.Traces.MemoryOps)-cp.Traces.MemoryLen)
	s.Registers = cp.Registers
	s.Traces.Rollback(cp.Traces)
	s.io.hint = cp.io.hint
	s.io.prover = cp.io.prover
	s.Stdout = s.Stdout[:cp.io.stdout]
	s.Stderr = s.Stderr[:cp.io.stderr]
	s.PublicValues = s.PublicValues[:cp.io.committed]
}

// commit applies the memory ops logged since cp and appends the row.
func (s *GenerationState) commit(cp Checkpoint, row *cpu.CpuColumnsView) {
	ops := s.Traces.MemOpsSince(cp.Traces)
	s.Memory.ApplyOps(ops)
	s.Traces.PushCpu(*row)
	log.Trace(log.MemoryMonitoring, "Commit", "clock", s.Traces.Clock()-1, "ops", len(ops))
}

// checkBulkLen rejects bulk transfers above MaxBulkBytes.
func (s *GenerationState) checkBulkLen(n uint32) error {
	if n > s.MaxBulkBytes {
		return fmt.Errorf("bulk transfer of %d bytes, limit %d: %w", n, s.MaxBulkBytes, vmerrors.ErrOutOfGas)
	}
	return nil
}

// nextBulkChannel hands out the next bulk slot of the current cycle.
func (s *GenerationState) nextBulkChannel() memory.MemoryChannel {
	ch := memory.BulkChannel(s.bulkSlot)
	s.bulkSlot++
	return ch
}

func (s *GenerationState) registerAddress(reg uint8) memory.MemoryAddress {
	return memory.NewMemoryAddress(s.Registers.Context, memory.RegisterFile, uint32(reg))
}

// isValidJumpDest reports whether target is an aligned address inside the
// code of the current code context.
func (s *GenerationState) isValidJumpDest(target uint32) bool {
	return target%4 == 0 && target < s.CodeSize(s.Registers.CodeContext())
}

func (s *GenerationState) inStackWindow(addr uint32) bool {
	return s.StackBase != 0 && addr >= s.StackLimit && addr < s.StackBase
}

// dataSegment maps a user data address to its segment.
func (s *GenerationState) dataSegment(addr uint32) memory.Segment {
	if s.inStackWindow(addr) {
		return memory.Stack
	}
	return memory.MainMemory
}

func (s *GenerationState) nextHint() ([]byte, bool) {
	if s.io.hint >= len(s.hints) {
		return nil, false
	}
	return s.hints[s.io.hint], true
}

func (s *GenerationState) nextProverInput() (uint32, bool) {
	if s.io.prover >= len(s.proverInputs) {
		return 0, false
	}
	return s.proverInputs[s.io.prover], true
}
