package witness

import (
	"testing"

	"github.com/colorfulnotion/zkmips/kernel"
	"github.com/colorfulnotion/zkmips/memory"
	"github.com/stretchr/testify/require"
)

const (
	testStackBase  = 0x1000
	testStackLimit = 0x800
	userCtx        = DefaultUserContext

	// exception_handler of the default kernel, right after the jumptable
	testHandler uint32 = 28
)

func rType(funct, rs, rt, rd, sa uint32) uint32 {
	return rs<<21 | rt<<16 | rd<<11 | sa<<6 | funct
}

func iType(opcode, rs, rt, imm uint32) uint32 {
	return opcode<<26 | rs<<21 | rt<<16 | imm&0xffff
}

func jType(opcode, target uint32) uint32 {
	return opcode<<26 | target&0x03ff_ffff
}

func kType(funct, rs, rt, rd uint32) uint32 {
	return kernelOpcode<<26 | rs<<21 | rt<<16 | rd<<11 | funct
}

const nop = 0x00000000 // sll $zero, $zero, 0

// newUserState loads program into the user context with the default kernel
// and a stack window of [0x800, 0x1000).
func newUserState(t *testing.T, program ...uint32) *GenerationState {
	t.Helper()
	state, err := NewGenerationState(Config{
		StackBase:  testStackBase,
		StackLimit: testStackLimit,
		Kernel:     kernel.Default(),
	})
	require.NoError(t, err)
	require.NoError(t, state.LoadProgram(userCtx, program, 0))
	return state
}

// newKernelState runs code as the kernel image, starting in kernel mode at 0.
func newKernelState(t *testing.T, code ...uint32) *GenerationState {
	t.Helper()
	k := kernel.New(code, map[string]uint32{"main": 0})
	state, err := NewGenerationState(Config{Kernel: k})
	require.NoError(t, err)
	return state
}

func writeOps(ops []memory.MemoryOp) []memory.MemoryOp {
	var out []memory.MemoryOp
	for _, op := range ops {
		if op.Kind == memory.Write {
			out = append(out, op)
		}
	}
	return out
}

func mainMemory(ctx int, virt uint32) memory.MemoryAddress {
	return memory.NewMemoryAddress(ctx, memory.MainMemory, virt)
}

func newDefaultKernel() *kernel.Kernel {
	return kernel.Default()
}

func newKernelWithoutJumptable() *kernel.Kernel {
	return kernel.New(kernel.Default().Code, map[string]uint32{"exception_handler": testHandler})
}

// requireDistinctTimestamps checks that no two logged ops share a timestamp,
// which also makes (address, timestamp) unique.
func requireDistinctTimestamps(t *testing.T, ops []memory.MemoryOp) {
	t.Helper()
	seen := make(map[uint64]memory.MemoryOp, len(ops))
	for _, op := range ops {
		if prev, ok := seen[op.Timestamp]; ok {
			t.Fatalf("timestamp %d shared by %s and %s", op.Timestamp, prev, op)
		}
		seen[op.Timestamp] = op
	}
}
