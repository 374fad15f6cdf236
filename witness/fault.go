package witness

import (
	"fmt"

	"github.com/colorfulnotion/zkmips/memory"
	"github.com/xlab/treeprint"
)

// KernelFaultError is returned when an instruction fails in kernel mode.
// Kernel faults are never recovered.
type KernelFaultError struct {
	Err      error
	PC       uint32
	Location string
	// Op is nil when the fault happened during decode.
	Op            Operation
	Clock         uint64
	Context       int
	KernelGeneral []memory.Cell
}

func newKernelFault(state *GenerationState, pc uint32, op Operation, err error) *KernelFaultError {
	location := fmt.Sprintf("0x%x", pc)
	if state.Kernel != nil {
		location = state.Kernel.OffsetName(pc)
	}
	return &KernelFaultError{
		Err:           err,
		PC:            pc,
		Location:      location,
		Op:            op,
		Clock:         state.Traces.Clock(),
		Context:       state.Registers.Context,
		KernelGeneral: state.Memory.Segment(0, memory.KernelGeneral).Dump(),
	}
}

func (e *KernelFaultError) Error() string {
	return fmt.Sprintf("kernel fault at %s (clock %d, op %v): %v", e.Location, e.Clock, e.Op, e.Err)
}

func (e *KernelFaultError) Unwrap() error {
	return e.Err
}

// Report renders the fault as a tree for terminal output.
func (e *KernelFaultError) Report() string {
	tree := treeprint.NewWithRoot(fmt.Sprintf("kernel fault: %v", e.Err))
	tree.AddNode(fmt.Sprintf("location: %s (pc 0x%x)", e.Location, e.PC))
	tree.AddNode(fmt.Sprintf("clock: %d", e.Clock))
	tree.AddNode(fmt.Sprintf("context: %d", e.Context))
	if e.Op != nil {
		tree.AddNode(fmt.Sprintf("op: %v", e.Op))
	} else {
		tree.AddNode("op: <undecoded>")
	}
	mem := tree.AddBranch(fmt.Sprintf("KernelGeneral (%d cells)", len(e.KernelGeneral)))
	for _, c := range e.KernelGeneral {
		mem.AddNode(fmt.Sprintf("[0x%x] = 0x%x", c.Virt, c.Value))
	}
	return tree.String()
}
