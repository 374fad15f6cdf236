package witness

import (
	"fmt"

	"github.com/colorfulnotion/zkmips/cpu"
	"github.com/colorfulnotion/zkmips/kernel"
	"github.com/colorfulnotion/zkmips/log"
	"github.com/colorfulnotion/zkmips/memory"
	"github.com/colorfulnotion/zkmips/vmerrors"
)

// handleError records a user-mode fault as an exception cycle. It expects
// the faulted attempt to have been rolled back already.
func handleError(state *GenerationState, err error) error {
	code, ok := vmerrors.ExceptionCode(err)
	if !ok {
		return fmt.Errorf("unrecoverable fault at pc 0x%x: %w", state.Registers.ProgramCounter, err)
	}

	checkpoint := state.Checkpoint()
	row, _ := baseRow(state)
	if excErr := generateException(code, state, &row); excErr != nil {
		state.Rollback(checkpoint)
		return fmt.Errorf("exception %d at pc 0x%x: %w", code, checkpoint.Registers.ProgramCounter, excErr)
	}
	state.commit(checkpoint, &row)
	state.ExceptionCount++
	log.Debug(log.WitnessMonitoring, "Exception", "code", code, "name", vmerrors.GetErrorName(err),
		"pc", fmt.Sprintf("0x%x", checkpoint.Registers.ProgramCounter),
		"handler", fmt.Sprintf("0x%x", state.Registers.ProgramCounter))
	return nil
}

// generateException saves the faulting pc in KernelGeneral[0] of context 0
// and enters the kernel at the handler listed in the exception jumptable.
func generateException(code uint8, state *GenerationState, row *cpu.CpuColumnsView) error {
	if state.Kernel == nil {
		return fmt.Errorf("no kernel loaded: %w", vmerrors.ErrKernelPanic)
	}
	table, ok := state.Kernel.GlobalLabel(kernel.ExceptionJumptable)
	if !ok {
		return fmt.Errorf("missing label %q: %w", kernel.ExceptionJumptable, vmerrors.ErrKernelPanic)
	}

	row.Op.Exception = cpu.One
	row.General.Exception.ExcCode[code] = cpu.One

	faultPC := state.Registers.ProgramCounter
	state.Traces.PushMemory(memWriteGpLogAndFill(0, kernelGeneralAddress(0), state, row, faultPC))

	entry := memory.NewMemoryAddress(0, memory.Code, table+4*uint32(code))
	handler, op := memReadGpWithLogAndFill(1, entry, state, row)
	state.Traces.PushMemory(op)
	row.General.Exception.HandlerAddr = cpu.FromUint32(handler)

	state.Registers.ProgramCounter = handler
	state.Registers.IsKernel = true
	return nil
}
