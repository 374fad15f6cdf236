package witness

import (
	"fmt"
	"strings"

	"github.com/colorfulnotion/zkmips/cpu"
	"github.com/colorfulnotion/zkmips/log"
	"github.com/colorfulnotion/zkmips/memory"
)

// baseRow builds the row shell for the current cycle and fetches the
// instruction word through the code channel.
func baseRow(state *GenerationState) (cpu.CpuColumnsView, uint32) {
	var row cpu.CpuColumnsView
	regs := state.Registers
	state.bulkSlot = 0
	row.Clock = cpu.FromUint64(state.Traces.Clock())
	row.Context = cpu.FromUint64(uint64(regs.Context))
	row.CodeContext = cpu.FromUint64(uint64(regs.CodeContext()))
	row.ProgramCounter = cpu.FromUint32(regs.ProgramCounter)
	row.IsKernelMode = cpu.FromBool(regs.IsKernel)

	address := memory.NewMemoryAddress(regs.CodeContext(), memory.Code, regs.ProgramCounter)
	opcode, op := memReadCodeWithLogAndFill(address, state, &row)
	state.Traces.PushMemory(op)
	row.Opcode = cpu.FromUint32(opcode)
	return row, opcode
}

func fillOpFlag(op Operation, row *cpu.CpuColumnsView) {
	flags := &row.Op
	var flag *cpu.F
	switch op.(type) {
	case BinaryArithmetic, BinaryArithmeticImm:
		flag = &flags.BinaryOp
	case BinaryLogic, BinaryLogicImm:
		flag = &flags.LogicOp
	case Jump, Jumpi:
		flag = &flags.Jumps
	case Branch:
		flag = &flags.Branch
	case Syscall:
		flag = &flags.Syscall
	case Mload32Bytes:
		flag = &flags.Mload32Bytes
	case Mstore32Bytes:
		flag = &flags.Mstore32Bytes
	case MloadGeneral, MstoreGeneral:
		flag = &flags.MOpGeneral
	case GetContext:
		flag = &flags.GetContext
	case SetContext:
		flag = &flags.SetContext
	case ExitKernel:
		flag = &flags.ExitKernel
	case Iszero, Eq:
		flag = &flags.EqIszero
	case Not:
		flag = &flags.Not
	case Pc:
		flag = &flags.Pc
	case ProverInput:
		flag = &flags.ProverInput
	case KeccakGeneral:
		flag = &flags.KeccakGeneral
	default:
		panic(fmt.Sprintf("fillOpFlag: unhandled operation %T", op))
	}
	*flag = cpu.One
}

func performOp(op Operation, state *GenerationState, row *cpu.CpuColumnsView) error {
	var err error
	switch o := op.(type) {
	case BinaryArithmetic:
		err = generateBinaryArithmetic(o, state, row)
	case BinaryArithmeticImm:
		err = generateBinaryArithmeticImm(o, state, row)
	case BinaryLogic:
		err = generateBinaryLogic(o, state, row)
	case BinaryLogicImm:
		err = generateBinaryLogicImm(o, state, row)
	case Jump:
		err = generateJump(o, state, row)
	case Jumpi:
		err = generateJumpi(o, state, row)
	case Branch:
		err = generateBranch(o, state, row)
	case Syscall:
		err = generateSyscall(state, row)
	case Mload32Bytes:
		err = generateMload32Bytes(o, state, row)
	case Mstore32Bytes:
		err = generateMstore32Bytes(o, state, row)
	case MloadGeneral:
		err = generateMloadGeneral(o, state, row)
	case MstoreGeneral:
		err = generateMstoreGeneral(o, state, row)
	case GetContext:
		err = generateGetContext(o, state, row)
	case SetContext:
		err = generateSetContext(o, state, row)
	case ExitKernel:
		err = generateExitKernel(o, state, row)
	case Iszero:
		err = generateIszero(o, state, row)
	case Eq:
		err = generateEq(o, state, row)
	case Not:
		err = generateNot(o, state, row)
	case Pc:
		err = generatePc(o, state, row)
	case ProverInput:
		err = generateProverInput(o, state, row)
	case KeccakGeneral:
		err = generateKeccakGeneral(o, state, row)
	default:
		panic(fmt.Sprintf("performOp: unhandled operation %T", op))
	}
	if err != nil {
		return err
	}

	switch op.(type) {
	case Jump, Jumpi, Branch, Syscall, ExitKernel:
	default:
		state.Registers.ProgramCounter += 4
	}
	return nil
}

// tryPerformInstruction runs one instruction against speculative state. The
// decoded operation is returned even when execution fails.
func tryPerformInstruction(state *GenerationState) (Operation, cpu.CpuColumnsView, error) {
	row, opcode := baseRow(state)
	op, err := Decode(state.Registers, opcode)
	if err != nil {
		return nil, row, err
	}
	if state.Registers.IsKernel {
		logKernelInstruction(state, op)
	} else {
		log.Debug(log.WitnessMonitoring, "User instruction", "pc", fmt.Sprintf("0x%x", state.Registers.ProgramCounter), "op", op)
	}
	fillOpFlag(op, &row)
	if err := performOp(op, state, &row); err != nil {
		return op, row, err
	}
	return op, row, nil
}

func logKernelInstruction(state *GenerationState, op Operation) {
	if !log.DebugEnabled(log.KernelMonitoring) || state.Kernel == nil {
		return
	}
	pc := state.Registers.ProgramCounter
	label, labelled := state.Kernel.OffsetLabel(pc)
	args := []interface{}{
		"clock", state.Traces.Clock(),
		"pc", state.Kernel.OffsetName(pc),
		"op", op,
	}
	if labelled && !strings.HasPrefix(label, "halt") {
		log.Debug(log.KernelMonitoring, "Kernel instruction", args...)
	} else {
		log.Trace(log.KernelMonitoring, "Kernel instruction", args...)
	}
}

// Transition executes one cycle. Either the instruction commits, or a user
// fault is rolled back and replaced by an exception cycle. Kernel faults and
// faults without an exception code are returned as errors; the state is left
// at the last committed cycle.
func Transition(state *GenerationState) error {
	checkpoint := state.Checkpoint()
	op, row, err := tryPerformInstruction(state)
	if err == nil {
		state.commit(checkpoint, &row)
		return nil
	}

	if checkpoint.Registers.IsKernel {
		state.Rollback(checkpoint)
		fault := newKernelFault(state, checkpoint.Registers.ProgramCounter, op, err)
		log.Error(log.KernelMonitoring, "Kernel panic", "pc", fault.Location, "op", op, "err", err)
		return fault
	}

	state.Rollback(checkpoint)
	log.Debug(log.WitnessMonitoring, "User fault", "pc", fmt.Sprintf("0x%x", checkpoint.Registers.ProgramCounter), "err", err)
	return handleError(state, err)
}
