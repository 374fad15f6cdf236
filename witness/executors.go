package witness

import (
	"fmt"

	"github.com/colorfulnotion/zkmips/arithmetic"
	"github.com/colorfulnotion/zkmips/cpu"
	"github.com/colorfulnotion/zkmips/keccak"
	"github.com/colorfulnotion/zkmips/logic"
	"github.com/colorfulnotion/zkmips/memory"
	"github.com/colorfulnotion/zkmips/syscalls"
	"github.com/colorfulnotion/zkmips/vmerrors"
)

func fillArithmetic(row *cpu.CpuColumnsView, op arithmetic.Operation) {
	row.General.Arithmetic = cpu.ArithmeticColumnsView{
		Operator: cpu.FromUint64(uint64(op.Operator)),
		Input0:   cpu.FromUint32(op.Input0),
		Input1:   cpu.FromUint32(op.Input1),
		Output:   cpu.FromUint32(op.Output),
	}
}

func fillLogic(row *cpu.CpuColumnsView, op logic.Operation) {
	row.General.Logic = cpu.LogicColumnsView{
		Operator: cpu.FromUint64(uint64(op.Operator)),
		Input0:   cpu.FromUint32(op.Input0),
		Input1:   cpu.FromUint32(op.Input1),
		Output:   cpu.FromUint32(op.Result),
	}
}

func generateBinaryArithmetic(op BinaryArithmetic, state *GenerationState, row *cpu.CpuColumnsView) error {
	in0 := readRegister(0, op.Rs, state, row)
	in1 := readRegister(1, op.Rt, state, row)
	operation := arithmetic.NewBinaryOperation(op.Op, in0, in1)
	fillArithmetic(row, operation)
	writeRegister(2, op.Rd, operation.Output, state, row)
	state.Traces.PushArithmetic(operation)
	return nil
}

func generateBinaryArithmeticImm(op BinaryArithmeticImm, state *GenerationState, row *cpu.CpuColumnsView) error {
	in0 := readRegister(0, op.Src, state, row)
	operation := arithmetic.NewBinaryOperation(op.Op, in0, op.Imm)
	fillArithmetic(row, operation)
	writeRegister(1, op.Dst, operation.Output, state, row)
	state.Traces.PushArithmetic(operation)
	return nil
}

func generateBinaryLogic(op BinaryLogic, state *GenerationState, row *cpu.CpuColumnsView) error {
	in0 := readRegister(0, op.Rs, state, row)
	in1 := readRegister(1, op.Rt, state, row)
	operation := logic.NewOperation(op.Op, in0, in1)
	fillLogic(row, operation)
	writeRegister(2, op.Rd, operation.Result, state, row)
	state.Traces.PushLogic(operation)
	return nil
}

func generateBinaryLogicImm(op BinaryLogicImm, state *GenerationState, row *cpu.CpuColumnsView) error {
	in0 := readRegister(0, op.Src, state, row)
	operation := logic.NewOperation(op.Op, in0, op.Imm)
	fillLogic(row, operation)
	writeRegister(1, op.Dst, operation.Result, state, row)
	state.Traces.PushLogic(operation)
	return nil
}

func jumpTo(target uint32, link uint8, linkChannel int, state *GenerationState, row *cpu.CpuColumnsView) error {
	if !state.isValidJumpDest(target) {
		return fmt.Errorf("jump to 0x%x: %w", target, vmerrors.ErrInvalidJumpDestination)
	}
	linkValue := state.Registers.ProgramCounter + 4
	writeRegister(linkChannel, link, linkValue, state, row)
	row.General.Jumps = cpu.JumpsColumnsView{
		Target:     cpu.FromUint32(target),
		LinkReg:    cpu.FromUint64(uint64(link)),
		LinkValue:  cpu.FromUint32(linkValue),
		ShouldJump: cpu.One,
	}
	state.Registers.ProgramCounter = target
	return nil
}

func generateJump(op Jump, state *GenerationState, row *cpu.CpuColumnsView) error {
	target := readRegister(0, op.Target, state, row)
	return jumpTo(target, op.Link, 1, state, row)
}

func generateJumpi(op Jumpi, state *GenerationState, row *cpu.CpuColumnsView) error {
	target := ((state.Registers.ProgramCounter + 4) & 0xf000_0000) | (op.Target << 2)
	return jumpTo(target, op.Link, 0, state, row)
}

func generateBranch(op Branch, state *GenerationState, row *cpu.CpuColumnsView) error {
	a := readRegister(0, op.Src1, state, row)
	b := readRegister(1, op.Src2, state, row)
	taken := op.Cond.Holds(a, b)
	pc := state.Registers.ProgramCounter
	target := pc + 4 + (op.Offset << 2)

	diff := cpu.Diff(a, b)
	row.General.Branch = cpu.BranchColumnsView{
		Diff:       diff,
		DiffInv:    cpu.Inverse(diff),
		SignBit:    cpu.FromUint32(a >> 31),
		ShouldJump: cpu.FromBool(taken),
		Target:     cpu.FromUint32(target),
	}
	if !taken {
		state.Registers.ProgramCounter = pc + 4
		return nil
	}
	if !state.isValidJumpDest(target) {
		return fmt.Errorf("branch to 0x%x: %w", target, vmerrors.ErrInvalidJumpiDestination)
	}
	state.Registers.ProgramCounter = target
	return nil
}

// dataAddress resolves reg[base]+offset to a data address, applying the
// alignment and stack window checks.
func dataAddress(base uint8, baseValue, offset uint32, state *GenerationState) (memory.MemoryAddress, error) {
	addr := baseValue + offset
	if addr%4 != 0 {
		return memory.MemoryAddress{}, fmt.Errorf("unaligned word access at 0x%x: %w", addr, vmerrors.ErrUnalignedAccess)
	}
	if base == RegSP && state.StackBase != 0 {
		if addr >= state.StackBase {
			return memory.MemoryAddress{}, fmt.Errorf("$sp access at 0x%x, base 0x%x: %w", addr, state.StackBase, vmerrors.ErrStackUnderflow)
		}
		if addr < state.StackLimit {
			return memory.MemoryAddress{}, fmt.Errorf("$sp access at 0x%x, limit 0x%x: %w", addr, state.StackLimit, vmerrors.ErrStackOverflow)
		}
	}
	return memory.NewMemoryAddress(state.Registers.Context, state.dataSegment(addr), addr), nil
}

func generateMload32Bytes(op Mload32Bytes, state *GenerationState, row *cpu.CpuColumnsView) error {
	base := readRegister(0, op.Base, state, row)
	address, err := dataAddress(op.Base, base, op.Offset, state)
	if err != nil {
		return err
	}
	val, memOp := memReadGpWithLogAndFill(1, address, state, row)
	state.Traces.PushMemory(memOp)
	writeRegister(2, op.Rt, val, state, row)
	return nil
}

func generateMstore32Bytes(op Mstore32Bytes, state *GenerationState, row *cpu.CpuColumnsView) error {
	base := readRegister(0, op.Base, state, row)
	address, err := dataAddress(op.Base, base, op.Offset, state)
	if err != nil {
		return err
	}
	val := readRegister(1, op.Rt, state, row)
	state.Traces.PushMemory(memWriteGpLogAndFill(2, address, state, row, val))
	return nil
}

func generateSyscall(state *GenerationState, row *cpu.CpuColumnsView) error {
	id := readRegister(0, syscalls.RegV0, state, row)
	var args [3]uint32
	for i := range args {
		args[i] = readRegister(i+1, syscalls.RegA0+uint8(i), state, row)
	}
	row.General.Syscall.ID = cpu.FromUint32(id)
	for i, a := range args {
		row.General.Syscall.Args[i] = cpu.FromUint32(a)
	}

	switch id {
	case syscalls.HALT:
		state.Registers.Halted = true
		state.Registers.ExitCode = args[0]
		return nil
	case syscalls.WRITE:
		fd, buf, count := args[0], args[1], args[2]
		if fd != syscalls.FdStdout && fd != syscalls.FdStderr {
			return fmt.Errorf("write to fd %d: %w", fd, vmerrors.ErrInvalidOpcode)
		}
		data, err := readBytes(state, buf, count)
		if err != nil {
			return fmt.Errorf("write to fd %d: %w", fd, err)
		}
		if fd == syscalls.FdStdout {
			state.Stdout = append(state.Stdout, data...)
		} else {
			state.Stderr = append(state.Stderr, data...)
		}
		writeRegisterUnfilled(syscalls.RegV0, count, state)
	case syscalls.COMMIT:
		state.PublicValues = append(state.PublicValues, PublicValue{Key: args[0], Value: args[1]})
	case syscalls.HINT_LEN:
		var n uint32
		if hint, ok := state.nextHint(); ok {
			n = uint32(len(hint))
		}
		writeRegisterUnfilled(syscalls.RegV0, n, state)
	case syscalls.HINT_READ:
		hint, ok := state.nextHint()
		if !ok {
			return fmt.Errorf("hint read with empty hint stream: %w", vmerrors.ErrProverInput)
		}
		if uint32(len(hint)) != args[1] {
			return fmt.Errorf("hint read of %d bytes, next hint has %d: %w", args[1], len(hint), vmerrors.ErrProverInput)
		}
		if err := writeWords(state, args[0], packWords(hint)); err != nil {
			return err
		}
		state.io.hint++
	default:
		return fmt.Errorf("syscall %d: %w", id, vmerrors.ErrInvalidOpcode)
	}
	state.Registers.ProgramCounter += 4
	return nil
}

func kernelGeneralAddress(virt uint32) memory.MemoryAddress {
	return memory.NewMemoryAddress(0, memory.KernelGeneral, virt)
}

func generateMloadGeneral(op MloadGeneral, state *GenerationState, row *cpu.CpuColumnsView) error {
	virt := readRegister(0, op.Addr, state, row)
	val, memOp := memReadGpWithLogAndFill(1, kernelGeneralAddress(virt), state, row)
	state.Traces.PushMemory(memOp)
	writeRegister(2, op.Rt, val, state, row)
	return nil
}

func generateMstoreGeneral(op MstoreGeneral, state *GenerationState, row *cpu.CpuColumnsView) error {
	virt := readRegister(0, op.Addr, state, row)
	val := readRegister(1, op.Rt, state, row)
	state.Traces.PushMemory(memWriteGpLogAndFill(2, kernelGeneralAddress(virt), state, row, val))
	return nil
}

func generateGetContext(op GetContext, state *GenerationState, row *cpu.CpuColumnsView) error {
	writeRegister(0, op.Rd, uint32(state.Registers.Context), state, row)
	return nil
}

func generateSetContext(op SetContext, state *GenerationState, row *cpu.CpuColumnsView) error {
	ctx := readRegister(0, op.Rs, state, row)
	if ctx >= uint32(state.Memory.NumContexts()) {
		return fmt.Errorf("set context %d of %d: %w", ctx, state.Memory.NumContexts(), vmerrors.ErrInvalidContext)
	}
	state.Registers.Context = int(ctx)
	return nil
}

func generateExitKernel(op ExitKernel, state *GenerationState, row *cpu.CpuColumnsView) error {
	target := readRegister(0, op.Rs, state, row)
	state.Registers.IsKernel = false
	if !state.isValidJumpDest(target) {
		return fmt.Errorf("exit kernel to 0x%x in context %d: %w", target, state.Registers.Context, vmerrors.ErrInvalidJumpDestination)
	}
	row.General.Jumps.Target = cpu.FromUint32(target)
	row.General.Jumps.ShouldJump = cpu.One
	state.Registers.ProgramCounter = target
	return nil
}

func fillZeroCheck(row *cpu.CpuColumnsView, a, b uint32) uint32 {
	diff := cpu.Diff(a, b)
	var out uint32
	if a == b {
		out = 1
	}
	row.General.ZeroCheck = cpu.ZeroCheckColumnsView{
		Diff:    diff,
		DiffInv: cpu.Inverse(diff),
		Output:  cpu.FromUint32(out),
	}
	return out
}

func generateIszero(op Iszero, state *GenerationState, row *cpu.CpuColumnsView) error {
	a := readRegister(0, op.Rs, state, row)
	writeRegister(1, op.Rd, fillZeroCheck(row, a, 0), state, row)
	return nil
}

func generateEq(op Eq, state *GenerationState, row *cpu.CpuColumnsView) error {
	a := readRegister(0, op.Rs, state, row)
	b := readRegister(1, op.Rt, state, row)
	writeRegister(2, op.Rd, fillZeroCheck(row, a, b), state, row)
	return nil
}

// generateNot is NOR with zero.
func generateNot(op Not, state *GenerationState, row *cpu.CpuColumnsView) error {
	a := readRegister(0, op.Rs, state, row)
	operation := logic.NewOperation(logic.Nor, a, 0)
	fillLogic(row, operation)
	writeRegister(1, op.Rd, operation.Result, state, row)
	state.Traces.PushLogic(operation)
	return nil
}

func generatePc(op Pc, state *GenerationState, row *cpu.CpuColumnsView) error {
	writeRegister(0, op.Rd, state.Registers.ProgramCounter, state, row)
	return nil
}

func generateProverInput(op ProverInput, state *GenerationState, row *cpu.CpuColumnsView) error {
	val, ok := state.nextProverInput()
	if !ok {
		return fmt.Errorf("prover input stream exhausted: %w", vmerrors.ErrProverInput)
	}
	writeRegister(0, op.Rd, val, state, row)
	state.io.prover++
	return nil
}

func generateKeccakGeneral(op KeccakGeneral, state *GenerationState, row *cpu.CpuColumnsView) error {
	addr := readRegister(0, op.Rs, state, row)
	length := readRegister(1, op.Rt, state, row)
	dest := readRegister(2, op.Rd, state, row)

	input, err := readBytes(state, addr, length)
	if err != nil {
		return err
	}
	base := memory.NewMemoryAddress(state.Registers.Context, state.dataSegment(addr), addr)
	sponge := keccak.NewSpongeOp(state.Traces.Clock(), base, input)
	words := keccak.DigestWords(sponge.Digest)
	if err := writeWords(state, dest, words[:]); err != nil {
		return err
	}
	state.Traces.PushKeccak(sponge)
	return nil
}
