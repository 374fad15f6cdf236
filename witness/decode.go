package witness

import (
	"fmt"

	"github.com/colorfulnotion/zkmips/arithmetic"
	"github.com/colorfulnotion/zkmips/logic"
	"github.com/colorfulnotion/zkmips/vmerrors"
)

// fields are the standard MIPS32 instruction fields.
type fields struct {
	opcode uint8
	rs     uint8
	rt     uint8
	rd     uint8
	sa     uint8
	funct  uint8
	imm    uint32
	target uint32
}

func splitFields(insn uint32) fields {
	return fields{
		opcode: uint8(insn >> 26),
		rs:     uint8((insn >> 21) & 0x1f),
		rt:     uint8((insn >> 16) & 0x1f),
		rd:     uint8((insn >> 11) & 0x1f),
		sa:     uint8((insn >> 6) & 0x1f),
		funct:  uint8(insn & 0x3f),
		imm:    insn & 0xffff,
		target: insn & 0x03ff_ffff,
	}
}

func sext16(v uint32) uint32 {
	return uint32(int32(int16(uint16(v))))
}

const anyFunct = -1

const kernelOpcode = 0x1f

type decodeRule struct {
	name       string
	opcode     uint8
	funct      int
	kernelOnly bool
	build      func(f fields) (Operation, error)
}

func (r decodeRule) matches(f fields, isKernel bool) bool {
	if r.opcode != f.opcode {
		return false
	}
	if r.funct != anyFunct && uint8(r.funct) != f.funct {
		return false
	}
	return isKernel || !r.kernelOnly
}

func arith(op arithmetic.BinaryOperator) func(fields) (Operation, error) {
	return func(f fields) (Operation, error) {
		return BinaryArithmetic{Op: op, Rs: f.rs, Rt: f.rt, Rd: f.rd}, nil
	}
}

func shift(op arithmetic.BinaryOperator) func(fields) (Operation, error) {
	return func(f fields) (Operation, error) {
		return BinaryArithmeticImm{Op: op, Src: f.rt, Dst: f.rd, Imm: uint32(f.sa)}, nil
	}
}

func arithImm(op arithmetic.BinaryOperator) func(fields) (Operation, error) {
	return func(f fields) (Operation, error) {
		return BinaryArithmeticImm{Op: op, Src: f.rs, Dst: f.rt, Imm: sext16(f.imm)}, nil
	}
}

func logicReg(op logic.Op) func(fields) (Operation, error) {
	return func(f fields) (Operation, error) {
		return BinaryLogic{Op: op, Rs: f.rs, Rt: f.rt, Rd: f.rd}, nil
	}
}

func logicImm(op logic.Op) func(fields) (Operation, error) {
	return func(f fields) (Operation, error) {
		return BinaryLogicImm{Op: op, Src: f.rs, Dst: f.rt, Imm: f.imm}, nil
	}
}

func branch(cond BranchCond, zero bool) func(fields) (Operation, error) {
	return func(f fields) (Operation, error) {
		src2 := f.rt
		if zero {
			src2 = RegZero
		}
		return Branch{Cond: cond, Src1: f.rs, Src2: src2, Offset: sext16(f.imm)}, nil
	}
}

// decodeTable is matched in order and the first matching rule wins. The JR
// entry at funct 0x20 can never match because ADD precedes it.
var decodeTable = []decodeRule{
	{"ADD", 0x00, 0x20, false, arith(arithmetic.ADD)},
	{"SLL", 0x00, 0x00, false, shift(arithmetic.SLL)},
	{"JR", 0x00, 0x20, false, func(f fields) (Operation, error) {
		return Jump{Link: 0, Target: f.rs}, nil
	}},
	{"JR", 0x00, 0x08, false, func(f fields) (Operation, error) {
		return Jump{Link: 0, Target: f.rs}, nil
	}},
	{"JALR", 0x00, 0x09, false, func(f fields) (Operation, error) {
		return Jump{Link: f.rd, Target: f.rs}, nil
	}},
	{"REGIMM", 0x01, anyFunct, false, func(f fields) (Operation, error) {
		switch f.rt {
		case 1:
			return branch(CondGE, true)(f)
		case 0:
			return branch(CondLT, true)(f)
		}
		return nil, fmt.Errorf("regimm rt=%d: %w", f.rt, vmerrors.ErrInvalidOpcode)
	}},
	{"J", 0x02, anyFunct, false, func(f fields) (Operation, error) {
		return Jumpi{Link: 0, Target: f.target}, nil
	}},
	{"JAL", 0x03, anyFunct, false, func(f fields) (Operation, error) {
		return Jumpi{Link: RegRA, Target: f.target}, nil
	}},
	{"BEQ", 0x04, anyFunct, false, branch(CondEQ, false)},
	{"BNE", 0x05, anyFunct, false, branch(CondNE, false)},
	{"BLEZ", 0x06, anyFunct, false, branch(CondLE, true)},
	{"BGTZ", 0x07, anyFunct, false, branch(CondGT, true)},
	{"LW", 0x23, anyFunct, false, func(f fields) (Operation, error) {
		return Mload32Bytes{Base: f.rs, Rt: f.rt, Offset: sext16(f.imm)}, nil
	}},

	{"ADDU", 0x00, 0x21, false, arith(arithmetic.ADDU)},
	{"SUB", 0x00, 0x22, false, arith(arithmetic.SUB)},
	{"SUBU", 0x00, 0x23, false, arith(arithmetic.SUBU)},
	{"AND", 0x00, 0x24, false, logicReg(logic.And)},
	{"OR", 0x00, 0x25, false, logicReg(logic.Or)},
	{"XOR", 0x00, 0x26, false, logicReg(logic.Xor)},
	{"NOR", 0x00, 0x27, false, logicReg(logic.Nor)},
	{"SLT", 0x00, 0x2a, false, arith(arithmetic.LT)},
	{"SLTU", 0x00, 0x2b, false, arith(arithmetic.LTU)},
	{"SRL", 0x00, 0x02, false, shift(arithmetic.SRL)},
	{"SRA", 0x00, 0x03, false, shift(arithmetic.SRA)},
	{"SYSCALL", 0x00, 0x0c, false, func(fields) (Operation, error) {
		return Syscall{}, nil
	}},
	{"ADDI", 0x08, anyFunct, false, arithImm(arithmetic.ADD)},
	{"ADDIU", 0x09, anyFunct, false, arithImm(arithmetic.ADDU)},
	{"SLTI", 0x0a, anyFunct, false, arithImm(arithmetic.LT)},
	{"SLTIU", 0x0b, anyFunct, false, arithImm(arithmetic.LTU)},
	{"ANDI", 0x0c, anyFunct, false, logicImm(logic.And)},
	{"ORI", 0x0d, anyFunct, false, logicImm(logic.Or)},
	{"XORI", 0x0e, anyFunct, false, logicImm(logic.Xor)},
	{"LUI", 0x0f, anyFunct, false, func(f fields) (Operation, error) {
		return BinaryArithmeticImm{Op: arithmetic.LUI, Src: RegZero, Dst: f.rt, Imm: f.imm}, nil
	}},
	{"SW", 0x2b, anyFunct, false, func(f fields) (Operation, error) {
		return Mstore32Bytes{Base: f.rs, Rt: f.rt, Offset: sext16(f.imm)}, nil
	}},

	// kernel extensions
	{"GET_CONTEXT", kernelOpcode, 0x00, true, func(f fields) (Operation, error) { return GetContext{Rd: f.rd}, nil }},
	{"SET_CONTEXT", kernelOpcode, 0x01, true, func(f fields) (Operation, error) { return SetContext{Rs: f.rs}, nil }},
	{"EXIT_KERNEL", kernelOpcode, 0x02, true, func(f fields) (Operation, error) { return ExitKernel{Rs: f.rs}, nil }},
	{"PROVER_INPUT", kernelOpcode, 0x03, true, func(f fields) (Operation, error) { return ProverInput{Rd: f.rd}, nil }},
	{"KECCAK_GENERAL", kernelOpcode, 0x04, true, func(f fields) (Operation, error) {
		return KeccakGeneral{Rs: f.rs, Rt: f.rt, Rd: f.rd}, nil
	}},
	{"PC", kernelOpcode, 0x05, true, func(f fields) (Operation, error) { return Pc{Rd: f.rd}, nil }},
	{"MLOAD_GENERAL", kernelOpcode, 0x06, true, func(f fields) (Operation, error) {
		return MloadGeneral{Addr: f.rs, Rt: f.rt}, nil
	}},
	{"MSTORE_GENERAL", kernelOpcode, 0x07, true, func(f fields) (Operation, error) {
		return MstoreGeneral{Addr: f.rs, Rt: f.rt}, nil
	}},
	{"ISZERO", kernelOpcode, 0x08, true, func(f fields) (Operation, error) { return Iszero{Rs: f.rs, Rd: f.rd}, nil }},
	{"EQ", kernelOpcode, 0x09, true, func(f fields) (Operation, error) { return Eq{Rs: f.rs, Rt: f.rt, Rd: f.rd}, nil }},
	{"NOT", kernelOpcode, 0x0a, true, func(f fields) (Operation, error) { return Not{Rs: f.rs, Rd: f.rd}, nil }},
}

// Decode turns an instruction word into an Operation. Kernel extensions only
// decode when registers are in kernel mode.
func Decode(registers RegistersState, insn uint32) (Operation, error) {
	_, op, err := decode(registers.IsKernel, insn)
	return op, err
}

// Mnemonic returns the name of the rule that decodes insn, or "" when none
// matches.
func Mnemonic(isKernel bool, insn uint32) string {
	name, _, _ := decode(isKernel, insn)
	return name
}

func decode(isKernel bool, insn uint32) (string, Operation, error) {
	f := splitFields(insn)
	for _, rule := range decodeTable {
		if rule.matches(f, isKernel) {
			op, err := rule.build(f)
			return rule.name, op, err
		}
	}
	return "", nil, fmt.Errorf("opcode=0x%02x funct=0x%02x (word 0x%08x): %w", f.opcode, f.funct, insn, vmerrors.ErrInvalidOpcode)
}
