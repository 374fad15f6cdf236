package witness

import (
	"testing"

	"github.com/colorfulnotion/zkmips/arithmetic"
	"github.com/colorfulnotion/zkmips/logic"
	"github.com/colorfulnotion/zkmips/vmerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var user = RegistersState{}
var kernelMode = RegistersState{IsKernel: true}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		insn uint32
		want Operation
	}{
		{"add", 0x00221820, BinaryArithmetic{Op: arithmetic.ADD, Rs: 1, Rt: 2, Rd: 3}},
		{"sll", rType(0x00, 0, 4, 5, 3), BinaryArithmeticImm{Op: arithmetic.SLL, Src: 4, Dst: 5, Imm: 3}},
		{"srl", rType(0x02, 0, 4, 5, 31), BinaryArithmeticImm{Op: arithmetic.SRL, Src: 4, Dst: 5, Imm: 31}},
		{"jr", rType(0x08, 31, 0, 0, 0), Jump{Link: 0, Target: 31}},
		{"jalr", rType(0x09, 4, 0, 31, 0), Jump{Link: 31, Target: 4}},
		{"bgez", iType(0x01, 3, 1, 0xfffe), Branch{Cond: CondGE, Src1: 3, Src2: 0, Offset: 0xfffffffe}},
		{"bltz", iType(0x01, 3, 0, 2), Branch{Cond: CondLT, Src1: 3, Src2: 0, Offset: 2}},
		{"j", 0x08000010, Jumpi{Link: 0, Target: 0x10}},
		{"jal", jType(0x03, 0x10), Jumpi{Link: 31, Target: 0x10}},
		{"beq", iType(0x04, 1, 2, 4), Branch{Cond: CondEQ, Src1: 1, Src2: 2, Offset: 4}},
		{"bne", iType(0x05, 1, 2, 4), Branch{Cond: CondNE, Src1: 1, Src2: 2, Offset: 4}},
		{"blez", iType(0x06, 1, 7, 4), Branch{Cond: CondLE, Src1: 1, Src2: 0, Offset: 4}},
		{"bgtz", iType(0x07, 1, 7, 4), Branch{Cond: CondGT, Src1: 1, Src2: 0, Offset: 4}},
		{"lw negative offset", iType(0x23, 29, 5, 0xfffc), Mload32Bytes{Base: 29, Rt: 5, Offset: 0xfffffffc}},
		{"sw", iType(0x2b, 29, 5, 8), Mstore32Bytes{Base: 29, Rt: 5, Offset: 8}},
		{"addiu sign extends", iType(0x09, 0, 2, 0xffff), BinaryArithmeticImm{Op: arithmetic.ADDU, Src: 0, Dst: 2, Imm: 0xffffffff}},
		{"ori zero extends", iType(0x0d, 1, 2, 0xffff), BinaryLogicImm{Op: logic.Or, Src: 1, Dst: 2, Imm: 0xffff}},
		{"lui", iType(0x0f, 0, 2, 0x1234), BinaryArithmeticImm{Op: arithmetic.LUI, Src: 0, Dst: 2, Imm: 0x1234}},
		{"slt", rType(0x2a, 1, 2, 3, 0), BinaryArithmetic{Op: arithmetic.LT, Rs: 1, Rt: 2, Rd: 3}},
		{"nor", rType(0x27, 1, 2, 3, 0), BinaryLogic{Op: logic.Nor, Rs: 1, Rt: 2, Rd: 3}},
		{"syscall", 0x0000000c, Syscall{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			op, err := Decode(user, tc.insn)
			require.NoError(t, err)
			assert.Equal(t, tc.want, op)
		})
	}
}

func TestDecodeFirstMatchWins(t *testing.T) {
	// The table carries a JR rule at funct 0x20 that ADD shadows.
	var shadowed bool
	for i, rule := range decodeTable {
		if rule.opcode == 0 && rule.funct == 0x20 && rule.name == "JR" {
			require.Greater(t, i, 0)
			assert.Equal(t, "ADD", decodeTable[0].name)
			shadowed = true
		}
	}
	require.True(t, shadowed)

	insn := rType(0x20, 1, 2, 3, 0)
	op, err := Decode(user, insn)
	require.NoError(t, err)
	assert.IsType(t, BinaryArithmetic{}, op)
	assert.Equal(t, "ADD", Mnemonic(false, insn))
}

func TestDecodeInvalid(t *testing.T) {
	for _, insn := range []uint32{
		0xfc000000,           // opcode 0x3f
		0x00000018,           // mult is not supported
		iType(0x01, 1, 2, 0), // regimm rt=2
		kType(0x05, 0, 0, 1), // kernel-only in user mode
		kType(0x3f, 0, 0, 1), // unknown kernel funct
	} {
		_, err := Decode(user, insn)
		require.Error(t, err, "0x%08x", insn)
		assert.ErrorIs(t, err, vmerrors.ErrInvalidOpcode)
	}
}

func TestDecodeKernelOnly(t *testing.T) {
	tests := []struct {
		insn uint32
		want Operation
	}{
		{kType(0x00, 0, 0, 3), GetContext{Rd: 3}},
		{kType(0x01, 4, 0, 0), SetContext{Rs: 4}},
		{kType(0x02, 31, 0, 0), ExitKernel{Rs: 31}},
		{kType(0x03, 0, 0, 9), ProverInput{Rd: 9}},
		{kType(0x04, 1, 2, 3), KeccakGeneral{Rs: 1, Rt: 2, Rd: 3}},
		{kType(0x05, 0, 0, 8), Pc{Rd: 8}},
		{kType(0x06, 1, 2, 0), MloadGeneral{Addr: 1, Rt: 2}},
		{kType(0x07, 1, 2, 0), MstoreGeneral{Addr: 1, Rt: 2}},
		{kType(0x08, 1, 0, 3), Iszero{Rs: 1, Rd: 3}},
		{kType(0x09, 1, 2, 3), Eq{Rs: 1, Rt: 2, Rd: 3}},
		{kType(0x0a, 1, 0, 3), Not{Rs: 1, Rd: 3}},
	}
	for _, tc := range tests {
		op, err := Decode(kernelMode, tc.insn)
		require.NoError(t, err)
		assert.Equal(t, tc.want, op)

		_, err = Decode(user, tc.insn)
		assert.ErrorIs(t, err, vmerrors.ErrInvalidOpcode)
	}
}

func TestDecodeIsDeterministic(t *testing.T) {
	for insn := uint32(0); insn < 1<<16; insn += 97 {
		for _, regs := range []RegistersState{user, kernelMode} {
			w := insn*65537 + 13
			op1, err1 := Decode(regs, w)
			op2, err2 := Decode(regs, w)
			assert.Equal(t, op1, op2)
			assert.Equal(t, err1 == nil, err2 == nil)
		}
	}
}
