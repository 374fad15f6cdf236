package arithmetic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult(t *testing.T) {
	cases := []struct {
		op     BinaryOperator
		a, b   uint32
		expect uint32
	}{
		{ADD, 3, 4, 7},
		{ADD, 0xffffffff, 1, 0},
		{ADDU, 0x80000000, 0x80000000, 0},
		{SUB, 3, 4, 0xffffffff},
		{SUBU, 10, 4, 6},
		{SLL, 1, 31, 0x80000000},
		{SLL, 1, 33, 2},
		{SRL, 0x80000000, 31, 1},
		{SRA, 0x80000000, 31, 0xffffffff},
		{LT, 0xffffffff, 0, 1},
		{LT, 0, 0xffffffff, 0},
		{LTU, 0, 0xffffffff, 1},
		{LTU, 0xffffffff, 0, 0},
		{LUI, 0, 0x1234, 0x12340000},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expect, tc.op.Result(tc.a, tc.b), "%s(%#x, %#x)", tc.op, tc.a, tc.b)
	}
}

func TestNewBinaryOperation(t *testing.T) {
	op := NewBinaryOperation(ADD, 1, 2)
	assert.Equal(t, Operation{Operator: ADD, Input0: 1, Input1: 2, Output: 3}, op)
	assert.Equal(t, "SRA", SRA.String())
	assert.Equal(t, "BinaryOperator(200)", BinaryOperator(200).String())
}
