// Package logic is the generator interface to the bitwise logic sub-circuit.
package logic

import "fmt"

type Op uint8

const (
	And Op = iota
	Or
	Xor
	Nor
)

func (op Op) String() string {
	switch op {
	case And:
		return "AND"
	case Or:
		return "OR"
	case Xor:
		return "XOR"
	case Nor:
		return "NOR"
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

func (op Op) Result(a, b uint32) uint32 {
	switch op {
	case And:
		return a & b
	case Or:
		return a | b
	case Xor:
		return a ^ b
	case Nor:
		return ^(a | b)
	default:
		panic(fmt.Sprintf("logic: unknown op %d", uint8(op)))
	}
}

// Operation is one row request for the logic table.
type Operation struct {
	Operator Op     `json:"operator"`
	Input0   uint32 `json:"input0"`
	Input1   uint32 `json:"input1"`
	Result   uint32 `json:"result"`
}

func NewOperation(op Op, input0, input1 uint32) Operation {
	return Operation{Operator: op, Input0: input0, Input1: input1, Result: op.Result(input0, input1)}
}
