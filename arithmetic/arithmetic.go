// Package arithmetic is the generator interface to the arithmetic
// sub-circuit: the CPU hands it operands and records the resulting
// operation so the arithmetic table can later prove it.
package arithmetic

import "fmt"

type BinaryOperator uint8

const (
	ADD BinaryOperator = iota
	ADDU
	SUB
	SUBU
	SLL
	SRL
	SRA
	LT  // signed less-than (SLT, SLTI)
	LTU // unsigned less-than (SLTU, SLTIU)
	LUI
)

var operatorNames = map[BinaryOperator]string{
	ADD:  "ADD",
	ADDU: "ADDU",
	SUB:  "SUB",
	SUBU: "SUBU",
	SLL:  "SLL",
	SRL:  "SRL",
	SRA:  "SRA",
	LT:   "LT",
	LTU:  "LTU",
	LUI:  "LUI",
}

func (op BinaryOperator) String() string {
	if name, ok := operatorNames[op]; ok {
		return name
	}
	return fmt.Sprintf("BinaryOperator(%d)", uint8(op))
}

// Result computes op(input0, input1). ADD and SUB wrap like their unsigned
// forms; overflow traps are not modelled. Shift amounts use the low 5 bits.
func (op BinaryOperator) Result(input0, input1 uint32) uint32 {
	switch op {
	case ADD, ADDU:
		return input0 + input1
	case SUB, SUBU:
		return input0 - input1
	case SLL:
		return input0 << (input1 & 0x1f)
	case SRL:
		return input0 >> (input1 & 0x1f)
	case SRA:
		return uint32(int32(input0) >> (input1 & 0x1f))
	case LT:
		if int32(input0) < int32(input1) {
			return 1
		}
		return 0
	case LTU:
		if input0 < input1 {
			return 1
		}
		return 0
	case LUI:
		return input1 << 16
	default:
		panic(fmt.Sprintf("arithmetic: unknown operator %d", uint8(op)))
	}
}

// Operation is one row request for the arithmetic table.
type Operation struct {
	Operator BinaryOperator `json:"operator"`
	Input0   uint32         `json:"input0"`
	Input1   uint32         `json:"input1"`
	Output   uint32         `json:"output"`
}

func NewBinaryOperation(op BinaryOperator, input0, input1 uint32) Operation {
	return Operation{
		Operator: op,
		Input0:   input0,
		Input1:   input1,
		Output:   op.Result(input0, input1),
	}
}
