// Package cpu defines the CPU trace row: one cycle's worth of Goldilocks
// field columns.
package cpu

import (
	"fmt"
	"reflect"

	"github.com/colorfulnotion/zkmips/memory"
	"github.com/colorfulnotion/zkmips/vmerrors"
	"github.com/consensys/gnark-crypto/field/goldilocks"
)

// F is the field every trace column lives in.
type F = goldilocks.Element

var (
	Zero = goldilocks.NewElement(0)
	One  = goldilocks.NewElement(1)
)

func FromUint64(v uint64) F {
	return goldilocks.NewElement(v)
}

func FromUint32(v uint32) F {
	return goldilocks.NewElement(uint64(v))
}

func FromBool(b bool) F {
	if b {
		return One
	}
	return Zero
}

// Inverse returns x^-1, or zero when x is zero.
func Inverse(x F) F {
	var inv F
	if x.IsZero() {
		return inv
	}
	inv.Inverse(&x)
	return inv
}

// Diff returns a-b computed in the field.
func Diff(a, b uint32) F {
	fa, fb := FromUint32(a), FromUint32(b)
	var d F
	d.Sub(&fa, &fb)
	return d
}

// MemoryChannelView describes one memory access performed by the row.
type MemoryChannelView struct {
	Used        F
	IsRead      F
	AddrContext F
	AddrSegment F
	AddrVirtual F
	Value       F
}

// OpsColumnsView holds the one-hot operation-class flags.
type OpsColumnsView struct {
	BinaryOp      F // ADD, SUB, SLL, SLT, ...
	LogicOp       F // AND, OR, XOR, NOR
	EqIszero      F
	Not           F
	Syscall       F
	Jumps         F // register and immediate jumps
	Branch        F
	Pc            F
	GetContext    F
	SetContext    F
	Mload32Bytes  F
	Mstore32Bytes F
	MOpGeneral    F
	ExitKernel    F
	ProverInput   F
	KeccakGeneral F
	Exception     F
}

type ArithmeticColumnsView struct {
	Operator F
	Input0   F
	Input1   F
	Output   F
}

type LogicColumnsView struct {
	Operator F
	Input0   F
	Input1   F
	Output   F
}

type JumpsColumnsView struct {
	Target     F
	LinkReg    F
	LinkValue  F
	ShouldJump F
}

// BranchColumnsView carries the comparison witnesses: DiffInv is the
// inverse of Diff (zero when Diff is zero) and SignBit is bit 31 of the
// first operand.
type BranchColumnsView struct {
	Diff       F
	DiffInv    F
	SignBit    F
	ShouldJump F
	Target     F
}

type ZeroCheckColumnsView struct {
	Diff    F
	DiffInv F
	Output  F
}

type SyscallColumnsView struct {
	ID   F
	Args [4]F
}

type ExceptionColumnsView struct {
	ExcCode     [vmerrors.NumExceptionCodes]F
	HandlerAddr F
}

// GeneralColumnsView groups the operation-specific auxiliary columns.
type GeneralColumnsView struct {
	Arithmetic ArithmeticColumnsView
	Logic      LogicColumnsView
	Jumps      JumpsColumnsView
	Branch     BranchColumnsView
	ZeroCheck  ZeroCheckColumnsView
	Syscall    SyscallColumnsView
	Exception  ExceptionColumnsView
}

type CpuColumnsView struct {
	Clock          F
	Context        F
	CodeContext    F
	ProgramCounter F
	IsKernelMode   F
	Opcode         F

	Op      OpsColumnsView
	General GeneralColumnsView

	CodeChannel MemoryChannelView
	MemChannels [memory.NumGPChannels]MemoryChannelView
}

// Column is a named, canonical column value.
type Column struct {
	Name  string `json:"name"`
	Value uint64 `json:"value"`
}

var elementType = reflect.TypeOf(F{})

// Columns flattens the row into named columns in declaration order, e.g.
// "Op.BinaryOp" or "MemChannels[2].Value".
func (r *CpuColumnsView) Columns() []Column {
	cols := make([]Column, 0, 128)
	flatten(reflect.ValueOf(r).Elem(), "", &cols)
	return cols
}

func flatten(v reflect.Value, prefix string, cols *[]Column) {
	if v.Type() == elementType {
		e := v.Interface().(F)
		*cols = append(*cols, Column{Name: prefix, Value: e.Uint64()})
		return
	}
	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			name := v.Type().Field(i).Name
			if prefix != "" {
				name = prefix + "." + name
			}
			flatten(v.Field(i), name, cols)
		}
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			flatten(v.Index(i), fmt.Sprintf("%s[%d]", prefix, i), cols)
		}
	default:
		panic(fmt.Sprintf("cpu: unexpected column kind %s at %s", v.Kind(), prefix))
	}
}

// ActiveFlags returns the names of the operation flags set in the row.
func (o *OpsColumnsView) ActiveFlags() []string {
	var active []string
	v := reflect.ValueOf(o).Elem()
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i).Interface().(F)
		if !f.IsZero() {
			active = append(active, v.Type().Field(i).Name)
		}
	}
	return active
}

// ExceptionCode returns the code whose one-hot column is set, if any.
func (e *ExceptionColumnsView) ExceptionCode() (uint8, bool) {
	for i := range e.ExcCode {
		if !e.ExcCode[i].IsZero() {
			return uint8(i), true
		}
	}
	return 0, false
}
