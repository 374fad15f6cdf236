package witness

import (
	"fmt"

	"github.com/colorfulnotion/zkmips/arithmetic"
	"github.com/colorfulnotion/zkmips/logic"
)

// Operation is a decoded instruction. The set of variants is closed.
type Operation interface {
	fmt.Stringer
	isOperation()
}

// BranchCond is the comparison performed by a conditional branch.
type BranchCond uint8

const (
	CondEQ BranchCond = iota
	CondNE
	CondGE
	CondLE
	CondGT
	CondLT
)

var condNames = [...]string{"EQ", "NE", "GE", "LE", "GT", "LT"}

func (c BranchCond) String() string {
	if int(c) < len(condNames) {
		return condNames[c]
	}
	return fmt.Sprintf("BranchCond(%d)", uint8(c))
}

// Holds compares a and b; ordering conditions are signed.
func (c BranchCond) Holds(a, b uint32) bool {
	switch c {
	case CondEQ:
		return a == b
	case CondNE:
		return a != b
	case CondGE:
		return int32(a) >= int32(b)
	case CondLE:
		return int32(a) <= int32(b)
	case CondGT:
		return int32(a) > int32(b)
	case CondLT:
		return int32(a) < int32(b)
	}
	panic(fmt.Sprintf("unknown branch condition %d", uint8(c)))
}

type BinaryArithmetic struct {
	Op         arithmetic.BinaryOperator
	Rs, Rt, Rd uint8
}

// BinaryArithmeticImm applies Op to reg[Src] and Imm. Imm is already
// extended the way the instruction requires.
type BinaryArithmeticImm struct {
	Op       arithmetic.BinaryOperator
	Src, Dst uint8
	Imm      uint32
}

type BinaryLogic struct {
	Op         logic.Op
	Rs, Rt, Rd uint8
}

type BinaryLogicImm struct {
	Op       logic.Op
	Src, Dst uint8
	Imm      uint32
}

// Jump is a register jump; Link is the register receiving pc+4 (0 for none).
type Jump struct {
	Link   uint8
	Target uint8
}

// Jumpi is a jump to a 26-bit word index within the current 256MB region.
type Jumpi struct {
	Link   uint8
	Target uint32
}

type Branch struct {
	Cond       BranchCond
	Src1, Src2 uint8
	Offset     uint32
}

type Syscall struct{}

// Mload32Bytes loads the word at reg[Base]+Offset into Rt. Offset is sign
// extended.
type Mload32Bytes struct {
	Base, Rt uint8
	Offset   uint32
}

type Mstore32Bytes struct {
	Base, Rt uint8
	Offset   uint32
}

type MloadGeneral struct{ Addr, Rt uint8 }
type MstoreGeneral struct{ Addr, Rt uint8 }
type GetContext struct{ Rd uint8 }
type SetContext struct{ Rs uint8 }
type ExitKernel struct{ Rs uint8 }
type Iszero struct{ Rs, Rd uint8 }
type Eq struct{ Rs, Rt, Rd uint8 }
type Not struct{ Rs, Rd uint8 }
type Pc struct{ Rd uint8 }
type ProverInput struct{ Rd uint8 }

// KeccakGeneral hashes reg[Rt] bytes at reg[Rs] and stores the digest at
// reg[Rd].
type KeccakGeneral struct{ Rs, Rt, Rd uint8 }

func (BinaryArithmetic) isOperation()    {}
func (BinaryArithmeticImm) isOperation() {}
func (BinaryLogic) isOperation()         {}
func (BinaryLogicImm) isOperation()      {}
func (Jump) isOperation()                {}
func (Jumpi) isOperation()               {}
func (Branch) isOperation()              {}
func (Syscall) isOperation()             {}
func (Mload32Bytes) isOperation()        {}
func (Mstore32Bytes) isOperation()       {}
func (MloadGeneral) isOperation()        {}
func (MstoreGeneral) isOperation()       {}
func (GetContext) isOperation()          {}
func (SetContext) isOperation()          {}
func (ExitKernel) isOperation()          {}
func (Iszero) isOperation()              {}
func (Eq) isOperation()                  {}
func (Not) isOperation()                 {}
func (Pc) isOperation()                  {}
func (ProverInput) isOperation()         {}
func (KeccakGeneral) isOperation()       {}

func (o BinaryArithmetic) String() string {
	return fmt.Sprintf("BinaryArithmetic(%s, rs=%d, rt=%d, rd=%d)", o.Op, o.Rs, o.Rt, o.Rd)
}

func (o BinaryArithmeticImm) String() string {
	return fmt.Sprintf("BinaryArithmeticImm(%s, src=%d, dst=%d, imm=0x%x)", o.Op, o.Src, o.Dst, o.Imm)
}

func (o BinaryLogic) String() string {
	return fmt.Sprintf("BinaryLogic(%s, rs=%d, rt=%d, rd=%d)", o.Op, o.Rs, o.Rt, o.Rd)
}

func (o BinaryLogicImm) String() string {
	return fmt.Sprintf("BinaryLogicImm(%s, src=%d, dst=%d, imm=0x%x)", o.Op, o.Src, o.Dst, o.Imm)
}

func (o Jump) String() string { return fmt.Sprintf("Jump(link=%d, target=r%d)", o.Link, o.Target) }
func (o Jumpi) String() string {
	return fmt.Sprintf("Jumpi(link=%d, target=0x%x)", o.Link, o.Target)
}

func (o Branch) String() string {
	return fmt.Sprintf("Branch(%s, r%d, r%d, offset=0x%x)", o.Cond, o.Src1, o.Src2, o.Offset)
}

func (Syscall) String() string { return "Syscall" }

func (o Mload32Bytes) String() string {
	return fmt.Sprintf("Mload32Bytes(base=%d, rt=%d, offset=0x%x)", o.Base, o.Rt, o.Offset)
}

func (o Mstore32Bytes) String() string {
	return fmt.Sprintf("Mstore32Bytes(base=%d, rt=%d, offset=0x%x)", o.Base, o.Rt, o.Offset)
}

func (o MloadGeneral) String() string {
	return fmt.Sprintf("MloadGeneral(addr=%d, rt=%d)", o.Addr, o.Rt)
}
func (o MstoreGeneral) String() string {
	return fmt.Sprintf("MstoreGeneral(addr=%d, rt=%d)", o.Addr, o.Rt)
}
func (o GetContext) String() string  { return fmt.Sprintf("GetContext(rd=%d)", o.Rd) }
func (o SetContext) String() string  { return fmt.Sprintf("SetContext(rs=%d)", o.Rs) }
func (o ExitKernel) String() string  { return fmt.Sprintf("ExitKernel(rs=%d)", o.Rs) }
func (o Iszero) String() string      { return fmt.Sprintf("Iszero(rs=%d, rd=%d)", o.Rs, o.Rd) }
func (o Eq) String() string          { return fmt.Sprintf("Eq(rs=%d, rt=%d, rd=%d)", o.Rs, o.Rt, o.Rd) }
func (o Not) String() string         { return fmt.Sprintf("Not(rs=%d, rd=%d)", o.Rs, o.Rd) }
func (o Pc) String() string          { return fmt.Sprintf("Pc(rd=%d)", o.Rd) }
func (o ProverInput) String() string { return fmt.Sprintf("ProverInput(rd=%d)", o.Rd) }
func (o KeccakGeneral) String() string {
	return fmt.Sprintf("KeccakGeneral(rs=%d, rt=%d, rd=%d)", o.Rs, o.Rt, o.Rd)
}
