package mathexpr

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpNeg
	OpPercent
)

// Op is an operator of the expression tree.
type Op int

func (op Op) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "×"
	case OpDiv:
		return "÷"
	case OpNeg:
		return "neg"
	case OpPercent:
		return "%"
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

// Node is an element of a parsed expression.
// The String form is fully parenthesized and can be parsed again.
type Node interface {
	fmt.Stringer
	// Pos returns the rune offset of the node in the source expression.
	Pos() int
}

// Number is a numeric literal.
type Number struct {
	Value  decimal.Decimal
	Offset int
}

// Unary is a sign or percent operation on X.
type Unary struct {
	Op     Op
	X      Node
	Offset int
}

// Binary is an arithmetic operation on X and Y.
type Binary struct {
	Op     Op
	X, Y   Node
	Offset int
}

func (n *Number) Pos() int { return n.Offset }
func (n *Unary) Pos() int  { return n.Offset }
func (n *Binary) Pos() int { return n.Offset }

func (n *Number) String() string {
	if n.Value.IsNegative() {
		return "(" + n.Value.String() + ")"
	}
	return n.Value.String()
}

func (n *Unary) String() string {
	if n.Op == OpPercent {
		return n.X.String() + "%"
	}
	return "(-" + n.X.String() + ")"
}

func (n *Binary) String() string {
	return "(" + n.X.String() + n.Op.String() + n.Y.String() + ")"
}
