package mathexpr

import "github.com/shopspring/decimal"

// DefaultDivisionScale is the number of fractional digits kept by a division.
const DefaultDivisionScale = 28

// Options configures an Evaluator.
type Options struct {
	// MaxLength bounds the length of formatted results, sign and decimal point included.
	MaxLength int
	// Rounding selects how fractional digits that do not fit are rounded away.
	Rounding Rounding
	// DivisionScale is the number of fractional digits kept by a division.
	// Zero selects DefaultDivisionScale.
	DivisionScale int32
}

// Evaluator evaluates expressions with fixed options.
// It holds no mutable state and may be used concurrently.
type Evaluator struct {
	opts Options
}

// New creates an evaluator.
func New(opts Options) *Evaluator {
	if opts.DivisionScale <= 0 {
		opts.DivisionScale = DefaultDivisionScale
	}
	return &Evaluator{opts: opts}
}

// Options returns the options in effect.
func (e *Evaluator) Options() Options {
	return e.opts
}

// Evaluate computes expression and formats the result for e's maximum length.
func (e *Evaluator) Evaluate(expression string) (string, error) {
	v, err := e.Value(expression)
	if err != nil {
		return "", err
	}
	return Format(v, e.opts.MaxLength, e.opts.Rounding)
}

// Value computes expression without formatting the result.
func (e *Evaluator) Value(expression string) (decimal.Decimal, error) {
	n, err := Parse(expression)
	if err != nil {
		return decimal.Zero, err
	}
	return e.Eval(n)
}

// Eval computes the value of a parsed expression.
func (e *Evaluator) Eval(n Node) (decimal.Decimal, error) {
	switch n := n.(type) {
	case *Number:
		return n.Value, nil

	case *Unary:
		x, err := e.Eval(n.X)
		if err != nil {
			return decimal.Zero, err
		}
		if n.Op == OpPercent {
			return x.Shift(-2), nil
		}
		return x.Neg(), nil

	case *Binary:
		x, err := e.Eval(n.X)
		if err != nil {
			return decimal.Zero, err
		}
		y, err := e.Eval(n.Y)
		if err != nil {
			return decimal.Zero, err
		}
		switch n.Op {
		case OpAdd:
			return x.Add(y), nil
		case OpSub:
			return x.Add(y.Neg()), nil
		case OpMul:
			return x.Mul(y), nil
		case OpDiv:
			if y.IsZero() {
				return decimal.Zero, errorf(KindDivisionByZero, n.Y.Pos(), "divisor of %s is zero", x)
			}
			return x.DivRound(y, e.opts.DivisionScale), nil
		}
		return decimal.Zero, errorf(KindEvaluation, n.Offset, "invalid binary operator %v", n.Op)

	default:
		return decimal.Zero, errorf(KindEvaluation, -1, "unknown node %T", n)
	}
}

// Evaluate computes expression and formats the result so that it is no longer than
// maxLength characters. It uses the default rounding and division scale.
func Evaluate(expression string, maxLength int) (string, error) {
	return New(Options{MaxLength: maxLength}).Evaluate(expression)
}

// Value computes expression using the default division scale.
func Value(expression string) (decimal.Decimal, error) {
	return New(Options{}).Value(expression)
}
