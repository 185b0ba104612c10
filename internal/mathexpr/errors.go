package mathexpr

import "fmt"

const (
	KindParenthesis ErrorKind = iota + 1
	KindEvaluation
	KindDivisionByZero
	KindResultTooLarge
)

// ErrorKind classifies evaluation failures.
type ErrorKind int

func (k ErrorKind) String() string {
	switch k {
	case KindParenthesis:
		return "unbalanced parentheses"
	case KindEvaluation:
		return "invalid expression"
	case KindDivisionByZero:
		return "division by zero"
	case KindResultTooLarge:
		return "result too large"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is returned by all evaluation functions of this package.
// Pos is the rune offset in the expression that caused the error, or -1.
type Error struct {
	Kind ErrorKind
	Pos  int
	Msg  string
}

// Sentinel errors for use with errors.Is.
var (
	ErrParenthesis    = &Error{Kind: KindParenthesis, Pos: -1}
	ErrEvaluation     = &Error{Kind: KindEvaluation, Pos: -1}
	ErrDivisionByZero = &Error{Kind: KindDivisionByZero, Pos: -1}
	ErrResultTooLarge = &Error{Kind: KindResultTooLarge, Pos: -1}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Pos >= 0 {
		return fmt.Sprintf("%s (at %d)", msg, e.Pos)
	}
	return msg
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func errorf(kind ErrorKind, pos int, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
