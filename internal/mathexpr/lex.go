package mathexpr

import "fmt"

const (
	tokEOF tokenKind = iota
	tokNumber
	tokPlus
	tokMinus
	tokMul
	tokDiv
	tokPercent
	tokLParen
	tokRParen
)

type tokenKind int

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of expression"
	case tokNumber:
		return "number"
	case tokPlus:
		return "+"
	case tokMinus:
		return "-"
	case tokMul:
		return "×"
	case tokDiv:
		return "÷"
	case tokPercent:
		return "%"
	case tokLParen:
		return "("
	case tokRParen:
		return ")"
	default:
		return fmt.Sprintf("token(%d)", int(k))
	}
}

type token struct {
	kind tokenKind
	text string
	pos  int // rune offset
}

// checkParens verifies that parentheses in s are balanced.
// It runs on the raw text so that the error is reported before anything else.
func checkParens(s string) error {
	depth, lastOpen, i := 0, -1, 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
			lastOpen = i
		case ')':
			depth--
			if depth < 0 {
				return errorf(KindParenthesis, i, "unexpected ')'")
			}
		}
		i++
	}
	if depth > 0 {
		return errorf(KindParenthesis, lastOpen, "%d unclosed '('", depth)
	}
	return nil
}

// lex splits s into tokens. The final token is always tokEOF.
func lex(s string) ([]token, error) {
	var (
		runes = []rune(s)
		toks  []token
	)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			i++
			continue
		case isNumberRune(r):
			start := i
			for i < len(runes) && isNumberRune(runes[i]) {
				i++
			}
			toks = append(toks, token{kind: tokNumber, text: string(runes[start:i]), pos: start})
			continue
		}

		var kind tokenKind
		switch r {
		case '+':
			kind = tokPlus
		case '-', '−':
			kind = tokMinus
		case '×', '*':
			kind = tokMul
		case '÷', '/':
			kind = tokDiv
		case '%':
			kind = tokPercent
		case '(':
			kind = tokLParen
		case ')':
			kind = tokRParen
		default:
			return nil, errorf(KindEvaluation, i, "unexpected character %q", r)
		}
		toks = append(toks, token{kind: kind, text: string(r), pos: i})
		i++
	}
	return append(toks, token{kind: tokEOF, pos: len(runes)}), nil
}

func isNumberRune(r rune) bool {
	return r == '.' || (r >= '0' && r <= '9')
}
