package mathexpr

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Parse checks parenthesis balance, tokenizes and parses an expression.
//
// Grammar:
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("×" | "÷") unary }
//	unary   = "-" unary | postfix
//	postfix = primary { "%" }
//	primary = number | "(" expr ")"
func Parse(expression string) (Node, error) {
	if err := checkParens(expression); err != nil {
		return nil, err
	}
	toks, err := lex(expression)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, errorf(KindEvaluation, t.pos, "unexpected %v after operand", t.kind)
	}
	return n, nil
}

// MaxNesting limits how deeply groups and signs may nest.
const MaxNesting = 1000

type parser struct {
	toks  []token
	pos   int
	depth int
}

// enter is called before descending into a group or sign.
func (p *parser) enter(t token) error {
	p.depth++
	if p.depth > MaxNesting {
		return errorf(KindEvaluation, t.pos, "expression nested deeper than %d levels", MaxNesting)
	}
	return nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) parseExpr() (Node, error) {
	x, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		var op Op
		switch t.kind {
		case tokPlus:
			op = OpAdd
		case tokMinus:
			op = OpSub
		default:
			return x, nil
		}
		p.next()
		y, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		x = &Binary{Op: op, X: x, Y: y, Offset: t.pos}
	}
}

func (p *parser) parseTerm() (Node, error) {
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		var op Op
		switch t.kind {
		case tokMul:
			op = OpMul
		case tokDiv:
			op = OpDiv
		default:
			return x, nil
		}
		p.next()
		y, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		x = &Binary{Op: op, X: x, Y: y, Offset: t.pos}
	}
}

func (p *parser) parseUnary() (Node, error) {
	t := p.peek()
	if t.kind != tokMinus {
		return p.parsePostfix()
	}
	p.next()
	if err := p.enter(t); err != nil {
		return nil, err
	}
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	p.depth--
	return &Unary{Op: OpNeg, X: x, Offset: t.pos}, nil
}

func (p *parser) parsePostfix() (Node, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokPercent {
		t := p.next()
		x = &Unary{Op: OpPercent, X: x, Offset: t.pos}
	}
	return x, nil
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		v, err := parseNumber(t.text)
		if err != nil {
			return nil, errorf(KindEvaluation, t.pos, "invalid number %q", t.text)
		}
		return &Number{Value: v, Offset: t.pos}, nil
	case tokLParen:
		if err := p.enter(t); err != nil {
			return nil, err
		}
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, errorf(KindEvaluation, closing.pos, "expected ')', found %v", closing.kind)
		}
		p.depth--
		return x, nil
	case tokEOF:
		return nil, errorf(KindEvaluation, t.pos, "missing operand")
	default:
		return nil, errorf(KindEvaluation, t.pos, "expected operand, found %v", t.kind)
	}
}

// parseNumber reads a run of digits with at most one decimal point.
// Either side of the point may be empty, but not both.
func parseNumber(text string) (decimal.Decimal, error) {
	if strings.Count(text, ".") > 1 || strings.Trim(text, ".") == "" {
		return decimal.Zero, ErrEvaluation
	}
	if strings.HasPrefix(text, ".") {
		text = "0" + text
	}
	return decimal.NewFromString(strings.TrimSuffix(text, "."))
}
