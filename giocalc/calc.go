package main

import (
	"errors"
	"strings"

	"github.com/fjl/decicalc/internal/mathexpr"
)

// maxInput bounds the length of the expression being edited.
const maxInput = 120

const (
	opAdd = '+'
	opSub = '-'
	opMul = '×'
	opDiv = '÷'
)

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isOp(r rune) bool {
	return r == opAdd || r == opSub || r == opMul || r == opDiv
}

// endsOperand tells whether an expression ending in r ends with a complete operand.
func endsOperand(r rune) bool {
	return isDigit(r) || r == '.' || r == ')' || r == '%'
}

// calculator is the expression being edited.
type calculator struct {
	eval  *mathexpr.Evaluator
	input []rune
	err   string

	// nextDigitResets is set when input holds the result of an evaluation.
	nextDigitResets bool

	// onEval is called after every evaluation.
	onEval func(expr, result string, err error)
}

func newCalculator(eval *mathexpr.Evaluator) *calculator {
	return &calculator{eval: eval}
}

func (c *calculator) last() rune {
	if len(c.input) == 0 {
		return 0
	}
	return c.input[len(c.input)-1]
}

func (c *calculator) afterOperand() bool {
	return len(c.input) > 0 && endsOperand(c.last())
}

// currentNumber returns the digits and decimal point at the end of the input.
func (c *calculator) currentNumber() []rune {
	i := len(c.input)
	for i > 0 && (isDigit(c.input[i-1]) || c.input[i-1] == '.') {
		i--
	}
	return c.input[i:]
}

// depth returns the number of unclosed parentheses.
func (c *calculator) depth() int {
	d := 0
	for _, r := range c.input {
		switch r {
		case '(':
			d++
		case ')':
			d--
		}
	}
	return d
}

func (c *calculator) push(r ...rune) bool {
	if len(c.input)+len(r) > maxInput {
		return false
	}
	c.input = append(c.input, r...)
	return true
}

// edit prepares an input change.
func (c *calculator) edit() {
	c.err = ""
	c.nextDigitResets = false
}

// digit processes an input digit or decimal point.
func (c *calculator) digit(in string) bool {
	if c.nextDigitResets {
		c.reset()
	}
	if len(in) != 1 {
		return false
	}
	r := rune(in[0])
	if !isDigit(r) && r != '.' {
		return false
	}
	if l := c.last(); l == ')' || l == '%' {
		return false
	}
	c.edit()

	num := c.currentNumber()
	switch {
	case r == '.':
		for _, d := range num {
			if d == '.' {
				return false
			}
		}
		if len(num) == 0 {
			return c.push('0', '.')
		}
		return c.push('.')
	case len(num) == 1 && num[0] == '0':
		// Replace a leading zero.
		c.input[len(c.input)-1] = r
		return true
	default:
		return c.push(r)
	}
}

// op appends a binary operator. A minus sign is also accepted where an operand
// is expected, where it negates the operand.
func (c *calculator) op(op rune) bool {
	if !isOp(op) {
		return false
	}
	c.edit()

	if op == opSub {
		switch l := c.last(); {
		case l == opSub:
			return false
		case l == opAdd:
			c.input[len(c.input)-1] = opSub
			return true
		default:
			return c.push(opSub)
		}
	}

	// Replace trailing operators.
	end := len(c.input)
	for end > 0 && isOp(c.input[end-1]) {
		end--
	}
	if end == 0 || c.input[end-1] == '(' {
		return false
	}
	c.input = append(c.input[:end], op)
	return true
}

// openParen starts a group. After an operand, it multiplies.
func (c *calculator) openParen() bool {
	if c.nextDigitResets {
		c.reset()
	}
	c.edit()
	if c.afterOperand() {
		return c.push(opMul, '(')
	}
	return c.push('(')
}

// closeParen ends the innermost open group.
func (c *calculator) closeParen() bool {
	if c.depth() <= 0 || !c.afterOperand() {
		return false
	}
	c.edit()
	return c.push(')')
}

// percent divides the last operand by 100.
func (c *calculator) percent() bool {
	if !c.afterOperand() {
		return false
	}
	c.edit()
	return c.push('%')
}

// flipSign flips the sign of the last operand between positive and negative.
func (c *calculator) flipSign() bool {
	c.edit()
	start := c.operandStart()
	if start < 0 {
		// No operand yet, begin a negative one.
		if c.last() == opSub {
			return false
		}
		return c.push(opSub)
	}
	if start > 0 && c.input[start-1] == opSub && (start == 1 || !endsOperand(c.input[start-2])) {
		c.input = append(c.input[:start-1], c.input[start:]...)
		return true
	}
	if len(c.input) >= maxInput {
		return false
	}
	c.input = append(c.input[:start], append([]rune{opSub}, c.input[start:]...)...)
	return true
}

// operandStart returns the index where the last operand begins,
// or -1 if the input does not end with an operand.
func (c *calculator) operandStart() int {
	i := len(c.input)
	for i > 0 && c.input[i-1] == '%' {
		i--
	}
	if i > 0 && c.input[i-1] == ')' {
		d := 0
		for i > 0 {
			i--
			switch c.input[i] {
			case ')':
				d++
			case '(':
				d--
			}
			if d == 0 {
				return i
			}
		}
		return -1
	}
	end := i
	for i > 0 && (isDigit(c.input[i-1]) || c.input[i-1] == '.') {
		i--
	}
	if i == end {
		return -1
	}
	return i
}

// pendingOp returns the operator the expression ends with, or 0.
func (c *calculator) pendingOp() rune {
	if l := c.last(); isOp(l) && !c.nextDigitResets {
		return l
	}
	return 0
}

// rubout undoes the last input.
func (c *calculator) rubout() {
	c.edit()
	if len(c.input) > 0 {
		c.input = c.input[:len(c.input)-1]
	}
}

// reset clears the calculator.
func (c *calculator) reset() {
	c.input = c.input[:0]
	c.err = ""
	c.nextDigitResets = false
}

// equals evaluates the expression. On success, the expression is replaced by the
// result. On failure, the expression is kept and the error is shown.
func (c *calculator) equals() bool {
	if len(c.input) == 0 || c.nextDigitResets {
		return false
	}
	expr := string(c.input)
	result, err := c.eval.Evaluate(expr)
	if c.onEval != nil {
		c.onEval(expr, result, err)
	}
	if err != nil {
		c.err = errorText(err)
		return false
	}
	c.input = []rune(result)
	c.err = ""
	c.nextDigitResets = true
	return true
}

// useResult inserts a previous result where an operand is expected.
func (c *calculator) useResult(result string) bool {
	if c.nextDigitResets || len(c.input) == 0 {
		c.reset()
		return c.push([]rune(result)...)
	}
	if c.afterOperand() {
		return false
	}
	c.edit()
	return c.push([]rune(result)...)
}

// parse replaces the input with pasted text.
func (c *calculator) parse(text string) bool {
	var in []rune
	for _, r := range strings.TrimSpace(text) {
		switch {
		case isDigit(r), isOp(r), strings.ContainsRune(".%()", r):
			in = append(in, r)
		case r == '*':
			in = append(in, opMul)
		case r == '/':
			in = append(in, opDiv)
		case r == '−':
			in = append(in, opSub)
		case r == ' ', r == ',':
			// digit grouping and blanks
		default:
			return false
		}
	}
	if len(in) > maxInput {
		return false
	}
	c.reset()
	c.input = append(c.input, in...)
	return true
}

// text gives the current output of the calculator.
func (c *calculator) text() string {
	if len(c.input) == 0 {
		return "0"
	}
	return string(c.input)
}

// errorText is the message shown for a failed evaluation.
func errorText(err error) string {
	var e *mathexpr.Error
	if !errors.As(err, &e) {
		return "Error"
	}
	switch e.Kind {
	case mathexpr.KindParenthesis:
		return "Check parentheses"
	case mathexpr.KindDivisionByZero:
		return "Cannot divide by zero"
	case mathexpr.KindResultTooLarge:
		return "Result too large"
	default:
		return "Invalid expression"
	}
}
