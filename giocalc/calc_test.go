package main

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fjl/decicalc/internal/history"
	"github.com/fjl/decicalc/internal/mathexpr"
)

func newTestCalc(maxLength int) *calculator {
	return newCalculator(mathexpr.New(mathexpr.Options{MaxLength: maxLength}))
}

func TestCalcInput(t *testing.T) {
	c := newTestCalc(15)
	check(t, c, "0")
	// input integer
	c.digit("1")
	c.digit("2")
	c.digit("3")
	check(t, c, "123")
	// redo last digit
	c.rubout()
	c.digit("4")
	check(t, c, "124")
	// decimal point
	c.digit(".")
	check(t, c, "124.")
	c.digit("6")
	c.digit("7")
	check(t, c, "124.67")
	// rubout decimals
	c.rubout()
	check(t, c, "124.6")
	c.rubout()
	check(t, c, "124.")
	c.rubout()
	check(t, c, "124")
}

func TestCalcBadInput(t *testing.T) {
	c := newTestCalc(15)
	c.digit("1")
	c.digit("2")
	c.digit("3")
	check(t, c, "123")
	c.digit("a")
	check(t, c, "123")
	c.digit("45")
	check(t, c, "123")
	c.digit(".")
	check(t, c, "123.")
	c.digit("2")
	check(t, c, "123.2")
	c.digit(".")
	check(t, c, "123.2")
}

func TestCalcLeadingZero(t *testing.T) {
	c := newTestCalc(15)
	c.digit("0")
	c.digit("0")
	check(t, c, "0")
	c.digit("5")
	check(t, c, "5")
	c.op(opAdd)
	c.digit("0")
	c.digit("7")
	check(t, c, "5+7")

	c.reset()
	c.digit(".")
	check(t, c, "0.")
	c.digit("5")
	c.digit("0")
	check(t, c, "0.50")
	c.op(opMul)
	c.digit(".")
	check(t, c, "0.50×0.")
}

func TestCalcMaxInput(t *testing.T) {
	c := newTestCalc(15)
	for i := 0; i < maxInput+10; i++ {
		c.digit("1")
	}
	check(t, c, strings.Repeat("1", maxInput))
}

func TestCalcOps(t *testing.T) {
	c := newTestCalc(15)
	// binary operator at the start is ignored
	if c.op(opMul) {
		t.Error("op(×) accepted on empty input")
	}
	check(t, c, "0")
	c.digit("1")
	c.op(opAdd)
	check(t, c, "1+")
	if c.pendingOp() != opAdd {
		t.Errorf("wrong pending op %q", c.pendingOp())
	}
	// replace trailing operator
	c.op(opMul)
	check(t, c, "1×")
	// minus negates the next operand
	c.op(opSub)
	check(t, c, "1×-")
	c.op(opSub)
	check(t, c, "1×-")
	c.op(opDiv)
	check(t, c, "1÷")
	c.digit("2")
	check(t, c, "1÷2")
	if c.pendingOp() != 0 {
		t.Errorf("pending op %q after operand", c.pendingOp())
	}
	c.op('x')
	check(t, c, "1÷2")
}

func TestCalcUnaryMinus(t *testing.T) {
	c := newTestCalc(15)
	c.op(opSub)
	c.digit("5")
	c.op(opAdd)
	c.digit("3")
	check(t, c, "-5+3")
	c.equals()
	check(t, c, "-2")

	c.reset()
	c.openParen()
	c.op(opMul)
	check(t, c, "(")
	c.op(opSub)
	check(t, c, "(-")
}

func TestCalcEquals(t *testing.T) {
	c := newTestCalc(15)
	if c.equals() {
		t.Error("equals succeeded on empty input")
	}
	c.digit("2")
	c.op(opAdd)
	c.digit("3")
	c.op(opMul)
	c.digit("4")
	c.equals()
	check(t, c, "14")
	// equals again does nothing
	if c.equals() {
		t.Error("equals succeeded twice")
	}
	check(t, c, "14")
	// digit starts a new expression
	c.digit("4")
	check(t, c, "4")
}

func TestCalcContinueFromResult(t *testing.T) {
	c := newTestCalc(15)
	c.digit("2")
	c.op(opMul)
	c.digit("3")
	c.equals()
	check(t, c, "6")
	if c.pendingOp() != 0 {
		t.Errorf("pending op %q after equals", c.pendingOp())
	}
	c.op(opAdd)
	c.digit("1")
	check(t, c, "6+1")
	c.equals()
	check(t, c, "7")
}

func TestCalcDivide(t *testing.T) {
	c := newTestCalc(15)
	c.digit("1")
	c.op(opDiv)
	c.digit("3")
	c.equals()
	check(t, c, "0.3333333333333")
}

func TestCalcParens(t *testing.T) {
	c := newTestCalc(15)
	// ) without open group is ignored
	c.digit("5")
	c.closeParen()
	check(t, c, "5")

	c.reset()
	c.digit("2")
	c.openParen()
	check(t, c, "2×(")
	// ) directly after ( is ignored
	c.closeParen()
	check(t, c, "2×(")
	c.digit("3")
	c.op(opAdd)
	c.digit("1")
	c.closeParen()
	check(t, c, "2×(3+1)")
	// digit after ) is ignored
	c.digit("7")
	check(t, c, "2×(3+1)")
	c.equals()
	check(t, c, "8")

	// ( after a result starts a new expression
	c.openParen()
	check(t, c, "(")
}

func TestCalcPercent(t *testing.T) {
	c := newTestCalc(15)
	c.percent()
	check(t, c, "0")
	c.digit("5")
	c.digit("0")
	c.percent()
	check(t, c, "50%")
	c.equals()
	check(t, c, "0.5")

	c.reset()
	c.digit("2")
	c.digit("0")
	c.digit("0")
	c.op(opMul)
	c.digit("5")
	c.percent()
	c.equals()
	check(t, c, "10")
}

func TestCalcFlipSign(t *testing.T) {
	c := newTestCalc(15)
	c.flipSign()
	check(t, c, "-")
	c.flipSign()
	check(t, c, "-")

	c.reset()
	c.parse("5-3")
	c.flipSign()
	check(t, c, "5--3")
	c.flipSign()
	check(t, c, "5-3")
	c.flipSign()
	c.equals()
	check(t, c, "8")

	c.parse("(1+2)")
	c.flipSign()
	check(t, c, "-(1+2)")
	c.flipSign()
	check(t, c, "(1+2)")

	c.parse("5%")
	c.flipSign()
	check(t, c, "-5%")
}

func TestCalcErrors(t *testing.T) {
	c := newTestCalc(15)
	c.digit("1")
	c.op(opDiv)
	c.digit("0")
	if c.equals() {
		t.Fatal("division by zero succeeded")
	}
	check(t, c, "1÷0")
	checkErr(t, c, "Cannot divide by zero")
	// editing clears the error
	c.digit("5")
	check(t, c, "1÷5")
	checkErr(t, c, "")

	c.reset()
	c.openParen()
	c.digit("1")
	c.equals()
	check(t, c, "(1")
	checkErr(t, c, "Check parentheses")

	c.reset()
	c.digit("5")
	c.op(opSub)
	c.equals()
	check(t, c, "5-")
	checkErr(t, c, "Invalid expression")
}

func TestCalcTooLarge(t *testing.T) {
	c := newTestCalc(5)
	c.parse("99999+1")
	c.equals()
	check(t, c, "99999+1")
	checkErr(t, c, "Result too large")

	c.parse("99999")
	c.equals()
	check(t, c, "99999")
	checkErr(t, c, "")
}

func TestCalcPaste(t *testing.T) {
	c := newTestCalc(15)
	if !c.parse("12 * (3 − 1) / 4") {
		t.Fatal("parse failed")
	}
	check(t, c, "12×(3-1)÷4")
	c.equals()
	check(t, c, "6")

	c.parse("1,000+1")
	check(t, c, "1000+1")
	if c.parse("2^8") {
		t.Error("parse accepted unsupported operator")
	}
	check(t, c, "1000+1")
	if c.parse(strings.Repeat("1", maxInput+1)) {
		t.Error("parse accepted overlong input")
	}
}

func TestCalcUseResult(t *testing.T) {
	c := newTestCalc(15)
	c.useResult("42")
	check(t, c, "42")
	// no juxtaposition
	if c.useResult("1") {
		t.Error("useResult accepted after operand")
	}
	c.op(opAdd)
	c.useResult("8")
	check(t, c, "42+8")
	c.equals()
	check(t, c, "50")
	// result replaces the previous result
	c.useResult("7")
	check(t, c, "7")
}

func TestCalcOnEval(t *testing.T) {
	type call struct {
		expr, result string
		err          error
	}
	var calls []call

	c := newTestCalc(15)
	c.onEval = func(expr, result string, err error) {
		calls = append(calls, call{expr, result, err})
	}
	c.parse("1+1")
	c.equals()
	c.parse("1÷0")
	c.equals()

	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	if calls[0].expr != "1+1" || calls[0].result != "2" || calls[0].err != nil {
		t.Errorf("wrong first call %+v", calls[0])
	}
	if calls[1].expr != "1÷0" || !errors.Is(calls[1].err, mathexpr.ErrDivisionByZero) {
		t.Errorf("wrong second call %+v", calls[1])
	}
}

func TestErrorText(t *testing.T) {
	if s := errorText(errors.New("boom")); s != "Error" {
		t.Errorf("wrong text %q", s)
	}
	if s := errorText(mathexpr.ErrEvaluation); s != "Invalid expression" {
		t.Errorf("wrong text %q", s)
	}
}

func TestHistoryModel(t *testing.T) {
	m := newHistoryModel(nil, 2)
	// without a store, recording and removal are no-ops
	m.record("1+1", "2", nil)
	m.remove("a")

	for _, id := range []history.ID{"a", "b", "c"} {
		m.handleStoreEvent(&history.EntryAdded{ID: id, Entry: history.Entry{Result: string(id)}})
	}
	if len(m.items) != 2 || m.items[0].id != "b" || m.items[1].id != "c" {
		t.Fatalf("wrong items after add: %v", itemIDs(m))
	}
	m.handleStoreEvent(&history.EntryRemoved{ID: "b"})
	if len(m.items) != 1 || m.items[0].id != "c" {
		t.Fatalf("wrong items after remove: %v", itemIDs(m))
	}
	ioErr := errors.New("disk full")
	m.handleStoreEvent(&history.IOError{Err: ioErr})
	if m.lastError != ioErr {
		t.Errorf("lastError not set")
	}
	m.handleStoreEvent(&history.Cleared{})
	if len(m.items) != 0 {
		t.Fatalf("items not cleared: %v", itemIDs(m))
	}
}

func itemIDs(m *historyModel) []history.ID {
	var ids []history.ID
	for _, it := range m.items {
		ids = append(ids, it.id)
	}
	return ids
}

func check(t *testing.T, c *calculator, text string) {
	t.Helper()
	if c.text() != text {
		t.Errorf("wrong calc text %q, want %q", c.text(), text)
	}
}

func checkErr(t *testing.T, c *calculator, msg string) {
	t.Helper()
	if c.err != msg {
		t.Errorf("wrong error message %q, want %q", c.err, msg)
	}
}

func TestHistoryModelStore(t *testing.T) {
	store := history.NewStore(t.TempDir(), nil)
	defer store.Close()
	m := newHistoryModel(store, 10)

	m.record("1+1", "2", nil)
	m.record("1÷0", "", mathexpr.ErrDivisionByZero)
	m.handleStoreEvent(nextStoreEvent(t, store))
	if len(m.items) != 1 || m.items[0].entry.Result != "2" {
		t.Fatalf("wrong items after record: %v", itemIDs(m))
	}

	m.remove(m.items[0].id)
	m.handleStoreEvent(nextStoreEvent(t, store))
	if len(m.items) != 0 {
		t.Fatalf("item not removed: %v", itemIDs(m))
	}
}

func nextStoreEvent(t *testing.T, s *history.Store) history.Event {
	t.Helper()
	select {
	case ev := <-s.Events():
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for history event")
		return nil
	}
}
