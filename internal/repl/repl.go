// Package repl implements an interactive terminal calculator.
package repl

import (
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fjl/decicalc/internal/history"
	"github.com/fjl/decicalc/internal/mathexpr"
)

// maxTranscript is the number of evaluations kept on screen.
const maxTranscript = 20

var (
	exprStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	resultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	frameStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
)

// Recorder receives every evaluation. *history.Store implements it.
type Recorder interface {
	Add(history.Entry) history.ID
}

type line struct {
	expr   string
	result string
	err    error
}

// Model is the bubbletea model of the calculator.
type Model struct {
	eval  *mathexpr.Evaluator
	rec   Recorder
	log   *slog.Logger
	input textinput.Model

	transcript []line
	recall     []string
	recallPos  int
	quitting   bool
}

// New creates the model. rec and log may be nil. past holds earlier
// expressions, oldest first, for recall with the arrow keys.
func New(eval *mathexpr.Evaluator, rec Recorder, log *slog.Logger, past []string) Model {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	ti := textinput.New()
	ti.Placeholder = "2×(3+4)"
	ti.Prompt = "› "
	ti.CharLimit = 256
	ti.Focus()

	recall := append([]string(nil), past...)
	return Model{
		eval:      eval,
		rec:       rec,
		log:       log,
		input:     ti,
		recall:    recall,
		recallPos: len(recall),
	}
}

// Run runs the calculator until the user quits.
func Run(m Model, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(m, tea.WithInput(in), tea.WithOutput(out))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			m.submit()
			return m, nil
		case tea.KeyUp:
			m.recallStep(-1)
			return m, nil
		case tea.KeyDown:
			m.recallStep(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit evaluates the input line.
func (m *Model) submit() {
	expr := strings.TrimSpace(m.input.Value())
	if expr == "" {
		return
	}
	result, err := m.eval.Evaluate(expr)
	m.log.Debug("evaluated", "expr", expr, "result", result, "err", err)

	m.transcript = append(m.transcript, line{expr: expr, result: result, err: err})
	if len(m.transcript) > maxTranscript {
		m.transcript = m.transcript[len(m.transcript)-maxTranscript:]
	}
	m.recall = append(m.recall, expr)
	m.recallPos = len(m.recall)
	m.input.SetValue("")

	if m.rec != nil {
		entry := history.Entry{Expression: expr, Result: result}
		if err != nil {
			entry.Error = err.Error()
		}
		m.rec.Add(entry)
	}
}

// recallStep moves through earlier expressions. Moving past the newest one
// clears the input.
func (m *Model) recallStep(delta int) {
	pos := m.recallPos + delta
	if pos < 0 || pos > len(m.recall) {
		return
	}
	m.recallPos = pos
	if pos == len(m.recall) {
		m.input.SetValue("")
	} else {
		m.input.SetValue(m.recall[pos])
	}
	m.input.CursorEnd()
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	for _, l := range m.transcript {
		b.WriteString(exprStyle.Render(l.expr))
		b.WriteString(" = ")
		if l.err != nil {
			b.WriteString(errorStyle.Render(l.err.Error()))
		} else {
			b.WriteString(resultStyle.Render(l.result))
		}
		b.WriteByte('\n')
	}
	b.WriteString(m.input.View())
	return frameStyle.Render(b.String()) + "\n" +
		helpStyle.Render("Enter to evaluate, ↑/↓ to recall, Esc to quit") + "\n"
}

// Value returns the current input line.
func (m Model) Value() string {
	return m.input.Value()
}
