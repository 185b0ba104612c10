package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fjl/decicalc/internal/config"
	"github.com/fjl/decicalc/internal/history"
	"github.com/fjl/decicalc/internal/logger"
	"github.com/fjl/decicalc/internal/mathexpr"
	"github.com/fjl/decicalc/internal/repl"
)

var (
	configFile string
	maxLength  int
	rounding   string
	logLevel   string
	noHistory  bool
)

// errFailed reports that some expressions could not be evaluated.
// The individual errors have already been printed.
var errFailed = errors.New("some expressions failed")

var rootCmd = &cobra.Command{
	Use:   "calc [expression...]",
	Short: "Decimal calculator",
	Long: `Calc evaluates arithmetic expressions with + - × ÷ (or * /), % and parentheses
using decimal arithmetic. Results are rounded to fit --max-length characters.

With arguments, the arguments are joined and evaluated as one expression.
Without arguments, calc starts an interactive session when standard input is a
terminal and otherwise evaluates standard input line by line.`,
	Example:       "  calc '2×(3+4)'\n  calc 5--3\n  echo 50% | calc",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath(), "Configuration file (JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error, none")
	rootCmd.Flags().IntVar(&maxLength, "max-length", 0, "Maximum result length (default from config)")
	rootCmd.Flags().StringVar(&rounding, "rounding", "", "Rounding mode: half_even or half_up (default from config)")
	rootCmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record evaluations")
	rootCmd.AddCommand(historyCmd)
}

// env is the shared state of a command invocation.
type env struct {
	cfg *config.Config
	log *slog.Logger

	closeLog io.Closer
}

// setup loads the configuration, applies flag overrides and opens the log.
func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if maxLength != 0 {
		cfg.MaxLength = maxLength
	}
	if rounding != "" {
		cfg.Rounding = rounding
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, closer, err := logger.New(cfg.LogLevel, cfg.LogPath)
	if err != nil {
		return nil, err
	}
	log = log.With("cmd", cmd.Name())
	return &env{cfg: cfg, log: log, closeLog: closer}, nil
}

func (e *env) Close() {
	e.closeLog.Close()
}

func runRoot(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	eval := mathexpr.New(e.cfg.EvaluatorOptions())
	var store *history.Store
	if !noHistory {
		store = history.NewStore(e.cfg.HistoryDir, e.log)
		defer closeHistory(store, e.log, cmd.ErrOrStderr())
	}
	rec := recorder{store} // no-op with --no-history

	switch {
	case len(args) > 0:
		expr := strings.Join(args, " ")
		result, err := eval.Evaluate(expr)
		rec.add(expr, result, err)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), result)
		return nil

	case isTerminal(cmd.InOrStdin()):
		past, err := pastExpressions(e.cfg)
		if err != nil {
			e.log.Warn("could not load history", "err", err)
		}
		var r repl.Recorder
		if store != nil {
			r = store
		}
		return repl.Run(repl.New(eval, r, e.log, past), cmd.InOrStdin(), cmd.OutOrStdout())

	default:
		return evalLines(eval, rec, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	}
}

// separateExpressions inserts "--" before the first argument that is an expression
// starting with a minus sign, so that "calc -5+3" is not parsed as flags.
func separateExpressions(args []string) []string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		if isNegativeExpression(arg) {
			out := make([]string, 0, len(args)+1)
			out = append(out, args[:i]...)
			out = append(out, "--")
			return append(out, args[i:]...)
		}
	}
	return args
}

// isNegativeExpression reports whether arg is a run of minus signs followed by an
// operand, like -5, --(1+2) or -.5.
func isNegativeExpression(arg string) bool {
	rest := strings.TrimLeft(arg, "-")
	if rest == arg || rest == "" {
		return false
	}
	c := rest[0]
	return c >= '0' && c <= '9' || c == '.' || c == '('
}

// evalLines evaluates each non-blank line of in.
func evalLines(eval *mathexpr.Evaluator, rec recorder, in io.Reader, out, errOut io.Writer) error {
	var (
		scanner = bufio.NewScanner(in)
		failed  bool
		lineNum int
	)
	for scanner.Scan() {
		lineNum++
		expr := strings.TrimSpace(scanner.Text())
		if expr == "" {
			continue
		}
		result, err := eval.Evaluate(expr)
		rec.add(expr, result, err)
		if err != nil {
			fmt.Fprintf(errOut, "line %d: %s: %v\n", lineNum, expr, err)
			failed = true
			continue
		}
		fmt.Fprintln(out, result)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if failed {
		return errFailed
	}
	return nil
}

// closeHistory closes the store and warns if evaluations could not be recorded.
// Failing to record does not fail the evaluation.
func closeHistory(store *history.Store, log *slog.Logger, errOut io.Writer) {
	if err := store.Close(); err != nil {
		log.Warn("history not saved", "err", err)
		fmt.Fprintln(errOut, "warning: history not saved:", err)
	}
}

func pastExpressions(cfg *config.Config) ([]string, error) {
	records, err := history.Load(cfg.HistoryDir)
	records = history.Tail(records, cfg.HistoryLimit)
	past := make([]string, len(records))
	for i, r := range records {
		past[i] = r.Entry.Expression
	}
	return past, err
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type recorder struct {
	store *history.Store
}

func (r recorder) add(expr, result string, err error) {
	if r.store == nil {
		return
	}
	entry := history.Entry{Expression: expr, Result: result}
	if err != nil {
		entry.Error = err.Error()
	}
	r.store.Add(entry)
}
