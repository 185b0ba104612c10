package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fjl/decicalc/internal/history"
)

// shortIDLen is the number of ID characters shown by the history command.
const shortIDLen = 8

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded evaluations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		records, err := history.Load(e.cfg.HistoryDir)
		if err != nil {
			e.log.Warn("history damaged", "err", err)
		}
		limit := e.cfg.HistoryLimit
		if historyLimit > 0 {
			limit = historyLimit
		}
		printHistory(cmd.OutOrStdout(), history.Tail(records, limit))
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all recorded evaluations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		store := history.NewStore(e.cfg.HistoryDir, e.log)
		store.Clear()
		if err := store.Close(); err != nil {
			return fmt.Errorf("can't clear history: %w", err)
		}
		e.log.Info("history cleared", "dir", e.cfg.HistoryDir)
		return nil
	},
}

var historyRmCmd = &cobra.Command{
	Use:   "rm ID...",
	Short: "Delete recorded evaluations by ID (or a unique ID prefix)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		records, err := history.Load(e.cfg.HistoryDir)
		if err != nil {
			e.log.Warn("history damaged", "err", err)
		}
		ids := make([]history.ID, len(args))
		for i, prefix := range args {
			if ids[i], err = findID(records, prefix); err != nil {
				return err
			}
		}

		store := history.NewStore(e.cfg.HistoryDir, e.log)
		for _, id := range ids {
			store.Remove(id)
		}
		if err := store.Close(); err != nil {
			return fmt.Errorf("can't update history: %w", err)
		}
		e.log.Info("history entries removed", "count", len(ids))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Number of entries to show (default from config)")
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyRmCmd)
}

// findID resolves an ID prefix to the ID of exactly one record.
func findID(records []history.Record, prefix string) (history.ID, error) {
	var found []history.ID
	for _, r := range records {
		if strings.HasPrefix(string(r.ID), prefix) {
			found = append(found, r.ID)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("no history entry with ID %q", prefix)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("ID %q is ambiguous (%d entries)", prefix, len(found))
	}
}

func shortID(id history.ID) string {
	if len(id) > shortIDLen {
		return string(id[:shortIDLen])
	}
	return string(id)
}

func printHistory(w io.Writer, records []history.Record) {
	for _, r := range records {
		ts := r.Entry.Time.Local().Format("2006-01-02 15:04:05")
		if r.Entry.Failed() {
			fmt.Fprintf(w, "%-8s  %s  %s  error: %s\n", shortID(r.ID), ts, r.Entry.Expression, r.Entry.Error)
		} else {
			fmt.Fprintf(w, "%-8s  %s  %s = %s\n", shortID(r.ID), ts, r.Entry.Expression, r.Entry.Result)
		}
	}
}
