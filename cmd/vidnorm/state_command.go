package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vidnorm/internal/state"
)

func newStateCommand(ctx *commandContext) *cobra.Command {
	var backend string
	var status string

	cmd := &cobra.Command{
		Use:   "state <directory>",
		Short: "Show recorded per-file outcomes for a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]
			if info, err := os.Stat(root); err != nil || !info.IsDir() {
				return fmt.Errorf("directory not found: %s", root)
			}
			if backend == "" {
				cfg, err := ctx.loadConfig(cmd)
				if err != nil {
					return err
				}
				backend = cfg.State.Backend
			}

			store, err := state.Open(cmd.Context(), root, backend, nil)
			if err != nil {
				return err
			}
			defer store.Close()

			filter := state.Status(strings.ToLower(strings.TrimSpace(status)))
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			counts := map[state.Status]int{}
			rows := make([][]string, 0)
			for _, entry := range store.Records() {
				counts[entry.Record.Status]++
				if filter != "" && entry.Record.Status != filter {
					continue
				}
				rows = append(rows, []string{
					relativeTo(root, entry.Path),
					colorizeStatus(entry.Record.Status, colorize),
					strconv.FormatInt(entry.Record.Size, 10),
					formatMTime(entry.Record.MTime),
				})
			}

			totals := fmt.Sprintf("%d compatible, %d converted, %d failed",
				counts[state.StatusCompatible], counts[state.StatusConverted], counts[state.StatusFailed])
			if len(rows) == 0 {
				fmt.Fprintln(out, "No records")
				fmt.Fprintln(out, totals)
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]column{{Header: "File"}, {Header: "Status"}, {Header: "Size", Right: true}, {Header: "Modified"}},
				rows,
				totals,
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&backend, "state-backend", "", "State backend (json, sqlite); defaults to the configured backend")
	cmd.Flags().StringVar(&status, "status", "", "Only show records with this status")
	return cmd
}

func relativeTo(root, path string) string {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(absRoot, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func formatMTime(mtime float64) string {
	sec := int64(mtime)
	nsec := int64((mtime - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC().Format(time.RFC3339)
}
