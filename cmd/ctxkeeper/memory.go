package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/ctxkeeper/internal/config"
	"github.com/HendryAvila/ctxkeeper/internal/memory"
)

// The commands in this file work on the memory file directly and do not
// need a running server. A running server keeps its own copy in memory and
// will overwrite offline edits on its next flush.

func openMemory(root string, cfg config.Config) *memory.Manager {
	logger := newLogger(cfg.LogLevel)
	return memory.Open(memory.NewFileStore(cfg.MemoryPath(root)), memory.ProjectID(root), logger.With("component", "memory"))
}

func recallCmd() *cobra.Command {
	var maxTokens int
	cmd := &cobra.Command{
		Use:   "recall",
		Short: "Print project memory as it would be injected into a prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, cfg, err := loadProject()
			if err != nil {
				return err
			}
			opts := cfg.RecallOptions()
			if maxTokens > 0 {
				opts.MaxTokens = maxTokens
			}
			out := openMemory(root, cfg).Recall(opts)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().IntVarP(&maxTokens, "max-tokens", "n", 0, "token budget (default from config)")
	return cmd
}

func pruneCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove old, unimportant memory entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, cfg, err := loadProject()
			if err != nil {
				return err
			}
			if days <= 0 {
				days = cfg.Memory.RetentionDays
			}
			mgr := openMemory(root, cfg)
			removed := mgr.Prune(days)
			if removed == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to prune.")
				return nil
			}
			if err := mgr.FlushErr(); err != nil {
				return fmt.Errorf("saving memory: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d entries older than %d days.\n", removed, days)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "retention in days (default from config)")
	return cmd
}

func statusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show memory file statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, cfg, err := loadProject()
			if err != nil {
				return err
			}
			stats := openMemory(root, cfg).Stats()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}
			writeStatus(cmd.OutOrStdout(), root, cfg.MemoryPath(root), stats)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")
	return cmd
}

func writeStatus(w io.Writer, root, path string, stats memory.Stats) {
	fmt.Fprintln(w, "ctxkeeper status")
	fmt.Fprintln(w, strings.Repeat("=", 40))
	fmt.Fprintf(w, "  Project:  %s\n", root)
	fmt.Fprintf(w, "  Memory:   %s\n", path)
	fmt.Fprintf(w, "  Entries:  %d\n", stats.TotalEntries)
	fmt.Fprintf(w, "  Sessions: %d\n", stats.Sessions)
	if stats.Oldest != nil && stats.Newest != nil {
		fmt.Fprintf(w, "  Range:    %s to %s\n", stats.Oldest.Format("2006-01-02"), stats.Newest.Format("2006-01-02"))
	}
	if len(stats.ByKind) == 0 {
		return
	}
	kinds := make([]string, 0, len(stats.ByKind))
	for k := range stats.ByKind {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	fmt.Fprintln(w, "\nBy kind:")
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-12s %d\n", k, stats.ByKind[memory.Kind(k)])
	}
}
