// ctxkeeper: context tracking and project memory for AI coding agents.
//
// A long-running MCP server that tracks what an agent has already looked at
// in a session, estimates how much of its context window that costs, and
// keeps durable per-project memory across sessions.
//
// Usage:
//
//	ctxkeeper serve                 # MCP over stdio plus the hook HTTP API
//	ctxkeeper hook tool             # forward a tool call (JSON on stdin)
//	ctxkeeper hook session <event>  # forward start, idle or end
//	ctxkeeper recall                # print project memory
//	ctxkeeper prune                 # apply memory retention
//	ctxkeeper status                # memory file statistics
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/ctxkeeper/internal/config"
	ctxserver "github.com/HendryAvila/ctxkeeper/internal/server"
)

// projectFlag is the --project persistent flag.
var projectFlag string

func main() {
	rootCmd := &cobra.Command{
		Use:           "ctxkeeper",
		Short:         "Context tracking and project memory for AI coding agents",
		Version:       ctxserver.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&projectFlag, "project", "p", "", "project root (default: nearest directory with .ctxkeeper or .git)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(hookCmd())
	rootCmd.AddCommand(recallCmd())
	rootCmd.AddCommand(pruneCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ctxkeeper v%s\n", ctxserver.Version)
		},
	}
}

// loadProject resolves the project root and loads its configuration.
func loadProject() (string, config.Config, error) {
	start := projectFlag
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", config.Config{}, fmt.Errorf("getting working directory: %w", err)
		}
		start = wd
	}
	root, err := config.FindProjectRoot(start)
	if err != nil {
		return "", config.Config{}, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return "", config.Config{}, err
	}
	return root, cfg, nil
}

// newLogger writes JSON logs to stderr. Stdout belongs to the MCP stdio
// transport.
func newLogger(level string) *slog.Logger {
	lvl, err := config.ParseLevel(level)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	if err != nil {
		logger.Warn("invalid log level, using info", "error", err)
	}
	return logger
}
