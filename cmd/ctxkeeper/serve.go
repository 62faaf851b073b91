package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	ctxserver "github.com/HendryAvila/ctxkeeper/internal/server"
)

func serveCmd() *cobra.Command {
	var (
		httpAddr string
		noHTTP   bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio) and the hook HTTP API",
		Long: `Start ctxkeeper for the current project.

MCP runs over stdio. The HTTP API receives events from host hooks
("ctxkeeper hook ...") and serves /metrics. If the HTTP address is already
in use, ctxkeeper logs a warning and continues with stdio only.

Examples:
  ctxkeeper serve
  ctxkeeper serve --http-addr 127.0.0.1:9000
  ctxkeeper serve --no-http`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, cfg, err := loadProject()
			if err != nil {
				return err
			}
			if httpAddr != "" {
				cfg.Server.HTTPAddr = httpAddr
			}
			logger := newLogger(cfg.LogLevel)

			app, cleanup, err := ctxserver.New(root, cfg, logger)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			if !noHTTP && cfg.Server.HTTPAddr != "" {
				srv := &http.Server{
					Addr:         cfg.Server.HTTPAddr,
					Handler:      app.HTTPHandler(),
					ReadTimeout:  30 * time.Second,
					WriteTimeout: 60 * time.Second,
					IdleTimeout:  120 * time.Second,
				}
				ln, err := net.Listen("tcp", srv.Addr)
				if err != nil {
					logger.Warn("http api disabled", "addr", srv.Addr, "error", err)
				} else {
					go func() {
						logger.Info("http api listening", "addr", ln.Addr().String())
						if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
							logger.Error("http server error", "error", err)
						}
					}()
					defer func() {
						ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
						defer cancel()
						_ = srv.Shutdown(ctx)
					}()
				}
			}

			logger.Info("mcp server starting", "project", root, "version", ctxserver.Version)
			// ServeStdio handles SIGINT/SIGTERM itself and returns on shutdown.
			return server.ServeStdio(app.MCP)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http-addr", "", "HTTP API address (overrides config)")
	cmd.Flags().BoolVar(&noHTTP, "no-http", false, "disable the HTTP API")
	return cmd
}
