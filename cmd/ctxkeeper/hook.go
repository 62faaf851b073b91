package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// hookTimeout bounds a hook call. Hosts run hooks inline with the agent.
const hookTimeout = 2 * time.Second

var hookClient = &http.Client{Timeout: hookTimeout}

func hookCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Forward host hook events to a running ctxkeeper",
		Long: `Forward events from an agent host's hooks to "ctxkeeper serve".

Failures are reported on stderr but exit 0 so a stopped server never
blocks the agent. Use --strict to exit non-zero instead.`,
	}
	cmd.PersistentFlags().BoolVar(&strict, "strict", false, "exit non-zero when the server cannot be reached")

	tool := &cobra.Command{
		Use:   "tool",
		Short: "Forward a tool invocation read as JSON from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return hookErr(strict, fmt.Errorf("reading stdin: %w", err))
			}
			if len(bytes.TrimSpace(body)) == 0 {
				return hookErr(strict, fmt.Errorf("empty tool payload on stdin"))
			}
			return hookErr(strict, postHook("/v1/events/tool", body))
		},
	}

	var sessionID string
	sess := &cobra.Command{
		Use:       "session <start|idle|end>",
		Short:     "Forward a session lifecycle event",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"start", "idle", "end"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" {
				sessionID = sessionIDFromStdin(cmd.InOrStdin())
			}
			body, err := json.Marshal(map[string]string{"event": args[0], "session_id": sessionID})
			if err != nil {
				return hookErr(strict, err)
			}
			return hookErr(strict, postHook("/v1/events/session", body))
		},
	}
	sess.Flags().StringVar(&sessionID, "session-id", "", "host session ID (default: session_id from stdin JSON, if any)")

	cmd.AddCommand(tool, sess)
	return cmd
}

func postHook(path string, body []byte) error {
	_, cfg, err := loadProject()
	if err != nil {
		return err
	}
	if cfg.Server.HTTPAddr == "" {
		return fmt.Errorf("no http_addr configured")
	}

	url := "http://" + strings.TrimPrefix(cfg.Server.HTTPAddr, "http://") + path
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.Server.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Server.APIKey)
	}

	resp, err := hookClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%s: %s %s", path, resp.Status, e.Error)
	}
	return nil
}

// sessionIDFromStdin reads an optional hook payload and returns its
// session_id. Terminals and empty input yield "".
func sessionIDFromStdin(r io.Reader) string {
	if f, ok := r.(*os.File); ok {
		if info, err := f.Stat(); err != nil || info.Mode()&os.ModeCharDevice != 0 {
			return ""
		}
	}
	var payload struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 1<<20)).Decode(&payload); err != nil {
		return ""
	}
	return payload.SessionID
}

func hookErr(strict bool, err error) error {
	if err == nil {
		return nil
	}
	if strict {
		return err
	}
	fmt.Fprintf(os.Stderr, "ctxkeeper hook: %v\n", err)
	return nil
}
