package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// Wire vocabulary spoken over the websocket endpoint.
const (
	evtJoin   = "character:join"
	evtUpdate = "character:update"
	evtState  = "character:state"
	evtPatch  = "character:patch"
)

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewCharacterCommand constructs the `character` command group and subcommands.
func NewCharacterCommand(baseURL BaseURLFunc) *cobra.Command {
	characterCmd := &cobra.Command{Use: "character", Short: "Character sheet operations"}

	characterCmd.AddCommand(
		newCharacterListCommand(baseURL),
		newCharacterGetCommand(baseURL),
		newCharacterUpdateCommand(baseURL),
		newCharacterWatchCommand(baseURL),
	)

	return characterCmd
}

// newCharacterListCommand constructs the `character list` subcommand.
func newCharacterListCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known character slugs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := httpGet(baseURL() + "/v1/characters")
			if err != nil {
				return err
			}
			var resp struct {
				Characters []string `json:"characters"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return err
			}
			for _, slug := range resp.Characters {
				fmt.Fprintln(cmd.OutOrStdout(), slug)
			}
			return nil
		},
	}
}

// newCharacterGetCommand constructs the `character get` subcommand.
func newCharacterGetCommand(baseURL BaseURLFunc) *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Print a character's current document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			slug, _ := cmd.Flags().GetString("slug")
			if slug == "" {
				return fmt.Errorf("--slug is required")
			}
			body, err := httpGet(baseURL() + "/v1/characters/" + slug)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), body)
		},
	}
	getCmd.Flags().StringP("slug", "s", "", "Character slug")
	return getCmd
}

// newCharacterUpdateCommand constructs the `character update` subcommand.
// It joins the character's room over the websocket, applies one patch, and
// prints the merged document the server echoes back.
func newCharacterUpdateCommand(baseURL BaseURLFunc) *cobra.Command {
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Apply a deep-merge patch to a character",
		RunE: func(cmd *cobra.Command, _ []string) error {
			slug, _ := cmd.Flags().GetString("slug")
			patchStr, _ := cmd.Flags().GetString("patch")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			if slug == "" {
				return fmt.Errorf("--slug is required")
			}
			var patch map[string]any
			if err := json.Unmarshal([]byte(patchStr), &patch); err != nil {
				return fmt.Errorf("invalid --patch: %w", err)
			}

			conn, err := dialRealtime(baseURL())
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := writeEvent(conn, evtJoin, map[string]any{"slug": slug}); err != nil {
				return err
			}
			// First state frame confirms the join; the second is the echo
			// for our patch.
			if _, err := readEvent(conn, evtState, timeout); err != nil {
				return fmt.Errorf("join %q: %w (unknown character?)", slug, err)
			}
			if err := writeEvent(conn, evtUpdate, map[string]any{"slug": slug, "patch": patch}); err != nil {
				return err
			}
			state, err := readEvent(conn, evtState, timeout)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), state)
		},
	}
	updateCmd.Flags().StringP("slug", "s", "", "Character slug")
	updateCmd.Flags().StringP("patch", "p", "{}", "JSON patch object (deep-merged into the document)")
	updateCmd.Flags().Duration("timeout", 5*time.Second, "Time to wait for the server's echo")
	return updateCmd
}

// newCharacterWatchCommand constructs the `character watch` subcommand.
func newCharacterWatchCommand(baseURL BaseURLFunc) *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow live edits to a character",
		RunE: func(cmd *cobra.Command, _ []string) error {
			slug, _ := cmd.Flags().GetString("slug")
			limit, _ := cmd.Flags().GetInt("limit")
			if slug == "" {
				return fmt.Errorf("--slug is required")
			}

			conn, err := dialRealtime(baseURL())
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := writeEvent(conn, evtJoin, map[string]any{"slug": slug}); err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			seen := 0
			for limit == 0 || seen < limit {
				if err := cmd.Context().Err(); err != nil {
					return nil
				}
				var env envelope
				if err := conn.ReadJSON(&env); err != nil {
					return err
				}
				switch env.Type {
				case evtState, evtPatch:
					var v any
					if err := json.Unmarshal(env.Data, &v); err != nil {
						continue
					}
					_ = enc.Encode(map[string]any{"event": env.Type, "data": v})
					seen++
				}
			}
			return nil
		},
	}
	watchCmd.Flags().StringP("slug", "s", "", "Character slug")
	watchCmd.Flags().Int("limit", 0, "Stop after N events (0 = infinite)")
	return watchCmd
}

// dialRealtime connects to the websocket endpoint derived from the HTTP base URL.
func dialRealtime(base string) (*websocket.Conn, error) {
	wsURL := strings.Replace(base, "http", "ws", 1) + "/v1/realtime"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}
	return conn, nil
}

func writeEvent(conn *websocket.Conn, event string, data any) error {
	return conn.WriteJSON(map[string]any{"type": event, "data": data})
}

// readEvent reads frames until one matching the wanted event arrives,
// skipping unrelated broadcasts such as presence updates.
func readEvent(conn *websocket.Conn, want string, timeout time.Duration) (json.RawMessage, error) {
	deadline := time.Now().Add(timeout)
	_ = conn.SetReadDeadline(deadline)
	for time.Now().Before(deadline) {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			return nil, err
		}
		if env.Type == want {
			return env.Data, nil
		}
	}
	return nil, fmt.Errorf("timed out waiting for %s", want)
}

func httpGet(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// printJSON re-indents raw JSON for terminal output.
func printJSON(w io.Writer, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
