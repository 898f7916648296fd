package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream the session's state as it changes",
		Long: `Connect to the session's SSE endpoint and print its state in real-time.

Events include:
  - connected: The stream is open
  - session: The session's state changed (signed in or out, profile loaded,
    an operation started or failed)

Press Ctrl+C to disconnect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Token == "" {
				return fmt.Errorf("no session; run 'cgame session new' first")
			}
			return streamEvents(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

// SSEEvent represents a parsed SSE event
type SSEEvent struct {
	Time  time.Time `json:"time"`
	Event string    `json:"event"`
	Data  string    `json:"data"`
}

func streamEvents(jsonOutput bool) error {
	// SSE is on the web router, not the API router; both share the session cookie
	url := strings.TrimSuffix(cfg.ServerURL, "/") + "/session/events"

	// Create request
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	req.AddCookie(&http.Cookie{
		Name:  "session",
		Value: cfg.Token,
	})

	// Set up cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	req = req.WithContext(ctx)

	// Make request
	httpClient := &http.Client{
		Timeout: 0, // No timeout for SSE
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if !jsonOutput {
		fmt.Println("Connected to session events")
	}

	// Parse SSE stream
	scanner := bufio.NewScanner(resp.Body)
	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "event: ") {
			currentEvent = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		} else if line == "" {
			// End of event
			if currentEvent != "" {
				data := strings.Join(dataLines, "\n")
				printEvent(currentEvent, data, jsonOutput)
			}
			currentEvent = ""
			dataLines = nil
		}
	}

	if err := scanner.Err(); err != nil {
		// Context cancellation is expected
		if ctx.Err() != nil {
			if !jsonOutput {
				fmt.Println("\nDisconnected")
			}
			return nil
		}
		return fmt.Errorf("stream error: %w", err)
	}

	if !jsonOutput {
		fmt.Println("Disconnected")
	}
	return nil
}

func printEvent(event, data string, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		evt := SSEEvent{
			Time:  now,
			Event: event,
			Data:  data,
		}
		jsonData, _ := json.Marshal(evt)
		fmt.Println(string(jsonData))
	} else {
		timestamp := now.Format("2006-01-02 15:04:05")
		if event == "session" {
			var snap SessionEvent
			if err := json.Unmarshal([]byte(data), &snap); err == nil {
				fmt.Printf("[%s] %s\n", timestamp, describeSession(snap))
				return
			}
		}
		// Remove newlines for cleaner display
		fmt.Printf("[%s] %s: %s\n", timestamp, event, strings.ReplaceAll(data, "\n", " "))
	}
}

// SessionEvent is the payload of a session event
type SessionEvent struct {
	State     string `json:"state"`
	SignedIn  bool   `json:"signed_in"`
	Loading   bool   `json:"loading"`
	Username  string `json:"username,omitempty"`
	Elo       *int   `json:"elo,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Seq       uint64 `json:"seq"`
	Version   uint64 `json:"version"`
}

// describeSession summarises a session event on one line
func describeSession(s SessionEvent) string {
	line := s.State
	if s.Loading {
		line += " (loading)"
	}
	switch {
	case s.Elo != nil:
		line += fmt.Sprintf(" as %s, elo %d", s.Username, *s.Elo)
	case s.SignedIn:
		line += " without a profile"
	}
	if s.ErrorKind != "" {
		line += " [" + s.ErrorKind + "]"
	}
	return line
}
