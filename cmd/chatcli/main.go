package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dgnsrekt/netchat_agent/internal/config"
	"github.com/dgnsrekt/netchat_agent/internal/control"
	"github.com/dgnsrekt/netchat_agent/internal/types"
)

// maxCallsPerChat bounds how many completed calls ride along with one chat
// request.
const maxCallsPerChat = 100

func main() {
	cfg, err := config.LoadCLI()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	ctrl, err := control.Dial(ctx, cfg.ControlURL)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot reach capture agent:", err)
		os.Exit(1)
	}
	defer func() { _ = ctrl.Close() }()

	fmt.Println("netchat - ask about the traffic your browser is making")
	fmt.Println("commands: /status /toggle /clear /quit")

	var sessionID string
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			return
		case line == "/status":
			enabled, err := ctrl.RecordingStatus()
			if err != nil {
				fmt.Fprintln(os.Stderr, "status failed:", err)
				continue
			}
			fmt.Printf("recording: %v\n", enabled)
		case line == "/toggle":
			enabled, err := ctrl.RecordingStatus()
			if err != nil {
				fmt.Fprintln(os.Stderr, "toggle failed:", err)
				continue
			}
			enabled, err = ctrl.ToggleRecording(!enabled)
			if err != nil {
				fmt.Fprintln(os.Stderr, "toggle failed:", err)
				continue
			}
			fmt.Printf("recording: %v\n", enabled)
		case line == "/clear":
			if err := ctrl.ClearNetworkCalls(); err != nil {
				fmt.Fprintln(os.Stderr, "clear failed:", err)
				continue
			}
			fmt.Println("captured calls cleared")
		default:
			sessionID = ask(ctrl, cfg.ChatURL, sessionID, line)
		}
	}
}

// ask runs one chat turn and prints the assistant's reply. Backend failures
// are reported to the user without retry.
func ask(ctrl *control.Client, chatURL, sessionID, message string) string {
	calls, err := ctrl.GetNetworkCalls()
	if err != nil {
		fmt.Fprintln(os.Stderr, "could not fetch captured calls:", err)
		return sessionID
	}

	reply, err := postChat(chatURL, sessionID, message, selectCompleted(calls, maxCallsPerChat))
	if err != nil {
		fmt.Fprintln(os.Stderr, "chat failed:", err)
		return sessionID
	}

	for i := len(reply.Messages) - 1; i >= 0; i-- {
		if reply.Messages[i].Type == types.RoleAI {
			fmt.Println(reply.Messages[i].Data.Content)
			break
		}
	}
	return reply.SessionID
}

// selectCompleted keeps only calls with a response, most recent first,
// capped at limit.
func selectCompleted(calls []types.NetworkCall, limit int) []types.NetworkCall {
	out := make([]types.NetworkCall, 0, len(calls))
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Completed() {
			out = append(out, calls[i])
		}
		if len(out) == limit {
			break
		}
	}
	return out
}

type chatReply struct {
	SessionID string              `json:"sessionId"`
	Messages  []types.ChatMessage `json:"messages"`
}

func postChat(chatURL, sessionID, message string, calls []types.NetworkCall) (*chatReply, error) {
	payload, err := json.Marshal(map[string]any{
		"sessionId":    sessionID,
		"message":      message,
		"networkCalls": calls,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, chatURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("chat server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out chatReply
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	return &out, nil
}
