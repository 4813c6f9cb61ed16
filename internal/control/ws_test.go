package control

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/netchat_agent/internal/capture"
	"github.com/dgnsrekt/netchat_agent/internal/state"
)

func startWSServer(t *testing.T) (*Client, *capture.Store) {
	t.Helper()

	store := capture.NewStore()
	rec := state.Open(filepath.Join(t.TempDir(), "state.json"))
	srv := httptest.NewServer(WSHandler(NewHandler(store, rec)))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Dial(ctx, wsURL)
	if err != nil {
		t.Fatalf("Dial(%s) = %v", wsURL, err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return client, store
}

func TestControlOverWebSocket(t *testing.T) {
	client, store := startWSServer(t)

	store.AppendCall("tab-1", &capture.Call{
		RequestID: "r1",
		TabID:     "tab-1",
		Method:    "GET",
		URL:       "https://api.test/a",
		StartedAt: time.Now().UTC(),
	})

	t.Run("get_network_calls", func(t *testing.T) {
		calls, err := client.GetNetworkCalls()
		if err != nil {
			t.Fatalf("GetNetworkCalls() = %v", err)
		}
		if len(calls) != 1 || calls[0].Request.RequestID != "r1" {
			t.Fatalf("calls = %+v; want one call r1", calls)
		}
	})

	t.Run("recording_status_and_toggle", func(t *testing.T) {
		enabled, err := client.RecordingStatus()
		if err != nil || !enabled {
			t.Fatalf("RecordingStatus() = %v, %v; want true, nil", enabled, err)
		}

		enabled, err = client.ToggleRecording(false)
		if err != nil || enabled {
			t.Fatalf("ToggleRecording(false) = %v, %v; want false, nil", enabled, err)
		}

		enabled, err = client.RecordingStatus()
		if err != nil || enabled {
			t.Fatalf("RecordingStatus() after toggle = %v, %v; want false, nil", enabled, err)
		}
	})

	t.Run("clear_network_calls", func(t *testing.T) {
		if err := client.ClearNetworkCalls(); err != nil {
			t.Fatalf("ClearNetworkCalls() = %v", err)
		}
		calls, err := client.GetNetworkCalls()
		if err != nil {
			t.Fatalf("GetNetworkCalls() = %v", err)
		}
		if len(calls) != 0 {
			t.Fatalf("calls = %+v after clear; want none", calls)
		}
	})
}
