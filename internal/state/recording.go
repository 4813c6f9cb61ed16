package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

type persistedState struct {
	Enabled bool `json:"isRecordingEnabled"`
}

// Recording owns the process-wide recording flag and mirrors it to a small
// JSON state file so the toggle survives an agent restart. Open must complete
// before any listener processes real traffic, otherwise a stale default could
// admit or reject calls during the startup window.
type Recording struct {
	path string

	mu      sync.RWMutex
	enabled bool
}

// Open loads the persisted flag, defaulting to enabled when the state file
// does not exist yet or cannot be parsed.
func Open(path string) *Recording {
	r := &Recording{path: path, enabled: true}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("recording state unreadable, using default", "path", path, "error", err)
		}
		return r
	}

	var st persistedState
	if err := json.Unmarshal(data, &st); err != nil {
		slog.Warn("recording state corrupt, using default", "path", path, "error", err)
		return r
	}

	r.enabled = st.Enabled
	return r
}

// Enabled reports whether new network calls should be observed.
func (r *Recording) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}

// SetEnabled flips the flag and writes it through to the state file. The
// in-memory flag is authoritative; a persistence failure is returned but the
// toggle still takes effect for the current session.
func (r *Recording) SetEnabled(v bool) error {
	r.mu.Lock()
	r.enabled = v
	r.mu.Unlock()

	data, err := json.MarshalIndent(persistedState{Enabled: v}, "", "  ")
	if err != nil {
		return fmt.Errorf("recording state: marshal: %w", err)
	}
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("recording state: mkdir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("recording state: write: %w", err)
	}
	return nil
}
