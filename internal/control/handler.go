package control

import (
	"log/slog"

	"github.com/dgnsrekt/netchat_agent/internal/capture"
	"github.com/dgnsrekt/netchat_agent/internal/state"
	"github.com/dgnsrekt/netchat_agent/internal/types"
)

// Message kinds understood by the control surface.
const (
	MsgGetNetworkCalls    = "GET_NETWORK_CALLS"
	MsgClearNetworkCalls  = "CLEAR_NETWORK_CALLS"
	MsgToggleRecording    = "TOGGLE_RECORDING"
	MsgGetRecordingStatus = "GET_RECORDING_STATUS"
)

// Message is the request shape of the control protocol.
type Message struct {
	Type    string `json:"type"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// Reply is the status-style response shape shared by the non-read messages.
type Reply struct {
	Success bool   `json:"success"`
	Enabled *bool  `json:"enabled,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Handler dispatches control messages against the capture store and the
// recording flag. It is the only reader of the store exposed to other
// contexts.
type Handler struct {
	store     *capture.Store
	recording *state.Recording
}

// NewHandler builds a control handler.
func NewHandler(store *capture.Store, recording *state.Recording) *Handler {
	return &Handler{store: store, recording: recording}
}

// Handle executes one control message and returns its reply payload. It
// never returns an error to the caller: capture faults degrade to an empty
// result set so the panel keeps working.
func (h *Handler) Handle(msg Message) any {
	switch msg.Type {
	case MsgGetNetworkCalls:
		return h.networkCalls()
	case MsgClearNetworkCalls:
		h.store.ClearAll()
		return Reply{Success: true}
	case MsgToggleRecording:
		if msg.Enabled == nil {
			return Reply{Success: false, Error: "enabled field is required"}
		}
		if err := h.recording.SetEnabled(*msg.Enabled); err != nil {
			// The in-memory flag already flipped; persistence is best effort.
			slog.Warn("recording flag persistence failed", "error", err)
		}
		enabled := h.recording.Enabled()
		return Reply{Success: true, Enabled: &enabled}
	case MsgGetRecordingStatus:
		enabled := h.recording.Enabled()
		return Reply{Success: true, Enabled: &enabled}
	default:
		return Reply{Success: false, Error: "unknown message type: " + msg.Type}
	}
}

// networkCalls flattens the store into one serialized sequence. Any panic
// while serializing is absorbed and surfaced as an empty set.
func (h *Handler) networkCalls() (calls []types.NetworkCall) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("network call serialization failed", "panic", r)
			calls = []types.NetworkCall{}
		}
	}()
	return h.store.Flatten()
}
