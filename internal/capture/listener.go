package capture

import (
	"encoding/base64"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/dgnsrekt/netchat_agent/internal/state"
)

// Publisher receives serialized capture updates for live consumers. A nil
// publisher disables the feed.
type Publisher interface {
	Publish(kind string, payload any)
}

// Feed event kinds emitted through the Publisher.
const (
	FeedCallCompleted = "call_completed"
)

// Listener bridges raw CDP network lifecycle events into store mutations.
// It is a pure translator: no retries, no event buffering, and it never
// interferes with the underlying traffic (CDP observation is passive).
type Listener struct {
	store     *Store
	recording *state.Recording
	publisher Publisher
}

// NewListener wires a listener to its store and recording flag.
func NewListener(store *Store, recording *state.Recording, publisher Publisher) *Listener {
	return &Listener{store: store, recording: recording, publisher: publisher}
}

// resourceEligible filters to the two fetch-style resource types meaning
// "programmatic HTTP call". Navigations, images, scripts and the rest are
// discarded.
func resourceEligible(t network.ResourceType) bool {
	return t == network.ResourceTypeXHR || t == network.ResourceTypeFetch
}

// OnRequestWillBeSent records the start of a qualifying request. Disabled
// recording means the event is observed but produces no mutation.
func (l *Listener) OnRequestWillBeSent(tabID string, ev *network.EventRequestWillBeSent) {
	if !l.recording.Enabled() {
		return
	}
	if !resourceEligible(ev.Type) {
		return
	}

	call := &Call{
		RequestID:      string(ev.RequestID),
		TabID:          tabID,
		Method:         ev.Request.Method,
		URL:            ev.Request.URL,
		StartedAt:      time.Now().UTC(),
		RequestHeaders: ev.Request.Headers,
		HasPostData:    ev.Request.HasPostData,
	}

	if ev.Request.HasPostData && len(ev.Request.PostDataEntries) > 0 {
		var decoded []byte
		for _, entry := range ev.Request.PostDataEntries {
			if entry.Bytes == "" {
				continue
			}
			part, err := base64.StdEncoding.DecodeString(entry.Bytes)
			if err != nil {
				decoded = append(decoded, []byte(entry.Bytes)...)
			} else {
				decoded = append(decoded, part...)
			}
		}
		call.PostData = decoded
	}

	l.store.AppendCall(tabID, call)
}

// OnResponseReceived pairs a completion with its request. The recording flag
// is checked again here: completions for requests that started while
// recording was on are dropped once it is off. A response whose request is no
// longer in the store is silently ignored; that race is expected.
func (l *Listener) OnResponseReceived(tabID string, ev *network.EventResponseReceived) {
	if !l.recording.Enabled() {
		return
	}
	if !resourceEligible(ev.Type) {
		return
	}

	resp := &Response{
		Status:     int(ev.Response.Status),
		StatusText: ev.Response.StatusText,
		ReceivedAt: time.Now().UTC(),
		Headers:    ev.Response.Headers,
	}

	call, ok := l.store.AttachResponse(string(ev.RequestID), resp)
	if !ok {
		return
	}

	if l.publisher != nil {
		l.publisher.Publish(FeedCallCompleted, Serialize(call))
	}
}

// OnLoadingFailed is intentionally a no-op on the store: a request whose
// response never arrives keeps its nil response as a terminal state.
func (l *Listener) OnLoadingFailed(tabID string, ev *network.EventLoadingFailed) {
	_ = tabID
	_ = ev
}
