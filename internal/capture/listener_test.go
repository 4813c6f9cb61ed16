package capture

import (
	"encoding/base64"
	"path/filepath"
	"testing"

	"github.com/chromedp/cdproto/network"
	"github.com/dgnsrekt/netchat_agent/internal/state"
)

type fakePublisher struct {
	kinds    []string
	payloads []any
}

func (f *fakePublisher) Publish(kind string, payload any) {
	f.kinds = append(f.kinds, kind)
	f.payloads = append(f.payloads, payload)
}

func testRecording(t *testing.T) *state.Recording {
	t.Helper()
	return state.Open(filepath.Join(t.TempDir(), "state.json"))
}

func startEvent(id string, resType network.ResourceType) *network.EventRequestWillBeSent {
	return &network.EventRequestWillBeSent{
		RequestID: network.RequestID(id),
		Type:      resType,
		Request: &network.Request{
			URL:     "https://api.test/users",
			Method:  "GET",
			Headers: network.Headers{"Accept": "application/json"},
		},
	}
}

func responseEvent(id string, resType network.ResourceType, status int64) *network.EventResponseReceived {
	return &network.EventResponseReceived{
		RequestID: network.RequestID(id),
		Type:      resType,
		Response: &network.Response{
			Status:     status,
			StatusText: "OK",
			Headers:    network.Headers{"Content-Type": "application/json"},
		},
	}
}

func TestListenerRecordsQualifyingStarts(t *testing.T) {
	store := NewStore()
	l := NewListener(store, testRecording(t), nil)

	l.OnRequestWillBeSent("tab-1", startEvent("r1", network.ResourceTypeXHR))
	l.OnRequestWillBeSent("tab-1", startEvent("r2", network.ResourceTypeFetch))

	if got := store.Len("tab-1"); got != 2 {
		t.Fatalf("Len(tab-1) = %d; want 2", got)
	}
}

func TestListenerFiltersResourceTypes(t *testing.T) {
	store := NewStore()
	l := NewListener(store, testRecording(t), nil)

	for _, rt := range []network.ResourceType{
		network.ResourceTypeDocument,
		network.ResourceTypeImage,
		network.ResourceTypeScript,
		network.ResourceTypeStylesheet,
		network.ResourceTypeWebSocket,
	} {
		l.OnRequestWillBeSent("tab-1", startEvent("r-"+string(rt), rt))
	}

	if got := store.Len("tab-1"); got != 0 {
		t.Fatalf("Len(tab-1) = %d; want 0 (non-fetch resource types discarded)", got)
	}
}

func TestListenerRecordingGateOnStart(t *testing.T) {
	store := NewStore()
	rec := testRecording(t)
	l := NewListener(store, rec, nil)

	if err := rec.SetEnabled(false); err != nil {
		t.Fatalf("SetEnabled(false) = %v", err)
	}
	l.OnRequestWillBeSent("tab-1", startEvent("r1", network.ResourceTypeXHR))

	if got := store.Len("tab-1"); got != 0 {
		t.Fatalf("Len(tab-1) = %d with recording off; want 0", got)
	}
}

func TestListenerRecordingGateOnCompletion(t *testing.T) {
	store := NewStore()
	rec := testRecording(t)
	l := NewListener(store, rec, nil)

	// Start while recording is on, complete after it is turned off: the
	// completion must be independently gated.
	l.OnRequestWillBeSent("tab-1", startEvent("r1", network.ResourceTypeXHR))
	if err := rec.SetEnabled(false); err != nil {
		t.Fatalf("SetEnabled(false) = %v", err)
	}
	l.OnResponseReceived("tab-1", responseEvent("r1", network.ResourceTypeXHR, 200))

	flat := store.Flatten()
	if len(flat) != 1 {
		t.Fatalf("Flatten() len = %d; want 1", len(flat))
	}
	if flat[0].Response != nil {
		t.Fatalf("response recorded while recording off: %+v", flat[0].Response)
	}
}

func TestListenerCompletionAttachesResponse(t *testing.T) {
	store := NewStore()
	pub := &fakePublisher{}
	l := NewListener(store, testRecording(t), pub)

	l.OnRequestWillBeSent("tab-1", startEvent("r1", network.ResourceTypeFetch))
	l.OnResponseReceived("tab-1", responseEvent("r1", network.ResourceTypeFetch, 201))

	flat := store.Flatten()
	if len(flat) != 1 || flat[0].Response == nil {
		t.Fatalf("Flatten() = %+v; want one completed call", flat)
	}
	if flat[0].Response.Status != 201 {
		t.Fatalf("response status = %d; want 201", flat[0].Response.Status)
	}

	if len(pub.kinds) != 1 || pub.kinds[0] != FeedCallCompleted {
		t.Fatalf("published kinds = %v; want [%s]", pub.kinds, FeedCallCompleted)
	}
}

func TestListenerDuplicateCompletionPublishesOnce(t *testing.T) {
	store := NewStore()
	pub := &fakePublisher{}
	l := NewListener(store, testRecording(t), pub)

	l.OnRequestWillBeSent("tab-1", startEvent("r1", network.ResourceTypeXHR))
	l.OnResponseReceived("tab-1", responseEvent("r1", network.ResourceTypeXHR, 200))
	l.OnResponseReceived("tab-1", responseEvent("r1", network.ResourceTypeXHR, 500))

	flat := store.Flatten()
	if len(flat) != 1 || flat[0].Response == nil || flat[0].Response.Status != 200 {
		t.Fatalf("Flatten() = %+v; want one call completed with status 200", flat)
	}
	if len(pub.kinds) != 1 {
		t.Fatalf("published %d events for one completion; want 1", len(pub.kinds))
	}
}

func TestListenerOrphanedCompletionPublishesNothing(t *testing.T) {
	store := NewStore()
	pub := &fakePublisher{}
	l := NewListener(store, testRecording(t), pub)

	l.OnResponseReceived("tab-1", responseEvent("never-started", network.ResourceTypeXHR, 200))

	if got := len(store.Flatten()); got != 0 {
		t.Fatalf("Flatten() len = %d; want 0", got)
	}
	if len(pub.kinds) != 0 {
		t.Fatalf("published kinds = %v; want none", pub.kinds)
	}
}

func TestListenerDecodesPostData(t *testing.T) {
	store := NewStore()
	l := NewListener(store, testRecording(t), nil)

	ev := startEvent("r1", network.ResourceTypeXHR)
	ev.Request.Method = "POST"
	ev.Request.HasPostData = true
	ev.Request.PostDataEntries = []*network.PostDataEntry{
		{Bytes: base64.StdEncoding.EncodeToString([]byte(`{"name":`))},
		{Bytes: base64.StdEncoding.EncodeToString([]byte(`"ada"}`))},
	}
	l.OnRequestWillBeSent("tab-1", ev)

	flat := store.Flatten()
	if len(flat) != 1 {
		t.Fatalf("Flatten() len = %d; want 1", len(flat))
	}
	if got := flat[0].Request.Body; got != `{"name":"ada"}` {
		t.Fatalf("request body = %q; want %q", got, `{"name":"ada"}`)
	}
}

func TestListenerScenarioLifecycle(t *testing.T) {
	store := NewStore()
	rec := testRecording(t)
	l := NewListener(store, rec, nil)

	// Start r1 on tab 5 while recording is on.
	l.OnRequestWillBeSent("tab-5", startEvent("r1", network.ResourceTypeXHR))
	flat := store.Flatten()
	if len(flat) != 1 || flat[0].Response != nil {
		t.Fatalf("after start: %+v; want one pending call", flat)
	}

	// Complete r1 with status 200.
	l.OnResponseReceived("tab-5", responseEvent("r1", network.ResourceTypeXHR, 200))
	flat = store.Flatten()
	if flat[0].Response == nil || flat[0].Response.Status != 200 {
		t.Fatalf("after completion: %+v; want status 200", flat[0])
	}

	// Active tab switch clears everything.
	store.ClearAll()
	if got := len(store.Flatten()); got != 0 {
		t.Fatalf("after tab switch: %d calls; want 0", got)
	}

	// Disable recording, start request B: sequence unchanged.
	if err := rec.SetEnabled(false); err != nil {
		t.Fatalf("SetEnabled(false) = %v", err)
	}
	l.OnRequestWillBeSent("tab-5", startEvent("rB", network.ResourceTypeXHR))
	if got := len(store.Flatten()); got != 0 {
		t.Fatalf("after disabled start: %d calls; want 0", got)
	}
}
