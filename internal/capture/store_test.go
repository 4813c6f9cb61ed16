package capture

import (
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
)

func newTestCall(requestID, tabID, method, url string, startedAt time.Time) *Call {
	return &Call{
		RequestID:      requestID,
		TabID:          tabID,
		Method:         method,
		URL:            url,
		StartedAt:      startedAt,
		RequestHeaders: network.Headers{"Content-Type": "application/json"},
	}
}

func TestStoreAppendPreservesObservationOrder(t *testing.T) {
	s := NewStore()
	base := time.Now().UTC()

	s.AppendCall("tab-5", newTestCall("r1", "tab-5", "GET", "https://api.test/a", base))
	s.AppendCall("tab-5", newTestCall("r2", "tab-5", "POST", "https://api.test/b", base.Add(time.Millisecond)))
	s.AppendCall("tab-5", newTestCall("r3", "tab-5", "GET", "https://api.test/a", base.Add(2*time.Millisecond)))

	if got := s.Len("tab-5"); got != 3 {
		t.Fatalf("Len(tab-5) = %d; want 3", got)
	}

	flat := s.Flatten()
	if len(flat) != 3 {
		t.Fatalf("Flatten() len = %d; want 3", len(flat))
	}
	wantIDs := []string{"r1", "r2", "r3"}
	for i, want := range wantIDs {
		if flat[i].Request.RequestID != want {
			t.Fatalf("Flatten()[%d].RequestID = %q; want %q", i, flat[i].Request.RequestID, want)
		}
	}
}

func TestStoreAppendNoDeduplication(t *testing.T) {
	s := NewStore()
	now := time.Now().UTC()

	s.AppendCall("tab-1", newTestCall("r1", "tab-1", "GET", "https://api.test/x", now))
	s.AppendCall("tab-1", newTestCall("r2", "tab-1", "GET", "https://api.test/x", now))

	if got := s.Len("tab-1"); got != 2 {
		t.Fatalf("Len(tab-1) = %d; want 2 distinct entries for the same URL", got)
	}
}

func TestStoreAttachResponse(t *testing.T) {
	t.Run("sets_exactly_one_response_without_changing_length", func(t *testing.T) {
		s := NewStore()
		now := time.Now().UTC()
		s.AppendCall("tab-1", newTestCall("r1", "tab-1", "GET", "https://api.test/a", now))
		s.AppendCall("tab-1", newTestCall("r2", "tab-1", "GET", "https://api.test/b", now.Add(time.Millisecond)))

		call, ok := s.AttachResponse("r1", &Response{Status: 200, StatusText: "OK", ReceivedAt: now.Add(time.Second)})
		if !ok {
			t.Fatalf("AttachResponse(r1) = false; want true")
		}
		if call.Response == nil || call.Response.Status != 200 {
			t.Fatalf("attached response = %+v; want status 200", call.Response)
		}
		if got := s.Len("tab-1"); got != 2 {
			t.Fatalf("Len(tab-1) = %d after attach; want 2", got)
		}

		flat := s.Flatten()
		if flat[0].Response == nil {
			t.Fatalf("r1 response = nil after attach")
		}
		if flat[1].Response != nil {
			t.Fatalf("r2 response = %+v; want nil", flat[1].Response)
		}
	})

	t.Run("orphaned_response_is_a_noop", func(t *testing.T) {
		s := NewStore()
		s.AppendCall("tab-1", newTestCall("r1", "tab-1", "GET", "https://api.test/a", time.Now().UTC()))

		if _, ok := s.AttachResponse("missing", &Response{Status: 404}); ok {
			t.Fatalf("AttachResponse(missing) = true; want false")
		}
		if got := s.Len("tab-1"); got != 1 {
			t.Fatalf("Len(tab-1) = %d; want 1 (store unchanged)", got)
		}
		if flat := s.Flatten(); flat[0].Response != nil {
			t.Fatalf("existing call mutated by orphaned response: %+v", flat[0].Response)
		}
	})

	t.Run("response_transition_happens_at_most_once", func(t *testing.T) {
		s := NewStore()
		s.AppendCall("tab-1", newTestCall("r1", "tab-1", "GET", "https://api.test/a", time.Now().UTC()))

		if _, ok := s.AttachResponse("r1", &Response{Status: 200}); !ok {
			t.Fatalf("first AttachResponse(r1) = false; want true")
		}
		if _, ok := s.AttachResponse("r1", &Response{Status: 500}); ok {
			t.Fatalf("duplicate AttachResponse(r1) = true; want false (no transition)")
		}

		if flat := s.Flatten(); flat[0].Response.Status != 200 {
			t.Fatalf("response status = %d after duplicate attach; want 200", flat[0].Response.Status)
		}
	})
}

func TestStoreClearAll(t *testing.T) {
	s := NewStore()
	now := time.Now().UTC()
	s.AppendCall("tab-1", newTestCall("r1", "tab-1", "GET", "https://api.test/a", now))
	s.AppendCall("tab-2", newTestCall("r2", "tab-2", "GET", "https://api.test/b", now))

	s.ClearAll()

	if got := len(s.Flatten()); got != 0 {
		t.Fatalf("Flatten() len = %d after ClearAll; want 0", got)
	}
	// Keys survive a clear; only contents are dropped.
	if got := s.TabCount(); got != 2 {
		t.Fatalf("TabCount() = %d after ClearAll; want 2", got)
	}
	if _, ok := s.AttachResponse("r1", &Response{Status: 200}); ok {
		t.Fatalf("AttachResponse succeeded for a cleared request; want silent miss")
	}
}

func TestStoreClearTab(t *testing.T) {
	s := NewStore()
	now := time.Now().UTC()
	s.AppendCall("tab-1", newTestCall("r1", "tab-1", "GET", "https://api.test/a", now))
	s.AppendCall("tab-2", newTestCall("r2", "tab-2", "GET", "https://api.test/b", now))

	s.ClearTab("tab-1")

	if got := s.Len("tab-1"); got != 0 {
		t.Fatalf("Len(tab-1) = %d after ClearTab; want 0", got)
	}
	if got := s.Len("tab-2"); got != 1 {
		t.Fatalf("Len(tab-2) = %d; want 1 (other tabs untouched)", got)
	}
}

func TestStoreRemoveTab(t *testing.T) {
	s := NewStore()
	now := time.Now().UTC()
	s.AppendCall("tab-1", newTestCall("r1", "tab-1", "GET", "https://api.test/a", now))

	s.RemoveTab("tab-1")

	if got := s.TabCount(); got != 0 {
		t.Fatalf("TabCount() = %d after RemoveTab; want 0", got)
	}

	// A later request for the same tab id starts a fresh sequence.
	s.AppendCall("tab-1", newTestCall("r9", "tab-1", "GET", "https://api.test/z", now))
	if got := s.Len("tab-1"); got != 1 {
		t.Fatalf("Len(tab-1) = %d after re-append; want 1", got)
	}
	if _, ok := s.AttachResponse("r1", &Response{Status: 200}); ok {
		t.Fatalf("stale request id still resolvable after RemoveTab")
	}
}

func TestStoreFlattenSortsAcrossTabsByRequestTime(t *testing.T) {
	s := NewStore()
	base := time.UnixMilli(1_700_000_000_000).UTC()

	s.AppendCall("tab-b", newTestCall("r2", "tab-b", "GET", "https://api.test/2", base.Add(20*time.Millisecond)))
	s.AppendCall("tab-a", newTestCall("r1", "tab-a", "GET", "https://api.test/1", base.Add(10*time.Millisecond)))
	s.AppendCall("tab-c", newTestCall("r3", "tab-c", "GET", "https://api.test/3", base.Add(30*time.Millisecond)))

	flat := s.Flatten()
	wantIDs := []string{"r1", "r2", "r3"}
	for i, want := range wantIDs {
		if flat[i].Request.RequestID != want {
			t.Fatalf("Flatten()[%d].RequestID = %q; want %q", i, flat[i].Request.RequestID, want)
		}
	}
}
