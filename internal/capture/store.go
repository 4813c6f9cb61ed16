package capture

import (
	"sort"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/dgnsrekt/netchat_agent/internal/types"
)

// Call is the in-memory record of one observed request. It wraps the raw CDP
// header maps, which are not safe to hand across contexts as-is; the
// serialization boundary flattens them on demand.
type Call struct {
	RequestID string
	TabID     string
	Method    string
	URL       string
	StartedAt time.Time

	RequestHeaders network.Headers
	PostData       []byte
	HasPostData    bool

	Response *Response
}

// Response is the completion half of a Call. A Call whose response never
// arrives keeps a nil Response permanently; that is an expected terminal
// state, not an error.
type Response struct {
	Status     int
	StatusText string
	ReceivedAt time.Time
	Headers    network.Headers
}

// Store owns the per-tab capture sequences. It is the only place these
// sequences are mutated; listeners and the control surface go through its
// operations. Every operation is atomic under the store lock, mirroring the
// non-interleaved handler execution the capture design assumes.
type Store struct {
	mu   sync.RWMutex
	tabs map[string][]*Call
	byID map[string]map[string]*Call // tab id → request id → call
}

// NewStore creates an empty capture store.
func NewStore() *Store {
	return &Store{
		tabs: make(map[string][]*Call),
		byID: make(map[string]map[string]*Call),
	}
}

// AppendCall records a newly observed request for a tab, creating the tab's
// sequence on first use. Repeated requests to the same URL produce distinct
// entries; there is no deduplication.
func (s *Store) AppendCall(tabID string, call *Call) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tabs[tabID] = append(s.tabs[tabID], call)

	idx, ok := s.byID[tabID]
	if !ok {
		idx = make(map[string]*Call)
		s.byID[tabID] = idx
	}
	idx[call.RequestID] = call
}

// AttachResponse pairs a completion event with its originating request via
// the request id. The completion event does not carry the tab, so the lookup
// walks the per-tab indexes. A miss means the request was evicted, cleared or
// filtered out before the response arrived; that is silently ignored by
// design. The response attaches at most once: a duplicate completion reports
// false so callers do not re-announce an already-completed call.
func (s *Store) AttachResponse(requestID string, resp *Response) (*Call, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, idx := range s.byID {
		if call, ok := idx[requestID]; ok {
			if call.Response != nil {
				return nil, false
			}
			call.Response = resp
			return call, true
		}
	}
	return nil, false
}

// ClearAll empties every tab's sequence. Tab keys survive; only their
// contents are dropped. Used on explicit clear and on active-tab change.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for tabID := range s.tabs {
		s.tabs[tabID] = nil
	}
	for tabID := range s.byID {
		s.byID[tabID] = make(map[string]*Call)
	}
}

// ClearTab empties a single tab's sequence without removing the key.
func (s *Store) ClearTab(tabID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tabs[tabID]; ok {
		s.tabs[tabID] = nil
	}
	if _, ok := s.byID[tabID]; ok {
		s.byID[tabID] = make(map[string]*Call)
	}
}

// RemoveTab deletes a tab's key entirely so closed tabs do not pin memory.
// A later request for the same tab id starts a fresh sequence.
func (s *Store) RemoveTab(tabID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tabs, tabID)
	delete(s.byID, tabID)
}

// Flatten serializes every tab's sequence into one slice. The result is
// sorted by request timestamp so callers see a deterministic chronological
// order regardless of map traversal.
func (s *Store) Flatten() []types.NetworkCall {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.NetworkCall, 0)
	for _, calls := range s.tabs {
		for _, call := range calls {
			out = append(out, Serialize(call))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Request.Timestamp < out[j].Request.Timestamp
	})
	return out
}

// Len returns the number of calls recorded for a tab.
func (s *Store) Len(tabID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tabs[tabID])
}

// TabCount returns the number of tabs with a live sequence key.
func (s *Store) TabCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tabs)
}
