package capture

import (
	"unicode/utf8"

	"github.com/chromedp/cdproto/network"
	"github.com/dgnsrekt/netchat_agent/internal/types"
)

// maxBodyPreview bounds how much of a request body is carried across the
// serialization boundary. Anything beyond is dropped; capture is lossy for
// large payloads.
const maxBodyPreview = 1000

// bodyUnavailableNote stands in for bodies that exist but could not be
// captured as text (binary payloads, exhausted streams).
const bodyUnavailableNote = "[request body could not be captured]"

// Serialize converts an internal call record into plain nested data suitable
// for cross-context messaging and for the chat backend's JSON body. Header
// access failures degrade to empty maps rather than propagating.
func Serialize(call *Call) types.NetworkCall {
	out := types.NetworkCall{
		Request: types.NetworkRequest{
			RequestID: call.RequestID,
			Method:    call.Method,
			URL:       call.URL,
			Timestamp: call.StartedAt.UnixMilli(),
			Headers:   flattenHeaders(call.RequestHeaders),
			Body:      bodyPreview(call.PostData, call.HasPostData),
		},
	}

	if call.Response != nil {
		out.Response = &types.NetworkResponse{
			RequestID:  call.RequestID,
			Status:     call.Response.Status,
			StatusText: call.Response.StatusText,
			Timestamp:  call.Response.ReceivedAt.UnixMilli(),
			Headers:    flattenHeaders(call.Response.Headers),
		}
	}
	return out
}

// flattenHeaders turns a raw CDP header map into a plain string-to-string
// mapping. Non-string values are skipped; a panic while walking the map
// yields an empty mapping instead of failing the capture.
func flattenHeaders(headers network.Headers) (out map[string]string) {
	defer func() {
		if recover() != nil {
			out = map[string]string{}
		}
	}()

	out = make(map[string]string, len(headers))
	for k, v := range headers {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// bodyPreview returns a bounded text preview of a request body. Bodies whose
// contents were present but not decodable as text are replaced by a fixed
// note; the design accepts lossy capture over unbounded memory.
func bodyPreview(data []byte, hasPostData bool) string {
	if len(data) == 0 {
		if hasPostData {
			return bodyUnavailableNote
		}
		return ""
	}
	if !utf8.Valid(data) {
		return bodyUnavailableNote
	}
	if len(data) > maxBodyPreview {
		// Cut on a rune boundary so the preview stays valid UTF-8.
		cut := maxBodyPreview
		for cut > 0 && !utf8.RuneStart(data[cut]) {
			cut--
		}
		return string(data[:cut])
	}
	return string(data)
}
