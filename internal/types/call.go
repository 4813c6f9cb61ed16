package types

// NetworkCall is the serialized form of one observed request/response pair.
// Response stays null until the completion event arrives; a call whose
// response never arrives keeps a null response for its whole lifetime.
type NetworkCall struct {
	Request  NetworkRequest   `json:"request"`
	Response *NetworkResponse `json:"response"`
}

// NetworkRequest is the request half of a capture, flattened for
// cross-context messaging and for the chat backend's JSON body.
type NetworkRequest struct {
	RequestID string            `json:"requestId"`
	Method    string            `json:"method"`
	URL       string            `json:"url"`
	Timestamp int64             `json:"timestamp"` // epoch millis
	Headers   map[string]string `json:"headers,omitempty"`
	Body      string            `json:"body,omitempty"`
}

// NetworkResponse is the response half. Response bodies are never captured,
// only status, headers and timing.
type NetworkResponse struct {
	RequestID  string            `json:"requestId"`
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Timestamp  int64             `json:"timestamp"`
	Headers    map[string]string `json:"headers,omitempty"`
}

// Completed reports whether the call has seen its response.
func (c NetworkCall) Completed() bool {
	return c.Response != nil
}
