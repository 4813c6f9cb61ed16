package chat

// Error codes used for stable API mapping.
const (
	CodeValidation = "VALIDATION"
)

// CodedError is a typed error carrying a stable code for the HTTP layer.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return e.Code + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *CodedError) Unwrap() error { return e.Cause }

func newCodedError(code, msg string) *CodedError {
	return &CodedError{Code: code, Message: msg}
}
