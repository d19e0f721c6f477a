package llm

import (
	"errors"
	"fmt"
	"strings"
)

// StatusError is a non-2xx provider response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm provider returned %d: %s", e.Code, e.Message)
}

func newStatusError(code int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return &StatusError{Code: code, Message: msg}
}

// IsOverflow reports whether err looks like a context/token limit rejection.
// Providers phrase this differently, so the check is heuristic.
func IsOverflow(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	if se.Code == 413 {
		return true
	}
	if se.Code != 400 && se.Code != 422 {
		return false
	}
	msg := strings.ToLower(se.Message)
	for _, marker := range []string{"context length", "context_length", "maximum context", "token limit", "too many tokens", "max_tokens"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
