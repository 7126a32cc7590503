package ai

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrNoChoices is returned when the provider answers 2xx without any generated message.
var ErrNoChoices = errors.New("no choices in response")

// GatewayError wraps a failed model call. StatusCode is zero for transport
// and decode failures.
type GatewayError struct {
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("model call failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("model call failed: %v", e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Is reports 429 responses as ErrQuotaExceeded.
func (e *GatewayError) Is(target error) bool {
	return target == ErrQuotaExceeded && e.StatusCode == http.StatusTooManyRequests
}
