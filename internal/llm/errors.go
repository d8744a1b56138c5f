package llm

import (
	"fmt"
	"net/http"
	"strings"
)

// APIError is a structured error returned when a provider responds with a
// non-2xx status. It carries enough information to classify the failure
// (rate limit, billing, auth) at the HTTP handler.
type APIError struct {
	Provider   string // e.g. "AI Gateway", "Ollama"
	StatusCode int
	Code       string // provider-specific error code, when available
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("llm: %s API error (HTTP %d, %s): %s", e.Provider, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("llm: %s API error (HTTP %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsRateLimited reports whether the provider rejected the call for rate
// limiting. Surfaced to API clients as HTTP 429.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsPaymentRequired reports whether the provider rejected the call for
// billing reasons. Surfaced to API clients as HTTP 402.
func (e *APIError) IsPaymentRequired() bool {
	return e.StatusCode == http.StatusPaymentRequired ||
		strings.Contains(strings.ToLower(e.Message), "insufficient credit")
}

// UserMessage returns a human-readable description suitable for API clients,
// without leaking provider internals.
func (e *APIError) UserMessage() string {
	lower := strings.ToLower(e.Message)

	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return fmt.Sprintf("Invalid API key for %s. Please check the AI configuration.", e.Provider)
	case e.IsRateLimited():
		return "Rate limit exceeded. Please try again later."
	case e.IsPaymentRequired():
		return "Payment required. Please add credits."
	case strings.Contains(lower, "model") && strings.Contains(lower, "not found"):
		return fmt.Sprintf("Model not found on %s. Please check the configured model name.", e.Provider)
	case e.StatusCode >= 500:
		return fmt.Sprintf("%s is temporarily unavailable. Please try again in a few minutes.", e.Provider)
	default:
		return fmt.Sprintf("%s request failed (HTTP %d): %s", e.Provider, e.StatusCode, e.Message)
	}
}
