package llm

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/formcoach/formcoach/internal/models"
)

// ErrNotConfigured is returned when no AI provider is configured.
var ErrNotConfigured = fmt.Errorf("llm: AI provider not configured")

// Provider is the interface for LLM backends.
type Provider interface {
	// Generate sends a system prompt and user prompt to the LLM and returns
	// the response text. Callers parse the text themselves — for FormCoach
	// pipelines the expected content is a single JSON object.
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (*Response, error)

	// Ping validates connectivity and credentials. Returns nil if the
	// provider is reachable and authenticated. Used for admin "Test Connection".
	Ping(ctx context.Context) error

	// Name returns the display name of this provider (e.g. "AI Gateway").
	Name() string
}

// Options controls LLM generation behavior.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Response holds the LLM's output.
type Response struct {
	Content    string
	Model      string
	TokensUsed int
	Duration   time.Duration
	StopReason string
}

// NewProviderFromSettings creates a Provider using the current app_settings
// configuration (with env var overrides).
func NewProviderFromSettings(db *sql.DB) (Provider, error) {
	provider := models.GetSetting(db, "ai.provider")
	if provider == "" {
		return nil, ErrNotConfigured
	}

	model := models.GetSetting(db, "ai.model")
	apiKey := models.GetSetting(db, "ai.api_key")
	baseURL := models.GetSetting(db, "ai.base_url")

	switch provider {
	case "gateway":
		return NewGatewayProvider(apiKey, model, baseURL), nil
	case "ollama":
		return NewOllamaProvider(baseURL, model), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", provider)
	}
}
