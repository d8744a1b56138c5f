package llm

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/formcoach/formcoach/internal/database"
	"github.com/formcoach/formcoach/internal/models"
)

func testDB(t testing.TB) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// --- Settings helpers tests ---

func TestNewProviderFromSettings_NotConfigured(t *testing.T) {
	db := testDB(t)
	_, err := NewProviderFromSettings(db)
	if err != ErrNotConfigured {
		t.Errorf("got %v, want ErrNotConfigured", err)
	}
}

func TestNewProviderFromSettings_Gateway(t *testing.T) {
	db := testDB(t)
	models.SetSetting(db, "ai.provider", "gateway")
	models.SetSetting(db, "ai.api_key", "test-key")

	p, err := NewProviderFromSettings(db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "AI Gateway" {
		t.Errorf("name = %q, want AI Gateway", p.Name())
	}
	gw, ok := p.(*GatewayProvider)
	if !ok {
		t.Fatalf("expected *GatewayProvider, got %T", p)
	}
	if gw.baseURL != DefaultGatewayURL {
		t.Errorf("baseURL = %q, want default gateway", gw.baseURL)
	}
	if gw.model != "google/gemini-3-flash-preview" {
		t.Errorf("model = %q", gw.model)
	}
}

func TestNewProviderFromSettings_Ollama(t *testing.T) {
	db := testDB(t)
	models.SetSetting(db, "ai.provider", "ollama")

	p, err := NewProviderFromSettings(db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "Ollama" {
		t.Errorf("name = %q, want Ollama", p.Name())
	}
}

func TestNewProviderFromSettings_InvalidProvider(t *testing.T) {
	db := testDB(t)
	models.SetSetting(db, "ai.provider", "invalid")

	_, err := NewProviderFromSettings(db)
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

// --- API Error tests ---

func TestAPIError_UserMessage(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantSubstr string
	}{
		{
			name:       "401 invalid key",
			err:        &APIError{Provider: "AI Gateway", StatusCode: 401, Message: "invalid api key"},
			wantSubstr: "Invalid API key",
		},
		{
			name:       "429 rate limit",
			err:        &APIError{Provider: "AI Gateway", StatusCode: 429, Message: "rate limited"},
			wantSubstr: "Rate limit exceeded",
		},
		{
			name:       "402 billing",
			err:        &APIError{Provider: "AI Gateway", StatusCode: 402, Message: "payment required"},
			wantSubstr: "Payment required",
		},
		{
			name:       "400 billing message",
			err:        &APIError{Provider: "AI Gateway", StatusCode: 400, Message: "insufficient credit balance"},
			wantSubstr: "Payment required",
		},
		{
			name:       "400 model not found",
			err:        &APIError{Provider: "AI Gateway", StatusCode: 400, Message: "model not found"},
			wantSubstr: "Model not found",
		},
		{
			name:       "503 unavailable",
			err:        &APIError{Provider: "Ollama", StatusCode: 503, Message: "service unavailable"},
			wantSubstr: "temporarily unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.UserMessage()
			if msg == "" {
				t.Fatal("UserMessage returned empty string")
			}
			if !strings.Contains(msg, tt.wantSubstr) {
				t.Errorf("UserMessage = %q, want to contain %q", msg, tt.wantSubstr)
			}
		})
	}
}

func TestAPIError_Classification(t *testing.T) {
	rateLimited := &APIError{Provider: "AI Gateway", StatusCode: 429, Message: "slow down"}
	if !rateLimited.IsRateLimited() {
		t.Error("429 should be rate limited")
	}
	if rateLimited.IsPaymentRequired() {
		t.Error("429 should not be payment required")
	}

	billing := &APIError{Provider: "AI Gateway", StatusCode: 402, Message: "no credits"}
	if !billing.IsPaymentRequired() {
		t.Error("402 should be payment required")
	}

	billingByMessage := &APIError{Provider: "AI Gateway", StatusCode: 400, Message: "Insufficient credit balance"}
	if !billingByMessage.IsPaymentRequired() {
		t.Error("insufficient credit message should be payment required")
	}
}

// --- HTTP provider integration tests (using httptest) ---

func TestGatewayProvider_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("auth header = %q", r.Header.Get("Authorization"))
		}

		var req struct {
			Model       string  `json:"model"`
			Temperature float64 `json:"temperature"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "google/gemini-3-flash-preview" {
			t.Errorf("model = %q", req.Model)
		}
		if req.Temperature != 0.8 {
			t.Errorf("temperature = %f, want 0.8", req.Temperature)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		resp := map[string]any{
			"choices": []map[string]any{
				{
					"message":       map[string]string{"content": `{"weeklyGoal":"ok"}`},
					"finish_reason": "stop",
				},
			},
			"model": "google/gemini-3-flash-preview",
			"usage": map[string]int{"total_tokens": 42},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewGatewayProvider("test-key", "", srv.URL)
	result, err := p.Generate(context.Background(), "system", "user", Options{Temperature: 0.8})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.Content != `{"weeklyGoal":"ok"}` {
		t.Errorf("content = %q", result.Content)
	}
	if result.TokensUsed != 42 {
		t.Errorf("tokens = %d", result.TokensUsed)
	}
	if result.StopReason != "stop" {
		t.Errorf("stop_reason = %q", result.StopReason)
	}
}

func TestGatewayProvider_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"type": "rate_limit_exceeded", "message": "too many requests"},
		})
	}))
	defer srv.Close()

	p := NewGatewayProvider("test-key", "", srv.URL)
	_, err := p.Generate(context.Background(), "system", "user", Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != 429 {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
	if !apiErr.IsRateLimited() {
		t.Error("expected rate limited error")
	}
	if apiErr.Code != "rate_limit_exceeded" {
		t.Errorf("code = %q", apiErr.Code)
	}
}

func TestOllamaProvider_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"message":    map[string]string{"content": "Hello from Ollama"},
			"model":      "llama3",
			"eval_count": 17,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")
	result, err := p.Generate(context.Background(), "system", "user", Options{Temperature: 0.5})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.Content != "Hello from Ollama" {
		t.Errorf("content = %q", result.Content)
	}
	if result.Model != "llama3" {
		t.Errorf("model = %q", result.Model)
	}
	if result.TokensUsed != 17 {
		t.Errorf("tokens = %d", result.TokensUsed)
	}
}

func TestOllamaProvider_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"models":[]}`)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")
	if err := p.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
