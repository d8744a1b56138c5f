package models

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// SettingDefinition describes a configurable application setting.
type SettingDefinition struct {
	Key         string   // DB key, e.g. "ai.provider"
	EnvVar      string   // Override env var, e.g. "FORMCOACH_AI_PROVIDER"
	Default     string   // Built-in default value
	Label       string   // Human-readable label
	Description string   // Help text
	Options     []string // Valid values, when restricted
	Category    string   // Grouping key
	Sensitive   bool     // If true, value is encrypted in DB and masked in responses
}

// SettingValue represents a resolved setting with its source.
type SettingValue struct {
	Key      string `json:"key"`
	Value    string `json:"-"`
	Source   string `json:"source"` // "env", "db", "default"
	Masked   string `json:"value"`  // Display value (masked for sensitive settings)
	ReadOnly bool   `json:"readOnly"`
}

// CategoryOrder defines the display order for setting categories.
var CategoryOrder = []string{"General", "Auth", "Notifications", "AI Coach", "Maintenance"}

// SettingsRegistry defines all known application settings.
var SettingsRegistry = []SettingDefinition{
	// --- General ---
	{
		Key: "app.name", EnvVar: "FORMCOACH_APP_NAME", Default: "FormCoach",
		Label: "Application Name", Description: "Name used in notifications and share text",
		Category: "General",
	},
	// --- Auth ---
	{
		Key: "auth.allow_registration", EnvVar: "FORMCOACH_ALLOW_REGISTRATION", Default: "true",
		Label: "Open Registration", Description: "Whether new accounts can self-register (true/false)",
		Options: []string{"true", "false"}, Category: "Auth",
	},
	{
		Key: "auth.token_ttl_days", EnvVar: "", Default: "30",
		Label: "API Token Lifetime (days)", Description: "Expiry applied to tokens minted at login (1–365)",
		Category: "Auth",
	},
	// --- Notifications ---
	{
		Key: "notify.urls", EnvVar: "FORMCOACH_NOTIFY_URLS", Default: "",
		Label: "Broadcast URLs", Description: "Shoutrrr URLs for broadcast notifications (ntfy, Discord, etc). One per line.",
		Category: "Notifications",
	},
	// --- AI Coach ---
	{
		Key: "ai.provider", EnvVar: "FORMCOACH_AI_PROVIDER", Default: "",
		Label: "Provider", Description: "AI provider for plan generation and exercise scoring",
		Options: []string{"", "gateway", "ollama"}, Category: "AI Coach",
	},
	{
		Key: "ai.model", EnvVar: "FORMCOACH_AI_MODEL", Default: "google/gemini-3-flash-preview",
		Label: "Model", Description: "Model name sent to the completion endpoint",
		Category: "AI Coach",
	},
	{
		Key: "ai.api_key", EnvVar: "FORMCOACH_AI_API_KEY", Default: "",
		Label: "API Key", Description: "Gateway API key (not needed for Ollama)",
		Category: "AI Coach", Sensitive: true,
	},
	{
		Key: "ai.base_url", EnvVar: "FORMCOACH_AI_BASE_URL", Default: "",
		Label: "Base URL", Description: "Custom completion endpoint (required for Ollama, optional for the gateway)",
		Category: "AI Coach",
	},
	// --- Maintenance ---
	{
		Key: "maintenance.interval_hours", EnvVar: "", Default: "24",
		Label: "Schedule Interval (hours)", Description: "How often background maintenance runs (1–168 hours)",
		Category: "Maintenance",
	},
	{
		Key: "maintenance.retention_days", EnvVar: "", Default: "90",
		Label: "Notification Retention (days)", Description: "Read notifications older than this are pruned (1–365 days)",
		Category: "Maintenance",
	},
	{
		Key: "maintenance.stale_pending_hours", EnvVar: "", Default: "24",
		Label: "Stale Analysis Cutoff (hours)", Description: "Pending analyses older than this are marked failed",
		Category: "Maintenance",
	},
}

// GetSetting returns a configuration value using the resolution chain:
// env var → app_settings row → built-in default.
func GetSetting(db *sql.DB, key string) string {
	def := findDefinition(key)
	if def == nil {
		return ""
	}

	// 1. Environment variable always wins.
	if def.EnvVar != "" {
		if v := os.Getenv(def.EnvVar); v != "" {
			return v
		}
	}

	// 2. Database setting.
	var raw string
	err := db.QueryRow(`SELECT value FROM app_settings WHERE key = ?`, key).Scan(&raw)
	if err == nil {
		if def.Sensitive && strings.HasPrefix(raw, "enc:") {
			decrypted, err := decryptValue(raw[4:])
			if err == nil {
				return decrypted
			}
			// Fall through to default if decryption fails.
		} else {
			return raw
		}
	}

	// 3. Built-in default.
	return def.Default
}

// SetSetting stores a configuration value in the database.
// Sensitive values are encrypted if FORMCOACH_SECRET_KEY is set.
func SetSetting(db *sql.DB, key, value string) error {
	def := findDefinition(key)
	if def == nil {
		return fmt.Errorf("models: unknown setting key %q", key)
	}

	storeValue := value
	if def.Sensitive && value != "" {
		encrypted, err := encryptValue(value)
		if err != nil {
			return fmt.Errorf("models: encrypt setting %q: %w", key, err)
		}
		storeValue = "enc:" + encrypted
	}

	_, err := db.Exec(
		`INSERT INTO app_settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, storeValue,
	)
	if err != nil {
		return fmt.Errorf("models: set setting %q: %w", key, err)
	}
	return nil
}

// DeleteSetting removes a setting from the database (reverts to env var or default).
func DeleteSetting(db *sql.DB, key string) error {
	_, err := db.Exec(`DELETE FROM app_settings WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("models: delete setting %q: %w", key, err)
	}
	return nil
}

// ListSettings returns all known settings with their resolved values and sources.
func ListSettings(db *sql.DB) []SettingValue {
	var results []SettingValue
	for _, def := range SettingsRegistry {
		results = append(results, resolveSettingValue(db, def))
	}
	return results
}

// IsAIConfigured returns true if an AI provider is configured.
func IsAIConfigured(db *sql.DB) bool {
	return GetSetting(db, "ai.provider") != ""
}

// GetAppName returns the configured application name.
func GetAppName(db *sql.DB) string {
	if v := GetSetting(db, "app.name"); v != "" {
		return v
	}
	return "FormCoach"
}

// GetTokenTTLDays returns the API token lifetime applied at login.
func GetTokenTTLDays(db *sql.DB) int {
	return intSetting(db, "auth.token_ttl_days", 30, 1, 365)
}

// GetMaintenanceIntervalHours returns the scheduler interval from app settings.
func GetMaintenanceIntervalHours(db *sql.DB) int {
	return intSetting(db, "maintenance.interval_hours", 24, 1, 168)
}

// GetMaintenanceRetentionDays returns the notification retention period.
func GetMaintenanceRetentionDays(db *sql.DB) int {
	return intSetting(db, "maintenance.retention_days", 90, 1, 365)
}

// GetStalePendingHours returns the cutoff after which pending analyses fail.
func GetStalePendingHours(db *sql.DB) int {
	return intSetting(db, "maintenance.stale_pending_hours", 24, 1, 720)
}

func intSetting(db *sql.DB, key string, fallback, min, max int) int {
	if v := GetSetting(db, key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= min && n <= max {
			return n
		}
	}
	return fallback
}

// GetOrCreateSecretKey ensures a secret key exists for encrypting sensitive
// settings. Resolution: FORMCOACH_SECRET_KEY env var → _internal.secret_key
// DB row → auto-generate. The key is stored in plaintext in app_settings
// (since it IS the encryption key) and exported as an env var for the rest
// of the process.
func GetOrCreateSecretKey(db *sql.DB) (key, source string, err error) {
	if key = os.Getenv("FORMCOACH_SECRET_KEY"); key != "" {
		_, _ = db.Exec(
			`INSERT INTO app_settings (key, value) VALUES ('_internal.secret_key', ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key,
		)
		return key, "env", nil
	}

	err = db.QueryRow(`SELECT value FROM app_settings WHERE key = '_internal.secret_key'`).Scan(&key)
	if err == nil && key != "" {
		os.Setenv("FORMCOACH_SECRET_KEY", key)
		return key, "database", nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("models: generate secret key: %w", err)
	}
	key = base64.StdEncoding.EncodeToString(buf)

	_, err = db.Exec(
		`INSERT INTO app_settings (key, value) VALUES ('_internal.secret_key', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key,
	)
	if err != nil {
		return "", "", fmt.Errorf("models: store secret key: %w", err)
	}

	os.Setenv("FORMCOACH_SECRET_KEY", key)
	return key, "generated", nil
}

// --- Internal helpers ---

func findDefinition(key string) *SettingDefinition {
	for i := range SettingsRegistry {
		if SettingsRegistry[i].Key == key {
			return &SettingsRegistry[i]
		}
	}
	return nil
}

func resolveSettingValue(db *sql.DB, def SettingDefinition) SettingValue {
	sv := SettingValue{Key: def.Key}

	// Check env var first.
	if def.EnvVar != "" {
		if v := os.Getenv(def.EnvVar); v != "" {
			sv.Value = v
			sv.Source = "env"
			sv.ReadOnly = true
			sv.Masked = maskValue(v, def.Sensitive)
			return sv
		}
	}

	// Check database.
	var raw string
	err := db.QueryRow(`SELECT value FROM app_settings WHERE key = ?`, def.Key).Scan(&raw)
	if err == nil {
		sv.Source = "db"
		if def.Sensitive && strings.HasPrefix(raw, "enc:") {
			decrypted, err := decryptValue(raw[4:])
			if err == nil {
				sv.Value = decrypted
				sv.Masked = maskValue(decrypted, true)
			} else {
				sv.Value = ""
				sv.Masked = "(decryption failed)"
			}
		} else {
			sv.Value = raw
			sv.Masked = maskValue(raw, def.Sensitive)
		}
		return sv
	}

	// Default.
	sv.Value = def.Default
	sv.Source = "default"
	sv.Masked = maskValue(def.Default, def.Sensitive)
	return sv
}

func maskValue(value string, sensitive bool) string {
	if !sensitive || value == "" {
		return value
	}
	if len(value) <= 8 {
		return "••••••••"
	}
	return value[:4] + "••••" + value[len(value)-4:]
}

// --- Encryption helpers ---

// secretKey returns the 32-byte encryption key derived from
// FORMCOACH_SECRET_KEY using HKDF (RFC 5869). Returns nil if unset.
func secretKey() []byte {
	key := os.Getenv("FORMCOACH_SECRET_KEY")
	if key == "" {
		return nil
	}
	h := hkdf.New(sha256.New, []byte(key), []byte("formcoach-settings-v1"), []byte("aes-256-gcm"))
	derived := make([]byte, 32)
	if _, err := io.ReadFull(h, derived); err != nil {
		return nil
	}
	return derived
}

func encryptValue(plaintext string) (string, error) {
	key := secretKey()
	if key == nil {
		return "", fmt.Errorf("FORMCOACH_SECRET_KEY not set — cannot encrypt sensitive settings")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ciphertext := aesGCM.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func decryptValue(encoded string) (string, error) {
	key := secretKey()
	if key == nil {
		return "", fmt.Errorf("FORMCOACH_SECRET_KEY not set — cannot decrypt")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(ciphertext) < aesGCM.NonceSize() {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce, sealed := ciphertext[:aesGCM.NonceSize()], ciphertext[aesGCM.NonceSize():]

	plaintext, err := aesGCM.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
