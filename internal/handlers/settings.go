package handlers

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/formcoach/formcoach/internal/llm"
	"github.com/formcoach/formcoach/internal/models"
	"github.com/formcoach/formcoach/internal/notify"
	"github.com/formcoach/formcoach/internal/scheduler"
)

// Settings handles application settings management (admin-only).
type Settings struct {
	DB        *sql.DB
	Scheduler *scheduler.Scheduler
}

type settingGroup struct {
	Category string            `json:"category"`
	Settings []settingResponse `json:"settings"`
}

type settingResponse struct {
	Key         string   `json:"key"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Value       string   `json:"value"`
	Source      string   `json:"source"`
	ReadOnly    bool     `json:"readOnly"`
	Sensitive   bool     `json:"sensitive"`
	Options     []string `json:"options,omitempty"`
}

// List returns all settings grouped by category. Sensitive values are masked.
func (h *Settings) List(w http.ResponseWriter, r *http.Request) {
	resolved := make(map[string]models.SettingValue)
	for _, sv := range models.ListSettings(h.DB) {
		resolved[sv.Key] = sv
	}

	var groups []settingGroup
	for _, category := range models.CategoryOrder {
		group := settingGroup{Category: category}
		for _, def := range models.SettingsRegistry {
			if def.Category != category {
				continue
			}
			sv := resolved[def.Key]
			group.Settings = append(group.Settings, settingResponse{
				Key:         def.Key,
				Label:       def.Label,
				Description: def.Description,
				Value:       sv.Masked,
				Source:      sv.Source,
				ReadOnly:    sv.ReadOnly,
				Sensitive:   def.Sensitive,
				Options:     def.Options,
			})
		}
		if len(group.Settings) > 0 {
			groups = append(groups, group)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

type settingUpdate struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Update sets or clears a single setting. An empty value deletes the stored
// row so the setting reverts to its env var or built-in default.
func (h *Settings) Update(w http.ResponseWriter, r *http.Request) {
	var req settingUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var def *models.SettingDefinition
	for i := range models.SettingsRegistry {
		if models.SettingsRegistry[i].Key == req.Key {
			def = &models.SettingsRegistry[i]
			break
		}
	}
	if def == nil {
		writeError(w, http.StatusNotFound, "Unknown setting")
		return
	}

	for _, sv := range models.ListSettings(h.DB) {
		if sv.Key == req.Key && sv.ReadOnly {
			writeError(w, http.StatusConflict, "Setting is controlled by an environment variable")
			return
		}
	}

	// A masked placeholder means the client echoed back an unchanged
	// sensitive value.
	if def.Sensitive && isMaskedPlaceholder(req.Value) {
		writeJSON(w, http.StatusOK, map[string]any{"updated": false})
		return
	}

	if len(def.Options) > 0 && !containsOption(def.Options, req.Value) {
		writeError(w, http.StatusUnprocessableEntity, "Invalid value for "+def.Label)
		return
	}

	if req.Value == "" {
		if err := models.DeleteSetting(h.DB, req.Key); err != nil {
			log.Printf("handlers: delete setting %q: %v", req.Key, err)
			writeError(w, http.StatusInternalServerError, "Failed to clear "+def.Label)
			return
		}
	} else if err := models.SetSetting(h.DB, req.Key, req.Value); err != nil {
		log.Printf("handlers: set setting %q: %v", req.Key, err)
		msg := "Failed to save " + def.Label
		if def.Sensitive {
			msg += " (is FORMCOACH_SECRET_KEY set?)"
		}
		writeError(w, http.StatusInternalServerError, msg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"updated": true})
}

// TestAI attempts a round trip to the configured AI provider.
func (h *Settings) TestAI(w http.ResponseWriter, r *http.Request) {
	provider, err := llm.NewProviderFromSettings(h.DB)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "AI provider is not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := provider.Ping(ctx); err != nil {
		log.Printf("handlers: test AI connection: %v", err)
		msg := err.Error()
		var apiErr *llm.APIError
		if errors.As(err, &apiErr) {
			msg = apiErr.UserMessage()
		}
		writeError(w, http.StatusBadGateway, msg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "provider": provider.Name()})
}

// TestNotify sends a test message to every configured broadcast channel.
func (h *Settings) TestNotify(w http.ResponseWriter, r *http.Request) {
	if err := notify.TestConnection(h.DB); err != nil {
		log.Printf("handlers: test notify connection: %v", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// MaintenanceStatus reports the background scheduler's last run.
func (h *Settings) MaintenanceStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Scheduler.Status())
}

// isMaskedPlaceholder reports whether a submitted value is the bullet-masked
// display form of a sensitive setting.
func isMaskedPlaceholder(v string) bool {
	for _, r := range v {
		if r == '•' {
			return true
		}
	}
	return false
}

func containsOption(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}
