package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/spf13/viper"

	"github.com/ayusman/airpaint/internal/config"
	"github.com/ayusman/airpaint/internal/store"
)

// SettingsHandler serves stored configuration overrides. Changes apply on
// the next start.
type SettingsHandler struct {
	store *store.Store
	base  *viper.Viper
}

// NewSettingsHandler creates a SettingsHandler backed by s. New values are
// checked against base with the other stored overrides applied; a nil base
// means the defaults.
func NewSettingsHandler(s *store.Store, base *viper.Viper) *SettingsHandler {
	return &SettingsHandler{store: s, base: base}
}

type settingsResponse struct {
	Settings map[string]string `json:"settings"`
	Keys     []string          `json:"keys"`
}

type settingRequest struct {
	Value string `json:"value"`
}

type settingResponse struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Applies string `json:"applies"`
}

// ServeHTTP routes /api/settings and /api/settings/{key}.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/api/settings")
	key = strings.Trim(key, "/")

	if key == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	if !config.IsKey(key) {
		writeError(w, http.StatusNotFound, "Unknown setting")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, key)
	case http.MethodPut:
		h.put(w, r, key)
	case http.MethodDelete:
		h.delete(w, r, key)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) list(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.Settings().All()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list settings")
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{Settings: settings, Keys: config.Keys()})
}

func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request, key string) {
	value, err := h.store.Settings().Get(key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Setting not stored")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get setting")
		return
	}
	writeJSON(w, http.StatusOK, settingResponse{Key: key, Value: value, Applies: "restart"})
}

func (h *SettingsHandler) put(w http.ResponseWriter, r *http.Request, key string) {
	var req settingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := config.CheckSetting(h.base, h.store.Settings(), key, req.Value); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Settings().Set(key, req.Value); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save setting")
		return
	}
	writeJSON(w, http.StatusOK, settingResponse{Key: key, Value: req.Value, Applies: "restart"})
}

func (h *SettingsHandler) delete(w http.ResponseWriter, r *http.Request, key string) {
	if err := h.store.Settings().Delete(key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Setting not stored")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete setting")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
