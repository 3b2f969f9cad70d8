package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/airpaint/internal/store"
)

// maxHistoryLimit caps the limit query parameter.
const maxHistoryLimit = 500

// HistoryHandler serves recent transcripts.
type HistoryHandler struct {
	store *store.Store
}

// NewHistoryHandler creates a HistoryHandler backed by s.
func NewHistoryHandler(s *store.Store) *HistoryHandler {
	return &HistoryHandler{store: s}
}

type utteranceResponse struct {
	ID         int64    `json:"id"`
	Transcript string   `json:"transcript"`
	Actions    []string `json:"actions"`
	CreatedAt  string   `json:"created_at"`
}

type historyResponse struct {
	Utterances []utteranceResponse `json:"utterances"`
}

// ServeHTTP handles GET /api/history?limit=N.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := store.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	utterances, err := h.store.Utterances().Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list history")
		return
	}

	response := historyResponse{
		Utterances: make([]utteranceResponse, 0, len(utterances)),
	}
	for _, u := range utterances {
		actions := u.Actions
		if actions == nil {
			actions = []string{}
		}
		response.Utterances = append(response.Utterances, utteranceResponse{
			ID:         u.ID,
			Transcript: u.Transcript,
			Actions:    actions,
			CreatedAt:  u.CreatedAt.Format(timeFormat),
		})
	}

	writeJSON(w, http.StatusOK, response)
}
