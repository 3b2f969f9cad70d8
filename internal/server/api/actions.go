package api

import (
	"context"
	"net/http"

	"github.com/ayusman/airpaint/internal/app"
	"github.com/ayusman/airpaint/internal/voice"
)

// Controller is the part of the drawing controller the API drives.
type Controller interface {
	Snapshot() app.State
	SubmitAction(ctx context.Context, a voice.Action) error
}

// ActionHandler serves /api/actions, /api/canvas and /api/state.
type ActionHandler struct {
	ctrl Controller
}

// NewActionHandler creates an ActionHandler for ctrl.
func NewActionHandler(ctrl Controller) *ActionHandler {
	return &ActionHandler{ctrl: ctrl}
}

type actionRequest struct {
	Action string `json:"action"`
}

type actionResponse struct {
	Action string `json:"action"`
	Status string `json:"status"`
}

// State handles GET /api/state.
func (h *ActionHandler) State(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// Actions handles POST /api/actions.
func (h *ActionHandler) Actions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req actionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	action, ok := voice.ParseAction(req.Action)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown action")
		return
	}

	h.submit(w, r, action)
}

// Canvas handles DELETE /api/canvas.
func (h *ActionHandler) Canvas(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.submit(w, r, voice.ActionClearCanvas)
}

func (h *ActionHandler) submit(w http.ResponseWriter, r *http.Request, action voice.Action) {
	if err := h.ctrl.SubmitAction(r.Context(), action); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Controller is not accepting actions")
		return
	}
	writeJSON(w, http.StatusAccepted, actionResponse{Action: string(action), Status: "queued"})
}
