package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ayusman/airpaint/internal/export"
	"github.com/ayusman/airpaint/internal/store"
)

// CanvasSource encodes the current drawing.
type CanvasSource interface {
	EncodePNG() ([]byte, error)
	Size() (width, height int)
}

// SnapshotHandler handles HTTP requests for snapshot resources.
type SnapshotHandler struct {
	store  *store.Store
	canvas CanvasSource
}

// NewSnapshotHandler creates a SnapshotHandler that stores snapshots of c.
func NewSnapshotHandler(s *store.Store, c CanvasSource) *SnapshotHandler {
	return &SnapshotHandler{store: s, canvas: c}
}

// ServeHTTP routes /api/snapshots, /api/snapshots/{id},
// /api/snapshots/{id}/image and /api/snapshots/{id}/pdf.
func (h *SnapshotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/snapshots")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id, sub, _ := strings.Cut(path, "/")
	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "image", "pdf":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if sub == "image" {
			h.image(w, r, id)
		} else {
			h.pdf(w, r, id)
		}
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type snapshotResponse struct {
	ID        string `json:"id"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
	Size      int    `json:"size,omitempty"`
	CreatedAt string `json:"created_at"`
}

type listSnapshotsResponse struct {
	Snapshots []snapshotResponse `json:"snapshots"`
}

func toSnapshotResponse(s *store.Snapshot) snapshotResponse {
	return snapshotResponse{
		ID:        s.ID,
		Width:     s.Width,
		Height:    s.Height,
		Format:    s.Format,
		Size:      len(s.Data),
		CreatedAt: s.CreatedAt.Format(timeFormat),
	}
}

// list handles GET /api/snapshots.
func (h *SnapshotHandler) list(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.store.Snapshots().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list snapshots")
		return
	}

	response := listSnapshotsResponse{
		Snapshots: make([]snapshotResponse, 0, len(snapshots)),
	}
	for _, s := range snapshots {
		response.Snapshots = append(response.Snapshots, toSnapshotResponse(s))
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/snapshots, saving the current canvas.
func (h *SnapshotHandler) create(w http.ResponseWriter, r *http.Request) {
	data, err := h.canvas.EncodePNG()
	if err != nil {
		log.Error("failed to encode canvas", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to encode canvas")
		return
	}

	width, height := h.canvas.Size()
	snap := &store.Snapshot{
		ID:     uuid.New().String(),
		Width:  width,
		Height: height,
		Format: "png",
		Data:   data,
	}
	if err := h.store.Snapshots().Create(snap); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save snapshot")
		return
	}

	log.Info("snapshot saved", "id", snap.ID, "bytes", len(data))
	writeJSON(w, http.StatusCreated, toSnapshotResponse(snap))
}

// get handles GET /api/snapshots/{id}.
func (h *SnapshotHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	snap, ok := h.load(w, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotResponse(snap))
}

// delete handles DELETE /api/snapshots/{id}.
func (h *SnapshotHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Snapshots().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Snapshot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete snapshot")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// image handles GET /api/snapshots/{id}/image.
func (h *SnapshotHandler) image(w http.ResponseWriter, r *http.Request, id string) {
	snap, ok := h.load(w, id)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "image/"+snap.Format)
	w.Header().Set("Content-Length", fmt.Sprint(len(snap.Data)))
	w.Write(snap.Data)
}

// pdf handles GET /api/snapshots/{id}/pdf.
func (h *SnapshotHandler) pdf(w http.ResponseWriter, r *http.Request, id string) {
	snap, ok := h.load(w, id)
	if !ok {
		return
	}

	var buf bytes.Buffer
	err := export.WritePDF(&buf, export.Page{
		Title:     "airpaint " + snap.CreatedAt.Format(timeFormat),
		PNG:       snap.Data,
		Width:     snap.Width,
		Height:    snap.Height,
		CreatedAt: snap.CreatedAt,
	})
	if err != nil {
		log.Error("failed to export snapshot", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to export snapshot")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "airpaint-"+snap.ID+".pdf"))
	w.Write(buf.Bytes())
}

func (h *SnapshotHandler) load(w http.ResponseWriter, id string) (*store.Snapshot, bool) {
	snap, err := h.store.Snapshots().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Snapshot not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to get snapshot")
		return nil, false
	}
	return snap, true
}
