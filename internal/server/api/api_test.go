package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ayusman/airpaint/internal/app"
	"github.com/ayusman/airpaint/internal/store"
	"github.com/ayusman/airpaint/internal/voice"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

type fakeController struct {
	mu      sync.Mutex
	actions []voice.Action
	err     error
	state   app.State
}

func (f *fakeController) Snapshot() app.State {
	return f.state
}

func (f *fakeController) SubmitAction(ctx context.Context, a voice.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.actions = append(f.actions, a)
	return nil
}

type fakeCanvas struct {
	width, height int
	err           error
}

func (f fakeCanvas) Size() (int, int) {
	return f.width, f.height
}

func (f fakeCanvas) EncodePNG() ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			img.Set(x, y, color.RGBA{G: uint8(x), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func TestActionHandler_Actions(t *testing.T) {
	ctrl := &fakeController{}
	h := NewActionHandler(ctrl)

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
	}{
		{"valid action", http.MethodPost, `{"action":"change_color"}`, http.StatusAccepted},
		{"unknown action", http.MethodPost, `{"action":"undo"}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, `{"action":`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, ``, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/actions", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Actions(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}

	if len(ctrl.actions) != 1 || ctrl.actions[0] != voice.ActionChangeColor {
		t.Errorf("expected [change_color] submitted, got %v", ctrl.actions)
	}
}

func TestActionHandler_Canvas(t *testing.T) {
	ctrl := &fakeController{}
	h := NewActionHandler(ctrl)

	rec := httptest.NewRecorder()
	h.Canvas(rec, httptest.NewRequest(http.MethodDelete, "/api/canvas", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, rec.Code)
	}
	if len(ctrl.actions) != 1 || ctrl.actions[0] != voice.ActionClearCanvas {
		t.Errorf("expected clear_canvas submitted, got %v", ctrl.actions)
	}

	ctrl.err = context.Canceled
	rec = httptest.NewRecorder()
	h.Canvas(rec, httptest.NewRequest(http.MethodDelete, "/api/canvas", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
}

func TestActionHandler_State(t *testing.T) {
	ctrl := &fakeController{state: app.State{Status: app.StatusIdle, Color: "red", DrawMode: true}}
	h := NewActionHandler(ctrl)

	rec := httptest.NewRecorder()
	h.State(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var got app.State
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Status != app.StatusIdle || got.Color != "red" || !got.DrawMode {
		t.Errorf("unexpected state %+v", got)
	}
}

func TestSnapshotHandler_Workflow(t *testing.T) {
	s := newTestStore(t)
	h := NewSnapshotHandler(s, fakeCanvas{width: 64, height: 36})

	// Create
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/snapshots", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body)
	}
	var created snapshotResponse
	json.NewDecoder(rec.Body).Decode(&created)
	if created.ID == "" || created.Width != 64 || created.Height != 36 || created.Format != "png" {
		t.Fatalf("unexpected snapshot %+v", created)
	}

	// List
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshots", nil))
	var listed listSnapshotsResponse
	json.NewDecoder(rec.Body).Decode(&listed)
	if len(listed.Snapshots) != 1 || listed.Snapshots[0].ID != created.ID {
		t.Fatalf("expected the created snapshot in the list, got %+v", listed)
	}

	// Get
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshots/"+created.ID, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	// Image
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshots/"+created.ID+"/image", nil))
	if rec.Header().Get("Content-Type") != "image/png" {
		t.Errorf("expected image/png, got %q", rec.Header().Get("Content-Type"))
	}
	if _, err := png.Decode(rec.Body); err != nil {
		t.Errorf("expected a decodable png: %v", err)
	}

	// PDF
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshots/"+created.ID+"/pdf", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body)
	}
	if rec.Header().Get("Content-Type") != "application/pdf" {
		t.Errorf("expected application/pdf, got %q", rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Error("expected a PDF body")
	}

	// Delete
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/snapshots/"+created.ID, nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshots/"+created.ID+"/image", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d after delete, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSnapshotHandler_Errors(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name       string
		canvas     fakeCanvas
		method     string
		path       string
		wantStatus int
	}{
		{"encode failure", fakeCanvas{width: 4, height: 4, err: errors.New("boom")}, http.MethodPost, "/api/snapshots", http.StatusInternalServerError},
		{"missing", fakeCanvas{width: 4, height: 4}, http.MethodGet, "/api/snapshots/nope", http.StatusNotFound},
		{"missing delete", fakeCanvas{width: 4, height: 4}, http.MethodDelete, "/api/snapshots/nope", http.StatusNotFound},
		{"missing pdf", fakeCanvas{width: 4, height: 4}, http.MethodGet, "/api/snapshots/nope/pdf", http.StatusNotFound},
		{"unknown sub resource", fakeCanvas{width: 4, height: 4}, http.MethodGet, "/api/snapshots/x/thumb", http.StatusNotFound},
		{"bad method", fakeCanvas{width: 4, height: 4}, http.MethodPut, "/api/snapshots", http.StatusMethodNotAllowed},
		{"bad item method", fakeCanvas{width: 4, height: 4}, http.MethodPost, "/api/snapshots/x/image", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSnapshotHandler(s, tt.canvas)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestSettingsHandler(t *testing.T) {
	s := newTestStore(t)
	h := NewSettingsHandler(s, nil)

	put := func(key, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/settings/"+key, strings.NewReader(body)))
		return rec
	}

	t.Run("put valid", func(t *testing.T) {
		rec := put("gesture.pinch_threshold", `{"value":"55"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body)
		}
		value, err := s.Settings().Get("gesture.pinch_threshold")
		if err != nil || value != "55" {
			t.Errorf("expected stored 55, got %q (%v)", value, err)
		}
	})

	t.Run("put invalid value", func(t *testing.T) {
		rec := put("cursor.smoothing", `{"value":"3"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
		if _, err := s.Settings().Get("cursor.smoothing"); !errors.Is(err, store.ErrNotFound) {
			t.Error("invalid value should not be stored")
		}
	})

	t.Run("put unknown key", func(t *testing.T) {
		if rec := put("brush.size", `{"value":"3"}`); rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})

	t.Run("put palette", func(t *testing.T) {
		if rec := put("palette.colors", `{"value":"blue,#00ff00"}`); rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body)
		}
		if rec := put("palette.colors", `{"value":"blue,mauve-ish"}`); rec.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
	})

	t.Run("put conflicting with stored", func(t *testing.T) {
		if rec := put("camera.motion_threshold", `{"value":"5"}`); rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body)
		}
		if rec := put("camera.idle_fps", `{"value":"0"}`); rec.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
		if _, err := s.Settings().Get("camera.idle_fps"); !errors.Is(err, store.ErrNotFound) {
			t.Error("conflicting value should not be stored")
		}
	})

	t.Run("list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
		var resp settingsResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Settings["gesture.pinch_threshold"] != "55" {
			t.Errorf("expected stored override, got %v", resp.Settings)
		}
		if len(resp.Keys) == 0 {
			t.Error("expected the known keys")
		}
	})

	t.Run("get and delete", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings/gesture.pinch_threshold", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/settings/gesture.pinch_threshold", nil))
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected status %d, got %d", http.StatusNoContent, rec.Code)
		}

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings/gesture.pinch_threshold", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d after delete, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestHistoryHandler(t *testing.T) {
	s := newTestStore(t)
	h := NewHistoryHandler(s)

	for _, text := range []string{"start drawing", "hello", "change color"} {
		u := &store.Utterance{Transcript: text}
		if text != "hello" {
			u.Actions = []string{strings.ReplaceAll(text, " ", "_")}
		}
		if err := s.Utterances().Create(u); err != nil {
			t.Fatalf("failed to create utterance: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history?limit=2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp historyResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp.Utterances) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(resp.Utterances))
	}
	if resp.Utterances[0].Transcript != "change color" {
		t.Errorf("expected newest first, got %q", resp.Utterances[0].Transcript)
	}
	if resp.Utterances[1].Actions == nil || len(resp.Utterances[1].Actions) != 0 {
		t.Errorf("expected empty actions list, got %v", resp.Utterances[1].Actions)
	}

	for _, bad := range []string{"0", "-1", "abc"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history?limit="+bad, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit %q: expected status %d, got %d", bad, http.StatusBadRequest, rec.Code)
		}
	}
}
