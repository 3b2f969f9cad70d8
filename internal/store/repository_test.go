package store

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func TestSettingsRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	t.Run("get missing", func(t *testing.T) {
		if _, err := repo.Get("nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("set and overwrite", func(t *testing.T) {
		if err := repo.Set("palette.colors", "red,green"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := repo.Set("palette.colors", "blue"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		value, err := repo.Get("palette.colors")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if value != "blue" {
			t.Errorf("expected blue, got %q", value)
		}
	})

	t.Run("all", func(t *testing.T) {
		if err := repo.Set("brush.width", "10"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		all, err := repo.All()
		if err != nil {
			t.Fatalf("All failed: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("expected 2 settings, got %d", len(all))
		}
		if all["brush.width"] != "10" {
			t.Errorf("expected brush.width 10, got %q", all["brush.width"])
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := repo.Delete("brush.width"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := repo.Delete("brush.width"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})
}

func TestSnapshotRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Snapshots()

	data := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}

	snap := &Snapshot{ID: "snap-1", Width: 1280, Height: 720, Data: data}
	if err := repo.Create(snap); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if snap.Format != "png" {
		t.Errorf("expected default format png, got %q", snap.Format)
	}
	if snap.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := repo.GetByID("snap-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Width != 1280 || got.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", got.Width, got.Height)
	}
	if !bytes.Equal(got.Data, data) {
		t.Errorf("expected data %v, got %v", data, got.Data)
	}

	if err := repo.Create(&Snapshot{ID: "snap-2", Width: 10, Height: 10, Data: data}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	list, err := repo.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(list))
	}
	for _, item := range list {
		if item.Data != nil {
			t.Errorf("List should not load image data for %s", item.ID)
		}
	}

	if err := repo.Delete("snap-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.GetByID("snap-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete("snap-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestUtteranceRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Utterances()

	for i := 0; i < 5; i++ {
		u := &Utterance{
			Transcript: fmt.Sprintf("utterance %d", i),
			Actions:    []string{"start_drawing", "change_color"},
		}
		if i%2 == 1 {
			u.Actions = nil
		}
		if err := repo.Create(u); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if u.ID == 0 {
			t.Error("ID should be set after Create")
		}
	}

	t.Run("recent newest first", func(t *testing.T) {
		recent, err := repo.Recent(3)
		if err != nil {
			t.Fatalf("Recent failed: %v", err)
		}
		if len(recent) != 3 {
			t.Fatalf("expected 3 utterances, got %d", len(recent))
		}
		if recent[0].Transcript != "utterance 4" {
			t.Errorf("expected newest first, got %q", recent[0].Transcript)
		}
		if len(recent[0].Actions) != 2 || recent[0].Actions[1] != "change_color" {
			t.Errorf("expected actions to round trip, got %v", recent[0].Actions)
		}
		if recent[1].Actions != nil {
			t.Errorf("expected no actions, got %v", recent[1].Actions)
		}
	})

	t.Run("default limit", func(t *testing.T) {
		recent, err := repo.Recent(0)
		if err != nil {
			t.Fatalf("Recent failed: %v", err)
		}
		if len(recent) != 5 {
			t.Errorf("expected 5 utterances, got %d", len(recent))
		}
	})

	t.Run("prune", func(t *testing.T) {
		removed, err := repo.Prune(2)
		if err != nil {
			t.Fatalf("Prune failed: %v", err)
		}
		if removed != 3 {
			t.Errorf("expected 3 removed, got %d", removed)
		}
		recent, _ := repo.Recent(10)
		if len(recent) != 2 {
			t.Errorf("expected 2 remaining, got %d", len(recent))
		}
	})
}
