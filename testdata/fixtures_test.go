package testdata

import (
	"testing"

	"github.com/ayusman/airpaint/internal/detector"
)

func TestSequences(t *testing.T) {
	names, err := Sequences()
	if err != nil {
		t.Fatalf("Sequences failed: %v", err)
	}
	if len(names) != 3 {
		t.Fatalf("expected 3 sequences, got %v", names)
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			seq, err := LoadSequence(name)
			if err != nil {
				t.Fatalf("LoadSequence failed: %v", err)
			}
			if seq.Name != name {
				t.Errorf("expected name %q, got %q", name, seq.Name)
			}
			if seq.Width != 1280 || seq.Height != 720 {
				t.Errorf("expected 1280x720, got %dx%d", seq.Width, seq.Height)
			}
			for i, f := range seq.Frames {
				for _, h := range f.Hands {
					tip := h.Points[detector.IndexTip]
					if tip.X <= 0 || tip.X >= 1 || tip.Y <= 0 || tip.Y >= 1 {
						t.Errorf("frame %d: fingertip outside the frame: %+v", i, tip)
					}
				}
			}
		})
	}
}

func TestLoadSequence_Missing(t *testing.T) {
	if _, err := LoadSequence("juggling"); err == nil {
		t.Error("expected an error for a missing sequence")
	}
}
