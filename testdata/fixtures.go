// Package testdata provides recorded hand landmark sequences for tests.
package testdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ayusman/airpaint/internal/detector"
)

//go:embed hands/*.json
var handsFS embed.FS

// Sequence is a recorded run of detector output, one entry per frame.
type Sequence struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Frames      []Frame `json:"frames"`
}

// Frame holds the hands seen in one frame. An empty list means no hand.
type Frame struct {
	Hands []detector.HandLandmarks `json:"hands"`
}

// LoadSequence loads a landmark sequence by name, e.g. "draw_stroke".
func LoadSequence(name string) (*Sequence, error) {
	data, err := handsFS.ReadFile("hands/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("load sequence %s: %w", name, err)
	}

	var seq Sequence
	if err := json.Unmarshal(data, &seq); err != nil {
		return nil, fmt.Errorf("decode sequence %s: %w", name, err)
	}
	if len(seq.Frames) == 0 {
		return nil, fmt.Errorf("sequence %s has no frames", name)
	}
	return &seq, nil
}

// Sequences lists the names of the embedded sequences.
func Sequences() ([]string, error) {
	entries, err := handsFS.ReadDir("hands")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}
