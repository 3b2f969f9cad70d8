// Package speech provides fire-and-forget spoken feedback.
package speech

import "sync"

// Speaker says text out loud. Speak must not block the caller and reports
// no result.
type Speaker interface {
	Speak(text string)
}

// Func adapts a function to the Speaker interface.
type Func func(text string)

// Speak calls f(text).
func (f Func) Speak(text string) {
	f(text)
}

// Nop discards everything.
type Nop struct{}

// Speak does nothing.
func (Nop) Speak(string) {}

// Multi fans each utterance out to several speakers.
type Multi []Speaker

// Speak forwards text to every speaker in order.
func (m Multi) Speak(text string) {
	for _, s := range m {
		if s != nil {
			s.Speak(text)
		}
	}
}

// Recorder collects utterances for tests.
type Recorder struct {
	mu    sync.Mutex
	texts []string
}

// Speak records text.
func (r *Recorder) Speak(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
}

// Texts returns what has been spoken so far.
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.texts))
	copy(out, r.texts)
	return out
}
