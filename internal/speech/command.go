package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultTimeout bounds one utterance of an external speech command.
const DefaultTimeout = 10 * time.Second

// queueSize is how many utterances may wait while one is playing. Later
// ones are dropped.
const queueSize = 4

// ErrNoCommand is returned when a CommandSpeaker is built without a program.
var ErrNoCommand = errors.New("speech command is empty")

// CommandSpeaker speaks through an external TTS program such as espeak or
// say. The text is passed as the final argument. Utterances play one at a
// time in the order they were queued.
type CommandSpeaker struct {
	argv    []string
	timeout time.Duration
	queue   chan string
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewCommandSpeaker parses command (for example "espeak -s 160") and starts
// the playback worker. A non-positive timeout uses DefaultTimeout.
func NewCommandSpeaker(command string, timeout time.Duration) (*CommandSpeaker, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, ErrNoCommand
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	s := &CommandSpeaker{
		argv:    argv,
		timeout: timeout,
		queue:   make(chan string, queueSize),
		done:    make(chan struct{}),
	}

	s.wg.Add(1)
	go s.worker()

	return s, nil
}

// Speak queues text for playback and returns immediately. Text is dropped
// once the speaker is closed.
func (s *CommandSpeaker) Speak(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.queue <- text:
	default:
		log.Debug("speech queue full, dropping utterance", "text", text)
	}
}

// Run speaks text synchronously and returns the program's error.
func (s *CommandSpeaker) Run(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := append(append([]string(nil), s.argv[1:]...), text)
	cmd := exec.CommandContext(ctx, s.argv[0], args...)

	cmd.WaitDelay = time.Second

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("speech command timeout after %s", s.timeout)
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("speech command failed: %w, stderr: %s", err, msg)
		}
		return fmt.Errorf("speech command failed: %w", err)
	}
	return nil
}

// Close stops the worker after the current utterance. Queued utterances are
// discarded.
func (s *CommandSpeaker) Close() error {
	s.once.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
	return nil
}

func (s *CommandSpeaker) worker() {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return
		case text := <-s.queue:
			if err := s.Run(context.Background(), text); err != nil {
				log.Warn("speech output failed", "err", err)
			}
		}
	}
}
