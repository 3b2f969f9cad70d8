// Package voice maps recognized speech to drawing commands.
package voice

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Action is a command the controller knows how to apply.
type Action string

const (
	ActionStartDrawing Action = "start_drawing"
	ActionStopDrawing  Action = "stop_drawing"
	ActionClearCanvas  Action = "clear_canvas"
	ActionChangeColor  Action = "change_color"
)

// ParseAction validates an action name.
func ParseAction(s string) (Action, bool) {
	switch a := Action(s); a {
	case ActionStartDrawing, ActionStopDrawing, ActionClearCanvas, ActionChangeColor:
		return a, true
	}
	return "", false
}

// Command binds a spoken phrase to an action.
type Command struct {
	Phrase string
	Action Action
}

// DefaultCommands is the fixed phrase table, in dispatch order.
var DefaultCommands = []Command{
	{Phrase: "start drawing", Action: ActionStartDrawing},
	{Phrase: "stop drawing", Action: ActionStopDrawing},
	{Phrase: "clear canvas", Action: ActionClearCanvas},
	{Phrase: "change color", Action: ActionChangeColor},
}

// Dispatcher matches transcripts against a phrase table.
type Dispatcher struct {
	commands []Command
	lower    cases.Caser
}

// NewDispatcher creates a Dispatcher for the given commands. A nil slice
// uses DefaultCommands.
func NewDispatcher(commands []Command) *Dispatcher {
	if commands == nil {
		commands = DefaultCommands
	}

	d := &Dispatcher{
		commands: make([]Command, len(commands)),
		lower:    cases.Lower(language.English),
	}
	for i, c := range commands {
		d.commands[i] = Command{Phrase: d.Normalize(c.Phrase), Action: c.Action}
	}
	return d
}

// Commands returns the phrase table.
func (d *Dispatcher) Commands() []Command {
	out := make([]Command, len(d.commands))
	copy(out, d.commands)
	return out
}

// Normalize trims, lowercases and collapses whitespace in a transcript.
func (d *Dispatcher) Normalize(transcript string) string {
	return strings.Join(strings.Fields(d.lower.String(transcript)), " ")
}

// Dispatch returns the actions whose phrase occurs in transcript. Phrases
// are tested independently, so a transcript may yield several actions, but
// each phrase contributes at most one.
func (d *Dispatcher) Dispatch(transcript string) []Action {
	text := d.Normalize(transcript)
	if text == "" {
		return nil
	}

	var actions []Action
	for _, c := range d.commands {
		if strings.Contains(text, c.Phrase) {
			actions = append(actions, c.Action)
		}
	}
	return actions
}
