// Package pipeline drives one document through the scan stages: capture,
// geometric and tonal edits, markup, text extraction and export.
package pipeline

import "fmt"

// Stage is the active step of the pipeline.
type Stage int

const (
	Dashboard Stage = iota
	Scanner
	Editor
	Markup
	OCR
	Export
)

func (s Stage) String() string {
	switch s {
	case Dashboard:
		return "dashboard"
	case Scanner:
		return "scanner"
	case Editor:
		return "editor"
	case Markup:
		return "markup"
	case OCR:
		return "ocr"
	case Export:
		return "export"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Event triggers a transition.
type Event int

const (
	NewScan Event = iota
	Captured
	Next
	Back
	Save
	Open
)

func (e Event) String() string {
	switch e {
	case NewScan:
		return "newScan"
	case Captured:
		return "captured"
	case Next:
		return "next"
	case Back:
		return "back"
	case Save:
		return "save"
	case Open:
		return "open"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

type edge struct {
	from Stage
	on   Event
}

var transitions = map[edge]Stage{
	{Dashboard, NewScan}: Scanner,
	{Dashboard, Open}:    Editor,
	{Scanner, Captured}:  Editor,
	{Scanner, Back}:      Dashboard,
	{Editor, Next}:       Markup,
	{Editor, Back}:       Dashboard,
	{Markup, Next}:       OCR,
	{Markup, Back}:       Editor,
	{OCR, Next}:          Export,
	{OCR, Back}:          Markup,
	{Export, Save}:       Dashboard,
	{Export, Back}:       OCR,
}

// Transition looks up the stage reached from s on e.
func Transition(s Stage, e Event) (Stage, error) {
	to, ok := transitions[edge{s, e}]
	if !ok {
		return s, fmt.Errorf("%w: %v on %v", ErrInvalidTransition, e, s)
	}
	return to, nil
}
