package interview

import (
	"encoding/json"
	"time"

	"github.com/zhouzirui/persona-interview/backend/internal/model/persona"
)

// Prompt is the collaborator's opening message.
type Prompt struct {
	Text string `json:"text"`
}

// Question is the active question of the section the interview is in.
type Question struct {
	Section string `json:"section"`
	Index   int    `json:"index"`
	Text    string `json:"text"`
}

// SectionProgress is a read-only view of one interview section.
type SectionProgress struct {
	Name      string
	Title     string
	Elapsed   time.Duration
	Completed bool
}

// MarshalJSON renders elapsed time in seconds for chart consumers.
func (p SectionProgress) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name           string  `json:"name"`
		Title          string  `json:"title,omitempty"`
		ElapsedSeconds float64 `json:"elapsedSeconds"`
		Completed      bool    `json:"completed"`
	}{
		Name:           p.Name,
		Title:          p.Title,
		ElapsedSeconds: p.Elapsed.Seconds(),
		Completed:      p.Completed,
	})
}

// Response is the result of processing a user answer. It is either a
// Continuation or a WrapUp; no other variants exist.
type Response interface {
	isResponse()
}

// Continuation carries the next question to ask.
type Continuation struct {
	Question string
}

// WrapUp signals the end of the interview with the compiled persona.
type WrapUp struct {
	Summary persona.Summary
}

func (Continuation) isResponse() {}
func (WrapUp) isResponse()       {}
