package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zhouzirui/persona-interview/backend/internal/model/chat"
	model "github.com/zhouzirui/persona-interview/backend/internal/model/interview"
	"github.com/zhouzirui/persona-interview/backend/internal/model/persona"
)

// SessionBudget is the advisory length of one interview.
const SessionBudget = 1200 * time.Second

// ClosingMessage is appended when the collaborator wraps the interview up.
const ClosingMessage = "Thank you for your time! I've compiled a summary of our discussion."

var (
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrCollaboratorContract   = errors.New("collaborator contract violation")
)

// Bot is the persona interview collaborator the controller drives.
type Bot interface {
	StartInterview(ctx context.Context) (model.Prompt, error)
	Sections() []model.SectionProgress
	CurrentSectionQuestion() model.Question
	ProcessResponse(ctx context.Context, userText string, question model.Question) (model.Response, error)
}

// Phase is the lifecycle position of a session.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseInProgress Phase = "in_progress"
	PhaseComplete   Phase = "complete"
)

// State is the per-session record owned by a Controller.
type State struct {
	Started    bool             `json:"started"`
	Complete   bool             `json:"complete"`
	StartedAt  *time.Time       `json:"startedAt,omitempty"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`
	Transcript []chat.Entry     `json:"transcript"`
	Summary    *persona.Summary `json:"summary,omitempty"`
}

// Phase derives the lifecycle phase from the flags.
func (s State) Phase() Phase {
	switch {
	case s.Complete:
		return PhaseComplete
	case s.Started:
		return PhaseInProgress
	default:
		return PhaseNotStarted
	}
}

// Option customises a Controller.
type Option func(*Controller)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// Controller owns one session's State and mediates between shell events and
// the Bot. It is not safe for concurrent use; callers serialize access.
type Controller struct {
	bot   Bot
	now   func() time.Time
	state State
}

// NewController returns a controller for a fresh, not-started session.
func NewController(bot Bot, opts ...Option) *Controller {
	c := &Controller{
		bot:   bot,
		now:   time.Now,
		state: State{Transcript: make([]chat.Entry, 0, 16)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Begin starts the interview and appends the collaborator's opening question.
func (c *Controller) Begin(ctx context.Context) (chat.Entry, error) {
	if c.state.Started {
		return chat.Entry{}, fmt.Errorf("%w: interview already started", ErrInvalidStateTransition)
	}

	prompt, err := c.bot.StartInterview(ctx)
	if err != nil {
		return chat.Entry{}, fmt.Errorf("start interview: %w", err)
	}
	if strings.TrimSpace(prompt.Text) == "" {
		return chat.Entry{}, fmt.Errorf("%w: empty opening question", ErrCollaboratorContract)
	}

	startedAt := c.now()
	opening := chat.AssistantEntry(prompt.Text)

	c.state.Started = true
	c.state.StartedAt = &startedAt
	c.state.Transcript = append(c.state.Transcript, opening)
	return opening, nil
}

// Submit records a user answer and the collaborator's reaction to it. Empty
// input is ignored and returns no entries. The returned entries are the ones
// appended to the transcript, in order.
func (c *Controller) Submit(ctx context.Context, userText string) ([]chat.Entry, error) {
	if c.state.Phase() != PhaseInProgress {
		return nil, fmt.Errorf("%w: submit requires an interview in progress (state %s)", ErrInvalidStateTransition, c.state.Phase())
	}
	if strings.TrimSpace(userText) == "" {
		return nil, nil
	}

	question := c.bot.CurrentSectionQuestion()
	resp, err := c.bot.ProcessResponse(ctx, userText, question)
	if err != nil {
		return nil, fmt.Errorf("process response: %w", err)
	}

	appended := []chat.Entry{chat.UserEntry(userText)}
	var summary *persona.Summary

	switch r := resp.(type) {
	case model.Continuation:
		if strings.TrimSpace(r.Question) == "" {
			return nil, fmt.Errorf("%w: continuation without a question", ErrCollaboratorContract)
		}
		appended = append(appended, chat.AssistantEntry(r.Question))
	case *model.Continuation:
		if r == nil || strings.TrimSpace(r.Question) == "" {
			return nil, fmt.Errorf("%w: continuation without a question", ErrCollaboratorContract)
		}
		appended = append(appended, chat.AssistantEntry(r.Question))
	case model.WrapUp:
		s := r.Summary
		summary = &s
		appended = append(appended, chat.AssistantEntry(ClosingMessage))
	case *model.WrapUp:
		if r == nil {
			return nil, fmt.Errorf("%w: nil wrap-up", ErrCollaboratorContract)
		}
		s := r.Summary
		summary = &s
		appended = append(appended, chat.AssistantEntry(ClosingMessage))
	default:
		return nil, fmt.Errorf("%w: unexpected response %T", ErrCollaboratorContract, resp)
	}

	c.state.Transcript = append(c.state.Transcript, appended...)
	if summary != nil {
		finishedAt := c.now()
		c.state.Summary = summary
		c.state.Complete = true
		c.state.FinishedAt = &finishedAt
	}
	return appended, nil
}

// RemainingTime reports how much of SessionBudget is left. It never enforces
// the budget.
func (c *Controller) RemainingTime() (time.Duration, error) {
	if c.state.Phase() != PhaseInProgress {
		return 0, fmt.Errorf("%w: remaining time requires an interview in progress (state %s)", ErrInvalidStateTransition, c.state.Phase())
	}
	remaining := SessionBudget - c.now().Sub(*c.state.StartedAt)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// Elapsed reports time since Begin, frozen once the interview completes.
func (c *Controller) Elapsed() (time.Duration, error) {
	if !c.state.Started {
		return 0, fmt.Errorf("%w: interview not started", ErrInvalidStateTransition)
	}
	if c.state.FinishedAt != nil {
		return c.state.FinishedAt.Sub(*c.state.StartedAt), nil
	}
	return c.now().Sub(*c.state.StartedAt), nil
}

// SectionProgress passes the collaborator's per-section progress through.
func (c *Controller) SectionProgress() []model.SectionProgress {
	return c.bot.Sections()
}

// Export builds the downloadable record of a completed interview.
func (c *Controller) Export() (ExportRecord, error) {
	if !c.state.Complete || c.state.Summary == nil {
		return ExportRecord{}, fmt.Errorf("%w: export requires a completed interview (state %s)", ErrInvalidStateTransition, c.state.Phase())
	}
	return newExportRecord(*c.state.Summary, c.state.Transcript, c.now()), nil
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase {
	return c.state.Phase()
}

// Snapshot returns a copy of the session state safe to hand to a renderer.
func (c *Controller) Snapshot() State {
	out := State{
		Started:    c.state.Started,
		Complete:   c.state.Complete,
		Transcript: append([]chat.Entry(nil), c.state.Transcript...),
	}
	if c.state.StartedAt != nil {
		t := *c.state.StartedAt
		out.StartedAt = &t
	}
	if c.state.FinishedAt != nil {
		t := *c.state.FinishedAt
		out.FinishedAt = &t
	}
	if c.state.Summary != nil {
		s := *c.state.Summary
		out.Summary = &s
	}
	if out.Transcript == nil {
		out.Transcript = []chat.Entry{}
	}
	return out
}
