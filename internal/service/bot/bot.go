package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"

	analysis "github.com/zhouzirui/persona-interview/backend/internal/analysis/persona"
	"github.com/zhouzirui/persona-interview/backend/internal/model/interview"
	"github.com/zhouzirui/persona-interview/backend/internal/model/persona"
	"github.com/zhouzirui/persona-interview/backend/internal/model/plan"
)

var (
	ErrAlreadyStarted = errors.New("interview already started")
	ErrNotStarted     = errors.New("interview not started")
	ErrFinished       = errors.New("interview already finished")
)

// Option customises bots built by a Factory.
type Option func(*Factory)

// WithClock replaces time.Now for section timing.
func WithClock(now func() time.Time) Option {
	return func(f *Factory) {
		if now != nil {
			f.now = now
		}
	}
}

// Factory builds one Bot per interview session. The LLM chains are compiled
// once and shared; each Bot keeps its own progress.
type Factory struct {
	plan      *plan.Plan
	generator *generator
	now       func() time.Time
}

// NewFactory prepares bots for the given plan. chatModel may be nil, in which
// case bots ask only scripted questions and summarize heuristically.
func NewFactory(ctx context.Context, p *plan.Plan, chatModel model.BaseChatModel, opts ...Option) (*Factory, error) {
	if p == nil {
		return nil, fmt.Errorf("interview plan is required")
	}
	if err := plan.Validate(p); err != nil {
		return nil, fmt.Errorf("invalid interview plan: %w", err)
	}

	f := &Factory{plan: p, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}

	if chatModel != nil {
		gen, err := newGenerator(ctx, chatModel)
		if err != nil {
			return nil, err
		}
		f.generator = gen
	}
	return f, nil
}

// LLMEnabled reports whether bots use the chat model.
func (f *Factory) LLMEnabled() bool {
	return f.generator != nil
}

// Plan returns the plan bots follow.
func (f *Factory) Plan() *plan.Plan {
	return f.plan
}

// New returns a fresh bot positioned before the first section.
func (f *Factory) New() *Bot {
	return &Bot{
		plan:      f.plan,
		generator: f.generator,
		now:       f.now,
		sections:  make([]sectionState, len(f.plan.Sections)),
	}
}

type qa struct {
	Question string
	Answer   string
}

type sectionState struct {
	started   bool
	startedAt time.Time
	elapsed   time.Duration
	completed bool
	asked     int
	answers   []qa
}

// Bot walks an interview plan section by section. The active section is
// always the first incomplete one. A Bot is not safe for concurrent use.
type Bot struct {
	plan      *plan.Plan
	generator *generator
	now       func() time.Time

	sections []sectionState
	current  int
	pending  interview.Question
	started  bool
	finished bool
}

// StartInterview enters the first section and returns the greeting with the
// opening question.
func (b *Bot) StartInterview(_ context.Context) (interview.Prompt, error) {
	if b.started {
		return interview.Prompt{}, ErrAlreadyStarted
	}
	b.started = true
	b.enterSection(0)

	question := b.ask(b.plan.Sections[0].Questions[0])
	text := question
	if greeting := strings.TrimSpace(b.plan.Greeting); greeting != "" {
		text = greeting + "\n\n" + question
	}
	return interview.Prompt{Text: text}, nil
}

// Sections reports per-section progress in plan order.
func (b *Bot) Sections() []interview.SectionProgress {
	now := b.now()
	out := make([]interview.SectionProgress, 0, len(b.sections))
	for i, section := range b.plan.Sections {
		state := b.sections[i]
		elapsed := state.elapsed
		if state.started && !state.completed {
			elapsed = now.Sub(state.startedAt)
		}
		out = append(out, interview.SectionProgress{
			Name:      section.Name,
			Title:     section.Title,
			Elapsed:   elapsed,
			Completed: state.completed,
		})
	}
	return out
}

// CurrentSectionQuestion returns the question awaiting an answer.
func (b *Bot) CurrentSectionQuestion() interview.Question {
	return b.pending
}

// ProcessResponse records the answer and decides what comes next.
func (b *Bot) ProcessResponse(ctx context.Context, userText string, question interview.Question) (interview.Response, error) {
	switch {
	case !b.started:
		return nil, ErrNotStarted
	case b.finished:
		return nil, ErrFinished
	}

	asked := question.Text
	if strings.TrimSpace(asked) == "" {
		asked = b.pending.Text
	}
	state := &b.sections[b.current]
	state.answers = append(state.answers, qa{Question: asked, Answer: strings.TrimSpace(userText)})

	if next, ok := b.nextInSection(ctx); ok {
		return interview.Continuation{Question: b.ask(next)}, nil
	}

	b.completeSection(b.current)
	if b.current+1 < len(b.plan.Sections) {
		b.current++
		b.enterSection(b.current)
		section := b.plan.Sections[b.current]
		question := b.ask(section.Questions[0])
		return interview.Continuation{Question: b.transition(section) + question}, nil
	}

	b.finished = true
	b.pending = interview.Question{}
	return interview.WrapUp{Summary: b.summarize(ctx)}, nil
}

// nextInSection picks the next scripted question, or an LLM follow-up when the
// script is exhausted. It returns false when the section is done.
func (b *Bot) nextInSection(ctx context.Context) (string, bool) {
	section := b.plan.Sections[b.current]
	state := &b.sections[b.current]

	if b.sectionExpired(b.current) {
		log.Printf("[bot] section %s exceeded its time budget of %s", section.Name, section.TimeBudget)
		return "", false
	}
	if state.asked < len(section.Questions) {
		return section.Questions[state.asked], true
	}
	if b.generator == nil || state.asked >= section.MaxQuestions() {
		return "", false
	}

	question, err := b.generator.followUp(ctx, section, state.answers)
	if err != nil {
		log.Printf("[bot] follow-up generation failed for section %s, moving on: %v", section.Name, err)
		return "", false
	}
	return question, true
}

func (b *Bot) ask(text string) string {
	state := &b.sections[b.current]
	b.pending = interview.Question{
		Section: b.plan.Sections[b.current].Name,
		Index:   state.asked,
		Text:    text,
	}
	state.asked++
	return text
}

func (b *Bot) enterSection(i int) {
	b.sections[i].started = true
	b.sections[i].startedAt = b.now()
}

func (b *Bot) completeSection(i int) {
	state := &b.sections[i]
	if state.completed {
		return
	}
	state.completed = true
	state.elapsed = b.now().Sub(state.startedAt)
}

func (b *Bot) sectionExpired(i int) bool {
	budget := b.plan.Sections[i].TimeBudget
	if budget <= 0 {
		return false
	}
	return b.now().Sub(b.sections[i].startedAt) >= budget
}

func (b *Bot) transition(section plan.Section) string {
	if b.plan.Transition == "" {
		return ""
	}
	return fmt.Sprintf(b.plan.Transition, section.Title) + " "
}

func (b *Bot) summarize(ctx context.Context) persona.Summary {
	answers := make([]analysis.Answer, 0)
	for i, section := range b.plan.Sections {
		for _, item := range b.sections[i].answers {
			answers = append(answers, analysis.Answer{
				Facet:    section.Facet,
				Question: item.Question,
				Text:     item.Answer,
			})
		}
	}

	if b.generator != nil {
		summary, err := b.generator.summarize(ctx, formatTranscript(answers))
		if err == nil {
			return summary
		}
		log.Printf("[bot] summary generation failed, use keyword fallback: %v", err)
	}
	return analysis.Summarize(answers)
}

func formatTranscript(answers []analysis.Answer) string {
	var builder strings.Builder
	for i, item := range answers {
		if i > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString("Interviewer: ")
		builder.WriteString(item.Question)
		builder.WriteString("\nInterviewee: ")
		builder.WriteString(item.Text)
	}
	return builder.String()
}
