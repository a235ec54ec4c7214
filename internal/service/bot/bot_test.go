package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/persona-interview/backend/internal/model/interview"
	"github.com/zhouzirui/persona-interview/backend/internal/model/persona"
	"github.com/zhouzirui/persona-interview/backend/internal/model/plan"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type fakeChatModel struct {
	followups     []string
	summary       string
	err           error
	followupCalls int
	summaryCalls  int
	lastInput     []*schema.Message
}

func (m *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.lastInput = input
	if m.err != nil {
		return nil, m.err
	}
	if len(input) > 0 && strings.Contains(input[0].Content, "persona analyst") {
		m.summaryCalls++
		return schema.AssistantMessage(m.summary, nil), nil
	}
	m.followupCalls++
	reply := ""
	if len(m.followups) > 0 {
		reply = m.followups[0]
		m.followups = m.followups[1:]
	}
	return schema.AssistantMessage(reply, nil), nil
}

func (m *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func testPlan() *plan.Plan {
	return &plan.Plan{
		Greeting:   "Welcome!",
		Transition: "Now about %s.",
		Sections: []plan.Section{
			{
				Name:       "role",
				Title:      "your role",
				Facet:      persona.RoleCharacteristics,
				TimeBudget: time.Minute,
				Questions:  []string{"What do you do?", "How is success measured?"},
				Followups:  1,
			},
			{
				Name:      "buying",
				Title:     "buying",
				Facet:     persona.BuyingBehavior,
				Questions: []string{"How do you buy tools?"},
			},
		},
	}
}

func newTestBot(t *testing.T, chatModel model.BaseChatModel) (*Bot, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)}
	factory, err := NewFactory(context.Background(), testPlan(), chatModel, WithClock(clock.now))
	if err != nil {
		t.Fatalf("NewFactory err: %v", err)
	}
	return factory.New(), clock
}

func answer(t *testing.T, b *Bot, text string) interview.Response {
	t.Helper()
	resp, err := b.ProcessResponse(context.Background(), text, b.CurrentSectionQuestion())
	if err != nil {
		t.Fatalf("ProcessResponse(%q) err: %v", text, err)
	}
	return resp
}

func expectQuestion(t *testing.T, resp interview.Response, want string) {
	t.Helper()
	cont, ok := resp.(interview.Continuation)
	if !ok {
		t.Fatalf("expected continuation, got %T", resp)
	}
	if cont.Question != want {
		t.Fatalf("expected question %q, got %q", want, cont.Question)
	}
}

func TestScriptedInterviewWithoutModel(t *testing.T) {
	b, clock := newTestBot(t, nil)

	prompt, err := b.StartInterview(context.Background())
	if err != nil {
		t.Fatalf("StartInterview err: %v", err)
	}
	if prompt.Text != "Welcome!\n\nWhat do you do?" {
		t.Fatalf("unexpected opening %q", prompt.Text)
	}
	if q := b.CurrentSectionQuestion(); q.Section != "role" || q.Index != 0 || q.Text != "What do you do?" {
		t.Fatalf("unexpected current question %+v", q)
	}

	clock.advance(10 * time.Second)
	expectQuestion(t, answer(t, b, "I manage the sales team"), "How is success measured?")

	clock.advance(10 * time.Second)
	expectQuestion(t, answer(t, b, "Revenue growth"), "Now about buying. How do you buy tools?")

	progress := b.Sections()
	if !progress[0].Completed || progress[0].Elapsed != 20*time.Second {
		t.Fatalf("unexpected role progress %+v", progress[0])
	}
	if progress[1].Completed || progress[1].Elapsed != 0 {
		t.Fatalf("unexpected buying progress %+v", progress[1])
	}

	clock.advance(5 * time.Second)
	if got := b.Sections()[1].Elapsed; got != 5*time.Second {
		t.Fatalf("expected running section elapsed 5s, got %s", got)
	}

	resp := answer(t, b, "We run a trial first")
	wrap, ok := resp.(interview.WrapUp)
	if !ok {
		t.Fatalf("expected wrap-up, got %T", resp)
	}
	if wrap.Summary.RoleCharacteristics != "I manage the sales team. Revenue growth." {
		t.Fatalf("unexpected role summary %q", wrap.Summary.RoleCharacteristics)
	}
	if wrap.Summary.BuyingBehavior != "We run a trial first." {
		t.Fatalf("unexpected buying summary %q", wrap.Summary.BuyingBehavior)
	}
	if !b.Sections()[1].Completed {
		t.Fatal("expected last section completed")
	}

	if _, err := b.ProcessResponse(context.Background(), "more", interview.Question{}); !errors.Is(err, ErrFinished) {
		t.Fatalf("expected ErrFinished, got %v", err)
	}
}

func TestStartInterviewTwice(t *testing.T) {
	b, _ := newTestBot(t, nil)
	if _, err := b.StartInterview(context.Background()); err != nil {
		t.Fatalf("StartInterview err: %v", err)
	}
	if _, err := b.StartInterview(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestProcessResponseBeforeStart(t *testing.T) {
	b, _ := newTestBot(t, nil)
	if _, err := b.ProcessResponse(context.Background(), "hi", interview.Question{}); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted, got %v", err)
	}
}

func TestSectionTimeBudgetMovesOn(t *testing.T) {
	b, clock := newTestBot(t, nil)
	if _, err := b.StartInterview(context.Background()); err != nil {
		t.Fatalf("StartInterview err: %v", err)
	}

	clock.advance(2 * time.Minute)
	expectQuestion(t, answer(t, b, "A long story"), "Now about buying. How do you buy tools?")

	if got := b.Sections()[0].Elapsed; got != 2*time.Minute {
		t.Fatalf("expected frozen elapsed 2m, got %s", got)
	}
}

func TestFollowUpAndSummaryFromModel(t *testing.T) {
	chatModel := &fakeChatModel{
		followups: []string{"\"Which metric matters most to your boss?\"\nExtra commentary"},
		summary: "Here you go:\n```json\n" + `{"role_characteristics": "Sales lead.", "key_challenges": ["Churn", "Hiring"], ` +
			`"learning_preferences": "Podcasts.", "buying_behavior": "Trial first.", "hobbies": "golf"}` + "\n```",
	}
	b, _ := newTestBot(t, chatModel)
	if _, err := b.StartInterview(context.Background()); err != nil {
		t.Fatalf("StartInterview err: %v", err)
	}

	expectQuestion(t, answer(t, b, "I lead sales"), "How is success measured?")
	expectQuestion(t, answer(t, b, "Quota"), "Which metric matters most to your boss?")
	if q := b.CurrentSectionQuestion(); q.Index != 2 {
		t.Fatalf("expected follow-up index 2, got %d", q.Index)
	}
	expectQuestion(t, answer(t, b, "Net revenue"), "Now about buying. How do you buy tools?")

	resp := answer(t, b, "Trial first")
	wrap, ok := resp.(interview.WrapUp)
	if !ok {
		t.Fatalf("expected wrap-up, got %T", resp)
	}
	want := persona.Summary{
		RoleCharacteristics: "Sales lead.",
		KeyChallenges:       "Churn; Hiring",
		LearningPreferences: "Podcasts.",
		BuyingBehavior:      "Trial first.",
	}
	if wrap.Summary != want {
		t.Fatalf("unexpected summary %+v", wrap.Summary)
	}
	if chatModel.followupCalls != 1 || chatModel.summaryCalls != 1 {
		t.Fatalf("unexpected model calls: followups=%d summaries=%d", chatModel.followupCalls, chatModel.summaryCalls)
	}
	if !strings.Contains(chatModel.lastInput[len(chatModel.lastInput)-1].Content, "Interviewee: Trial first") {
		t.Fatalf("expected transcript in summary prompt, got %q", chatModel.lastInput[len(chatModel.lastInput)-1].Content)
	}
}

func TestModelFailureFallsBack(t *testing.T) {
	chatModel := &fakeChatModel{err: errors.New("quota exceeded")}
	b, _ := newTestBot(t, chatModel)
	if _, err := b.StartInterview(context.Background()); err != nil {
		t.Fatalf("StartInterview err: %v", err)
	}

	answer(t, b, "I lead sales")
	expectQuestion(t, answer(t, b, "Quota"), "Now about buying. How do you buy tools?")

	wrap, ok := answer(t, b, "Procurement decides").(interview.WrapUp)
	if !ok {
		t.Fatal("expected wrap-up")
	}
	if wrap.Summary.RoleCharacteristics != "I lead sales. Quota." {
		t.Fatalf("unexpected fallback summary %+v", wrap.Summary)
	}
}

func TestParseSummaryRejectsGarbage(t *testing.T) {
	if _, err := parseSummary("no json here"); err == nil {
		t.Fatal("expected error for missing object")
	}
	if _, err := parseSummary("{not json}"); err == nil {
		t.Fatal("expected error for invalid json")
	}
	summary, err := parseSummary(`{"Buying_Behavior": "  Annual contracts  "}`)
	if err != nil {
		t.Fatalf("parseSummary err: %v", err)
	}
	if summary.BuyingBehavior != "Annual contracts" {
		t.Fatalf("unexpected buying behavior %q", summary.BuyingBehavior)
	}
}

func TestNewFactoryRejectsInvalidPlan(t *testing.T) {
	if _, err := NewFactory(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error for nil plan")
	}
	if _, err := NewFactory(context.Background(), &plan.Plan{}, nil); err == nil {
		t.Fatal("expected error for empty plan")
	}
}
