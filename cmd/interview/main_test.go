package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chzyer/readline"

	"github.com/zhouzirui/persona-interview/backend/internal/model/persona"
	"github.com/zhouzirui/persona-interview/backend/internal/model/plan"
	"github.com/zhouzirui/persona-interview/backend/internal/service/bot"
	"github.com/zhouzirui/persona-interview/backend/internal/service/interview"
)

type scriptedInput struct {
	lines   []string
	prompts []string
}

func (s *scriptedInput) ReadLine(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	if line == "^C" {
		return "", readline.ErrInterrupt
	}
	return line, nil
}

func (s *scriptedInput) Close() error { return nil }

func newTestShell(t *testing.T, lines ...string) (*shell, *scriptedInput, *bytes.Buffer) {
	t.Helper()
	p := &plan.Plan{
		Greeting: "Welcome.",
		Sections: []plan.Section{{
			Name:      "learning",
			Title:     "learning",
			Facet:     persona.LearningPreferences,
			Questions: []string{"How do you learn new tools?"},
		}},
	}
	factory, err := bot.NewFactory(context.Background(), p, nil)
	if err != nil {
		t.Fatalf("NewFactory err: %v", err)
	}
	input := &scriptedInput{lines: lines}
	out := &bytes.Buffer{}
	return &shell{controller: interview.NewController(factory.New()), input: input, out: out, width: 60}, input, out
}

func TestShellRunsInterviewAndExports(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.json")
	sh, input, out := newTestShell(t,
		"/export",
		"^C",
		"",
		"Mostly short videos",
		"/progress",
		"/export "+path,
		"/quit",
	)

	if err := sh.run(context.Background()); err != nil {
		t.Fatalf("run err: %v", err)
	}

	text := out.String()
	for _, want := range []string{"Welcome.", "How do you learn new tools?", interview.ClosingMessage, "Persona Summary", "persona saved to " + path} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, text)
		}
	}
	if !strings.Contains(text, "invalid state transition") {
		t.Fatalf("expected early export to be rejected, got:\n%s", text)
	}
	if !strings.HasPrefix(input.prompts[0], "[20:00] you> ") {
		t.Fatalf("expected countdown prompt, got %q", input.prompts[0])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var record interview.ExportRecord
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if record.Persona.LearningPreferences != "Mostly short videos." || len(record.ChatHistory) != 3 {
		t.Fatalf("unexpected export %+v", record)
	}
}

func TestShellStopsOnEOF(t *testing.T) {
	sh, _, out := newTestShell(t)
	if err := sh.run(context.Background()); err != nil {
		t.Fatalf("run err: %v", err)
	}
	if !strings.Contains(out.String(), "bye") {
		t.Fatalf("expected goodbye, got %q", out.String())
	}
}

func TestShellUnknownCommand(t *testing.T) {
	sh, _, out := newTestShell(t, "/dance", "/help", "/quit")
	if err := sh.run(context.Background()); err != nil {
		t.Fatalf("run err: %v", err)
	}
	if !strings.Contains(out.String(), "unknown command /dance") || !strings.Contains(out.String(), "/progress") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestFormatClock(t *testing.T) {
	cases := map[time.Duration]string{
		0:                             "00:00",
		-time.Second:                  "00:00",
		59 * time.Second:              "00:59",
		20 * time.Minute:              "20:00",
		3*time.Minute + 7*time.Second: "03:07",
	}
	for d, want := range cases {
		if got := formatClock(d); got != want {
			t.Fatalf("formatClock(%s) = %q, want %q", d, got, want)
		}
	}
}
