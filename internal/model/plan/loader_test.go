package plan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zhouzirui/persona-interview/backend/internal/model/persona"
)

func TestParseValidPlan(t *testing.T) {
	data := []byte(`
greeting: Hello
transition: "Now about %s."
sections:
  - name: role
    facet: Role_Characteristics
    time_budget: 90s
    followups: 2
    questions:
      - What do you do?
`)

	p, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse err: %v", err)
	}
	if p.Greeting != "Hello" {
		t.Fatalf("unexpected greeting %q", p.Greeting)
	}
	section := p.Sections[0]
	if section.Title != "role" {
		t.Fatalf("expected title to default to name, got %q", section.Title)
	}
	if section.Facet != persona.RoleCharacteristics {
		t.Fatalf("expected normalized facet, got %q", section.Facet)
	}
	if section.TimeBudget != 90*time.Second {
		t.Fatalf("unexpected time budget %s", section.TimeBudget)
	}
	if section.MaxQuestions() != 3 {
		t.Fatalf("unexpected max questions %d", section.MaxQuestions())
	}
}

func TestParseRejectsInvalidPlans(t *testing.T) {
	cases := map[string]string{
		"no sections":       `greeting: hi`,
		"missing name":      "sections:\n  - questions: [a]\n",
		"duplicate name":    "sections:\n  - name: a\n    questions: [x]\n  - name: a\n    questions: [y]\n",
		"no questions":      "sections:\n  - name: a\n",
		"blank question":    "sections:\n  - name: a\n    questions: ['  ']\n",
		"negative followup": "sections:\n  - name: a\n    followups: -1\n    questions: [x]\n",
		"unknown facet":     "sections:\n  - name: a\n    facet: hobbies\n    questions: [x]\n",
		"bad transition":    "transition: no placeholder\nsections:\n  - name: a\n    questions: [x]\n",
		"bad yaml":          "sections: [",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadShippedPlan(t *testing.T) {
	p, err := Load(filepath.Join("..", "..", "..", "config", "interview.yaml"))
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if len(p.Sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(p.Sections))
	}
	if p.TotalBudget() != 20*time.Minute {
		t.Fatalf("expected 20m total budget, got %s", p.TotalBudget())
	}
}

func TestLoadOrSeed(t *testing.T) {
	p, err := LoadOrSeed("")
	if err != nil {
		t.Fatalf("LoadOrSeed err: %v", err)
	}
	if err := Validate(p); err != nil {
		t.Fatalf("seed plan invalid: %v", err)
	}

	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(path, []byte("sections:\n  - name: only\n    questions:\n      - Why?\n"), 0o644); err != nil {
		t.Fatalf("write plan: %v", err)
	}
	p, err = LoadOrSeed(path)
	if err != nil {
		t.Fatalf("LoadOrSeed file err: %v", err)
	}
	if p.Sections[0].Name != "only" || len(p.Sections[0].Questions) != 1 || p.Sections[0].Questions[0] != "Why?" {
		t.Fatalf("unexpected section %+v", p.Sections[0])
	}

	if _, err := LoadOrSeed(filepath.Join(t.TempDir(), "missing.yaml")); err == nil || !strings.Contains(err.Error(), "read plan") {
		t.Fatalf("expected read error, got %v", err)
	}
}
