package bot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/zhouzirui/persona-interview/backend/internal/config"
)

func TestNewFactoryFromConfigUsesSeedPlan(t *testing.T) {
	factory, err := NewFactoryFromConfig(context.Background(), &config.Config{})
	if err != nil {
		t.Fatalf("NewFactoryFromConfig err: %v", err)
	}
	if factory.LLMEnabled() {
		t.Fatal("expected scripted bots without AI config")
	}
	if got := len(factory.Plan().Sections); got != 4 {
		t.Fatalf("expected seed plan with 4 sections, got %d", got)
	}
}

func TestNewFactoryFromConfigLoadsPlanFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	data := []byte("sections:\n  - name: role\n    facet: role_characteristics\n    questions:\n      - What do you do?\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write plan: %v", err)
	}

	cfg := &config.Config{Interview: config.InterviewConfig{PlanPath: path}}
	factory, err := NewFactoryFromConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewFactoryFromConfig err: %v", err)
	}
	if len(factory.Plan().Sections) != 1 || factory.Plan().Sections[0].Title != "role" {
		t.Fatalf("unexpected plan %+v", factory.Plan())
	}

	cfg.Interview.PlanPath = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := NewFactoryFromConfig(context.Background(), cfg); err == nil {
		t.Fatal("expected error for missing plan file")
	}
}

func TestNewFactoryFromConfigFallsBackWhenModelFails(t *testing.T) {
	// An explicit provider without credentials is disabled, so the bots stay scripted.
	cfg := &config.Config{AI: config.AIConfig{Provider: config.ProviderOpenAI}}
	factory, err := NewFactoryFromConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewFactoryFromConfig err: %v", err)
	}
	if factory.LLMEnabled() {
		t.Fatal("expected scripted bots")
	}
}
