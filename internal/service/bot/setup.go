package bot

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"

	"github.com/zhouzirui/persona-interview/backend/internal/config"
	"github.com/zhouzirui/persona-interview/backend/internal/model/plan"
)

// NewFactoryFromConfig loads the interview plan and, when credentials are
// present, the chat model. A model that fails to initialise is logged and
// the bots fall back to scripted questions.
func NewFactoryFromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*Factory, error) {
	p, err := plan.LoadOrSeed(cfg.Interview.PlanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load interview plan: %w", err)
	}
	if cfg.Interview.PlanPath == "" {
		log.Printf("[bot] INTERVIEW_PLAN_PATH not set, using built-in plan with %d sections (%s)", len(p.Sections), p.TotalBudget())
	} else {
		log.Printf("[bot] loaded interview plan %s with %d sections (%s)", cfg.Interview.PlanPath, len(p.Sections), p.TotalBudget())
	}

	var chatModel model.BaseChatModel
	if cfg.AI.Enabled() {
		chatModel, err = cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("[bot] warning: failed to initialize %s chat model: %v", cfg.AI.Provider, err)
			log.Println("[bot] continuing with scripted questions and keyword summaries")
			chatModel = nil
		} else {
			log.Printf("[bot] %s chat model initialized", cfg.AI.Provider)
		}
	} else {
		log.Println("[bot] no chat model configured, using scripted questions and keyword summaries")
	}

	return NewFactory(ctx, p, chatModel, opts...)
}
