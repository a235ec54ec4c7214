package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/persona-interview/backend/internal/model/persona"
	"github.com/zhouzirui/persona-interview/backend/internal/model/plan"
)

// generator runs the LLM chains that phrase follow-up questions and compile
// the persona summary.
type generator struct {
	followup compose.Runnable[map[string]any, *schema.Message]
	summary  compose.Runnable[map[string]any, *schema.Message]
}

func newGenerator(ctx context.Context, chatModel model.BaseChatModel) (*generator, error) {
	followup, err := compileChain(ctx, chatModel, prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(followupSystemPrompt),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage(followupUserPrompt),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to compile follow-up chain: %w", err)
	}

	summary, err := compileChain(ctx, chatModel, prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(summarySystemPrompt),
		schema.UserMessage(summaryUserPrompt),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to compile summary chain: %w", err)
	}

	return &generator{followup: followup, summary: summary}, nil
}

func compileChain(ctx context.Context, chatModel model.BaseChatModel, template prompt.ChatTemplate) (compose.Runnable[map[string]any, *schema.Message], error) {
	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)
	return chain.Compile(ctx)
}

// followUp asks the model for one more question within the section.
func (g *generator) followUp(ctx context.Context, section plan.Section, answers []qa) (string, error) {
	history := make([]*schema.Message, 0, len(answers)*2)
	for _, item := range answers {
		history = append(history, schema.AssistantMessage(item.Question, nil))
		history = append(history, schema.UserMessage(item.Answer))
	}

	msg, err := g.followup.Invoke(ctx, map[string]any{
		"section": section.Title,
		"context": strings.TrimSpace(section.Context),
		"history": history,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run follow-up chain: %w", err)
	}
	if msg == nil {
		return "", fmt.Errorf("empty follow-up reply")
	}

	question := cleanQuestion(msg.Content)
	if question == "" {
		return "", fmt.Errorf("empty follow-up reply")
	}
	return question, nil
}

// summarize asks the model to compile the persona from the full transcript.
func (g *generator) summarize(ctx context.Context, transcript string) (persona.Summary, error) {
	msg, err := g.summary.Invoke(ctx, map[string]any{
		"transcript": transcript,
	})
	if err != nil {
		return persona.Summary{}, fmt.Errorf("failed to run summary chain: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return persona.Summary{}, fmt.Errorf("empty summary reply")
	}

	summary, err := parseSummary(msg.Content)
	if err != nil {
		return persona.Summary{}, err
	}
	if summary.IsEmpty() {
		return persona.Summary{}, fmt.Errorf("summary reply has no content")
	}
	return summary, nil
}

// parseSummary extracts the JSON object from a model reply.
func parseSummary(content string) (persona.Summary, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return persona.Summary{}, fmt.Errorf("missing json object")
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &raw); err != nil {
		return persona.Summary{}, fmt.Errorf("decode summary json: %w", err)
	}

	var summary persona.Summary
	for key, value := range raw {
		facet, ok := persona.ParseFacet(key)
		if !ok {
			continue
		}
		summary.Set(facet, flattenText(value))
	}
	return summary, nil
}

// flattenText turns list replies into prose; models sometimes answer with arrays.
func flattenText(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if text := flattenText(item); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, "; ")
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func cleanQuestion(content string) string {
	question := strings.TrimSpace(content)
	if idx := strings.IndexByte(question, '\n'); idx >= 0 {
		question = strings.TrimSpace(question[:idx])
	}
	return strings.Trim(question, "\"'` ")
}

const followupSystemPrompt = "You are an experienced customer-research interviewer building a buyer persona. The current topic is {section}. Interview goal for this topic: {context}\nAsk exactly one short, open follow-up question that digs into something specific the interviewee just said. Do not repeat earlier questions. Reply with the question text only."

const followupUserPrompt = "Ask your follow-up question now."

const summarySystemPrompt = "You are a persona analyst. Read the interview transcript and write a concise persona summary. Reply with a single JSON object and nothing else. It must contain exactly these string fields: role_characteristics, key_challenges, learning_preferences, buying_behavior. Each value is two to four sentences of plain prose grounded only in what the interviewee said."

const summaryUserPrompt = "Interview transcript:\n{transcript}"
