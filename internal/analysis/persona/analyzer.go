package persona

import (
	"strings"

	"github.com/zhouzirui/persona-interview/backend/internal/model/persona"
)

// Answer is one recorded interview answer with the facet its section targets.
type Answer struct {
	Facet    persona.Facet
	Question string
	Text     string
}

// Decision is the facet classification of a piece of text.
type Decision struct {
	Facet persona.Facet
	Score int
}

var keywordBuckets = map[persona.Facet][]string{
	persona.RoleCharacteristics: {
		"my role", "i am a", "i'm a", "i work as", "responsible for", "responsibilities", "manage", "manager",
		"lead", "director", "team of", "report to", "day to day", "job", "title", "position", "kpi", "success is",
	},
	persona.KeyChallenges: {
		"challenge", "problem", "struggle", "difficult", "hard to", "frustrat", "pain", "bottleneck", "slow",
		"blocker", "risk", "worry", "lack of", "not enough", "too much", "overwhelm", "can't", "cannot",
	},
	persona.LearningPreferences: {
		"learn", "course", "training", "video", "podcast", "book", "blog", "article", "webinar", "mentor",
		"workshop", "documentation", "tutorial", "community", "newsletter", "conference", "read", "youtube",
	},
	persona.BuyingBehavior: {
		"buy", "purchase", "budget", "price", "pricing", "cost", "vendor", "procurement", "approval", "approve",
		"trial", "demo", "contract", "roi", "sign-off", "subscription", "compare", "evaluate", "decision",
	},
}

// Classify scores text against the facet keyword buckets. Text without any
// keyword hit returns a zero score and RoleCharacteristics.
func Classify(text string) Decision {
	normalized := strings.TrimSpace(strings.ToLower(text))
	if normalized == "" {
		return Decision{Facet: persona.RoleCharacteristics}
	}

	best := Decision{Facet: persona.RoleCharacteristics}
	// Facets iterate in fixed order so ties resolve deterministically.
	for _, facet := range persona.Facets() {
		score := 0
		for _, word := range keywordBuckets[facet] {
			if strings.Contains(normalized, word) {
				score += 3
			}
		}
		if score > best.Score {
			best = Decision{Facet: facet, Score: score}
		}
	}
	return best
}

// Summarize groups answers into a persona summary. An answer's own facet wins;
// untagged answers are classified by keywords.
func Summarize(answers []Answer) persona.Summary {
	grouped := make(map[persona.Facet][]string)
	for _, answer := range answers {
		text := strings.TrimSpace(answer.Text)
		if text == "" {
			continue
		}
		facet := answer.Facet
		if _, ok := persona.ParseFacet(string(facet)); !ok {
			facet = Classify(text).Facet
		}
		grouped[facet] = append(grouped[facet], ensureSentence(text))
	}

	var summary persona.Summary
	for _, facet := range persona.Facets() {
		summary.Set(facet, strings.Join(grouped[facet], " "))
	}
	return summary
}

func ensureSentence(text string) string {
	last := text[len(text)-1]
	if last == '.' || last == '!' || last == '?' {
		return text
	}
	return text + "."
}
