package persona

import (
	"fmt"
	"strings"
)

// Facet names one of the fixed keys of a persona summary.
type Facet string

const (
	RoleCharacteristics Facet = "role_characteristics"
	KeyChallenges       Facet = "key_challenges"
	LearningPreferences Facet = "learning_preferences"
	BuyingBehavior      Facet = "buying_behavior"
)

// Facets lists every summary key in display order.
func Facets() []Facet {
	return []Facet{RoleCharacteristics, KeyChallenges, LearningPreferences, BuyingBehavior}
}

// ParseFacet accepts a facet key, case-insensitively.
func ParseFacet(raw string) (Facet, bool) {
	normalized := Facet(strings.ToLower(strings.TrimSpace(raw)))
	for _, f := range Facets() {
		if f == normalized {
			return f, true
		}
	}
	return "", false
}

// Title returns a human readable heading for the facet.
func (f Facet) Title() string {
	switch f {
	case RoleCharacteristics:
		return "Role Characteristics"
	case KeyChallenges:
		return "Key Challenges"
	case LearningPreferences:
		return "Learning Preferences"
	case BuyingBehavior:
		return "Buying Behavior"
	default:
		return string(f)
	}
}

// Summary is the persona produced when an interview wraps up.
type Summary struct {
	RoleCharacteristics string `json:"role_characteristics"`
	KeyChallenges       string `json:"key_challenges"`
	LearningPreferences string `json:"learning_preferences"`
	BuyingBehavior      string `json:"buying_behavior"`
}

// Get returns the text stored under a facet.
func (s Summary) Get(f Facet) string {
	switch f {
	case RoleCharacteristics:
		return s.RoleCharacteristics
	case KeyChallenges:
		return s.KeyChallenges
	case LearningPreferences:
		return s.LearningPreferences
	case BuyingBehavior:
		return s.BuyingBehavior
	default:
		return ""
	}
}

// Set stores text under a facet. Unknown facets are ignored.
func (s *Summary) Set(f Facet, text string) {
	switch f {
	case RoleCharacteristics:
		s.RoleCharacteristics = text
	case KeyChallenges:
		s.KeyChallenges = text
	case LearningPreferences:
		s.LearningPreferences = text
	case BuyingBehavior:
		s.BuyingBehavior = text
	}
}

// IsEmpty reports whether no facet carries any text.
func (s Summary) IsEmpty() bool {
	for _, f := range Facets() {
		if strings.TrimSpace(s.Get(f)) != "" {
			return false
		}
	}
	return true
}

// Markdown renders the summary as a markdown document for terminal shells.
func (s Summary) Markdown() string {
	var builder strings.Builder
	builder.WriteString("# Persona Summary\n")
	for _, f := range Facets() {
		text := strings.TrimSpace(s.Get(f))
		if text == "" {
			text = "_No details collected._"
		}
		builder.WriteString(fmt.Sprintf("\n## %s\n\n%s\n", f.Title(), text))
	}
	return builder.String()
}
