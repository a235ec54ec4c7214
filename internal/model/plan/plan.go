package plan

import (
	"time"

	"github.com/zhouzirui/persona-interview/backend/internal/model/persona"
)

// Plan describes the sections a persona interview walks through.
type Plan struct {
	Greeting   string    `yaml:"greeting"`
	Transition string    `yaml:"transition"`
	Sections   []Section `yaml:"sections"`
}

// Section is one topic of the interview.
type Section struct {
	Name       string        `yaml:"name"`
	Title      string        `yaml:"title"`
	Facet      persona.Facet `yaml:"facet"`
	TimeBudget time.Duration `yaml:"time_budget"`
	Context    string        `yaml:"context"`
	Questions  []string      `yaml:"questions"`
	Followups  int           `yaml:"followups"`
}

// MaxQuestions is the number of questions a section may ask, follow-ups included.
func (s Section) MaxQuestions() int {
	return len(s.Questions) + s.Followups
}

// TotalBudget sums the section time budgets.
func (p *Plan) TotalBudget() time.Duration {
	var total time.Duration
	for _, s := range p.Sections {
		total += s.TimeBudget
	}
	return total
}

// Seed returns the built-in B2B buyer persona plan, used when no plan file is configured.
func Seed() *Plan {
	return &Plan{
		Greeting:   "Hi! I'd like to learn about you and your work so we can build a persona together.",
		Transition: "Thanks, that's helpful. Let's talk about %s.",
		Sections: []Section{
			{
				Name:       "role",
				Title:      "your role",
				Facet:      persona.RoleCharacteristics,
				TimeBudget: 5 * time.Minute,
				Context:    "Understand the interviewee's job title, responsibilities, team and how success is measured.",
				Questions: []string{
					"What is your current role, and what are you responsible for day to day?",
					"How is success measured in your position?",
				},
				Followups: 1,
			},
			{
				Name:       "challenges",
				Title:      "the challenges you face",
				Facet:      persona.KeyChallenges,
				TimeBudget: 5 * time.Minute,
				Context:    "Surface the biggest obstacles, frustrations and risks in the interviewee's work.",
				Questions: []string{
					"What are the biggest challenges you face in your work right now?",
					"What have you already tried to address them?",
				},
				Followups: 1,
			},
			{
				Name:       "learning",
				Title:      "how you learn",
				Facet:      persona.LearningPreferences,
				TimeBudget: 5 * time.Minute,
				Context:    "Learn which formats, channels and sources the interviewee trusts for new skills and information.",
				Questions: []string{
					"How do you prefer to learn new skills or keep up with your field?",
					"Which sources or communities do you trust the most?",
				},
				Followups: 1,
			},
			{
				Name:       "buying",
				Title:      "how you make purchasing decisions",
				Facet:      persona.BuyingBehavior,
				TimeBudget: 5 * time.Minute,
				Context:    "Map the buying process: who is involved, budget, evaluation criteria and deal breakers.",
				Questions: []string{
					"Walk me through how you decide to buy a new tool or service.",
					"Who else is involved, and what would make you walk away from a purchase?",
				},
				Followups: 1,
			},
		},
	}
}
