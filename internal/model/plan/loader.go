package plan

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zhouzirui/persona-interview/backend/internal/model/persona"
)

// Load reads an interview plan from a YAML file.
func Load(filename string) (*Plan, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read plan %s: %w", filename, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML interview plan.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse plan yaml: %w", err)
	}
	if err := Validate(&p); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}
	return &p, nil
}

// LoadOrSeed loads the plan at filename, or returns Seed when filename is empty.
func LoadOrSeed(filename string) (*Plan, error) {
	if strings.TrimSpace(filename) == "" {
		return Seed(), nil
	}
	return Load(filename)
}

// Validate checks the invariants the interview bot relies on.
func Validate(p *Plan) error {
	if len(p.Sections) == 0 {
		return fmt.Errorf("at least one section is required")
	}

	seen := make(map[string]bool, len(p.Sections))
	for i := range p.Sections {
		section := &p.Sections[i]
		if section.Name == "" {
			return fmt.Errorf("section %d must have a name", i+1)
		}
		if seen[section.Name] {
			return fmt.Errorf("duplicate section name %q", section.Name)
		}
		seen[section.Name] = true

		if section.Title == "" {
			section.Title = section.Name
		}
		if len(section.Questions) == 0 {
			return fmt.Errorf("section %q must have at least one question", section.Name)
		}
		for j, q := range section.Questions {
			if strings.TrimSpace(q) == "" {
				return fmt.Errorf("section %q question %d is empty", section.Name, j+1)
			}
		}
		if section.Followups < 0 {
			return fmt.Errorf("section %q followups cannot be negative", section.Name)
		}
		if section.TimeBudget < 0 {
			return fmt.Errorf("section %q time_budget cannot be negative", section.Name)
		}
		if section.Facet != "" {
			facet, ok := persona.ParseFacet(string(section.Facet))
			if !ok {
				return fmt.Errorf("section %q has unknown facet %q", section.Name, section.Facet)
			}
			section.Facet = facet
		}
	}

	if p.Transition != "" && strings.Count(p.Transition, "%s") != 1 {
		return fmt.Errorf("transition must contain exactly one %%s placeholder")
	}
	return nil
}
