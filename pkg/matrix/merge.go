package matrix

import (
	"strings"

	"github.com/pkg/errors"
)

// RawSource is one source's contribution to the matrix, in the shape the
// source loader hands over: a source record plus the skill and category
// definitions it declares. AvailableSources/ActiveSource on the contained
// skills are ignored on input; the merge owns those annotations.
type RawSource struct {
	Source     SkillSource
	Categories []Category
	Skills     []*Skill
}

// Merge overlays the given sources, in declaration order, into a single
// Matrix with one entry per distinct skill id.
//
// For a skill declared by k sources, AvailableSources lists all k source
// records in declaration order. The active source is the first installed one,
// or the first declared if none is installed; an installed source always wins
// over declaration order, and that is the only precedence rule. The active
// source also contributes the skill's content (name, description,
// relationships).
//
// sourceSelections optionally overrides the active source per skill id; an
// override naming a source the skill is not available from is an error.
func Merge(sources []RawSource, sourceSelections map[string]string) (*Matrix, error) {
	m := &Matrix{
		Skills:          make(map[string]*Skill),
		Categories:      make(map[string]Category),
		displayNameToID: make(map[string]string),
	}

	// Per-skill definitions in source declaration order.
	type declaration struct {
		source SkillSource
		skill  *Skill
	}
	declared := make(map[string][]declaration)
	var order []string

	for _, src := range sources {
		for _, cat := range src.Categories {
			if _, exists := m.Categories[cat.ID]; !exists {
				m.Categories[cat.ID] = cat
			}
		}
		for _, skill := range src.Skills {
			if skill.ID == "" {
				continue
			}
			if _, seen := declared[skill.ID]; !seen {
				order = append(order, skill.ID)
			}
			declared[skill.ID] = append(declared[skill.ID], declaration{source: src.Source, skill: skill})
		}
	}

	for _, id := range order {
		decls := declared[id]

		available := make([]SkillSource, 0, len(decls))
		for _, d := range decls {
			available = append(available, d.source)
		}

		active := 0
		for i, d := range decls {
			if d.source.Installed {
				active = i
				break
			}
		}

		if override, ok := sourceSelections[id]; ok {
			found := -1
			for i, d := range decls {
				if d.source.Name == override {
					found = i
					break
				}
			}
			if found < 0 {
				return nil, errors.Errorf(
					"skill %q is not available from source %q (available: %s)",
					id, override, strings.Join(sourceNames(available), ", "))
			}
			active = found
		}

		merged := *decls[active].skill
		merged.AvailableSources = available
		merged.ActiveSource = &merged.AvailableSources[active]
		m.Skills[id] = &merged

		if merged.Name != "" {
			if _, taken := m.displayNameToID[merged.Name]; !taken {
				m.displayNameToID[merged.Name] = id
			}
		}
	}

	return m, nil
}

func sourceNames(sources []SkillSource) []string {
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Name)
	}
	return names
}
