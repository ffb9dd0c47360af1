package constraints

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stackforge/stackforge/pkg/matrix"
)

// ErrorType classifies blocking validation findings.
type ErrorType string

// WarningType classifies advisory validation findings.
type WarningType string

const (
	// ErrorConflict marks two selected skills that declare a conflict.
	ErrorConflict ErrorType = "conflict"
	// ErrorMissingRequirement marks a selected skill with an unmet
	// requirement group.
	ErrorMissingRequirement ErrorType = "missingRequirement"
	// ErrorCategoryExclusive marks an exclusive category with more than one
	// selected member.
	ErrorCategoryExclusive ErrorType = "categoryExclusive"

	// WarningMissingRecommendation marks a recommended skill absent from the
	// selection.
	WarningMissingRecommendation WarningType = "missing_recommendation"
	// WarningUnusedSetup marks a setup-only skill selected without any of
	// its usage skills.
	WarningUnusedSetup WarningType = "unused_setup"
)

// ValidationError is a blocking finding; compilation must refuse to proceed
// while any exist.
type ValidationError struct {
	Type    ErrorType `json:"type"`
	Skills  []string  `json:"skills,omitempty"`
	Message string    `json:"message"`
}

// ValidationWarning is an advisory finding; it never blocks.
type ValidationWarning struct {
	Type    WarningType `json:"type"`
	Skills  []string    `json:"skills,omitempty"`
	Message string      `json:"message"`
}

// ValidationResult is the outcome of validating a full selection. Valid is
// true iff Errors is empty; warnings never affect validity.
type ValidationResult struct {
	Valid    bool                `json:"valid"`
	Errors   []ValidationError   `json:"errors"`
	Warnings []ValidationWarning `json:"warnings"`
}

// ValidateSelection checks a full selection for internal consistency. It
// resolves aliases once, then runs five independent passes over the resolved
// set: pairwise conflicts, requirement groups, category exclusivity,
// missing-recommendation warnings, and unused-setup warnings. Pass order
// only affects message ordering, never the outcome.
func (e *Engine) ValidateSelection(selections []string) ValidationResult {
	resolved := e.m.ResolveAll(selections)
	selected := e.m.ResolveSet(selections)

	result := ValidationResult{}
	result.Errors = append(result.Errors, e.conflictErrors(resolved)...)
	result.Errors = append(result.Errors, e.requirementErrors(resolved, selected)...)
	result.Errors = append(result.Errors, e.exclusivityErrors(resolved)...)
	result.Warnings = append(result.Warnings, e.recommendationWarnings(resolved, selected)...)
	result.Warnings = append(result.Warnings, e.setupWarnings(resolved, selected)...)
	result.Valid = len(result.Errors) == 0
	return result
}

// conflictErrors checks every unordered pair of the selection; a conflict
// declared by either side names both skills.
func (e *Engine) conflictErrors(resolved []string) []ValidationError {
	var errs []ValidationError
	for i := 0; i < len(resolved); i++ {
		for j := i + 1; j < len(resolved); j++ {
			a, b := resolved[i], resolved[j]

			var reason string
			declared := false
			if sa := e.m.Skill(a); sa != nil {
				if rel, ok := sa.ConflictWith(b); ok {
					reason, declared = rel.Reason, true
				}
			}
			if !declared {
				if sb := e.m.Skill(b); sb != nil {
					if rel, ok := sb.ConflictWith(a); ok {
						reason, declared = rel.Reason, true
					}
				}
			}
			if !declared {
				continue
			}

			msg := fmt.Sprintf("%s conflicts with %s", e.m.DisplayName(a), e.m.DisplayName(b))
			if reason != "" {
				msg = fmt.Sprintf("%s: %s", msg, reason)
			}
			errs = append(errs, ValidationError{
				Type:    ErrorConflict,
				Skills:  []string{a, b},
				Message: msg,
			})
		}
	}
	return errs
}

func (e *Engine) requirementErrors(resolved []string, selected map[string]bool) []ValidationError {
	var errs []ValidationError
	for _, id := range resolved {
		skill := e.m.Skill(id)
		if skill == nil {
			continue
		}
		for _, group := range skill.Requires {
			if group.Satisfied(selected, e.m) {
				continue
			}
			missing := group.MissingIDs(selected, e.m)
			msg := fmt.Sprintf("%s requires %s", e.m.DisplayName(id), joinMissing(e.m, missing, group.NeedsAny))
			if group.Reason != "" {
				msg = fmt.Sprintf("%s: %s", msg, group.Reason)
			}
			errs = append(errs, ValidationError{
				Type:    ErrorMissingRequirement,
				Skills:  append([]string{id}, missing...),
				Message: msg,
			})
		}
	}
	return errs
}

func (e *Engine) exclusivityErrors(resolved []string) []ValidationError {
	byCategory := make(map[string][]string)
	for _, id := range resolved {
		if skill := e.m.Skill(id); skill != nil {
			byCategory[skill.Category] = append(byCategory[skill.Category], id)
		}
	}

	categoryIDs := make([]string, 0, len(byCategory))
	for catID := range byCategory {
		categoryIDs = append(categoryIDs, catID)
	}
	sort.Strings(categoryIDs)

	var errs []ValidationError
	for _, catID := range categoryIDs {
		members := byCategory[catID]
		cat, ok := e.m.Categories[catID]
		if !ok || !cat.Exclusive || len(members) < 2 {
			continue
		}
		names := make([]string, 0, len(members))
		for _, id := range members {
			names = append(names, e.m.DisplayName(id))
		}
		errs = append(errs, ValidationError{
			Type:    ErrorCategoryExclusive,
			Skills:  members,
			Message: fmt.Sprintf("category %s allows only one selection, got: %s", cat.Name, strings.Join(names, ", ")),
		})
	}
	return errs
}

// recommendationWarnings reports recommended skills absent from the
// selection, suppressing any recommendation that would itself conflict with
// something already selected.
func (e *Engine) recommendationWarnings(resolved []string, selected map[string]bool) []ValidationWarning {
	var warnings []ValidationWarning
	reported := make(map[string]bool)
	for _, id := range resolved {
		skill := e.m.Skill(id)
		if skill == nil {
			continue
		}
		for _, rel := range skill.Recommends {
			rec := rel.SkillID
			if selected[rec] || reported[rec] {
				continue
			}
			if e.conflictsWithSelection(rec, resolved) {
				continue
			}
			reported[rec] = true
			msg := fmt.Sprintf("%s recommends %s", e.m.DisplayName(id), e.m.DisplayName(rec))
			if rel.Reason != "" {
				msg = fmt.Sprintf("%s: %s", msg, rel.Reason)
			}
			warnings = append(warnings, ValidationWarning{
				Type:    WarningMissingRecommendation,
				Skills:  []string{id, rec},
				Message: msg,
			})
		}
	}
	return warnings
}

func (e *Engine) conflictsWithSelection(id string, resolved []string) bool {
	skill := e.m.Skill(id)
	for _, sel := range resolved {
		if sel == id {
			continue
		}
		if skill != nil {
			if _, ok := skill.ConflictWith(sel); ok {
				return true
			}
		}
		if other := e.m.Skill(sel); other != nil {
			if _, ok := other.ConflictWith(id); ok {
				return true
			}
		}
	}
	return false
}

// setupWarnings reports selected setup-only skills none of whose usage
// skills are selected.
func (e *Engine) setupWarnings(resolved []string, selected map[string]bool) []ValidationWarning {
	var warnings []ValidationWarning
	for _, id := range resolved {
		skill := e.m.Skill(id)
		if skill == nil || len(skill.ProvidesSetupFor) == 0 {
			continue
		}
		used := false
		for _, usage := range skill.ProvidesSetupFor {
			if selected[usage] {
				used = true
				break
			}
		}
		if used {
			continue
		}
		names := make([]string, 0, len(skill.ProvidesSetupFor))
		for _, usage := range skill.ProvidesSetupFor {
			names = append(names, e.m.DisplayName(usage))
		}
		warnings = append(warnings, ValidationWarning{
			Type:    WarningUnusedSetup,
			Skills:  append([]string{id}, skill.ProvidesSetupFor...),
			Message: fmt.Sprintf("%s only provides setup for %s, none of which are selected", e.m.DisplayName(id), strings.Join(names, ", ")),
		})
	}
	return warnings
}

func joinMissing(m *matrix.Matrix, missing []string, needsAny bool) string {
	names := make([]string, 0, len(missing))
	for _, id := range missing {
		names = append(names, m.DisplayName(id))
	}
	if needsAny {
		return strings.Join(names, " or ")
	}
	return strings.Join(names, " and ")
}
