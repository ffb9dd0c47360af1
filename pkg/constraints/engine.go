// Package constraints answers selection questions over an immutable skill
// matrix: whether a skill is disabled, discouraged, or recommended given the
// current selection, which selected skills depend on another, and whether a
// full selection is internally consistent. Every function resolves display
// names to canonical ids first, so callers may pass either.
//
// Relationship graphs are small and author-declared; everything here is
// checked by direct enumeration over plain data, never by search.
package constraints

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stackforge/stackforge/pkg/matrix"
)

// Engine evaluates selection constraints against a single matrix snapshot.
// All methods are pure and safe for concurrent use as long as the caller
// does not mutate the matrix.
type Engine struct {
	m      *matrix.Matrix
	expert bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithExpertMode disables hard blocking: IsDisabled always reports false,
// while conflicts still surface through IsDiscouraged.
func WithExpertMode(expert bool) Option {
	return func(e *Engine) {
		e.expert = expert
	}
}

// New creates an Engine over m.
func New(m *matrix.Matrix, opts ...Option) *Engine {
	e := &Engine{m: m}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsDisabled reports whether the target skill cannot be selected right now:
// it conflicts with a selected skill (checked bidirectionally, since authors
// may record the relation on only one side), or one of its requirement
// groups is unmet. Expert mode bypasses the check entirely.
func (e *Engine) IsDisabled(skillID string, selections []string) bool {
	if e.expert {
		return false
	}
	return e.disableReason(skillID, selections) != ""
}

// DisableReason returns a human-readable explanation for why the target is
// disabled, or "" if it is not. Reasons are checked in the same order as
// IsDisabled, so a non-empty reason is always a true positive.
func (e *Engine) DisableReason(skillID string, selections []string) string {
	if e.expert {
		return ""
	}
	return e.disableReason(skillID, selections)
}

func (e *Engine) disableReason(skillID string, selections []string) string {
	target := e.m.Resolve(skillID)
	resolved := e.m.ResolveAll(selections)
	selected := e.m.ResolveSet(selections)

	skill := e.m.Skill(target)
	if skill == nil {
		return ""
	}

	for _, sel := range resolved {
		if sel == target {
			continue
		}
		if rel, reason, ok := e.conflictBetween(skill, sel); ok {
			return conflictReason(e.m.DisplayName(rel), reason)
		}
	}

	for _, group := range skill.Requires {
		if !group.Satisfied(selected, e.m) {
			return requirementReason(e.m, group, selected)
		}
	}

	return ""
}

// conflictBetween checks both directions between skill and the selected id
// sel, returning the conflicting id and the declared reason.
func (e *Engine) conflictBetween(skill *matrix.Skill, sel string) (string, string, bool) {
	if rel, ok := skill.ConflictWith(sel); ok {
		return sel, rel.Reason, true
	}
	if other := e.m.Skill(sel); other != nil {
		if rel, ok := other.ConflictWith(skill.ID); ok {
			return sel, rel.Reason, true
		}
	}
	return "", "", false
}

// IsDiscouraged reports a softer signal than IsDisabled: selecting the
// target is still allowed but advised against. True when a selection
// bidirectionally discourages the target, when the target bidirectionally
// conflicts with a selection (conflicts imply discouragement even where not
// fully disabling, e.g. in expert mode), or when the target has any unmet
// requirement group.
func (e *Engine) IsDiscouraged(skillID string, selections []string) bool {
	return e.DiscourageReason(skillID, selections) != ""
}

// DiscourageReason explains why the target is discouraged, or returns "".
// Precedence mirrors IsDiscouraged: discourages, then conflicts, then unmet
// requirements.
func (e *Engine) DiscourageReason(skillID string, selections []string) string {
	target := e.m.Resolve(skillID)
	resolved := e.m.ResolveAll(selections)
	selected := e.m.ResolveSet(selections)

	skill := e.m.Skill(target)
	if skill == nil {
		return ""
	}

	for _, sel := range resolved {
		if sel == target {
			continue
		}
		if rel, ok := skill.DiscourageOf(sel); ok {
			return discourageReason(e.m.DisplayName(sel), rel.Reason)
		}
		if other := e.m.Skill(sel); other != nil {
			if rel, ok := other.DiscourageOf(target); ok {
				return discourageReason(e.m.DisplayName(sel), rel.Reason)
			}
		}
	}

	for _, sel := range resolved {
		if sel == target {
			continue
		}
		if rel, reason, ok := e.conflictBetween(skill, sel); ok {
			return conflictReason(e.m.DisplayName(rel), reason)
		}
	}

	for _, group := range skill.Requires {
		if !group.Satisfied(selected, e.m) {
			return requirementReason(e.m, group, selected)
		}
	}

	return ""
}

// IsRecommended reports whether some currently selected skill recommends the
// target. Unlike conflicts and discouragements this is one-directional:
// selection recommends a not-yet-selected peer.
func (e *Engine) IsRecommended(skillID string, selections []string) bool {
	return e.RecommendReason(skillID, selections) != ""
}

// RecommendReason names the first selected skill recommending the target, or
// returns "".
func (e *Engine) RecommendReason(skillID string, selections []string) string {
	target := e.m.Resolve(skillID)
	resolved := e.m.ResolveAll(selections)

	for _, sel := range resolved {
		if sel == target {
			continue
		}
		other := e.m.Skill(sel)
		if other == nil {
			continue
		}
		if rel, ok := other.RecommendOf(target); ok {
			if rel.Reason != "" {
				return fmt.Sprintf("Recommended by %s (%s)", e.m.DisplayName(sel), rel.Reason)
			}
			return fmt.Sprintf("Recommended by %s", e.m.DisplayName(sel))
		}
	}
	return ""
}

// DependentSkills returns the ids of currently selected skills whose
// requirements would become unmet if skillID were removed from the
// selection. For an AND group any selected skill listing the target is
// dependent; for an OR group only when the target is the sole
// currently-satisfying member, since removing it flips the group to unmet.
func (e *Engine) DependentSkills(skillID string, selections []string) []string {
	target := e.m.Resolve(skillID)
	resolved := e.m.ResolveAll(selections)
	selected := e.m.ResolveSet(selections)

	var dependents []string
	for _, sel := range resolved {
		if sel == target {
			continue
		}
		skill := e.m.Skill(sel)
		if skill == nil {
			continue
		}
		for _, group := range skill.Requires {
			if e.groupDependsOn(group, target, selected) {
				dependents = append(dependents, sel)
				break
			}
		}
	}
	return dependents
}

func (e *Engine) groupDependsOn(group matrix.RequirementGroup, target string, selected map[string]bool) bool {
	if !group.NeedsAny {
		for _, id := range group.SkillIDs {
			if id == target {
				return true
			}
		}
		return false
	}

	satisfiers := 0
	targetSatisfies := false
	for _, id := range group.SkillIDs {
		if selected[id] && e.m.Has(id) {
			satisfiers++
			if id == target {
				targetSatisfies = true
			}
		}
	}
	return targetSatisfies && satisfiers == 1
}

func conflictReason(displayName, reason string) string {
	if reason != "" {
		return fmt.Sprintf("Conflicts with %s (%s)", displayName, reason)
	}
	return fmt.Sprintf("Conflicts with %s", displayName)
}

func discourageReason(displayName, reason string) string {
	if reason != "" {
		return fmt.Sprintf("Discouraged with %s (%s)", displayName, reason)
	}
	return fmt.Sprintf("Discouraged with %s", displayName)
}

func requirementReason(m *matrix.Matrix, group matrix.RequirementGroup, selected map[string]bool) string {
	missing := group.MissingIDs(selected, m)
	names := make([]string, 0, len(missing))
	for _, id := range missing {
		names = append(names, m.DisplayName(id))
	}

	joiner := " and "
	if group.NeedsAny {
		joiner = " or "
	}
	joined := strings.Join(names, joiner)

	if group.Reason != "" {
		return fmt.Sprintf("Requires %s (%s)", joined, group.Reason)
	}
	return fmt.Sprintf("Requires %s", joined)
}

// shortReason trims the parenthetical detail from a reason, keeping the
// leading summary text.
func shortReason(reason string) string {
	if i := strings.Index(reason, " ("); i >= 0 {
		return reason[:i]
	}
	return reason
}

// sortedCategorySkills returns the ids of every skill in the category, in
// stable id order.
func sortedCategorySkills(m *matrix.Matrix, categoryID string) []string {
	var ids []string
	for id, skill := range m.Skills {
		if skill.Category == categoryID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
