// Package matrix holds the in-memory skill matrix: the canonical set of
// skills, categories, and author-declared relationships merged from one or
// more content sources. A Matrix is built once per command invocation and is
// immutable afterwards; the constraint engine and the compile pipeline only
// ever read from it.
package matrix

// Source kinds. Exactly one distinguished source is named "public" and is
// always present, even with zero configured extra sources.
const (
	SourceKindPublic  = "public"
	SourceKindPrivate = "private"

	// PublicSourceName is the name of the always-present default source.
	PublicSourceName = "public"
)

// SkillSource describes one origin a skill's content can come from.
type SkillSource struct {
	Name        string `yaml:"name" json:"name"`
	Kind        string `yaml:"kind" json:"kind"`
	URL         string `yaml:"url,omitempty" json:"url,omitempty"`
	Installed   bool   `yaml:"installed" json:"installed"`
	InstallMode string `yaml:"install_mode,omitempty" json:"installMode,omitempty"`
}

// Relation is a directed, reasoned link from the declaring skill to another
// skill. The same shape serves conflicts, recommendations, and
// discouragements; the semantics come from which list it sits in.
type Relation struct {
	SkillID string `yaml:"skill" json:"skill"`
	Reason  string `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// RequirementGroup declares that the owning skill needs other skills to be
// selected. With NeedsAny false every listed id must be selected (AND); with
// NeedsAny true at least one must be (OR).
type RequirementGroup struct {
	SkillIDs []string `yaml:"skills" json:"skills"`
	NeedsAny bool     `yaml:"needs_any,omitempty" json:"needsAny,omitempty"`
	Reason   string   `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// Satisfied reports whether the group is met by the given selection set.
// Only ids that exist in the matrix count as satisfying members: a selected
// id the matrix has never heard of is treated as never satisfiable rather
// than crashing the check.
//
// An empty NeedsAny group is vacuously satisfied: the author expressed no
// constraint, and treating it as unmet would permanently disable the
// declaring skill with no actionable message.
func (g RequirementGroup) Satisfied(selected map[string]bool, m *Matrix) bool {
	if g.NeedsAny {
		if len(g.SkillIDs) == 0 {
			return true
		}
		for _, id := range g.SkillIDs {
			if selected[id] && m.Has(id) {
				return true
			}
		}
		return false
	}
	for _, id := range g.SkillIDs {
		if !selected[id] || !m.Has(id) {
			return false
		}
	}
	return true
}

// MissingIDs returns the listed ids that keep the group unmet. For an AND
// group these are the absent members; for an unmet OR group every listed id
// is reported, since any one of them would do.
func (g RequirementGroup) MissingIDs(selected map[string]bool, m *Matrix) []string {
	if g.NeedsAny {
		if g.Satisfied(selected, m) {
			return nil
		}
		return append([]string(nil), g.SkillIDs...)
	}
	var missing []string
	for _, id := range g.SkillIDs {
		if !selected[id] || !m.Has(id) {
			missing = append(missing, id)
		}
	}
	return missing
}

// Skill is one canonical matrix entry after the multi-source merge.
type Skill struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Category    string `yaml:"category" json:"category"`

	ConflictsWith []Relation         `yaml:"conflicts_with,omitempty" json:"conflictsWith,omitempty"`
	Requires      []RequirementGroup `yaml:"requires,omitempty" json:"requires,omitempty"`
	Recommends    []Relation         `yaml:"recommends,omitempty" json:"recommends,omitempty"`
	Discourages   []Relation         `yaml:"discourages,omitempty" json:"discourages,omitempty"`
	Alternatives  []string           `yaml:"alternatives,omitempty" json:"alternatives,omitempty"`

	// ProvidesSetupFor marks a setup-only skill that is only useful
	// alongside the listed usage skills.
	ProvidesSetupFor []string `yaml:"provides_setup_for,omitempty" json:"providesSetupFor,omitempty"`

	// Multi-source annotations, populated by the merge. AvailableSources
	// preserves source declaration order; ActiveSource points at one of its
	// entries.
	AvailableSources []SkillSource `yaml:"-" json:"availableSources,omitempty"`
	ActiveSource     *SkillSource  `yaml:"-" json:"activeSource,omitempty"`
}

// ConflictWith returns the declared conflict relation naming other, if any.
func (s *Skill) ConflictWith(other string) (Relation, bool) {
	for _, rel := range s.ConflictsWith {
		if rel.SkillID == other {
			return rel, true
		}
	}
	return Relation{}, false
}

// DiscourageOf returns the declared discouragement naming other, if any.
func (s *Skill) DiscourageOf(other string) (Relation, bool) {
	for _, rel := range s.Discourages {
		if rel.SkillID == other {
			return rel, true
		}
	}
	return Relation{}, false
}

// RecommendOf returns the declared recommendation naming other, if any.
func (s *Skill) RecommendOf(other string) (Relation, bool) {
	for _, rel := range s.Recommends {
		if rel.SkillID == other {
			return rel, true
		}
	}
	return Relation{}, false
}

// Category groups related skills. An exclusive category allows at most one
// selected member.
type Category struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	Exclusive bool   `yaml:"exclusive,omitempty" json:"exclusive,omitempty"`
	Required  bool   `yaml:"required,omitempty" json:"required,omitempty"`
}

// Matrix is the merged, immutable skill matrix. Relationship targets are not
// guaranteed to exist in Skills; consumers must tolerate dangling references
// by treating them as never satisfiable.
type Matrix struct {
	Skills     map[string]*Skill
	Categories map[string]Category

	displayNameToID map[string]string
}

// Has reports whether id names a known skill.
func (m *Matrix) Has(id string) bool {
	_, ok := m.Skills[id]
	return ok
}

// Skill returns the entry for id, or nil if unknown.
func (m *Matrix) Skill(id string) *Skill {
	return m.Skills[id]
}

// DisplayName returns the display name for id, falling back to the id itself
// for skills the matrix does not know about.
func (m *Matrix) DisplayName(id string) string {
	if s, ok := m.Skills[id]; ok && s.Name != "" {
		return s.Name
	}
	return id
}

// Resolve maps a display name to its canonical skill id. Values that are not
// display names (including ids that are already canonical) pass through
// unchanged, so Resolve is idempotent and safe to apply everywhere.
func (m *Matrix) Resolve(nameOrID string) string {
	if id, ok := m.displayNameToID[nameOrID]; ok {
		return id
	}
	return nameOrID
}

// ResolveAll resolves every entry of nameOrIDs, preserving order and
// dropping duplicates after resolution.
func (m *Matrix) ResolveAll(nameOrIDs []string) []string {
	resolved := make([]string, 0, len(nameOrIDs))
	seen := make(map[string]bool, len(nameOrIDs))
	for _, raw := range nameOrIDs {
		id := m.Resolve(raw)
		if seen[id] {
			continue
		}
		seen[id] = true
		resolved = append(resolved, id)
	}
	return resolved
}

// ResolveSet resolves nameOrIDs and returns them as a membership set.
func (m *Matrix) ResolveSet(nameOrIDs []string) map[string]bool {
	set := make(map[string]bool, len(nameOrIDs))
	for _, raw := range nameOrIDs {
		set[m.Resolve(raw)] = true
	}
	return set
}
