// Package sources loads raw skill and category definitions from configured
// source directories. A source is a directory carrying a source.yaml index
// (identity plus relationship declarations) and per-skill SKILL.md documents
// with YAML frontmatter. The distinguished "public" source is always
// present, even with zero configured sources.
package sources

import "github.com/stackforge/stackforge/pkg/matrix"

// Definition is the source.yaml index document at a source's root.
type Definition struct {
	Name        string `yaml:"name" json:"name" jsonschema:"required,description=Unique source name"`
	Kind        string `yaml:"kind" json:"kind" jsonschema:"enum=public,enum=private,description=Source kind"`
	URL         string `yaml:"url,omitempty" json:"url,omitempty" jsonschema:"description=Origin repository URL"`
	InstallMode string `yaml:"install_mode,omitempty" json:"install_mode,omitempty" jsonschema:"description=How skill content is materialized locally"`

	Categories []matrix.Category `yaml:"categories,omitempty" json:"categories,omitempty" jsonschema:"description=Categories this source declares"`
	Skills     []SkillIndexEntry `yaml:"skills,omitempty" json:"skills,omitempty" jsonschema:"description=Per-skill relationship declarations"`
}

// SkillIndexEntry carries the relationship declarations for one skill id.
// Display name, description, and category come from the skill's SKILL.md
// document; the index only records how the skill relates to others.
type SkillIndexEntry struct {
	ID string `yaml:"id" json:"id" jsonschema:"required,description=Canonical skill id within this source"`

	ConflictsWith    []matrix.Relation         `yaml:"conflicts_with,omitempty" json:"conflicts_with,omitempty"`
	Requires         []matrix.RequirementGroup `yaml:"requires,omitempty" json:"requires,omitempty"`
	Recommends       []matrix.Relation         `yaml:"recommends,omitempty" json:"recommends,omitempty"`
	Discourages      []matrix.Relation         `yaml:"discourages,omitempty" json:"discourages,omitempty"`
	Alternatives     []string                  `yaml:"alternatives,omitempty" json:"alternatives,omitempty"`
	ProvidesSetupFor []string                  `yaml:"provides_setup_for,omitempty" json:"provides_setup_for,omitempty"`
}
