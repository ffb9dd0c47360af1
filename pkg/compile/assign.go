// Package compile turns a validated skill selection into a per-agent
// assignment map and drives the selection-to-package pipeline: validation
// gate, assignment build, content hashing, version transition, and manifest
// output.
package compile

import (
	"context"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/stackforge/stackforge/pkg/logger"
	"github.com/stackforge/stackforge/pkg/matrix"
)

// SkillAssignment binds one skill to an agent bucket. Preloaded marks the
// skill for eager inclusion rather than on-demand loading.
type SkillAssignment struct {
	ID        string `yaml:"id" json:"id"`
	Preloaded bool   `yaml:"preloaded" json:"preloaded"`
}

// StackAgentConfig is one agent's assignments, keyed by category id.
type StackAgentConfig map[string][]SkillAssignment

// Config is a compiled configuration: every agent's StackAgentConfig, keyed
// by agent id.
type Config map[string]StackAgentConfig

// Agent is an agent definition as supplied by the caller.
type Agent struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// keyCategories are the categories representing a project's primary
// framework, platform, and database choices; assignments under them are
// preloaded when resolving from a stack template.
var keyCategories = map[string]bool{
	"framework": true,
	"platform":  true,
	"database":  true,
}

// GenerateConfigFromSkills builds the assignment map for a freeform
// selection: every agent in agents gets every selected skill under its
// category key, not preloaded. Which agents need which skills is the
// caller's decision; this path fans every skill out to the whole list.
//
// Selected skills absent from the matrix are skipped rather than failing:
// the skill may simply not be installed locally yet. Found and skipped
// counts are logged for observability.
func GenerateConfigFromSkills(ctx context.Context, selections []string, m *matrix.Matrix, agents []string) Config {
	resolved := m.ResolveAll(selections)

	config := make(Config, len(agents))
	for _, agent := range agents {
		config[agent] = make(StackAgentConfig)
	}

	found, skipped := 0, 0
	for _, id := range resolved {
		skill := m.Skill(id)
		if skill == nil {
			skipped++
			logger.G(ctx).WithField("skill", id).Debug("Skill not found in matrix, skipping assignment")
			continue
		}
		if skill.Category == "" {
			skipped++
			logger.G(ctx).WithField("skill", id).Debug("Skill has no category, skipping assignment")
			continue
		}
		found++
		for _, agent := range agents {
			config[agent][skill.Category] = append(config[agent][skill.Category], SkillAssignment{ID: id})
		}
	}

	logger.G(ctx).WithField("found", found).WithField("skipped", skipped).Info("Generated agent skill assignments")
	return config
}

// MergeSelection fans extra selected skills into an existing config: every
// agent in agents gains each skill under its category key, not preloaded.
// A skill an agent already carries keeps its existing assignment, preload
// flag included. Unknown and uncategorized skills are skipped and counted,
// never an error. The input config is not mutated.
func MergeSelection(ctx context.Context, config Config, selections []string, m *matrix.Matrix, agents []string) Config {
	merged := BuildStackProperty(config)
	for _, agent := range agents {
		if merged[agent] == nil {
			merged[agent] = make(StackAgentConfig)
		}
	}

	resolved := m.ResolveAll(selections)
	found, skipped := 0, 0
	for _, id := range resolved {
		skill := m.Skill(id)
		if skill == nil || skill.Category == "" {
			skipped++
			logger.G(ctx).WithField("skill", id).Debug("Skill unknown or uncategorized, skipping merge")
			continue
		}
		found++
		for _, agent := range agents {
			if hasAssignment(merged[agent], id) {
				continue
			}
			merged[agent][skill.Category] = append(merged[agent][skill.Category], SkillAssignment{ID: id})
		}
	}

	logger.G(ctx).WithField("found", found).WithField("skipped", skipped).Info("Merged extra skills into agent assignments")
	return merged
}

func hasAssignment(cfg StackAgentConfig, id string) bool {
	for _, assignments := range cfg {
		for _, a := range assignments {
			if a.ID == id {
				return true
			}
		}
	}
	return false
}

// GenerateConfigFromCategoryTable is the simpler single-source path: a
// static table maps each category to the agents that may use its skills, and
// every selected skill is assigned only to the agents its category maps to.
func GenerateConfigFromCategoryTable(ctx context.Context, selections []string, m *matrix.Matrix, table map[string][]string) Config {
	resolved := m.ResolveAll(selections)

	config := make(Config)
	found, skipped := 0, 0
	for _, id := range resolved {
		skill := m.Skill(id)
		if skill == nil {
			skipped++
			continue
		}
		found++
		for _, agent := range table[skill.Category] {
			if config[agent] == nil {
				config[agent] = make(StackAgentConfig)
			}
			config[agent][skill.Category] = append(config[agent][skill.Category], SkillAssignment{ID: id})
		}
	}

	logger.G(ctx).WithField("found", found).WithField("skipped", skipped).Info("Generated agent skill assignments from category table")
	return config
}

// BuildStackProperty copies a stack template's agent configs, preserving
// every existing assignment verbatim, including explicit preload flags.
func BuildStackProperty(existing Config) Config {
	built := make(Config, len(existing))
	for agent, agentCfg := range existing {
		copied := make(StackAgentConfig, len(agentCfg))
		for category, assignments := range agentCfg {
			copied[category] = append([]SkillAssignment(nil), assignments...)
		}
		built[agent] = copied
	}
	return built
}

// ResolveAgentSkillsFromStack reduces a stack template's agent configs
// against the matrix and applies the preload policy: assignments under key
// categories are preloaded, everything else keeps its explicit flag or
// defaults to false. Skills the matrix does not know are skipped and
// counted, never an error.
func ResolveAgentSkillsFromStack(ctx context.Context, stackCfg Config, m *matrix.Matrix) Config {
	resolved := make(Config, len(stackCfg))
	found, skipped := 0, 0

	for agent, agentCfg := range stackCfg {
		resolvedCfg := make(StackAgentConfig, len(agentCfg))
		for category, assignments := range agentCfg {
			for _, a := range assignments {
				id := m.Resolve(a.ID)
				if !m.Has(id) {
					skipped++
					logger.G(ctx).WithField("skill", a.ID).WithField("agent", agent).Debug("Stack skill not found in matrix, skipping")
					continue
				}
				found++
				resolvedCfg[category] = append(resolvedCfg[category], SkillAssignment{
					ID:        id,
					Preloaded: a.Preloaded || keyCategories[category],
				})
			}
		}
		resolved[agent] = resolvedCfg
	}

	logger.G(ctx).WithField("found", found).WithField("skipped", skipped).Info("Resolved agent skills from stack")
	return resolved
}

// ResolveAgents checks that every agent referenced by the compiled config
// has a definition. A missing agent is fatal and the error lists the
// available agent ids for diagnosability.
func ResolveAgents(config Config, definitions map[string]Agent) error {
	available := make([]string, 0, len(definitions))
	for id := range definitions {
		available = append(available, id)
	}
	sort.Strings(available)

	referenced := make([]string, 0, len(config))
	for agent := range config {
		referenced = append(referenced, agent)
	}
	sort.Strings(referenced)

	var result *multierror.Error
	for _, agent := range referenced {
		if _, ok := definitions[agent]; !ok {
			result = multierror.Append(result, errors.Errorf(
				"agent %q has no definition (available agents: %s)",
				agent, strings.Join(available, ", ")))
		}
	}
	return result.ErrorOrNil()
}
