// Package stacks loads predefined stack templates: named selections of
// skills with per-category preload flags and the agents that consume them.
// Templates are plain YAML files in configured stack directories; loading is
// memoized through an explicit Cache owned by the caller, never a package
// global.
package stacks

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/stackforge/stackforge/pkg/compile"
	"github.com/stackforge/stackforge/pkg/logger"
)

// StackSkill is one skill entry in a stack template. Preloaded carries an
// explicit eager-loading flag that survives into the compiled config.
type StackSkill struct {
	ID        string `yaml:"id" json:"id" jsonschema:"required"`
	Preloaded bool   `yaml:"preloaded,omitempty" json:"preloaded,omitempty"`
}

// Stack is a predefined selection template.
type Stack struct {
	Name        string                  `yaml:"name" json:"name" jsonschema:"required,description=Stack template name"`
	Description string                  `yaml:"description,omitempty" json:"description,omitempty"`
	Agents      []string                `yaml:"agents" json:"agents" jsonschema:"description=Agent ids consuming this stack"`
	Skills      map[string][]StackSkill `yaml:"skills" json:"skills" jsonschema:"description=Skill entries keyed by category id"`

	// Allow restricts which skills a wizard may add on top of this stack;
	// glob patterns over skill ids, empty means no restriction.
	Allow []string `yaml:"allow,omitempty" json:"allow,omitempty"`

	allowGlobs []glob.Glob
}

// Allows reports whether the stack's allowlist permits the skill id. An
// empty allowlist permits everything.
func (s *Stack) Allows(skillID string) bool {
	if len(s.allowGlobs) == 0 {
		return true
	}
	for _, g := range s.allowGlobs {
		if g.Match(skillID) {
			return true
		}
	}
	return false
}

// SelectedSkills returns the ids of every skill the template names, in
// stable order.
func (s *Stack) SelectedSkills() []string {
	var ids []string
	for _, entries := range s.Skills {
		for _, e := range entries {
			ids = append(ids, e.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

// AgentConfigs expands the template into a compile.Config: every agent the
// stack names gets the template's per-category assignments, explicit preload
// flags preserved verbatim.
func (s *Stack) AgentConfigs() compile.Config {
	return s.ConfigFor(s.Agents)
}

// ConfigFor expands the template's assignments onto the given agent list
// instead of the stack's own, explicit preload flags preserved verbatim.
func (s *Stack) ConfigFor(agents []string) compile.Config {
	perCategory := make(compile.StackAgentConfig, len(s.Skills))
	for category, entries := range s.Skills {
		assignments := make([]compile.SkillAssignment, 0, len(entries))
		for _, e := range entries {
			assignments = append(assignments, compile.SkillAssignment{ID: e.ID, Preloaded: e.Preloaded})
		}
		perCategory[category] = assignments
	}

	config := make(compile.Config, len(agents))
	for _, agent := range agents {
		config[agent] = perCategory
	}
	// Deep-copy so agents do not share assignment slices.
	return compile.BuildStackProperty(config)
}

// Cache memoizes stacks loaded per directory. It performs no locking; under
// a single-threaded caller none is needed, and concurrent callers must hand
// each goroutine its own Cache.
type Cache struct {
	byDir map[string][]*Stack
}

// NewCache creates an empty stack cache.
func NewCache() *Cache {
	return &Cache{byDir: make(map[string][]*Stack)}
}

// Load returns every stack template in dir, reading the directory at most
// once per Cache lifetime.
func (c *Cache) Load(ctx context.Context, dir string) ([]*Stack, error) {
	if stacks, ok := c.byDir[dir]; ok {
		return stacks, nil
	}

	stacks, err := loadDir(ctx, dir)
	if err != nil {
		return nil, err
	}
	c.byDir[dir] = stacks
	return stacks, nil
}

// Get returns the named stack from dir, or an error listing the available
// stack names.
func (c *Cache) Get(ctx context.Context, dir, name string) (*Stack, error) {
	stacks, err := c.Load(ctx, dir)
	if err != nil {
		return nil, err
	}

	available := make([]string, 0, len(stacks))
	for _, s := range stacks {
		if s.Name == name {
			return s, nil
		}
		available = append(available, s.Name)
	}
	sort.Strings(available)
	return nil, errors.Errorf("stack %q not found (available stacks: %s)", name, strings.Join(available, ", "))
}

func loadDir(ctx context.Context, dir string) ([]*Stack, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.G(ctx).WithField("dir", dir).Debug("Stack directory not found")
		return nil, nil
	}

	var stacks []*Stack
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}

		path := filepath.Join(dir, name)
		stack, err := loadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load stack %q", path)
		}
		stacks = append(stacks, stack)
	}

	sort.Slice(stacks, func(i, j int) bool { return stacks[i].Name < stacks[j].Name })
	logger.G(ctx).WithField("dir", dir).WithField("count", len(stacks)).Debug("Loaded stacks")
	return stacks, nil
}

func loadFile(path string) (*Stack, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read stack file")
	}

	var stack Stack
	if err := yaml.Unmarshal(content, &stack); err != nil {
		return nil, errors.Wrap(err, "failed to parse stack file")
	}
	if stack.Name == "" {
		stack.Name = strings.TrimSuffix(strings.TrimSuffix(filepath.Base(path), ".yaml"), ".yml")
	}

	for _, pattern := range stack.Allow {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid allow pattern %q", pattern)
		}
		stack.allowGlobs = append(stack.allowGlobs, g)
	}

	return &stack, nil
}
