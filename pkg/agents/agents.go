// Package agents loads agent definitions from markdown files with YAML
// frontmatter. An agent is a named bundle consuming skills by category; the
// definitions resolved here back the compile step's agent check.
package agents

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"

	"github.com/stackforge/stackforge/pkg/compile"
	"github.com/stackforge/stackforge/pkg/logger"
)

// Processor loads agent definitions from configured directories.
type Processor struct {
	agentDirs []string
}

// Option configures a Processor.
type Option func(*Processor) error

// WithAgentDirs sets custom agent directories
func WithAgentDirs(dirs ...string) Option {
	return func(p *Processor) error {
		if len(dirs) == 0 {
			return errors.New("at least one agent directory must be specified")
		}
		p.agentDirs = dirs
		return nil
	}
}

// WithDefaultDirs sets the default agent directories
func WithDefaultDirs() Option {
	return func(p *Processor) error {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to get user home directory")
		}
		p.agentDirs = []string{
			"./.stackforge/agents", // Repo-local (higher precedence)
			filepath.Join(homeDir, ".stackforge", "agents"), // User-global
		}
		return nil
	}
}

// NewProcessor creates an agent processor
func NewProcessor(opts ...Option) (*Processor, error) {
	p := &Processor{}

	if len(opts) == 0 {
		if err := WithDefaultDirs()(p); err != nil {
			return nil, err
		}
		return p, nil
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// LoadAll returns every agent definition keyed by id. Earlier directories
// shadow later ones.
func (p *Processor) LoadAll(ctx context.Context) (map[string]compile.Agent, error) {
	definitions := make(map[string]compile.Agent)

	for _, dir := range p.agentDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			logger.G(ctx).WithField("dir", dir).Debug("Agent directory not found, skipping")
			continue
		}

		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !strings.HasSuffix(name, ".md") {
				continue
			}

			agent, err := loadAgent(filepath.Join(dir, name))
			if err != nil {
				logger.G(ctx).WithField("file", name).WithError(err).Warn("Failed to load agent, skipping")
				continue
			}
			if _, exists := definitions[agent.ID]; !exists {
				definitions[agent.ID] = agent
			}
		}
	}

	logger.G(ctx).WithField("count", len(definitions)).Debug("Loaded agents")
	return definitions, nil
}

// IDs returns the sorted ids of all loaded agents.
func (p *Processor) IDs(ctx context.Context) ([]string, error) {
	definitions, err := p.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(definitions))
	for id := range definitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func loadAgent(path string) (compile.Agent, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return compile.Agent{}, errors.Wrap(err, "failed to read agent file")
	}

	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return compile.Agent{}, errors.Wrap(err, "failed to parse markdown")
	}

	metaData := meta.Get(pctx)
	if metaData == nil {
		return compile.Agent{}, errors.New("missing frontmatter")
	}

	id, _ := metaData["id"].(string)
	name, _ := metaData["name"].(string)
	description, _ := metaData["description"].(string)

	if id == "" {
		id = strings.TrimSuffix(filepath.Base(path), ".md")
	}
	if name == "" {
		name = id
	}

	return compile.Agent{ID: id, Name: name, Description: description}, nil
}
