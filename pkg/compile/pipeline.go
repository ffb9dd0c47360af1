package compile

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/stackforge/stackforge/pkg/constraints"
	"github.com/stackforge/stackforge/pkg/logger"
	"github.com/stackforge/stackforge/pkg/matrix"
	"github.com/stackforge/stackforge/pkg/pkgversion"
)

// Manifest is the record written alongside a compiled package.
type Manifest struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Description string   `yaml:"description,omitempty"`
	BuildID     string   `yaml:"build_id"`
	Skills      []string `yaml:"skills"`
	Agents      Config   `yaml:"agents"`
}

// Request describes one package to compile.
type Request struct {
	Name        string
	Description string
	Skills      []string // raw selection, display names allowed
	Agents      []string

	// Config carries prebuilt agent assignments, preload flags included.
	// When nil, Skills is fanned out to Agents with nothing preloaded.
	Config Config
}

// Result is the outcome of a successful compile.
type Result struct {
	Manifest   Manifest
	State      pkgversion.State
	Validation constraints.ValidationResult
}

// Compiler runs the selection-to-package pipeline against one matrix
// snapshot.
type Compiler struct {
	m      *matrix.Matrix
	engine *constraints.Engine
	store  *pkgversion.FileStore
}

// NewCompiler creates a Compiler over m, validating with engine and
// persisting version state through store.
func NewCompiler(m *matrix.Matrix, engine *constraints.Engine, store *pkgversion.FileStore) *Compiler {
	return &Compiler{m: m, engine: engine, store: store}
}

// Compile validates the selection, builds the assignment map, assigns a
// content-addressed version, and writes the manifest plus the sibling hash
// file. A prebuilt Request.Config is written through as-is, so stack
// template preload flags reach the manifest. Validation errors abort the
// compile; warnings are carried in the result for the caller to present.
func (c *Compiler) Compile(ctx context.Context, req Request) (*Result, error) {
	if req.Name == "" {
		return nil, errors.New("package name is required")
	}
	if len(req.Agents) == 0 {
		return nil, errors.New("at least one agent is required")
	}

	buildID := uuid.New().String()
	log := logger.G(ctx).WithField("package", req.Name).WithField("build_id", buildID)

	validation := c.engine.ValidateSelection(req.Skills)
	if !validation.Valid {
		var result *multierror.Error
		for _, verr := range validation.Errors {
			result = multierror.Append(result, errors.New(verr.Message))
		}
		return nil, errors.Wrap(result.ErrorOrNil(), "selection is not valid")
	}

	config := req.Config
	if config == nil {
		config = GenerateConfigFromSkills(ctx, req.Skills, c.m, req.Agents)
	}

	resolved := c.m.ResolveAll(req.Skills)
	skills := make([]string, 0, len(resolved))
	for _, id := range resolved {
		if c.m.Has(id) {
			skills = append(skills, id)
		}
	}
	sort.Strings(skills)

	agents := append([]string(nil), req.Agents...)
	sort.Strings(agents)

	hash := pkgversion.ContentHash(req.Name, req.Description, skills, agents)

	prev, err := c.store.Load(req.Name)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load previous version state")
	}

	state, err := pkgversion.Next(prev, hash)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute package version")
	}

	manifest := Manifest{
		Name:        req.Name,
		Version:     state.Version,
		Description: req.Description,
		BuildID:     buildID,
		Skills:      skills,
		Agents:      config,
	}

	manifestBytes, err := yaml.Marshal(&manifest)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal manifest")
	}
	if err := c.store.Save(req.Name, state, manifestBytes); err != nil {
		return nil, errors.Wrap(err, "failed to persist package")
	}

	log.WithField("version", state.Version).WithField("skills", len(skills)).Info("Compiled package")

	return &Result{
		Manifest:   manifest,
		State:      state,
		Validation: validation,
	}, nil
}
