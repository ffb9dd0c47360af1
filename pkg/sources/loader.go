package sources

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
	"gopkg.in/yaml.v3"

	"github.com/stackforge/stackforge/pkg/logger"
	"github.com/stackforge/stackforge/pkg/matrix"
)

const (
	indexFileName   = "source.yaml"
	skillFileName   = "SKILL.md"
	installedMarker = ".installed"
	skillGlob       = "skills/**/" + skillFileName
)

// Loader discovers sources under configured root directories.
type Loader struct {
	sourceDirs []string
}

// Option is a function that configures a Loader
type Option func(*Loader) error

// WithSourceDirs sets custom source root directories
func WithSourceDirs(dirs ...string) Option {
	return func(l *Loader) error {
		if len(dirs) == 0 {
			return errors.New("at least one source directory must be specified")
		}
		l.sourceDirs = dirs
		return nil
	}
}

// WithDefaultDirs initializes with the default source root directories
func WithDefaultDirs() Option {
	return func(l *Loader) error {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to get user home directory")
		}
		l.sourceDirs = []string{
			"./.stackforge/sources", // Repo-local (higher precedence)
			filepath.Join(homeDir, ".stackforge", "sources"), // User-global
		}
		return nil
	}
}

// NewLoader creates a new source loader
func NewLoader(opts ...Option) (*Loader, error) {
	l := &Loader{}

	if len(opts) == 0 {
		if err := WithDefaultDirs()(l); err != nil {
			return nil, err
		}
		return l, nil
	}

	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// LoadAll loads every configured source in order: the public source first,
// then the remaining sources per root, alphabetically within each root. The
// public source is synthesized (empty, not installed) when no directory
// declares it, so downstream code can always rely on its presence.
func (l *Loader) LoadAll(ctx context.Context) ([]matrix.RawSource, error) {
	var loaded []matrix.RawSource
	seen := make(map[string]bool)

	for _, root := range l.sourceDirs {
		entries, err := os.ReadDir(root)
		if err != nil {
			logger.G(ctx).WithField("dir", root).Debug("Source root not found, skipping")
			continue
		}

		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() {
				names = append(names, entry.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			dir := filepath.Join(root, name)
			if _, err := os.Stat(filepath.Join(dir, indexFileName)); err != nil {
				continue
			}

			src, err := l.loadSource(ctx, dir)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to load source at %q", dir)
			}
			if seen[src.Source.Name] {
				logger.G(ctx).WithField("source", src.Source.Name).Debug("Source already loaded from a higher-precedence root, skipping")
				continue
			}
			seen[src.Source.Name] = true
			loaded = append(loaded, *src)
		}
	}

	if !seen[matrix.PublicSourceName] {
		loaded = append(loaded, matrix.RawSource{
			Source: matrix.SkillSource{
				Name: matrix.PublicSourceName,
				Kind: matrix.SourceKindPublic,
			},
		})
	}

	// Public first, remaining declaration order preserved.
	sort.SliceStable(loaded, func(i, j int) bool {
		return loaded[i].Source.Name == matrix.PublicSourceName && loaded[j].Source.Name != matrix.PublicSourceName
	})

	logger.G(ctx).WithField("count", len(loaded)).Info("Loaded sources")
	return loaded, nil
}

// loadSource reads one source directory: the source.yaml index, the
// installed marker, and every SKILL.md document under skills/.
func (l *Loader) loadSource(ctx context.Context, dir string) (*matrix.RawSource, error) {
	indexBytes, err := os.ReadFile(filepath.Join(dir, indexFileName))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read source index")
	}

	var def Definition
	if err := yaml.Unmarshal(indexBytes, &def); err != nil {
		return nil, errors.Wrap(err, "failed to parse source index")
	}
	if def.Name == "" {
		def.Name = filepath.Base(dir)
	}
	if def.Kind == "" {
		def.Kind = matrix.SourceKindPrivate
	}

	installed := false
	if _, err := os.Stat(filepath.Join(dir, installedMarker)); err == nil {
		installed = true
	}

	source := matrix.SkillSource{
		Name:        def.Name,
		Kind:        def.Kind,
		URL:         def.URL,
		Installed:   installed,
		InstallMode: def.InstallMode,
	}

	indexByID := make(map[string]SkillIndexEntry, len(def.Skills))
	for _, entry := range def.Skills {
		indexByID[entry.ID] = entry
	}

	skills, err := l.loadSkillDocs(ctx, dir, indexByID)
	if err != nil {
		return nil, err
	}

	// Index entries without a SKILL.md still declare a skill; they just
	// carry no display content.
	docIDs := make(map[string]bool, len(skills))
	for _, s := range skills {
		docIDs[s.ID] = true
	}
	for _, entry := range def.Skills {
		if !docIDs[entry.ID] {
			skills = append(skills, skillFromIndex(entry, matrix.Skill{ID: entry.ID, Name: entry.ID}))
		}
	}

	return &matrix.RawSource{
		Source:     source,
		Categories: def.Categories,
		Skills:     skills,
	}, nil
}

func (l *Loader) loadSkillDocs(ctx context.Context, dir string, index map[string]SkillIndexEntry) ([]*matrix.Skill, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), skillGlob)
	if err != nil {
		return nil, errors.Wrap(err, "failed to glob skill documents")
	}
	sort.Strings(matches)

	var skills []*matrix.Skill
	for _, match := range matches {
		path := filepath.Join(dir, filepath.FromSlash(match))
		skill, err := loadSkillDoc(path)
		if err != nil {
			logger.G(ctx).WithField("path", path).WithError(err).Warn("Failed to load skill document, skipping")
			continue
		}
		skills = append(skills, skill)
	}
	return applyIndex(skills, index), nil
}

func applyIndex(skills []*matrix.Skill, index map[string]SkillIndexEntry) []*matrix.Skill {
	merged := make([]*matrix.Skill, 0, len(skills))
	for _, s := range skills {
		if entry, ok := index[s.ID]; ok {
			merged = append(merged, skillFromIndex(entry, *s))
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

func skillFromIndex(entry SkillIndexEntry, base matrix.Skill) *matrix.Skill {
	base.ConflictsWith = entry.ConflictsWith
	base.Requires = entry.Requires
	base.Recommends = entry.Recommends
	base.Discourages = entry.Discourages
	base.Alternatives = entry.Alternatives
	base.ProvidesSetupFor = entry.ProvidesSetupFor
	return &base
}

// loadSkillDoc parses one SKILL.md document: YAML frontmatter with id,
// display name, description, and category.
func loadSkillDoc(path string) (*matrix.Skill, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse markdown")
	}

	metaData := meta.Get(pctx)
	if metaData == nil {
		return nil, errors.New("missing frontmatter")
	}

	id, _ := metaData["id"].(string)
	name, _ := metaData["name"].(string)
	description, _ := metaData["description"].(string)
	category, _ := metaData["category"].(string)

	if id == "" {
		return nil, errors.New("skill id is required in frontmatter")
	}
	if name == "" {
		name = id
	}

	return &matrix.Skill{
		ID:          id,
		Name:        name,
		Description: description,
		Category:    category,
	}, nil
}
