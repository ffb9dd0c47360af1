package pkgversion

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	manifestFileName = "PACKAGE.yaml"
	hashFileName     = ".contenthash"
)

// FileStore persists versioning state alongside compiled packages. Each
// package gets a directory under the store root holding the manifest written
// by the compile pipeline and a sibling file carrying the raw content hash
// string for the next comparison.
type FileStore struct {
	root string
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

// PackageDir returns the directory holding the named package's output.
func (s *FileStore) PackageDir(name string) string {
	return filepath.Join(s.root, name)
}

// Load reads the previously recorded state for the named package. A package
// that has never been compiled yields (nil, nil).
func (s *FileStore) Load(name string) (*State, error) {
	dir := s.PackageDir(name)

	hashBytes, err := os.ReadFile(filepath.Join(dir, hashFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read content hash for package %q", name)
	}

	manifestBytes, err := os.ReadFile(filepath.Join(dir, manifestFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read manifest for package %q", name)
	}

	var manifest struct {
		Version string `yaml:"version"`
	}
	if err := yaml.Unmarshal(manifestBytes, &manifest); err != nil {
		return nil, errors.Wrapf(err, "failed to parse manifest for package %q", name)
	}
	if manifest.Version == "" {
		return nil, errors.Errorf("manifest for package %q has no version", name)
	}

	return &State{
		Version:     manifest.Version,
		ContentHash: strings.TrimSpace(string(hashBytes)),
	}, nil
}

// Save writes the manifest and the sibling hash file for the named package.
func (s *FileStore) Save(name string, st State, manifest []byte) error {
	dir := s.PackageDir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create package directory %q", dir)
	}

	if err := os.WriteFile(filepath.Join(dir, manifestFileName), manifest, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write manifest for package %q", name)
	}
	if err := os.WriteFile(filepath.Join(dir, hashFileName), []byte(st.ContentHash+"\n"), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write content hash for package %q", name)
	}
	return nil
}
