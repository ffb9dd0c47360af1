// Package pkgversion assigns content-addressed, monotonic versions to
// compiled packages. Versioning is a pure function of the new content hash
// and the previously recorded state, independent of wall-clock time, so
// builds are reproducible and trivially testable.
package pkgversion

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DefaultVersion is assigned to a package with no previously recorded state.
const DefaultVersion = "1.0.0"

// State is the persisted versioning record for one package: a semver-like
// "major.0.0" version and the content hash it was assigned for.
type State struct {
	Version     string `json:"version" yaml:"version"`
	ContentHash string `json:"contentHash" yaml:"contentHash"`
}

// ContentHash computes a deterministic fingerprint of a package's logical
// content. Skill and agent ids are sorted so the hash is independent of
// selection order; the digest algorithm itself is not load-bearing, only
// determinism across runs.
func ContentHash(name, description string, skillIDs, agentIDs []string) string {
	skills := append([]string(nil), skillIDs...)
	agents := append([]string(nil), agentIDs...)
	sort.Strings(skills)
	sort.Strings(agents)

	canonical := strings.Join([]string{
		"name=" + name,
		"description=" + description,
		"skills=" + strings.Join(skills, ","),
		"agents=" + strings.Join(agents, ","),
	}, "\n")

	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// Next computes the version for newHash given the previously recorded state.
// No prior state assigns DefaultVersion; an unchanged hash keeps the prior
// version; a changed hash bumps only the major component. Minor and patch
// are never tracked.
func Next(prev *State, newHash string) (State, error) {
	if prev == nil {
		return State{Version: DefaultVersion, ContentHash: newHash}, nil
	}
	if prev.ContentHash == newHash {
		return *prev, nil
	}

	major, err := majorOf(prev.Version)
	if err != nil {
		return State{}, errors.Wrapf(err, "previous version %q is not a valid package version", prev.Version)
	}
	return State{
		Version:     fmt.Sprintf("%d.0.0", major+1),
		ContentHash: newHash,
	}, nil
}

func majorOf(version string) (int, error) {
	head, _, _ := strings.Cut(version, ".")
	major, err := strconv.Atoi(head)
	if err != nil {
		return 0, errors.Wrap(err, "failed to parse major component")
	}
	if major < 1 {
		return 0, errors.Errorf("major component must be positive, got %d", major)
	}
	return major, nil
}
