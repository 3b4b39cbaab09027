package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pennywise-app/pennywise/internal/common"
)

// currentPointer is the well-known file naming the active artifact.
// Publishing rewrites it via rename, so readers see either the old
// pointer or the new one, never a partial write.
const currentPointer = "CURRENT"

var versionPattern = regexp.MustCompile(`^classifier_v(\d+)\.json$`)

// Store persists model artifacts under a single directory, one file per
// version, with an atomically swapped pointer to the active one.
type Store struct {
	dir string
}

// NewStore opens (creating if needed) an artifact store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: artifact directory is empty", common.ErrInvalidConfig)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Publish writes the artifact under the next version number and flips
// the active pointer to it. The artifact file lands via write-then-rename
// so a concurrent reader can never observe a half-written model, and the
// previously active version stays on disk untouched.
func (s *Store) Publish(a *Artifact) (string, error) {
	a.SchemaVersion = SchemaVersion
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	next, err := s.nextVersion()
	if err != nil {
		return "", err
	}
	a.Version = fmt.Sprintf("v%d", next)

	if err := a.Validate(); err != nil {
		return "", fmt.Errorf("refusing to publish invalid artifact: %w", err)
	}

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize artifact: %w", err)
	}

	name := fmt.Sprintf("classifier_v%d.json", next)
	if err := s.writeAtomic(name, data); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", name, err)
	}
	if err := s.writeAtomic(currentPointer, []byte(name+"\n")); err != nil {
		return "", fmt.Errorf("failed to activate artifact %s: %w", name, err)
	}

	slog.Info("Published model artifact",
		"version", a.Version,
		"mode", a.Mode,
		"classes", len(a.Classes),
		"vocabulary", len(a.Vocabulary))

	return a.Version, nil
}

// LoadActive reads and validates the currently active artifact.
// Returns common.ErrModelUnavailable when nothing has been published and
// common.ErrArtifactCorrupt when the stored file cannot be trusted.
func (s *Store) LoadActive() (*Artifact, error) {
	name, err := s.activeName()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: active artifact %s missing", common.ErrArtifactCorrupt, name)
		}
		return nil, fmt.Errorf("failed to read artifact %s: %w", name, err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrArtifactCorrupt, err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// ActiveVersion reports the version name of the active artifact.
func (s *Store) ActiveVersion() (string, error) {
	name, err := s.activeName()
	if err != nil {
		return "", err
	}
	m := versionPattern.FindStringSubmatch(name)
	if m == nil {
		return "", fmt.Errorf("%w: unrecognized artifact name %q", common.ErrArtifactCorrupt, name)
	}
	return "v" + m[1], nil
}

func (s *Store) activeName() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, currentPointer))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", common.ErrModelUnavailable
		}
		return "", fmt.Errorf("failed to read active artifact pointer: %w", err)
	}
	name := strings.TrimSpace(string(data))
	if name == "" {
		return "", fmt.Errorf("%w: empty artifact pointer", common.ErrArtifactCorrupt)
	}
	return name, nil
}

func (s *Store) nextVersion() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list artifact directory: %w", err)
	}
	next := 1
	for _, entry := range entries {
		m := versionPattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		if v, convErr := strconv.Atoi(m[1]); convErr == nil && v >= next {
			next = v + 1
		}
	}
	return next, nil
}

func (s *Store) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, filepath.Join(s.dir, name))
}
