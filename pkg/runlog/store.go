package runlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"stagehand/pkg/jsonconf"
	"stagehand/pkg/logging"
)

// Extension is the file suffix of persisted runlogs.
const Extension = ".runlog"

// ErrNoRunlogs is returned when a runlog directory holds no runlogs.
var ErrNoRunlogs = errors.New("no runlogs available")

// Store persists runlogs as individual files in one directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the runlog directory.
func (s *Store) Dir() string {
	return s.dir
}

// FileName returns the path rl is saved under: <ts_fsf>.<pid>.runlog with
// the pid zero padded to five digits, so names sort chronologically.
func (s *Store) FileName(rl *Runlog) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.%05d%s", rl.TSFSF, rl.PID, Extension))
}

// Save writes rl, creating the runlog directory on demand.
func (s *Store) Save(rl *Runlog) (string, error) {
	if _, err := os.Stat(s.dir); errors.Is(err, os.ErrNotExist) {
		logging.Info("Runlog", "Creating runlog directory %s", s.dir)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create runlog directory %s: %w", s.dir, err)
	}

	path := s.FileName(rl)
	if err := jsonconf.Save(path, rl); err != nil {
		return "", err
	}
	logging.Info("Runlog", "Saved runlog to %s", path)
	return path, nil
}

// List returns runlog paths, most recent first. A positive limit caps the
// number of results. A missing directory yields an empty list.
func (s *Store) List(limit int) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*"+Extension))
	if err != nil {
		return nil, fmt.Errorf("failed to list runlogs in %s: %w", s.dir, err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	if limit > 0 && len(paths) > limit {
		paths = paths[:limit]
	}
	return paths, nil
}

// Latest returns the path of the most recent runlog.
func (s *Store) Latest() (string, error) {
	paths, err := s.List(1)
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("%s: %w", s.dir, ErrNoRunlogs)
	}
	return paths[0], nil
}

// LoadAll loads the runlogs returned by List.
func (s *Store) LoadAll(limit int) ([]*Runlog, error) {
	paths, err := s.List(limit)
	if err != nil {
		return nil, err
	}
	out := make([]*Runlog, 0, len(paths))
	for _, p := range paths {
		rl, err := Load(p)
		if err != nil {
			return nil, err
		}
		out = append(out, rl)
	}
	return out, nil
}

// Load reads the runlog at path.
func Load(path string) (*Runlog, error) {
	rl := &Runlog{}
	if err := jsonconf.Load(path, rl); err != nil {
		return nil, fmt.Errorf("failed to load runlog %s: %w", path, err)
	}
	return rl, nil
}
