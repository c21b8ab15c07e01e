// Package pstate persists application state between runs as a single JSON
// document.
package pstate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"stagehand/pkg/jsonconf"
	"stagehand/pkg/logging"
)

// State is the persistent state document.
type State map[string]interface{}

// Store reads and writes the state document at a fixed path.
type Store struct {
	path string
}

// NewStore creates a store for the document at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the state document.
func (s *Store) Path() string {
	return s.path
}

// Load reads the state document. A missing document yields an empty state.
func (s *Store) Load() (State, error) {
	state := State{}
	if err := jsonconf.Load(s.path, &state); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logging.Debug("PState", "No persistent state at %s, starting empty", s.path)
			return State{}, nil
		}
		return nil, fmt.Errorf("failed to load persistent state %s: %w", s.path, err)
	}
	if state == nil {
		state = State{}
	}
	logging.Debug("PState", "Loaded persistent state from %s", s.path)
	return state, nil
}

// Save writes state, creating the parent directory when needed.
func (s *Store) Save(state State) error {
	if state == nil {
		state = State{}
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", s.path, err)
	}
	if err := jsonconf.Save(s.path, state); err != nil {
		return err
	}
	logging.Info("PState", "Saved persistent state to %s", s.path)
	return nil
}

// Dump renders state as indented JSON.
func Dump(state State) string {
	if state == nil {
		state = State{}
	}
	return jsonconf.Dump(state)
}
