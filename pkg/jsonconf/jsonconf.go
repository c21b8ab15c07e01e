// Package jsonconf loads and saves JSON documents and configuration files.
//
// Configuration files may be written in JSON or YAML; the format is chosen
// from the file extension. Persisted documents (runlogs, persistent state)
// are always JSON.
package jsonconf

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sigs.k8s.io/yaml"
)

// ErrNotFound is returned when a non-silent load targets a missing path.
var ErrNotFound = errors.New("not found")

// ConfigLoad reads the configuration file at path. A missing file yields an
// empty map when silent is set and ErrNotFound otherwise.
func ConfigLoad(path string, silent bool) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if silent {
				return map[string]interface{}{}, nil
			}
			return nil, fmt.Errorf("configuration file %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}
	return decodeConfig(path, data)
}

// ConfigLoadDir reads every configuration file in dir in lexical order and
// merges them, later files overriding earlier ones key by key. Hidden files
// and subdirectories are skipped.
func ConfigLoadDir(dir string, silent bool) (map[string]interface{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if silent {
				return map[string]interface{}{}, nil
			}
			return nil, fmt.Errorf("configuration directory %s: %w", dir, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read configuration directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	merged := map[string]interface{}{}
	for _, name := range names {
		cfg, err := ConfigLoad(filepath.Join(dir, name), false)
		if err != nil {
			return nil, err
		}
		for k, v := range cfg {
			if v == nil {
				continue
			}
			merged[k] = v
		}
	}
	return merged, nil
}

func decodeConfig(path string, data []byte) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return out, nil
	}

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &out)
	default:
		err = json.Unmarshal(data, &out)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %s: %w", path, err)
	}
	return out, nil
}

// Load reads the JSON document at path into v.
func Load(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Save writes v to path as indented JSON. The parent directory must exist.
// The document is written to a temporary file and renamed into place, so
// path holds either the previous or the new content.
func Save(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	data = append(data, '\n')
	err = writeAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writeAtomic(path string, write func(w io.Writer) error) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := write(tmpFile); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write content: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("sync file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename to final: %w", err)
	}
	success = true
	return nil
}

// Dump renders v as indented JSON with sorted map keys.
func Dump(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
