package runlog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run", "demo")
	s := NewStore(dir)
	rl := New("demo", 123, []string{"demo"}, started)

	path, err := s.Save(rl)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20240115103045.00123.runlog"), path)
	assert.FileExists(t, path)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, rl.UID, loaded.UID)
	assert.Equal(t, rl.TSStr, loaded.TSStr)
}

func TestStore_List(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	for i := 0; i < 3; i++ {
		_, err := s.Save(New("demo", 100+i, nil, started.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"all newest first", 0, []string{"20240115103245.00102.runlog", "20240115103145.00101.runlog", "20240115103045.00100.runlog"}},
		{"limited", 2, []string{"20240115103245.00102.runlog", "20240115103145.00101.runlog"}},
		{"limit above count", 10, []string{"20240115103245.00102.runlog", "20240115103145.00101.runlog", "20240115103045.00100.runlog"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths, err := s.List(tt.limit)
			require.NoError(t, err)
			var names []string
			for _, p := range paths {
				names = append(names, filepath.Base(p))
			}
			assert.Equal(t, tt.want, names)
		})
	}

	latest, err := s.Latest()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(latest, "20240115103245.00102.runlog"))

	all, err := s.LoadAll(2)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 102, all[0].PID)
}

func TestStore_Empty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing"))

	paths, err := s.List(0)
	require.NoError(t, err)
	assert.Empty(t, paths)

	_, err = s.Latest()
	assert.True(t, errors.Is(err, ErrNoRunlogs))
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.runlog")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
