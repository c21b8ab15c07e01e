package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/copystructure"

	"stagehand/pkg/identity"
)

// ErrFrozen is returned when modifying a configuration after setup.
var ErrFrozen = errors.New("configuration is frozen")

// LoggingCore holds the derived logging settings.
type LoggingCore struct {
	ToConsole    bool   `json:"to_console"`
	ToFile       bool   `json:"to_file"`
	ToJournal    bool   `json:"to_journal"`
	Level        string `json:"level"`
	LevelConsole string `json:"level_console"`
	LevelFile    string `json:"level_file"`
}

// PersistCore controls whether a persisted artifact is written.
type PersistCore struct {
	Save bool `json:"save"`
}

// Core is the framework namespace derived from the merged configuration.
type Core struct {
	Logging LoggingCore       `json:"logging"`
	Pstate  PersistCore       `json:"pstate"`
	Runlog  PersistCore       `json:"runlog"`
	User    *identity.Account `json:"user,omitempty"`
	Group   *identity.Account `json:"group,omitempty"`
}

// Map returns the core namespace as a generic document.
func (c Core) Map() map[string]interface{} {
	data, err := json.Marshal(c)
	if err != nil {
		return map[string]interface{}{}
	}
	out := map[string]interface{}{}
	_ = json.Unmarshal(data, &out)
	return out
}

// Configuration is the merged application configuration. Keys keep their
// insertion order. After Freeze every mutation fails with ErrFrozen.
type Configuration struct {
	keys   []string
	values map[string]interface{}
	core   Core
	frozen bool
}

// New creates an empty configuration.
func New() *Configuration {
	return &Configuration{values: map[string]interface{}{}}
}

// FromMap creates a configuration from m, inserting keys in sorted order.
func FromMap(m map[string]interface{}) *Configuration {
	c := New()
	for _, k := range sortedKeys(m) {
		c.set(k, m[k])
	}
	return c
}

// Set assigns value to key.
func (c *Configuration) Set(key string, value interface{}) error {
	if c.frozen {
		return fmt.Errorf("setting %q: %w", key, ErrFrozen)
	}
	c.set(key, value)
	return nil
}

func (c *Configuration) set(key string, value interface{}) {
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = copyValue(value)
}

// copyValue deep copies maps and slices so that no caller shares
// mutable state with the configuration.
func copyValue(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice:
	default:
		return v
	}
	cp, err := copystructure.Copy(v)
	if err != nil {
		return v
	}
	return cp
}

// Get returns a copy of the raw value for key.
func (c *Configuration) Get(key string) (interface{}, bool) {
	v, ok := c.values[key]
	return copyValue(v), ok
}

// Value returns a copy of the raw value for key or nil.
func (c *Configuration) Value(key string) interface{} {
	return copyValue(c.values[key])
}

// Has reports whether key holds a non-nil value.
func (c *Configuration) Has(key string) bool {
	return c.values[key] != nil
}

// String returns key as a string; nil values yield "".
func (c *Configuration) String(key string) string {
	switch v := c.values[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Bool returns key as a boolean.
func (c *Configuration) Bool(key string) bool {
	switch v := c.values[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	case int:
		return v != 0
	case float64:
		return v != 0
	default:
		return false
	}
}

// Int returns key as an integer; values that are not numeric yield 0.
func (c *Configuration) Int(key string) int {
	switch v := c.values[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	default:
		return 0
	}
}

// Keys returns the keys in insertion order.
func (c *Configuration) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Core returns a copy of the core namespace.
func (c *Configuration) Core() Core {
	core := c.core
	if core.User != nil {
		u := *core.User
		core.User = &u
	}
	if core.Group != nil {
		g := *core.Group
		core.Group = &g
	}
	return core
}

// SetCore replaces the core namespace.
func (c *Configuration) SetCore(core Core) error {
	if c.frozen {
		return fmt.Errorf("setting core: %w", ErrFrozen)
	}
	c.core = core
	return nil
}

// UpdateCore applies fn to the core namespace.
func (c *Configuration) UpdateCore(fn func(*Core)) error {
	if c.frozen {
		return fmt.Errorf("updating core: %w", ErrFrozen)
	}
	fn(&c.core)
	return nil
}

// Freeze makes the configuration read-only.
func (c *Configuration) Freeze() {
	c.frozen = true
}

// Frozen reports whether Freeze has been called.
func (c *Configuration) Frozen() bool {
	return c.frozen
}

// ToMap returns a copy of all values with the core namespace under KeyCore.
func (c *Configuration) ToMap() map[string]interface{} {
	out := make(map[string]interface{}, len(c.values)+1)
	for k, v := range c.values {
		out[k] = copyValue(v)
	}
	out[KeyCore] = c.core.Map()
	return out
}

// Clone returns an unfrozen deep copy.
func (c *Configuration) Clone() *Configuration {
	cp := New()
	for _, k := range c.keys {
		cp.set(k, c.values[k])
	}
	cp.core = c.Core()
	return cp
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
