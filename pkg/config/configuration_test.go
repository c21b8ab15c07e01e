package config

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagehand/pkg/identity"
)

func TestConfiguration_Getters(t *testing.T) {
	c := FromMap(map[string]interface{}{
		"str":        "value",
		"num":        float64(7),
		"int":        3,
		"json":       json.Number("12"),
		"numstr":     "42",
		"flag":       true,
		"flagstr":    "true",
		"flagnum":    float64(1),
		"nothing":    nil,
		"floatlabel": 2.5,
	})

	assert.Equal(t, "value", c.String("str"))
	assert.Equal(t, "", c.String("nothing"))
	assert.Equal(t, "", c.String("missing"))
	assert.Equal(t, "2.5", c.String("floatlabel"))
	assert.Equal(t, "7", c.String("num"))

	assert.Equal(t, 7, c.Int("num"))
	assert.Equal(t, 3, c.Int("int"))
	assert.Equal(t, 12, c.Int("json"))
	assert.Equal(t, 42, c.Int("numstr"))
	assert.Equal(t, 0, c.Int("str"))

	assert.True(t, c.Bool("flag"))
	assert.True(t, c.Bool("flagstr"))
	assert.True(t, c.Bool("flagnum"))
	assert.False(t, c.Bool("missing"))

	assert.True(t, c.Has("str"))
	assert.False(t, c.Has("nothing"))
	_, ok := c.Get("nothing")
	assert.True(t, ok)
}

func TestConfiguration_Freeze(t *testing.T) {
	c := New()
	require.NoError(t, c.Set("name", "demo"))
	require.NoError(t, c.UpdateCore(func(core *Core) { core.Runlog.Save = true }))

	c.Freeze()
	assert.True(t, c.Frozen())

	err := c.Set("name", "other")
	assert.True(t, errors.Is(err, ErrFrozen))
	assert.True(t, errors.Is(c.SetCore(Core{}), ErrFrozen))
	assert.True(t, errors.Is(c.UpdateCore(func(*Core) {}), ErrFrozen))

	assert.Equal(t, "demo", c.String("name"))
	assert.True(t, c.Core().Runlog.Save)

	clone := c.Clone()
	assert.False(t, clone.Frozen())
	require.NoError(t, clone.Set("name", "other"))
	assert.Equal(t, "demo", c.String("name"))
}

func TestConfiguration_NestedValuesAreCopied(t *testing.T) {
	nested := map[string]interface{}{"k": "v", "list": []interface{}{"a"}}
	targets := []string{"one"}

	c := New()
	require.NoError(t, c.Set("nested", nested))
	require.NoError(t, c.Set("targets", targets))
	require.NoError(t, c.SetCore(Core{User: &identity.Account{Name: "mentat", ID: 1000}}))
	c.Freeze()

	nested["k"] = "changed by caller"
	targets[0] = "changed by caller"

	got := c.Value("nested").(map[string]interface{})
	got["k"] = "mutated"
	got["list"].([]interface{})[0] = "mutated"
	raw, ok := c.Get("targets")
	require.True(t, ok)
	raw.([]string)[0] = "mutated"
	c.ToMap()["nested"].(map[string]interface{})["k"] = "mutated"
	c.Core().User.Name = "mutated"

	assert.Equal(t, map[string]interface{}{"k": "v", "list": []interface{}{"a"}}, c.Value("nested"))
	assert.Equal(t, []string{"one"}, c.Value("targets"))
	assert.Equal(t, "mentat", c.Core().User.Name)

	clone := c.Clone()
	require.NoError(t, clone.Set("nested", map[string]interface{}{}))
	assert.Equal(t, "v", c.Value("nested").(map[string]interface{})["k"])
}

func TestConfiguration_ToMapIncludesCore(t *testing.T) {
	c := FromMap(map[string]interface{}{"name": "demo"})
	require.NoError(t, c.SetCore(Core{
		Logging: LoggingCore{ToConsole: true, Level: "INFO"},
		Pstate:  PersistCore{Save: true},
		User:    &identity.Account{Name: "mentat", ID: 1000},
	}))

	m := c.ToMap()
	core, ok := m[KeyCore].(map[string]interface{})
	require.True(t, ok)

	logging := core["logging"].(map[string]interface{})
	assert.Equal(t, "INFO", logging["level"])
	assert.Equal(t, true, logging["to_console"])
	assert.Equal(t, map[string]interface{}{"save": true}, core["pstate"])
	assert.Equal(t, map[string]interface{}{"name": "mentat", "id": float64(1000)}, core["user"])
	assert.NotContains(t, core, "group")
}

func TestNewPaths(t *testing.T) {
	p := NewPaths("/opt/app")
	assert.Equal(t, "/opt/app/usr/local/bin", p.Bin)
	assert.Equal(t, "/opt/app/etc", p.Cfg)
	assert.Equal(t, "/opt/app/var", p.Var)
	assert.Equal(t, "/opt/app/var/log", p.Log)
	assert.Equal(t, "/opt/app/var/run", p.Run)
	assert.Equal(t, "/opt/app/var/tmp", p.Tmp)

	assert.Equal(t, "/etc", NewPaths("").Cfg)
	assert.Equal(t, "/var/run", NewPaths("").Map()["run"])
}
