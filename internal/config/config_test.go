package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfig_EmptyUsesDefaults(t *testing.T) {
	c, err := ReadConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)
}

func TestReadConfig_Overrides(t *testing.T) {
	c, err := ReadConfig(strings.NewReader(`
grace_delay: 50ms
no_color: true
log:
  level: debug
  format: json
mock:
  enabled: true
  store: sqlite
  delay_scale: 0.1
`))
	require.NoError(t, err)

	assert.Equal(t, 50*time.Millisecond, c.GraceDelay)
	assert.True(t, c.NoColor)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "json", c.Log.Format)
	assert.True(t, c.Mock.Enabled)
	assert.Equal(t, "sqlite", c.Mock.Store)
	assert.Equal(t, 0.1, c.Mock.DelayScale)
	assert.Equal(t, ":3000", c.Mock.Addr, "unset keys keep their defaults")
	require.NoError(t, c.Validate())
}

func TestReadConfig_UnknownField(t *testing.T) {
	_, err := ReadConfig(strings.NewReader("mock:\n  storage: sqlite\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "negative grace", mutate: func(c *Config) { c.GraceDelay = -time.Second }, wantErr: "grace_delay"},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "trace" }, wantErr: "log.level"},
		{name: "bad format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "log.format"},
		{name: "bad store", mutate: func(c *Config) { c.Mock.Store = "redis" }, wantErr: "mock.store"},
		{name: "negative scale", mutate: func(c *Config) { c.Mock.DelayScale = -1 }, wantErr: "mock.delay_scale"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	c := DefaultConfig()
	c.GraceDelay = 75 * time.Millisecond
	c.Mock.SeedFile = "users.json"

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf))
	assert.Contains(t, buf.String(), "grace_delay: 75ms")

	back, err := ReadConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, c, back)
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestResolve_Order(t *testing.T) {
	home := t.TempDir()
	work := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvVar, "")
	chdir(t, work)

	path, err := Resolve("")
	require.NoError(t, err)
	assert.Empty(t, path, "nothing exists yet")

	homeConfig := filepath.Join(home, ".apiplay", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(homeConfig), 0o755))
	require.NoError(t, os.WriteFile(homeConfig, []byte("no_color: true\n"), 0o644))
	path, err = Resolve("")
	require.NoError(t, err)
	assert.Equal(t, homeConfig, path)

	require.NoError(t, os.WriteFile(filepath.Join(work, ".apiplay.yaml"), []byte(""), 0o644))
	path, err = Resolve("")
	require.NoError(t, err)
	assert.Equal(t, ".apiplay.yaml", path)

	t.Setenv(EnvVar, "/from/env.yaml")
	path, err = Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "/from/env.yaml", path)

	path, err = Resolve("~/explicit.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "explicit.yaml"), path)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("mock:\n  store: sqlite\n"), 0o644))
	c, path, err := Load(good)
	require.NoError(t, err)
	assert.Equal(t, good, path)
	assert.Equal(t, "sqlite", c.Mock.Store)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("mock:\n  store: redis\n"), 0o644))
	_, _, err = Load(invalid)
	assert.ErrorContains(t, err, "invalid config")

	_, _, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to open config")
}
