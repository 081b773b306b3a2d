package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, DefaultOutputDir, c.OutputDir)
	assert.Equal(t, DefaultWorkers, c.Workers)
	assert.Equal(t, DefaultPort, c.Server.Port)
	assert.Equal(t, "provenance", c.Server.Variant)
	assert.Equal(t, DefaultDebounce, c.Watch.Debounce)
	assert.Equal(t, ":8080", c.Server.Addr())
	assert.NoError(t, c.Validate())
}

func TestLoadFile(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "astra.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sboms", c.InputDir)
	assert.Equal(t, "out", c.OutputDir)
	assert.True(t, c.Compress)
	assert.Equal(t, 8, c.Workers)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, 5*time.Second, c.Server.ShutdownTimeout)
	assert.Equal(t, DefaultReadTimeout, c.Server.ReadTimeout)
	assert.Equal(t, []string{"https://viewer.example.com"}, c.Server.AllowedOrigins)
	assert.Equal(t, "sbom", c.Server.Variant)
	assert.Equal(t, 500*time.Millisecond, c.Watch.Debounce)
	assert.Equal(t, "postgres://astra@localhost:5432/astra", c.Database.URL)
	assert.True(t, c.S3.PathStyle)
	assert.Equal(t, "minio", c.S3.AccessKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: [1, 2"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	c := &Config{}
	err := c.ApplyEnv(env(map[string]string{
		"PORT":                 "3000",
		"CORS_ALLOWED_ORIGINS": "https://a.example, ,https://b.example",
		"LOG_LEVEL":            "warn",
		"ASTRA_OUTPUT_DIR":     "/srv/graphs",
		"ASTRA_WATCH":          "true",
		"ASTRA_WATCH_DEBOUNCE": "1s",
		"ASTRA_DATABASE_URL":   "postgres://db/astra",
	}))
	require.NoError(t, err)

	assert.Equal(t, 3000, c.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.Server.AllowedOrigins)
	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, "/srv/graphs", c.OutputDir)
	assert.True(t, c.Watch.Enabled)
	assert.Equal(t, time.Second, c.Watch.Debounce)
	assert.Equal(t, "postgres://db/astra", c.Database.URL)
}

func TestApplyEnvPrefixedWins(t *testing.T) {
	c := &Config{}
	require.NoError(t, c.ApplyEnv(env(map[string]string{"PORT": "3000", "ASTRA_PORT": "4000"})))
	assert.Equal(t, 4000, c.Server.Port)
}

func TestApplyEnvErrors(t *testing.T) {
	c := &Config{}
	err := c.ApplyEnv(env(map[string]string{
		"PORT":                 "eighty",
		"ASTRA_COMPRESS":       "maybe",
		"ASTRA_WATCH_DEBOUNCE": "soon",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "ASTRA_COMPRESS")
	assert.Contains(t, err.Error(), "ASTRA_WATCH_DEBOUNCE")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad level", func(c *Config) { c.LogLevel = "trace" }, "Config.LogLevel"},
		{"watch needs input", func(c *Config) { c.Watch.Enabled = true }, "Config.InputDir"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "Server.Port"},
		{"bad viewer", func(c *Config) { c.Server.Variant = "2d" }, "Server.Variant"},
		{"bad database", func(c *Config) { c.Database.URL = "mysql://db" }, "Database.URL"},
		{"s3 secret", func(c *Config) { c.S3.AccessKey = "k" }, "S3.SecretKey"},
		{"debounce", func(c *Config) { c.Watch.Debounce = time.Millisecond }, "Watch.Debounce"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
