package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testhook/internal/scan"
)

// clearEnv blanks every variable applyEnvOverrides reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TESTHOOK_MARKER", "TESTHOOK_ORDINAL_SCOPE", "TESTHOOK_LOG_LEVEL",
		"GITHUB_TOKEN", "GITHUB_REPOSITORY", "GITHUB_API_URL",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "data-testid", cfg.Marker)
	assert.Equal(t, "run", cfg.OrdinalScope)
	assert.Equal(t, 5, cfg.Naming.MaxWords)
	assert.Equal(t, 60, cfg.Naming.MaxLength)
	assert.Equal(t, "markdown", cfg.Report.Format)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(`
marker: data-cy
ordinal_scope: file
naming:
  max_length: 40
scan:
  include: ["src/**"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data-cy", cfg.Marker)
	assert.Equal(t, "file", cfg.OrdinalScope)
	assert.Equal(t, 40, cfg.Naming.MaxLength)
	assert.Equal(t, 5, cfg.Naming.MaxWords, "unset keys keep their defaults")
	assert.Equal(t, []string{"src/**"}, cfg.Scan.Include)
	require.NoError(t, cfg.Validate())

	opts := cfg.ScanOptions()
	assert.Equal(t, scan.ScopeFile, opts.OrdinalScope)
	assert.Equal(t, "data-cy", opts.Classify.Marker)
	assert.Equal(t, 40, opts.Namer.MaxLength)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("marker: [unclosed"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := DefaultConfig()
	cfg.Marker = "data-qa"
	cfg.GitHub.Repository = "acme/web"
	cfg.GitHub.Token = "secret"
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data-qa", loaded.Marker)
	assert.Equal(t, "acme/web", loaded.GitHub.Repository)
	assert.Empty(t, loaded.GitHub.Token)
	assert.Equal(t, "secret", cfg.GitHub.Token, "Save does not mutate the receiver")
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TESTHOOK_MARKER", "data-test")
	t.Setenv("TESTHOOK_ORDINAL_SCOPE", "file")
	t.Setenv("GITHUB_TOKEN", "ghp_x")
	t.Setenv("GITHUB_REPOSITORY", "octo/repo")
	t.Setenv("GITHUB_API_URL", "https://api.github.com")

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("marker: data-cy\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data-test", cfg.Marker, "environment beats the file")
	assert.Equal(t, "file", cfg.OrdinalScope)
	assert.Equal(t, "ghp_x", cfg.GitHub.Token)
	assert.Equal(t, "octo/repo", cfg.GitHub.Repository)
	assert.Empty(t, cfg.GitHub.APIURL, "the public API URL is the client default")

	t.Setenv("GITHUB_API_URL", "https://ghe.example.com/api/v3")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://ghe.example.com/api/v3", cfg.GitHub.APIURL)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TESTHOOK_MARKER=data-env\nGITHUB_REPOSITORY=from/dotenv\n"), 0o644))

	// Already-set variables win over .env.
	t.Setenv("GITHUB_REPOSITORY", "from/shell")
	// godotenv only fills unset variables; an empty value counts as set.
	require.NoError(t, os.Unsetenv("TESTHOOK_MARKER"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), envFile))
	assert.Equal(t, "data-env", os.Getenv("TESTHOOK_MARKER"))
	assert.Equal(t, "from/shell", os.Getenv("GITHUB_REPOSITORY"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"empty marker", func(c *Config) { c.Marker = " " }, "marker must not be empty"},
		{"bad scope", func(c *Config) { c.OrdinalScope = "global" }, `unknown ordinal scope "global"`},
		{"zero words", func(c *Config) { c.Naming.MaxWords = 0 }, "max_words"},
		{"short length", func(c *Config) { c.Naming.MaxLength = 2 }, "max_length"},
		{"negative size", func(c *Config) { c.Scan.MaxFileSize = -1 }, "max_file_size"},
		{"zero workers", func(c *Config) { c.Scan.MaxConcurrency = 0 }, "max_concurrency"},
		{"zero rows", func(c *Config) { c.Report.MaxRows = 0 }, "max_rows"},
		{"bad format", func(c *Config) { c.Report.Format = "pdf" }, `unknown report format "pdf"`},
		{"bad debounce", func(c *Config) { c.Watch.Debounce = "soon" }, "watch.debounce"},
		{"bad glob", func(c *Config) { c.Scan.Include = []string{"src/[x"} }, "invalid glob"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestGetWatchDebounce(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 300*time.Millisecond, cfg.GetWatchDebounce())
	cfg.Watch.Debounce = "1s"
	assert.Equal(t, time.Second, cfg.GetWatchDebounce())
	cfg.Watch.Debounce = "nope"
	assert.Equal(t, 300*time.Millisecond, cfg.GetWatchDebounce())
}

func TestFindWorkspaceRoot(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(deep, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), nil, 0o644))

	got, err := FindWorkspaceRoot(deep)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}
