// Package config loads testhook settings from .testhook.yaml, the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"testhook/internal/classify"
	"testhook/internal/naming"
	"testhook/internal/scan"
)

// FileName is the config file looked up in the workspace root.
const FileName = ".testhook.yaml"

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all testhook configuration.
type Config struct {
	// Marker is the test-hook attribute, e.g. data-testid or data-cy.
	Marker string `yaml:"marker"`

	// Ordinal scope: "run" shares one counter per scan, "file" restarts per file.
	OrdinalScope string `yaml:"ordinal_scope"`

	Classify ClassifyConfig `yaml:"classify"`
	Naming   NamingConfig   `yaml:"naming"`
	Scan     ScanConfig     `yaml:"scan"`
	Report   ReportConfig   `yaml:"report"`
	GitHub   GitHubConfig   `yaml:"github"`
	Watch    WatchConfig    `yaml:"watch"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ClassifyConfig tunes which elements count as interactive.
type ClassifyConfig struct {
	RoleAttribute   string   `yaml:"role_attribute"`
	InteractiveTags []string `yaml:"interactive_tags"`
	LabelAttributes []string `yaml:"label_attributes"`
}

// NamingConfig bounds generated slugs.
type NamingConfig struct {
	MaxWords  int `yaml:"max_words"`
	MaxLength int `yaml:"max_length"`
}

// ScanConfig selects files.
type ScanConfig struct {
	Include        []string `yaml:"include"`
	Exclude        []string `yaml:"exclude"`
	Ignore         []string `yaml:"ignore"`
	MaxFileSize    int64    `yaml:"max_file_size"`
	MaxConcurrency int      `yaml:"max_concurrency"`
}

// ReportConfig shapes the rendered report.
type ReportConfig struct {
	Format  string `yaml:"format"` // markdown, json, html, terminal
	MaxRows int    `yaml:"max_rows"`
	Title   string `yaml:"title"`
	Width   int    `yaml:"width"`
}

// GitHubConfig configures pull request comments.
type GitHubConfig struct {
	Repository string `yaml:"repository"` // owner/name
	Token      string `yaml:"token,omitempty"`
	APIURL     string `yaml:"api_url"` // set for GitHub Enterprise
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// ValidFormats lists the accepted report formats.
var ValidFormats = []string{"markdown", "json", "html", "terminal"}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Marker:       classify.DefaultMarker,
		OrdinalScope: string(scan.ScopeRun),

		Classify: ClassifyConfig{
			RoleAttribute:   classify.DefaultRoleAttr,
			InteractiveTags: append([]string(nil), classify.DefaultInteractiveTags...),
			LabelAttributes: append([]string(nil), classify.DefaultLabelAttrs...),
		},

		Naming: NamingConfig{
			MaxWords:  naming.MaxWords,
			MaxLength: naming.MaxLength,
		},

		Scan: ScanConfig{
			Exclude:        append([]string(nil), scan.DefaultExclude...),
			Ignore:         append([]string(nil), scan.DefaultIgnorePatterns...),
			MaxFileSize:    1 << 20,
			MaxConcurrency: scan.DefaultOptions().MaxConcurrency,
		},

		Report: ReportConfig{
			Format:  "markdown",
			MaxRows: 200,
			Title:   "Missing test hooks",
			Width:   100,
		},

		Watch: WatchConfig{
			Debounce: "300ms",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file. The GitHub token is never written.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := *c
	out.GitHub.Token = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Missing files are skipped and variables that are already set
// are left alone.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TESTHOOK_MARKER"); v != "" {
		c.Marker = v
	}
	if v := os.Getenv("TESTHOOK_ORDINAL_SCOPE"); v != "" {
		c.OrdinalScope = v
	}
	if v := os.Getenv("TESTHOOK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	// GitHub Actions exports both of these.
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv("GITHUB_REPOSITORY"); v != "" {
		c.GitHub.Repository = v
	}
	if v := os.Getenv("GITHUB_API_URL"); v != "" && v != "https://api.github.com" {
		c.GitHub.APIURL = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Marker) == "" {
		return fmt.Errorf("%w: marker must not be empty", ErrInvalid)
	}
	if _, err := scan.ParseOrdinalScope(c.OrdinalScope); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Naming.MaxWords < 1 {
		return fmt.Errorf("%w: naming.max_words must be >= 1", ErrInvalid)
	}
	// Room for at least "x-0".
	if c.Naming.MaxLength < 3 {
		return fmt.Errorf("%w: naming.max_length must be >= 3", ErrInvalid)
	}
	if c.Scan.MaxFileSize < 0 {
		return fmt.Errorf("%w: scan.max_file_size must be >= 0", ErrInvalid)
	}
	if c.Scan.MaxConcurrency < 1 {
		return fmt.Errorf("%w: scan.max_concurrency must be >= 1", ErrInvalid)
	}
	if c.Report.MaxRows < 1 {
		return fmt.Errorf("%w: report.max_rows must be >= 1", ErrInvalid)
	}
	if !validFormat(c.Report.Format) {
		return fmt.Errorf("%w: unknown report format %q (valid: %v)", ErrInvalid, c.Report.Format, ValidFormats)
	}
	if d, err := time.ParseDuration(c.Watch.Debounce); err != nil || d < 0 {
		return fmt.Errorf("%w: watch.debounce %q is not a duration", ErrInvalid, c.Watch.Debounce)
	}
	if _, err := scan.NewFilter(c.Scan.Ignore, c.Scan.Include, c.Scan.Exclude); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func validFormat(f string) bool {
	for _, v := range ValidFormats {
		if f == v {
			return true
		}
	}
	return false
}

// ClassifyOptions returns the classifier options.
func (c *Config) ClassifyOptions() classify.Options {
	return classify.Options{
		Marker:          c.Marker,
		RoleAttr:        c.Classify.RoleAttribute,
		InteractiveTags: c.Classify.InteractiveTags,
		LabelAttrs:      c.Classify.LabelAttributes,
	}
}

// Namer returns the slug namer.
func (c *Config) Namer() naming.Namer {
	return naming.Namer{MaxWords: c.Naming.MaxWords, MaxLength: c.Naming.MaxLength}
}

// ScanOptions returns scanner options. Call Validate first; an unknown
// ordinal scope falls back to run scope here.
func (c *Config) ScanOptions() scan.Options {
	scope, err := scan.ParseOrdinalScope(c.OrdinalScope)
	if err != nil {
		scope = scan.ScopeRun
	}
	return scan.Options{
		Classify:       c.ClassifyOptions(),
		Namer:          c.Namer(),
		OrdinalScope:   scope,
		MaxConcurrency: c.Scan.MaxConcurrency,
	}
}

// Filter compiles the file filter.
func (c *Config) Filter() (*scan.Filter, error) {
	return scan.NewFilter(c.Scan.Ignore, c.Scan.Include, c.Scan.Exclude)
}

// GetWatchDebounce returns the watch debounce as a duration.
func (c *Config) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d < 0 {
		return 300 * time.Millisecond
	}
	return d
}

// FindWorkspaceRoot walks up from dir looking for .testhook.yaml or .git.
// If neither is found, dir itself is returned.
func FindWorkspaceRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	originalDir := dir
	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return originalDir, nil
}
