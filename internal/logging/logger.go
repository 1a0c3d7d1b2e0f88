// Package logging builds the zap loggers used across testhook.
// Every subsystem logs through a named child logger (one per Category) so
// output can be filtered by component.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot     Category = "boot"     // CLI startup, config resolution
	CategoryConfig   Category = "config"   // Config file and env loading
	CategoryParse    Category = "parse"    // Markup parsers (tree-sitter, html)
	CategoryClassify Category = "classify" // Node-level classification errors
	CategoryScan     Category = "scan"     // File discovery and scan orchestration
	CategoryGit      Category = "git"      // git diff lookups
	CategoryGitHub   Category = "github"   // GitHub API calls
	CategoryReport   Category = "report"   // Comment and output rendering
	CategoryWatch    Category = "watch"    // Filesystem watch mode
)

// Options selects level and encoding.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Format is "console" or "json". Empty means console.
	Format string
	// Verbose forces debug level regardless of Level.
	Verbose bool
}

// New builds a logger writing to stderr, so stdout stays reserved for
// reports that may be piped.
func New(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.Sampling = nil

	switch strings.ToLower(opts.Format) {
	case "", "console", "text":
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.DisableStacktrace = true
	case "json":
		config.Encoding = "json"
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// ParseLevel maps a config string to a zap level.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
}

// Named returns the child logger for a category. A nil parent yields a
// no-op logger so library code never has to nil-check.
func Named(parent *zap.Logger, category Category) *zap.Logger {
	if parent == nil {
		return zap.NewNop()
	}
	return parent.Named(string(category))
}
