package scan

import (
	"fmt"
	"runtime"

	"testhook/internal/classify"
	"testhook/internal/naming"
)

// OrdinalScope decides how far ordinal uniqueness reaches.
type OrdinalScope string

const (
	// ScopeRun shares one counter across every file of a scan; files are
	// visited in sorted path order so ordinals are stable between runs.
	ScopeRun OrdinalScope = "run"
	// ScopeFile restarts the counter at zero for each file.
	ScopeFile OrdinalScope = "file"
)

// ParseOrdinalScope validates a scope name. Empty means ScopeRun.
func ParseOrdinalScope(s string) (OrdinalScope, error) {
	switch OrdinalScope(s) {
	case "", ScopeRun:
		return ScopeRun, nil
	case ScopeFile:
		return ScopeFile, nil
	}
	return "", fmt.Errorf("unknown ordinal scope %q (valid: %s, %s)", s, ScopeRun, ScopeFile)
}

// Options controls a Scanner.
type Options struct {
	Classify     classify.Options
	Namer        naming.Namer
	OrdinalScope OrdinalScope
	// MaxConcurrency caps concurrent parse workers.
	MaxConcurrency int
}

// DefaultOptions returns run-scoped ordinals, default classification and
// naming, and one parse worker per CPU (between 2 and 16).
func DefaultOptions() Options {
	workers := runtime.NumCPU()
	if workers > 16 {
		workers = 16
	}
	if workers < 2 {
		workers = 2
	}
	return Options{
		Classify:       classify.DefaultOptions(),
		Namer:          naming.DefaultNamer(),
		OrdinalScope:   ScopeRun,
		MaxConcurrency: workers,
	}
}
