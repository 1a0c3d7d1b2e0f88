package classify

import (
	"fmt"
	"strconv"
	"strings"
)

// Candidate is an interactive element that lacks the marker attribute.
//
// Candidates are values: the With* helpers return modified copies, so a
// record handed to a caller never changes underneath it.
type Candidate struct {
	// Tag is the lowercased element tag as written in source.
	Tag string `json:"tag"`
	// Role is the role fed to the namer: the tag itself, or "button" for
	// elements that are interactive only through the role attribute.
	Role string `json:"role"`
	// TextHint is the best available human-readable label.
	TextHint string `json:"text_hint"`
	// Line is the 1-based source line, 0 when the parser has no positions.
	Line int `json:"line,omitempty"`
	// Ordinal is the tie-breaker assigned from the scan's Counter.
	Ordinal int `json:"ordinal"`
	// ExistingMarker is always false for emitted candidates.
	ExistingMarker bool `json:"existing_marker"`
	// Slug is the suggested marker value, empty until named.
	Slug string `json:"slug,omitempty"`
	// File is the repo-relative path, empty until the scanner sets it.
	File string `json:"file,omitempty"`
}

// WithSlug returns a copy of c carrying slug.
func (c Candidate) WithSlug(slug string) Candidate {
	c.Slug = slug
	return c
}

// WithFile returns a copy of c attributed to path.
func (c Candidate) WithFile(path string) Candidate {
	c.File = path
	return c
}

// Location renders "file:line", dropping the unknown parts.
func (c Candidate) Location() string {
	switch {
	case c.File != "" && c.Line > 0:
		return c.File + ":" + strconv.Itoa(c.Line)
	case c.File != "":
		return c.File
	case c.Line > 0:
		return "line " + strconv.Itoa(c.Line)
	}
	return ""
}

// NodeError records a node the classifier could not inspect. The walk
// continues into the node's children regardless.
type NodeError struct {
	// Path is the child-index path from the root to the failing node.
	Path []int
	Line int
	Err  error
}

func (e NodeError) Error() string {
	parts := make([]string, len(e.Path))
	for i, p := range e.Path {
		parts[i] = strconv.Itoa(p)
	}
	loc := "/" + strings.Join(parts, "/")
	if e.Line > 0 {
		loc = fmt.Sprintf("%s (line %d)", loc, e.Line)
	}
	return fmt.Sprintf("node %s: %v", loc, e.Err)
}

func (e NodeError) Unwrap() error {
	return e.Err
}
