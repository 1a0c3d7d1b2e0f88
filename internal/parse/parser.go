// Package parse turns source files into markup trees.
//
// Each TreeParser handles a set of file extensions and adapts its native
// syntax tree to markup.Node. The Factory routes a path to the right parser.
package parse

import (
	"context"
	"errors"

	"testhook/internal/markup"
)

var (
	// ErrUnsupported is returned for files no parser is registered for.
	ErrUnsupported = errors.New("no parser registered for extension")
	// ErrTooLarge is returned for files above the configured size limit.
	ErrTooLarge = errors.New("file exceeds size limit")
	// ErrSyntax marks a region the grammar could not parse. It surfaces as a
	// node-level error, never as a whole-file failure.
	ErrSyntax = errors.New("syntax error")
)

// TreeParser defines the contract for syntax-specific markup parsers.
type TreeParser interface {
	// Parse builds a tree from content. The path selects the grammar
	// variant and appears in errors. A returned error is fatal for the
	// file; malformed regions inside a parsable file surface as node errors.
	Parse(ctx context.Context, path string, content []byte) (*Document, error)

	// SupportedExtensions returns the file extensions this parser handles,
	// with the leading dot.
	SupportedExtensions() []string

	// Language returns a short identifier such as "jsx" or "html".
	Language() string
}

// Document is a parsed file. Close must be called once the tree is no
// longer needed; nodes are invalid afterwards.
type Document struct {
	Path     string
	Language string
	Root     markup.Node
	close    func()
}

// NewDocument wraps a root node. release may be nil.
func NewDocument(path, language string, root markup.Node, release func()) *Document {
	return &Document{Path: path, Language: language, Root: root, close: release}
}

// Close releases native resources held by the tree.
func (d *Document) Close() {
	if d == nil || d.close == nil {
		return
	}
	d.close()
	d.close = nil
}
