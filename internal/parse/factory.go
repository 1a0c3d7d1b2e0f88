package parse

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"testhook/internal/logging"

	"go.uber.org/zap"
)

// Factory manages TreeParsers and routes parse requests by file extension.
type Factory struct {
	mu       sync.RWMutex
	parsers  map[string]TreeParser // extension -> parser (e.g., ".tsx" -> JSXParser)
	maxBytes int64
	logger   *zap.Logger
}

// NewFactory creates an empty Factory. maxBytes <= 0 disables the size limit.
func NewFactory(maxBytes int64, logger *zap.Logger) *Factory {
	return &Factory{
		parsers:  make(map[string]TreeParser),
		maxBytes: maxBytes,
		logger:   logging.Named(logger, logging.CategoryParse),
	}
}

// DefaultFactory creates a Factory with the JSX and HTML parsers registered.
func DefaultFactory(maxBytes int64, logger *zap.Logger) *Factory {
	f := NewFactory(maxBytes, logger)
	f.Register(NewJSXParser())
	f.Register(NewHTMLParser())
	f.logger.Debug("registered parsers", zap.Strings("extensions", f.SupportedExtensions()))
	return f
}

// Register adds a parser for its supported extensions.
// If a parser is already registered for an extension, it is replaced.
func (f *Factory) Register(parser TreeParser) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ext := range parser.SupportedExtensions() {
		f.parsers[normalizeExtension(ext)] = parser
	}
}

// GetParser returns the parser for a given file path, or nil.
func (f *Factory) GetParser(path string) TreeParser {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.parsers[normalizeExtension(filepath.Ext(path))]
}

// HasParser returns true if a parser exists for the given file path.
func (f *Factory) HasParser(path string) bool {
	return f.GetParser(path) != nil
}

// Parse builds the tree for one file using the matching parser.
func (f *Factory) Parse(ctx context.Context, path string, content []byte) (*Document, error) {
	parser := f.GetParser(path)
	if parser == nil {
		return nil, fmt.Errorf("%s: %w: %q", path, ErrUnsupported, filepath.Ext(path))
	}
	if f.maxBytes > 0 && int64(len(content)) > f.maxBytes {
		return nil, fmt.Errorf("%s: %w (%d > %d bytes)", path, ErrTooLarge, len(content), f.maxBytes)
	}
	doc, err := parser.Parse(ctx, path, content)
	if err != nil {
		return nil, fmt.Errorf("%s: %s parse failed: %w", path, parser.Language(), err)
	}
	f.logger.Debug("parsed file",
		zap.String("path", path),
		zap.String("language", parser.Language()),
		zap.Int("bytes", len(content)))
	return doc, nil
}

// SupportedExtensions returns all registered file extensions, sorted.
func (f *Factory) SupportedExtensions() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	exts := make([]string, 0, len(f.parsers))
	for ext := range f.parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// normalizeExtension ensures extensions are lowercase with leading dot.
func normalizeExtension(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
