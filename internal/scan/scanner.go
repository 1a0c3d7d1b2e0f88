// Package scan runs the classifier and namer over a set of files.
//
// Parsing is the expensive step and runs concurrently; classification and
// ordinal assignment then run sequentially in sorted path order, so the
// output is identical for identical inputs no matter how the parse workers
// were scheduled.
package scan

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"testhook/internal/classify"
	"testhook/internal/logging"
	"testhook/internal/parse"
)

// FileResult is the outcome for one file. A non-nil Err means the file
// could not be read or parsed at all and carries no candidates.
type FileResult struct {
	Path       string
	Language   string
	Candidates []classify.Candidate
	NodeErrors []classify.NodeError
	Marked     int
	Err        error
}

// Report is the outcome of a scan, with files in sorted path order.
type Report struct {
	Files []FileResult
}

// Candidates returns every candidate of the scan in file order.
func (r Report) Candidates() []classify.Candidate {
	var out []classify.Candidate
	for _, f := range r.Files {
		out = append(out, f.Candidates...)
	}
	return out
}

// Failed returns the files that could not be scanned.
func (r Report) Failed() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// Marked counts interactive elements that already carry the marker.
func (r Report) Marked() int {
	n := 0
	for _, f := range r.Files {
		n += f.Marked
	}
	return n
}

// NodeErrors counts node-level errors across all files.
func (r Report) NodeErrors() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.NodeErrors)
	}
	return n
}

// Coverage is the share of interactive elements that already carry the
// marker, in [0, 1]. A scan with no interactive elements has coverage 1.
func (r Report) Coverage() float64 {
	marked := r.Marked()
	total := marked + len(r.Candidates())
	if total == 0 {
		return 1
	}
	return float64(marked) / float64(total)
}

// Scanner parses, classifies and names files.
type Scanner struct {
	factory *parse.Factory
	opts    Options
	logger  *zap.Logger
}

// New creates a Scanner. A nil logger discards output.
func New(factory *parse.Factory, opts Options, logger *zap.Logger) *Scanner {
	if opts.OrdinalScope == "" {
		opts.OrdinalScope = ScopeRun
	}
	if opts.Namer.MaxLength == 0 && opts.Namer.MaxWords == 0 {
		opts.Namer = DefaultOptions().Namer
	}
	return &Scanner{
		factory: factory,
		opts:    opts,
		logger:  logging.Named(logger, logging.CategoryScan),
	}
}

// Options returns the scanner's effective options.
func (s *Scanner) Options() Options {
	return s.opts
}

// Accepts reports whether a parser is registered for path.
func (s *Scanner) Accepts(path string) bool {
	return s.factory.HasParser(path)
}

// ScanFiles scans files and returns a report. Per-file failures are
// recorded in the report; only context cancellation returns an error.
func (s *Scanner) ScanFiles(ctx context.Context, files []File) (Report, error) {
	start := time.Now()
	sorted := append([]File(nil), files...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	docs, errs := s.parseAll(ctx, sorted)
	if err := ctx.Err(); err != nil {
		for _, d := range docs {
			d.Close()
		}
		return Report{}, err
	}

	classifyLog := logging.Named(s.logger, logging.CategoryClassify)
	var counter *classify.Counter
	report := Report{Files: make([]FileResult, 0, len(sorted))}
	for i, f := range sorted {
		result := FileResult{Path: f.Path}
		if errs[i] != nil {
			result.Err = errs[i]
			s.logger.Warn("skipping file", zap.String("path", f.Path), zap.Error(errs[i]))
			report.Files = append(report.Files, result)
			continue
		}

		if counter == nil || s.opts.OrdinalScope == ScopeFile {
			counter = classify.NewCounter(0)
		}
		doc := docs[i]
		res := classify.Classify(doc.Root, counter, s.opts.Classify)
		doc.Close()

		result.Language = doc.Language
		result.Marked = res.Marked
		result.NodeErrors = res.Errors
		result.Candidates = make([]classify.Candidate, len(res.Candidates))
		for j, c := range res.Candidates {
			result.Candidates[j] = c.
				WithSlug(s.opts.Namer.Slug(c.Role, c.TextHint, c.Ordinal)).
				WithFile(f.Path)
		}
		for _, nodeErr := range res.Errors {
			classifyLog.Debug("node skipped", zap.String("path", f.Path), zap.Error(nodeErr))
		}
		report.Files = append(report.Files, result)
	}

	s.logger.Debug("scan complete",
		zap.Int("files", len(sorted)),
		zap.Int("candidates", len(report.Candidates())),
		zap.Int("failed", len(report.Failed())),
		zap.Duration("elapsed", time.Since(start)))
	return report, nil
}

// parseAll parses files concurrently. docs[i] is nil whenever errs[i] is set.
func (s *Scanner) parseAll(ctx context.Context, files []File) ([]*parse.Document, []error) {
	docs := make([]*parse.Document, len(files))
	errs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	if s.opts.MaxConcurrency > 0 {
		g.SetLimit(s.opts.MaxConcurrency)
	}
	for i, f := range files {
		if f.Err != nil {
			errs[i] = f.Err
			continue
		}
		g.Go(func() error {
			docs[i], errs[i] = s.factory.Parse(gctx, f.Path, f.Content)
			return nil
		})
	}
	_ = g.Wait()
	return docs, errs
}
