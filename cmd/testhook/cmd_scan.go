package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"testhook/internal/config"
	"testhook/internal/logging"
	"testhook/internal/report"
	"testhook/internal/scan"
)

type scanFlags struct {
	changedSince   string
	format         string
	output         string
	failOnFindings bool
	width          int
}

func newScanCmd(a *app) *cobra.Command {
	var f scanFlags
	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Scan files or directories for missing test hooks",
		Long: `Scans the given files and directories (default: the current directory) and
reports interactive elements without a test-hook attribute.

With --changed-since, only files added, copied, modified or renamed since the
merge base with the given ref are scanned; positional paths then act as
path prefixes.

Examples:
  testhook scan src
  testhook scan --changed-since origin/main --format terminal
  testhook scan --format json --fail-on-findings`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScan(cmd.Context(), args, f)
		},
	}
	cmd.Flags().StringVar(&f.changedSince, "changed-since", "", "Only scan files changed since this git ref")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format: markdown, json, html or terminal (default from config)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&f.failOnFindings, "fail-on-findings", false, "Exit with status 1 when elements are missing hooks")
	cmd.Flags().IntVar(&f.width, "width", 0, "Terminal width for --format terminal (default from config)")
	return cmd
}

func (a *app) runScan(ctx context.Context, args []string, f scanFlags) error {
	format := f.format
	if format == "" {
		format = a.cfg.Report.Format
	}
	if !slices.Contains(config.ValidFormats, format) {
		return usageError(fmt.Errorf("unknown format %q", format))
	}

	filter, err := a.cfg.Filter()
	if err != nil {
		return usageError(err)
	}
	factory := a.factory()
	scanner := a.scanner(factory)

	var files []scan.File
	if f.changedSince != "" {
		files, err = a.changedFiles(ctx, f.changedSince, args, filter, scanner)
	} else {
		files, err = localFiles(args, filter, scanner)
	}
	if err != nil {
		return runtimeError(err)
	}

	result, err := scanner.ScanFiles(ctx, files)
	if err != nil {
		return runtimeError(err)
	}
	summary := report.Summarize(result)
	logging.Named(a.logger, logging.CategoryScan).Info("scan complete",
		zap.Int("files", summary.Files),
		zap.Int("candidates", summary.Candidates),
		zap.Int("marked", summary.Marked),
		zap.Int("failed", summary.Failed))

	out, err := a.render(result, format, f.width)
	if err != nil {
		return runtimeError(err)
	}
	if err := a.write(f.output, out); err != nil {
		return runtimeError(err)
	}

	if f.failOnFindings && summary.Candidates > 0 {
		return &exitError{code: exitFindings, err: fmt.Errorf("%d elements are missing test hooks", summary.Candidates)}
	}
	return nil
}

// localFiles expands args into files. Directories are walked with the
// filter; files named explicitly are always read.
func localFiles(args []string, filter *scan.Filter, scanner *scan.Scanner) ([]scan.File, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	var files []scan.File
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			content, err := os.ReadFile(arg)
			if err != nil {
				err = fmt.Errorf("read %s: %w", arg, err)
			}
			files = append(files, scan.File{Path: filepath.ToSlash(filepath.Clean(arg)), Content: content, Err: err})
			continue
		}
		walked, err := scan.WalkDir(arg, filter, scanner.Accepts)
		if err != nil {
			return nil, err
		}
		prefix := filepath.ToSlash(filepath.Clean(arg))
		for _, file := range walked {
			if prefix != "." {
				file.Path = path.Join(prefix, file.Path)
			}
			files = append(files, file)
		}
	}
	return files, nil
}

// changedFiles lists files changed since base, relative to the repository root.
func (a *app) changedFiles(ctx context.Context, base string, prefixes []string, filter *scan.Filter, scanner *scan.Scanner) ([]scan.File, error) {
	gitLog := logging.Named(a.logger, logging.CategoryGit)
	root, err := scan.GitTopLevel(ctx, ".")
	if err != nil {
		return nil, err
	}
	changed, err := scan.GitChangedFiles(ctx, root, base)
	if err != nil {
		return nil, err
	}
	selected := scan.SelectPaths(changed, filter, scanner.Accepts)
	if len(prefixes) > 0 {
		selected = underPrefixes(root, selected, prefixes)
	}
	gitLog.Debug("changed files", zap.String("base", base), zap.Int("changed", len(changed)), zap.Int("selected", len(selected)))
	return scan.ReadFiles(root, selected), nil
}

// underPrefixes keeps repo-relative paths below one of the given local paths.
func underPrefixes(root string, rels, prefixes []string) []string {
	var repoPrefixes []string
	for _, p := range prefixes {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		// The repository root may be reached through a symlink.
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		repoPrefixes = append(repoPrefixes, filepath.ToSlash(rel))
	}
	var out []string
	for _, r := range rels {
		for _, p := range repoPrefixes {
			if p == "." || r == p || strings.HasPrefix(r, p+"/") {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func (a *app) reportOptions() report.Options {
	return report.Options{
		Title:     a.cfg.Report.Title,
		MaxRows:   a.cfg.Report.MaxRows,
		Attribute: a.cfg.Marker,
	}
}

// render produces the report in format.
func (a *app) render(result scan.Report, format string, width int) (string, error) {
	if format == "json" {
		data, err := report.JSON(result)
		return string(data), err
	}

	md := report.Markdown(result, a.reportOptions())
	switch format {
	case "html":
		body, err := report.RenderHTML(md)
		if err != nil {
			return "", err
		}
		return report.HTMLPage(a.cfg.Report.Title, body), nil
	case "terminal":
		if width <= 0 {
			width = a.cfg.Report.Width
		}
		out, err := report.RenderTerminal(md, width, "")
		if err != nil {
			return "", err
		}
		line := report.SummaryLine(report.Summarize(result), report.NewStyles(report.DetectTheme()))
		return out + line + "\n", nil
	}
	return md, nil
}

func (a *app) write(target, out string) error {
	if target == "" {
		_, err := fmt.Fprint(a.stdout, out)
		return err
	}
	if err := os.WriteFile(target, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	logging.Named(a.logger, logging.CategoryReport).Info("report written", zap.String("path", target))
	return nil
}
