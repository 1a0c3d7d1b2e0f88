// Package report renders scan results as a pull request comment, a
// terminal view, HTML or JSON.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"testhook/internal/classify"
	"testhook/internal/scan"
)

// DefaultCommentMarker identifies the bot comment so it can be updated in
// place instead of posted again.
const DefaultCommentMarker = "<!-- testhook:summary -->"

// maxLabelRunes keeps long text hints from blowing up table rows.
const maxLabelRunes = 60

// Options shapes the Markdown body.
type Options struct {
	Title string
	// MaxRows caps the table; the rest is summarized in a note.
	MaxRows int
	// Attribute is the marker attribute named in the table header.
	Attribute string
	// CommentMarker is the hidden HTML comment placed first in the body.
	CommentMarker string
}

// DefaultOptions returns the options used for pull request comments.
func DefaultOptions() Options {
	return Options{
		Title:         "Missing test hooks",
		MaxRows:       200,
		Attribute:     classify.DefaultMarker,
		CommentMarker: DefaultCommentMarker,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Title == "" {
		o.Title = d.Title
	}
	if o.MaxRows <= 0 {
		o.MaxRows = d.MaxRows
	}
	if o.Attribute == "" {
		o.Attribute = d.Attribute
	}
	if o.CommentMarker == "" {
		o.CommentMarker = d.CommentMarker
	}
	return o
}

// Markdown renders r as a GitHub-flavored Markdown comment body.
func Markdown(r scan.Report, opts Options) string {
	opts = opts.withDefaults()
	candidates := r.Candidates()
	failed := r.Failed()

	var sb strings.Builder
	sb.WriteString(opts.CommentMarker)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "## %s\n\n", opts.Title)

	if len(candidates) == 0 {
		fmt.Fprintf(&sb, "No missing test hooks: every interactive element in %s carries `%s`.\n",
			plural(len(r.Files)-len(failed), "scanned file", "scanned files"), opts.Attribute)
	} else {
		fmt.Fprintf(&sb, "Found **%d** interactive %s without `%s` in **%s**",
			len(candidates), pluralWord(len(candidates), "element", "elements"), opts.Attribute,
			plural(filesWithCandidates(r), "file", "files"))
		fmt.Fprintf(&sb, " (%d already marked, %.0f%% coverage).\n\n", r.Marked(), r.Coverage()*100)

		fmt.Fprintf(&sb, "| File | Line | Element | Label | Suggested %s |\n", escapeCell(opts.Attribute))
		sb.WriteString("|---|---:|---|---|---|\n")
		shown := candidates
		if len(shown) > opts.MaxRows {
			shown = shown[:opts.MaxRows]
		}
		for _, c := range shown {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
				escapeCell(c.File),
				lineCell(c.Line),
				codeCell(c.Tag),
				escapeCell(shorten(c.TextHint, maxLabelRunes)),
				codeCell(c.Slug))
		}
		if rest := len(candidates) - len(shown); rest > 0 {
			fmt.Fprintf(&sb, "\n_…and %d more not shown._\n", rest)
		}
	}

	if len(failed) > 0 {
		sb.WriteString("\n<details>\n")
		fmt.Fprintf(&sb, "<summary>%s could not be scanned</summary>\n\n", plural(len(failed), "file", "files"))
		for _, f := range failed {
			fmt.Fprintf(&sb, "- %s: %s\n", codeCell(f.Path), escapeCell(f.Err.Error()))
		}
		sb.WriteString("\n</details>\n")
	}

	return sb.String()
}

// HasMarker reports whether body was produced with the given comment marker.
func HasMarker(body, marker string) bool {
	if marker == "" {
		marker = DefaultCommentMarker
	}
	return strings.Contains(body, marker)
}

func filesWithCandidates(r scan.Report) int {
	n := 0
	for _, f := range r.Files {
		if len(f.Candidates) > 0 {
			n++
		}
	}
	return n
}

func plural(n int, one, many string) string {
	return strconv.Itoa(n) + " " + pluralWord(n, one, many)
}

func pluralWord(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func lineCell(line int) string {
	if line <= 0 {
		return ""
	}
	return strconv.Itoa(line)
}

var cellEscaper = strings.NewReplacer(
	"|", `\|`,
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
	"<", "&lt;",
	">", "&gt;",
)

// escapeCell makes s safe inside a table cell.
func escapeCell(s string) string {
	return cellEscaper.Replace(s)
}

// codeCell renders s as inline code. Backticks cannot be escaped inside a
// code span, so they are dropped.
func codeCell(s string) string {
	s = strings.ReplaceAll(s, "`", "")
	if s == "" {
		return ""
	}
	return "`" + strings.ReplaceAll(escapeNewlines(s), "|", `\|`) + "`"
}

func escapeNewlines(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}

func shorten(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
