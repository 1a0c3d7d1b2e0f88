// Package classify finds interactive elements that lack a test-hook marker.
//
// Classify walks a markup.Node tree in pre-order (parents before children,
// siblings left to right) and emits one Candidate per interactive element
// without the marker attribute. It is a pure function of the tree and the
// counter state: nothing is logged, nothing is global.
package classify

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"testhook/internal/markup"
)

// DefaultMarker is the test-hook attribute whose presence suppresses a
// suggestion.
const DefaultMarker = "data-testid"

// DefaultRoleAttr is the accessibility attribute consulted for role="button".
const DefaultRoleAttr = "role"

// ButtonRole is the role value that makes any element interactive.
const ButtonRole = "button"

// DefaultInteractiveTags are the primitive tags that are always interactive.
var DefaultInteractiveTags = []string{"button", "a", "input", "select", "textarea"}

// DefaultLabelAttrs are consulted, in order, when an element has no direct
// text: accessible label, placeholder, image alternative text, tooltip.
var DefaultLabelAttrs = []string{"aria-label", "placeholder", "alt", "title"}

// errPanic wraps a panic raised while inspecting a single node.
var errPanic = errors.New("panic while inspecting node")

// Options tunes classification. Zero fields fall back to the defaults.
type Options struct {
	Marker          string
	RoleAttr        string
	InteractiveTags []string
	LabelAttrs      []string
}

// DefaultOptions returns the options matching the documented rules.
func DefaultOptions() Options {
	return Options{
		Marker:          DefaultMarker,
		RoleAttr:        DefaultRoleAttr,
		InteractiveTags: append([]string(nil), DefaultInteractiveTags...),
		LabelAttrs:      append([]string(nil), DefaultLabelAttrs...),
	}
}

func (o Options) withDefaults() Options {
	if o.Marker == "" {
		o.Marker = DefaultMarker
	}
	if o.RoleAttr == "" {
		o.RoleAttr = DefaultRoleAttr
	}
	if len(o.InteractiveTags) == 0 {
		o.InteractiveTags = DefaultInteractiveTags
	}
	if len(o.LabelAttrs) == 0 {
		o.LabelAttrs = DefaultLabelAttrs
	}
	return o
}

// Result is the outcome of classifying one tree.
type Result struct {
	Candidates []Candidate
	// Errors lists nodes that could not be inspected.
	Errors []NodeError
	// Marked counts interactive elements that already carry the marker.
	Marked int
}

// Classify walks root and returns the unmarked interactive elements in
// pre-order. Ordinals come from counter; a nil counter starts at zero.
func Classify(root markup.Node, counter *Counter, opts Options) Result {
	if counter == nil {
		counter = NewCounter(0)
	}
	opts = opts.withDefaults()
	w := &walker{
		opts:        opts,
		counter:     counter,
		interactive: make(map[string]bool, len(opts.InteractiveTags)),
	}
	for _, tag := range opts.InteractiveTags {
		w.interactive[strings.ToLower(tag)] = true
	}
	if root != nil {
		w.walk(root, nil)
	}
	return w.result
}

type walker struct {
	opts        Options
	counter     *Counter
	interactive map[string]bool
	result      Result
}

func (w *walker) walk(n markup.Node, path []int) {
	if n.Kind() == markup.KindElement {
		if err := w.visit(n); err != nil {
			w.result.Errors = append(w.result.Errors, NodeError{
				Path: append([]int(nil), path...),
				Line: safeLine(n),
				Err:  err,
			})
		}
	}
	for i, child := range n.Children() {
		if child == nil {
			continue
		}
		w.walk(child, append(path, i))
	}
}

// visit classifies a single element. A panic inside a node adapter is
// turned into an error so one malformed node cannot stop the scan.
func (w *walker) visit(n markup.Node) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errPanic, r)
		}
	}()

	tag, err := n.Tag()
	if err != nil {
		return fmt.Errorf("read tag: %w", err)
	}
	if tag == "" || isComponentRef(tag) {
		return nil
	}
	attrs, err := n.Attrs()
	if err != nil {
		return fmt.Errorf("read attributes of <%s>: %w", tag, err)
	}

	lower := strings.ToLower(tag)
	role, ok := w.role(lower, attrs)
	if !ok {
		return nil
	}
	if attrs.Has(w.opts.Marker) {
		w.result.Marked++
		return nil
	}

	w.result.Candidates = append(w.result.Candidates, Candidate{
		Tag:      lower,
		Role:     role,
		TextHint: w.labelHint(n, lower, attrs),
		Line:     n.Line(),
		Ordinal:  w.counter.Next(),
	})
	return nil
}

// role reports whether an element is interactive and the role to name it by.
func (w *walker) role(tag string, attrs markup.Attrs) (string, bool) {
	if w.interactive[tag] {
		return tag, true
	}
	if v, ok := attrs.Lookup(w.opts.RoleAttr); ok {
		if s, ok := v.Literal(); ok && strings.EqualFold(strings.TrimSpace(s), ButtonRole) {
			return ButtonRole, true
		}
	}
	return "", false
}

// labelHint picks the first non-empty of: direct text, the label attributes
// in priority order, the tag itself.
func (w *walker) labelHint(n markup.Node, tag string, attrs markup.Attrs) string {
	if text := directText(n); text != "" {
		return text
	}
	for _, name := range w.opts.LabelAttrs {
		if s := attrs.LiteralOf(name); s != "" {
			return s
		}
	}
	return tag
}

// directText returns the first non-blank text child, trimmed.
func directText(n markup.Node) string {
	for _, child := range n.Children() {
		if child == nil || child.Kind() != markup.KindText {
			continue
		}
		if s := strings.TrimSpace(child.Text()); s != "" {
			return s
		}
	}
	return ""
}

// isComponentRef reports whether tag names a reusable component (leading
// uppercase letter) rather than a primitive element.
func isComponentRef(tag string) bool {
	r, _ := utf8.DecodeRuneInString(tag)
	return unicode.IsUpper(r)
}

func safeLine(n markup.Node) (line int) {
	defer func() {
		if recover() != nil {
			line = 0
		}
	}()
	return n.Line()
}
