// Package markup defines the parsed-tree abstraction the classifier walks.
//
// Parsers for concrete syntaxes (JSX via tree-sitter, HTML via x/net/html)
// adapt their native trees to Node, so classification never depends on a
// particular grammar.
package markup

import "strings"

// Kind classifies a tree node.
type Kind uint8

const (
	KindOther Kind = iota
	KindElement
	KindText
)

// Node is one vertex of a parsed markup tree.
//
// Tag and Attrs may fail on malformed input; callers treat such failures as
// local to the node and keep walking its children.
type Node interface {
	Kind() Kind
	// Tag returns the tag identifier as written, case preserved.
	Tag() (string, error)
	// Attrs returns the attributes in source order.
	Attrs() (Attrs, error)
	// Text returns the literal text of a KindText node.
	Text() string
	// Children returns the child nodes in source order.
	Children() []Node
	// Line returns the 1-based source line, or 0 when unknown.
	Line() int
}

// Attr is a single name/value attribute pair.
type Attr struct {
	Name  string
	Value Value
}

// Attrs is an ordered attribute list.
type Attrs []Attr

// Lookup returns the value of the first attribute called name. The boolean
// is false when the attribute is not present at all, which differs from a
// present attribute with an Absent value.
func (a Attrs) Lookup(name string) (Value, bool) {
	for _, attr := range a {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return Value{}, false
}

// Has reports whether an attribute called name is present.
func (a Attrs) Has(name string) bool {
	_, ok := a.Lookup(name)
	return ok
}

// LiteralOf returns the trimmed literal value of name, or "" when the
// attribute is missing, valueless or dynamic.
func (a Attrs) LiteralOf(name string) string {
	v, ok := a.Lookup(name)
	if !ok {
		return ""
	}
	s, ok := v.Literal()
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
