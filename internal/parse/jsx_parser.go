package parse

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"golang.org/x/net/html"

	"testhook/internal/markup"
)

// Tree-sitter node types of the JSX grammar extension.
const (
	nodeJSXElement     = "jsx_element"
	nodeJSXSelfClosing = "jsx_self_closing_element"
	nodeJSXOpening     = "jsx_opening_element"
	nodeJSXClosing     = "jsx_closing_element"
	nodeJSXText        = "jsx_text"
	nodeCharReference  = "html_character_reference"
	nodeJSXExpression  = "jsx_expression"
	nodeJSXAttribute   = "jsx_attribute"
	nodeString         = "string"
	nodeTemplateString = "template_string"
	nodeTemplateSubst  = "template_substitution"
	nodeError          = "ERROR"
)

// JSXParser parses JavaScript and TSX sources with tree-sitter and exposes
// their JSX elements as markup nodes. Non-JSX syntax is kept as opaque
// KindOther nodes so elements nested in functions, conditionals and
// callbacks are still reached.
type JSXParser struct{}

// NewJSXParser creates a JSX parser. Grammar parsers are created per call,
// so one JSXParser may be used from several goroutines.
func NewJSXParser() *JSXParser {
	return &JSXParser{}
}

// Language returns "jsx".
func (p *JSXParser) Language() string {
	return "jsx"
}

// SupportedExtensions returns the JavaScript and TSX extensions.
func (p *JSXParser) SupportedExtensions() []string {
	return []string{".jsx", ".js", ".mjs", ".cjs", ".tsx"}
}

// Parse builds the tree-sitter tree for content.
func (p *JSXParser) Parse(ctx context.Context, path string, content []byte) (*Document, error) {
	parser := sitter.NewParser()
	// .tsx needs the tsx grammar; the plain typescript grammar rejects JSX.
	if strings.EqualFold(filepath.Ext(path), ".tsx") {
		parser.SetLanguage(tsx.GetLanguage())
	} else {
		parser.SetLanguage(javascript.GetLanguage())
	}

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		parser.Close()
		return nil, err
	}
	root := &jsxNode{n: tree.RootNode(), src: content}
	return NewDocument(path, p.Language(), root, func() {
		tree.Close()
		parser.Close()
	}), nil
}

// jsxNode adapts a tree-sitter node. Children are built lazily and cached.
type jsxNode struct {
	n   *sitter.Node
	src []byte
	// opaque forces KindOther, used for expression-valued attributes so a
	// string expression there is never mistaken for element text.
	opaque   bool
	children []markup.Node
	built    bool
}

var _ markup.Node = (*jsxNode)(nil)

func (j *jsxNode) Kind() markup.Kind {
	if j.opaque {
		return markup.KindOther
	}
	switch j.n.Type() {
	case nodeJSXElement, nodeJSXSelfClosing, nodeError:
		return markup.KindElement
	case nodeJSXText:
		return markup.KindText
	case nodeJSXExpression:
		if _, ok := stringExpression(j.n, j.src); ok {
			return markup.KindText
		}
	}
	if j.n.IsMissing() {
		return markup.KindElement
	}
	return markup.KindOther
}

func (j *jsxNode) Tag() (string, error) {
	if j.n.Type() == nodeError {
		return "", fmt.Errorf("%w at line %d", ErrSyntax, j.Line())
	}
	if j.n.IsMissing() {
		return "", fmt.Errorf("%w: missing %s at line %d", ErrSyntax, j.n.Type(), j.Line())
	}
	head := j.head()
	if head == nil {
		return "", fmt.Errorf("%w: element without opening tag at line %d", ErrSyntax, j.Line())
	}
	name := tagName(head)
	if name == nil {
		// <>...</> fragment
		return "", nil
	}
	return strings.TrimSpace(name.Content(j.src)), nil
}

func (j *jsxNode) Attrs() (markup.Attrs, error) {
	head := j.head()
	if head == nil {
		return nil, nil
	}
	var attrs markup.Attrs
	for i := 0; i < int(head.NamedChildCount()); i++ {
		child := head.NamedChild(i)
		if child.Type() != nodeJSXAttribute {
			continue
		}
		attr, err := j.attribute(child)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

func (j *jsxNode) attribute(n *sitter.Node) (markup.Attr, error) {
	if n.NamedChildCount() == 0 {
		return markup.Attr{}, fmt.Errorf("%w: attribute without name at line %d", ErrSyntax, int(n.StartPoint().Row)+1)
	}
	attr := markup.Attr{Name: n.NamedChild(0).Content(j.src)}
	if n.NamedChildCount() < 2 {
		return attr, nil
	}
	value := n.NamedChild(1)
	switch value.Type() {
	case nodeString:
		attr.Value = markup.LiteralValue(unquote(value.Content(j.src)))
	case nodeJSXExpression:
		if s, ok := stringExpression(value, j.src); ok {
			attr.Value = markup.LiteralValue(s)
		} else {
			attr.Value = markup.DynamicValue()
		}
	default:
		attr.Value = markup.DynamicValue()
	}
	return attr, nil
}

func (j *jsxNode) Text() string {
	switch j.n.Type() {
	case nodeJSXText:
		return html.UnescapeString(j.n.Content(j.src))
	case nodeJSXExpression:
		s, _ := stringExpression(j.n, j.src)
		return s
	}
	return ""
}

func (j *jsxNode) Children() []markup.Node {
	if j.built {
		return j.children
	}
	j.built = true

	if j.opaque {
		j.children = j.wrapNamed(j.n)
		return j.children
	}
	switch j.Kind() {
	case markup.KindText:
		return nil
	}
	switch j.n.Type() {
	case nodeJSXElement:
		if head := j.head(); head != nil {
			j.children = j.attributeChildren(head)
		}
		j.children = append(j.children, j.elementChildren()...)
	case nodeJSXSelfClosing:
		j.children = j.attributeChildren(j.n)
	default:
		j.children = j.wrapNamed(j.n)
	}
	return j.children
}

// attributeChildren exposes expression-valued attributes and spreads, which
// may themselves contain JSX (render props, icon={<svg/>}).
func (j *jsxNode) attributeChildren(head *sitter.Node) []markup.Node {
	var out []markup.Node
	for i := 0; i < int(head.NamedChildCount()); i++ {
		child := head.NamedChild(i)
		switch child.Type() {
		case nodeJSXExpression:
			out = append(out, &jsxNode{n: child, src: j.src, opaque: true})
		case nodeJSXAttribute:
			if child.NamedChildCount() < 2 {
				continue
			}
			value := child.NamedChild(1)
			switch value.Type() {
			case nodeString:
			case nodeJSXExpression:
				out = append(out, &jsxNode{n: value, src: j.src, opaque: true})
			default:
				out = append(out, &jsxNode{n: value, src: j.src})
			}
		}
	}
	return out
}

// elementChildren wraps the children of a jsx_element. Adjacent jsx_text
// and character reference nodes ("Terms &amp; Conditions") are merged into
// one text node so entities stay part of the label.
func (j *jsxNode) elementChildren() []markup.Node {
	var out []markup.Node
	var first, last *sitter.Node
	flush := func() {
		if first == nil {
			return
		}
		text := html.UnescapeString(string(j.src[first.StartByte():last.EndByte()]))
		out = append(out, markup.TextNode(text).At(int(first.StartPoint().Row)+1))
		first, last = nil, nil
	}
	for i := 0; i < int(j.n.NamedChildCount()); i++ {
		child := j.n.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case nodeJSXOpening, nodeJSXClosing:
			continue
		case nodeJSXText, nodeCharReference:
			if first == nil {
				first = child
			}
			last = child
			continue
		}
		flush()
		out = append(out, &jsxNode{n: child, src: j.src})
	}
	flush()
	return out
}

func (j *jsxNode) wrapNamed(n *sitter.Node) []markup.Node {
	count := int(n.NamedChildCount())
	out := make([]markup.Node, 0, count)
	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		out = append(out, &jsxNode{n: child, src: j.src})
	}
	return out
}

// Line reports the row of the tag name for elements. A nested element node
// starts at the whitespace before its "<", which may be lines earlier.
func (j *jsxNode) Line() int {
	if !j.opaque {
		switch j.n.Type() {
		case nodeJSXElement, nodeJSXSelfClosing:
			if head := j.head(); head != nil {
				if name := tagName(head); name != nil {
					return int(name.StartPoint().Row) + 1
				}
			}
		}
	}
	return int(j.n.StartPoint().Row) + 1
}

// head returns the node holding the tag name and attributes.
func (j *jsxNode) head() *sitter.Node {
	switch j.n.Type() {
	case nodeJSXSelfClosing:
		return j.n
	case nodeJSXElement:
		if open := j.n.ChildByFieldName("open_tag"); open != nil {
			return open
		}
		for i := 0; i < int(j.n.NamedChildCount()); i++ {
			if child := j.n.NamedChild(i); child.Type() == nodeJSXOpening {
				return child
			}
		}
	}
	return nil
}

// tagName finds the element name of an opening or self-closing tag.
func tagName(head *sitter.Node) *sitter.Node {
	if name := head.ChildByFieldName("name"); name != nil {
		return name
	}
	for i := 0; i < int(head.NamedChildCount()); i++ {
		child := head.NamedChild(i)
		switch child.Type() {
		case "identifier", "member_expression", "nested_identifier", "jsx_namespace_name", "property_identifier":
			return child
		}
	}
	return nil
}

// stringExpression reports whether a {...} expression holds only a string
// literal or a template literal without substitutions, and returns it.
func stringExpression(n *sitter.Node, src []byte) (string, bool) {
	if n.NamedChildCount() != 1 {
		return "", false
	}
	inner := n.NamedChild(0)
	switch inner.Type() {
	case nodeString:
		return jsUnescape(unquote(inner.Content(src))), true
	case nodeTemplateString:
		for i := 0; i < int(inner.NamedChildCount()); i++ {
			if inner.NamedChild(i).Type() == nodeTemplateSubst {
				return "", false
			}
		}
		return unquote(inner.Content(src)), true
	}
	return "", false
}

func unquote(s string) string {
	if len(s) >= 2 {
		switch s[0] {
		case '"', '\'', '`':
			if s[len(s)-1] == s[0] {
				return s[1 : len(s)-1]
			}
		}
	}
	return s
}

var jsEscapes = strings.NewReplacer(`\"`, `"`, `\'`, `'`, `\\`, `\`, `\n`, "\n", `\t`, "\t")

func jsUnescape(s string) string {
	return jsEscapes.Replace(s)
}
