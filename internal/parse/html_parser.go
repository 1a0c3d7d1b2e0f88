package parse

import (
	"bytes"
	"context"

	"golang.org/x/net/html"

	"testhook/internal/markup"
)

// HTMLParser parses plain HTML documents with golang.org/x/net/html.
//
// The HTML tokenizer lowercases tag names and does not report positions,
// so every node has Line 0 and no HTML element is a component reference.
type HTMLParser struct{}

// NewHTMLParser creates an HTML parser.
func NewHTMLParser() *HTMLParser {
	return &HTMLParser{}
}

// Language returns "html".
func (p *HTMLParser) Language() string {
	return "html"
}

// SupportedExtensions returns the HTML extensions.
func (p *HTMLParser) SupportedExtensions() []string {
	return []string{".html", ".htm"}
}

// Parse builds a static markup tree from the document.
func (p *HTMLParser) Parse(ctx context.Context, path string, content []byte) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	return NewDocument(path, p.Language(), convertHTML(doc), nil), nil
}

// convertHTML copies the x/net/html tree into StaticNodes, dropping
// comments and doctypes.
func convertHTML(n *html.Node) *markup.StaticNode {
	var out *markup.StaticNode
	switch n.Type {
	case html.ElementNode:
		attrs := make(markup.Attrs, 0, len(n.Attr))
		for _, a := range n.Attr {
			name := a.Key
			if a.Namespace != "" {
				name = a.Namespace + ":" + a.Key
			}
			value := markup.LiteralValue(a.Val)
			if a.Val == "" {
				value = markup.AbsentValue()
			}
			attrs = append(attrs, markup.Attr{Name: name, Value: value})
		}
		out = markup.Element(n.Data, attrs)
	case html.TextNode:
		return markup.TextNode(n.Data)
	default:
		out = markup.Fragment()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.CommentNode || c.Type == html.DoctypeNode {
			continue
		}
		out.Nodes = append(out.Nodes, convertHTML(c))
	}
	return out
}
