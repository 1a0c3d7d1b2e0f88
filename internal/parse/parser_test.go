package parse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testhook/internal/classify"
	"testhook/internal/markup"
)

const formJSX = `import React from "react";

export function Form({ onSave, label, items }) {
  return (
    <form>
      <button onClick={onSave}>Submit Form</button>
      <a href="/docs">Learn More</a>
      <input aria-label="Email address" />
      <div role="button">Custom Button</div>
      <MyButton role="button">Ignored</MyButton>
      <button data-testid="done">Done</button>
      <input placeholder={label} title={"Search"} />
      {items.map((item) => <a key={item.id} href={item.href}>{item.name}</a>)}
    </form>
  );
}
`

func parseAndClassify(t *testing.T, p TreeParser, path, src string) classify.Result {
	t.Helper()
	doc, err := p.Parse(context.Background(), path, []byte(src))
	require.NoError(t, err)
	defer doc.Close()
	return classify.Classify(doc.Root, nil, classify.DefaultOptions())
}

func TestJSXParser_Form(t *testing.T) {
	res := parseAndClassify(t, NewJSXParser(), "src/Form.jsx", formJSX)

	type row struct {
		Tag, Role, Hint string
		Line, Ordinal   int
	}
	var got []row
	for _, c := range res.Candidates {
		got = append(got, row{c.Tag, c.Role, c.TextHint, c.Line, c.Ordinal})
	}
	assert.Equal(t, []row{
		{"button", "button", "Submit Form", 6, 0},
		{"a", "a", "Learn More", 7, 1},
		{"input", "input", "Email address", 8, 2},
		{"div", "button", "Custom Button", 9, 3},
		{"input", "input", "Search", 12, 4},
		{"a", "a", "a", 13, 5},
	}, got)
	assert.Equal(t, 1, res.Marked)
	assert.Empty(t, res.Errors)
}

func TestJSXParser_TSX(t *testing.T) {
	src := `type Props = { onClose: () => void };

export const Dialog = ({ onClose }: Props) => (
  <section>
    <button aria-label="Close dialog" onClick={onClose} />
    <select title={` + "`Country`" + `}></select>
    <>
      <textarea placeholder='Notes'></textarea>
    </>
  </section>
);
`
	res := parseAndClassify(t, NewJSXParser(), "Dialog.tsx", src)
	require.Len(t, res.Candidates, 3)
	assert.Equal(t, "Close dialog", res.Candidates[0].TextHint)
	assert.Equal(t, "Country", res.Candidates[1].TextHint)
	assert.Equal(t, "textarea", res.Candidates[2].Tag)
	assert.Equal(t, "Notes", res.Candidates[2].TextHint)
}

func TestJSXParser_AttributeValues(t *testing.T) {
	src := `const el = <input disabled data-kind="plain" title={"quoted \"x\""} alt={` + "`tpl ${v}`" + `} id={someId} />;`
	doc, err := NewJSXParser().Parse(context.Background(), "a.js", []byte(src))
	require.NoError(t, err)
	defer doc.Close()

	input := findElement(t, doc.Root, "input")
	attrs, err := input.Attrs()
	require.NoError(t, err)

	v, ok := attrs.Lookup("disabled")
	require.True(t, ok)
	assert.Equal(t, markup.Absent, v.Kind())

	assert.Equal(t, "plain", attrs.LiteralOf("data-kind"))
	assert.Equal(t, `quoted "x"`, attrs.LiteralOf("title"))

	v, _ = attrs.Lookup("alt")
	assert.Equal(t, markup.Dynamic, v.Kind(), "template with substitution is dynamic")
	v, _ = attrs.Lookup("id")
	assert.Equal(t, markup.Dynamic, v.Kind())
}

func TestJSXParser_ExpressionText(t *testing.T) {
	src := `const b = <button>{"Buy now"}</button>;
const c = <button title={"Tip"}>{count}</button>;`
	res := parseAndClassify(t, NewJSXParser(), "b.jsx", src)
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, "Buy now", res.Candidates[0].TextHint)
	assert.Equal(t, "Tip", res.Candidates[1].TextHint, "attribute expressions never count as text")
}

func TestJSXParser_RenderPropsAreScanned(t *testing.T) {
	src := `const t = <Toolbar left={<button>Back</button>} {...rest}><a>Next</a></Toolbar>;`
	res := parseAndClassify(t, NewJSXParser(), "t.jsx", src)
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, "Back", res.Candidates[0].TextHint)
	assert.Equal(t, "Next", res.Candidates[1].TextHint)
}

func TestJSXParser_SyntaxErrorsStayLocal(t *testing.T) {
	src := `const x = (
  <div>
    <button>Ok</button>
  </div>
);
const y = ) (;
`
	res := parseAndClassify(t, NewJSXParser(), "broken.jsx", src)

	var hints []string
	for _, c := range res.Candidates {
		hints = append(hints, c.TextHint)
	}
	assert.Contains(t, hints, "Ok")
	for _, e := range res.Errors {
		assert.ErrorIs(t, e, ErrSyntax)
	}
}

func TestJSXParser_EntitiesInText(t *testing.T) {
	res := parseAndClassify(t, NewJSXParser(), "e.jsx", `const e = <a>Terms&nbsp;of use</a>;
const f = <button>&amp; Save</button>;
const g = <button>Fish &amp; Chips {count}</button>;`)
	require.Len(t, res.Candidates, 3)
	assert.Equal(t, "Terms\u00a0of use", res.Candidates[0].TextHint)
	assert.Equal(t, "& Save", res.Candidates[1].TextHint)
	assert.Equal(t, "Fish & Chips", res.Candidates[2].TextHint)
}

func TestJSXParser_Lines(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []int
	}{
		{
			name: "nested",
			src:  "const Y = (\n  <div>\n    <a>L3</a>\n  </div>\n);",
			want: []int{3},
		},
		{
			name: "blank lines between siblings",
			src: `const Z = (
  <nav>
    <a href="/">Home</a>


    <button>Menu</button>

    <input placeholder="Search" />
  </nav>
);`,
			want: []int{3, 6, 8},
		},
		{
			name: "child on the parent line",
			src: `const W = (
  <form><button>Go</button>
    <label><input title="Name" /></label>
  </form>
);`,
			want: []int{2, 3},
		},
		{
			name: "top level",
			src:  `const V = <button>One</button>;`,
			want: []int{1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parseAndClassify(t, NewJSXParser(), "l.jsx", tt.src)
			var got []int
			for _, c := range res.Candidates {
				got = append(got, c.Line)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHTMLParser(t *testing.T) {
	src := `<!doctype html>
<html><body>
<!-- a comment -->
<button>Save</button>
<a href="/x" title="Home">   </a>
<input disabled data-testid="">
<div role="button" aria-label="Menu"></div>
<select><option>One</option></select>
</body></html>`

	res := parseAndClassify(t, NewHTMLParser(), "index.html", src)

	require.Len(t, res.Candidates, 4)
	assert.Equal(t, "Save", res.Candidates[0].TextHint)
	assert.Equal(t, "Home", res.Candidates[1].TextHint)
	assert.Equal(t, "div", res.Candidates[2].Tag)
	assert.Equal(t, "button", res.Candidates[2].Role)
	assert.Equal(t, "Menu", res.Candidates[2].TextHint)
	assert.Equal(t, "select", res.Candidates[3].TextHint)
	assert.Equal(t, 0, res.Candidates[0].Line)
	assert.Equal(t, 1, res.Marked)
}

func TestHTMLParser_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHTMLParser().Parse(ctx, "x.html", []byte("<p></p>"))
	assert.ErrorIs(t, err, context.Canceled)
}

func findElement(t *testing.T, n markup.Node, tag string) markup.Node {
	t.Helper()
	var found markup.Node
	var walk func(markup.Node)
	walk = func(n markup.Node) {
		if found != nil {
			return
		}
		if n.Kind() == markup.KindElement {
			if name, err := n.Tag(); err == nil && name == tag {
				found = n
				return
			}
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(n)
	require.NotNil(t, found, "element <%s> not found", tag)
	return found
}
