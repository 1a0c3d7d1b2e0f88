package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_Literal(t *testing.T) {
	s, ok := LiteralValue("Save").Literal()
	assert.True(t, ok)
	assert.Equal(t, "Save", s)

	_, ok = DynamicValue().Literal()
	assert.False(t, ok)

	_, ok = AbsentValue().Literal()
	assert.False(t, ok)

	var zero Value
	assert.Equal(t, Absent, zero.Kind())
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, `"x"`, LiteralValue("x").String())
	assert.Equal(t, "<dynamic>", DynamicValue().String())
	assert.Equal(t, "<absent>", AbsentValue().String())
}

func TestAttrs_Lookup(t *testing.T) {
	attrs := Attrs{
		Bare("disabled"),
		Lit("aria-label", "  Close dialog "),
		Dyn("title"),
		Lit("aria-label", "second"),
	}

	v, ok := attrs.Lookup("disabled")
	assert.True(t, ok, "valueless attribute is present")
	assert.Equal(t, Absent, v.Kind())

	_, ok = attrs.Lookup("placeholder")
	assert.False(t, ok)

	assert.True(t, attrs.Has("title"))
	assert.False(t, attrs.Has("alt"))

	assert.Equal(t, "Close dialog", attrs.LiteralOf("aria-label"), "first match wins and is trimmed")
	assert.Equal(t, "", attrs.LiteralOf("title"), "dynamic values are not literal")
	assert.Equal(t, "", attrs.LiteralOf("disabled"))
	assert.Equal(t, "", attrs.LiteralOf("missing"))
}

func TestStaticNode(t *testing.T) {
	n := Element("button", Attrs{Lit("type", "submit")}, TextNode("Go")).At(7)

	assert.Equal(t, KindElement, n.Kind())
	tag, err := n.Tag()
	assert.NoError(t, err)
	assert.Equal(t, "button", tag)
	assert.Equal(t, 7, n.Line())
	assert.Len(t, n.Children(), 1)
	assert.Equal(t, "Go", n.Children()[0].Text())
	assert.Equal(t, KindOther, Fragment().Kind())
}
