package markup

// StaticNode is a fully materialized Node. Parsers whose native trees are
// cheap to copy (HTML) build StaticNodes directly; tests use them to build
// fixtures by hand.
type StaticNode struct {
	NodeKind   Kind
	Name       string
	Attributes Attrs
	Content    string
	Nodes      []Node
	SourceLine int

	// TagErr and AttrErr simulate or carry per-node failures.
	TagErr  error
	AttrErr error
}

var _ Node = (*StaticNode)(nil)

func (n *StaticNode) Kind() Kind { return n.NodeKind }

func (n *StaticNode) Tag() (string, error) {
	if n.TagErr != nil {
		return "", n.TagErr
	}
	return n.Name, nil
}

func (n *StaticNode) Attrs() (Attrs, error) {
	if n.AttrErr != nil {
		return nil, n.AttrErr
	}
	return n.Attributes, nil
}

func (n *StaticNode) Text() string     { return n.Content }
func (n *StaticNode) Children() []Node { return n.Nodes }
func (n *StaticNode) Line() int        { return n.SourceLine }

// Element builds an element node.
func Element(tag string, attrs Attrs, children ...Node) *StaticNode {
	return &StaticNode{NodeKind: KindElement, Name: tag, Attributes: attrs, Nodes: children}
}

// TextNode builds a text node.
func TextNode(text string) *StaticNode {
	return &StaticNode{NodeKind: KindText, Content: text}
}

// Fragment builds a container node with no tag of its own, such as a
// document root.
func Fragment(children ...Node) *StaticNode {
	return &StaticNode{NodeKind: KindOther, Nodes: children}
}

// At sets the source line and returns the node for chaining.
func (n *StaticNode) At(line int) *StaticNode {
	n.SourceLine = line
	return n
}

// Lit is shorthand for a literal attribute.
func Lit(name, value string) Attr {
	return Attr{Name: name, Value: LiteralValue(value)}
}

// Dyn is shorthand for a dynamic attribute.
func Dyn(name string) Attr {
	return Attr{Name: name, Value: DynamicValue()}
}

// Bare is shorthand for a valueless attribute.
func Bare(name string) Attr {
	return Attr{Name: name, Value: AbsentValue()}
}
