package markup

// ValueKind tells whether an attribute value is statically known.
type ValueKind uint8

const (
	// Absent: the attribute has no value (`<input disabled>`) or is missing.
	Absent ValueKind = iota
	// Literal: a plain string known at parse time.
	Literal
	// Dynamic: an expression whose value is only known at runtime.
	Dynamic
)

// String returns the lowercase name of the kind.
func (k ValueKind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Dynamic:
		return "dynamic"
	default:
		return "absent"
	}
}

// Value is an attribute value: Literal(string), Dynamic or Absent.
// The zero Value is Absent.
type Value struct {
	kind ValueKind
	lit  string
}

// LiteralValue wraps a statically known string.
func LiteralValue(s string) Value {
	return Value{kind: Literal, lit: s}
}

// DynamicValue marks an expression-valued attribute.
func DynamicValue() Value {
	return Value{kind: Dynamic}
}

// AbsentValue is the value of a bare attribute.
func AbsentValue() Value {
	return Value{}
}

// Kind returns the value kind.
func (v Value) Kind() ValueKind {
	return v.kind
}

// Literal reports whether the value carries a statically known string and
// returns it.
func (v Value) Literal() (string, bool) {
	if v.kind != Literal {
		return "", false
	}
	return v.lit, true
}

// String renders the value for logs and test failure messages.
func (v Value) String() string {
	if v.kind == Literal {
		return `"` + v.lit + `"`
	}
	return "<" + v.kind.String() + ">"
}
