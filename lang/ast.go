package lang

import (
	"strconv"
	"strings"
)

// Position identifies a location in template source.
// Line and Column are 1-based; Offset is a 0-based byte index.
type Position struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

// String returns the position formatted as "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Template is a compiled template.
//
// A Template is immutable once returned by the parser and may be rendered
// concurrently from any number of goroutines.
type Template struct {
	Name  string
	Nodes []Node

	source string
}

// Source returns the original source text the template was parsed from.
func (t *Template) Source() string { return t.source }

// Node is an element of a template's syntax tree.
//
// The set of node types is closed: [*Text], [*Variable], [*Section],
// [*Partial], [*Comment], [*RawBlock], [*Delimiters], and [*InlinePartial].
type Node interface {
	// Pos returns the position of the node in the template source.
	Pos() Position
	// Text returns the normalized source form of the node.
	Text() string

	node()
}

// Trim records the whitespace control markers of a tag.
type Trim struct {
	Left  bool `json:"left,omitempty"`  // {{~
	Right bool `json:"right,omitempty"` // ~}}
}

// Text is literal template content.
type Text struct {
	// Value is the content written to the output: whitespace removed by
	// standalone or "~" trimming is excluded and escaped delimiters are
	// decoded.
	Value string
	// Source is the content as written in the template.
	Source string

	Position Position
}

// Variable is a mustache tag that writes the value of a path or helper call.
type Variable struct {
	Call *Call
	// Unescaped is set for triple-mustache and ampersand tags.
	Unescaped bool
	// Ampersand is set for "{{& x}}" tags.
	Ampersand bool
	Trim      Trim
	Source    string

	Position Position
}

// Section is a block tag: "{{#x}}…{{/x}}" or inverted "{{^x}}…{{/x}}".
type Section struct {
	Call        *Call
	Inverted    bool
	Body        []Node
	Inverse     []Node
	BlockParams []string
	// ElseChain is set on a section created by "{{else name …}}".
	// It has no close tag of its own.
	ElseChain bool

	OpenTrim  Trim
	ElseTrim  Trim
	CloseTrim Trim

	Open  string // source of the opening tag
	Else  string // source of the plain "{{else}}" tag, if any
	Close string // source of the closing tag

	Position Position
}

// Partial is a partial inclusion: "{{> name}}" or block "{{#> name}}…{{/name}}".
type Partial struct {
	// Name is the static name of the partial, empty if Dynamic is set.
	Name string
	// Dynamic is the sub-expression yielding the partial name.
	Dynamic *SubExpr
	// Context overrides the context the partial is rendered with.
	Context Param
	Hash    []HashPair
	// Indent is the indentation of a standalone partial tag, applied to every
	// line of the partial's output.
	Indent string

	// IsBlock is set for partial blocks; Block is their content.
	IsBlock bool
	Block   []Node

	OpenTrim  Trim
	CloseTrim Trim

	Open  string
	Close string

	Position Position
}

// Comment is a comment tag, which produces no output.
type Comment struct {
	Value string
	// Long is set for "{{!-- … --}}" comments.
	Long   bool
	Trim   Trim
	Source string

	Position Position
}

// RawBlock is "{{{{name}}}}…{{{{/name}}}}", whose body is not interpreted.
type RawBlock struct {
	Call *Call
	Body string

	Open  string
	Close string

	Position Position
}

// Delimiters is a set-delimiter tag "{{=<% %>=}}".
type Delimiters struct {
	Start  string
	End    string
	Source string

	Position Position
}

// InlinePartial is "{{#*inline "name"}}…{{/inline}}", which registers a
// partial visible to the remainder of the enclosing template.
type InlinePartial struct {
	Name string
	Body []Node

	OpenTrim  Trim
	CloseTrim Trim

	Open  string
	Close string

	Position Position
}

func (*Text) node()          {}
func (*Variable) node()      {}
func (*Section) node()       {}
func (*Partial) node()       {}
func (*Comment) node()       {}
func (*RawBlock) node()      {}
func (*Delimiters) node()    {}
func (*InlinePartial) node() {}

// Pos implements [Node].
func (n *Text) Pos() Position { return n.Position }

// Pos implements [Node].
func (n *Variable) Pos() Position { return n.Position }

// Pos implements [Node].
func (n *Section) Pos() Position { return n.Position }

// Pos implements [Node].
func (n *Partial) Pos() Position { return n.Position }

// Pos implements [Node].
func (n *Comment) Pos() Position { return n.Position }

// Pos implements [Node].
func (n *RawBlock) Pos() Position { return n.Position }

// Pos implements [Node].
func (n *Delimiters) Pos() Position { return n.Position }

// Pos implements [Node].
func (n *InlinePartial) Pos() Position { return n.Position }

// Text implements [Node].
func (n *Text) Text() string { return n.Source }

// Text implements [Node].
func (n *Variable) Text() string { return n.Source }

// Text implements [Node].
func (n *Section) Text() string {
	return n.Open + nodesText(n.Body) + n.Else + nodesText(n.Inverse) + n.Close
}

// Text implements [Node].
func (n *Partial) Text() string {
	return n.Open + nodesText(n.Block) + n.Close
}

// Text implements [Node].
func (n *Comment) Text() string { return n.Source }

// Text implements [Node].
func (n *RawBlock) Text() string { return n.Open + n.Body + n.Close }

// Text implements [Node].
func (n *Delimiters) Text() string { return n.Source }

// Text implements [Node].
func (n *InlinePartial) Text() string {
	return n.Open + nodesText(n.Body) + n.Close
}

// Text returns the normalized source form of the template.
// Parsing the result yields an equivalent template.
func (t *Template) Text() string { return nodesText(t.Nodes) }

func nodesText(nodes []Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(n.Text())
	}

	return sb.String()
}

// Call is a path or helper invocation with positional and hash arguments.
type Call struct {
	Name   *Path
	Params []Param
	Hash   []HashPair
}

// HashPair is a "key=value" argument.
type HashPair struct {
	Key   string
	Value Param
}

// IsSimple reports whether the call is a bare path with no arguments.
func (c *Call) IsSimple() bool {
	return len(c.Params) == 0 && len(c.Hash) == 0
}

// String returns the call in template syntax.
func (c *Call) String() string {
	part := make([]string, 0, 1+len(c.Params)+len(c.Hash))
	part = append(part, c.Name.String())

	for _, p := range c.Params {
		part = append(part, p.String())
	}

	for _, h := range c.Hash {
		part = append(part, h.Key+"="+h.Value.String())
	}

	return strings.Join(part, " ")
}

// Param is an argument of a call: [*Path], [*Literal], or [*SubExpr].
type Param interface {
	String() string

	param()
}

// SubExpr is a parenthesized helper call used as an argument.
type SubExpr struct {
	Call *Call
}

// String returns the sub-expression in template syntax.
func (s *SubExpr) String() string { return "(" + s.Call.String() + ")" }

// LiteralKind classifies a [Literal].
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralBoolean
	LiteralNull
	LiteralUndefined
)

// String returns the name of the literal kind.
func (k LiteralKind) String() string {
	switch k {
	case LiteralString:
		return "string"
	case LiteralNumber:
		return "number"
	case LiteralBoolean:
		return "boolean"
	case LiteralNull:
		return "null"
	case LiteralUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// Literal is a constant argument.
type Literal struct {
	Kind LiteralKind
	// Value is a string, int64, float64, bool, or nil.
	Value  any
	Source string
}

// String returns the literal as written.
func (l *Literal) String() string { return l.Source }

func (*Path) param()    {}
func (*Literal) param() {}
func (*SubExpr) param() {}
