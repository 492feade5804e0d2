package xpath

import (
	"fmt"
	"strconv"
	"strings"
)

// A Value is the result of evaluating an expression. It holds exactly one of
// the four XPath 1.0 types: NodeSet, Boolean, Number or String.
type Value interface {
	isValue()
}

// NodeSet is an ordered collection of nodes, unique by identity and sorted
// in document order whenever it is surfaced to a caller.
type NodeSet []Node

// Boolean is an XPath boolean value.
type Boolean bool

// Number is an IEEE-754 double. It doubles as the AST node for a numeric
// literal.
type Number float64

// String is an XPath string value. It doubles as the AST node for a string
// literal.
type String string

func (NodeSet) isValue() {}
func (Boolean) isValue() {}
func (Number) isValue()  {}
func (String) isValue()  {}

func (b Boolean) String() string {
	if b {
		return "true"
	}
	return "false"
}

func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

func (s String) String() string {
	return strconv.Quote(string(s))
}

// Axis is a named traversal direction from a context node.
type Axis int

const (
	Child Axis = iota
	Descendant
	Parent
	Ancestor
	FollowingSibling
	PrecedingSibling
	Following
	Preceding
	Attribute
	Namespace
	Self
	DescendantOrSelf
	AncestorOrSelf
)

var axisNames = []string{
	"child",
	"descendant",
	"parent",
	"ancestor",
	"following-sibling",
	"preceding-sibling",
	"following",
	"preceding",
	"attribute",
	"namespace",
	"self",
	"descendant-or-self",
	"ancestor-or-self",
}

func (a Axis) String() string {
	return axisNames[a]
}

var name2Axis = make(map[string]Axis)

func init() {
	for i, name := range axisNames {
		name2Axis[name] = Axis(i)
	}
}

// isReverse reports whether the axis enumerates candidates in reverse
// document order. This governs position() and last() numbering inside the
// predicates of a step along the axis.
func (a Axis) isReverse() bool {
	switch a {
	case Parent, Ancestor, AncestorOrSelf, PrecedingSibling, Preceding:
		return true
	}
	return false
}

// principalKind returns the node kind a name test along the axis selects.
func (a Axis) principalKind() NodeKind {
	switch a {
	case Attribute:
		return AttributeNode
	case Namespace:
		return NamespaceNode
	}
	return ElementNode
}

// Op is a binary operator.
type Op int

const (
	EQ Op = iota
	NEQ
	LT
	LTE
	GT
	GTE
	Add
	Subtract
	Multiply
	Mod
	Div
	And
	Or
	Union
)

var opNames = []string{"=", "!=", "<", "<=", ">", ">=", "+", "-", "*", "mod", "div", "and", "or", "|"}

func (op Op) String() string {
	return opNames[op]
}

// An Expr is a parsed expression, immutable after Parse returns. It holds
// one of the types *LocationPath, *BinaryExpr, *NegateExpr, *FilterExpr,
// *PathExpr, *VarRef, *FuncCall, Number or String.
type Expr interface{}

// BinaryExpr applies Op to the values of LHS and RHS.
type BinaryExpr struct {
	LHS Expr
	Op  Op
	RHS Expr
}

func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.LHS, b.Op, b.RHS)
}

// NegateExpr is the unary minus.
type NegateExpr struct {
	Expr Expr
}

func (n *NegateExpr) String() string {
	return fmt.Sprintf("-%s", n.Expr)
}

// LocationPath is a sequence of steps, optionally anchored at the document
// root.
type LocationPath struct {
	Abs   bool
	Steps []*Step
}

func (l *LocationPath) String() string {
	s := make([]string, len(l.Steps))
	for i, step := range l.Steps {
		s[i] = step.String()
	}
	joined := strings.Join(s, "/")
	if l.Abs {
		return "/" + joined
	}
	return joined
}

// Step selects candidates along Axis, narrows them by Test, then filters
// them predicate by predicate.
type Step struct {
	Axis       Axis
	Test       NodeTest
	Predicates []Expr
}

func (s *Step) String() string {
	return fmt.Sprintf("%v::%s%s", s.Axis, s.Test, predicatesString(s.Predicates))
}

// A NodeTest narrows the candidates of a step. It holds one of the types
// *NameTest, NodeTypeTest or PITest.
type NodeTest interface{}

// NameTest matches nodes of the principal kind of the axis by expanded name.
// A Local of "*" matches any name; a Prefix with Local "*" matches any name
// in the prefixed namespace.
type NameTest struct {
	Prefix string
	Local  string
}

func (nt *NameTest) String() string {
	if nt.Prefix == "" {
		return nt.Local
	}
	return nt.Prefix + ":" + nt.Local
}

// NodeTypeTest matches nodes of a fixed kind.
type NodeTypeTest int

const (
	// TestComment matches comment nodes.
	TestComment NodeTypeTest = iota
	// TestText matches text nodes.
	TestText
	// TestNode matches any node.
	TestNode
)

func (nt NodeTypeTest) String() string {
	switch nt {
	case TestComment:
		return "comment()"
	case TestText:
		return "text()"
	case TestNode:
		return "node()"
	}
	return "unknown()"
}

// PITest matches processing instructions, optionally by target.
type PITest string

func (pt PITest) String() string {
	if pt == "" {
		return "processing-instruction()"
	}
	return fmt.Sprintf("processing-instruction(%q)", string(pt))
}

// FilterExpr is a primary expression narrowed by predicates.
type FilterExpr struct {
	Primary    Expr
	Predicates []Expr
}

func (f *FilterExpr) String() string {
	return fmt.Sprintf("%s%s", f.Primary, predicatesString(f.Predicates))
}

// PathExpr continues a location path from the node-set value of Filter.
type PathExpr struct {
	Filter Expr
	Path   *LocationPath
}

func (p *PathExpr) String() string {
	return fmt.Sprintf("(%s)/%s", p.Filter, p.Path)
}

// VarRef resolves a variable by the name it was written with, including any
// prefix.
type VarRef struct {
	Name string
}

func (vr *VarRef) String() string {
	return "$" + vr.Name
}

// FuncCall invokes the function Local in the namespace bound to Prefix, with
// the values of Args.
type FuncCall struct {
	Prefix string
	Local  string
	Args   []Expr
}

func (fc *FuncCall) String() string {
	args := make([]string, len(fc.Args))
	for i, arg := range fc.Args {
		args[i] = fmt.Sprint(arg)
	}
	if fc.Prefix == "" {
		return fmt.Sprintf("%s(%s)", fc.Local, strings.Join(args, ", "))
	}
	return fmt.Sprintf("%s:%s(%s)", fc.Prefix, fc.Local, strings.Join(args, ", "))
}

func predicatesString(predicates []Expr) string {
	var sb strings.Builder
	for _, predicate := range predicates {
		fmt.Fprintf(&sb, "[%s]", predicate)
	}
	return sb.String()
}
