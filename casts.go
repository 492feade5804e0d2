package xpath

import (
	"math"
	"strconv"
	"strings"
)

// BooleanValue returns the value converted to a boolean: a node-set is true
// iff non-empty, a number iff nonzero and not NaN, a string iff non-empty.
func BooleanValue(v Value) bool {
	switch t := v.(type) {
	case NodeSet:
		return len(t) > 0
	case Boolean:
		return bool(t)
	case Number:
		f := float64(t)
		return f != 0 && !math.IsNaN(f)
	case String:
		return t != ""
	}
	return false
}

// NumberValue returns the value converted to a number. Strings parse per the
// XPath numeric literal grammar after trimming surrounding whitespace,
// anything else is NaN; a node-set converts through its string value.
func NumberValue(v Value) float64 {
	switch t := v.(type) {
	case NodeSet:
		return parseNumber(StringValue(t))
	case Boolean:
		if t {
			return 1
		}
		return 0
	case Number:
		return float64(t)
	case String:
		return parseNumber(string(t))
	}
	return math.NaN()
}

// StringValue returns the value converted to a string. A node-set converts
// to the string value of its first node in document order, or "" when empty.
func StringValue(v Value) string {
	switch t := v.(type) {
	case NodeSet:
		if len(t) == 0 {
			return ""
		}
		return NodeStringValue(t[0])
	case Boolean:
		return t.String()
	case Number:
		return FormatNumber(float64(t))
	case String:
		return string(t)
	}
	return ""
}

// NodeSetValue returns the value as a node-set. Unlike the other
// conversions there is no coercion: XPath defines none to node-set, so any
// other type is an error attributed to op.
func NodeSetValue(v Value, op string) (NodeSet, error) {
	if ns, ok := v.(NodeSet); ok {
		return ns, nil
	}
	return nil, ErrNotNodeSet.New(op, valueTypeName(v))
}

// NodeStringValue computes the string value of a single node: for elements
// and the document the concatenation of all descendant text nodes in
// document order, for every other kind its own content.
func NodeStringValue(n Node) string {
	switch n.Kind() {
	case DocumentNode, ElementNode:
		var sb strings.Builder
		appendTextContent(&sb, n)
		return sb.String()
	}
	return n.Value()
}

func appendTextContent(sb *strings.Builder, n Node) {
	for _, c := range n.Children() {
		switch c.Kind() {
		case TextNode:
			sb.WriteString(c.Value())
		case ElementNode:
			appendTextContent(sb, c)
		}
	}
}

// FormatNumber renders a number in the canonical XPath form: "NaN",
// "Infinity" and "-Infinity" for the special values, integers without a
// decimal point, and never exponent notation.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// parseNumber parses the XPath numeric literal grammar, extended with an
// optional leading minus sign: '-'? Digits ('.' Digits?)? | '-'? '.' Digits.
// Anything else, including a leading plus sign or exponent notation, is NaN.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	rest := strings.TrimPrefix(s, "-")
	digits := 0
	dots := 0
	for _, r := range rest {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return math.NaN()
		}
	}
	if digits == 0 || dots > 1 {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "."), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// xpathRound rounds half toward positive infinity, the rounding mode of both
// round() and numeric predicates.
func xpathRound(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	return math.Floor(f + 0.5)
}
