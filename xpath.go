// Package xpath parses and evaluates XPath 1.0 expressions against any
// document tree that implements the Node interface. Parse compiles an
// expression once; an Evaluator carries variable bindings, namespace
// declarations and extension functions across evaluations. The Select
// helpers cover the common one-shot case:
//
//	doc, err := xmltree.ParseString(`<a><b>1</b><b>2</b></a>`)
//	nodes, err := xpath.SelectNodes("/a/b[2]", doc)
//
// The four value types of the language map to NodeSet, Boolean, Number and
// String; arithmetic follows IEEE-754, so 1 div 0 is Infinity and 0 div 0 is
// NaN rather than an error.
package xpath

// MustParse is like Parse but panics on a parse error. It is intended for
// expressions fixed at compile time.
func MustParse(expr string) Expr {
	e, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return e
}

func selectValue(expr string, contextNode Node) (Value, error) {
	e, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return NewEvaluator().Evaluate(e, contextNode)
}

// SelectNodes parses and evaluates an expression whose value is a node-set,
// returned in document order.
func SelectNodes(expr string, contextNode Node) (NodeSet, error) {
	v, err := selectValue(expr, contextNode)
	if err != nil {
		return nil, err
	}
	return NodeSetValue(v, "SelectNodes")
}

// SelectBoolean parses and evaluates an expression and converts the value
// to a boolean.
func SelectBoolean(expr string, contextNode Node) (bool, error) {
	v, err := selectValue(expr, contextNode)
	if err != nil {
		return false, err
	}
	return BooleanValue(v), nil
}

// SelectNumber parses and evaluates an expression and converts the value to
// a number.
func SelectNumber(expr string, contextNode Node) (float64, error) {
	v, err := selectValue(expr, contextNode)
	if err != nil {
		return 0, err
	}
	return NumberValue(v), nil
}

// SelectString parses and evaluates an expression and converts the value to
// a string.
func SelectString(expr string, contextNode Node) (string, error) {
	v, err := selectValue(expr, contextNode)
	if err != nil {
		return "", err
	}
	return StringValue(v), nil
}
