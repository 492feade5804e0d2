package xpath

import (
	"fmt"
	"math"
)

// Evaluator holds the static context of an evaluation: variable bindings,
// namespace declarations and extension functions. The zero value is ready to
// use and resolves the core function library only.
type Evaluator struct {
	// Variables binds variable references by the name they are written
	// with, including any prefix.
	Variables map[string]Value
	// Namespaces maps prefixes to namespace URIs for name tests and
	// prefixed function calls.
	Namespaces map[string]string

	functions map[string]*Function
}

// NewEvaluator returns an evaluator with empty variable and namespace
// bindings.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		Variables:  make(map[string]Value),
		Namespaces: make(map[string]string),
	}
}

// RegisterFunction makes fn callable from expressions evaluated by this
// evaluator. It shadows a package-level function with the same expanded
// name.
func (ev *Evaluator) RegisterFunction(fn *Function) {
	if ev.functions == nil {
		ev.functions = make(map[string]*Function)
	}
	ev.functions[fn.Namespace+" "+fn.Name] = fn
}

func (ev *Evaluator) lookupFunction(uri, local string) (*Function, bool) {
	if fn, ok := ev.functions[uri+" "+local]; ok {
		return fn, true
	}
	fn, ok := xpathfunctions[uri+" "+local]
	return fn, ok
}

// Context is the dynamic context of one evaluation: the context node, its
// position and the context size. Functions receive the context they are
// called in.
type Context struct {
	ev   *Evaluator
	node Node
	pos  int
	size int
}

// Node returns the context node.
func (ctx *Context) Node() Node { return ctx.node }

// Position returns the context position, starting at 1.
func (ctx *Context) Position() int { return ctx.pos }

// Size returns the context size.
func (ctx *Context) Size() int { return ctx.size }

// Evaluate evaluates an expression against a context node. The context
// position and size start at 1.
func (ev *Evaluator) Evaluate(expr Expr, contextNode Node) (Value, error) {
	if contextNode == nil {
		return nil, ErrInvalidContext.New("context node is nil")
	}
	ctx := &Context{ev: ev, node: contextNode, pos: 1, size: 1}
	return ctx.eval(expr)
}

func (ctx *Context) eval(expr Expr) (Value, error) {
	switch e := expr.(type) {
	case Number:
		return e, nil
	case String:
		return e, nil
	case *VarRef:
		v, ok := ctx.ev.Variables[e.Name]
		if !ok {
			return nil, ErrUndefinedVariable.New(e.Name)
		}
		return v, nil
	case *NegateExpr:
		v, err := ctx.eval(e.Expr)
		if err != nil {
			return nil, err
		}
		return Number(-NumberValue(v)), nil
	case *BinaryExpr:
		return ctx.evalBinary(e)
	case *LocationPath:
		return ctx.evalLocationPath(e)
	case *FilterExpr:
		return ctx.evalFilter(e)
	case *PathExpr:
		ns, err := ctx.evalNodeSet(e.Filter, "/")
		if err != nil {
			return nil, err
		}
		return ctx.evalSteps(e.Path.Steps, ns)
	case *FuncCall:
		return ctx.evalFuncCall(e)
	}
	return nil, fmt.Errorf("xpath: cannot evaluate expression of type %T", expr)
}

// evalNodeSet evaluates an expression whose value must be a node-set, such
// as a union operand or the left side of a path continuation.
func (ctx *Context) evalNodeSet(expr Expr, op string) (NodeSet, error) {
	v, err := ctx.eval(expr)
	if err != nil {
		return nil, err
	}
	return NodeSetValue(v, op)
}

func (ctx *Context) evalLocationPath(lp *LocationPath) (Value, error) {
	start := ctx.node
	if lp.Abs {
		start = documentRoot(start)
	}
	return ctx.evalSteps(lp.Steps, NodeSet{start})
}

// evalSteps runs the steps of a location path over a starting node-set. The
// result of each step is sorted into document order and deduplicated before
// it feeds the next one.
func (ctx *Context) evalSteps(steps []*Step, current NodeSet) (Value, error) {
	for _, step := range steps {
		var out []Node
		for _, n := range current {
			matched, err := ctx.evalStep(step, n)
			if err != nil {
				return nil, err
			}
			out = append(out, matched...)
		}
		current = sortAndDedup(out)
	}
	return current, nil
}

// evalStep selects the candidates of one step from one context node. The
// candidates keep axis enumeration order throughout predicate filtering, so
// position() counts along the direction of the axis.
func (ctx *Context) evalStep(step *Step, n Node) ([]Node, error) {
	candidates, err := axisNodes(step.Axis, n)
	if err != nil {
		return nil, err
	}
	var matched []Node
	for _, c := range candidates {
		ok, err := matchNodeTest(step.Test, step.Axis, c, ctx.ev.Namespaces)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, c)
		}
	}
	for _, pred := range step.Predicates {
		matched, err = ctx.filterPredicate(pred, matched)
		if err != nil {
			return nil, err
		}
	}
	return matched, nil
}

// filterPredicate keeps the nodes for which the predicate holds. A numeric
// predicate value is a position test, anything else converts to boolean.
// Each surviving list renumbers the next predicate from 1.
func (ctx *Context) filterPredicate(pred Expr, nodes []Node) ([]Node, error) {
	size := len(nodes)
	var kept []Node
	for i, n := range nodes {
		sub := &Context{ev: ctx.ev, node: n, pos: i + 1, size: size}
		v, err := sub.eval(pred)
		if err != nil {
			return nil, err
		}
		var keep bool
		if num, ok := v.(Number); ok {
			keep = float64(i+1) == xpathRound(float64(num))
		} else {
			keep = BooleanValue(v)
		}
		if keep {
			kept = append(kept, n)
		}
	}
	return kept, nil
}

// evalFilter narrows the node-set value of a primary expression by
// predicates. Unlike a step, the nodes are numbered in document order, which
// is what distinguishes (//a)[1] from //a[1].
func (ctx *Context) evalFilter(f *FilterExpr) (Value, error) {
	v, err := ctx.eval(f.Primary)
	if err != nil {
		return nil, err
	}
	nodes, err := NodeSetValue(v, "a predicate")
	if err != nil {
		return nil, err
	}
	nodes = sortAndDedup(nodes)
	for _, pred := range f.Predicates {
		filtered, err := ctx.filterPredicate(pred, nodes)
		if err != nil {
			return nil, err
		}
		nodes = filtered
	}
	return NodeSet(nodes), nil
}

func (ctx *Context) evalBinary(b *BinaryExpr) (Value, error) {
	switch b.Op {
	case Union:
		lhs, err := ctx.evalNodeSet(b.LHS, "|")
		if err != nil {
			return nil, err
		}
		rhs, err := ctx.evalNodeSet(b.RHS, "|")
		if err != nil {
			return nil, err
		}
		return sortAndDedup(append(append([]Node{}, lhs...), rhs...)), nil
	case And, Or:
		lhs, err := ctx.eval(b.LHS)
		if err != nil {
			return nil, err
		}
		lb := BooleanValue(lhs)
		// short circuit, the right side stays unevaluated
		if lb == (b.Op == Or) {
			return Boolean(lb), nil
		}
		rhs, err := ctx.eval(b.RHS)
		if err != nil {
			return nil, err
		}
		return Boolean(BooleanValue(rhs)), nil
	}

	lhs, err := ctx.eval(b.LHS)
	if err != nil {
		return nil, err
	}
	rhs, err := ctx.eval(b.RHS)
	if err != nil {
		return nil, err
	}

	switch b.Op {
	case Add:
		return Number(NumberValue(lhs) + NumberValue(rhs)), nil
	case Subtract:
		return Number(NumberValue(lhs) - NumberValue(rhs)), nil
	case Multiply:
		return Number(NumberValue(lhs) * NumberValue(rhs)), nil
	case Div:
		return Number(NumberValue(lhs) / NumberValue(rhs)), nil
	case Mod:
		return Number(math.Mod(NumberValue(lhs), NumberValue(rhs))), nil
	case LT, LTE, GT, GTE:
		return Boolean(compareNumbers(b.Op, NumberValue(lhs), NumberValue(rhs))), nil
	case EQ, NEQ:
		return Boolean(compareEquality(b.Op, lhs, rhs)), nil
	}
	return nil, fmt.Errorf("xpath: cannot evaluate operator %s", b.Op)
}

func compareNumbers(op Op, x, y float64) bool {
	switch op {
	case EQ:
		return x == y
	case NEQ:
		return x != y
	case LT:
		return x < y
	case LTE:
		return x <= y
	case GT:
		return x > y
	case GTE:
		return x >= y
	}
	return false
}

func compareStrings(op Op, x, y string) bool {
	if op == EQ {
		return x == y
	}
	return x != y
}

// compareEquality applies the cross-type rules of = and !=. Node-set
// operands compare existentially over the string values of their nodes; !=
// asks for some unequal pair, it is not the negation of =.
func compareEquality(op Op, lhs, rhs Value) bool {
	lns, lIsSet := lhs.(NodeSet)
	rns, rIsSet := rhs.(NodeSet)
	switch {
	case lIsSet && rIsSet:
		for _, l := range lns {
			ls := NodeStringValue(l)
			for _, r := range rns {
				if compareStrings(op, ls, NodeStringValue(r)) {
					return true
				}
			}
		}
		return false
	case lIsSet:
		return compareNodeSetWith(op, lns, rhs)
	case rIsSet:
		return compareNodeSetWith(op, rns, lhs)
	}

	if _, ok := lhs.(Boolean); ok {
		return compareBooleans(op, BooleanValue(lhs), BooleanValue(rhs))
	}
	if _, ok := rhs.(Boolean); ok {
		return compareBooleans(op, BooleanValue(lhs), BooleanValue(rhs))
	}
	if _, ok := lhs.(Number); ok {
		return compareNumbers(op, NumberValue(lhs), NumberValue(rhs))
	}
	if _, ok := rhs.(Number); ok {
		return compareNumbers(op, NumberValue(lhs), NumberValue(rhs))
	}
	return compareStrings(op, StringValue(lhs), StringValue(rhs))
}

// compareNodeSetWith compares every node of a set against a non-node-set
// value, true if any node satisfies the comparison. A boolean collapses the
// set to its emptiness first.
func compareNodeSetWith(op Op, ns NodeSet, other Value) bool {
	switch t := other.(type) {
	case Boolean:
		return compareBooleans(op, BooleanValue(ns), bool(t))
	case Number:
		for _, n := range ns {
			if compareNumbers(op, parseNumber(NodeStringValue(n)), float64(t)) {
				return true
			}
		}
		return false
	default:
		s := StringValue(other)
		for _, n := range ns {
			if compareStrings(op, NodeStringValue(n), s) {
				return true
			}
		}
		return false
	}
}

func compareBooleans(op Op, x, y bool) bool {
	if op == EQ {
		return x == y
	}
	return x != y
}

func (ctx *Context) evalFuncCall(fc *FuncCall) (Value, error) {
	uri := ""
	name := fc.Local
	if fc.Prefix != "" {
		name = fc.Prefix + ":" + fc.Local
		var ok bool
		uri, ok = ctx.ev.Namespaces[fc.Prefix]
		if !ok {
			return nil, ErrUnknownPrefix.New(fc.Prefix)
		}
	}
	fn, ok := ctx.ev.lookupFunction(uri, fc.Local)
	if !ok {
		return nil, ErrUnknownFunction.New(name)
	}
	if len(fc.Args) < fn.MinArg || (fn.MaxArg >= 0 && len(fc.Args) > fn.MaxArg) {
		return nil, ErrArityMismatch.New(name, len(fc.Args), arityString(fn.MinArg, fn.MaxArg))
	}
	args := make([]Value, len(fc.Args))
	for i, arg := range fc.Args {
		v, err := ctx.eval(arg)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return fn.F(ctx, args)
}

func arityString(min, max int) string {
	switch {
	case max < 0:
		return fmt.Sprintf("at least %d", min)
	case min == max:
		return fmt.Sprintf("%d", min)
	}
	return fmt.Sprintf("%d to %d", min, max)
}
