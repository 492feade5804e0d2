package xpath

import (
	"math"
	"strings"

	"golang.org/x/text/language"
)

var xpathfunctions = make(map[string]*Function)

// Function is an XPath function. Name and Namespace form the expanded name
// the function is called by; the core library lives in the empty namespace.
// MinArg and MaxArg bound the argument count, a MaxArg of -1 means
// unbounded.
type Function struct {
	Name      string
	Namespace string
	F         func(*Context, []Value) (Value, error)
	MinArg    int
	MaxArg    int
}

// RegisterFunction makes fn callable from every evaluator. Functions
// registered on a single Evaluator shadow it.
func RegisterFunction(fn *Function) {
	xpathfunctions[fn.Namespace+" "+fn.Name] = fn
}

// argOrContextNodes returns the node-set argument at index 0, or the context
// node as a singleton when the function was called without arguments.
func argOrContextNodes(ctx *Context, args []Value, op string) (NodeSet, error) {
	if len(args) == 0 {
		return NodeSet{ctx.node}, nil
	}
	return NodeSetValue(args[0], op)
}

// argOrContextString returns the string argument at index 0, or the string
// value of the context node when the function was called without arguments.
func argOrContextString(ctx *Context, args []Value) string {
	if len(args) == 0 {
		return NodeStringValue(ctx.node)
	}
	return StringValue(args[0])
}

func fnLast(ctx *Context, args []Value) (Value, error) {
	return Number(ctx.size), nil
}

func fnPosition(ctx *Context, args []Value) (Value, error) {
	return Number(ctx.pos), nil
}

func fnCount(ctx *Context, args []Value) (Value, error) {
	ns, err := NodeSetValue(args[0], "count()")
	if err != nil {
		return nil, err
	}
	return Number(len(ns)), nil
}

func fnID(ctx *Context, args []Value) (Value, error) {
	var ids []string
	if ns, ok := args[0].(NodeSet); ok {
		for _, n := range ns {
			ids = append(ids, strings.Fields(NodeStringValue(n))...)
		}
	} else {
		ids = strings.Fields(StringValue(args[0]))
	}
	if len(ids) == 0 {
		return NodeSet(nil), nil
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var result []Node
	collectByID(documentRoot(ctx.node), wanted, &result)
	return sortAndDedup(result), nil
}

// collectByID walks the subtree for elements whose id or xml:id attribute
// matches one of the wanted tokens.
func collectByID(n Node, wanted map[string]bool, result *[]Node) {
	if n.Kind() == ElementNode {
		for _, attr := range n.Attributes() {
			if attr.LocalName() != "id" {
				continue
			}
			uri := attr.NamespaceURI()
			if uri != "" && uri != xmlNamespace {
				continue
			}
			if wanted[attr.Value()] {
				*result = append(*result, n)
			}
		}
	}
	for _, c := range n.Children() {
		collectByID(c, wanted, result)
	}
}

func fnLocalName(ctx *Context, args []Value) (Value, error) {
	ns, err := argOrContextNodes(ctx, args, "local-name()")
	if err != nil {
		return nil, err
	}
	if len(ns) == 0 {
		return String(""), nil
	}
	return String(ns[0].LocalName()), nil
}

func fnNamespaceURI(ctx *Context, args []Value) (Value, error) {
	ns, err := argOrContextNodes(ctx, args, "namespace-uri()")
	if err != nil {
		return nil, err
	}
	if len(ns) == 0 {
		return String(""), nil
	}
	return String(ns[0].NamespaceURI()), nil
}

func fnName(ctx *Context, args []Value) (Value, error) {
	ns, err := argOrContextNodes(ctx, args, "name()")
	if err != nil {
		return nil, err
	}
	if len(ns) == 0 {
		return String(""), nil
	}
	n := ns[0]
	if pfx := n.Prefix(); pfx != "" {
		return String(pfx + ":" + n.LocalName()), nil
	}
	return String(n.LocalName()), nil
}

func fnString(ctx *Context, args []Value) (Value, error) {
	return String(argOrContextString(ctx, args)), nil
}

func fnConcat(ctx *Context, args []Value) (Value, error) {
	var sb strings.Builder
	for _, arg := range args {
		sb.WriteString(StringValue(arg))
	}
	return String(sb.String()), nil
}

func fnStartsWith(ctx *Context, args []Value) (Value, error) {
	return Boolean(strings.HasPrefix(StringValue(args[0]), StringValue(args[1]))), nil
}

func fnContains(ctx *Context, args []Value) (Value, error) {
	return Boolean(strings.Contains(StringValue(args[0]), StringValue(args[1]))), nil
}

func fnSubstringBefore(ctx *Context, args []Value) (Value, error) {
	s := StringValue(args[0])
	sep := StringValue(args[1])
	idx := strings.Index(s, sep)
	if idx < 0 {
		return String(""), nil
	}
	return String(s[:idx]), nil
}

func fnSubstringAfter(ctx *Context, args []Value) (Value, error) {
	s := StringValue(args[0])
	sep := StringValue(args[1])
	idx := strings.Index(s, sep)
	if idx < 0 {
		return String(""), nil
	}
	return String(s[idx+len(sep):]), nil
}

// fnSubstring keeps the characters whose 1-based position p satisfies
// p >= round(start) and, with a length, p < round(start) + round(length).
// The comparisons are IEEE comparisons, so NaN in either argument selects
// nothing and an infinite length selects to the end.
func fnSubstring(ctx *Context, args []Value) (Value, error) {
	runes := []rune(StringValue(args[0]))
	start := xpathRound(NumberValue(args[1]))
	end := math.Inf(1)
	if len(args) > 2 {
		end = start + xpathRound(NumberValue(args[2]))
	}
	var sb strings.Builder
	for i, r := range runes {
		p := float64(i + 1)
		if p >= start && p < end {
			sb.WriteRune(r)
		}
	}
	return String(sb.String()), nil
}

func fnStringLength(ctx *Context, args []Value) (Value, error) {
	return Number(len([]rune(argOrContextString(ctx, args)))), nil
}

func fnNormalizeSpace(ctx *Context, args []Value) (Value, error) {
	return String(strings.Join(strings.Fields(argOrContextString(ctx, args)), " ")), nil
}

func fnTranslate(ctx *Context, args []Value) (Value, error) {
	s := StringValue(args[0])
	from := []rune(StringValue(args[1]))
	to := []rune(StringValue(args[2]))
	// first occurrence in the map string wins
	repl := make(map[rune]rune, len(from))
	drop := make(map[rune]bool)
	for i, r := range from {
		if _, seen := repl[r]; seen || drop[r] {
			continue
		}
		if i < len(to) {
			repl[r] = to[i]
		} else {
			drop[r] = true
		}
	}
	var sb strings.Builder
	for _, r := range s {
		if drop[r] {
			continue
		}
		if t, ok := repl[r]; ok {
			sb.WriteRune(t)
		} else {
			sb.WriteRune(r)
		}
	}
	return String(sb.String()), nil
}

func fnBoolean(ctx *Context, args []Value) (Value, error) {
	return Boolean(BooleanValue(args[0])), nil
}

func fnNot(ctx *Context, args []Value) (Value, error) {
	return Boolean(!BooleanValue(args[0])), nil
}

func fnTrue(ctx *Context, args []Value) (Value, error) {
	return Boolean(true), nil
}

func fnFalse(ctx *Context, args []Value) (Value, error) {
	return Boolean(false), nil
}

// fnLang tests the xml:lang attribute in force at the context node against
// the argument, ignoring case and trailing subtags: lang('en') is true for
// xml:lang="en-US".
func fnLang(ctx *Context, args []Value) (Value, error) {
	val, ok := inheritedLang(ctx.node)
	if !ok {
		return Boolean(false), nil
	}
	return Boolean(langMatches(val, StringValue(args[0]))), nil
}

func inheritedLang(n Node) (string, bool) {
	for ; n != nil; n = n.Parent() {
		if n.Kind() != ElementNode {
			continue
		}
		for _, attr := range n.Attributes() {
			if attr.LocalName() == "lang" && attr.NamespaceURI() == xmlNamespace {
				return attr.Value(), true
			}
		}
	}
	return "", false
}

func langMatches(val, test string) bool {
	want, err := language.Parse(test)
	if err != nil {
		// not a well-formed tag, fall back to a textual prefix match
		val, test = strings.ToLower(val), strings.ToLower(test)
		return val == test || strings.HasPrefix(val, test+"-")
	}
	got, err := language.Parse(val)
	if err != nil {
		return false
	}
	for t := got; !t.IsRoot(); t = t.Parent() {
		if t == want {
			return true
		}
	}
	return false
}

func fnNumber(ctx *Context, args []Value) (Value, error) {
	if len(args) == 0 {
		return Number(parseNumber(NodeStringValue(ctx.node))), nil
	}
	return Number(NumberValue(args[0])), nil
}

func fnSum(ctx *Context, args []Value) (Value, error) {
	ns, err := NodeSetValue(args[0], "sum()")
	if err != nil {
		return nil, err
	}
	sum := 0.0
	for _, n := range ns {
		sum += parseNumber(NodeStringValue(n))
	}
	return Number(sum), nil
}

func fnFloor(ctx *Context, args []Value) (Value, error) {
	return Number(math.Floor(NumberValue(args[0]))), nil
}

func fnCeiling(ctx *Context, args []Value) (Value, error) {
	return Number(math.Ceil(NumberValue(args[0]))), nil
}

func fnRound(ctx *Context, args []Value) (Value, error) {
	return Number(xpathRound(NumberValue(args[0]))), nil
}

func init() {
	RegisterFunction(&Function{Name: "last", F: fnLast})
	RegisterFunction(&Function{Name: "position", F: fnPosition})
	RegisterFunction(&Function{Name: "count", F: fnCount, MinArg: 1, MaxArg: 1})
	RegisterFunction(&Function{Name: "id", F: fnID, MinArg: 1, MaxArg: 1})
	RegisterFunction(&Function{Name: "local-name", F: fnLocalName, MaxArg: 1})
	RegisterFunction(&Function{Name: "namespace-uri", F: fnNamespaceURI, MaxArg: 1})
	RegisterFunction(&Function{Name: "name", F: fnName, MaxArg: 1})
	RegisterFunction(&Function{Name: "string", F: fnString, MaxArg: 1})
	RegisterFunction(&Function{Name: "concat", F: fnConcat, MinArg: 2, MaxArg: -1})
	RegisterFunction(&Function{Name: "starts-with", F: fnStartsWith, MinArg: 2, MaxArg: 2})
	RegisterFunction(&Function{Name: "contains", F: fnContains, MinArg: 2, MaxArg: 2})
	RegisterFunction(&Function{Name: "substring-before", F: fnSubstringBefore, MinArg: 2, MaxArg: 2})
	RegisterFunction(&Function{Name: "substring-after", F: fnSubstringAfter, MinArg: 2, MaxArg: 2})
	RegisterFunction(&Function{Name: "substring", F: fnSubstring, MinArg: 2, MaxArg: 3})
	RegisterFunction(&Function{Name: "string-length", F: fnStringLength, MaxArg: 1})
	RegisterFunction(&Function{Name: "normalize-space", F: fnNormalizeSpace, MaxArg: 1})
	RegisterFunction(&Function{Name: "translate", F: fnTranslate, MinArg: 3, MaxArg: 3})
	RegisterFunction(&Function{Name: "boolean", F: fnBoolean, MinArg: 1, MaxArg: 1})
	RegisterFunction(&Function{Name: "not", F: fnNot, MinArg: 1, MaxArg: 1})
	RegisterFunction(&Function{Name: "true", F: fnTrue})
	RegisterFunction(&Function{Name: "false", F: fnFalse})
	RegisterFunction(&Function{Name: "lang", F: fnLang, MinArg: 1, MaxArg: 1})
	RegisterFunction(&Function{Name: "number", F: fnNumber, MaxArg: 1})
	RegisterFunction(&Function{Name: "sum", F: fnSum, MinArg: 1, MaxArg: 1})
	RegisterFunction(&Function{Name: "floor", F: fnFloor, MinArg: 1, MaxArg: 1})
	RegisterFunction(&Function{Name: "ceiling", F: fnCeiling, MinArg: 1, MaxArg: 1})
	RegisterFunction(&Function{Name: "round", F: fnRound, MinArg: 1, MaxArg: 1})
}
