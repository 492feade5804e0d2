package xpath_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	errors "gopkg.in/src-d/go-errors.v1"

	"github.com/johnstonskj/go-xpath"
	"github.com/johnstonskj/go-xpath/xmltree"
)

var bookDoc = `<root one="1" foo="no">
	<sub foo="baz">123</sub>
	<sub foo="bar">sub2</sub>
	<sub foo="bar" self="sub3">contents sub3<subsub>subsub</subsub></sub>
	<other foo="barbaz"><subsub>other1</subsub></other>
	<other foo="other2"><subsub>other2</subsub></other>
	<a><sub p="a1"/><sub p="a2"/></a>
	<a><sub p="b1"/><sub p="b2"/></a>
</root>`

var miscDoc = `<doc>
	<p xml:lang="en-GB"><q id="q1"/></p>
	<p xml:lang="fr"/>
	<r xml:id="r1"/>
	<nums><n>1</n><n>2</n><n>3.5</n></nums>
	<?target data?>
	<!-- note -->
</doc>`

func mustParse(t *testing.T, src string) *xmltree.Document {
	t.Helper()
	doc, err := xmltree.ParseString(src)
	require.NoError(t, err)
	return doc
}

func TestSelectNumber(t *testing.T) {
	doc := mustParse(t, bookDoc)
	testdata := []struct {
		expr string
		want float64
	}{
		{`count(/)`, 1},
		{`count(/root/sub)`, 3},
		{`count(//sub)`, 7},
		{`count(//*)`, 15},
		{`count(//sub[1])`, 3},
		{`count((//sub)[1])`, 1},
		{`count(/root/sub | /root/other)`, 5},
		{`count(/root/sub | /root/sub)`, 3},
		{`count(/root/sub/@foo)`, 3},
		{`count(/root/self::root)`, 1},
		{`count(/root/descendant::sub)`, 7},
		{`count(/root/descendant-or-self::*)`, 15},
		{`count(/root/sub[1]/following::other)`, 2},
		{`count(/root/a[2]/preceding::sub)`, 5},
		{`count(//subsub/ancestor::root)`, 1},
		{`count(/root/sub[position()>1])`, 2},
		{`count(/root/sub[last()])`, 1},
		{`count(/root/sub[0])`, 0},
		{`count(/root/missing)`, 0},
		{`1+2*3`, 7},
		{`(1+2)*3`, 9},
		{`9 * 4 div 6`, 6},
		{`7 div 2`, 3.5},
		{`5 mod 2`, 1},
		{`5 mod -2`, 1},
		{`-5 mod 2`, -1},
		{`5.5 mod 1.5`, 1},
		{`- /root/@one`, -1},
		{`string-length('héllo')`, 5},
		{`string-length(/root/sub[2])`, 4},
		{`floor(2.6)`, 2},
		{`ceiling(2.2)`, 3},
		{`round(2.5)`, 3},
		{`round(-2.5)`, -2},
		{`number('12')`, 12},
		{`number(true())`, 1},
		{`number(/root/@one)`, 1},
	}
	for _, td := range testdata {
		got, err := xpath.SelectNumber(td.expr, doc)
		require.NoError(t, err, td.expr)
		require.Equal(t, td.want, got, td.expr)
	}

	inf, err := xpath.SelectNumber(`1 div 0`, doc)
	require.NoError(t, err)
	require.True(t, math.IsInf(inf, 1))
	ninf, err := xpath.SelectNumber(`-1 div 0`, doc)
	require.NoError(t, err)
	require.True(t, math.IsInf(ninf, -1))
	nan, err := xpath.SelectNumber(`0 div 0`, doc)
	require.NoError(t, err)
	require.True(t, math.IsNaN(nan))
	nan, err = xpath.SelectNumber(`number('abc')`, doc)
	require.NoError(t, err)
	require.True(t, math.IsNaN(nan))
}

func TestSelectString(t *testing.T) {
	doc := mustParse(t, bookDoc)
	testdata := []struct {
		expr string
		want string
	}{
		{`string(/root/sub[1])`, "123"},
		{`string(/root/sub[2])`, "sub2"},
		{`/root/sub[3]/subsub`, "subsub"},
		{`string(/root/sub[1.5])`, "sub2"},
		{`string(/root/sub[position()=2]/@foo)`, "bar"},
		{`string(/root/sub[last()]/@self)`, "sub3"},
		{`string(/root/sub[@foo='baz'])`, "123"},
		{`string(/root/sub[3]/preceding-sibling::*[1]/@foo)`, "bar"},
		{`string(/root/sub[3]/preceding-sibling::sub[2]/@foo)`, "baz"},
		{`string(/root/sub[1]/following-sibling::sub[1]/@foo)`, "bar"},
		{`name(//subsub[1]/ancestor::*[1])`, "sub"},
		{`name(/)`, ""},
		{`name(/root/*[1])`, "sub"},
		{`local-name(/root/@one)`, "one"},
		{`string(/root/missing)`, ""},
		{`concat('a','b','c')`, "abc"},
		{`substring('12345', 1.5, 2.6)`, "234"},
		{`substring('12345', 0, 3)`, "12"},
		{`substring('12345', 0 div 0, 3)`, ""},
		{`substring('12345', 1, 0 div 0)`, ""},
		{`substring('12345', -42, 1 div 0)`, "12345"},
		{`substring('12345', -1 div 0, 1 div 0)`, ""},
		{`substring-before('1999/04/01', '/')`, "1999"},
		{`substring-after('1999/04/01', '/')`, "04/01"},
		{`substring-before('abc', 'x')`, ""},
		{`normalize-space('  a  b ')`, "a b"},
		{`translate('bar','abc','ABC')`, "BAr"},
		{`translate('--aaa--','abc-','ABC')`, "AAA"},
		{`string(1.0)`, "1"},
		{`string(0 div 0)`, "NaN"},
		{`string(1 div 0)`, "Infinity"},
		{`string(-1 div 0)`, "-Infinity"},
		{`string(true())`, "true"},
	}
	for _, td := range testdata {
		got, err := xpath.SelectString(td.expr, doc)
		require.NoError(t, err, td.expr)
		require.Equal(t, td.want, got, td.expr)
	}
}

func TestSelectBoolean(t *testing.T) {
	doc := mustParse(t, bookDoc)
	testdata := []struct {
		expr string
		want bool
	}{
		{`1 = '1'`, true},
		{`'foo' != 'bar'`, true},
		{`'foo' = 'foo'`, true},
		{`true() = 'x'`, true},
		{`false() = /root/missing`, true},
		{`'2' > '10'`, false},
		{`2 < 10`, true},
		{`/root/@one < 2`, true},
		{`/root/@one >= 1`, true},
		{`/root/sub = 123`, true},
		{`/root/sub/@foo = 'bar'`, true},
		{`/root/sub/@foo != 'bar'`, true},
		{`/root/sub/@foo = /root/other/@foo`, false},
		{`/root/sub/@foo = /root/sub[1]/@foo`, true},
		{`/root/missing = ''`, false},
		{`boolean(/root/missing)`, false},
		{`boolean(/root/sub)`, true},
		{`not(false())`, true},
		{`2 > 1 and 3 > 2`, true},
		{`1 or 0`, true},
		{`0 or 0`, false},
		{`starts-with('abc','ab')`, true},
		{`contains('abc','d')`, false},
		{`contains(/root/sub[3], 'contents')`, true},
	}
	for _, td := range testdata {
		got, err := xpath.SelectBoolean(td.expr, doc)
		require.NoError(t, err, td.expr)
		require.Equal(t, td.want, got, td.expr)
	}
}

// Logical operators short-circuit, so the right operand must not be able to
// fail the evaluation once the left one decides.
func TestShortCircuit(t *testing.T) {
	doc := mustParse(t, bookDoc)
	got, err := xpath.SelectBoolean(`true() or $undefined`, doc)
	require.NoError(t, err)
	require.True(t, got)
	got, err = xpath.SelectBoolean(`false() and $undefined`, doc)
	require.NoError(t, err)
	require.False(t, got)
	_, err = xpath.SelectBoolean(`false() or $undefined`, doc)
	require.True(t, xpath.ErrUndefinedVariable.Is(err))
}

func TestSelectNodesOrder(t *testing.T) {
	doc := mustParse(t, bookDoc)

	nodes, err := xpath.SelectNodes(`/root/sub/@foo`, doc)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	require.Equal(t, "baz", nodes[0].Value())

	// document order regardless of operand order
	nodes, err = xpath.SelectNodes(`/root/other | /root/sub`, doc)
	require.NoError(t, err)
	require.Len(t, nodes, 5)
	require.Equal(t, "sub", nodes[0].LocalName())
	require.Equal(t, "other", nodes[4].LocalName())

	for i := 1; i < len(nodes); i++ {
		require.Less(t, nodes[i-1].Order(), nodes[i].Order())
	}
}

func TestVariables(t *testing.T) {
	doc := mustParse(t, bookDoc)
	ev := xpath.NewEvaluator()
	ev.Variables["x"] = xpath.Number(5)
	ev.Variables["p:y"] = xpath.String("hi")

	v, err := ev.Evaluate(xpath.MustParse(`$x * 2`), doc)
	require.NoError(t, err)
	require.Equal(t, xpath.Number(10), v)

	// prefixed variables resolve by their written name
	v, err = ev.Evaluate(xpath.MustParse(`concat($p:y, '!')`), doc)
	require.NoError(t, err)
	require.Equal(t, xpath.String("hi!"), v)
}

func TestNamespaces(t *testing.T) {
	doc := mustParse(t, `<a:root xmlns:a="urn:one"><a:sub>text</a:sub><b xmlns="urn:two"/></a:root>`)
	ev := xpath.NewEvaluator()
	ev.Namespaces["a"] = "urn:one"
	ev.Namespaces["t"] = "urn:two"

	testdata := []struct {
		expr string
		want xpath.Value
	}{
		{`string(/a:root/a:sub)`, xpath.String("text")},
		{`count(/a:root/t:b)`, xpath.Number(1)},
		// an unprefixed name test never matches a namespaced element
		{`count(/a:root/b)`, xpath.Number(0)},
		{`count(//a:*)`, xpath.Number(2)},
		{`name(/a:root)`, xpath.String("a:root")},
		{`namespace-uri(/a:root)`, xpath.String("urn:one")},
		{`count(/a:root/namespace::*)`, xpath.Number(2)},
	}
	for _, td := range testdata {
		v, err := ev.Evaluate(xpath.MustParse(td.expr), doc)
		require.NoError(t, err, td.expr)
		require.Equal(t, td.want, v, td.expr)
	}
}

func TestIDAndLang(t *testing.T) {
	doc := mustParse(t, miscDoc)
	testdata := []struct {
		expr string
		want float64
	}{
		{`count(id('q1 r1'))`, 2},
		{`count(id('missing'))`, 0},
		{`count(//q[lang('en')])`, 1},
		{`count(//p[lang('en-gb')])`, 1},
		{`count(//p[lang('fr-CA')])`, 0},
		{`count(//*[lang('en')])`, 2},
		{`sum(//n)`, 6.5},
		{`count(//processing-instruction())`, 1},
		{`count(//processing-instruction('other'))`, 0},
		{`count(//comment())`, 1},
	}
	for _, td := range testdata {
		got, err := xpath.SelectNumber(td.expr, doc)
		require.NoError(t, err, td.expr)
		require.Equal(t, td.want, got, td.expr)
	}

	name, err := xpath.SelectString(`name(id('r1'))`, doc)
	require.NoError(t, err)
	require.Equal(t, "r", name)
	target, err := xpath.SelectString(`name(//processing-instruction('target'))`, doc)
	require.NoError(t, err)
	require.Equal(t, "target", target)
	comment, err := xpath.SelectString(`string(//comment())`, doc)
	require.NoError(t, err)
	require.Equal(t, " note ", comment)
}

func TestEvalErrors(t *testing.T) {
	doc := mustParse(t, bookDoc)
	testdata := []struct {
		expr string
		kind *errors.Kind
	}{
		{`$nope`, xpath.ErrUndefinedVariable},
		{`nope()`, xpath.ErrUnknownFunction},
		{`count()`, xpath.ErrArityMismatch},
		{`not(1, 2)`, xpath.ErrArityMismatch},
		{`concat('a')`, xpath.ErrArityMismatch},
		{`1 | 2`, xpath.ErrNotNodeSet},
		{`count(5)`, xpath.ErrNotNodeSet},
		{`'str'/a`, xpath.ErrNotNodeSet},
		{`//x:sub`, xpath.ErrUnknownPrefix},
		{`x:foo()`, xpath.ErrUnknownPrefix},
	}
	for _, td := range testdata {
		_, err := xpath.SelectNodes(td.expr, doc)
		require.Error(t, err, td.expr)
		require.True(t, td.kind.Is(err), "%s: %v", td.expr, err)
	}

	_, err := xpath.NewEvaluator().Evaluate(xpath.MustParse(`.`), nil)
	require.True(t, xpath.ErrInvalidContext.Is(err))
}

func TestRegisterFunction(t *testing.T) {
	doc := mustParse(t, bookDoc)
	ev := xpath.NewEvaluator()
	ev.Namespaces["my"] = "urn:my"
	ev.RegisterFunction(&xpath.Function{
		Name:      "double",
		Namespace: "urn:my",
		MinArg:    1,
		MaxArg:    1,
		F: func(ctx *xpath.Context, args []xpath.Value) (xpath.Value, error) {
			return xpath.Number(2 * xpath.NumberValue(args[0])), nil
		},
	})

	v, err := ev.Evaluate(xpath.MustParse(`my:double(21)`), doc)
	require.NoError(t, err)
	require.Equal(t, xpath.Number(42), v)

	_, err = ev.Evaluate(xpath.MustParse(`my:double(1, 2)`), doc)
	require.True(t, xpath.ErrArityMismatch.Is(err))
}
