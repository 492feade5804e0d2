package xpath

import (
	"testing"
)

func TestTokenize(t *testing.T) {
	testdata := []struct {
		input  string
		output []token
	}{
		{`hello`, []token{{Value: "hello", Typ: tokQName}}},
		{`abc:def`, []token{{Value: "abc:def", Typ: tokQName}}},
		{`abc:*`, []token{{Value: "abc:*", Typ: tokQName}}},
		{`a-b`, []token{{Value: "a-b", Typ: tokQName}}},
		{`a.b`, []token{{Value: "a.b", Typ: tokQName}}},
		{`child::sub`, []token{{Value: "child", Typ: tokAxis}, {Value: "sub", Typ: tokQName}}},
		{`"hello"`, []token{{Value: "hello", Typ: tokString}}},
		{`'hello'`, []token{{Value: "hello", Typ: tokString}}},
		{`'he"llo'`, []token{{Value: `he"llo`, Typ: tokString}}},
		{`3.14`, []token{{Value: 3.14, Typ: tokNumber}}},
		{`3.`, []token{{Value: 3.0, Typ: tokNumber}}},
		{`.5`, []token{{Value: 0.5, Typ: tokNumber}}},
		{`$hello`, []token{{Value: "hello", Typ: tokVarname}}},
		{`$a:b`, []token{{Value: "a:b", Typ: tokVarname}}},
		{`<`, []token{{Value: "<", Typ: tokOperator}}},
		{`<=`, []token{{Value: "<=", Typ: tokOperator}}},
		{`>=`, []token{{Value: ">=", Typ: tokOperator}}},
		{`!=`, []token{{Value: "!=", Typ: tokOperator}}},
		{`/`, []token{{Value: "/", Typ: tokOperator}}},
		{`//`, []token{{Value: "//", Typ: tokOperator}}},
		{`.`, []token{{Value: ".", Typ: tokOperator}}},
		{`..`, []token{{Value: "..", Typ: tokOperator}}},
		{`@foo`, []token{{Value: "@", Typ: tokOperator}, {Value: "foo", Typ: tokQName}}},
		{`(1,2)`, []token{
			{Value: "(", Typ: tokOpenParen},
			{Value: 1.0, Typ: tokNumber},
			{Value: ",", Typ: tokComma},
			{Value: 2.0, Typ: tokNumber},
			{Value: ")", Typ: tokCloseParen},
		}},
		{`a[1]`, []token{
			{Value: "a", Typ: tokQName},
			{Value: "[", Typ: tokOpenBracket},
			{Value: 1.0, Typ: tokNumber},
			{Value: "]", Typ: tokCloseBracket},
		}},
	}
	for _, td := range testdata {
		tl, err := stringToTokenlist(td.input)
		if err != nil {
			t.Errorf("stringToTokenlist(%s) error: %s", td.input, err)
			continue
		}
		toks := tl.toks
		if len(toks) != len(td.output) {
			t.Errorf("len(toks) = %d (%v), want %d (%v), input %s", len(toks), toks, len(td.output), td.output, td.input)
			continue
		}
		for i, tok := range toks {
			expected := td.output[i]
			if tok.Typ != expected.Typ || tok.Value != expected.Value {
				t.Errorf("tok[%d] = %v (%s), want %v (%s), input %s", i, tok.Value, tok.Typ, expected.Value, expected.Typ, td.input)
			}
		}
	}
}

// Names that double as operators become operators only in operator
// position, the disambiguation of XPath 1.0 §3.7.
func TestTokenizeDisambiguation(t *testing.T) {
	testdata := []struct {
		input  string
		output []tokenType
	}{
		{`div`, []tokenType{tokQName}},
		{`8 div 2`, []tokenType{tokNumber, tokOperator, tokNumber}},
		{`div div div`, []tokenType{tokQName, tokOperator, tokQName}},
		{`* * *`, []tokenType{tokQName, tokOperator, tokQName}},
		{`mod mod mod`, []tokenType{tokQName, tokOperator, tokQName}},
		{`and or and`, []tokenType{tokQName, tokOperator, tokQName}},
		{`a and b`, []tokenType{tokQName, tokOperator, tokQName}},
		{`@* = 2`, []tokenType{tokOperator, tokQName, tokOperator, tokNumber}},
		{`a[*]`, []tokenType{tokQName, tokOpenBracket, tokQName, tokCloseBracket}},
		{`(*)`, []tokenType{tokOpenParen, tokQName, tokCloseParen}},
		{`a, *`, []tokenType{tokQName, tokComma, tokQName}},
		{`child::*`, []tokenType{tokAxis, tokQName}},
	}
	for _, td := range testdata {
		tl, err := stringToTokenlist(td.input)
		if err != nil {
			t.Errorf("stringToTokenlist(%s) error: %s", td.input, err)
			continue
		}
		if len(tl.toks) != len(td.output) {
			t.Errorf("len(toks) = %d (%v), want %d, input %s", len(tl.toks), tl.toks, len(td.output), td.input)
			continue
		}
		for i, tok := range tl.toks {
			if tok.Typ != td.output[i] {
				t.Errorf("tok[%d].Typ = %s, want %s, input %s", i, tok.Typ, td.output[i], td.input)
			}
		}
	}
}

func TestTokenizeOffsets(t *testing.T) {
	tl, err := stringToTokenlist(`  foo/bar[@baz]`)
	if err != nil {
		t.Fatal(err)
	}
	offsets := []int{2, 5, 6, 9, 10, 11, 14}
	if len(tl.toks) != len(offsets) {
		t.Fatalf("len(toks) = %d, want %d", len(tl.toks), len(offsets))
	}
	for i, tok := range tl.toks {
		if tok.Offset != offsets[i] {
			t.Errorf("tok[%d].Offset = %d, want %d", i, tok.Offset, offsets[i])
		}
	}
}

func TestTokenizeErrors(t *testing.T) {
	testdata := []struct {
		input  string
		kind   ParseErrorKind
		offset int
	}{
		{`'hello`, UnterminatedLiteral, 0},
		{`"he`, UnterminatedLiteral, 0},
		{`a = "b`, UnterminatedLiteral, 4},
		{`$`, MalformedQName, 0},
		{`$1`, MalformedQName, 0},
		{`$foo:`, MalformedQName, 0},
		{`foo:`, MalformedQName, 0},
		{`foo:1`, MalformedQName, 0},
		{`:foo`, MalformedQName, 0},
		{`!`, UnexpectedToken, 0},
		{`a ! b`, UnexpectedToken, 2},
		{`#`, UnexpectedToken, 0},
	}
	for _, td := range testdata {
		_, err := stringToTokenlist(td.input)
		if err == nil {
			t.Errorf("stringToTokenlist(%s) expected error", td.input)
			continue
		}
		if err.Kind != td.kind {
			t.Errorf("stringToTokenlist(%s) kind = %s, want %s", td.input, err.Kind, td.kind)
		}
		if err.Offset != td.offset {
			t.Errorf("stringToTokenlist(%s) offset = %d, want %d", td.input, err.Offset, td.offset)
		}
	}
}
