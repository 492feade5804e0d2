package xpath

import (
	"io"
	"strings"
)

type parser struct {
	tl *Tokenlist
}

// Parse compiles an XPath 1.0 expression into its AST. The AST is immutable
// after Parse returns and may be evaluated concurrently against different
// contexts. On a grammar violation Parse returns a *ParseError and no AST.
func Parse(expr string) (Expr, error) {
	tl, perr := stringToTokenlist(expr)
	if perr != nil {
		return nil, perr
	}
	p := &parser{tl: tl}
	e, perr := p.parseExpr()
	if perr != nil {
		return nil, perr
	}
	if tok, err := tl.peek(); err == nil {
		if tok.Typ == tokCloseParen || tok.Typ == tokCloseBracket {
			return nil, &ParseError{Kind: UnbalancedDelimiter, Offset: tok.Offset, Msg: "no matching opening delimiter for " + tok.String()}
		}
		return nil, p.errUnexpected(tok, "end of expression")
	}
	return e, nil
}

func (p *parser) errUnexpected(tok *token, want string) *ParseError {
	return &ParseError{Kind: UnexpectedToken, Offset: tok.Offset, Msg: "found " + tok.String() + ", expected " + want}
}

func (p *parser) errEOF(want string) *ParseError {
	return &ParseError{Kind: UnexpectedToken, Offset: p.tl.end, Msg: "unexpected end of expression, expected " + want}
}

func (p *parser) read(want string) (*token, *ParseError) {
	tok, err := p.tl.read()
	if err == io.EOF {
		return nil, p.errEOF(want)
	}
	return tok, nil
}

// expectClose consumes a closing parenthesis or bracket. Running out of
// input here means an opening delimiter was never balanced.
func (p *parser) expectClose(typ tokenType, open *token) *ParseError {
	tok, err := p.tl.read()
	if err == io.EOF {
		return &ParseError{Kind: UnbalancedDelimiter, Offset: open.Offset, Msg: open.String() + " is never closed"}
	}
	if tok.Typ != typ {
		return p.errUnexpected(tok, typ.String())
	}
	return nil
}

// [14] Expr ::= OrExpr
func (p *parser) parseExpr() (Expr, *ParseError) {
	enterStep(p.tl, "14 parseExpr")
	e, err := p.parseOrExpr()
	leaveStep(p.tl, "14 parseExpr")
	return e, err
}

// [21] OrExpr ::= AndExpr | OrExpr 'or' AndExpr
func (p *parser) parseOrExpr() (Expr, *ParseError) {
	enterStep(p.tl, "21 parseOrExpr")
	lhs, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}
	for p.tl.nexttokIsValue("or") {
		p.tl.read()
		rhs, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		lhs = &BinaryExpr{LHS: lhs, Op: Or, RHS: rhs}
	}
	leaveStep(p.tl, "21 parseOrExpr")
	return lhs, nil
}

// [22] AndExpr ::= EqualityExpr | AndExpr 'and' EqualityExpr
func (p *parser) parseAndExpr() (Expr, *ParseError) {
	enterStep(p.tl, "22 parseAndExpr")
	lhs, err := p.parseEqualityExpr()
	if err != nil {
		return nil, err
	}
	for p.tl.nexttokIsValue("and") {
		p.tl.read()
		rhs, err := p.parseEqualityExpr()
		if err != nil {
			return nil, err
		}
		lhs = &BinaryExpr{LHS: lhs, Op: And, RHS: rhs}
	}
	leaveStep(p.tl, "22 parseAndExpr")
	return lhs, nil
}

// [23] EqualityExpr ::= RelationalExpr | EqualityExpr '=' RelationalExpr | EqualityExpr '!=' RelationalExpr
func (p *parser) parseEqualityExpr() (Expr, *ParseError) {
	enterStep(p.tl, "23 parseEqualityExpr")
	lhs, err := p.parseRelationalExpr()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.tl.readNexttokIfIsOneOfValue([]string{"=", "!="})
		if !ok {
			break
		}
		rhs, err := p.parseRelationalExpr()
		if err != nil {
			return nil, err
		}
		binop := EQ
		if op == "!=" {
			binop = NEQ
		}
		lhs = &BinaryExpr{LHS: lhs, Op: binop, RHS: rhs}
	}
	leaveStep(p.tl, "23 parseEqualityExpr")
	return lhs, nil
}

// [24] RelationalExpr ::= AdditiveExpr | RelationalExpr '<' AdditiveExpr | ... '>' | '<=' | '>='
func (p *parser) parseRelationalExpr() (Expr, *ParseError) {
	enterStep(p.tl, "24 parseRelationalExpr")
	lhs, err := p.parseAdditiveExpr()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.tl.readNexttokIfIsOneOfValue([]string{"<", "<=", ">", ">="})
		if !ok {
			break
		}
		rhs, err := p.parseAdditiveExpr()
		if err != nil {
			return nil, err
		}
		var binop Op
		switch op {
		case "<":
			binop = LT
		case "<=":
			binop = LTE
		case ">":
			binop = GT
		case ">=":
			binop = GTE
		}
		lhs = &BinaryExpr{LHS: lhs, Op: binop, RHS: rhs}
	}
	leaveStep(p.tl, "24 parseRelationalExpr")
	return lhs, nil
}

// [25] AdditiveExpr ::= MultiplicativeExpr | AdditiveExpr '+' MultiplicativeExpr | AdditiveExpr '-' MultiplicativeExpr
func (p *parser) parseAdditiveExpr() (Expr, *ParseError) {
	enterStep(p.tl, "25 parseAdditiveExpr")
	lhs, err := p.parseMultiplicativeExpr()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.tl.readNexttokIfIsOneOfValue([]string{"+", "-"})
		if !ok {
			break
		}
		rhs, err := p.parseMultiplicativeExpr()
		if err != nil {
			return nil, err
		}
		binop := Add
		if op == "-" {
			binop = Subtract
		}
		lhs = &BinaryExpr{LHS: lhs, Op: binop, RHS: rhs}
	}
	leaveStep(p.tl, "25 parseAdditiveExpr")
	return lhs, nil
}

// [26] MultiplicativeExpr ::= UnaryExpr | MultiplicativeExpr MultiplyOperator UnaryExpr | ... 'div' | 'mod'
func (p *parser) parseMultiplicativeExpr() (Expr, *ParseError) {
	enterStep(p.tl, "26 parseMultiplicativeExpr")
	lhs, err := p.parseUnaryExpr()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.tl.readNexttokIfIsOneOfValue([]string{"*", "div", "mod"})
		if !ok {
			break
		}
		rhs, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}
		var binop Op
		switch op {
		case "*":
			binop = Multiply
		case "div":
			binop = Div
		case "mod":
			binop = Mod
		}
		lhs = &BinaryExpr{LHS: lhs, Op: binop, RHS: rhs}
	}
	leaveStep(p.tl, "26 parseMultiplicativeExpr")
	return lhs, nil
}

// [27] UnaryExpr ::= UnionExpr | '-' UnaryExpr
func (p *parser) parseUnaryExpr() (Expr, *ParseError) {
	enterStep(p.tl, "27 parseUnaryExpr")
	if p.tl.nexttokIsValue("-") {
		p.tl.read()
		e, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}
		leaveStep(p.tl, "27 parseUnaryExpr")
		return &NegateExpr{Expr: e}, nil
	}
	e, err := p.parseUnionExpr()
	leaveStep(p.tl, "27 parseUnaryExpr")
	return e, err
}

// [18] UnionExpr ::= PathExpr | UnionExpr '|' PathExpr
func (p *parser) parseUnionExpr() (Expr, *ParseError) {
	enterStep(p.tl, "18 parseUnionExpr")
	lhs, err := p.parsePathExpr()
	if err != nil {
		return nil, err
	}
	for p.tl.nexttokIsValue("|") {
		p.tl.read()
		rhs, err := p.parsePathExpr()
		if err != nil {
			return nil, err
		}
		lhs = &BinaryExpr{LHS: lhs, Op: Union, RHS: rhs}
	}
	leaveStep(p.tl, "18 parseUnionExpr")
	return lhs, nil
}

var nodeTypeNames = map[string]bool{"comment": true, "text": true, "node": true, "processing-instruction": true}

// startsFilterExpr decides between the FilterExpr and LocationPath branches
// of PathExpr by one or two tokens of lookahead. A QName followed by an
// opening parenthesis is a function call unless it names a node type.
func (p *parser) startsFilterExpr() bool {
	tok, err := p.tl.peek()
	if err != nil {
		return false
	}
	switch tok.Typ {
	case tokNumber, tokString, tokVarname, tokOpenParen:
		return true
	case tokQName:
		next, err := p.tl.peekAt(1)
		if err != nil || next.Typ != tokOpenParen {
			return false
		}
		name := tok.Value.(string)
		return !nodeTypeNames[name]
	}
	return false
}

// [19] PathExpr ::= LocationPath | FilterExpr | FilterExpr '/' RelativeLocationPath | FilterExpr '//' RelativeLocationPath
func (p *parser) parsePathExpr() (Expr, *ParseError) {
	enterStep(p.tl, "19 parsePathExpr")
	if !p.startsFilterExpr() {
		lp, err := p.parseLocationPath()
		leaveStep(p.tl, "19 parsePathExpr")
		return lp, err
	}
	fe, err := p.parseFilterExpr()
	if err != nil {
		return nil, err
	}
	op, ok := p.tl.readNexttokIfIsOneOfValue([]string{"/", "//"})
	if !ok {
		leaveStep(p.tl, "19 parsePathExpr")
		return fe, nil
	}
	lp := &LocationPath{}
	if op == "//" {
		lp.Steps = append(lp.Steps, &Step{Axis: DescendantOrSelf, Test: TestNode})
	}
	if err := p.parseSteps(lp); err != nil {
		return nil, err
	}
	leaveStep(p.tl, "19 parsePathExpr")
	return &PathExpr{Filter: fe, Path: lp}, nil
}

// [20] FilterExpr ::= PrimaryExpr | FilterExpr Predicate
func (p *parser) parseFilterExpr() (Expr, *ParseError) {
	enterStep(p.tl, "20 parseFilterExpr")
	primary, err := p.parsePrimaryExpr()
	if err != nil {
		return nil, err
	}
	predicates, err := p.parsePredicates()
	if err != nil {
		return nil, err
	}
	leaveStep(p.tl, "20 parseFilterExpr")
	if len(predicates) == 0 {
		return primary, nil
	}
	return &FilterExpr{Primary: primary, Predicates: predicates}, nil
}

// [15] PrimaryExpr ::= VariableReference | '(' Expr ')' | Literal | Number | FunctionCall
func (p *parser) parsePrimaryExpr() (Expr, *ParseError) {
	enterStep(p.tl, "15 parsePrimaryExpr")
	tok, perr := p.read("a primary expression")
	if perr != nil {
		return nil, perr
	}
	defer leaveStep(p.tl, "15 parsePrimaryExpr")
	switch tok.Typ {
	case tokVarname:
		return &VarRef{Name: tok.Value.(string)}, nil
	case tokString:
		return String(tok.Value.(string)), nil
	case tokNumber:
		return Number(tok.Value.(float64)), nil
	case tokOpenParen:
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectClose(tokCloseParen, tok); err != nil {
			return nil, err
		}
		return e, nil
	case tokQName:
		p.tl.unread()
		return p.parseFunctionCall()
	}
	return nil, p.errUnexpected(tok, "a primary expression")
}

// [16] FunctionCall ::= FunctionName '(' (Argument (',' Argument)*)? ')'
func (p *parser) parseFunctionCall() (Expr, *ParseError) {
	enterStep(p.tl, "16 parseFunctionCall")
	nameTok, perr := p.read("a function name")
	if perr != nil {
		return nil, perr
	}
	name := nameTok.Value.(string)
	var prefix, local string
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		prefix, local = name[:idx], name[idx+1:]
	} else {
		local = name
	}
	open, perr := p.read("(")
	if perr != nil {
		return nil, perr
	}
	if open.Typ != tokOpenParen {
		return nil, p.errUnexpected(open, "(")
	}
	fc := &FuncCall{Prefix: prefix, Local: local}
	if p.tl.nexttokIsTyp(tokCloseParen) {
		p.tl.read()
		leaveStep(p.tl, "16 parseFunctionCall")
		return fc, nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		fc.Args = append(fc.Args, arg)
		if !p.tl.nexttokIsTyp(tokComma) {
			break
		}
		p.tl.read()
	}
	if err := p.expectClose(tokCloseParen, open); err != nil {
		return nil, err
	}
	leaveStep(p.tl, "16 parseFunctionCall")
	return fc, nil
}

// [8] Predicate ::= '[' PredicateExpr ']'
// [9] PredicateExpr ::= Expr
func (p *parser) parsePredicates() ([]Expr, *ParseError) {
	var predicates []Expr
	for p.tl.nexttokIsTyp(tokOpenBracket) {
		open, _ := p.tl.read()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectClose(tokCloseBracket, open); err != nil {
			return nil, err
		}
		predicates = append(predicates, e)
	}
	return predicates, nil
}

// startsStep reports whether the next token can begin a step.
func (p *parser) startsStep() bool {
	tok, err := p.tl.peek()
	if err != nil {
		return false
	}
	switch tok.Typ {
	case tokQName, tokAxis:
		return true
	case tokOperator:
		switch tok.Value.(string) {
		case ".", "..", "@":
			return true
		}
	}
	return false
}

// [1] LocationPath ::= RelativeLocationPath | AbsoluteLocationPath
// [2] AbsoluteLocationPath ::= '/' RelativeLocationPath? | AbbreviatedAbsoluteLocationPath
// [10] AbbreviatedAbsoluteLocationPath ::= '//' RelativeLocationPath
func (p *parser) parseLocationPath() (*LocationPath, *ParseError) {
	enterStep(p.tl, "1 parseLocationPath")
	lp := &LocationPath{}
	if op, ok := p.tl.readNexttokIfIsOneOfValue([]string{"/", "//"}); ok {
		lp.Abs = true
		if op == "//" {
			lp.Steps = append(lp.Steps, &Step{Axis: DescendantOrSelf, Test: TestNode})
		} else if !p.startsStep() {
			// a lone / selects the document root
			leaveStep(p.tl, "1 parseLocationPath")
			return lp, nil
		}
	}
	if err := p.parseSteps(lp); err != nil {
		return nil, err
	}
	leaveStep(p.tl, "1 parseLocationPath")
	return lp, nil
}

// [3] RelativeLocationPath ::= Step | RelativeLocationPath '/' Step | AbbreviatedRelativeLocationPath
// [11] AbbreviatedRelativeLocationPath ::= RelativeLocationPath '//' Step
func (p *parser) parseSteps(lp *LocationPath) *ParseError {
	for {
		step, err := p.parseStep()
		if err != nil {
			return err
		}
		lp.Steps = append(lp.Steps, step)
		op, ok := p.tl.readNexttokIfIsOneOfValue([]string{"/", "//"})
		if !ok {
			return nil
		}
		if op == "//" {
			lp.Steps = append(lp.Steps, &Step{Axis: DescendantOrSelf, Test: TestNode})
		}
	}
}

// [4] Step ::= AxisSpecifier NodeTest Predicate* | AbbreviatedStep
// [5] AxisSpecifier ::= AxisName '::' | AbbreviatedAxisSpecifier
// [12] AbbreviatedStep ::= '.' | '..'
// [13] AbbreviatedAxisSpecifier ::= '@'?
func (p *parser) parseStep() (*Step, *ParseError) {
	enterStep(p.tl, "4 parseStep")
	tok, perr := p.read("a step")
	if perr != nil {
		return nil, perr
	}
	defer leaveStep(p.tl, "4 parseStep")

	axis := Child
	switch tok.Typ {
	case tokOperator:
		switch tok.Value.(string) {
		case ".":
			return &Step{Axis: Self, Test: TestNode}, nil
		case "..":
			return &Step{Axis: Parent, Test: TestNode}, nil
		case "@":
			axis = Attribute
		default:
			return nil, p.errUnexpected(tok, "a step")
		}
	case tokAxis:
		name := tok.Value.(string)
		a, ok := name2Axis[name]
		if !ok {
			return nil, p.errUnexpected(tok, "an axis name")
		}
		axis = a
	case tokQName:
		p.tl.unread()
	default:
		return nil, p.errUnexpected(tok, "a step")
	}

	test, perr := p.parseNodeTest()
	if perr != nil {
		return nil, perr
	}
	predicates, perr := p.parsePredicates()
	if perr != nil {
		return nil, perr
	}
	return &Step{Axis: axis, Test: test, Predicates: predicates}, nil
}

// [7] NodeTest ::= NameTest | NodeType '(' ')' | 'processing-instruction' '(' Literal ')'
// [37] NameTest ::= '*' | NCName ':' '*' | QName
func (p *parser) parseNodeTest() (NodeTest, *ParseError) {
	enterStep(p.tl, "7 parseNodeTest")
	tok, perr := p.read("a node test")
	if perr != nil {
		return nil, perr
	}
	defer leaveStep(p.tl, "7 parseNodeTest")
	if tok.Typ != tokQName {
		return nil, p.errUnexpected(tok, "a node test")
	}
	name := tok.Value.(string)

	if p.tl.nexttokIsTyp(tokOpenParen) {
		if !nodeTypeNames[name] {
			return nil, p.errUnexpected(tok, "a node type test")
		}
		open, _ := p.tl.read()
		var test NodeTest
		switch name {
		case "comment":
			test = TestComment
		case "text":
			test = TestText
		case "node":
			test = TestNode
		case "processing-instruction":
			target := ""
			if p.tl.nexttokIsTyp(tokString) {
				t, _ := p.tl.read()
				target = t.Value.(string)
			}
			test = PITest(target)
		}
		if err := p.expectClose(tokCloseParen, open); err != nil {
			return nil, err
		}
		return test, nil
	}

	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		return &NameTest{Prefix: name[:idx], Local: name[idx+1:]}, nil
	}
	return &NameTest{Local: name}, nil
}
