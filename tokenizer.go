package xpath

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

type tokenType int

const (
	// tokString contains the characters of a string literal.
	tokString tokenType = iota
	// tokVarname represents a variable name (without the leading $).
	tokVarname
	// tokNumber represents a float64.
	tokNumber
	// tokOperator contains a single or double letter operator or path
	// separator, including the abbreviations . and .. and @.
	tokOperator
	// tokOpenParen is an opening parenthesis (.
	tokOpenParen
	// tokCloseParen is a closing parenthesis ).
	tokCloseParen
	// tokOpenBracket is an opening bracket [.
	tokOpenBracket
	// tokCloseBracket is a closing bracket ].
	tokCloseBracket
	// tokQName is a QName, a wildcard * or a prefix:* wildcard.
	tokQName
	// tokComma represents a comma.
	tokComma
	// tokAxis is an axis name followed by :: in the input.
	tokAxis
)

func (tt tokenType) String() string {
	switch tt {
	case tokString:
		return "string"
	case tokVarname:
		return "variable name"
	case tokNumber:
		return "number"
	case tokOperator:
		return "operator"
	case tokOpenParen:
		return "open paren"
	case tokCloseParen:
		return "close paren"
	case tokOpenBracket:
		return "open bracket"
	case tokCloseBracket:
		return "close bracket"
	case tokQName:
		return "QName"
	case tokComma:
		return "comma"
	case tokAxis:
		return "axis"
	}
	return "--"
}

type token struct {
	Value  interface{}
	Typ    tokenType
	Offset int
}

func (tok token) String() string {
	switch tok.Typ {
	case tokVarname:
		return "$" + tok.Value.(string)
	case tokAxis:
		return tok.Value.(string) + "::"
	case tokString:
		return strconv.Quote(tok.Value.(string))
	}
	switch v := tok.Value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Tokenlist represents units of XPath language elements.
type Tokenlist struct {
	pos  int
	toks []token
	end  int // rune length of the input, used as the EOF offset
}

func (tl *Tokenlist) nexttokIsTyp(typ tokenType) bool {
	tok, err := tl.peek()
	if err != nil {
		return false
	}
	return tok.Typ == typ
}

// nexttokIsValue looks at the next token and returns true if it is an
// operator with the given value. Does not move the pointer forward.
func (tl *Tokenlist) nexttokIsValue(val string) bool {
	tok, err := tl.peek()
	if err != nil {
		return false
	}
	if tok.Typ != tokOperator {
		return false
	}
	return tok.Value.(string) == val
}

func (tl *Tokenlist) readNexttokIfIsOneOfValue(val []string) (string, bool) {
	tok, err := tl.peek()
	if err != nil {
		return "", false
	}
	if tok.Typ != tokOperator {
		return "", false
	}
	str := tok.Value.(string)
	for _, v := range val {
		if str == v {
			tl.read()
			return v, true
		}
	}
	return "", false
}

func (tl *Tokenlist) peek() (*token, error) {
	if len(tl.toks) == tl.pos {
		return nil, io.EOF
	}
	return &tl.toks[tl.pos], nil
}

// peekAt looks i tokens ahead without moving the pointer.
func (tl *Tokenlist) peekAt(i int) (*token, error) {
	if tl.pos+i >= len(tl.toks) {
		return nil, io.EOF
	}
	return &tl.toks[tl.pos+i], nil
}

func (tl *Tokenlist) read() (*token, error) {
	if len(tl.toks) == tl.pos {
		return nil, io.EOF
	}
	tl.pos++
	return &tl.toks[tl.pos-1], nil
}

func (tl *Tokenlist) unread() {
	tl.pos--
}

type scanner struct {
	input []rune
	pos   int
}

func (s *scanner) errorf(kind ParseErrorKind, offset int, format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: kind, Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.input)
}

func (s *scanner) cur() rune {
	return s.input[s.pos]
}

func (s *scanner) lookingAt(r rune) bool {
	return s.pos < len(s.input) && s.input[s.pos] == r
}

func isNameStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isNameChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '·' || r == '‿' || r == '⁀'
}

// getNCName reads an NCName. A dot continues a name only when another name
// character follows, so an abbreviated step directly after a name stays
// intact.
func (s *scanner) getNCName() string {
	start := s.pos
	for !s.eof() {
		r := s.cur()
		if isNameChar(r) {
			s.pos++
		} else if r == '.' && s.pos+1 < len(s.input) && isNameChar(s.input[s.pos+1]) {
			s.pos++
		} else {
			break
		}
	}
	return string(s.input[start:s.pos])
}

// getNumber reads Digits ('.' Digits?)? or '.' Digits. XPath 1.0 numbers
// have no sign and no exponent.
func (s *scanner) getNumber() (float64, *ParseError) {
	start := s.pos
	for !s.eof() && unicode.IsDigit(s.cur()) {
		s.pos++
	}
	if s.lookingAt('.') {
		s.pos++
		for !s.eof() && unicode.IsDigit(s.cur()) {
			s.pos++
		}
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(string(s.input[start:s.pos]), "."), 64)
	if err != nil {
		return 0, s.errorf(UnexpectedToken, start, "invalid number %q", string(s.input[start:s.pos]))
	}
	return f, nil
}

// getLiteral reads a string literal delimited by single or double quotes.
// There are no escape sequences.
func (s *scanner) getLiteral() (string, *ParseError) {
	start := s.pos
	delim := s.cur()
	s.pos++
	lit := s.pos
	for !s.eof() {
		if s.cur() == delim {
			str := string(s.input[lit:s.pos])
			s.pos++
			return str, nil
		}
		s.pos++
	}
	return "", s.errorf(UnterminatedLiteral, start, "missing closing %s", string(delim))
}

// operatorNames are NCNames that act as operators when they appear in
// operator position.
var operatorNames = map[string]bool{"and": true, "or": true, "div": true, "mod": true}

// operandFollows implements the lexical disambiguation of XPath 1.0 §3.7:
// after @, ::, (, [, a comma or another operator, a * or an NCName is an
// operand (a name test or function name); everywhere else it is an operator.
func operandFollows(prev *token) bool {
	if prev == nil {
		return true
	}
	switch prev.Typ {
	case tokOperator, tokAxis, tokOpenParen, tokOpenBracket, tokComma:
		return true
	}
	return false
}

func stringToTokenlist(str string) (*Tokenlist, *ParseError) {
	var toks []token
	s := &scanner{input: []rune(str)}
	var prev *token

	add := func(value interface{}, typ tokenType, offset int) {
		toks = append(toks, token{Value: value, Typ: typ, Offset: offset})
		prev = &toks[len(toks)-1]
	}

	for !s.eof() {
		r := s.cur()
		start := s.pos
		switch {
		case unicode.IsSpace(r):
			s.pos++
		case unicode.IsDigit(r):
			f, err := s.getNumber()
			if err != nil {
				return nil, err
			}
			add(f, tokNumber, start)
		case r == '.':
			if s.pos+1 < len(s.input) && unicode.IsDigit(s.input[s.pos+1]) {
				f, err := s.getNumber()
				if err != nil {
					return nil, err
				}
				add(f, tokNumber, start)
			} else if s.pos+1 < len(s.input) && s.input[s.pos+1] == '.' {
				s.pos += 2
				add("..", tokOperator, start)
			} else {
				s.pos++
				add(".", tokOperator, start)
			}
		case r == '\'' || r == '"':
			lit, err := s.getLiteral()
			if err != nil {
				return nil, err
			}
			add(lit, tokString, start)
		case r == '(':
			s.pos++
			add("(", tokOpenParen, start)
		case r == ')':
			s.pos++
			add(")", tokCloseParen, start)
		case r == '[':
			s.pos++
			add("[", tokOpenBracket, start)
		case r == ']':
			s.pos++
			add("]", tokCloseBracket, start)
		case r == ',':
			s.pos++
			add(",", tokComma, start)
		case r == '@':
			s.pos++
			add("@", tokOperator, start)
		case r == '$':
			s.pos++
			if s.eof() || !isNameStart(s.cur()) {
				return nil, s.errorf(MalformedQName, start, "variable name expected after $")
			}
			name := s.getNCName()
			if s.lookingAt(':') {
				s.pos++
				if s.eof() || !isNameStart(s.cur()) {
					return nil, s.errorf(MalformedQName, start, "NCName expected after prefix %q", name)
				}
				name = name + ":" + s.getNCName()
			}
			add(name, tokVarname, start)
		case r == '/':
			s.pos++
			if s.lookingAt('/') {
				s.pos++
				add("//", tokOperator, start)
			} else {
				add("/", tokOperator, start)
			}
		case r == '|' || r == '+' || r == '-' || r == '=':
			s.pos++
			add(string(r), tokOperator, start)
		case r == '<' || r == '>':
			s.pos++
			if s.lookingAt('=') {
				s.pos++
				add(string(r)+"=", tokOperator, start)
			} else {
				add(string(r), tokOperator, start)
			}
		case r == '!':
			s.pos++
			if !s.lookingAt('=') {
				return nil, s.errorf(UnexpectedToken, start, "= expected after !")
			}
			s.pos++
			add("!=", tokOperator, start)
		case r == '*':
			s.pos++
			if operandFollows(prev) {
				add("*", tokQName, start)
			} else {
				add("*", tokOperator, start)
			}
		case isNameStart(r):
			name := s.getNCName()
			if s.lookingAt(':') {
				if s.pos+1 < len(s.input) && s.input[s.pos+1] == ':' {
					s.pos += 2
					add(name, tokAxis, start)
					continue
				}
				s.pos++
				switch {
				case s.lookingAt('*'):
					s.pos++
					add(name+":*", tokQName, start)
				case !s.eof() && isNameStart(s.cur()):
					add(name+":"+s.getNCName(), tokQName, start)
				default:
					return nil, s.errorf(MalformedQName, start, "NCName or * expected after prefix %q", name)
				}
				continue
			}
			if operatorNames[name] && !operandFollows(prev) {
				add(name, tokOperator, start)
			} else {
				add(name, tokQName, start)
			}
		case r == ':':
			return nil, s.errorf(MalformedQName, start, "name cannot start with a colon")
		default:
			return nil, s.errorf(UnexpectedToken, start, "invalid character %q", string(r))
		}
	}
	return &Tokenlist{toks: toks, end: len(s.input)}, nil
}

// tokensString renders the whole token list, used by the parse trace.
func (tl *Tokenlist) tokensString() string {
	strs := make([]string, len(tl.toks))
	for i, t := range tl.toks {
		strs[i] = t.String()
	}
	return strings.Join(strs, " ")
}
