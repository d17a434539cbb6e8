package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNewline
	tokNumber
	tokString
	tokIdent
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	num  float64
	line int
}

// ScriptError is a syntax or runtime error tied to a script line.
type ScriptError struct {
	Line int
	Msg  string
}

func (e *ScriptError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

func errorf(line int, format string, args ...interface{}) error {
	return &ScriptError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// lex splits src into tokens. Newlines inside parentheses are ignored so a
// call may span several lines.
func lex(src string) ([]token, error) {
	var toks []token
	line := 1
	depth := 0
	i := 0

	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			if depth == 0 {
				toks = append(toks, token{kind: tokNewline, line: line})
			}
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '"' || c == '\'':
			j := i + 1
			var sb strings.Builder
			for j < len(src) && src[j] != c {
				if src[j] == '\n' {
					return nil, errorf(line, "unterminated string")
				}
				if src[j] == '\\' && j+1 < len(src) {
					j++
					switch src[j] {
					case 'n':
						sb.WriteByte('\n')
					case 't':
						sb.WriteByte('\t')
					default:
						sb.WriteByte(src[j])
					}
				} else {
					sb.WriteByte(src[j])
				}
				j++
			}
			if j >= len(src) {
				return nil, errorf(line, "unterminated string")
			}
			toks = append(toks, token{kind: tokString, text: sb.String(), line: line})
			i = j + 1
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			j := i
			for j < len(src) && (isDigit(src[j]) || src[j] == '.' || src[j] == 'e' || src[j] == 'E' ||
				((src[j] == '-' || src[j] == '+') && j > i && (src[j-1] == 'e' || src[j-1] == 'E'))) {
				j++
			}
			n, err := strconv.ParseFloat(src[i:j], 64)
			if err != nil {
				return nil, errorf(line, "invalid number %q", src[i:j])
			}
			toks = append(toks, token{kind: tokNumber, text: src[i:j], num: n, line: line})
			i = j
		case isIdentStart(src[i:]):
			j := i
			for j < len(src) {
				r, size := utf8.DecodeRuneInString(src[j:])
				if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
					break
				}
				j += size
			}
			toks = append(toks, token{kind: tokIdent, text: src[i:j], line: line})
			i = j
		case strings.IndexByte("(),=+-*/%", c) >= 0:
			switch c {
			case '(':
				depth++
			case ')':
				if depth > 0 {
					depth--
				}
			}
			toks = append(toks, token{kind: tokPunct, text: string(c), line: line})
			i++
		default:
			r, _ := utf8.DecodeRuneInString(src[i:])
			return nil, errorf(line, "unexpected character %q", r)
		}
	}

	toks = append(toks, token{kind: tokNewline, line: line}, token{kind: tokEOF, line: line})
	return toks, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r == '_' || unicode.IsLetter(r)
}

// expr is a node of the expression tree.
type expr interface {
	eval(env map[string]value, line int) (value, error)
}

type value struct {
	num   float64
	str   string
	isStr bool
}

func (v value) String() string {
	if v.isStr {
		return v.str
	}
	return strconv.FormatFloat(v.num, 'g', -1, 64)
}

type numberExpr struct{ v float64 }
type stringExpr struct{ s string }
type identExpr struct{ name string }
type unaryExpr struct {
	op string
	x  expr
}
type binaryExpr struct {
	op   string
	l, r expr
}

func (e numberExpr) eval(map[string]value, int) (value, error) { return value{num: e.v}, nil }
func (e stringExpr) eval(map[string]value, int) (value, error) {
	return value{str: e.s, isStr: true}, nil
}

func (e identExpr) eval(env map[string]value, line int) (value, error) {
	v, ok := env[e.name]
	if !ok {
		return value{}, errorf(line, "undefined name %q", e.name)
	}
	return v, nil
}

func (e unaryExpr) eval(env map[string]value, line int) (value, error) {
	v, err := e.x.eval(env, line)
	if err != nil {
		return value{}, err
	}
	if v.isStr {
		return value{}, errorf(line, "bad operand for unary %s: string", e.op)
	}
	if e.op == "-" {
		v.num = -v.num
	}
	return v, nil
}

func (e binaryExpr) eval(env map[string]value, line int) (value, error) {
	l, err := e.l.eval(env, line)
	if err != nil {
		return value{}, err
	}
	r, err := e.r.eval(env, line)
	if err != nil {
		return value{}, err
	}
	if l.isStr || r.isStr {
		if e.op == "+" && l.isStr && r.isStr {
			return value{str: l.str + r.str, isStr: true}, nil
		}
		return value{}, errorf(line, "unsupported operand types for %s", e.op)
	}
	switch e.op {
	case "+":
		return value{num: l.num + r.num}, nil
	case "-":
		return value{num: l.num - r.num}, nil
	case "*":
		return value{num: l.num * r.num}, nil
	case "/", "%":
		if r.num == 0 {
			return value{}, errorf(line, "division by zero")
		}
		if e.op == "/" {
			return value{num: l.num / r.num}, nil
		}
		return value{num: math.Mod(l.num, r.num)}, nil
	}
	return value{}, errorf(line, "unknown operator %s", e.op)
}

// stmt is either an assignment or a command call.
type stmt struct {
	line   int
	assign string
	call   string
	args   []expr
	value  expr
}

type parser struct {
	toks []token
	pos  int
}

// parseScript parses a drawing script into statements.
func parseScript(src string) ([]stmt, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}

	var stmts []stmt
	for {
		t := p.peek()
		switch t.kind {
		case tokEOF:
			return stmts, nil
		case tokNewline:
			p.pos++
			continue
		}

		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)

		if end := p.next(); end.kind != tokNewline {
			return nil, errorf(end.line, "unexpected %q after statement", end.text)
		}
	}
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isPunct(s string) bool {
	t := p.peek()
	return t.kind == tokPunct && t.text == s
}

func (p *parser) statement() (stmt, error) {
	name := p.next()
	if name.kind != tokIdent {
		return stmt{}, errorf(name.line, "expected a command or assignment, got %q", name.text)
	}

	switch {
	case p.isPunct("="):
		p.pos++
		v, err := p.expression()
		if err != nil {
			return stmt{}, err
		}
		return stmt{line: name.line, assign: name.text, value: v}, nil
	case p.isPunct("("):
		p.pos++
		var args []expr
		if !p.isPunct(")") {
			for {
				a, err := p.expression()
				if err != nil {
					return stmt{}, err
				}
				args = append(args, a)
				if p.isPunct(",") {
					p.pos++
					continue
				}
				break
			}
		}
		if !p.isPunct(")") {
			return stmt{}, errorf(p.peek().line, "expected ) to close %s(", name.text)
		}
		p.pos++
		return stmt{line: name.line, call: strings.ToLower(name.text), args: args}, nil
	default:
		return stmt{}, errorf(name.line, "expected ( or = after %q", name.text)
	}
}

func (p *parser) expression() (expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.isPunct("+") || p.isPunct("-") {
		op := p.next().text
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = binaryExpr{op: op, l: left, r: right}
	}
	return left, nil
}

func (p *parser) term() (expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.isPunct("*") || p.isPunct("/") || p.isPunct("%") {
		op := p.next().text
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = binaryExpr{op: op, l: left, r: right}
	}
	return left, nil
}

func (p *parser) unary() (expr, error) {
	if p.isPunct("-") || p.isPunct("+") {
		op := p.next().text
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return unaryExpr{op: op, x: x}, nil
	}
	return p.primary()
}

func (p *parser) primary() (expr, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return numberExpr{v: t.num}, nil
	case tokString:
		return stringExpr{s: t.text}, nil
	case tokIdent:
		switch t.text {
		case "True":
			return numberExpr{v: 1}, nil
		case "False":
			return numberExpr{v: 0}, nil
		}
		return identExpr{name: t.text}, nil
	case tokPunct:
		if t.text == "(" {
			e, err := p.expression()
			if err != nil {
				return nil, err
			}
			if !p.isPunct(")") {
				return nil, errorf(p.peek().line, "expected )")
			}
			p.pos++
			return e, nil
		}
	case tokNewline, tokEOF:
		return nil, errorf(t.line, "unexpected end of line")
	}
	return nil, errorf(t.line, "unexpected %q", t.text)
}
