package clarity

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// principalPattern matches a c32 address with an optional contract name.
// Checksums are verified by the identity package, not here.
var principalPattern = regexp.MustCompile(`^S[0-9A-HJKMNP-TV-Z]{28,41}(\.[a-zA-Z][a-zA-Z0-9_-]{0,127})?$`)

// ParseError reports a malformed literal.
type ParseError struct {
	Input   string
	Offset  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q at offset %d: %s", e.Input, e.Offset, e.Message)
}

type nodeKind int

const (
	atomNode nodeKind = iota
	stringNode
	listNode
)

type node struct {
	kind     nodeKind
	text     string
	children []node
	offset   int
}

type parser struct {
	src string
	pos int
}

// parseExpr reads exactly one expression from src.
func parseExpr(src string) (node, error) {
	p := &parser{src: src}
	p.skipSpace()
	n, err := p.next()
	if err != nil {
		return node{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return node{}, p.errorf("unexpected trailing input")
	}
	return n, nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Input: p.src, Offset: p.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) next() (node, error) {
	if p.pos >= len(p.src) {
		return node{}, p.errorf("unexpected end of input")
	}
	start := p.pos
	switch p.src[p.pos] {
	case '(':
		p.pos++
		n := node{kind: listNode, offset: start}
		for {
			p.skipSpace()
			if p.pos >= len(p.src) {
				return node{}, p.errorf("unclosed list")
			}
			if p.src[p.pos] == ')' {
				p.pos++
				return n, nil
			}
			child, err := p.next()
			if err != nil {
				return node{}, err
			}
			n.children = append(n.children, child)
		}
	case ')':
		return node{}, p.errorf("unexpected ')'")
	case '"':
		return p.readString()
	default:
		for p.pos < len(p.src) {
			c := p.src[p.pos]
			if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '(' || c == ')' || c == '"' {
				break
			}
			p.pos++
		}
		return node{kind: atomNode, text: p.src[start:p.pos], offset: start}, nil
	}
}

func (p *parser) readString() (node, error) {
	start := p.pos
	p.pos++ // opening quote
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '"':
			p.pos++
			return node{kind: stringNode, text: b.String(), offset: start}, nil
		case c == '\\':
			if p.pos+1 >= len(p.src) {
				return node{}, p.errorf("dangling escape")
			}
			switch esc := p.src[p.pos+1]; esc {
			case '"', '\\':
				b.WriteByte(esc)
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				return node{}, p.errorf("unknown escape \\%c", esc)
			}
			p.pos += 2
		case c > 0x7e || (c < 0x20 && c != '\t' && c != '\n'):
			return node{}, p.errorf("non-ASCII byte 0x%02x in string-ascii", c)
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return node{}, p.errorf("unterminated string")
}

// Parse reads a value literal such as u100, true, 'ST1..., (list u1 u2),
// (ok u1), (some u1), none or "text". A principal may be given with or
// without the leading quote.
func Parse(src string) (Value, error) {
	n, err := parseExpr(src)
	if err != nil {
		return nil, err
	}
	return valueFromNode(src, n)
}

// MustParse is like Parse but panics on error.
// Use only in tests or for literals known to be valid.
func MustParse(src string) Value {
	v, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return v
}

func valueFromNode(src string, n node) (Value, error) {
	switch n.kind {
	case stringNode:
		return StringASCII(n.text), nil
	case atomNode:
		return atomValue(src, n)
	}

	if len(n.children) == 0 {
		return nil, &ParseError{Input: src, Offset: n.offset, Message: "empty expression"}
	}
	head := n.children[0]
	if head.kind != atomNode {
		return nil, &ParseError{Input: src, Offset: head.offset, Message: "expected constructor name"}
	}
	args := n.children[1:]

	switch head.text {
	case "list":
		list := make(List, 0, len(args))
		for _, a := range args {
			v, err := valueFromNode(src, a)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case "some", "ok", "err":
		if len(args) != 1 {
			return nil, &ParseError{Input: src, Offset: n.offset, Message: fmt.Sprintf("%s takes exactly one value", head.text)}
		}
		inner, err := valueFromNode(src, args[0])
		if err != nil {
			return nil, err
		}
		switch head.text {
		case "some":
			return Some(inner), nil
		case "ok":
			return Ok(inner), nil
		default:
			return Err(inner), nil
		}
	case "tuple":
		t := make(Tuple, len(args))
		for _, field := range args {
			if field.kind != listNode || len(field.children) != 2 || field.children[0].kind != atomNode {
				return nil, &ParseError{Input: src, Offset: field.offset, Message: "tuple field must be (name value)"}
			}
			name := field.children[0].text
			if _, dup := t[name]; dup {
				return nil, &ParseError{Input: src, Offset: field.offset, Message: fmt.Sprintf("duplicate tuple field %q", name)}
			}
			v, err := valueFromNode(src, field.children[1])
			if err != nil {
				return nil, err
			}
			t[name] = v
		}
		return t, nil
	default:
		return nil, &ParseError{Input: src, Offset: head.offset, Message: fmt.Sprintf("unknown constructor %q", head.text)}
	}
}

func atomValue(src string, n node) (Value, error) {
	text := n.text
	switch {
	case text == "true":
		return Bool(true), nil
	case text == "false":
		return Bool(false), nil
	case text == "none":
		return None, nil
	case strings.HasPrefix(text, "u") && len(text) > 1 && isDigits(text[1:]):
		u, err := ParseUIntDecimal(text[1:])
		if err != nil {
			return nil, &ParseError{Input: src, Offset: n.offset, Message: err.Error()}
		}
		return u, nil
	case isDigits(strings.TrimPrefix(text, "-")) && text != "-":
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, &ParseError{Input: src, Offset: n.offset, Message: fmt.Sprintf("int out of range: %s", text)}
		}
		return Int(i), nil
	}

	if p, ok := parsePrincipal(text); ok {
		return p, nil
	}
	return nil, &ParseError{Input: src, Offset: n.offset, Message: fmt.Sprintf("unrecognized literal %q", text)}
}

// ParsePrincipal parses ST1... or ST1....name, with an optional leading quote.
func ParsePrincipal(s string) (Principal, error) {
	p, ok := parsePrincipal(s)
	if !ok {
		return Principal{}, &ParseError{Input: s, Message: "not a principal"}
	}
	return p, nil
}

func parsePrincipal(s string) (Principal, bool) {
	s = strings.TrimPrefix(s, "'")
	if !principalPattern.MatchString(s) {
		return Principal{}, false
	}
	addr, name, _ := strings.Cut(s, ".")
	return Principal{Address: addr, Contract: name}, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
