package lang

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var (
	errUnterminatedString = errors.New("unterminated string literal")
	errUnbalancedParen    = errors.New("unbalanced parenthesis")
	errExpectedExpr       = errors.New("expected expression")
)

// exprParser parses the content of a tag: a callee, positional parameters,
// hash arguments, and block parameters.
type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) eof() bool { return p.pos >= len(p.input) }

func (p *exprParser) peek() byte {
	if p.eof() {
		return 0
	}

	return p.input[p.pos]
}

func (p *exprParser) skipSpace() {
	for !p.eof() && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

// parseTag parses "callee param* key=value* (as |a b|)?".
func parseTag(expr string) (*Call, []string, error) {
	p := &exprParser{input: expr}

	call, err := p.parseCall(false)
	if err != nil {
		return nil, nil, err
	}

	params, err := p.parseBlockParams()
	if err != nil {
		return nil, nil, err
	}

	p.skipSpace()

	if !p.eof() {
		return nil, nil, fmt.Errorf("unexpected %q", p.input[p.pos:])
	}

	return call, params, nil
}

// parseCall parses a callee and its arguments, stopping at ")" when nested.
func (p *exprParser) parseCall(nested bool) (*Call, error) {
	p.skipSpace()

	name, err := p.parseCallee()
	if err != nil {
		return nil, err
	}

	call := &Call{Name: name}

	if err := p.parseArgs(call, nested); err != nil {
		return nil, err
	}

	return call, nil
}

// parseArgs parses positional and hash arguments into call.
func (p *exprParser) parseArgs(call *Call, nested bool) error {
	for {
		p.skipSpace()

		if p.eof() || p.atBlockParams() {
			if nested {
				return errUnbalancedParen
			}

			return nil
		}

		if p.peek() == ')' {
			if !nested {
				return errUnbalancedParen
			}

			return nil
		}

		if key, ok := p.hashKey(); ok {
			value, err := p.parseParam()
			if err != nil {
				return err
			}

			call.Hash = append(call.Hash, HashPair{Key: key, Value: value})

			continue
		}

		if len(call.Hash) > 0 {
			return fmt.Errorf("positional argument after hash argument")
		}

		param, err := p.parseParam()
		if err != nil {
			return err
		}

		call.Params = append(call.Params, param)
	}
}

// parseCallee parses the name of a call. String and number literals name
// a property of that exact text.
func (p *exprParser) parseCallee() (*Path, error) {
	switch c := p.peek(); {
	case c == '"' || c == '\'':
		lit, err := p.parseString()
		if err != nil {
			return nil, err
		}

		return literalPath(lit.Value.(string)), nil

	case c == 0 || c == ')' || c == '(':
		return nil, errExpectedExpr
	}

	return CompilePath(p.word())
}

// parseParam parses a path, literal, or sub-expression.
func (p *exprParser) parseParam() (Param, error) {
	p.skipSpace()

	switch c := p.peek(); {
	case c == '(':
		p.pos++

		call, err := p.parseCall(true)
		if err != nil {
			return nil, err
		}

		if p.peek() != ')' {
			return nil, errUnbalancedParen
		}

		p.pos++

		return &SubExpr{Call: call}, nil

	case c == '"' || c == '\'':
		return p.parseString()

	case c == 0 || c == ')':
		return nil, errExpectedExpr
	}

	word := p.word()

	if lit, ok := keywordLiteral(word); ok {
		return lit, nil
	}

	if lit, ok := numberLiteral(word); ok {
		return lit, nil
	}

	return CompilePath(word)
}

// word reads a path or bare literal, keeping "[...]" segments intact.
func (p *exprParser) word() string {
	start := p.pos

	for !p.eof() {
		c := p.input[p.pos]

		switch {
		case c == '[':
			end := strings.IndexByte(p.input[p.pos:], ']')
			if end < 0 {
				p.pos = len(p.input)

				return p.input[start:]
			}

			p.pos += end + 1

		case unicode.IsSpace(rune(c)) || c == ')' || c == '(' || c == '=' || c == '|':
			return p.input[start:p.pos]

		default:
			p.pos++
		}
	}

	return p.input[start:]
}

// hashKey consumes "key=" if present.
func (p *exprParser) hashKey() (string, bool) {
	i := p.pos

	for i < len(p.input) {
		c := p.input[i]
		if unicode.IsSpace(rune(c)) || strings.IndexByte("()=|\"'[", c) >= 0 {
			break
		}

		i++
	}

	if i == p.pos || i >= len(p.input) || p.input[i] != '=' {
		return "", false
	}

	key := p.input[p.pos:i]
	p.pos = i + 1

	return key, true
}

func (p *exprParser) parseString() (*Literal, error) {
	quote := p.input[p.pos]
	start := p.pos
	p.pos++

	var sb strings.Builder

	for !p.eof() {
		c := p.input[p.pos]

		switch {
		case c == '\\' && p.pos+1 < len(p.input) && p.input[p.pos+1] == quote:
			sb.WriteByte(quote)
			p.pos += 2

		case c == quote:
			p.pos++

			return &Literal{
				Kind:   LiteralString,
				Value:  sb.String(),
				Source: p.input[start:p.pos],
			}, nil

		default:
			sb.WriteByte(c)
			p.pos++
		}
	}

	return nil, errUnterminatedString
}

func (p *exprParser) atBlockParams() bool {
	rest, ok := strings.CutPrefix(p.input[p.pos:], "as")
	if !ok {
		return false
	}

	rest = strings.TrimLeftFunc(rest, unicode.IsSpace)

	return len(rest) < len(p.input[p.pos:])-2 && strings.HasPrefix(rest, "|")
}

// parseBlockParams parses "as |a b|".
func (p *exprParser) parseBlockParams() ([]string, error) {
	p.skipSpace()

	if !p.atBlockParams() {
		return nil, nil
	}

	open := strings.IndexByte(p.input[p.pos:], '|') + p.pos

	end := strings.IndexByte(p.input[open+1:], '|')
	if end < 0 {
		return nil, fmt.Errorf("unterminated block parameters")
	}

	end += open + 1

	names := strings.Fields(p.input[open+1 : end])
	if len(names) == 0 {
		return nil, fmt.Errorf("empty block parameters")
	}

	p.pos = end + 1

	return names, nil
}

func keywordLiteral(word string) (*Literal, bool) {
	switch word {
	case "true":
		return &Literal{Kind: LiteralBoolean, Value: true, Source: word}, true
	case "false":
		return &Literal{Kind: LiteralBoolean, Value: false, Source: word}, true
	case "null":
		return &Literal{Kind: LiteralNull, Source: word}, true
	case "undefined":
		return &Literal{Kind: LiteralUndefined, Source: word}, true
	default:
		return nil, false
	}
}

func numberLiteral(word string) (*Literal, bool) {
	if word == "" || (word[0] != '-' && (word[0] < '0' || word[0] > '9')) {
		return nil, false
	}

	if i, err := strconv.ParseInt(word, 10, 64); err == nil {
		return &Literal{Kind: LiteralNumber, Value: i, Source: word}, true
	}

	if f, err := strconv.ParseFloat(word, 64); err == nil {
		return &Literal{Kind: LiteralNumber, Value: f, Source: word}, true
	}

	return nil, false
}

// literalPath returns a single-segment path naming exactly name.
func literalPath(name string) *Path {
	return &Path{
		Original: strconv.Quote(name),
		Parts:    []string{name},
		chain:    chain{propertySegment{name: name, head: true}},
	}
}
