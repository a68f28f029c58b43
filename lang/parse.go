package lang

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"github.com/klauspost/readahead"

	"github.com/ardnew/hbs/log"
)

// Parse compiles template source using the given delimiters.
// Empty delimiters select [DefaultStartDelimiter] and [DefaultEndDelimiter].
//
// The name identifies the template in errors. Partial names are not
// resolved until the template is rendered.
func Parse(ctx context.Context, source, name, start, end string) (*Template, error) {
	return parse(ctx, log.Logger{}, source, name, start, end)
}

// ParseReader reads and compiles template source from r.
func ParseReader(ctx context.Context, r io.Reader, name, start, end string) (*Template, error) {
	source, err := readSource(r, name)
	if err != nil {
		return nil, err
	}

	return Parse(ctx, source, name, start, end)
}

func readSource(r io.Reader, name string) (string, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return "", ErrReadInput.Wrap(err).With(slog.String("template", name))
	}

	return string(data), nil
}

// MustParse is like [Parse] with default delimiters but panics on error.
func MustParse(source string) *Template {
	t, err := Parse(context.Background(), source, "", "", "")
	if err != nil {
		panic(err)
	}

	return t
}

func parse(
	ctx context.Context,
	logger log.Logger,
	source, name, start, end string,
) (*Template, error) {
	s := newScanner(name, source, start, end)
	if err := s.scan(); err != nil {
		logger.TraceContext(ctx, "scan failed", slog.Any("error", err))

		return nil, err
	}

	p := &parser{scanner: s}

	nodes, err := p.parseNodes()
	if err != nil {
		logger.TraceContext(ctx, "parse failed", slog.Any("error", err))

		return nil, err
	}

	logger.TraceContext(ctx, "parse complete",
		slog.String("template", name),
		slog.Int("source_bytes", len(source)),
		slog.Int("pieces", len(s.pieces)),
		slog.Int("nodes", len(nodes)),
	)

	return &Template{Name: name, Nodes: nodes, source: source}, nil
}

// parser assembles scanned pieces into a tree.
type parser struct {
	*scanner

	root  []Node
	stack []*frame
}

// frame is an open block.
type frame struct {
	open  *piece
	node  Node
	nodes *[]Node
	// chained frames are closed together with the frame below them.
	chained bool
	// inverse is set once a plain else has been seen.
	inverse bool
}

func (p *parser) parseNodes() ([]Node, error) {
	nodes := &p.root

	for _, pc := range p.pieces {
		if pc.text {
			*nodes = append(*nodes, &Text{
				Value:    pc.trimmed(),
				Source:   pc.src,
				Position: pc.pos,
			})

			continue
		}

		next, err := p.addTag(pc, nodes)
		if err != nil {
			return nil, err
		}

		nodes = next
	}

	for i := len(p.stack) - 1; i >= 0; i-- {
		if f := p.stack[i]; !f.chained {
			return nil, p.errorf(f.open.pos.Offset, "unclosed block %q", blockName(f.node)).
				With(slog.String("expected", p.closeTag(f.node)))
		}
	}

	return p.root, nil
}

// addTag adds the node for pc and returns the node list that subsequent
// nodes are appended to.
func (p *parser) addTag(pc *piece, nodes *[]Node) (*[]Node, error) {
	switch pc.kind {
	case tagVariable, tagTriple, tagAmpersand:
		call, params, err := parseTag(pc.expr)
		if err != nil {
			return nil, p.wrap(pc, err)
		}

		if params != nil {
			return nil, p.errorf(pc.pos.Offset, "block parameters on a variable")
		}

		*nodes = append(*nodes, &Variable{
			Call:      call,
			Unescaped: pc.kind != tagVariable,
			Ampersand: pc.kind == tagAmpersand,
			Trim:      pc.trim,
			Source:    pc.src,
			Position:  pc.pos,
		})

		return nodes, nil

	case tagComment:
		value := pc.expr
		if !pc.long {
			value = strings.TrimSpace(value)
		}

		*nodes = append(*nodes, &Comment{
			Value:    value,
			Long:     pc.long,
			Trim:     pc.trim,
			Source:   pc.src,
			Position: pc.pos,
		})

		return nodes, nil

	case tagDelimiters:
		*nodes = append(*nodes, &Delimiters{
			Start:    pc.start,
			End:      pc.end,
			Source:   pc.src,
			Position: pc.pos,
		})

		return nodes, nil

	case tagRaw:
		call, _, err := parseTag(pc.expr)
		if err != nil {
			return nil, p.wrap(pc, err)
		}

		*nodes = append(*nodes, &RawBlock{
			Call:     call,
			Body:     pc.body,
			Open:     pc.src,
			Close:    pc.closeSrc,
			Position: pc.pos,
		})

		return nodes, nil

	case tagSection, tagInverted:
		call, params, err := parseTag(pc.expr)
		if err != nil {
			return nil, p.wrap(pc, err)
		}

		sec := &Section{
			Call:        call,
			Inverted:    pc.kind == tagInverted,
			BlockParams: params,
			OpenTrim:    pc.trim,
			Open:        pc.src,
			Position:    pc.pos,
		}
		*nodes = append(*nodes, sec)

		return p.push(&frame{open: pc, node: sec, nodes: &sec.Body}), nil

	case tagElse:
		return p.parseElse(pc)

	case tagPartial, tagPartialBlock:
		part, err := p.parsePartial(pc)
		if err != nil {
			return nil, err
		}

		*nodes = append(*nodes, part)

		if pc.kind == tagPartial {
			return nodes, nil
		}

		part.IsBlock = true

		return p.push(&frame{open: pc, node: part, nodes: &part.Block}), nil

	case tagInline:
		call, _, err := parseTag(pc.expr)
		if err != nil {
			return nil, p.wrap(pc, err)
		}

		name, ok := inlineName(call)
		if !ok {
			return nil, p.errorf(pc.pos.Offset, `expected inline "name"`)
		}

		in := &InlinePartial{Name: name, OpenTrim: pc.trim, Open: pc.src, Position: pc.pos}
		*nodes = append(*nodes, in)

		return p.push(&frame{open: pc, node: in, nodes: &in.Body}), nil

	case tagClose:
		return p.parseClose(pc)
	}

	return nil, p.errorf(pc.pos.Offset, "unknown tag")
}

func (p *parser) push(f *frame) *[]Node {
	p.stack = append(p.stack, f)

	return f.nodes
}

func (p *parser) top() *frame {
	if len(p.stack) == 0 {
		return nil
	}

	return p.stack[len(p.stack)-1]
}

// parseElse handles "{{else}}" and "{{else name …}}".
func (p *parser) parseElse(pc *piece) (*[]Node, error) {
	f := p.top()

	sec, ok := f.nodeSection()
	if !ok {
		return nil, p.errorf(pc.pos.Offset, "else outside of a block")
	}

	if f.inverse {
		return nil, p.errorf(pc.pos.Offset, "multiple else tags in block %q", blockName(sec))
	}

	f.inverse = true

	if pc.expr == "" {
		sec.Else = pc.src
		sec.ElseTrim = pc.trim

		return &sec.Inverse, nil
	}

	call, params, err := parseTag(pc.expr)
	if err != nil {
		return nil, p.wrap(pc, err)
	}

	chained := &Section{
		Call:        call,
		BlockParams: params,
		ElseChain:   true,
		OpenTrim:    pc.trim,
		Open:        pc.src,
		Position:    pc.pos,
	}
	sec.Inverse = append(sec.Inverse, chained)

	return p.push(&frame{open: pc, node: chained, nodes: &chained.Body, chained: true}), nil
}

func (f *frame) nodeSection() (*Section, bool) {
	if f == nil {
		return nil, false
	}

	sec, ok := f.node.(*Section)

	return sec, ok
}

// parseClose handles "{{/name}}", closing any else-chain sections with the
// block they belong to.
func (p *parser) parseClose(pc *piece) (*[]Node, error) {
	for f := p.top(); f != nil && f.chained; f = p.top() {
		p.stack = p.stack[:len(p.stack)-1]
	}

	f := p.top()
	if f == nil {
		return nil, p.errorf(pc.pos.Offset, "unexpected closing tag %q", pc.expr)
	}

	if name := blockName(f.node); name != pc.expr {
		return nil, p.errorf(
			f.open.pos.Offset,
			"block %q closed by %q", name, pc.expr,
		).With(slog.String("close", pc.pos.String()))
	}

	switch n := f.node.(type) {
	case *Section:
		n.Close = pc.src
		n.CloseTrim = pc.trim

	case *Partial:
		n.Close = pc.src
		n.CloseTrim = pc.trim

	case *InlinePartial:
		n.Close = pc.src
		n.CloseTrim = pc.trim
	}

	p.stack = p.stack[:len(p.stack)-1]

	if f := p.top(); f != nil {
		return f.nodes, nil
	}

	return &p.root, nil
}

// parsePartial parses "name [context] [key=value …]" where name is a path,
// a string literal, or a sub-expression.
func (p *parser) parsePartial(pc *piece) (*Partial, error) {
	part := &Partial{
		Indent:   pc.indent,
		OpenTrim: pc.trim,
		Open:     pc.src,
		Position: pc.pos,
	}

	ep := &exprParser{input: pc.expr}

	switch c := ep.peek(); c {
	case '(':
		param, err := ep.parseParam()
		if err != nil {
			return nil, p.wrap(pc, err)
		}

		sub, ok := param.(*SubExpr)
		if !ok {
			return nil, p.errorf(pc.pos.Offset, "invalid partial name")
		}

		part.Dynamic = sub

	case '"', '\'':
		lit, err := ep.parseString()
		if err != nil {
			return nil, p.wrap(pc, err)
		}

		part.Name = lit.Value.(string)

	default:
		start := ep.pos
		for !ep.eof() && !unicode.IsSpace(rune(ep.peek())) {
			ep.pos++
		}

		part.Name = ep.input[start:ep.pos]
	}

	call := &Call{}
	if err := ep.parseArgs(call, false); err != nil {
		return nil, p.wrap(pc, err)
	}

	ep.skipSpace()

	if !ep.eof() {
		return nil, p.errorf(pc.pos.Offset, "unexpected %q in partial", ep.input[ep.pos:])
	}

	switch len(call.Params) {
	case 0:
	case 1:
		part.Context = call.Params[0]
	default:
		return nil, p.errorf(pc.pos.Offset, "partial accepts at most one context argument")
	}

	part.Hash = call.Hash

	return part, nil
}

func (p *parser) wrap(pc *piece, err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.WithPosition(pc.pos).WithSource(p.name, p.src)
	}

	return p.errorf(pc.pos.Offset, "%s", err.Error())
}

// closeTag returns the source of the tag that closes n.
func (p *parser) closeTag(n Node) string {
	return p.start + "/" + blockName(n) + p.end
}

// blockName returns the name a closing tag must repeat.
func blockName(n Node) string {
	switch n := n.(type) {
	case *Section:
		return n.Call.Name.Original
	case *Partial:
		if n.Dynamic != nil {
			return n.Dynamic.String()
		}

		return n.Name
	case *InlinePartial:
		return "inline"
	default:
		return ""
	}
}

func inlineName(call *Call) (string, bool) {
	if call.Name.Original != "inline" || len(call.Params) != 1 {
		return "", false
	}

	lit, ok := call.Params[0].(*Literal)
	if !ok || lit.Kind != LiteralString {
		return "", false
	}

	name, ok := lit.Value.(string)

	return name, ok && name != ""
}
