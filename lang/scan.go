package lang

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"
)

// Default delimiters.
const (
	DefaultStartDelimiter = "{{"
	DefaultEndDelimiter   = "}}"
)

type tagKind uint8

const (
	tagVariable     tagKind = iota // {{x}}
	tagTriple                      // {{{x}}}
	tagAmpersand                   // {{&x}}
	tagSection                     // {{#x}}
	tagInverted                    // {{^x}}
	tagElse                        // {{else}}, {{^}}, {{else x}}
	tagClose                       // {{/x}}
	tagPartial                     // {{>x}}
	tagPartialBlock                // {{#>x}}
	tagInline                      // {{#*inline "x"}}
	tagComment                     // {{!x}}, {{!--x--}}
	tagDelimiters                  // {{=<% %>=}}
	tagRaw                         // {{{{x}}}}…{{{{/x}}}}
)

// standalone reports whether a tag of this kind removes its whole line when
// it is the only content on it.
func (k tagKind) standalone() bool {
	switch k {
	case tagVariable, tagTriple, tagAmpersand, tagRaw:
		return false
	default:
		return true
	}
}

// piece is a run of text or a single tag.
type piece struct {
	text bool

	// Text pieces.
	value string // decoded content
	head  int    // bytes trimmed from the start of value
	tail  int    // bytes trimmed from the end of value

	// Tag pieces.
	kind     tagKind
	expr     string
	trim     Trim
	long     bool
	start    string // new start delimiter
	end      string // new end delimiter
	body     string // raw block content
	closeSrc string // raw block close tag
	indent   string // whitespace preceding a standalone tag

	src string
	pos Position
}

// trimmed returns the text value with standalone and "~" trimming applied.
func (p *piece) trimmed() string {
	if p.head+p.tail >= len(p.value) {
		return ""
	}

	return p.value[p.head : len(p.value)-p.tail]
}

// scanner splits template source into pieces.
type scanner struct {
	src    string
	name   string
	start  string
	end    string
	lines  []int // byte offset of each line start
	pieces []*piece
}

func newScanner(name, src, start, end string) *scanner {
	if start == "" || end == "" {
		start, end = DefaultStartDelimiter, DefaultEndDelimiter
	}

	lines := []int{0}

	for i := range len(src) {
		if src[i] == '\n' {
			lines = append(lines, i+1)
		}
	}

	return &scanner{src: src, name: name, start: start, end: end, lines: lines}
}

func (s *scanner) position(off int) Position {
	line := sort.Search(len(s.lines), func(i int) bool { return s.lines[i] > off })

	return Position{Offset: off, Line: line, Column: off - s.lines[line-1] + 1}
}

func (s *scanner) errorf(off int, format string, args ...any) *Error {
	return ErrSyntax.
		Wrap(fmt.Errorf(format, args...)).
		WithPosition(s.position(off)).
		WithSource(s.name, s.src)
}

// scan splits the whole source into pieces and applies whitespace control.
func (s *scanner) scan() error {
	var (
		val, src  strings.Builder
		textStart int
	)

	flush := func() {
		if src.Len() > 0 {
			s.pieces = append(s.pieces, &piece{
				text:  true,
				value: val.String(),
				src:   src.String(),
				pos:   s.position(textStart),
			})
		}

		val.Reset()
		src.Reset()
	}

	pos := 0
	for pos < len(s.src) {
		idx := strings.Index(s.src[pos:], s.start)
		if idx < 0 {
			val.WriteString(s.src[pos:])
			src.WriteString(s.src[pos:])

			break
		}

		idx += pos

		switch {
		case idx-2 >= pos && s.src[idx-1] == '\\' && s.src[idx-2] == '\\':
			// A literal backslash followed by a real tag.
			val.WriteString(s.src[pos : idx-1])
			src.WriteString(s.src[pos:idx])

		case idx-1 >= pos && s.src[idx-1] == '\\':
			// An escaped start delimiter is literal text.
			next := idx + len(s.start)
			val.WriteString(s.src[pos : idx-1])
			val.WriteString(s.start)
			src.WriteString(s.src[pos:next])
			pos = next

			continue

		default:
			val.WriteString(s.src[pos:idx])
			src.WriteString(s.src[pos:idx])
		}

		flush()

		p, next, err := s.scanTag(idx)
		if err != nil {
			return err
		}

		s.pieces = append(s.pieces, p)
		pos, textStart = next, next
	}

	flush()
	s.standalone()
	s.whitespace()

	return nil
}

func (s *scanner) scanTag(off int) (*piece, int, error) {
	if s.start == DefaultStartDelimiter && s.end == DefaultEndDelimiter &&
		strings.HasPrefix(s.src[off:], "{{{{") {
		return s.scanRaw(off)
	}

	p := &piece{kind: tagVariable, pos: s.position(off)}

	i := off + len(s.start)
	if i < len(s.src) && s.src[i] == '~' {
		p.trim.Left = true
		i++
	}

	if i >= len(s.src) {
		return nil, 0, s.errorf(off, "unclosed tag")
	}

	markers := []string{"~" + s.end, s.end}
	quoted := true

	switch s.src[i] {
	case '{':
		p.kind = tagTriple
		markers = []string{"}~" + s.end, "}" + s.end}
		i++

	case '&':
		p.kind = tagAmpersand
		i++

	case '#':
		p.kind = tagSection
		i++

		if i < len(s.src) {
			switch s.src[i] {
			case '>':
				p.kind = tagPartialBlock
				i++
			case '*':
				p.kind = tagInline
				i++
			}
		}

	case '^':
		p.kind = tagInverted
		i++

	case '/':
		p.kind = tagClose
		i++

	case '>':
		p.kind = tagPartial
		i++

	case '!':
		p.kind = tagComment
		quoted = false
		i++

		if strings.HasPrefix(s.src[i:], "--") {
			p.long = true
			markers = []string{"--~" + s.end, "--" + s.end}
			i += 2
		}

	case '=':
		p.kind = tagDelimiters
		markers = []string{"=" + s.end}
		quoted = false
		i++
	}

	end, marker := findClose(s.src, i, markers, quoted)
	if end < 0 {
		return nil, 0, s.errorf(off, "unclosed tag").
			With(slog.String("expected", markers[len(markers)-1]))
	}

	next := end + len(marker)
	p.trim.Right = strings.Contains(marker, "~")
	p.expr = s.src[i:end]
	p.src = s.src[off:next]

	switch p.kind {
	case tagComment:
		return p, next, nil

	case tagDelimiters:
		fields := strings.Fields(p.expr)
		if len(fields) != 2 || strings.Contains(p.expr, "=") {
			return nil, 0, s.errorf(off, "invalid delimiters %q", p.expr)
		}

		p.start, p.end = fields[0], fields[1]
		s.start, s.end = p.start, p.end

		return p, next, nil

	case tagVariable:
		if rest, ok := cutKeyword(strings.TrimSpace(p.expr), "else"); ok {
			p.kind = tagElse
			p.expr = rest
		}

	case tagInverted:
		if strings.TrimSpace(p.expr) == "" {
			p.kind = tagElse
		}
	}

	p.expr = strings.TrimSpace(p.expr)
	if p.expr == "" && p.kind != tagElse {
		return nil, 0, s.errorf(off, "empty tag")
	}

	return p, next, nil
}

// scanRaw scans a raw block "{{{{name}}}}…{{{{/name}}}}".
func (s *scanner) scanRaw(off int) (*piece, int, error) {
	p := &piece{kind: tagRaw, pos: s.position(off)}

	open := off + len("{{{{")

	end := strings.Index(s.src[open:], "}}}}")
	if end < 0 {
		return nil, 0, s.errorf(off, "unclosed raw block tag")
	}

	end += open
	p.expr = strings.TrimSpace(s.src[open:end])
	p.src = s.src[off : end+len("}}}}")]

	name, _, _ := strings.Cut(p.expr, " ")
	if name == "" {
		return nil, 0, s.errorf(off, "empty raw block tag")
	}

	closeTag := "{{{{/" + name + "}}}}"

	body := end + len("}}}}")

	stop := strings.Index(s.src[body:], closeTag)
	if stop < 0 {
		return nil, 0, s.errorf(off, "unclosed raw block %q", name).
			With(slog.String("expected", closeTag))
	}

	stop += body
	p.body = s.src[body:stop]
	p.closeSrc = closeTag

	return p, stop + len(closeTag), nil
}

// findClose returns the offset of the first marker at or after from,
// skipping quoted strings if quoted is set.
func findClose(src string, from int, markers []string, quoted bool) (int, string) {
	var quote byte

	for i := from; i < len(src); i++ {
		c := src[i]

		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}

			continue
		}

		if quoted && (c == '"' || c == '\'') {
			quote = c

			continue
		}

		for _, m := range markers {
			if strings.HasPrefix(src[i:], m) {
				return i, m
			}
		}
	}

	return -1, ""
}

// cutKeyword reports whether s is keyword or begins with keyword followed by
// whitespace, returning the remainder.
func cutKeyword(s, keyword string) (string, bool) {
	rest, ok := strings.CutPrefix(s, keyword)
	if !ok {
		return s, false
	}

	if rest == "" {
		return "", true
	}

	if !unicode.IsSpace(rune(rest[0])) {
		return s, false
	}

	return strings.TrimSpace(rest), true
}

// standalone marks the whitespace around tags that are alone on their line.
// Eligibility is decided from the untrimmed text of the neighbors.
func (s *scanner) standalone() {
	last := len(s.pieces) - 1

	for i, p := range s.pieces {
		if p.text || !p.kind.standalone() {
			continue
		}

		var indent string

		if i > 0 {
			prev := s.pieces[i-1]
			if !prev.text {
				continue
			}

			nl := strings.LastIndexByte(prev.value, '\n')
			if nl < 0 && i-1 != 0 {
				continue
			}

			indent = prev.value[nl+1:]
			if !isBlank(indent) {
				continue
			}
		}

		cut := 0

		if i < last {
			next := s.pieces[i+1]
			if !next.text {
				continue
			}

			nl := strings.IndexByte(next.value, '\n')
			if nl < 0 && i+1 != last {
				continue
			}

			line := next.value
			if nl >= 0 {
				line = next.value[:nl]
			}

			if !isBlank(line) {
				continue
			}

			cut = len(line)
			if nl >= 0 {
				cut++
			}
		}

		if i > 0 {
			prev := s.pieces[i-1]
			prev.tail = max(prev.tail, len(indent))
		}

		if i < last {
			next := s.pieces[i+1]
			next.head = max(next.head, cut)
		}

		p.indent = indent
	}
}

// whitespace applies "~" markers, which trim all adjacent whitespace.
func (s *scanner) whitespace() {
	for i, p := range s.pieces {
		if p.text {
			continue
		}

		if p.trim.Left && i > 0 && s.pieces[i-1].text {
			prev := s.pieces[i-1]
			n := len(prev.value) - len(strings.TrimRightFunc(prev.value, unicode.IsSpace))
			prev.tail = max(prev.tail, n)
		}

		if p.trim.Right && i < len(s.pieces)-1 && s.pieces[i+1].text {
			next := s.pieces[i+1]
			n := len(next.value) - len(strings.TrimLeftFunc(next.value, unicode.IsSpace))
			next.head = max(next.head, n)
		}
	}
}

func isBlank(s string) bool {
	for i := range len(s) {
		switch s[i] {
		case ' ', '\t', '\r':
		default:
			return false
		}
	}

	return true
}
