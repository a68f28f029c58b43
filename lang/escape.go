package lang

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Escaper transforms text written by escaped variable tags.
type Escaper interface {
	Escape(s string) string
}

// EscaperFunc adapts a function to the [Escaper] interface.
type EscaperFunc func(string) string

// Escape implements [Escaper].
func (f EscaperFunc) Escape(s string) string { return f(s) }

// Predefined escapers.
var (
	// HTML escapes & < > " ' ` and =. It is the default.
	HTML Escaper = EscaperFunc(htmlReplacer.Replace)
	// XML escapes the five predefined XML entities.
	XML Escaper = EscaperFunc(xmlReplacer.Replace)
	// JS escapes text for use inside a quoted JavaScript string.
	JS Escaper = EscaperFunc(escapeJS)
	// CSV quotes fields containing separators, quotes, or line breaks.
	CSV Escaper = EscaperFunc(escapeCSV)
	// None writes text unchanged.
	None Escaper = EscaperFunc(func(s string) string { return s })
)

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"`", "&#x60;",
	"=", "&#x3D;",
)

var xmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Escapers returns the predefined escapers by name.
func Escapers() map[string]Escaper {
	return map[string]Escaper{
		"html": HTML,
		"xml":  XML,
		"js":   JS,
		"csv":  CSV,
		"none": None,
	}
}

// ParseEscaper returns the predefined escaper with the given name.
func ParseEscaper(name string) (Escaper, bool) {
	e, ok := Escapers()[strings.ToLower(strings.TrimSpace(name))]

	return e, ok
}

func escapeJS(s string) string {
	var sb strings.Builder

	sb.Grow(len(s))

	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '\'':
			sb.WriteString(`\'`)
		case '"':
			sb.WriteString(`\"`)
		case '/':
			sb.WriteString(`\/`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '<', '>', '&', '\u2028', '\u2029', utf8.RuneError:
			writeUnicodeEscape(&sb, r)
		default:
			if r < 0x20 || r == 0x7f {
				writeUnicodeEscape(&sb, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}

	return sb.String()
}

func writeUnicodeEscape(sb *strings.Builder, r rune) {
	hex := strconv.FormatInt(int64(r), 16)
	sb.WriteString(`\u`)
	sb.WriteString(strings.Repeat("0", 4-len(hex)))
	sb.WriteString(strings.ToUpper(hex))
}

func escapeCSV(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}

	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
