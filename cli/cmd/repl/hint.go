package repl

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// builtinUsage lists the arguments of the built-in helpers.
var builtinUsage = map[string][]string{
	"if":     {"condition", "includeZero=bool"},
	"unless": {"condition", "includeZero=bool"},
	"each":   {"list|map", "as |item key|"},
	"with":   {"context", "as |value|"},
	"lookup": {"object", "key"},
	"log":    {"message...", "level=debug|info|warn|error"},
	"eq":     {"a", "b"},
	"neq":    {"a", "b"},
	"gt":     {"a", "b"},
	"gte":    {"a", "b"},
	"lt":     {"a", "b"},
	"lte":    {"a", "b"},
	"and":    {"value..."},
	"or":     {"value..."},
	"not":    {"value"},
}

// genericUsage describes helpers registered without a known signature.
var genericUsage = []string{"value", "params...", "key=value..."}

var (
	hintNameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	hintParamStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	hintCurrentStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// tagCall describes the helper call being typed at the cursor.
type tagCall struct {
	name     string
	argIndex int // 0-based argument under the cursor, -1 on the name
	inTag    bool
}

// detectCall reports the helper call enclosing cursor. Nested
// sub-expressions take precedence over the tag's own call.
func detectCall(input string, cursor int, start, end string) tagCall {
	open, ok := tagStart(input, cursor, start, end)
	if !ok {
		return tagCall{}
	}

	body := input[open:min(cursor, len(input))]

	// Innermost unclosed sub-expression.
	depth := 0

	for i := len(body) - 1; i >= 0; i-- {
		switch body[i] {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				return callOf(body[i+1:])
			}

			depth--
		}
	}

	return callOf(strings.TrimLeft(body, "{#^/>&~*"))
}

// callOf splits the text of a call into its name and the index of the
// argument being typed.
func callOf(text string) tagCall {
	var (
		fields []string
		word   strings.Builder
		quote  byte
		depth  int
	)

	flush := func() {
		if word.Len() > 0 {
			fields = append(fields, word.String())
			word.Reset()
		}
	}

	for i := range len(text) {
		ch := text[i]

		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}

		case ch == '"' || ch == '\'':
			quote = ch

		case ch == '(':
			depth++

		case ch == ')':
			depth--

		case depth == 0 && (ch == ' ' || ch == '\t'):
			flush()

			continue
		}

		word.WriteByte(ch)
	}

	trailing := word.Len() == 0
	flush()

	if len(fields) == 0 {
		return tagCall{}
	}

	arg := len(fields) - 2
	if trailing {
		arg++
	}

	return tagCall{name: fields[0], argIndex: arg, inTag: true}
}

// usage returns the argument names of the named helper, or false when no
// helper of that name is registered.
func usage(name string, helpers []string) ([]string, bool) {
	if !slices.Contains(helpers, name) {
		return nil, false
	}

	if u, ok := builtinUsage[name]; ok {
		return u, true
	}

	return genericUsage, true
}

// renderHint renders a helper's usage with the current argument
// highlighted. Variadic arguments, named "...", stay highlighted past their
// position.
func renderHint(name string, params []string, argIndex int) string {
	var b strings.Builder

	b.WriteString(hintNameStyle.Render(name))

	current := min(argIndex, len(params)-1)

	if argIndex >= len(params) && len(params) > 0 && !isVariadic(params[len(params)-1]) {
		current = -1
	}

	for i, p := range params {
		b.WriteString(" ")

		if i == current {
			b.WriteString(hintCurrentStyle.Render(p))
		} else {
			b.WriteString(hintParamStyle.Render(p))
		}
	}

	return b.String()
}

func isVariadic(param string) bool { return strings.HasSuffix(param, "...") }
