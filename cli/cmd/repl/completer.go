package repl

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/hbs/lang"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{
	"help", "data", "helpers", "partials", "ast", "edit", "clear", "quit",
}

// keywords are completions valid in any tag.
var keywords = []string{
	"this", "else", "@root", "@index", "@key", "@first", "@last",
}

// completer proposes the names valid at the cursor of a template line.
type completer struct {
	start, end string
	helpers    []string
	scope      *lang.Context
}

// isWordBoundary reports whether r delimits a completion word. Member
// separators '.' and '/' are boundaries so that each path segment completes
// on its own.
func isWordBoundary(r rune) bool {
	switch r {
	case ' ', '\t', '\n',
		'.', '/',
		'(', ')', '=', '|',
		'{', '}', '#', '^', '>', '&', '~', '!', '*',
		'"', '\'':
		return true
	}

	return false
}

// wordBounds returns the word at the cursor and its byte offsets within
// input. The word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the member chain leading up to the word starting at
// wordStart, or "" for a top-level word. For "{{#each site.pages." the
// parent of the empty word is "site.pages".
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]
	if !strings.HasSuffix(prefix, ".") && !strings.HasSuffix(prefix, "/") {
		return ""
	}

	prefix = prefix[:len(prefix)-1]
	pos := len(prefix)

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && r != '/' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return prefix[pos:]
}

// tagStart returns the offset just past the opening delimiter of the tag
// enclosing cursor. It reports false when cursor is outside any tag.
func tagStart(input string, cursor int, start, end string) (int, bool) {
	head := input[:min(cursor, len(input))]

	open := strings.LastIndex(head, start)
	if open < 0 {
		return 0, false
	}

	if strings.LastIndex(head, end) > open {
		return 0, false
	}

	return open + len(start), true
}

// candidates returns the names that may follow parent. The top level offers
// helpers, keywords, and the members of the current scope.
func (c completer) candidates(parent string) []string {
	if parent == "" {
		names := slices.Clone(c.helpers)
		names = append(names, keywords...)

		return append(names, c.members(c.scope.Model())...)
	}

	v, err := c.scope.Lookup(parent)
	if err != nil || v == nil {
		return nil
	}

	return c.members(v)
}

func (c completer) members(v any) []string {
	props, ok := c.scope.Properties(v)
	if !ok {
		return nil
	}

	names := make([]string, 0, len(props))
	for _, p := range props {
		names = append(names, p.Name)
	}

	return names
}

// matches returns the ranked completions for the word at cursor of a
// template line and the word's byte offsets. Completion only applies inside
// a tag. An empty top-level word yields no matches; an empty word after a
// member separator lists every member.
func (c completer) matches(input string, cursor int) (fuzzy.Matches, int, int) {
	word, ws, we := wordBounds(input, cursor)

	open, ok := tagStart(input, cursor, c.start, c.end)
	if !ok || ws < open {
		return nil, ws, we
	}

	parent := parentPath(input, ws)
	candidates := c.candidates(parent)

	if len(candidates) == 0 {
		return nil, ws, we
	}

	if word == "" {
		if parent == "" {
			return nil, ws, we
		}

		all := make(fuzzy.Matches, len(candidates))
		for i, s := range candidates {
			all[i] = fuzzy.Match{Str: s, Index: i}
		}

		return all, ws, we
	}

	return fuzzy.Find(word, candidates), ws, we
}

// commandMatches returns the ranked completions for a control command.
func commandMatches(input string, cursor int) (fuzzy.Matches, int, int) {
	word, ws, we := wordBounds(input, cursor)
	if word == "" || ws > 0 {
		return nil, ws, we
	}

	return fuzzy.Find(word, ctrlCommands), ws, we
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within width. The selected candidate uses the selected style while
// tab-cycling.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if used+entryWidth+ellipsisWidth > width && i > 0 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a candidate with its matched characters
// highlighted.
func renderCandidate(match fuzzy.Match, selected bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	matched := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matched[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if matched[i] {
			b.WriteString(highlightStyle.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	return b.String()
}
