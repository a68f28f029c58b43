package repl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/hbs/lang"
	"github.com/ardnew/hbs/log"
)

// editDataMsg is sent when data editing completes successfully.
type editDataMsg struct{ data any }

// editCancelledMsg is sent when the user cleared the editor content.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after a decode
// error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process encounters a non-decode error.
type editErrorMsg struct{ err error }

const (
	tmplPrompt = "» "
	ctrlPrompt = " :"

	// replTemplate names templates entered at the prompt in error messages.
	replTemplate = "<repl>"
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help           Print this cruft
  data [PATH]    Print the data model, or the value at PATH
  helpers        List registered helpers
  partials       List registered partials
  ast TEMPLATE   Print the syntax tree of TEMPLATE
  edit           Edit the data model in external $EDITOR
  clear          Clear screen
  quit           Exit REPL

Usage:
  Type a template to render it against the data model
  Completions appear inside tags as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Press Esc to toggle between template and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Use Alt+Up/Alt+Down to switch to command mode and navigate command history
    (restores original mode when reaching end of history)
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeTemplate inputMode = iota
	modeCtrl
)

// prefix marks entries of the mode in the history file.
func (m inputMode) prefix() string {
	if m == modeCtrl {
		return "C:"
	}

	return "T:"
}

func (m inputMode) String() string {
	if m == modeCtrl {
		return "command"
	}

	return "template"
}

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// echo formats an accepted input line with its mode's prompt.
func echo(mode inputMode, input string) string {
	if mode == modeCtrl {
		return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
	}

	return promptStyle.Render(tmplPrompt) + inputStyle.Render(input)
}

// savedInput is the input text and cursor of an inactive mode.
type savedInput struct {
	text   string
	cursor int
}

// altNav is the state restored when Alt+Up/Down navigation runs off the
// command history.
type altNav struct {
	mode  inputMode
	input savedInput
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc      func() context.Context
	input        textinput.Model
	engine       *lang.Engine
	data         any
	logger       log.Logger
	history      *History
	historyIdx   int
	matches      fuzzy.Matches // current fuzzy match results
	wordStart    int           // byte offset of current word start
	wordEnd      int           // byte offset of current word end
	suggIdx      int           // selected candidate index
	tabActive    bool          // whether user is tab-cycling
	preTabText   string        // input text before tab-cycling began
	preTabCursor int           // cursor position before tab-cycling began
	alt          *altNav       // non-nil during Alt+Up/Down navigation
	width        int           // terminal width for ellipsization
	quitting     bool
	mode         inputMode
	saved        [2]savedInput // input of each mode, indexed by inputMode
}

// Run starts the REPL. Lines entered in template mode are rendered by e
// against data.
func Run(
	ctx context.Context,
	e *lang.Engine,
	data any,
	cacheDir string,
	logger log.Logger,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger.TraceContext(
		ctx,
		"repl start",
		slog.String("cache_dir", cacheDir),
		slog.Bool("has_data", data != nil),
	)

	if e == nil {
		return ErrNoEngine
	}

	history := NewHistory(filepath.Join(cacheDir, baseHistory))
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
	}

	logger.TraceContext(
		ctx,
		"repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	p := tea.NewProgram(newModel(ctx, e, data, history, logger), tea.WithContext(ctx))
	_, err = p.Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	e *lang.Engine,
	data any,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(tmplPrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		engine:     e,
		data:       data,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
		mode:       modeTemplate,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(tmplPrompt) - 2

		return m, nil

	case editDataMsg:
		m.data = msg.data
		m.logger.TraceContext(m.ctxFunc(), "repl edit complete")

		return m, tea.Println(resultStyle.Render("✔ data updated"))

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("🗴 edit cancelled"))

	case editDeclinedMsg:
		m.quitting = true

		return m, tea.Quit

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("🗴 error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")

	return b.String()
}

// statusLine renders the line below the input: the history position, a
// usage hint, the completion bar, or a helper signature.
func (m model) statusLine() string {
	input := m.input.Value()

	switch {
	case m.historyIdx < m.history.Len():
		return hintStyle.Render(fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len()))

	case strings.TrimSpace(input) == "":
		if m.mode == modeTemplate {
			return hintStyle.Render("Type a template or press Esc for commands")
		}

		return hintStyle.Render("Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)")

	case len(m.matches) > 0:
		return renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width)

	case m.mode == modeTemplate:
		start, end := m.engine.Delimiters()

		call := detectCall(input, m.input.Position(), start, end)
		if !call.inTag {
			return ""
		}

		if params, ok := usage(call.name, m.engine.Helpers()); ok {
			return renderHint(call.name, params, call.argIndex)
		}
	}

	return ""
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.alt = nil
		m.historyIdx = m.history.Len()
		m.refreshMatches(false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		m.alt = nil

		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}

		// Lock in the current tab candidate without executing.
		m.tabActive = false
		m.refreshMatches(true)

		return m, nil

	case tea.KeyTab:
		m.cycle(1)

		return m, nil

	case tea.KeyShiftTab:
		m.cycle(-1)

		return m, nil

	case tea.KeyUp:
		if msg.Alt {
			m.historyCtrl(-1)
		} else {
			m.historyPrev(false)
		}

		return m, nil

	case tea.KeyDown:
		if msg.Alt {
			m.historyCtrl(1)
		} else {
			m.historyNext(false)
		}

		return m, nil

	case tea.KeyShiftUp:
		m.historyPrev(true)

		return m, nil

	case tea.KeyShiftDown:
		m.historyNext(true)

		return m, nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			m.refreshMatches(false)

			return m, nil
		}

		m.alt = nil

		if m.mode == modeTemplate {
			m.switchToMode(modeCtrl)
		} else {
			m.switchToMode(modeTemplate)
		}

		return m, nil

	case tea.KeyRunes:
		// Space breaks out of tab-cycling.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		m.refreshMatches(true)

		return m, cmd
	}

	// Any other key edits or moves without auto-confirming a completion.
	var cmd tea.Cmd

	m.tabActive = false
	m.alt = nil
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	m.refreshMatches(false)

	return m, cmd
}

// cycle steps through the completion candidates in direction dir. A single
// candidate is accepted immediately.
func (m *model) cycle(dir int) {
	n := len(m.matches)
	if n == 0 {
		return
	}

	if n == 1 {
		m.replaceCurrentWord(m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return
	}

	if m.tabActive {
		m.suggIdx = (m.suggIdx + dir + n) % n
	} else {
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if dir < 0 {
			m.suggIdx = n - 1
		}
	}

	m.replaceCurrentWord(m.matches[m.suggIdx].Str)
}

// replaceCurrentWord replaces the current word with replacement and moves
// the cursor past it.
func (m *model) replaceCurrentWord(replacement string) {
	input := m.input.Value()
	cursor := m.wordStart + len(replacement)

	m.input.SetValue(input[:m.wordStart] + replacement + input[m.wordEnd:])
	m.input.SetCursor(cursor)

	m.wordEnd = cursor
}

// completer returns the completer for the engine and data model.
func (m *model) completer() completer {
	start, end := m.engine.Delimiters()

	return completer{
		start:   start,
		end:     end,
		helpers: m.engine.Helpers(),
		scope:   lang.NewContext(m.data),
	}
}

// refreshMatches recomputes the completions at the cursor. With autoConfirm
// set, a sole candidate equal to the typed word is accepted. Deletions and
// cursor movement pass false so that editing never completes unexpectedly.
func (m *model) refreshMatches(autoConfirm bool) {
	input, cursor := m.input.Value(), m.input.Position()

	if m.mode == modeCtrl {
		m.matches, m.wordStart, m.wordEnd = commandMatches(input, cursor)
	} else {
		m.matches, m.wordStart, m.wordEnd = m.completer().matches(input, cursor)
	}

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	if candidate := m.matches[0].Str; input[m.wordStart:m.wordEnd] == candidate {
		m.replaceCurrentWord(candidate)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	mode := m.mode

	m.saved = [2]savedInput{}
	m.input.SetValue("")
	m.matches = nil

	if err := m.history.Add(input, mode); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not save history", slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl input",
		slog.String("mode", mode.String()),
		slog.String("input", input),
	)

	if mode == modeCtrl {
		return m.executeCommand(input)
	}

	out, err := m.render(input)
	if err != nil {
		return m, tea.Sequence(
			tea.Println(echo(mode, input)),
			tea.Println(errorStyle.Render("error: "+err.Error())),
		)
	}

	return m, tea.Sequence(
		tea.Println(echo(mode, input)),
		tea.Println(resultStyle.Render(out)),
	)
}

// render compiles source and renders it against the data model.
func (m model) render(source string) (string, error) {
	ctx := m.ctxFunc()

	tmpl, err := m.engine.Parse(ctx, replTemplate, source)
	if err != nil {
		return "", err
	}

	return m.engine.RenderString(ctx, tmpl, m.data)
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	name, args, _ := strings.Cut(input, " ")
	args = strings.TrimSpace(args)

	echoCmd := tea.Println(echo(modeCtrl, input))

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl exec command",
		slog.String("command", name),
		slog.String("args", args),
	)

	var (
		out string
		err error
	)

	switch name {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echoCmd, tea.Quit)

	case "h", "help":
		out = helpMessage()

	case "d", "data":
		out, err = m.showData(args)

	case "helpers":
		out = m.listHelpers()

	case "partials":
		out = listNames(m.engine.Partials())

	case "ast":
		out, err = m.showAST(args)

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echoCmd, m.handleEdit())

	default:
		return m, tea.Println(errorStyle.Render("Unknown command: " + name + " (try 'help')"))
	}

	if err != nil {
		return m, tea.Sequence(echoCmd, tea.Println(errorStyle.Render("error: "+err.Error())))
	}

	return m, tea.Sequence(echoCmd, tea.Println(out))
}

// showData returns the data model, or the value at path, as YAML.
func (m model) showData(path string) (string, error) {
	v := m.data

	if path != "" {
		var err error

		v, err = lang.NewContext(m.data).Lookup(path)
		if err != nil {
			return "", err
		}
	}

	out, err := marshalData(m.ctxFunc(), v)
	if err != nil {
		return "", err
	}

	if len(out) == 0 {
		return hintStyle.Render("(empty)"), nil
	}

	return strings.TrimRight(string(out), "\n"), nil
}

// showAST returns the syntax tree outline of source.
func (m model) showAST(source string) (string, error) {
	if source == "" {
		return "", ErrNoTemplate
	}

	tmpl, err := m.engine.Parse(m.ctxFunc(), replTemplate, source)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Print(&buf, 2); err != nil {
		return "", err
	}

	return strings.TrimRight(buf.String(), "\n"), nil
}

func (m model) listHelpers() string {
	var b strings.Builder

	for _, name := range m.engine.Helpers() {
		params, _ := usage(name, []string{name})
		fmt.Fprintf(&b, "  %s %s\n", name, hintStyle.Render(strings.Join(params, " ")))
	}

	return b.String()
}

func listNames(names []string) string {
	if len(names) == 0 {
		return hintStyle.Render("(none)")
	}

	var b strings.Builder

	for _, name := range names {
		fmt.Fprintf(&b, "  %s\n", name)
	}

	return b.String()
}

func (m model) handleEdit() tea.Cmd {
	cmd := &editDataCommand{
		data:    m.data,
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		if errors.Is(err, ErrEditDeclined) {
			return editDeclinedMsg{}
		}

		if err != nil {
			return editErrorMsg{err: err}
		}

		if !cmd.edited {
			return editCancelledMsg{}
		}

		return editDataMsg{data: cmd.newData}
	})
}

// setInput replaces the input text and recomputes completions.
func (m *model) setInput(text string, cursor int) {
	m.input.SetValue(text)
	m.input.SetCursor(cursor)
	m.refreshMatches(false)
}

// historyMove moves to the nearest entry in direction step accepted by keep,
// switching to the entry's mode. It reports whether one was found.
func (m *model) historyMove(step int, keep func(HistoryEntry) bool) bool {
	for i := m.historyIdx + step; i >= 0 && i < m.history.Len(); i += step {
		entry, err := m.history.Entry(i)
		if err != nil || !keep(entry) {
			continue
		}

		m.historyIdx = i

		if m.mode != entry.Mode {
			m.switchToMode(entry.Mode)
		}

		m.setInput(entry.Line, len(entry.Line))

		return true
	}

	return false
}

func (m *model) filter(sameMode bool) func(HistoryEntry) bool {
	mode := m.mode

	return func(e HistoryEntry) bool { return !sameMode || e.Mode == mode }
}

func (m *model) historyPrev(sameMode bool) {
	m.historyMove(-1, m.filter(sameMode))
}

// historyNext moves forward, clearing the input past the newest entry.
func (m *model) historyNext(sameMode bool) {
	if m.historyMove(1, m.filter(sameMode)) || m.historyIdx >= m.history.Len() {
		return
	}

	m.historyIdx = m.history.Len()
	m.setInput("", 0)
}

// historyCtrl navigates command history only, switching to command mode.
// Running off either end restores the original mode and input.
func (m *model) historyCtrl(step int) {
	if m.alt == nil {
		m.alt = &altNav{
			mode:  m.mode,
			input: savedInput{m.input.Value(), m.input.Position()},
		}

		if m.mode != modeCtrl {
			m.switchToMode(modeCtrl)
		}
	}

	if m.historyMove(step, func(e HistoryEntry) bool { return e.Mode == modeCtrl }) {
		return
	}

	orig := m.alt
	m.alt = nil

	if orig.mode != m.mode {
		m.switchToMode(orig.mode)
	}

	m.historyIdx = m.history.Len()
	m.setInput(orig.input.text, orig.input.cursor)
}

// switchToMode switches to mode, saving the input of the current mode and
// restoring that of the new one.
func (m *model) switchToMode(mode inputMode) {
	m.saved[m.mode] = savedInput{m.input.Value(), m.input.Position()}
	m.mode = mode

	if mode == modeTemplate {
		m.input.Prompt = promptStyle.Render(tmplPrompt)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
	}

	m.setInput(m.saved[mode].text, m.saved[mode].cursor)
}
