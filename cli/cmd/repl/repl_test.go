package repl

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/hbs/lang"
	"github.com/ardnew/hbs/log"
)

func testModel(t *testing.T, data any) model {
	t.Helper()

	return newModel(context.Background(), lang.New(), data, NewHistory(""), log.Logger{})
}

func TestModel_Render(t *testing.T) {
	m := testModel(t, map[string]any{"name": "<Ada>"})

	got, err := m.render("Hi {{name}}, {{{name}}}")
	if err != nil {
		t.Fatalf("render error: %v", err)
	}

	if want := "Hi &lt;Ada&gt;, <Ada>"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if _, err := m.render("{{#if x}}"); !errors.Is(err, lang.ErrSyntax) {
		t.Errorf("expected ErrSyntax, got %v", err)
	}
}

func TestModel_ShowData(t *testing.T) {
	m := testModel(t, map[string]any{"site": map[string]any{"name": "hbs"}})

	got, err := m.showData("site.name")
	if err != nil {
		t.Fatalf("data error: %v", err)
	}

	if got != "hbs" {
		t.Errorf("expected %q, got %q", "hbs", got)
	}

	got, err = m.showData("")
	if err != nil {
		t.Fatalf("data error: %v", err)
	}

	if !strings.Contains(got, "site:") || !strings.Contains(got, "name: hbs") {
		t.Errorf("expected YAML of the model, got %q", got)
	}

	if _, err := m.showData("a/../b"); !errors.Is(err, lang.ErrPath) {
		t.Errorf("expected ErrPath, got %v", err)
	}
}

func TestModel_ShowAST(t *testing.T) {
	m := testModel(t, nil)

	got, err := m.showAST("{{#if x}}y{{/if}}")
	if err != nil {
		t.Fatalf("ast error: %v", err)
	}

	if !strings.Contains(got, "if") {
		t.Errorf("expected if section in outline, got %q", got)
	}

	if _, err := m.showAST(""); !errors.Is(err, ErrNoTemplate) {
		t.Errorf("expected ErrNoTemplate, got %v", err)
	}
}

func TestModel_ExecuteInput(t *testing.T) {
	m := testModel(t, map[string]any{"n": 1})
	m.input.SetValue("{{n}}")

	m, _ = m.executeInput()

	if m.input.Value() != "" {
		t.Errorf("expected cleared input, got %q", m.input.Value())
	}

	if e, err := m.history.Entry(0); err != nil || e.Line != "{{n}}" || e.Mode != modeTemplate {
		t.Errorf("expected template history entry, got %v, %v", e, err)
	}

	m.switchToMode(modeCtrl)
	m.input.SetValue("quit")

	m, _ = m.executeInput()
	if !m.quitting {
		t.Error("expected quit command to stop the REPL")
	}
}

func TestModel_HistoryNavigation(t *testing.T) {
	m := testModel(t, nil)

	for _, e := range []HistoryEntry{
		{"{{a}}", modeTemplate},
		{"help", modeCtrl},
		{"{{b}}", modeTemplate},
	} {
		if err := m.history.Add(e.Line, e.Mode); err != nil {
			t.Fatal(err)
		}
	}

	m.historyIdx = m.history.Len()
	m.input.SetValue("draft")

	m.historyPrev(false)
	if m.input.Value() != "{{b}}" {
		t.Errorf("expected {{b}}, got %q", m.input.Value())
	}

	m.historyPrev(false)
	if m.input.Value() != "help" || m.mode != modeCtrl {
		t.Errorf("expected help in command mode, got %q in %s", m.input.Value(), m.mode)
	}

	m.historyNext(false)
	m.historyNext(false)

	if m.input.Value() != "" || m.historyIdx != m.history.Len() {
		t.Errorf("expected cleared input past newest entry, got %q at %d", m.input.Value(), m.historyIdx)
	}

	m.switchToMode(modeTemplate)
	m.historyPrev(true)
	m.historyPrev(true)

	if m.input.Value() != "{{a}}" {
		t.Errorf("expected same-mode navigation to skip commands, got %q", m.input.Value())
	}
}

func TestModel_HistoryCtrl(t *testing.T) {
	m := testModel(t, nil)

	if err := m.history.Add("data", modeCtrl); err != nil {
		t.Fatal(err)
	}

	m.historyIdx = m.history.Len()
	m.input.SetValue("{{draft}}")
	m.input.SetCursor(3)

	m.historyCtrl(-1)

	if m.mode != modeCtrl || m.input.Value() != "data" {
		t.Fatalf("expected command entry, got %q in %s", m.input.Value(), m.mode)
	}

	m.historyCtrl(1)

	if m.mode != modeTemplate || m.input.Value() != "{{draft}}" || m.input.Position() != 3 {
		t.Errorf("expected restored draft, got %q at %d in %s",
			m.input.Value(), m.input.Position(), m.mode)
	}
}

func TestModel_TabCompletion(t *testing.T) {
	m := testModel(t, map[string]any{"title": "T", "tally": 2})
	m.input.SetValue("{{t")
	m.input.SetCursor(3)
	m.refreshMatches(false)

	if len(m.matches) < 2 {
		t.Fatalf("expected several matches, got %v", m.matches)
	}

	first := m.matches[0].Str

	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyTab})

	if !m.tabActive || m.input.Value() != "{{"+first {
		t.Errorf("expected first candidate %q, got %q", first, m.input.Value())
	}

	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})

	if m.tabActive || m.input.Value() != "{{t" {
		t.Errorf("expected restored input, got %q", m.input.Value())
	}
}
