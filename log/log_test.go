package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestLogger_Make_DefaultConfiguration(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf)

	if logger.Level() != LevelInfo {
		t.Errorf("expected default level info, got %v", logger.Level())
	}
	if logger.config.caller {
		t.Error("expected caller disabled by default")
	}
	if logger.Format() != FormatJSON {
		t.Errorf("expected default format json, got %v", logger.Format())
	}
}

func TestLogger_Make_WithLevel_FiltersMessages(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithLevel(LevelError))
	logger.Info("info message")
	if buf.Len() > 0 {
		t.Errorf("expected info suppressed at error level, got %s", buf.String())
	}

	logger.Error("error message")
	if !strings.Contains(buf.String(), "error message") {
		t.Errorf("expected error message, got %s", buf.String())
	}
}

func TestLogger_Trace_UsesTraceLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithLevel(LevelTrace), WithTimeLayout("none"))

	logger.Trace("deep detail")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON record, got %q: %v", buf.String(), err)
	}
	if rec["level"] != "TRACE" {
		t.Errorf("expected level TRACE, got %v", rec["level"])
	}
	if _, ok := rec["time"]; ok {
		t.Errorf("expected no time attribute, got %v", rec["time"])
	}
}

func TestLogger_Make_WithFormat_SetsOutputFormat(t *testing.T) {
	tests := []struct {
		name     string
		format   Format
		contains string
	}{
		{"json", FormatJSON, `"msg":"hello"`},
		{"text", FormatText, "msg=hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Make(&buf, WithFormat(tt.format)).Info("hello")

			if !strings.Contains(buf.String(), tt.contains) {
				t.Errorf("expected %q in output, got %s", tt.contains, buf.String())
			}
		})
	}
}

func TestLogger_WithCaller_IncludesSource(t *testing.T) {
	var buf bytes.Buffer
	Make(&buf, WithCaller(true)).Info("with caller")

	if !strings.Contains(buf.String(), "log_test.go") {
		t.Errorf("expected caller file in output, got %s", buf.String())
	}

	buf.Reset()
	Make(&buf, WithCaller(false)).Info("without caller")

	if strings.Contains(buf.String(), "log_test.go") {
		t.Errorf("expected no caller file in output, got %s", buf.String())
	}
}

func TestLogger_With_AddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf).With(slog.String("component", "render"))

	logger.Info("done", slog.Int("bytes", 12))

	out := buf.String()
	for _, want := range []string{`"component":"render"`, `"bytes":12`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in output, got %s", want, out)
		}
	}
}

func TestLogger_Pretty_KeepsAttributes(t *testing.T) {
	tests := []struct {
		name   string
		format Format
	}{
		{"text", FormatText},
		{"json", FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := Make(&buf, WithPretty(true), WithFormat(tt.format)).
				With(slog.String("partial", "header"))

			logger.Warn("missing")

			out := buf.String()
			if !strings.Contains(out, "partial") || !strings.Contains(out, "header") {
				t.Errorf("expected logger attribute in output, got %s", out)
			}
			if !strings.Contains(out, "WARN") {
				t.Errorf("expected level in output, got %s", out)
			}
		})
	}
}

func TestLogger_Wrap_OverridesConfig(t *testing.T) {
	var first, second bytes.Buffer

	base := Make(&first, WithLevel(LevelError))
	wrapped := base.Wrap(WithOutput(&second), WithLevel(LevelDebug))

	wrapped.Debug("visible")
	base.Debug("hidden")

	if first.Len() != 0 {
		t.Errorf("expected base logger to stay at error level, got %s", first.String())
	}
	if !strings.Contains(second.String(), "visible") {
		t.Errorf("expected wrapped output, got %s", second.String())
	}
}

func TestLogger_ZeroValue_Safety(t *testing.T) {
	var logger Logger

	logger.Info("ignored")
	logger.ErrorContext(context.Background(), "ignored")

	if logger.Enabled(context.Background(), LevelError) {
		t.Error("expected zero logger to be disabled")
	}
	if got := logger.With(slog.String("k", "v")); got.Logger != nil {
		t.Error("expected With on zero logger to stay zero")
	}
}

func TestLogger_ContextMethods_LogSuccessfully(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithLevel(LevelTrace))
	ctx := context.Background()

	tests := []struct {
		name string
		fn   func(context.Context, string, ...slog.Attr)
		want string
	}{
		{"trace", logger.TraceContext, "TRACE"},
		{"debug", logger.DebugContext, "DEBUG"},
		{"info", logger.InfoContext, "INFO"},
		{"warn", logger.WarnContext, "WARN"},
		{"error", logger.ErrorContext, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn(ctx, "message")

			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("expected level %s, got %s", tt.want, buf.String())
			}
		})
	}
}

func TestLogger_ConcurrentCalls_ThreadSafe(t *testing.T) {
	var (
		mu  sync.Mutex
		buf bytes.Buffer
		wg  sync.WaitGroup
	)

	logger := Make(writerFunc(func(p []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()

		return buf.Write(p)
	}))

	for i := range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			logger.Info("concurrent", slog.Int("i", i))
		}()
	}

	wg.Wait()

	if got := strings.Count(buf.String(), "\n"); got != 16 {
		t.Errorf("expected 16 records, got %d", got)
	}
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

func BenchmarkLogger_Info_WithCaller(b *testing.B) {
	var buf bytes.Buffer
	logger := Make(&buf, WithCaller(true))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		logger.Info("benchmark")
	}
}
