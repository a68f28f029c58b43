package log

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"
)

func TestMakeConfig_Defaults(t *testing.T) {
	c := makeConfig(nil)

	if c.output != io.Discard {
		t.Errorf("expected io.Discard output, got %T", c.output)
	}

	if c.level != DefaultLevel || c.format != DefaultFormat {
		t.Errorf("expected %s/%s, got %s/%s", DefaultLevel, DefaultFormat, c.level, c.format)
	}

	if c.caller != DefaultCaller || c.pretty != DefaultPretty {
		t.Errorf("expected caller=%t pretty=%t, got caller=%t pretty=%t",
			DefaultCaller, DefaultPretty, c.caller, c.pretty)
	}
}

func TestConfig_Apply(t *testing.T) {
	var buf bytes.Buffer

	tests := []struct {
		name  string
		opt   Option
		check func(config) bool
	}{
		{"level", WithLevel(LevelTrace), func(c config) bool { return c.level == LevelTrace }},
		{"format", WithFormat(FormatText), func(c config) bool { return c.format == FormatText }},
		{"caller", WithCaller(true), func(c config) bool { return c.caller }},
		{"pretty", WithPretty(true), func(c config) bool { return c.pretty }},
		{"output", WithOutput(&buf), func(c config) bool { return c.output == &buf }},
		{"nil output", WithOutput(nil), func(c config) bool { return c.output == io.Discard }},
		{"nil option", nil, func(c config) bool { return c.level == DefaultLevel }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if c := makeConfig(io.Discard, tt.opt); !tt.check(c) {
				t.Errorf("expected option %s to apply, got %+v", tt.name, c)
			}
		})
	}
}

func TestMakeFormatTimeFunc(t *testing.T) {
	at := time.Date(2023, 10, 15, 14, 30, 45, 123456789, time.UTC)

	tests := []struct {
		layout string
		want   string
	}{
		{"RFC3339", "2023-10-15T14:30:45Z"},
		{"rfc_3339_nano", "2023-10-15T14:30:45.123456789Z"},
		{"Kitchen", "2:30PM"},
		{"ms", "Oct 15 14:30:45.123"},
		{"2006-01-02", "2023-10-15"},
		{"none", ""},
		{"", ""},
		{" \t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			if got := makeFormatTimeFunc(tt.layout)(at); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestConfig_Handler(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		log     func(Logger)
		want    []string
		notWant []string
	}{
		{
			name: "trace level name",
			opts: []Option{WithLevel(LevelTrace), WithFormat(FormatText)},
			log:  func(l Logger) { l.Trace("parse") },
			want: []string{"level=TRACE", "msg=parse"},
		},
		{
			name:    "timestamp disabled",
			opts:    []Option{WithFormat(FormatText), WithTimeLayout("none")},
			log:     func(l Logger) { l.Info("render") },
			want:    []string{"msg=render"},
			notWant: []string{"time="},
		},
		{
			name: "json record",
			opts: []Option{WithFormat(FormatJSON), WithTimeLayout("none")},
			log:  func(l Logger) { l.Warn("missing partial") },
			want: []string{`"level":"WARN"`, `"msg":"missing partial"`},
		},
		{
			name:    "below level",
			opts:    []Option{WithLevel(LevelError), WithFormat(FormatText)},
			log:     func(l Logger) { l.Warn("dropped") },
			notWant: []string{"dropped"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			tt.log(Make(&buf, tt.opts...))

			out := buf.String()
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("expected %q in %q", s, out)
				}
			}

			for _, s := range tt.notWant {
				if strings.Contains(out, s) {
					t.Errorf("expected no %q in %q", s, out)
				}
			}
		})
	}
}
