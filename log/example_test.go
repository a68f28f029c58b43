package log_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/hbs/lang"
	"github.com/ardnew/hbs/log"
)

// The log helper writes through the engine's logger at the level named by
// its level argument.
func Example_engine() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatText),
		log.WithTimeLayout("none"),
		log.WithLevel(log.LevelWarn))

	e := lang.New(lang.WithLogger(logger))

	tmpl, err := e.Parse(context.Background(), "stock", `{{log "low stock:" item level="warn"}}`)
	if err != nil {
		panic(err)
	}

	if _, err := e.RenderString(context.Background(), tmpl, map[string]any{"item": "widget"}); err != nil {
		panic(err)
	}

	// Output:
	// level=WARN msg="low stock: widget" helper=log
}

func Example_levels() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatText),
		log.WithTimeLayout("none"),
		log.WithLevel(log.LevelDebug))

	logger.Trace("scan tag")
	logger.Debug("compile", slog.String("template", "page.hbs"))

	// Output:
	// level=DEBUG msg=compile template=page.hbs
}

func Example_withAttributes() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatText),
		log.WithTimeLayout("none")).
		With(slog.String("template", "page.hbs"))

	logger.Info("rendered", slog.Int("bytes", 42))

	// Output:
	// level=INFO msg=rendered template=page.hbs bytes=42
}
