// Package log provides a concurrency-safe logging interface based on
// [log/slog] with an additional trace level.
//
// Time formatting, caller information, and output format are fixed at logger
// creation time using functional options. A [Logger] is immutable; every
// configuration method returns a new value.
//
// # Basic Usage
//
//	logger := log.Make(os.Stderr)
//	logger.Info("rendered", slog.String("template", "page.hbs"))
//
// # Configuration
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("kitchen"),
//		log.WithCaller(true))
//
// The zero [Logger] discards everything, so structs may hold one without
// initializing it.
//
// # Package-Level Logger
//
// Functions such as [Info] and [ErrorContext] write through a default logger
// that is created at init and replaced with [Config] or [SetDefault].
// Context-unaware functions use [DefaultContextProvider].
package log
