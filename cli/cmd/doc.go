// Package cmd implements the hbs subcommands: render, ast, init, and repl.
//
// Every command receives the [Engine] flags shared by the command tree and
// builds its template engine from them.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the configuration file.
	ConfigIdentifier = "config"
)
