//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

// Version is the semantic version of the hbs module embedded at build time.
//
//go:embed VERSION
var version string

// Version returns the embedded module version without surrounding whitespace.
func Version() string { return strings.TrimSpace(version) }

const (
	// Name is the canonical command and module identifier. It appears in help
	// text, default config paths, and the environment variable prefix.
	Name = "hbs"
	// Description is a short, human-readable summary used in help output.
	Description = "Mustache/Handlebars template renderer"
)

// EnvPrefix is the prefix of every environment variable read by the CLI.
const EnvPrefix = "HBS_"

// AuthorInfo represents an individual author's name and email address.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the primary author(s) of the project for display in metadata.
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
