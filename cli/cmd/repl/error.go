package repl

import "errors"

// Sentinel errors.
var (
	ErrOutOfBounds  = errors.New("index out of range")
	ErrEditDeclined = errors.New("decline edit")
	ErrNoEngine     = errors.New("no template engine")
	ErrNoTemplate   = errors.New("no template given")
)
