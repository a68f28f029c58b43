package lang

// Helper is a named function invoked by variable and section tags.
//
// value is the first positional argument, or the current model when the
// tag has none. The result of a variable helper is escaped unless it is a
// [SafeString]; the result of a block helper is written as is.
//
// Helpers must not retain opts beyond the call.
type Helper interface {
	Apply(value any, opts *Options) (any, error)
}

// HelperFunc adapts a function to the [Helper] interface.
type HelperFunc func(value any, opts *Options) (any, error)

// Apply implements [Helper].
func (f HelperFunc) Apply(value any, opts *Options) (any, error) {
	return f(value, opts)
}
