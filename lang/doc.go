// Package lang compiles and renders Mustache/Handlebars templates.
//
// # Templates
//
// [Parse] compiles source text into an immutable [Template]: a tree of
// [Node] values. A template never refers to the data it is rendered with, so
// one template may be rendered concurrently by any number of goroutines.
//
//	Hello, {{name}}!              escaped variable
//	{{{html}}} {{& html}}         unescaped variable
//	{{#items}}…{{/items}}         section
//	{{^items}}…{{/items}}         inverted section
//	{{#if ok}}…{{else}}…{{/if}}   block helper with inverse
//	{{> card user size=2}}        partial with context and hash
//	{{#> layout}}…{{/layout}}     partial block
//	{{#*inline "x"}}…{{/inline}}  inline partial
//	{{! note}} {{!-- note --}}    comments
//	{{=<% %>=}}                   set delimiters
//	{{{{raw}}}}…{{{{/raw}}}}      raw block
//	\{{literal}}                  escaped tag
//
// A tag alone on its line is "standalone": the whole line, including its
// newline, is removed from the output. A "~" inside a delimiter trims all
// whitespace on that side of the tag.
//
// # Scopes
//
// Rendering walks the tree against a [Context], a chain of scopes each
// pairing a model with "@" data variables and local names. A bare name is
// looked up in the current scope and then in each enclosing scope; "this.",
// "./", and "../" pin the lookup to one scope. Names are resolved against a
// model by the resolvers of the [resolver] package, so maps, structs,
// accessor methods, and JSON documents are all valid models.
//
// Sections dispatch on the value of their name:
//
//   - a registered [Helper] is invoked with [Options] giving access to the
//     body and the inverse;
//   - true renders the body in the same scope;
//   - a list renders the body once per element with @index, @first, and
//     @last set;
//   - any other truthy value renders the body in a scope for that value;
//   - a falsy value renders the inverse.
//
// # Engine
//
// An [Engine] holds the helper and partial registries, a source loader from
// the [loader] package, and a [TemplateCache]. [Engine.Render] writes a
// template's output to an io.Writer. Errors are [*Error] values derived from
// the sentinels [ErrSyntax], [ErrPath], [ErrHelper], [ErrPartialNotFound],
// [ErrMaxDepthExceeded], and [ErrWrite]; unresolved names are not errors and
// render as nothing.
package lang
