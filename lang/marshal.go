package lang

import (
	"encoding/json"
)

// MarshalJSON implements json.Marshaler for Template.
func (t *Template) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.ToMap())
}

// ToMap converts the template to native Go maps and slices, suitable for
// JSON or YAML encoding.
func (t *Template) ToMap() map[string]any {
	m := map[string]any{"nodes": nodesNative(t.Nodes)}
	if t.Name != "" {
		m["name"] = t.Name
	}

	return m
}

func nodesNative(nodes []Node) []any {
	result := make([]any, 0, len(nodes))
	for _, n := range nodes {
		result = append(result, nodeNative(n))
	}

	return result
}

// nodeNative converts a node to a map with a "type" key naming its kind.
func nodeNative(n Node) map[string]any {
	m := map[string]any{"position": n.Pos().String()}

	switch n := n.(type) {
	case *Text:
		m["type"] = "text"
		m["value"] = n.Value

	case *Variable:
		m["type"] = "variable"
		m["call"] = callNative(n.Call)

		if n.Unescaped {
			m["unescaped"] = true
		}

	case *Section:
		m["type"] = "section"
		m["call"] = callNative(n.Call)
		m["body"] = nodesNative(n.Body)

		if n.Inverted {
			m["inverted"] = true
		}

		if len(n.Inverse) > 0 {
			m["inverse"] = nodesNative(n.Inverse)
		}

		if len(n.BlockParams) > 0 {
			m["blockParams"] = n.BlockParams
		}

	case *Partial:
		m["type"] = "partial"

		if n.Dynamic != nil {
			m["dynamic"] = callNative(n.Dynamic.Call)
		} else {
			m["name"] = n.Name
		}

		if n.Context != nil {
			m["context"] = paramNative(n.Context)
		}

		if len(n.Hash) > 0 {
			m["hash"] = hashNative(n.Hash)
		}

		if n.Indent != "" {
			m["indent"] = n.Indent
		}

		if n.IsBlock {
			m["block"] = nodesNative(n.Block)
		}

	case *Comment:
		m["type"] = "comment"
		m["value"] = n.Value

	case *RawBlock:
		m["type"] = "raw"
		m["call"] = callNative(n.Call)
		m["body"] = n.Body

	case *Delimiters:
		m["type"] = "delimiters"
		m["start"] = n.Start
		m["end"] = n.End

	case *InlinePartial:
		m["type"] = "inline"
		m["name"] = n.Name
		m["body"] = nodesNative(n.Body)
	}

	return m
}

func callNative(c *Call) map[string]any {
	m := map[string]any{"name": c.Name.Original}

	if len(c.Params) > 0 {
		params := make([]any, len(c.Params))
		for i, p := range c.Params {
			params[i] = paramNative(p)
		}

		m["params"] = params
	}

	if len(c.Hash) > 0 {
		m["hash"] = hashNative(c.Hash)
	}

	return m
}

func hashNative(pairs []HashPair) map[string]any {
	m := make(map[string]any, len(pairs))
	for _, h := range pairs {
		m[h.Key] = paramNative(h.Value)
	}

	return m
}

// paramNative converts a parameter: literals to their values, paths to
// {"path": …}, and sub-expressions to {"call": …}.
func paramNative(p Param) any {
	switch p := p.(type) {
	case *Literal:
		return p.Value
	case *Path:
		return map[string]any{"path": p.Original}
	case *SubExpr:
		return map[string]any{"call": callNative(p.Call)}
	default:
		return nil
	}
}
