package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Print writes an indented outline of the template's syntax tree.
func (t *Template) Print(w io.Writer, indent int) error {
	return printNodes(w, t.Nodes, indent, 0)
}

// FormatJSON writes the template tree as JSON to the writer.
func (t *Template) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(t, "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(t)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the template tree as YAML to the writer.
func (t *Template) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, t.ToMap(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}

func printNodes(w io.Writer, nodes []Node, indent, depth int) error {
	for _, n := range nodes {
		if err := printNode(w, n, indent, depth); err != nil {
			return err
		}
	}

	return nil
}

func printNode(w io.Writer, n Node, indent, depth int) error {
	pad := strings.Repeat(" ", indent*depth)

	line := func(format string, args ...any) error {
		_, err := fmt.Fprintf(w, "%s%s %s\n", pad, n.Pos(), fmt.Sprintf(format, args...))

		return err
	}

	switch n := n.(type) {
	case *Text:
		return line("text %s", strconv.Quote(n.Value))

	case *Variable:
		kind := "variable"
		if n.Unescaped {
			kind = "unescaped"
		}

		return line("%s %s", kind, n.Call)

	case *Section:
		kind := "section"
		if n.Inverted {
			kind = "inverted"
		}

		if err := line("%s %s%s", kind, n.Call, blockParams(n.BlockParams)); err != nil {
			return err
		}

		if err := printNodes(w, n.Body, indent, depth+1); err != nil {
			return err
		}

		if len(n.Inverse) == 0 {
			return nil
		}

		if _, err := fmt.Fprintf(w, "%s%s\n", pad, "else"); err != nil {
			return err
		}

		return printNodes(w, n.Inverse, indent, depth+1)

	case *Partial:
		name := n.Name
		if n.Dynamic != nil {
			name = n.Dynamic.String()
		}

		if n.Context != nil {
			name += " " + n.Context.String()
		}

		for _, h := range n.Hash {
			name += " " + h.Key + "=" + h.Value.String()
		}

		if !n.IsBlock {
			return line("partial %s", name)
		}

		if err := line("partial-block %s", name); err != nil {
			return err
		}

		return printNodes(w, n.Block, indent, depth+1)

	case *Comment:
		return line("comment %s", strconv.Quote(n.Value))

	case *RawBlock:
		return line("raw %s %s", n.Call, strconv.Quote(n.Body))

	case *Delimiters:
		return line("delimiters %s %s", n.Start, n.End)

	case *InlinePartial:
		if err := line("inline %s", strconv.Quote(n.Name)); err != nil {
			return err
		}

		return printNodes(w, n.Body, indent, depth+1)

	default:
		return line("unknown %T", n)
	}
}

func blockParams(names []string) string {
	if len(names) == 0 {
		return ""
	}

	return " as |" + strings.Join(names, " ") + "|"
}
