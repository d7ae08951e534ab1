// Package output renders command results as JSON or YAML.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Format defines the output format for CLI commands.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a --output flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatYAML:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown output format %q (want json or yaml)", s)
}

// WriteTo writes data to w in format. JSON is indented when pretty is set; YAML always is.
// YAML keys follow the JSON field names and order.
func WriteTo(w io.Writer, format Format, data any, pretty bool) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		if pretty {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(data)
	case FormatYAML:
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		var node yaml.Node
		if err := yaml.Unmarshal(raw, &node); err != nil {
			return err
		}
		blockStyle(&node)
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
		_, err = w.Write(buf.Bytes())
		return err
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

// blockStyle drops the flow and quoting styles the JSON input was parsed with.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
