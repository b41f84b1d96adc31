package cmdutil

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by --format.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ValidateFormat rejects formats WriteFormatted cannot render.
func ValidateFormat(format string) error {
	switch format {
	case FormatJSON, FormatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported format %q; must be json or yaml", format)
	}
}

// WriteFormatted renders v to w as indented JSON or YAML.
func WriteFormatted(w io.Writer, format string, v any) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml; %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json; %w", err)
		}
		return nil
	default:
		return ValidateFormat(format)
	}
}
