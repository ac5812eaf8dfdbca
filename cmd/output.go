package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// emitStructured writes v to stdout as JSON or YAML according to --output.
// It returns false when the table format is selected, leaving rendering to
// the caller.
func emitStructured(v any) (bool, error) {
	switch outputFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return true, encoder.Encode(v)
	case "yaml":
		encoder := yaml.NewEncoder(os.Stdout)
		defer encoder.Close()
		encoder.SetIndent(2)
		return true, encoder.Encode(v)
	case "table":
		return false, nil
	default:
		return true, fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}
