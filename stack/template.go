package stack

import (
	"encoding/json"
	"fmt"

	"github.com/ghodss/yaml"
	cloudformation "github.com/mweagle/go-cloudformation"
)

// Format is the serialization of a rendered template.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Render serializes t. JSON output is indented, YAML output is converted
// from the same JSON document so both carry identical content.
func Render(t *cloudformation.Template, format Format) (string, error) {
	buf, err := json.MarshalIndent(t, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal template: %w", err)
	}

	switch format {
	case FormatJSON, "":
		return string(buf), nil
	case FormatYAML:
		y, err := yaml.JSONToYAML(buf)
		if err != nil {
			return "", fmt.Errorf("failed to convert template to yaml: %w", err)
		}
		return string(y), nil
	}
	return "", fmt.Errorf("unsupported template format %q", format)
}

// Synthesize builds and renders the template of cfg in one step.
func Synthesize(cfg Config, format Format) (string, error) {
	t, err := Build(cfg)
	if err != nil {
		return "", err
	}
	return Render(t, format)
}
