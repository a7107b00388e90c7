package output

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// JSONFormatter writes indented JSON.
type JSONFormatter struct{}

func (JSONFormatter) Format(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(structured(data))
}

// YAMLFormatter writes YAML documents.
type YAMLFormatter struct{}

func (YAMLFormatter) Format(w io.Writer, data any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(structured(data)); err != nil {
		return err
	}
	return enc.Close()
}

// structured turns a Table into records keyed by lower-cased header.
// Other values are encoded as they are.
func structured(data any) any {
	if t, ok := data.(*Table); ok {
		return t.Records()
	}
	return data
}
