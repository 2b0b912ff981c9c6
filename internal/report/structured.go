package report

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/lars-sto/wsn-trace-stats/internal/stats"
)

// WriteYAML serializes r; undefined averages become null.
func WriteYAML(w io.Writer, r stats.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

// WriteJSON serializes r; undefined averages become null.
func WriteJSON(w io.Writer, r stats.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
