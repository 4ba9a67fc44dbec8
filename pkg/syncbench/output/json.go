package output

import (
	"bytes"
	"encoding/json"
)

// document is the serialized form shared by the json and yaml formatters.
type document struct {
	Result  `yaml:",inline"`
	Elapsed string `json:"elapsed" yaml:"elapsed"`
	Total   string `json:"total_run_time" yaml:"total_run_time"`
}

func newDocument(r *Result) document {
	cp := *r
	if cp.Rows == nil {
		cp.Rows = []Row{}
	}
	return document{
		Result:  cp,
		Elapsed: formatDuration(r.Elapsed),
		Total:   formatDuration(r.TotalRunTime()),
	}
}

// JSONFormatter writes the report as a single indented JSON object.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newDocument(r))
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

var _ Formatter = (*JSONFormatter)(nil)
