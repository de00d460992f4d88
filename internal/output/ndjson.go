package output

import (
	"encoding/json"
	"io"

	"github.com/devtether/tether/internal/domain"
)

// NDJSONWriter writes structured results one JSON object per line.
type NDJSONWriter struct {
	w       io.Writer
	encoder *json.Encoder
}

// NewNDJSONWriter creates a new NDJSON writer
func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false) // keep log lines and selectors unescaped
	return &NDJSONWriter{
		w:       w,
		encoder: enc,
	}
}

// WriteSnapshot outputs one manifest entry.
func (w *NDJSONWriter) WriteSnapshot(entry domain.SnapshotEntry) error {
	return w.encoder.Encode(entry)
}

// WriteError outputs a structured error.
func (w *NDJSONWriter) WriteError(code, message string, hint ...string) error {
	out := domain.NewErrorOutput(code, message)
	if len(hint) > 0 {
		out.Hint = hint[0]
	}
	return w.encoder.Encode(out)
}

// WriteRaw outputs any value as one line.
func (w *NDJSONWriter) WriteRaw(v interface{}) error {
	return w.encoder.Encode(v)
}

// writeIndented renders v as an indented JSON document with a trailing
// newline.
func writeIndented(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
