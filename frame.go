package main

import "encoding/json"

// frame is a JSON object builder for wire messages. The original server
// assembles these field-by-field with cJSON calls; encoding a map[string]any
// is the direct Go equivalent, used throughout the handlers and the session
// engine's broadcasts.
type frame map[string]any

// marshal renders a frame to its single-line JSON wire form. These are plain
// maps of strings/numbers/bools/slices, so Marshal cannot fail in practice;
// a failure still degrades to an empty object rather than panicking a reader.
func (f frame) marshal() string {
	b, err := json.Marshal(f)
	if err != nil {
		return "{}"
	}
	return string(b)
}
