package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInvalidOptions is returned when the options payload cannot be parsed.
var ErrInvalidOptions = errors.New("invalid processing options")

// Options controls what happens after transcription. The zero value returns
// segments only.
type Options struct {
	// AutoProcess generates a document after segmentation.
	AutoProcess bool `json:"autoProcess"`
	// UseVintraAnalysis routes vintra documents to the secondary backend.
	UseVintraAnalysis bool `json:"useVintraAnalysis"`
	// Format is the document type; empty means general.
	Format string `json:"format"`
	// PatientContext is free text forwarded to the generator and backend.
	PatientContext string `json:"patientContext"`
}

// optionKeys are the accepted option names, matched case-sensitively.
var optionKeys = map[string]bool{
	"autoProcess":       true,
	"useVintraAnalysis": true,
	"format":            true,
	"patientContext":    true,
}

// ParseOptions decodes a JSON options object. Empty input yields the zero
// value. Keys must match the option names exactly; anything else is rejected.
func ParseOptions(raw string) (Options, error) {
	var opts Options
	if strings.TrimSpace(raw) == "" {
		return opts, nil
	}

	var fields map[string]json.RawMessage
	dec := json.NewDecoder(strings.NewReader(raw))
	if err := dec.Decode(&fields); err != nil {
		return Options{}, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Options{}, fmt.Errorf("%w: trailing data after options object", ErrInvalidOptions)
	}
	for key := range fields {
		if !optionKeys[key] {
			return Options{}, fmt.Errorf("%w: unknown option %q", ErrInvalidOptions, key)
		}
	}

	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return Options{}, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return opts, nil
}

// String renders opts for logging, without patient context.
func (o Options) String() string {
	return fmt.Sprintf("autoProcess=%t useVintraAnalysis=%t format=%q", o.AutoProcess, o.UseVintraAnalysis, o.Format)
}
