package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions(`{"autoProcess":true,"useVintraAnalysis":true,"format":"vintra","patientContext":"54 anos"}`)
	require.NoError(t, err)
	assert.Equal(t, Options{AutoProcess: true, UseVintraAnalysis: true, Format: "vintra", PatientContext: "54 anos"}, opts)
}

func TestParseOptions_EmptyIsZero(t *testing.T) {
	for _, raw := range []string{"", "  ", "{}", "null"} {
		opts, err := ParseOptions(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, Options{}, opts, raw)
	}
}

func TestParseOptions_Invalid(t *testing.T) {
	for _, raw := range []string{
		`{"autoprocess":true}`,
		`{"AUTOPROCESS":true,"FORMAT":"soap"}`,
		`{"autoProcess":true,"extra":1}`,
		`{"autoProcess":"yes"}`,
		`not json`,
		`{"format":"soap"} {}`,
		`[]`,
	} {
		_, err := ParseOptions(raw)
		assert.ErrorIs(t, err, ErrInvalidOptions, raw)
	}
}

func TestParseOptions_KeysAreCaseSensitive(t *testing.T) {
	_, err := ParseOptions(`{"Format":"soap"}`)
	require.ErrorIs(t, err, ErrInvalidOptions)
	assert.Contains(t, err.Error(), `"Format"`)

	opts, err := ParseOptions(`{"format":"soap"}`)
	require.NoError(t, err)
	assert.Equal(t, "soap", opts.Format)
}

func TestOptions_StringOmitsPatientContext(t *testing.T) {
	s := Options{AutoProcess: true, PatientContext: "segredo"}.String()
	assert.Contains(t, s, "autoProcess=true")
	assert.NotContains(t, s, "segredo")
}
