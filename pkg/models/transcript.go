package models

// Speaker roles assigned to transcript segments.
const (
	SpeakerDoctor  = "doctor"
	SpeakerPatient = "patient"
	SpeakerUnknown = "unknown"
)

// Word is a single recognized word as returned by a transcription provider.
// SpeakerTag is the provider's diarization tag (1-based; 0 means untagged).
type Word struct {
	Text       string
	SpeakerTag int
	Start      float64
	End        float64
	Timed      bool
}

// Segment is a contiguous speaker turn.
type Segment struct {
	Speaker string   `json:"speaker"`
	Text    string   `json:"text"`
	Start   *float64 `json:"start,omitempty"`
	End     *float64 `json:"end,omitempty"`
}
