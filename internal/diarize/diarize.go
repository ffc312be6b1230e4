// Package diarize groups transcript tokens into speaker-labeled turns.
package diarize

import (
	"strings"

	"github.com/kiranshivaraju/vintra/pkg/models"
)

// FromWords groups tag-per-word diarization output into contiguous speaker turns.
// A new segment starts exactly when the speaker tag changes. Returns an empty
// slice (never nil) for empty input.
func FromWords(words []models.Word, roles RoleMap) []models.Segment {
	segments := []models.Segment{}
	if len(words) == 0 {
		return segments
	}

	var (
		buf     []string
		current = words[0].SpeakerTag
		first   = words[0]
		last    = words[0]
	)

	flush := func() {
		if len(buf) == 0 {
			return
		}
		seg := models.Segment{
			Speaker: roles.Role(current),
			Text:    strings.Join(buf, " "),
		}
		if first.Timed && last.Timed {
			start, end := first.Start, last.End
			seg.Start = &start
			seg.End = &end
		}
		segments = append(segments, seg)
	}

	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		if w.SpeakerTag != current {
			flush()
			buf = buf[:0]
			current = w.SpeakerTag
		}
		if len(buf) == 0 {
			first = w
		}
		buf = append(buf, text)
		last = w
	}
	flush()

	return segments
}

// Prefix markers recognized in manual transcripts, matched case-insensitively.
var prefixes = []struct {
	marker  string
	speaker string
}{
	{"doutor:", models.SpeakerDoctor},
	{"dr:", models.SpeakerDoctor},
	{"paciente:", models.SpeakerPatient},
	{"p:", models.SpeakerPatient},
}

// FromPrefixed labels each chunk by its speaker prefix ("Dr:", "Paciente:", ...).
// Chunks map 1:1 to segments; no merging is performed. Chunks without a
// recognized prefix are labeled unknown.
func FromPrefixed(chunks []string) []models.Segment {
	segments := make([]models.Segment, 0, len(chunks))
	for _, chunk := range chunks {
		speaker, text := splitPrefix(strings.TrimSpace(chunk))
		segments = append(segments, models.Segment{Speaker: speaker, Text: text})
	}
	return segments
}

func splitPrefix(chunk string) (string, string) {
	lower := strings.ToLower(chunk)
	for _, p := range prefixes {
		if strings.HasPrefix(lower, p.marker) {
			return p.speaker, strings.TrimSpace(chunk[len(p.marker):])
		}
	}
	return models.SpeakerUnknown, chunk
}

// SplitLines splits a plain-text transcript into its non-blank lines.
func SplitLines(text string) []string {
	var chunks []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			chunks = append(chunks, line)
		}
	}
	return chunks
}
