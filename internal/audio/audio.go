// Package audio validates uploaded consultation audio and manages its
// transient on-disk copy.
package audio

import (
	"errors"
	"fmt"
	"mime"
	"strings"
)

// Validation errors. All of them are client errors.
var (
	ErrNoAudio         = errors.New("no audio provided")
	ErrTooLarge        = errors.New("audio exceeds maximum size")
	ErrUnsupportedType = errors.New("unsupported audio type")
)

// Limits bound what Validate accepts.
type Limits struct {
	MaxSizeBytes int64
	AllowedTypes []string
}

// Validate checks size and MIME type. Parameters such as ";codecs=opus" are
// ignored when matching the type.
func Validate(size int64, mimeType string, limits Limits) error {
	if size <= 0 {
		return ErrNoAudio
	}
	if limits.MaxSizeBytes > 0 && size > limits.MaxSizeBytes {
		return fmt.Errorf("%w: %d bytes, limit is %d", ErrTooLarge, size, limits.MaxSizeBytes)
	}

	base := BaseType(mimeType)
	for _, allowed := range limits.AllowedTypes {
		if base == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedType, mimeType)
}

// BaseType returns the lowercased media type without parameters.
func BaseType(mimeType string) string {
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mt
	}
	base, _, _ := strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

var extensions = map[string]string{
	"audio/webm": ".webm",
	"audio/wav":  ".wav",
	"audio/mpeg": ".mp3",
	"audio/mp4":  ".m4a",
	"audio/ogg":  ".ogg",
}

// Extension returns the file extension for mimeType, defaulting to ".webm".
func Extension(mimeType string) string {
	if ext, ok := extensions[BaseType(mimeType)]; ok {
		return ext
	}
	return ".webm"
}
