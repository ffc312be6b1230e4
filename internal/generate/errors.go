package generate

import "errors"

var (
	ErrProviderUnavailable = errors.New("generation provider unavailable")
	ErrGenerationTimeout   = errors.New("generation timeout")
)
