// Package status tracks the progress of consultation jobs for pollers.
package status

import (
	"errors"
	"fmt"

	"github.com/kiranshivaraju/vintra/pkg/models"
)

// ErrInvalidTransition is returned when a job is moved to a state that is not a
// legal successor of its current state.
var ErrInvalidTransition = errors.New("invalid job status transition")

// Status is the snapshot exposed to pollers.
type Status struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Error    string `json:"error,omitempty"`
}

// NotFound is the snapshot reported for unknown job ids.
func NotFound() Status {
	return Status{Status: models.StatusNotFound, Progress: 0}
}

// Terminal reports whether s is completed or failed.
func (s Status) Terminal() bool {
	return s.Status == models.StatusCompleted || s.Status == models.StatusFailed
}

var progress = map[string]int{
	models.StatusInitializing:    0,
	models.StatusAudioProcessing: 20,
	models.StatusTranscribing:    50,
	models.StatusDiarizing:       70,
	models.StatusAnalyzing:       90,
	models.StatusCompleted:       100,
}

// Diarizing may go straight to completed when no document is requested.
var validTransitions = map[string][]string{
	models.StatusInitializing:    {models.StatusAudioProcessing},
	models.StatusAudioProcessing: {models.StatusTranscribing},
	models.StatusTranscribing:    {models.StatusDiarizing},
	models.StatusDiarizing:       {models.StatusAnalyzing, models.StatusCompleted},
	models.StatusAnalyzing:       {models.StatusCompleted},
}

// Progress returns the progress percentage associated with state.
func Progress(state string) (int, bool) {
	p, ok := progress[state]
	return p, ok
}

func checkTransition(from, to string) error {
	if to == models.StatusFailed {
		if from == models.StatusCompleted || from == models.StatusFailed {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
		}
		return nil
	}
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
