package pipeline

import (
	"errors"
	"fmt"

	"github.com/aktagon/inbox-sorter/internal/processor"
)

// Error markers. Match with errors.Is.
var (
	// ErrPendingStore wraps failures reading the pending store.
	ErrPendingStore = errors.New("pending store failure")
	// ErrCommitFailure wraps relocate and property-write failures.
	ErrCommitFailure = errors.New("commit failure")
	// ErrProcessorFailure wraps the contained cause of a degraded result.
	ErrProcessorFailure = errors.New("processor failure")
	// ErrUnsupported is the marker carried by manual-processing results.
	ErrUnsupported = processor.ErrUnsupported
)

// Stage names a point of failure in a run.
type Stage string

const (
	StageFetch           Stage = "fetch"
	StageRelocate        Stage = "relocate"
	StageWriteProperties Stage = "write_properties"
)

// StageError ties a failure to the stage and record it happened at.
type StageError struct {
	Stage    Stage
	RecordID string
	Err      error
}

func (e *StageError) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.RecordID, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
