// Package store defines the pending and destination record stores the
// pipeline reads from and commits to. Backends live in subpackages.
package store

import (
	"context"
	"errors"

	"github.com/aktagon/inbox-sorter/internal/content"
)

// ErrNotFound is returned when a record id does not exist in the backend.
var ErrNotFound = errors.New("record not found")

// Pending yields records awaiting processing. FetchNext returns nil, nil
// when the queue is empty. It takes no lease, so concurrent callers may
// receive the same record.
type Pending interface {
	FetchNext(ctx context.Context) (*content.SourceRecord, error)
}

// Destination receives processed records. Relocate and WriteProperties are
// separate calls; the pipeline decides how to recover between them.
type Destination interface {
	Relocate(ctx context.Context, id, destinationID string) error
	WriteProperties(ctx context.Context, id string, props content.Properties) error
}

// Backend is a store that serves both roles.
type Backend interface {
	Pending
	Destination
	Close() error
}
