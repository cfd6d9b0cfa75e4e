package hashapi

import (
	"context"
	"iter"
)

// API defines the interface for hash sharing operations
type API interface {
	// Status reports the authenticated member
	Status(ctx context.Context) (*StatusResult, error)

	// GetEntries fetches a single page of updates
	GetEntries(ctx context.Context, startTimestamp int64, cursor string) (*EntriesPage, error)

	// GetEntriesIter fetches pages until the server reports no more
	GetEntriesIter(ctx context.Context, startTimestamp int64) iter.Seq2[*EntriesPage, error]

	// Post submits a raw payload without retries
	Post(ctx context.Context, endpoint string, body []byte) ([]byte, error)
}

var _ API = (*Client)(nil)
