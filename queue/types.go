package queue

import (
	"sync"
	"time"
)

// Retry is a pending re-attempt for a single asset.
type Retry struct {
	AssetID uint64    `json:"asset_id"`
	Due     time.Time `json:"due"`
	Attempt int       `json:"attempt"`
}

// RetryQueue is a delay queue keyed by asset id. An asset has at most one pending
// retry; scheduling it again replaces the previous one.
type RetryQueue struct {
	mu       sync.Mutex
	items    map[uint64]*Retry
	attempts map[uint64]int
}
