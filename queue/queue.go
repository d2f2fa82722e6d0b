package queue

import (
	"slices"
	"time"

	"github.com/rs/zerolog/log"
)

func NewRetryQueue() *RetryQueue {
	return &RetryQueue{
		items:    make(map[uint64]*Retry),
		attempts: make(map[uint64]int),
	}
}

// Add schedules a retry for the asset at due, replacing any retry already pending.
func (q *RetryQueue) Add(assetID uint64, due time.Time) Retry {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.attempts[assetID]++
	r := &Retry{
		AssetID: assetID,
		Due:     due,
		Attempt: q.attempts[assetID],
	}
	q.items[assetID] = r

	queueSize.Set(float64(len(q.items)))
	log.Debug().
		Uint64("asset_id", assetID).
		Time("due", due).
		Int("attempt", r.Attempt).
		Msg("retry scheduled")

	return *r
}

// Cancel drops the pending retry for the asset and resets its attempt counter.
// It reports whether a retry was pending.
func (q *RetryQueue) Cancel(assetID uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	_, ok := q.items[assetID]
	delete(q.items, assetID)
	delete(q.attempts, assetID)
	queueSize.Set(float64(len(q.items)))
	return ok
}

func (q *RetryQueue) Pending(assetID uint64) (Retry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	r, ok := q.items[assetID]
	if !ok {
		return Retry{}, false
	}
	return *r, true
}

// PopDue removes and returns every retry due at or before now, earliest first.
// Attempt counters survive until Cancel so a re-added retry keeps counting.
func (q *RetryQueue) PopDue(now time.Time) []Retry {
	q.mu.Lock()
	defer q.mu.Unlock()

	due := make([]Retry, 0)
	for id, r := range q.items {
		if r.Due.After(now) {
			continue
		}
		due = append(due, *r)
		delete(q.items, id)
	}

	slices.SortFunc(due, func(a, b Retry) int {
		if c := a.Due.Compare(b.Due); c != 0 {
			return c
		}
		switch {
		case a.AssetID < b.AssetID:
			return -1
		case a.AssetID > b.AssetID:
			return 1
		}
		return 0
	})

	queueSize.Set(float64(len(q.items)))
	return due
}

// Next returns the earliest due time of all pending retries.
func (q *RetryQueue) Next() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var next time.Time
	found := false
	for _, r := range q.items {
		if !found || r.Due.Before(next) {
			next = r.Due
			found = true
		}
	}
	return next, found
}

// IDs returns the asset ids with a pending retry in ascending order.
func (q *RetryQueue) IDs() []uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	ids := make([]uint64, 0, len(q.items))
	for id := range q.items {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (q *RetryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Attempts returns how many retries were scheduled for the asset since its last Cancel.
func (q *RetryQueue) Attempts(assetID uint64) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.attempts[assetID]
}
