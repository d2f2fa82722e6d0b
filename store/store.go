package store

import (
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/types"
)

// Store holds the claim eligibility of every staked asset owned by a single account.
// Membership only changes through Rebuild.
type Store struct {
	mu      sync.RWMutex
	owner   string
	entries map[uint64]*Entry
	dirty   bool

	subMu   sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int
}

func NewStore(owner string) *Store {
	return &Store{
		owner:   owner,
		entries: make(map[uint64]*Entry),
		subs:    make(map[int]chan Snapshot),
	}
}

func (s *Store) Owner() string {
	return s.owner
}

// Rebuild replaces every entry with the given rows. Rows owned by anyone other than
// the configured owner are dropped. Failure counters and the last tx id survive for
// assets that are still present.
func (s *Store) Rebuild(rows []types.StakedNFT, catalog types.Catalog, now int64) {
	s.mu.Lock()

	entries := make(map[uint64]*Entry, len(rows))
	for _, row := range rows {
		if row.Owner != s.owner {
			log.Debug().
				Uint64("asset_id", row.AssetID).
				Str("owner", row.Owner).
				Msg("ignoring asset owned by another account")
			continue
		}

		remaining := row.NextClaim - now
		if remaining < 0 {
			remaining = 0
		}

		status := Waiting
		if remaining == 0 {
			status = Available
		}

		e := &Entry{
			Asset: Asset{
				ID:         row.AssetID,
				TemplateID: row.TemplateID,
				Name:       catalog.Name(row.TemplateID),
				Owner:      row.Owner,
				NextClaim:  row.NextClaim,
			},
			ClaimState: ClaimState{
				SecondsRemaining: remaining,
				Status:           status,
			},
		}

		if old, ok := s.entries[row.AssetID]; ok {
			e.Failures = old.Failures
			e.LastError = old.LastError
			e.LastTxID = old.LastTxID
		}

		entries[row.AssetID] = e
	}

	s.entries = entries
	s.dirty = false
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
}

// Tick advances the local countdown by one second for every asset that has no
// pending attempt. It returns the ids whose claim window opened on this tick.
func (s *Store) Tick() []uint64 {
	s.mu.Lock()

	opened := make([]uint64, 0)
	for id, e := range s.entries {
		if e.Status.Busy() {
			continue
		}
		if e.SecondsRemaining > 0 {
			e.SecondsRemaining--
		}
		if e.SecondsRemaining == 0 && e.Status == Waiting {
			e.Status = Available
			opened = append(opened, id)
		}
	}
	slices.Sort(opened)

	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return opened
}

// Sync refreshes a single asset from an authoritative next claim timestamp without a
// full rebuild. Assets with a pending attempt keep their status.
func (s *Store) Sync(id uint64, nextClaim int64, now int64) (Entry, bool) {
	s.mu.Lock()

	e, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return Entry{}, false
	}

	remaining := nextClaim - now
	if remaining < 0 {
		remaining = 0
	}
	e.NextClaim = nextClaim

	if !e.Status.Busy() {
		e.SecondsRemaining = remaining
		if remaining == 0 {
			e.Status = Available
		} else {
			e.Status = Waiting
		}
	}

	out := *e
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return out, true
}

// MarkClaiming moves an asset into Claiming. Only Available assets and assets waiting
// on a retry may start an attempt.
func (s *Store) MarkClaiming(id uint64) (Entry, error) {
	s.mu.Lock()

	e, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return Entry{}, ErrUnknownAsset
	}

	switch e.Status {
	case Available, FailedRetrying:
	case Claiming:
		s.mu.Unlock()
		return *e, ErrInFlight
	default:
		s.mu.Unlock()
		return *e, ErrNotDue
	}

	e.Status = Claiming
	out := *e
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return out, nil
}

func (s *Store) MarkClaimed(id uint64, txID string) bool {
	return s.update(id, func(e *Entry) {
		e.Status = Claimed
		e.SecondsRemaining = 0
		e.Failures = 0
		e.LastError = ""
		e.LastTxID = txID
	})
}

func (s *Store) MarkFailed(id uint64, err error) bool {
	return s.update(id, func(e *Entry) {
		e.Status = FailedRetrying
		e.Failures++
		if err != nil {
			e.LastError = err.Error()
		}
	})
}

// Hold puts an asset back into FailedRetrying after a rebuild while its retry is still pending.
func (s *Store) Hold(id uint64) bool {
	return s.update(id, func(e *Entry) {
		e.Status = FailedRetrying
	})
}

func (s *Store) update(id uint64, fn func(e *Entry)) bool {
	s.mu.Lock()

	e, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	fn(e)

	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return true
}

func (s *Store) MarkDirty() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

func (s *Store) Get(id uint64) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// IDs returns every tracked asset id in ascending order.
func (s *Store) IDs() []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint64, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Available returns the ids of assets whose claim window is open, in ascending order.
func (s *Store) Available() []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint64, 0)
	for id, e := range s.entries {
		if e.Status == Available {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	entries := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, *e)
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	return Snapshot{
		Owner:   s.owner,
		Entries: entries,
		Dirty:   s.dirty,
		Taken:   time.Now(),
	}
}

// Subscribe returns a channel that receives the latest snapshot after every mutation.
// Slow readers only ever see the most recent snapshot. The returned func unsubscribes.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	subscribers.Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			subscribers.Dec()
		})
	}
}

func (s *Store) publish(snap Snapshot) {
	trackedAssets.Set(float64(len(snap.Entries)))

	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
