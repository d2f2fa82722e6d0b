package store

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownAsset = errors.New("asset is not tracked")
	ErrNotDue       = errors.New("claim window is not open")
	ErrInFlight     = errors.New("claim already in flight")
)

type Status int

const (
	Waiting Status = iota
	Available
	Claiming
	Claimed
	FailedRetrying
)

func (s Status) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Available:
		return "available"
	case Claiming:
		return "claiming"
	case Claimed:
		return "claimed"
	case FailedRetrying:
		return "failed-retrying"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for _, st := range []Status{Waiting, Available, Claiming, Claimed, FailedRetrying} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// Busy reports whether an attempt is pending resolution for the asset.
func (s Status) Busy() bool {
	return s == Claiming || s == FailedRetrying
}

type Asset struct {
	ID         uint64 `json:"id"`
	TemplateID uint64 `json:"template_id"`
	Name       string `json:"name"`
	Owner      string `json:"owner"`
	NextClaim  int64  `json:"next_claim"`
}

// ClaimState is derived from the chain on every rebuild and mutated by the claimer in between.
type ClaimState struct {
	SecondsRemaining int64  `json:"seconds_remaining"`
	Status           Status `json:"status"`
	Failures         int    `json:"failures"`
	LastError        string `json:"last_error,omitempty"`
	LastTxID         string `json:"last_tx_id,omitempty"`
}

type Entry struct {
	Asset
	ClaimState
}

// Remaining formats the local countdown as HH:MM:SS.
func (e Entry) Remaining() string {
	return FormatRemaining(e.SecondsRemaining)
}

type Snapshot struct {
	Owner   string    `json:"owner"`
	Entries []Entry   `json:"entries"`
	Dirty   bool      `json:"dirty"`
	Taken   time.Time `json:"taken"`
}

// Count returns the number of entries per status.
func (s Snapshot) Count() map[Status]int {
	counts := make(map[Status]int)
	for _, e := range s.Entries {
		counts[e.Status]++
	}
	return counts
}

func FormatRemaining(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
