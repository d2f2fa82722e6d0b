package types

import "time"

// ClaimOutcome describes a single claim submission and how it resolved.
type ClaimOutcome struct {
	AssetID uint64
	Name    string
	Attempt int
	TxID    string
	Err     error
	At      time.Time
}

func (o ClaimOutcome) Success() bool {
	return o.Err == nil
}

func (o ClaimOutcome) Error() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
