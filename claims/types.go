package claims

import (
	"context"
	"fmt"
	"time"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/types"
)

type Mode string

const (
	// ModeTicking counts down locally every second and claims as soon as an asset is due.
	ModeTicking Mode = "ticking"
	// ModeSimple probes every asset on the chain once per pass period.
	ModeSimple Mode = "simple"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeTicking, ModeSimple:
		return Mode(s), nil
	case "":
		return ModeTicking, nil
	}
	return "", fmt.Errorf("unknown claim mode %q", s)
}

type Config struct {
	Mode  Mode
	Owner string

	TickInterval  time.Duration
	Pacing        time.Duration
	Settle        time.Duration
	Backoff       time.Duration
	PassPeriod    time.Duration
	SubmitTimeout time.Duration

	// ClaimAll claims every due asset in a pass. When false only the first due asset is claimed.
	ClaimAll bool
}

func DefaultConfig(owner string) Config {
	return Config{
		Mode:          ModeTicking,
		Owner:         owner,
		TickInterval:  time.Second,
		Pacing:        2 * time.Second,
		Settle:        5 * time.Second,
		Backoff:       10 * time.Second,
		PassPeriod:    time.Minute,
		SubmitTimeout: 30 * time.Second,
		ClaimAll:      true,
	}
}

type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// Loader reads the authoritative asset state from the chain.
type Loader interface {
	StakedNFTs(ctx context.Context, owner string) ([]types.StakedNFT, error)
	Catalog(ctx context.Context) (types.Catalog, error)
	FindStakedNFT(ctx context.Context, assetID uint64) (types.StakedNFT, error)
}

// Observer is told about every finished claim attempt.
type Observer interface {
	Observe(outcome types.ClaimOutcome)
}

type ObserverFunc func(outcome types.ClaimOutcome)

func (f ObserverFunc) Observe(outcome types.ClaimOutcome) {
	f(outcome)
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
