package store

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/types"
)

const owner = "rancher11111"

var catalog = types.Catalog{
	7: "Brown Cow",
	9: "Chicken Coop",
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "00:00:00"},
		{-5, "00:00:00"},
		{59, "00:00:59"},
		{90, "00:01:30"},
		{3600, "01:00:00"},
		{3661, "01:01:01"},
		{86399, "23:59:59"},
		{360000, "100:00:00"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, FormatRemaining(tt.seconds), "seconds=%d", tt.seconds)
	}
}

func TestRebuild(t *testing.T) {
	r := require.New(t)
	s := NewStore(owner)

	now := int64(1_700_000_000)
	s.Rebuild([]types.StakedNFT{
		{Owner: owner, AssetID: 2, TemplateID: 7, NextClaim: now - 10},
		{Owner: owner, AssetID: 1, TemplateID: 9, NextClaim: now + 3661},
		{Owner: owner, AssetID: 3, TemplateID: 0, NextClaim: now},
		{Owner: "someoneelse1", AssetID: 4, TemplateID: 7, NextClaim: now - 10},
	}, catalog, now)

	r.Equal(3, s.Len())
	r.Equal([]uint64{1, 2, 3}, s.IDs())

	e, ok := s.Get(1)
	r.True(ok)
	r.Equal(Waiting, e.Status)
	r.EqualValues(3661, e.SecondsRemaining)
	r.Equal("01:01:01", e.Remaining())
	r.Equal("Chicken Coop", e.Name)

	e, ok = s.Get(2)
	r.True(ok)
	r.Equal(Available, e.Status)
	r.EqualValues(0, e.SecondsRemaining)
	r.Equal("Brown Cow", e.Name)

	e, ok = s.Get(3)
	r.True(ok)
	r.Equal(Available, e.Status)
	r.Equal(types.UnknownName, e.Name)

	_, ok = s.Get(4)
	r.False(ok, "assets owned by others never enter the store")

	r.Equal([]uint64{2, 3}, s.Available())
}

func TestRebuildIdempotent(t *testing.T) {
	r := require.New(t)
	s := NewStore(owner)

	now := int64(1_700_000_000)
	rows := []types.StakedNFT{
		{Owner: owner, AssetID: 10, TemplateID: 7, NextClaim: now + 5},
		{Owner: owner, AssetID: 11, TemplateID: 9, NextClaim: now - 5},
		{Owner: "other", AssetID: 12, TemplateID: 9, NextClaim: now - 5},
	}

	s.Rebuild(rows, catalog, now)
	first := s.Snapshot().Entries

	s.Rebuild(rows, catalog, now)
	second := s.Snapshot().Entries

	r.Equal(first, second)
}

func TestRebuildReplacesMembership(t *testing.T) {
	r := require.New(t)
	s := NewStore(owner)

	now := int64(1000)
	s.Rebuild([]types.StakedNFT{
		{Owner: owner, AssetID: 1, NextClaim: now},
		{Owner: owner, AssetID: 2, NextClaim: now},
	}, catalog, now)
	r.True(s.MarkFailed(1, errors.New("expired transaction")))
	s.MarkDirty()
	r.True(s.Dirty())

	s.Rebuild([]types.StakedNFT{
		{Owner: owner, AssetID: 1, NextClaim: now + 10},
	}, catalog, now)

	r.False(s.Dirty())
	r.Equal([]uint64{1}, s.IDs())

	e, _ := s.Get(1)
	r.Equal(Waiting, e.Status)
	r.Equal(1, e.Failures)
	r.Equal("expired transaction", e.LastError)
}

func TestTick(t *testing.T) {
	r := require.New(t)
	s := NewStore(owner)

	now := int64(500)
	s.Rebuild([]types.StakedNFT{
		{Owner: owner, AssetID: 1, NextClaim: now + 2},
		{Owner: owner, AssetID: 2, NextClaim: now + 2},
		{Owner: owner, AssetID: 3, NextClaim: now + 2},
		{Owner: owner, AssetID: 4, NextClaim: now},
	}, catalog, now)

	_, err := s.MarkClaiming(4)
	r.NoError(err)
	r.True(s.Hold(2))

	r.Empty(s.Tick())

	e, _ := s.Get(1)
	r.EqualValues(1, e.SecondsRemaining)
	e, _ = s.Get(2)
	r.EqualValues(2, e.SecondsRemaining, "assets waiting on a retry are not ticked")

	r.Equal([]uint64{1, 3}, s.Tick())

	e, _ = s.Get(1)
	r.Equal(Available, e.Status)
	r.EqualValues(0, e.SecondsRemaining)

	r.Empty(s.Tick(), "already available assets do not reopen")
	e, _ = s.Get(1)
	r.EqualValues(0, e.SecondsRemaining)

	e, _ = s.Get(4)
	r.Equal(Claiming, e.Status)
}

func TestClaimTransitions(t *testing.T) {
	r := require.New(t)
	s := NewStore(owner)

	now := int64(500)
	s.Rebuild([]types.StakedNFT{
		{Owner: owner, AssetID: 1, NextClaim: now},
		{Owner: owner, AssetID: 2, NextClaim: now + 60},
	}, catalog, now)

	_, err := s.MarkClaiming(2)
	r.ErrorIs(err, ErrNotDue)

	_, err = s.MarkClaiming(99)
	r.ErrorIs(err, ErrUnknownAsset)

	e, err := s.MarkClaiming(1)
	r.NoError(err)
	r.Equal(Claiming, e.Status)

	_, err = s.MarkClaiming(1)
	r.ErrorIs(err, ErrInFlight)

	r.True(s.MarkFailed(1, errors.New("cpu exceeded")))
	e, _ = s.Get(1)
	r.Equal(FailedRetrying, e.Status)
	r.Equal(1, e.Failures)

	_, err = s.MarkClaiming(1)
	r.NoError(err, "a retry may start from failed-retrying")

	r.True(s.MarkClaimed(1, "deadbeef"))
	e, _ = s.Get(1)
	r.Equal(Claimed, e.Status)
	r.Equal(0, e.Failures)
	r.Equal("deadbeef", e.LastTxID)
	r.Empty(e.LastError)

	_, err = s.MarkClaiming(1)
	r.ErrorIs(err, ErrNotDue, "claimed is terminal until the next rebuild")

	r.False(s.MarkClaimed(42, "nope"))
}

func TestSync(t *testing.T) {
	r := require.New(t)
	s := NewStore(owner)

	now := int64(500)
	s.Rebuild([]types.StakedNFT{
		{Owner: owner, AssetID: 1, NextClaim: now + 100},
		{Owner: owner, AssetID: 2, NextClaim: now},
	}, catalog, now)

	e, ok := s.Sync(1, now-1, now)
	r.True(ok)
	r.Equal(Available, e.Status)

	r.True(s.Hold(2))
	e, ok = s.Sync(2, now+100, now)
	r.True(ok)
	r.Equal(FailedRetrying, e.Status)
	r.EqualValues(now+100, e.NextClaim)

	_, ok = s.Sync(3, now, now)
	r.False(ok)
}

func TestSubscribe(t *testing.T) {
	r := require.New(t)
	s := NewStore(owner)

	updates, cancel := s.Subscribe()
	defer cancel()

	now := int64(500)
	s.Rebuild([]types.StakedNFT{{Owner: owner, AssetID: 1, NextClaim: now + 3}}, catalog, now)
	s.Tick()
	s.Tick()

	select {
	case snap := <-updates:
		r.Equal(owner, snap.Owner)
		r.Len(snap.Entries, 1)
		r.EqualValues(1, snap.Entries[0].SecondsRemaining, "only the latest snapshot is kept")
	case <-time.After(time.Second):
		r.Fail("no snapshot published")
	}

	cancel()
	s.Tick()
	select {
	case <-updates:
		r.Fail("unsubscribed channel received a snapshot")
	default:
	}
}

func TestStatusString(t *testing.T) {
	r := require.New(t)

	r.Equal("failed-retrying", FailedRetrying.String())
	r.Equal("waiting", Waiting.String())
	r.True(Claiming.Busy())
	r.True(FailedRetrying.Busy())
	r.False(Available.Busy())

	text, err := Claimed.MarshalText()
	r.NoError(err)
	r.Equal("claimed", string(text))

	var st Status
	r.NoError(st.UnmarshalText([]byte("failed-retrying")))
	r.Equal(FailedRetrying, st)
	r.Error(st.UnmarshalText([]byte("sleeping")))
}
