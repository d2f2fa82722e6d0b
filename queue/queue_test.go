package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetryQueueKeyedByAsset(t *testing.T) {
	r := require.New(t)
	q := NewRetryQueue()

	start := time.Unix(1_700_000_000, 0)

	first := q.Add(1, start.Add(10*time.Second))
	r.Equal(1, first.Attempt)

	second := q.Add(1, start.Add(20*time.Second))
	r.Equal(2, second.Attempt)
	r.Equal(1, q.Len(), "re-adding replaces the pending retry")

	p, ok := q.Pending(1)
	r.True(ok)
	r.Equal(start.Add(20*time.Second), p.Due)

	r.Equal(2, q.Attempts(1))
	r.True(q.Cancel(1))
	r.False(q.Cancel(1))
	r.Zero(q.Attempts(1))
	r.Zero(q.Len())

	again := q.Add(1, start)
	r.Equal(1, again.Attempt, "cancel resets the attempt counter")
}

func TestRetryQueuePopDue(t *testing.T) {
	r := require.New(t)
	q := NewRetryQueue()

	start := time.Unix(1_700_000_000, 0)
	q.Add(3, start.Add(10*time.Second))
	q.Add(2, start.Add(5*time.Second))
	q.Add(1, start.Add(10*time.Second))
	q.Add(4, start.Add(30*time.Second))

	r.Empty(q.PopDue(start.Add(4 * time.Second)))

	next, ok := q.Next()
	r.True(ok)
	r.Equal(start.Add(5*time.Second), next)

	due := q.PopDue(start.Add(10 * time.Second))
	r.Len(due, 3)
	r.EqualValues(2, due[0].AssetID)
	r.EqualValues(1, due[1].AssetID)
	r.EqualValues(3, due[2].AssetID)

	r.Equal([]uint64{4}, q.IDs())

	re := q.Add(2, start.Add(20*time.Second))
	r.Equal(2, re.Attempt, "attempts keep counting after a pop")

	r.Len(q.PopDue(start.Add(time.Hour)), 2)
	_, ok = q.Next()
	r.False(ok)
}
