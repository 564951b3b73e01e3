package transcript

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHistoryAddSkipsDuplicateIDs(t *testing.T) {
	h := NewHistory()

	require.True(t, h.Add(Segment{ID: "x", Text: "hello", IsFinal: true}))
	require.False(t, h.Add(Segment{ID: "x", Text: "hello again", IsFinal: true}))
	require.True(t, h.Add(Segment{ID: "y", Text: "world", IsFinal: true}))

	segments := h.Segments()
	require.Len(t, segments, 2)
	require.Equal(t, "hello", segments[0].Text)
	require.Equal(t, "world", segments[1].Text)
	require.Equal(t, "hello world", h.Text())
}

func TestHistoryConcurrentDuplicateDelivery(t *testing.T) {
	h := NewHistory()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Add(Segment{ID: "dup", Text: "same", IsFinal: true})
		}()
	}
	wg.Wait()

	require.Equal(t, 1, h.Len())
}

func TestHistoryClearAllowsReuseOfIDs(t *testing.T) {
	h := NewHistory()
	require.True(t, h.Add(Segment{ID: "x"}))

	h.Clear()
	require.Zero(t, h.Len())
	require.Empty(t, h.Segments())

	require.True(t, h.Add(Segment{ID: "x"}))
}

func TestHistorySegmentsReturnsCopy(t *testing.T) {
	h := NewHistory()
	h.Add(Segment{ID: "x", Text: "original"})

	segments := h.Segments()
	segments[0].Text = "mutated"

	require.Equal(t, "original", h.Segments()[0].Text)
}

func TestClockStampStrictlyIncreases(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	clock := NewClock(func() time.Time { return fixed })

	first := clock.Stamp()
	second := clock.Stamp()
	third := clock.Stamp()

	require.Equal(t, fixed.UnixMilli(), first)
	require.Equal(t, first+1, second)
	require.Equal(t, second+1, third)
}

func TestNewIDIsUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 64; i++ {
		id := NewID()
		require.NotEmpty(t, id)
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}
