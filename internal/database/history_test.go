package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartguard/internal/models"
)

// flakyDurable simulates a durable store that can be switched offline.
type flakyDurable struct {
	offline bool
	saved   map[string][]models.AlarmEvent
}

func newFlakyDurable() *flakyDurable {
	return &flakyDurable{saved: make(map[string][]models.AlarmEvent)}
}

func (d *flakyDurable) SaveAlarm(ctx context.Context, userID string, ev models.AlarmEvent) error {
	if d.offline {
		return errors.New("store unreachable")
	}
	entries := d.saved[userID]
	if len(entries) > 0 && entries[0].Timestamp == ev.Timestamp {
		return nil
	}
	d.saved[userID] = append([]models.AlarmEvent{ev}, entries...)
	return nil
}

func (d *flakyDurable) HistoryByUser(ctx context.Context, userID string) ([]models.AlarmEvent, error) {
	if d.offline {
		return nil, errors.New("store unreachable")
	}
	return append([]models.AlarmEvent(nil), d.saved[userID]...), nil
}

func TestHistoryStoreAppendAndRead(t *testing.T) {
	durable := newFlakyDurable()
	store := NewHistoryStore(durable, 100)
	ctx := context.Background()

	cached, err := store.Append(ctx, "user-1", eventAt(1000))
	require.NoError(t, err)
	assert.False(t, cached)

	events := store.History(ctx, "user-1")
	require.Len(t, events, 1)
	assert.Equal(t, int64(1000), events[0].Timestamp)
}

func TestHistoryStoreFallsBackToCacheWhenOffline(t *testing.T) {
	durable := newFlakyDurable()
	store := NewHistoryStore(durable, 100)
	ctx := context.Background()

	_, err := store.Append(ctx, "user-1", eventAt(1000))
	require.NoError(t, err)

	durable.offline = true

	cached, err := store.Append(ctx, "user-1", eventAt(2000))
	require.NoError(t, err)
	assert.True(t, cached)

	events := store.History(ctx, "user-1")
	require.Len(t, events, 2)
	assert.Equal(t, int64(2000), events[0].Timestamp)
	assert.Equal(t, int64(1000), events[1].Timestamp)
}

func TestHistoryStoreReplaysUnsyncedEntries(t *testing.T) {
	durable := newFlakyDurable()
	store := NewHistoryStore(durable, 100)
	ctx := context.Background()

	durable.offline = true
	_, err := store.Append(ctx, "user-1", eventAt(1000))
	require.NoError(t, err)
	_, err = store.Append(ctx, "user-1", eventAt(2000))
	require.NoError(t, err)
	assert.Empty(t, durable.saved["user-1"])

	// Store comes back; the next touch replays the cached entries.
	durable.offline = false
	cached, err := store.Append(ctx, "user-1", eventAt(3000))
	require.NoError(t, err)
	assert.False(t, cached)

	require.Len(t, durable.saved["user-1"], 3)
	assert.Equal(t, int64(3000), durable.saved["user-1"][0].Timestamp)
	assert.Equal(t, int64(1000), durable.saved["user-1"][2].Timestamp)
}

func TestHistoryStoreDeduplicatesAgainstCacheHead(t *testing.T) {
	durable := newFlakyDurable()
	store := NewHistoryStore(durable, 100)
	ctx := context.Background()

	_, err := store.Append(ctx, "user-1", eventAt(1000))
	require.NoError(t, err)
	_, err = store.Append(ctx, "user-1", eventAt(1000))
	require.NoError(t, err)

	events := store.History(ctx, "user-1")
	assert.Len(t, events, 1)
}
