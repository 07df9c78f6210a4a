package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questbot/internal/game"
)

func sampleRecord(userID int64) *game.PlayerRecord {
	now := time.Date(2025, 4, 2, 10, 30, 0, 0, time.UTC)
	rec := game.NewPlayerRecord(userID, now)
	rec.XP = 120
	rec.Level = 2
	rec.Gold = 3
	rec.InputMode = game.ModeAwaitingNote
	pending := now.Add(20 * time.Minute)
	rec.PendingReminderAt = &pending
	rec.AppendNote("позвонить рекрутеру", now)
	rec.ActivityLog = append(rec.ActivityLog, game.Event{
		ID: "ev-1", At: now, Kind: game.EventQuestCompleted, QuestName: "Отклик", XPDelta: 20, GoldDelta: 1,
	})
	return rec
}

func TestFileStore_RoundTripAndReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "players.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)

	_, ok, err := s.Load(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok, "absent before first save")

	want := sampleRecord(42)
	require.NoError(t, s.Save(ctx, 42, want))
	require.NoError(t, s.Save(ctx, 7, sampleRecord(7)))

	got, ok, err := s.Load(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	ids, err := s.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 42}, ids)

	// record survives a restart
	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	got, ok, err = reopened.Load(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestFileStore_SaveIsolatesCaller(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "players.json"))
	require.NoError(t, err)

	rec := sampleRecord(1)
	require.NoError(t, s.Save(ctx, 1, rec))
	rec.XP = 9999

	got, ok, err := s.Load(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 120, got.XP, "store must keep its own copy")
}

func TestSQLiteStore_RoundTripAndReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "questbot.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)

	_, ok, err := s.Load(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	want := sampleRecord(42)
	require.NoError(t, s.Save(ctx, 42, want))

	// overwrite is an upsert
	want.Gold = 10
	require.NoError(t, s.Save(ctx, 42, want))

	got, ok, err := s.Load(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	ids, err := s.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, ids)

	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, reopened.Close())
	}()
	got, ok, err = reopened.Load(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}
