package player

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questbot/internal/game"
)

// memStore — хранилище в памяти для тестов; failSaves имитирует сбой записи.
type memStore struct {
	mu        sync.Mutex
	records   map[int64]*game.PlayerRecord
	saves     int
	failSaves bool
}

func newMemStore() *memStore {
	return &memStore{records: make(map[int64]*game.PlayerRecord)}
}

func (s *memStore) Load(ctx context.Context, userID int64) (*game.PlayerRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		return nil, false, nil
	}
	return rec.Clone(), true, nil
}

func (s *memStore) Save(ctx context.Context, userID int64, rec *game.PlayerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return errors.New("disk full")
	}
	s.saves++
	s.records[userID] = rec.Clone()
	return nil
}

func (s *memStore) ListIDs(ctx context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *memStore) Close() error { return nil }

func TestGetOrCreate_PersistsDefaults(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	m := NewManager(st)

	rec, err := m.GetOrCreate(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), rec.UserID)
	assert.Equal(t, 0, rec.XP)
	assert.Equal(t, 1, rec.Level)
	assert.Equal(t, 0, rec.Gold)
	assert.Equal(t, game.ModeIdle, rec.InputMode)

	_, ok, err := st.Load(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ok, "new player must survive a restart")
}

func TestMutate_AppendsEventsAndPersists(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	m := NewManager(st)
	now := time.Now().UTC()

	quest := game.QuestDefinition{Key: "q_apply", Name: "Отклик", XPReward: 20, GoldMin: 1, GoldMax: 1}
	events, err := m.Mutate(ctx, 42, func(rec *game.PlayerRecord) ([]game.Event, error) {
		return game.ApplyQuest(rec, quest, nil, now), nil
	})
	require.NoError(t, err)
	require.Len(t, events, 1)

	snap, err := m.Snapshot(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 20, snap.XP)
	assert.Equal(t, 1, snap.Gold)
	require.Len(t, snap.ActivityLog, 1)
	assert.Equal(t, game.EventQuestCompleted, snap.ActivityLog[0].Kind)

	stored, ok, err := st.Load(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap, stored)
}

func TestMutate_TransformErrorLeavesRecordUntouched(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	m := NewManager(st)

	before, err := m.Snapshot(ctx, 1)
	require.NoError(t, err)
	savesBefore := st.saves

	wantErr := errors.New("nope")
	_, err = m.Mutate(ctx, 1, func(rec *game.PlayerRecord) ([]game.Event, error) {
		rec.XP = 777
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	after, err := m.Snapshot(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, savesBefore, st.saves, "failed transform must not be persisted")
}

func TestMutate_StorageFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	m := NewManager(st)
	now := time.Now().UTC()

	quest := game.QuestDefinition{Name: "Учёба", XPReward: 15}
	_, err := m.Mutate(ctx, 1, func(rec *game.PlayerRecord) ([]game.Event, error) {
		return game.ApplyQuest(rec, quest, nil, now), nil
	})
	require.NoError(t, err)

	before, err := m.Snapshot(ctx, 1)
	require.NoError(t, err)

	st.failSaves = true
	_, err = m.Mutate(ctx, 1, func(rec *game.PlayerRecord) ([]game.Event, error) {
		return game.ApplyQuest(rec, quest, nil, now), nil
	})
	require.Error(t, err)

	st.failSaves = false
	after, err := m.Snapshot(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, before, after, "in-memory record must equal its pre-call value")

	// повтор той же мутации безопасен: transform применяется к исходной записи
	_, err = m.Mutate(ctx, 1, func(rec *game.PlayerRecord) ([]game.Event, error) {
		return game.ApplyQuest(rec, quest, nil, now), nil
	})
	require.NoError(t, err)
	final, err := m.Snapshot(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 30, final.XP)
}

func TestMutate_ConcurrentSameUserNoLostUpdates(t *testing.T) {
	ctx := context.Background()
	m := NewManager(newMemStore())
	now := time.Now().UTC()

	const n = 50
	quest := game.QuestDefinition{Name: "Отклик", XPReward: 10}
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Mutate(ctx, 42, func(rec *game.PlayerRecord) ([]game.Event, error) {
				return game.ApplyQuest(rec, quest, nil, now), nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap, err := m.Snapshot(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 10*n, snap.XP)
	assert.Equal(t, 3, snap.Level)
	assert.Len(t, snap.ActivityLog, n+2) // n завершений + LevelUp на 100 и 300 XP
}

func TestMutate_DifferentUsersDoNotBlockEachOther(t *testing.T) {
	ctx := context.Background()
	m := NewManager(newMemStore())

	blocked := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_, _ = m.Mutate(ctx, 1, func(rec *game.PlayerRecord) ([]game.Event, error) {
			close(blocked)
			<-done
			return nil, nil
		})
	}()
	<-blocked
	defer close(done)

	ctx2, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err := m.Mutate(ctx2, 2, func(rec *game.PlayerRecord) ([]game.Event, error) {
		rec.Gold++
		return nil, nil
	})
	require.NoError(t, err, "user 2 must not wait for user 1's lock")
}

func TestMutate_BoundedWaitSkipsContendedUser(t *testing.T) {
	ctx := context.Background()
	m := NewManager(newMemStore())

	blocked := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_, _ = m.Mutate(ctx, 1, func(rec *game.PlayerRecord) ([]game.Event, error) {
			close(blocked)
			<-done
			return nil, nil
		})
	}()
	<-blocked
	defer close(done)

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err := m.Mutate(short, 1, func(rec *game.PlayerRecord) ([]game.Event, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUserIDs_MergesStoreAndCache(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	st.records[100] = game.NewPlayerRecord(100, time.Now().UTC())
	m := NewManager(st)

	_, err := m.GetOrCreate(ctx, 7)
	require.NoError(t, err)

	ids, err := m.UserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 100}, ids)
}
