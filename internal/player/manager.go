// Package player владеет единственной авторитетной in-memory копией каждой
// записи игрока. Все чтения и изменения идут через Manager: он сериализует
// операции по каждому пользователю и пишет результат в хранилище.
package player

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"questbot/internal/game"
	"questbot/internal/store"
)

// Transform применяет одно изменение к записи и возвращает события для
// уведомления пользователя. Запись, переданная в Transform, — рабочая
// копия: если Transform вернул ошибку или запись не удалось сохранить,
// изменения не видны никому.
type Transform func(rec *game.PlayerRecord) ([]game.Event, error)

// Manager сериализует доступ к записям по пользователю. Разные пользователи
// обслуживаются независимо и параллельно.
type Manager struct {
	store store.Store
	now   func() time.Time

	mu    sync.Mutex // guards users
	users map[int64]*userEntry
}

// userEntry держит кэшированную запись и её персональный замок.
// rec читается и пишется только держателем lock.
type userEntry struct {
	lock chan struct{}
	rec  *game.PlayerRecord
}

func NewManager(s store.Store) *Manager {
	return &Manager{
		store: s,
		now:   func() time.Time { return time.Now().UTC() },
		users: make(map[int64]*userEntry),
	}
}

// SetClock подменяет источник времени (для тестов).
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

func (m *Manager) entryFor(userID int64) *userEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.users[userID]
	if !ok {
		e = &userEntry{lock: make(chan struct{}, 1)}
		m.users[userID] = e
	}
	return e
}

// acquire берёт персональный замок пользователя, уважая ctx: планировщик
// передаёт ограниченный таймаут и пропускает занятого пользователя вместо
// того, чтобы блокировать весь обход.
func (e *userEntry) acquire(ctx context.Context) error {
	select {
	case e.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *userEntry) release() { <-e.lock }

// loadLocked подгружает запись из хранилища при первом обращении. Новый
// пользователь сразу сохраняется, чтобы пережить рестарт. Вызывается только
// под замком пользователя.
func (m *Manager) loadLocked(ctx context.Context, e *userEntry, userID int64) error {
	if e.rec != nil {
		return nil
	}
	rec, ok, err := m.store.Load(ctx, userID)
	if err != nil {
		return fmt.Errorf("load player %d: %w", userID, err)
	}
	if !ok {
		rec = game.NewPlayerRecord(userID, m.now())
		if err := m.store.Save(ctx, userID, rec); err != nil {
			return fmt.Errorf("persist new player %d: %w", userID, err)
		}
	}
	e.rec = rec
	return nil
}

// GetOrCreate возвращает снимок записи, создавая её при первом контакте.
func (m *Manager) GetOrCreate(ctx context.Context, userID int64) (*game.PlayerRecord, error) {
	return m.Snapshot(ctx, userID)
}

// Snapshot возвращает глубокую копию текущей записи. Снимок берётся под
// замком пользователя, поэтому никогда не отстаёт от завершённой мутации.
func (m *Manager) Snapshot(ctx context.Context, userID int64) (*game.PlayerRecord, error) {
	e := m.entryFor(userID)
	if err := e.acquire(ctx); err != nil {
		return nil, fmt.Errorf("lock player %d: %w", userID, err)
	}
	defer e.release()
	if err := m.loadLocked(ctx, e, userID); err != nil {
		return nil, err
	}
	return e.rec.Clone(), nil
}

// Mutate — единственная точка изменения записи. Берёт замок пользователя,
// применяет transform к рабочей копии, дописывает события в журнал и
// сохраняет копию в хранилище. Кэш обновляется только после успешной
// записи: при StorageFailure in-memory запись остаётся в точности прежней,
// и повторный Mutate безопасен — transform применится к исходному состоянию.
func (m *Manager) Mutate(ctx context.Context, userID int64, transform Transform) ([]game.Event, error) {
	e := m.entryFor(userID)
	if err := e.acquire(ctx); err != nil {
		return nil, fmt.Errorf("lock player %d: %w", userID, err)
	}
	defer e.release()
	if err := m.loadLocked(ctx, e, userID); err != nil {
		return nil, err
	}

	work := e.rec.Clone()
	events, err := transform(work)
	if err != nil {
		return nil, err
	}
	work.ActivityLog = append(work.ActivityLog, events...)

	if err := m.store.Save(ctx, userID, work); err != nil {
		return nil, fmt.Errorf("persist player %d: %w", userID, err)
	}
	e.rec = work
	return events, nil
}

// UserIDs возвращает всех известных пользователей: закэшированных плюс
// сохранённых в хранилище (после рестарта кэш пуст, а напоминания должны
// работать для всех).
func (m *Manager) UserIDs(ctx context.Context) ([]int64, error) {
	ids, err := m.store.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	m.mu.Lock()
	for id := range m.users {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
