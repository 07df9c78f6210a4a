// Package store определяет контракт долговременного хранилища записей
// игроков и его реализации (файл, sqlite, redis).
package store

import (
	"context"

	"questbot/internal/game"
)

// Store is a durable mapping from user ID to a serialized PlayerRecord.
// Save is atomic and durable once it returns nil; Load returns the most
// recently saved value. The player manager is the only writer, so no
// versioning is needed. Implementations must be safe for concurrent use.
type Store interface {
	Load(ctx context.Context, userID int64) (*game.PlayerRecord, bool, error)
	Save(ctx context.Context, userID int64, rec *game.PlayerRecord) error
	ListIDs(ctx context.Context) ([]int64, error)
	Close() error
}
