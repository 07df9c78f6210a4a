package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"questbot/internal/game"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS players (
	user_id    INTEGER PRIMARY KEY,
	record     TEXT    NOT NULL,
	updated_at INTEGER NOT NULL
);`

// SQLiteStore persists one row per player with the record as a JSON blob.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite открывает (или создаёт) базу и применяет схему.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=FULL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, userID int64) (*game.PlayerRecord, bool, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT record FROM players WHERE user_id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select player %d: %w", userID, err)
	}
	var rec game.PlayerRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, fmt.Errorf("decode player %d: %w", userID, err)
	}
	return &rec, true, nil
}

func (s *SQLiteStore) Save(ctx context.Context, userID int64, rec *game.PlayerRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode player %d: %w", userID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO players (user_id, record, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`,
		userID, string(raw), time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert player %d: %w", userID, err)
	}
	return nil
}

func (s *SQLiteStore) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM players ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer func(rows *sql.Rows) {
		err := rows.Close()
		if err != nil {
		}
	}(rows)
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan player id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return ids, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
