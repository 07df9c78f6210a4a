package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"questbot/internal/game"
)

// FileStore хранит все записи одним JSON-документом. Файл переписывается
// целиком через временный файл и rename, так что частично записанное
// состояние на диск не попадает.
type FileStore struct {
	path    string
	mu      sync.Mutex
	records map[int64]*game.PlayerRecord
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	s := &FileStore{path: path, records: make(map[int64]*game.PlayerRecord)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open: %w", err)
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
		}
	}(f)
	var raw map[string]*game.PlayerRecord
	dec := json.NewDecoder(f)
	if err := dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decode %s: %w", s.path, err)
	}
	for k, rec := range raw {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		s.records[id] = rec
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, userID int64) (*game.PlayerRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		return nil, false, nil
	}
	return rec.Clone(), true, nil
}

func (s *FileStore) Save(ctx context.Context, userID int64, rec *game.PlayerRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.records[userID]
	s.records[userID] = rec.Clone()
	if err := s.writeUnlocked(); err != nil {
		// запись не прошла — память не должна разойтись с диском
		if existed {
			s.records[userID] = prev
		} else {
			delete(s.records, userID)
		}
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) ListIDs(ctx context.Context) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) writeUnlocked() error {
	raw := make(map[string]*game.PlayerRecord, len(s.records))
	for id, rec := range s.records {
		raw[strconv.FormatInt(id, 10)] = rec
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".players-*.json")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("encode: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
