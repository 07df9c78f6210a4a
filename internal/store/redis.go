package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"questbot/internal/game"
)

const redisKeyPrefix = "user:"

// RedisStore хранит каждую запись отдельным ключом user:<id> с JSON-телом.
// Подходит, когда бот живёт не один и файл/sqlite не разделить.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore подключается к Redis и проверяет соединение.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return &RedisStore{client: client}, nil
}

func redisKey(userID int64) string {
	return redisKeyPrefix + strconv.FormatInt(userID, 10)
}

func (s *RedisStore) Load(ctx context.Context, userID int64) (*game.PlayerRecord, bool, error) {
	raw, err := s.client.Get(ctx, redisKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get player %d: %w", userID, err)
	}
	var rec game.PlayerRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, fmt.Errorf("decode player %d: %w", userID, err)
	}
	return &rec, true, nil
}

func (s *RedisStore) Save(ctx context.Context, userID int64, rec *game.PlayerRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode player %d: %w", userID, err)
	}
	if err := s.client.Set(ctx, redisKey(userID), raw, 0).Err(); err != nil {
		return fmt.Errorf("set player %d: %w", userID, err)
	}
	return nil
}

func (s *RedisStore) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := strings.TrimPrefix(iter.Val(), redisKeyPrefix)
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan players: %w", err)
	}
	return ids, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
