package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "trustlens:history:"

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis constructs a redis-backed store. Records expire through key TTL; a
// sorted set scored by creation time keeps listing order.
func NewRedis(cfg Config) (Store, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis configuration missing")
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Redis.Prefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &redisStore{
		client: client,
		ttl:    cfg.TTL,
		prefix: prefix,
	}, nil
}

func (s *redisStore) key(id string) string {
	return s.prefix + "record:" + id
}

func (s *redisStore) indexKey() string {
	return s.prefix + "index"
}

func (s *redisStore) Save(ctx context.Context, record Record) error {
	if record.ID == "" {
		return fmt.Errorf("record id required")
	}
	record = record.stamp(time.Now(), s.ttl)

	data, err := sonic.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	var expiry time.Duration
	if record.ExpiresAt != nil {
		expiry = time.Until(*record.ExpiresAt)
		if expiry <= 0 {
			return nil
		}
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(record.ID), data, expiry)
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{
		Score:  float64(record.CreatedAt.UnixMilli()),
		Member: record.ID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *redisStore) Get(ctx context.Context, id string) (Record, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Record{}, err
	}
	var record Record
	if err := sonic.Unmarshal(raw, &record); err != nil {
		return Record{}, fmt.Errorf("decode record %s: %w", id, err)
	}
	return record, nil
}

// List walks the index newest first in pages until limit live records are found
// or the index runs out. Ids whose record key has expired are pruned afterwards so
// page offsets stay stable during the walk.
func (s *redisStore) List(ctx context.Context, limit int) ([]Record, error) {
	limit = normalizeLimit(limit)
	page := int64(limit * 2)

	records := make([]Record, 0, limit)
	stale := make([]any, 0)
	for offset := int64(0); len(records) < limit; offset += page {
		ids, err := s.client.ZRevRange(ctx, s.indexKey(), offset, offset+page-1).Result()
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			break
		}

		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = s.key(id)
		}
		values, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, err
		}

		for i, v := range values {
			raw, ok := v.(string)
			if !ok {
				stale = append(stale, ids[i])
				continue
			}
			if len(records) == limit {
				continue
			}
			var record Record
			if err := sonic.UnmarshalString(raw, &record); err != nil {
				return nil, fmt.Errorf("decode record %s: %w", ids[i], err)
			}
			records = append(records, record)
		}
		if int64(len(ids)) < page {
			break
		}
	}
	if len(stale) > 0 {
		_ = s.client.ZRem(ctx, s.indexKey(), stale...).Err()
	}
	return records, nil
}

func (s *redisStore) Remove(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)
	_, err := pipe.Exec(ctx)
	return err
}

// CleanupExpired only prunes index entries; record keys expire on their own.
func (s *redisStore) CleanupExpired(ctx context.Context) error {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return err
	}
	stale := make([]any, 0)
	for _, id := range ids {
		n, err := s.client.Exists(ctx, s.key(id)).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	return s.client.ZRem(ctx, s.indexKey(), stale...).Err()
}

func (s *redisStore) Stats(ctx context.Context) (map[string]any, error) {
	size, err := s.client.ZCard(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"type":        "redis",
		"total":       size,
		"ttl_seconds": int(s.ttl.Seconds()),
	}, nil
}

func (s *redisStore) Close(context.Context) error {
	return s.client.Close()
}
