package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"studynotes/internal/model"
)

// QAHistoryCache keeps the recent Q&A session of each note in redis.
type QAHistoryCache struct {
	client   *redisv9.Client
	ttl      time.Duration
	maxItems int
}

func NewQAHistoryCache(client *redisv9.Client, ttl time.Duration, maxItems int) *QAHistoryCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if maxItems <= 0 {
		maxItems = 20
	}
	return &QAHistoryCache{
		client:   client,
		ttl:      ttl,
		maxItems: maxItems,
	}
}

// Get reports whether a session exists for the note alongside its pairs.
func (c *QAHistoryCache) Get(ctx context.Context, noteID string) ([]model.QAPair, bool, error) {
	raw, err := c.client.LRange(ctx, c.key(noteID), 0, -1).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis get qa history failed: %w", err)
	}
	if len(raw) == 0 {
		return nil, false, nil
	}

	pairs := make([]model.QAPair, 0, len(raw))
	for _, item := range raw {
		var pair model.QAPair
		if err := json.Unmarshal([]byte(item), &pair); err != nil {
			return nil, false, fmt.Errorf("unmarshal cached qa pair failed: %w", err)
		}
		pairs = append(pairs, pair)
	}
	return pairs, true, nil
}

// Append pushes a pair, trims the session to the newest maxItems and refreshes the TTL.
func (c *QAHistoryCache) Append(ctx context.Context, noteID string, pair model.QAPair) error {
	payload, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("marshal qa pair failed: %w", err)
	}
	key := c.key(noteID)
	pipe := c.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, int64(-c.maxItems), -1)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis append qa history failed: %w", err)
	}
	return nil
}

// Seed replaces the session with pairs loaded from the store.
func (c *QAHistoryCache) Seed(ctx context.Context, noteID string, pairs []model.QAPair) error {
	if len(pairs) > c.maxItems {
		pairs = pairs[len(pairs)-c.maxItems:]
	}
	key := c.key(noteID)
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	for _, pair := range pairs {
		payload, err := json.Marshal(pair)
		if err != nil {
			return fmt.Errorf("marshal qa pair failed: %w", err)
		}
		pipe.RPush(ctx, key, payload)
	}
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis seed qa history failed: %w", err)
	}
	return nil
}

func (c *QAHistoryCache) Delete(ctx context.Context, noteID string) error {
	if err := c.client.Del(ctx, c.key(noteID)).Err(); err != nil {
		return fmt.Errorf("redis delete qa history failed: %w", err)
	}
	return nil
}

func (c *QAHistoryCache) key(noteID string) string {
	return "notes:qa:history:" + noteID
}
