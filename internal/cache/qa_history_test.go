package cache

import (
	"context"
	"testing"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"studynotes/internal/model"
)

func TestQAHistoryCacheDefaults(t *testing.T) {
	c := NewQAHistoryCache(nil, 0, 0)
	assert.Equal(t, 30*time.Minute, c.ttl)
	assert.Equal(t, 20, c.maxItems)
	assert.Equal(t, "notes:qa:history:abc", c.key("abc"))
}

func TestQAHistoryCacheWrapsRedisErrors(t *testing.T) {
	client := redisv9.NewClient(&redisv9.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	c := NewQAHistoryCache(client, time.Minute, 5)

	_, found, err := c.Get(context.Background(), "n1")
	assert.ErrorContains(t, err, "redis get qa history failed")
	assert.False(t, found)

	err = c.Append(context.Background(), "n1", model.QAPair{Question: "q"})
	assert.ErrorContains(t, err, "redis append qa history failed")
}
