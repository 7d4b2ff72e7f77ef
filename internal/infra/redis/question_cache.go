package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"diver-exam-service/internal/app"
	"diver-exam-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionCache caches question banks in Redis and falls back to a loader on cache miss.
// Banks are stored as JSON: SET exam:{examID}:questions <json> EX ttl
// Empty banks are not cached.
type QuestionCache struct {
	client  *redis.Client
	loader  app.QuestionProvider
	ttl     time.Duration
	sf      singleflight.Group
	marshal func(any) ([]byte, error)

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionCache(client *redis.Client, loader app.QuestionProvider, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client:  client,
		loader:  loader,
		ttl:     ttl,
		marshal: json.Marshal,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) Questions(ctx context.Context, examID string) ([]domain.Question, error) {
	if bank, ok := c.cached(ctx, examID); ok {
		return bank, nil
	}

	result, err, _ := c.sf.Do(examID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if bank, ok := c.cached(ctx, examID); ok {
			return bank, nil
		}

		bank, err := c.loader.Questions(ctx, examID)
		if err != nil {
			return []domain.Question(nil), err
		}
		if len(bank) == 0 {
			return bank, nil
		}

		data, err := c.marshal(bank)
		if err != nil {
			slog.Warn("encode question bank for cache", "exam", examID, "error", err)
			return bank, nil
		}
		if err := c.client.Set(ctx, c.key(examID), data, c.ttlWithJitter()).Err(); err != nil {
			slog.Warn("cache question bank", "exam", examID, "error", err)
		}
		return bank, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) cached(ctx context.Context, examID string) ([]domain.Question, bool) {
	data, err := c.client.Get(ctx, c.key(examID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("read cached question bank", "exam", examID, "error", err)
		}
		return nil, false
	}
	var bank []domain.Question
	if err := json.Unmarshal(data, &bank); err != nil || len(bank) == 0 {
		return nil, false
	}
	return bank, true
}

// Invalidate drops the cached bank of an exam.
func (c *QuestionCache) Invalidate(ctx context.Context, examID string) error {
	return c.client.Del(ctx, c.key(examID)).Err()
}

func (c *QuestionCache) key(examID string) string {
	return "exam:" + examID + ":questions"
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
