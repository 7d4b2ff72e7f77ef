package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"diver-exam-service/internal/app"
	"diver-exam-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionCache caches question banks with TTL to avoid repeated DB or HTTP hits.
// Empty banks are never cached so a failed fetch is retried on the next session.
type QuestionCache struct {
	loader app.QuestionProvider
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedBank
}

type cachedBank struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionCache(loader app.QuestionProvider, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBank),
	}
}

func (c *QuestionCache) Questions(ctx context.Context, examID string) ([]domain.Question, error) {
	if bank, ok := c.lookup(examID); ok {
		return bank, nil
	}

	result, err, _ := c.sf.Do(examID, func() (interface{}, error) {
		if bank, ok := c.lookup(examID); ok {
			return bank, nil
		}

		bank, err := c.loader.Questions(ctx, examID)
		if err != nil {
			return []domain.Question(nil), err
		}
		if len(bank) == 0 {
			return bank, nil
		}

		c.mu.Lock()
		c.cache[examID] = cachedBank{
			questions: bank,
			expiresAt: c.clock().Add(c.ttlWithJitterLocked()),
		}
		c.mu.Unlock()
		return bank, nil
	})
	if err != nil {
		return nil, err
	}
	return copyBank(result.([]domain.Question)), nil
}

func (c *QuestionCache) lookup(examID string) ([]domain.Question, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	if entry, ok := c.cache[examID]; ok && entry.expiresAt.After(now) {
		return copyBank(entry.questions), true
	}
	return nil, false
}

func (c *QuestionCache) ttlWithJitterLocked() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticQuestionLoader serves banks from an in-memory table (embedded content, tests, demos).
type StaticQuestionLoader struct {
	banks map[string][]domain.Question
}

func NewStaticQuestionLoader(banks map[string][]domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{banks: banks}
}

// Questions returns the bank in stored order, or an empty bank for unknown exams.
func (l *StaticQuestionLoader) Questions(_ context.Context, examID string) ([]domain.Question, error) {
	return copyBank(l.banks[examID]), nil
}

// ExamIDs lists the identifiers with a non-empty bank, sorted.
func (l *StaticQuestionLoader) ExamIDs() []string {
	ids := make([]string, 0, len(l.banks))
	for id, bank := range l.banks {
		if len(bank) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func copyBank(bank []domain.Question) []domain.Question {
	out := make([]domain.Question, len(bank))
	copy(out, bank)
	return out
}
