package redis

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"diver-exam-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Sessions own a live countdown, so the session itself stays in a local map.
//   - Redis holds a liveness marker per session (user, exam, mode) so other
//     instances and operators can see which attempts are in progress.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Save(session *app.Session) {
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	cfg := session.Config()
	ctx := context.Background()
	key := s.key(session.ID())
	// best-effort liveness marker
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, "user", session.UserID(), "exam", cfg.ExamID, "mode", string(cfg.Mode))
	if ttl := s.markerTTL(cfg.TimeLimitSeconds); ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("write session marker", "session", session.ID(), "error", err)
	}
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if err := s.client.Del(context.Background(), s.key(sessionID)).Err(); err != nil {
		slog.Warn("clear session marker", "session", sessionID, "error", err)
	}
}

// Active counts the liveness markers visible in Redis across all instances.
func (s *SessionStore) Active(ctx context.Context) (int, error) {
	var (
		cursor uint64
		count  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, "exam:session:*", 100).Result()
		if err != nil {
			return 0, err
		}
		count += len(keys)
		if next == 0 {
			return count, nil
		}
		cursor = next
	}
}

// markerTTL outlives the exam countdown so a crashed instance's markers still expire.
func (s *SessionStore) markerTTL(timeLimitSeconds int) time.Duration {
	limit := time.Duration(timeLimitSeconds) * time.Second
	if s.ttl > limit {
		return s.ttl
	}
	return limit + s.ttl
}

func (s *SessionStore) key(sessionID string) string {
	return "exam:session:" + sessionID
}
