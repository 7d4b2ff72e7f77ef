package memory

import (
	"context"
	"sync"

	"diver-exam-service/internal/domain"
)

// AttemptStore keeps finished attempts in memory. It serves as the attempt
// sink when no database or remote sink is configured.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts []domain.AttemptRecord
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{}
}

func (s *AttemptStore) Record(_ context.Context, rec domain.AttemptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, rec)
	return nil
}

// List returns the attempts of one user, or all attempts when userID is empty.
func (s *AttemptStore) List(_ context.Context, userID string) ([]domain.AttemptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AttemptRecord, 0, len(s.attempts))
	for _, rec := range s.attempts {
		if userID == "" || rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}
