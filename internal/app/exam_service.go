package app

import (
	"context"
	"log/slog"
	"math/rand"

	"diver-exam-service/internal/domain"
	"github.com/google/uuid"
)

// QuestionProvider returns the stored question bank of an exam, in stored order.
// An unknown exam yields an empty bank.
type QuestionProvider interface {
	Questions(ctx context.Context, examID string) ([]domain.Question, error)
}

// AttemptSink persists finished attempts. Callers treat it as best-effort.
type AttemptSink interface {
	Record(ctx context.Context, rec domain.AttemptRecord) error
}

// SessionRepository abstracts where live sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Save(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// RoutedProvider picks a provider per exam identifier and falls back to a default.
type RoutedProvider struct {
	fallback QuestionProvider
	routes   map[string]QuestionProvider
}

func NewRoutedProvider(fallback QuestionProvider, routes map[string]QuestionProvider) *RoutedProvider {
	if routes == nil {
		routes = make(map[string]QuestionProvider)
	}
	return &RoutedProvider{fallback: fallback, routes: routes}
}

func (p *RoutedProvider) Questions(ctx context.Context, examID string) ([]domain.Question, error) {
	if provider, ok := p.routes[examID]; ok {
		return provider.Questions(ctx, examID)
	}
	return p.fallback.Questions(ctx, examID)
}

// LayeredProvider consults providers in order and returns the first non-empty bank.
// Errors are only reported when no layer produced a bank.
type LayeredProvider []QuestionProvider

func (l LayeredProvider) Questions(ctx context.Context, examID string) ([]domain.Question, error) {
	var firstErr error
	for _, p := range l {
		bank, err := p.Questions(ctx, examID)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(bank) > 0 {
			return bank, nil
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return []domain.Question{}, nil
}

// ExamService contains the exam-taking use cases.
type ExamService struct {
	sessions  SessionRepository
	questions QuestionProvider
	sink      AttemptSink
	clock     Clock
	shuffle   ShuffleFunc
}

// Option customises an ExamService.
type Option func(*ExamService)

// WithClock replaces the system clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(s *ExamService) { s.clock = c }
}

// WithShuffle replaces the shuffle used for padded review sets.
func WithShuffle(f ShuffleFunc) Option {
	return func(s *ExamService) { s.shuffle = f }
}

func NewExamService(sessions SessionRepository, questions QuestionProvider, sink AttemptSink, opts ...Option) *ExamService {
	s := &ExamService{
		sessions:  sessions,
		questions: questions,
		sink:      sink,
		clock:     SystemClock{},
		shuffle:   rand.Shuffle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config resolves the exam configuration without touching any collaborator.
func (s *ExamService) Config(examID string, mode domain.Mode) domain.ExamConfig {
	return ResolveExamConfig(examID, mode)
}

// Resolve loads the bank of an exam and derives the question set for a mode.
// Provider failures are logged and treated as an empty bank.
func (s *ExamService) Resolve(ctx context.Context, examID string, mode domain.Mode) []domain.Question {
	bank, err := s.questions.Questions(ctx, examID)
	if err != nil {
		slog.Warn("question bank unavailable", "exam", examID, "error", err)
		bank = nil
	}
	return ResolveQuestions(bank, mode, s.shuffle)
}

// Open creates an idle session without starting its countdown.
// Zero resolved questions is reported as ErrExamNotFound, never as a zero score.
func (s *ExamService) Open(ctx context.Context, userID, examID string, mode domain.Mode) (*Session, error) {
	questions := s.Resolve(ctx, examID, mode)
	if len(questions) == 0 {
		return nil, domain.ErrExamNotFound
	}
	session := NewSession(uuid.NewString(), userID, ResolveExamConfig(examID, mode), questions, s.sink, s.clock)
	s.sessions.Save(session)
	slog.Info("exam session opened", "session", session.ID(), "exam", examID, "mode", mode, "questions", len(questions))
	return session, nil
}

// Start opens a session and starts its countdown.
func (s *ExamService) Start(ctx context.Context, userID, examID string, mode domain.Mode) (*Session, error) {
	session, err := s.Open(ctx, userID, examID, mode)
	if err != nil {
		return nil, err
	}
	if err := session.Start(); err != nil {
		s.End(session.ID())
		return nil, err
	}
	return session, nil
}

// Get returns a live session.
func (s *ExamService) Get(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// End tears a session down and forgets it. Unknown ids are ignored.
func (s *ExamService) End(sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Delete(sessionID)
}
