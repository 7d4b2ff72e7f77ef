package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"diver-exam-service/internal/domain"
	"github.com/google/uuid"
)

// Session is one learner's exam attempt: the resolved questions, captured
// answers, countdown and submission state. Sessions share nothing.
type Session struct {
	id        string
	userID    string
	config    domain.ExamConfig
	questions []domain.Question
	clock     Clock
	sink      AttemptSink
	logger    *slog.Logger

	mu          sync.RWMutex
	state       domain.SessionState
	index       int
	answers     map[string]string
	remaining   int
	summary     *domain.AttemptSummary
	closed      bool
	dictation   Dictation
	dictationQ  string
	dictationGn int
	subscribers map[chan domain.SessionSnapshot]struct{}

	haltOnce sync.Once
	done     chan struct{}
}

// NewSession builds an idle session. sink may be nil when results are not persisted.
func NewSession(id, userID string, cfg domain.ExamConfig, questions []domain.Question, sink AttemptSink, clock Clock) *Session {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Session{
		id:          id,
		userID:      userID,
		config:      cfg,
		questions:   questions,
		clock:       clock,
		sink:        sink,
		logger:      slog.Default().With("session", id, "exam", cfg.ExamID),
		state:       domain.StateIdle,
		answers:     make(map[string]string),
		remaining:   cfg.TimeLimitSeconds,
		subscribers: make(map[chan domain.SessionSnapshot]struct{}),
		done:        make(chan struct{}),
	}
}

func (s *Session) ID() string                { return s.id }
func (s *Session) UserID() string            { return s.userID }
func (s *Session) Config() domain.ExamConfig { return s.config }

// Questions returns a copy of the resolved question set.
func (s *Session) Questions() []domain.Question {
	return append([]domain.Question(nil), s.questions...)
}

// Start moves an idle session to running and begins the one-second countdown.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state != domain.StateIdle || s.closed {
		s.mu.Unlock()
		return domain.ErrSessionNotRunning
	}
	s.state = domain.StateRunning
	ticker := s.clock.NewTicker(time.Second)
	s.broadcastLocked()
	s.mu.Unlock()

	go s.run(ticker)
	return nil
}

func (s *Session) run(t Ticker) {
	defer t.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-t.C():
			s.Tick()
		}
	}
}

// Tick advances the countdown by one second. Ticks outside the running state
// (late ticks after submission, ticks on a closed session) do nothing.
// Reaching zero submits the session exactly like a manual submit.
func (s *Session) Tick() {
	s.mu.Lock()
	if s.state != domain.StateRunning || s.closed {
		s.mu.Unlock()
		return
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining > 0 {
		s.broadcastLocked()
		s.mu.Unlock()
		return
	}
	s.state = domain.StateExpired
	s.broadcastLocked()
	s.mu.Unlock()

	s.logger.Info("exam time expired, submitting")
	if _, err := s.Submit(context.Background()); err != nil {
		s.logger.Warn("auto-submit skipped", "error", err)
	}
}

// Submit grades the session, transitions it to submitted and hands the
// attempt to the sink. A sink failure is logged and never undoes the submission.
func (s *Session) Submit(ctx context.Context) (domain.AttemptSummary, error) {
	s.mu.Lock()
	if s.state == domain.StateSubmitted {
		summary := *s.summary
		s.mu.Unlock()
		return summary, domain.ErrSessionSubmitted
	}
	summary := Grade(s.config.ExamID, s.questions, s.answers, s.config.PassingPercentage)
	s.state = domain.StateSubmitted
	s.summary = &summary
	dictation := s.detachDictationLocked()
	s.broadcastLocked()
	s.mu.Unlock()

	if dictation != nil {
		dictation.Stop()
	}
	s.halt()
	s.record(ctx, summary)
	return summary, nil
}

func (s *Session) record(ctx context.Context, summary domain.AttemptSummary) {
	if s.sink == nil {
		return
	}
	rec, err := NewAttemptRecord(s.userID, summary, s.clock.Now())
	if err != nil {
		s.logger.Warn("build attempt record", "error", err)
		return
	}
	// The learner leaving must not abort an in-flight save.
	if err := s.sink.Record(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Warn("attempt sink unavailable, result not persisted", "error", err)
		return
	}
	s.logger.Info("attempt recorded", "attempt", rec.ID, "percentage", rec.Percentage, "passed", rec.Passed)
}

// NewAttemptRecord converts a summary into the sink payload.
func NewAttemptRecord(userID string, summary domain.AttemptSummary, at time.Time) (domain.AttemptRecord, error) {
	answers := summary.RawAnswers
	if answers == nil {
		answers = map[string]string{}
	}
	encoded, err := json.Marshal(answers)
	if err != nil {
		return domain.AttemptRecord{}, fmt.Errorf("encode answers: %w", err)
	}
	return domain.AttemptRecord{
		ID:             uuid.NewString(),
		UserID:         userID,
		ExamSlug:       summary.ExamID,
		Score:          summary.Score,
		TotalQuestions: summary.TotalQuestions,
		Percentage:     summary.Percentage,
		Passed:         summary.Passed,
		PassingScore:   summary.PassingPercentage,
		Answers:        string(encoded),
		SubmittedAt:    at.UTC(),
	}, nil
}

// Close tears the session down: the countdown stops and later ticks are ignored.
// It does not cancel a sink call already in flight.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	dictation := s.detachDictationLocked()
	s.mu.Unlock()

	if dictation != nil {
		dictation.Stop()
	}
	s.halt()
}

func (s *Session) halt() {
	s.haltOnce.Do(func() { close(s.done) })
}

// SetAnswer upserts the learner's answer. Values are not checked against options.
func (s *Session) SetAnswer(questionID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == domain.StateSubmitted {
		return domain.ErrSessionSubmitted
	}
	s.answers[questionID] = value
	s.broadcastLocked()
	return nil
}

// Next moves to the following question, staying on the last one.
func (s *Session) Next() int {
	return s.move(1)
}

// Previous moves to the preceding question, staying on the first one.
func (s *Session) Previous() int {
	return s.move(-1)
}

func (s *Session) move(delta int) int {
	s.mu.Lock()
	idx := s.index + delta
	if idx > len(s.questions)-1 {
		idx = len(s.questions) - 1
	}
	if idx < 0 {
		idx = 0
	}
	var dictation Dictation
	if idx != s.index {
		s.index = idx
		dictation = s.detachDictationLocked()
		s.broadcastLocked()
	}
	s.mu.Unlock()

	if dictation != nil {
		dictation.Stop()
	}
	return idx
}

// StartDictation attaches a speech capability to the current written question.
// Final transcripts are appended to that question's answer until StopDictation.
func (s *Session) StartDictation(d Dictation) error {
	if d == nil || !d.Supported() {
		return domain.ErrDictationUnsupported
	}

	s.mu.Lock()
	if s.state == domain.StateSubmitted {
		s.mu.Unlock()
		return domain.ErrSessionSubmitted
	}
	if len(s.questions) == 0 || s.questions[s.index].Kind != domain.KindWritten {
		s.mu.Unlock()
		return domain.ErrDictationNotWritten
	}
	previous := s.detachDictationLocked()
	s.dictationGn++
	gen := s.dictationGn
	s.dictation = d
	s.dictationQ = s.questions[s.index].ID
	s.broadcastLocked()
	s.mu.Unlock()

	if previous != nil {
		previous.Stop()
	}
	if err := d.Start(func(t Transcript) { s.applyTranscript(gen, t) }); err != nil {
		s.mu.Lock()
		if s.dictationGn == gen {
			s.detachDictationLocked()
			s.broadcastLocked()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// StopDictation ends voice capture, if any.
func (s *Session) StopDictation() {
	s.mu.Lock()
	dictation := s.detachDictationLocked()
	if dictation != nil {
		s.broadcastLocked()
	}
	s.mu.Unlock()

	if dictation != nil {
		dictation.Stop()
	}
}

// ApplyTranscript feeds a recognition result into the active dictation.
func (s *Session) ApplyTranscript(t Transcript) {
	s.mu.RLock()
	gen := s.dictationGn
	s.mu.RUnlock()
	s.applyTranscript(gen, t)
}

func (s *Session) applyTranscript(gen int, t Transcript) {
	if !t.Final {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dictation == nil || s.dictationGn != gen || s.state == domain.StateSubmitted {
		return
	}
	s.answers[s.dictationQ] = appendTranscript(s.answers[s.dictationQ], t.Text)
	s.broadcastLocked()
}

func appendTranscript(existing, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return existing
	}
	if existing == "" || strings.TrimRight(existing, " \t\n") != existing {
		return existing + text
	}
	return existing + " " + text
}

func (s *Session) detachDictationLocked() Dictation {
	d := s.dictation
	s.dictation = nil
	s.dictationQ = ""
	return d
}

// State reports the timer state.
func (s *Session) State() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Remaining reports the seconds left on the countdown.
func (s *Session) Remaining() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remaining
}

// CurrentIndex reports the position of the question on screen.
func (s *Session) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Answers returns a copy of the captured answers.
func (s *Session) Answers() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Recording reports whether voice capture is active.
func (s *Session) Recording() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dictation != nil
}

// Summary returns the graded result once the session is submitted.
func (s *Session) Summary() (domain.AttemptSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return domain.AttemptSummary{}, false
	}
	return *s.summary, true
}

// Snapshot returns the current client-facing view.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel of snapshots, starting with the current one.
// The caller must invoke cancel to release it.
func (s *Session) Subscribe() (<-chan domain.SessionSnapshot, func()) {
	ch := make(chan domain.SessionSnapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	// queued under the lock so no broadcast can overtake it
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// slow reader: drop its oldest snapshot, the newest one supersedes it
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Session) snapshotLocked() domain.SessionSnapshot {
	snap := domain.SessionSnapshot{
		SessionID:        s.id,
		ExamID:           s.config.ExamID,
		Mode:             s.config.Mode,
		Title:            s.config.Title,
		State:            s.state,
		CurrentIndex:     s.index,
		TotalQuestions:   len(s.questions),
		Answered:         len(s.answers),
		RemainingSeconds: s.remaining,
		RecordingVoice:   s.dictation != nil,
		UpdatedAt:        s.clock.Now(),
	}
	if len(s.questions) > 0 {
		view := s.questions[s.index].View()
		snap.Current = &view
		snap.CurrentAnswer = s.answers[view.ID]
	}
	if s.summary != nil {
		summary := *s.summary
		snap.Summary = &summary
	}
	return snap
}
