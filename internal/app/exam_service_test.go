package app_test

import (
	"context"
	"errors"
	"testing"

	"diver-exam-service/internal/app"
	"diver-exam-service/internal/domain"
	"diver-exam-service/internal/infra/memory"
)

type stubProvider struct {
	banks map[string][]domain.Question
	err   error
	calls []string
}

func (p *stubProvider) Questions(_ context.Context, examID string) ([]domain.Question, error) {
	p.calls = append(p.calls, examID)
	if p.err != nil {
		return nil, p.err
	}
	return p.banks[examID], nil
}

func newTestService(t *testing.T, provider app.QuestionProvider, opts ...app.Option) (*app.ExamService, *memory.SessionStore) {
	t.Helper()
	store := memory.NewSessionStore()
	opts = append([]app.Option{app.WithClock(newManualClock())}, opts...)
	return app.NewExamService(store, provider, &recordingSink{}, opts...), store
}

func TestServiceUnknownExamIsNotFound(t *testing.T) {
	svc, store := newTestService(t, &stubProvider{banks: map[string][]domain.Question{}})

	_, err := svc.Start(context.Background(), "u1", "cave-diving", domain.ModeFull)
	if !errors.Is(err, domain.ErrExamNotFound) {
		t.Fatalf("expected ErrExamNotFound, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("no session should be kept for an unknown exam")
	}
	_, err = svc.Start(context.Background(), "u1", "cave-diving", domain.ModeSpacedRepetition)
	if !errors.Is(err, domain.ErrExamNotFound) {
		t.Fatalf("review mode: expected ErrExamNotFound, got %v", err)
	}
}

func TestServiceProviderFailureIsNotFound(t *testing.T) {
	svc, _ := newTestService(t, &stubProvider{err: errors.New("dial tcp: i/o timeout")})

	_, err := svc.Open(context.Background(), "u1", "ndt-inspection", domain.ModeFull)
	if !errors.Is(err, domain.ErrExamNotFound) {
		t.Fatalf("expected ErrExamNotFound, got %v", err)
	}
}

func TestServiceWrittenOnlyBankIsNotNotFound(t *testing.T) {
	bank := []domain.Question{{ID: "w1", Kind: domain.KindWritten, Points: 3, Sequence: 1}}
	svc, _ := newTestService(t, &stubProvider{banks: map[string][]domain.Question{"diver-medic": bank}})

	session, err := svc.Open(context.Background(), "u1", "diver-medic", domain.ModeFull)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	summary, err := session.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if summary.TotalQuestions != 0 || summary.Percentage != 0 || summary.Passed {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestServiceStartRunsSession(t *testing.T) {
	provider := &stubProvider{banks: map[string][]domain.Question{"alst": makeBank("alst", 4)}}
	svc, store := newTestService(t, provider)

	session, err := svc.Start(context.Background(), "u1", "alst", domain.ModeFull)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if session.State() != domain.StateRunning {
		t.Fatalf("expected running, got %s", session.State())
	}
	if session.Config().TimeLimitSeconds != 7200 || session.Config().Title == "" {
		t.Fatalf("unexpected config %+v", session.Config())
	}
	if got, err := svc.Get(session.ID()); err != nil || got != session {
		t.Fatalf("session not retrievable: %v", err)
	}

	svc.End(session.ID())
	if store.Len() != 0 {
		t.Fatalf("ended session must be forgotten")
	}
	if _, err := svc.Get(session.ID()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	svc.End(session.ID())
}

func TestServiceSpacedRepetitionUsesInjectedShuffle(t *testing.T) {
	provider := &stubProvider{banks: map[string][]domain.Question{"lst": makeBank("lst", 4)}}
	shuffled := 0
	svc, _ := newTestService(t, provider, app.WithShuffle(func(n int, swap func(i, j int)) {
		shuffled = n
	}))

	session, err := svc.Open(context.Background(), "u1", "lst", domain.ModeSpacedRepetition)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := len(session.Questions()); got != app.SpacedRepetitionSize {
		t.Fatalf("want %d questions, got %d", app.SpacedRepetitionSize, got)
	}
	if shuffled != app.SpacedRepetitionSize {
		t.Fatalf("padded review set should be shuffled, shuffle saw n=%d", shuffled)
	}
	if session.Config().Mode != domain.ModeSpacedRepetition || session.State() != domain.StateIdle {
		t.Fatalf("unexpected session %+v %s", session.Config(), session.State())
	}
}

func TestRoutedProvider(t *testing.T) {
	remote := &stubProvider{banks: map[string][]domain.Question{"ndt-inspection": makeBank("ndt", 2)}}
	static := &stubProvider{banks: map[string][]domain.Question{"alst": makeBank("alst", 1)}}
	provider := app.NewRoutedProvider(static, map[string]app.QuestionProvider{"ndt-inspection": remote})

	if bank, _ := provider.Questions(context.Background(), "ndt-inspection"); len(bank) != 2 {
		t.Fatalf("ndt should come from the routed provider, got %d questions", len(bank))
	}
	if bank, _ := provider.Questions(context.Background(), "alst"); len(bank) != 1 {
		t.Fatalf("alst should come from the fallback, got %d questions", len(bank))
	}
	if len(remote.calls) != 1 || len(static.calls) != 1 {
		t.Fatalf("unexpected routing: remote=%v static=%v", remote.calls, static.calls)
	}
}

func TestLayeredProviderFallsThrough(t *testing.T) {
	db := &stubProvider{banks: map[string][]domain.Question{"lst": makeBank("db", 2)}}
	static := &stubProvider{banks: map[string][]domain.Question{"lst": makeBank("static", 4), "alst": makeBank("alst", 1)}}
	layered := app.LayeredProvider{db, static}

	if bank, err := layered.Questions(context.Background(), "lst"); err != nil || bank[0].ID != "db-1" {
		t.Fatalf("first layer should win, got %v %v", bank, err)
	}
	if bank, err := layered.Questions(context.Background(), "alst"); err != nil || len(bank) != 1 {
		t.Fatalf("empty first layer should fall through, got %v %v", bank, err)
	}
	if bank, err := layered.Questions(context.Background(), "cave-diving"); err != nil || len(bank) != 0 {
		t.Fatalf("unknown exam should be empty, got %v %v", bank, err)
	}

	down := app.LayeredProvider{&stubProvider{err: errors.New("db down")}, static}
	if bank, err := down.Questions(context.Background(), "alst"); err != nil || len(bank) != 1 {
		t.Fatalf("failed layer should fall through, got %v %v", bank, err)
	}
	if _, err := down.Questions(context.Background(), "cave-diving"); err == nil {
		t.Fatalf("error should surface when no layer has the bank")
	}
}
