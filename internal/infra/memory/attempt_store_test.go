package memory

import (
	"context"
	"testing"

	"diver-exam-service/internal/domain"
)

func TestAttemptStoreFiltersByUser(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()

	_ = store.Record(ctx, domain.AttemptRecord{UserID: "u1", ExamSlug: "alst", Percentage: 80, Passed: true})
	_ = store.Record(ctx, domain.AttemptRecord{UserID: "u2", ExamSlug: "lst", Percentage: 40})
	_ = store.Record(ctx, domain.AttemptRecord{UserID: "u1", ExamSlug: "lst", Percentage: 90, Passed: true})

	mine, err := store.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 2 || mine[0].ExamSlug != "alst" || mine[1].ExamSlug != "lst" {
		t.Fatalf("unexpected attempts %+v", mine)
	}

	all, _ := store.List(ctx, "")
	if len(all) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(all))
	}
}
