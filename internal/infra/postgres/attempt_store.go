package postgres

import (
	"context"
	"fmt"
	"time"

	"diver-exam-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
)

// AttemptStore persists finished exam attempts.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) Record(ctx context.Context, rec domain.AttemptRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = time.Now().UTC()
	}
	answers := rec.Answers
	if answers == "" {
		answers = "{}"
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO exam_attempts
		   (id, user_id, exam_slug, score, total_questions, percentage, passed, passing_score, answers, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10)`,
		rec.ID, rec.UserID, rec.ExamSlug, rec.Score, rec.TotalQuestions, rec.Percentage,
		rec.Passed, rec.PassingScore, answers, rec.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert exam attempt: %w", err)
	}
	return nil
}

// List returns the attempts of one user, newest first, or all attempts when userID is empty.
func (s *AttemptStore) List(ctx context.Context, userID string) ([]domain.AttemptRecord, error) {
	query := `SELECT id::text, user_id, exam_slug, score, total_questions, percentage, passed, passing_score, answers::text, submitted_at
	          FROM exam_attempts`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = $1`
		args = append(args, userID)
	}
	query += ` ORDER BY submitted_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list exam attempts: %w", err)
	}
	defer rows.Close()

	var out []domain.AttemptRecord
	for rows.Next() {
		var rec domain.AttemptRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.ExamSlug, &rec.Score, &rec.TotalQuestions,
			&rec.Percentage, &rec.Passed, &rec.PassingScore, &rec.Answers, &rec.SubmittedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
