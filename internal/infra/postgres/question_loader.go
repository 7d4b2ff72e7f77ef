package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"diver-exam-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionLoader loads question banks stored as a JSONB array per exam.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

// Questions returns the bank in stored order; a missing row is an empty bank.
func (l *QuestionLoader) Questions(ctx context.Context, examID string) ([]domain.Question, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM question_banks WHERE exam_id=$1`, examID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return []domain.Question{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	var bank []domain.Question
	if err := json.Unmarshal(raw, &bank); err != nil {
		return nil, fmt.Errorf("unmarshal question bank: %w", err)
	}
	return bank, nil
}

// SaveBank replaces the stored bank of an exam.
func (l *QuestionLoader) SaveBank(ctx context.Context, examID string, bank []domain.Question) error {
	data, err := json.Marshal(bank)
	if err != nil {
		return fmt.Errorf("marshal question bank: %w", err)
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO question_banks (exam_id, data, updated_at) VALUES ($1, $2::jsonb, now())
		 ON CONFLICT (exam_id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		examID, string(data))
	if err != nil {
		return fmt.Errorf("save question bank: %w", err)
	}
	return nil
}
