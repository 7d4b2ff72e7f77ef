package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"diver-exam-service/internal/domain"
)

// AttemptSink posts finished attempts to {base}/api/exam-attempts.
type AttemptSink struct {
	baseURL string
	client  *http.Client
}

func NewAttemptSink(baseURL string, client *http.Client) *AttemptSink {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &AttemptSink{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// attemptPayload is the wire body; answers travels as a JSON-encoded string.
type attemptPayload struct {
	UserID         string `json:"userId"`
	ExamSlug       string `json:"examSlug"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
	Percentage     int    `json:"percentage"`
	Passed         bool   `json:"passed"`
	PassingScore   int    `json:"passingScore"`
	Answers        string `json:"answers"`
}

func (s *AttemptSink) Record(ctx context.Context, rec domain.AttemptRecord) error {
	body, err := json.Marshal(attemptPayload{
		UserID:         rec.UserID,
		ExamSlug:       rec.ExamSlug,
		Score:          rec.Score,
		TotalQuestions: rec.TotalQuestions,
		Percentage:     rec.Percentage,
		Passed:         rec.Passed,
		PassingScore:   rec.PassingScore,
		Answers:        rec.Answers,
	})
	if err != nil {
		return fmt.Errorf("encode attempt: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/exam-attempts", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post attempt: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post attempt: unexpected status %d", resp.StatusCode)
	}
	return nil
}
