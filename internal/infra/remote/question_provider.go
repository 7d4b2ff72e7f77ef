package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"diver-exam-service/internal/domain"
)

const maxBodyBytes = 8 << 20

// QuestionProvider fetches a question bank from GET {base}/api/exams/{id}/questions.
// Any failure (transport error, non-200, malformed body) is logged and yields an
// empty bank; it never returns an error.
type QuestionProvider struct {
	baseURL string
	client  *http.Client
}

func NewQuestionProvider(baseURL string, client *http.Client) *QuestionProvider {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &QuestionProvider{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type questionsResponse struct {
	Questions []domain.Question `json:"questions"`
}

func (p *QuestionProvider) Questions(ctx context.Context, examID string) ([]domain.Question, error) {
	bank, err := p.fetch(ctx, examID)
	if err != nil {
		slog.Warn("question provider fetch failed", "exam", examID, "error", err)
		return []domain.Question{}, nil
	}
	return bank, nil
}

func (p *QuestionProvider) fetch(ctx context.Context, examID string) ([]domain.Question, error) {
	endpoint := p.baseURL + "/api/exams/" + url.PathEscape(examID) + "/questions"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body questionsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if body.Questions == nil {
		return []domain.Question{}, nil
	}
	return body.Questions, nil
}
