package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"diver-exam-service/internal/domain"
)

func TestQuestionProviderFetchesBank(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/exams/ndt-inspection/questions" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"questions": []domain.Question{
				{ID: "ndt-1", Kind: domain.KindTrueFalse, Options: []string{"True", "False"}, CorrectAnswer: "True", Points: 1, Sequence: 1},
				{ID: "ndt-2", Kind: domain.KindWritten, Points: 2, Sequence: 2},
			},
		})
	}))
	defer server.Close()

	provider := NewQuestionProvider(server.URL+"/", server.Client())
	bank, err := provider.Questions(context.Background(), "ndt-inspection")
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(bank) != 2 || bank[0].ID != "ndt-1" || bank[1].Kind != domain.KindWritten {
		t.Fatalf("unexpected bank %+v", bank)
	}
}

func TestQuestionProviderFailuresYieldEmptyBank(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"questions": [`))
		}},
		{"missing questions", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			bank, err := NewQuestionProvider(server.URL, server.Client()).Questions(context.Background(), "ndt-inspection")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if bank == nil || len(bank) != 0 {
				t.Fatalf("expected empty bank, got %+v", bank)
			}
		})
	}
}

func TestQuestionProviderUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	bank, err := NewQuestionProvider(url, nil).Questions(context.Background(), "ndt-inspection")
	if err != nil || len(bank) != 0 {
		t.Fatalf("expected empty bank without error, got %v %v", bank, err)
	}
}

func TestAttemptSinkPostsPayload(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/exam-attempts" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	sink := NewAttemptSink(server.URL, server.Client())
	err := sink.Record(context.Background(), domain.AttemptRecord{
		UserID:         "u1",
		ExamSlug:       "alst",
		Score:          4,
		TotalQuestions: 5,
		Percentage:     80,
		Passed:         true,
		PassingScore:   80,
		Answers:        `{"alst-001":"0.4-0.5 bar"}`,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	if got["examSlug"] != "alst" || got["passingScore"] != float64(80) || got["passed"] != true {
		t.Fatalf("unexpected payload %+v", got)
	}
	answers, ok := got["answers"].(string)
	if !ok {
		t.Fatalf("answers must be a JSON-encoded string, got %T", got["answers"])
	}
	var decoded map[string]string
	if err := json.Unmarshal([]byte(answers), &decoded); err != nil || decoded["alst-001"] != "0.4-0.5 bar" {
		t.Fatalf("unexpected answers %q", answers)
	}
}

func TestAttemptSinkReportsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	err := NewAttemptSink(server.URL, server.Client()).Record(context.Background(), domain.AttemptRecord{UserID: "u1"})
	if err == nil {
		t.Fatalf("expected error on 503")
	}
}
