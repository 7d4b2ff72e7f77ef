package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"diver-exam-service/internal/app"
	"diver-exam-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// AttemptStore is the server side of the attempt sink.
type AttemptStore interface {
	Record(ctx context.Context, rec domain.AttemptRecord) error
	List(ctx context.Context, userID string) ([]domain.AttemptRecord, error)
}

// ExamCatalog lists the exams this deployment has a bank for.
type ExamCatalog interface {
	ExamIDs() []string
}

// API serves question banks, exam configuration and attempt records over REST.
type API struct {
	questions app.QuestionProvider
	attempts  AttemptStore
	catalog   ExamCatalog
	now       func() time.Time
}

// NewAPI builds the REST surface. catalog may be nil, in which case no exams are listed.
func NewAPI(questions app.QuestionProvider, attempts AttemptStore, catalog ExamCatalog) *API {
	return &API{questions: questions, attempts: attempts, catalog: catalog, now: time.Now}
}

// Router builds the chi router, mounting the websocket handler when given.
func (a *API) Router(ws *WSHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if ws != nil {
		r.Get("/ws", ws.ServeWS)
	}
	a.Routes(r)
	return r
}

// Routes registers the REST endpoints.
func (a *API) Routes(r chi.Router) {
	r.Get("/api/exams", a.handleExams)
	r.Get("/api/exams/{identifier}/questions", a.handleQuestions)
	r.Get("/api/exams/{identifier}/config", a.handleConfig)
	r.Post("/api/exam-attempts", a.handleRecordAttempt)
	r.Get("/api/exam-attempts", a.handleListAttempts)
}

type examEntry struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
}

type examsResponse struct {
	Exams []examEntry `json:"exams"`
}

func (a *API) handleExams(w http.ResponseWriter, r *http.Request) {
	resp := examsResponse{Exams: []examEntry{}}
	if a.catalog != nil {
		for _, id := range a.catalog.ExamIDs() {
			resp.Exams = append(resp.Exams, examEntry{Identifier: id, Title: app.ResolveTitle(id)})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type questionsResponse struct {
	Questions []domain.Question `json:"questions"`
}

func (a *API) handleQuestions(w http.ResponseWriter, r *http.Request) {
	examID := chi.URLParam(r, "identifier")
	bank, err := a.questions.Questions(r.Context(), examID)
	if err != nil {
		slog.Warn("load question bank", "exam", examID, "error", err, "request", middleware.GetReqID(r.Context()))
		writeError(w, http.StatusBadGateway, "question bank unavailable")
		return
	}
	if len(bank) == 0 {
		writeJSON(w, http.StatusNotFound, questionsResponse{Questions: []domain.Question{}})
		return
	}
	writeJSON(w, http.StatusOK, questionsResponse{Questions: bank})
}

func (a *API) handleConfig(w http.ResponseWriter, r *http.Request) {
	mode, err := domain.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, app.ResolveExamConfig(chi.URLParam(r, "identifier"), mode))
}

type attemptRequest struct {
	UserID         string `json:"userId"`
	ExamSlug       string `json:"examSlug"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
	Percentage     int    `json:"percentage"`
	Passed         bool   `json:"passed"`
	PassingScore   int    `json:"passingScore"`
	Answers        string `json:"answers"`
}

type attemptCreated struct {
	ID string `json:"id"`
}

func (a *API) handleRecordAttempt(w http.ResponseWriter, r *http.Request) {
	var req attemptRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid attempt payload")
		return
	}
	if req.ExamSlug == "" {
		writeError(w, http.StatusBadRequest, "examSlug is required")
		return
	}
	if req.Answers == "" {
		req.Answers = "{}"
	}
	if !json.Valid([]byte(req.Answers)) {
		writeError(w, http.StatusBadRequest, "answers must be a JSON-encoded string")
		return
	}

	rec := domain.AttemptRecord{
		ID:             uuid.NewString(),
		UserID:         req.UserID,
		ExamSlug:       req.ExamSlug,
		Score:          req.Score,
		TotalQuestions: req.TotalQuestions,
		Percentage:     req.Percentage,
		Passed:         req.Passed,
		PassingScore:   req.PassingScore,
		Answers:        req.Answers,
		SubmittedAt:    a.now().UTC(),
	}
	if err := a.attempts.Record(r.Context(), rec); err != nil {
		slog.Error("record attempt", "exam", rec.ExamSlug, "error", err, "request", middleware.GetReqID(r.Context()))
		writeError(w, http.StatusInternalServerError, "could not record attempt")
		return
	}
	writeJSON(w, http.StatusCreated, attemptCreated{ID: rec.ID})
}

type attemptsResponse struct {
	Attempts []domain.AttemptRecord `json:"attempts"`
}

func (a *API) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	records, err := a.attempts.List(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		slog.Error("list attempts", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list attempts")
		return
	}
	if records == nil {
		records = []domain.AttemptRecord{}
	}
	writeJSON(w, http.StatusOK, attemptsResponse{Attempts: records})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorPayload{Message: msg})
}
