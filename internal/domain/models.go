package domain

import (
	"strings"
	"time"
)

// QuestionKind tells the engine how a question is answered and whether it can be auto-graded.
type QuestionKind string

const (
	KindMultipleChoice QuestionKind = "multiple_choice"
	KindWritten        QuestionKind = "written"
	KindTrueFalse      QuestionKind = "true_false"
)

// Mode selects between the complete bank and the fixed-size review set.
type Mode string

const (
	ModeFull             Mode = "full"
	ModeSpacedRepetition Mode = "spaced_repetition"
)

// ParseMode accepts the wire names plus a few aliases used by older clients.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "full":
		return ModeFull, nil
	case "spaced_repetition", "spaced-repetition", "srs":
		return ModeSpacedRepetition, nil
	}
	return "", ErrInvalidMode
}

// Question is one assessable item of a question bank.
type Question struct {
	ID            string       `json:"id" yaml:"id"`
	Kind          QuestionKind `json:"kind" yaml:"kind"`
	Prompt        string       `json:"prompt" yaml:"prompt"`
	Options       []string     `json:"options,omitempty" yaml:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer,omitempty" yaml:"correct_answer,omitempty"`
	Explanation   string       `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Points        int          `json:"points" yaml:"points"`
	Sequence      int          `json:"sequence" yaml:"sequence"`
}

// Gradable reports whether the question takes part in auto-grading.
func (q Question) Gradable() bool {
	return q.Kind != KindWritten && q.CorrectAnswer != ""
}

// View strips the answer key so the question can be shown while the exam runs.
func (q Question) View() QuestionView {
	return QuestionView{
		ID:       q.ID,
		Kind:     q.Kind,
		Prompt:   q.Prompt,
		Options:  q.Options,
		Points:   q.Points,
		Sequence: q.Sequence,
	}
}

// QuestionView is the learner-facing projection of a Question.
type QuestionView struct {
	ID       string       `json:"id"`
	Kind     QuestionKind `json:"kind"`
	Prompt   string       `json:"prompt"`
	Options  []string     `json:"options,omitempty"`
	Points   int          `json:"points"`
	Sequence int          `json:"sequence"`
}

// ComponentRule is an advisory per-component threshold. The engine never enforces it.
type ComponentRule struct {
	Name          string `json:"name"`
	MinPercentage int    `json:"minPercentage"`
	Enforced      bool   `json:"enforced"`
}

// ExamConfig is derived from (exam identifier, mode); it is never stored.
type ExamConfig struct {
	ExamID            string          `json:"examId"`
	Mode              Mode            `json:"mode"`
	Title             string          `json:"title"`
	TimeLimitSeconds  int             `json:"timeLimitSeconds"`
	PassingPercentage int             `json:"passingPercentage"`
	Components        []ComponentRule `json:"components,omitempty"`
}

// QuestionResult is the per-question review line shown after grading.
type QuestionResult struct {
	QuestionID    string `json:"questionId"`
	Gradable      bool   `json:"gradable"`
	Correct       bool   `json:"correct"`
	Answer        string `json:"answer,omitempty"`
	CorrectAnswer string `json:"correctAnswer,omitempty"`
	Explanation   string `json:"explanation,omitempty"`
}

// AttemptSummary is the graded outcome of a submitted session.
type AttemptSummary struct {
	ExamID            string            `json:"examIdentifier"`
	Score             int               `json:"score"`
	TotalQuestions    int               `json:"totalQuestions"`
	Percentage        int               `json:"percentage"`
	Passed            bool              `json:"passed"`
	PassingPercentage int               `json:"passingPercentage"`
	RawAnswers        map[string]string `json:"rawAnswers"`
	Results           []QuestionResult  `json:"results,omitempty"`
}

// AttemptRecord is what the attempt sink persists. Answers holds the JSON-encoded answer map.
type AttemptRecord struct {
	ID             string    `json:"id,omitempty"`
	UserID         string    `json:"userId"`
	ExamSlug       string    `json:"examSlug"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	Percentage     int       `json:"percentage"`
	Passed         bool      `json:"passed"`
	PassingScore   int       `json:"passingScore"`
	Answers        string    `json:"answers"`
	SubmittedAt    time.Time `json:"submittedAt,omitempty"`
}

// SessionState is the timer state of an exam session.
type SessionState string

const (
	StateIdle      SessionState = "idle"
	StateRunning   SessionState = "running"
	StateExpired   SessionState = "expired"
	StateSubmitted SessionState = "submitted"
)

// SessionSnapshot is the client-facing view of a session, broadcast on every change.
type SessionSnapshot struct {
	SessionID        string          `json:"sessionId"`
	ExamID           string          `json:"examId"`
	Mode             Mode            `json:"mode"`
	Title            string          `json:"title"`
	State            SessionState    `json:"state"`
	CurrentIndex     int             `json:"currentIndex"`
	TotalQuestions   int             `json:"totalQuestions"`
	Current          *QuestionView   `json:"current,omitempty"`
	CurrentAnswer    string          `json:"currentAnswer"`
	Answered         int             `json:"answered"`
	RemainingSeconds int             `json:"remainingSeconds"`
	RecordingVoice   bool            `json:"recordingVoice"`
	Summary          *AttemptSummary `json:"summary,omitempty"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}
