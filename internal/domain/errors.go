package domain

import "errors"

var (
	// ErrExamNotFound is returned when an exam identifier resolves to zero questions.
	ErrExamNotFound = errors.New("exam not found")
	// ErrSessionNotFound is returned when an exam session id is unknown.
	ErrSessionNotFound = errors.New("exam session not found")
	// ErrSessionSubmitted is returned for mutations attempted after submission.
	ErrSessionSubmitted = errors.New("exam session already submitted")
	// ErrSessionNotRunning is returned when a timer is started twice.
	ErrSessionNotRunning = errors.New("exam session not idle")
	// ErrDictationUnsupported indicates the host has no speech recognition.
	ErrDictationUnsupported = errors.New("voice dictation is not supported on this device")
	// ErrDictationNotWritten indicates dictation was requested on a non-written question.
	ErrDictationNotWritten = errors.New("voice dictation is only available for written questions")
	// ErrInvalidMode indicates an unknown exam mode string.
	ErrInvalidMode = errors.New("invalid exam mode")
)
