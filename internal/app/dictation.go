package app

// Transcript is one speech-recognition result. Only final segments are kept.
type Transcript struct {
	Text  string
	Final bool
}

// Dictation is the optional speech-to-text capability of the learner's device.
type Dictation interface {
	// Supported probes whether the host can recognise speech at all.
	Supported() bool
	// Start begins capture; onResult may be called from any goroutine until Stop.
	Start(onResult func(Transcript)) error
	Stop()
}

// UnsupportedDictation is used when the host has no speech recognition.
type UnsupportedDictation struct{}

func (UnsupportedDictation) Supported() bool              { return false }
func (UnsupportedDictation) Start(func(Transcript)) error { return nil }
func (UnsupportedDictation) Stop()                        {}
