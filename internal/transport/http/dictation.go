package http

import (
	"sync"

	"diver-exam-service/internal/app"
)

// clientDictation bridges speech recognition running on the learner's device:
// the client reports whether it can recognise speech and streams transcripts
// back over the socket.
type clientDictation struct {
	supported bool

	mu       sync.Mutex
	onResult func(app.Transcript)
}

func newClientDictation(supported bool) *clientDictation {
	return &clientDictation{supported: supported}
}

func (d *clientDictation) Supported() bool { return d.supported }

func (d *clientDictation) Start(onResult func(app.Transcript)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onResult = onResult
	return nil
}

func (d *clientDictation) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onResult = nil
}

func (d *clientDictation) deliver(t app.Transcript) {
	d.mu.Lock()
	cb := d.onResult
	d.mu.Unlock()
	if cb != nil {
		cb(t)
	}
}
