package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"diver-exam-service/internal/app"
	"diver-exam-service/internal/domain"
)

// manualClock hands out tickers that only fire when the test says so.
type manualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) NewTicker(time.Duration) app.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *manualClock) ticker(i int) *manualTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickers[i]
}

type manualTicker struct {
	ch       chan time.Time
	stopOnce sync.Once
	stopped  chan struct{}
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               { t.stopOnce.Do(func() { close(t.stopped) }) }

// fire delivers one tick; it reports false if the session stopped listening.
func (t *manualTicker) fire() bool {
	select {
	case t.ch <- time.Now():
		return true
	case <-t.stopped:
		return false
	case <-time.After(time.Second):
		return false
	}
}

type recordingSink struct {
	mu      sync.Mutex
	records []domain.AttemptRecord
	err     error
}

func (s *recordingSink) Record(_ context.Context, rec domain.AttemptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return s.err
}

func (s *recordingSink) all() []domain.AttemptRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AttemptRecord(nil), s.records...)
}

var errSinkDown = errors.New("connection refused")

type fakeDictation struct {
	supported bool
	mu        sync.Mutex
	onResult  func(app.Transcript)
	stopped   int
}

func (d *fakeDictation) Supported() bool { return d.supported }

func (d *fakeDictation) Start(onResult func(app.Transcript)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onResult = onResult
	return nil
}

func (d *fakeDictation) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped++
}

func (d *fakeDictation) say(text string, final bool) {
	d.mu.Lock()
	cb := d.onResult
	d.mu.Unlock()
	cb(app.Transcript{Text: text, Final: final})
}

func waitForState(t *testing.T, updates <-chan domain.SessionSnapshot, want domain.SessionState) domain.SessionSnapshot {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case snap := <-updates:
			if snap.State == want {
				return snap
			}
		case <-timeout:
			t.Fatalf("timed out waiting for state %s", want)
			return domain.SessionSnapshot{}
		}
	}
}
