package redis

import (
	"context"
	"strings"
	"testing"
	"time"

	"diver-exam-service/internal/app"
	"diver-exam-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	session := app.NewSession("s-1", "u1", app.ResolveExamConfig("lst", domain.ModeSpacedRepetition), sampleBank(), nil, nil)
	store.Save(session)
	if !mr.Exists("exam:session:s-1") {
		t.Fatalf("expected redis key to be set")
	}
	if got := mr.HGet("exam:session:s-1", "exam"); got != "lst" {
		t.Fatalf("expected exam marker lst, got %q", got)
	}
	// lst spaced repetition runs 1500s; the marker must outlive it.
	if ttl := mr.TTL("exam:session:s-1"); ttl < 1500*time.Second {
		t.Fatalf("expected marker ttl beyond the countdown, got %v", ttl)
	}

	active, err := store.Active(context.Background())
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if active != 1 {
		t.Fatalf("expected 1 active session, got %d", active)
	}

	if got, ok := store.Get("s-1"); !ok || got != session {
		t.Fatalf("expected local session")
	}

	store.Delete("s-1")
	if mr.Exists("exam:session:s-1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("s-1"); ok {
		t.Fatalf("expected local session removed")
	}
}

func TestSessionStoreLogsMarkerFailures(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	defer client.Close()
	store := NewSessionStore(client, time.Minute)
	logs := captureLogs(t)
	mr.Close()

	session := app.NewSession("s-9", "u1", app.ResolveExamConfig("lst", domain.ModeFull), sampleBank(), nil, nil)
	store.Save(session)
	if _, ok := store.Get("s-9"); !ok {
		t.Fatalf("session must stay usable when redis is down")
	}
	if out := logs.String(); !strings.Contains(out, "write session marker") || !strings.Contains(out, "session=s-9") {
		t.Fatalf("expected marker write failure to be logged, got %q", out)
	}

	store.Delete("s-9")
	if _, ok := store.Get("s-9"); ok {
		t.Fatalf("expected local session removed")
	}
	if out := logs.String(); !strings.Contains(out, "clear session marker") {
		t.Fatalf("expected marker delete failure to be logged, got %q", out)
	}
}
