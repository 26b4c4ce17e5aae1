package redis

import (
	"context"
	"testing"
	"time"

	"dex-quiz-service/internal/app"
	"dex-quiz-service/internal/domain"
	"dex-quiz-service/internal/region"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreTracksAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	store.Put(app.NewSession("s1", region.Default(), nil))
	store.Track("s1", domain.SessionStatus{Region: "kanto", State: domain.StateReady, Progress: domain.NewProgress(3, 151)})

	if !mr.Exists("quiz:session:s1") {
		t.Fatalf("expected redis key to be set")
	}
	if got := mr.HGet("quiz:session:s1", "score"); got != "3" {
		t.Fatalf("expected score 3, got %q", got)
	}
	if ttl := mr.TTL("quiz:session:s1"); ttl != time.Minute {
		t.Fatalf("expected 1m ttl, got %v", ttl)
	}

	status, ok, err := store.Status(context.Background(), "s1")
	if err != nil || !ok {
		t.Fatalf("status: ok=%v err=%v", ok, err)
	}
	if status.Region != "kanto" || status.State != domain.StateReady || status.Progress.Total != 151 {
		t.Fatalf("unexpected status %+v", status)
	}

	store.Delete("s1")
	if mr.Exists("quiz:session:s1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestSessionStoreIgnoresUnknownSessions(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	store.Track("ghost", domain.SessionStatus{Region: "kanto"})
	if mr.Exists("quiz:session:ghost") {
		t.Fatalf("tracking an unknown session must not write to redis")
	}
}
