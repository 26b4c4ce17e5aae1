package memory

import (
	"testing"

	"dex-quiz-service/internal/app"
	"dex-quiz-service/internal/domain"
	"dex-quiz-service/internal/region"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	session := app.NewSession("s1", region.Default(), nil)
	store.Put(session)
	if got, ok := store.Get("s1"); !ok || got != session {
		t.Fatalf("expected session present")
	}

	store.Track("s1", domain.SessionStatus{Region: "kanto", State: domain.StateReady, Progress: domain.NewProgress(1, 151)})
	status, ok := store.Status("s1")
	if !ok || status.Region != "kanto" || status.Progress.Score != 1 {
		t.Fatalf("unexpected status %+v", status)
	}

	store.Delete("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session removed")
	}
	if _, ok := store.Status("s1"); ok {
		t.Fatalf("expected status removed")
	}

	store.Track("s1", domain.SessionStatus{})
	if _, ok := store.Status("s1"); ok || store.Len() != 0 {
		t.Fatalf("tracking an unknown session must not resurrect it")
	}
}
