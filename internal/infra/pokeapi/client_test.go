package pokeapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dex-quiz-service/internal/domain"
)

func TestClientFetchRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pokemon/25" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":25,"name":"pikachu","sprites":{"front_default":"https://img/25.png"}}`))
	}))
	defer srv.Close()

	c := NewClientWithURL(srv.URL, time.Second, nil)
	rec, err := c.FetchRecord(context.Background(), 25)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if rec.ID != 25 || rec.Name != "pikachu" || rec.Sprite != "https://img/25.png" {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestClientFallsBackToArtwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":1000,"name":"gholdengo","sprites":{"front_default":null,"other":{"official-artwork":{"front_default":"https://art/1000.png"}}}}`))
	}))
	defer srv.Close()

	rec, err := NewClientWithURL(srv.URL+"/", time.Second, nil).FetchRecord(context.Background(), 1000)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if rec.Sprite != "https://art/1000.png" {
		t.Fatalf("expected artwork fallback, got %q", rec.Sprite)
	}
}

func TestClientStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/pokemon/404" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClientWithURL(srv.URL, time.Second, nil)
	if _, err := c.FetchRecord(context.Background(), 404); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if _, err := c.FetchRecord(context.Background(), 1); err == nil {
		t.Fatalf("expected error on 503")
	}
}

func TestClientRejectsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":`))
	}))
	defer srv.Close()

	if _, err := NewClientWithURL(srv.URL, time.Second, nil).FetchRecord(context.Background(), 1); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestClientCoalescesConcurrentRequests(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		w.Write([]byte(`{"id":4,"name":"charmander","sprites":{}}`))
	}))
	defer srv.Close()

	c := NewClientWithURL(srv.URL, 5*time.Second, nil)
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.FetchRecord(context.Background(), 4); err != nil {
				t.Errorf("fetch: %v", err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected 1 upstream request, got %d", got)
	}
}

func TestClientSharedRequestSurvivesCancelledCaller(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"id":5,"name":"charmeleon","sprites":{}}`))
	}))
	defer srv.Close()

	c := NewClientWithURL(srv.URL, 5*time.Second, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.FetchRecord(ctx, 5)
		firstErr <- err
	}()
	time.Sleep(10 * time.Millisecond)

	rec, err := c.FetchRecord(context.Background(), 5)
	if err != nil {
		t.Fatalf("live caller failed: %v", err)
	}
	if rec.Name != "charmeleon" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if err := <-firstErr; !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected cancelled caller to see deadline exceeded, got %v", err)
	}
}
