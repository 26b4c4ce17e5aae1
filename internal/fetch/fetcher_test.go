package fetch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dex-quiz-service/internal/domain"
)

type stubSource struct {
	mu       sync.Mutex
	calls    map[int]int
	failFor  map[int]int // id -> number of leading failures; -1 fails forever
	inFlight int
	peak     int
}

func newStubSource() *stubSource {
	return &stubSource{calls: make(map[int]int), failFor: make(map[int]int)}
}

func (s *stubSource) FetchRecord(_ context.Context, id int) (domain.Record, error) {
	s.mu.Lock()
	s.calls[id]++
	n := s.calls[id]
	fails := s.failFor[id]
	s.inFlight++
	if s.inFlight > s.peak {
		s.peak = s.inFlight
	}
	s.mu.Unlock()

	time.Sleep(time.Millisecond)

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()

	if fails < 0 || n <= fails {
		return domain.Record{}, errors.New("catalog unavailable")
	}
	return domain.Record{ID: id, Name: "name-" + string(rune('a'+id%26))}, nil
}

type sleepRecorder struct {
	mu    sync.Mutex
	slept []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.slept = append(r.slept, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *sleepRecorder) count(d time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.slept {
		if s == d {
			n++
		}
	}
	return n
}

type countingObserver struct {
	mu           sync.Mutex
	attempts     int
	failures     int
	placeholders int
}

func (o *countingObserver) FetchAttempt(ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts++
	if !ok {
		o.failures++
	}
}

func (o *countingObserver) PlaceholderUsed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.placeholders++
}

func newTestFetcher(src Source, obs Observer) (*Fetcher, *sleepRecorder) {
	f := NewFetcher(src, DefaultOptions(), nil, obs)
	rec := &sleepRecorder{}
	f.sleep = rec.sleep
	return f, rec
}

func TestFetchOneFallsBackAfterThreeAttempts(t *testing.T) {
	src := newStubSource()
	src.failFor[7] = -1
	obs := &countingObserver{}
	f, sleeps := newTestFetcher(src, obs)

	rec := f.FetchOne(context.Background(), 7)

	if src.calls[7] != 3 {
		t.Fatalf("expected 3 attempts, got %d", src.calls[7])
	}
	if got := sleeps.count(time.Second); got != 2 || len(sleeps.slept) != 2 {
		t.Fatalf("expected two 1s waits, got %v", sleeps.slept)
	}
	if rec.ID != 7 || rec.Name != "pokemon-7" || !rec.Placeholder {
		t.Fatalf("unexpected placeholder %+v", rec)
	}
	if rec.Sprite != "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/7.png" {
		t.Fatalf("unexpected placeholder sprite %q", rec.Sprite)
	}
	if obs.failures != 3 || obs.placeholders != 1 {
		t.Fatalf("unexpected observer counts %+v", obs)
	}
	if again := f.FetchOne(context.Background(), 7); again != rec {
		t.Fatalf("placeholder should be deterministic: %+v vs %+v", again, rec)
	}
}

func TestFetchOneRecoversOnRetry(t *testing.T) {
	src := newStubSource()
	src.failFor[3] = 2
	f, sleeps := newTestFetcher(src, nil)

	rec := f.FetchOne(context.Background(), 3)
	if rec.Placeholder || rec.ID != 3 {
		t.Fatalf("expected real record, got %+v", rec)
	}
	if src.calls[3] != 3 || len(sleeps.slept) != 2 {
		t.Fatalf("expected 3 calls and 2 waits, got %d and %v", src.calls[3], sleeps.slept)
	}
}

func TestFetchAllSingleWaveKeepsOrder(t *testing.T) {
	src := newStubSource()
	src.failFor[2] = -1
	f, sleeps := newTestFetcher(src, nil)

	var updates []domain.BatchProgress
	ids := []int{5, 2, 9}
	recs, err := f.FetchAll(context.Background(), ids, func(p domain.BatchProgress) { updates = append(updates, p) })
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	for i, id := range ids {
		if recs[i].ID != id {
			t.Fatalf("recs[%d].ID = %d, want %d", i, recs[i].ID, id)
		}
	}
	if !recs[1].Placeholder {
		t.Fatalf("expected placeholder for id 2")
	}
	if sleeps.count(100*time.Millisecond) != 0 {
		t.Fatalf("single wave must not wait between batches: %v", sleeps.slept)
	}
	if len(updates) != 1 || updates[0].Batches != 1 || updates[0].Loaded != 3 {
		t.Fatalf("unexpected progress %+v", updates)
	}
}

func TestFetchAllBatchesLargeRequests(t *testing.T) {
	src := newStubSource()
	f, sleeps := newTestFetcher(src, nil)

	ids := make([]int, 120)
	for i := range ids {
		ids[i] = i + 1
	}
	var updates []domain.BatchProgress
	recs, err := f.FetchAll(context.Background(), ids, func(p domain.BatchProgress) { updates = append(updates, p) })
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if len(recs) != len(ids) {
		t.Fatalf("expected %d records, got %d", len(ids), len(recs))
	}
	for i, rec := range recs {
		if rec.ID != ids[i] {
			t.Fatalf("recs[%d].ID = %d, want %d", i, rec.ID, ids[i])
		}
	}
	if len(updates) != 3 {
		t.Fatalf("expected 3 batches, got %+v", updates)
	}
	if last := updates[2]; last.Batch != 3 || last.Batches != 3 || last.Loaded != 120 || last.Requested != 120 {
		t.Fatalf("unexpected final progress %+v", last)
	}
	if got := sleeps.count(100 * time.Millisecond); got != 2 {
		t.Fatalf("expected 2 inter-batch waits, got %d", got)
	}
	if src.peak > 50 {
		t.Fatalf("batch concurrency exceeded batch size: %d", src.peak)
	}
}

func TestFetchAllFailsWhenContextEnds(t *testing.T) {
	src := newStubSource()
	f, _ := newTestFetcher(src, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ids := make([]int, 60)
	for i := range ids {
		ids[i] = i + 1
	}
	if _, err := f.FetchAll(ctx, ids, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFetchAllCancelledWaveSkipsSource(t *testing.T) {
	src := newStubSource()
	f, _ := newTestFetcher(src, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.FetchAll(ctx, []int{1, 2, 3}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	if len(src.calls) != 0 {
		t.Fatalf("expected no source calls after cancellation, got %v", src.calls)
	}
}

func TestFetchAllEmpty(t *testing.T) {
	f, _ := newTestFetcher(newStubSource(), nil)
	recs, err := f.FetchAll(context.Background(), nil, nil)
	if err != nil || len(recs) != 0 {
		t.Fatalf("expected empty result, got %v %v", recs, err)
	}
}
