package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dex-quiz-service/internal/domain"
	"dex-quiz-service/internal/naming"
)

// failedLoadMessage is what the page shows when a region could not be loaded.
const failedLoadMessage = "failed to load, please retry"

type slot struct {
	record     domain.Record
	guessed    bool
	scoredOnce bool
}

// Session is one quiz page: the records of the selected region, which of them
// have been named and the running score.
type Session struct {
	id      string
	regions RegionCatalog
	fetcher RecordFetcher
	now     func() time.Time

	mu          sync.Mutex
	state       domain.SessionState
	region      domain.Region
	slots       []slot
	score       int
	generation  uint64
	completed   bool
	closed      bool
	cancelLoad  context.CancelFunc
	subscribers map[chan domain.Event]struct{}
}

// NewSession creates an idle session.
func NewSession(id string, regions RegionCatalog, fetcher RecordFetcher) *Session {
	return NewSessionWithClock(id, regions, fetcher, time.Now)
}

// NewSessionWithClock is NewSession with a fixed clock for tests.
func NewSessionWithClock(id string, regions RegionCatalog, fetcher RecordFetcher, now func() time.Time) *Session {
	return &Session{
		id:          id,
		regions:     regions,
		fetcher:     fetcher,
		now:         now,
		state:       domain.StateIdle,
		subscribers: make(map[chan domain.Event]struct{}),
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// SelectRegion discards the current slots and loads key's records. It blocks
// until the load finishes. A load overtaken by a newer SelectRegion or Reset
// is cancelled and returns domain.ErrStaleLoad without touching the session.
func (s *Session) SelectRegion(ctx context.Context, key string) (domain.Snapshot, error) {
	region, ok := s.regions.Lookup(key)
	if !ok {
		return domain.Snapshot{}, fmt.Errorf("%w: %q", domain.ErrUnknownRegion, key)
	}
	ids := s.regions.IDsFor(key)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.Snapshot{}, domain.ErrSessionClosed
	}
	if s.cancelLoad != nil {
		s.cancelLoad()
	}
	s.generation++
	gen := s.generation
	loadCtx, cancel := context.WithCancel(ctx)
	s.cancelLoad = cancel
	s.region = region
	s.slots = nil
	s.score = 0
	s.completed = false
	s.state = domain.StateLoading
	loading := s.snapshotLocked()
	s.broadcastLocked(domain.Event{Type: domain.EventLoading, Snapshot: &loading})
	s.mu.Unlock()
	defer cancel()

	records, err := s.fetcher.FetchAll(loadCtx, ids, func(p domain.BatchProgress) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.generation || s.closed {
			return
		}
		s.broadcastLocked(domain.Event{Type: domain.EventBatch, Batch: &p})
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.Snapshot{}, domain.ErrSessionClosed
	}
	if gen != s.generation {
		return domain.Snapshot{}, domain.ErrStaleLoad
	}
	s.cancelLoad = nil

	if err != nil {
		s.state = domain.StateError
		s.broadcastLocked(domain.Event{Type: domain.EventFailed, Message: failedLoadMessage})
		return s.snapshotLocked(), fmt.Errorf("load region %s: %w", key, err)
	}

	s.slots = make([]slot, len(records))
	for i, rec := range records {
		s.slots[i] = slot{record: rec}
	}
	s.state = domain.StateReady
	ready := s.snapshotLocked()
	s.broadcastLocked(domain.Event{Type: domain.EventReady, Snapshot: &ready})
	return ready, nil
}

// Reset reloads the current region, or returns to idle if none was selected.
func (s *Session) Reset(ctx context.Context) (domain.Snapshot, error) {
	s.mu.Lock()
	key := s.region.Key
	if key == "" {
		if s.cancelLoad != nil {
			s.cancelLoad()
			s.cancelLoad = nil
		}
		s.generation++
		s.state = domain.StateIdle
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	s.mu.Unlock()
	return s.SelectRegion(ctx, key)
}

// SubmitGuess judges text against the record in slotIndex. A correct guess
// locks the slot and scores it once; later guesses on it return
// domain.ErrSlotLocked.
func (s *Session) SubmitGuess(slotIndex int, text string) (domain.GuessResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateReady && s.state != domain.StateComplete {
		return domain.GuessResult{}, domain.ErrSessionNotReady
	}
	if slotIndex < 0 || slotIndex >= len(s.slots) {
		return domain.GuessResult{}, domain.ErrSlotOutOfRange
	}
	sl := &s.slots[slotIndex]
	if sl.guessed {
		return domain.GuessResult{}, domain.ErrSlotLocked
	}

	result := domain.GuessResult{
		Slot:    slotIndex,
		Verdict: naming.Judge(text, sl.record.Name),
	}
	if result.Verdict == domain.VerdictCorrect {
		sl.guessed = true
		result.Name = sl.record.Name
		if !sl.scoredOnce {
			sl.scoredOnce = true
			s.score++
			progress := s.progressLocked()
			s.broadcastLocked(domain.Event{Type: domain.EventScore, Progress: &progress})
		}
		s.checkCompleteLocked()
	}
	result.Progress = s.progressLocked()
	result.Complete = s.state == domain.StateComplete
	return result, nil
}

// Snapshot returns the current state.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Status returns the compact state kept by session stores.
func (s *Session) Status() domain.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.SessionStatus{
		Region:   s.region.Key,
		State:    s.state,
		Progress: s.progressLocked(),
	}
}

// Subscribe returns a channel of session events. The caller must invoke the
// returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 32)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Close cancels any load in flight and closes every subscription.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cancelLoad != nil {
		s.cancelLoad()
		s.cancelLoad = nil
	}
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) checkCompleteLocked() {
	total := len(s.slots)
	if total == 0 || s.score != total || s.completed {
		return
	}
	s.completed = true
	s.state = domain.StateComplete
	s.broadcastLocked(domain.Event{Type: domain.EventComplete, Completion: &domain.Completion{
		Region:     s.region.Key,
		RegionName: s.region.Name,
		Score:      s.score,
		Total:      total,
	}})
}

func (s *Session) progressLocked() domain.Progress {
	return domain.NewProgress(s.score, len(s.slots))
}

func (s *Session) snapshotLocked() domain.Snapshot {
	views := make([]domain.SlotView, len(s.slots))
	for i, sl := range s.slots {
		views[i] = domain.SlotView{
			Index:   i,
			ID:      sl.record.ID,
			Sprite:  sl.record.Sprite,
			Guessed: sl.guessed,
		}
		if sl.guessed {
			views[i].Name = sl.record.Name
		}
	}
	return domain.Snapshot{
		SessionID:  s.id,
		Region:     s.region.Key,
		RegionName: s.region.Name,
		State:      s.state,
		Slots:      views,
		Progress:   s.progressLocked(),
		UpdatedAt:  s.now(),
	}
}

func (s *Session) broadcastLocked(ev domain.Event) {
	ev.SessionID = s.id
	ev.Generation = s.generation
	for ch := range s.subscribers {
		deliver(ch, ev)
	}
}

// deliver queues ev without blocking. When ch is full, queued batch and score
// events are discarded first; state changes are only dropped once the buffer
// holds nothing else, oldest first.
func deliver(ch chan domain.Event, ev domain.Event) {
	select {
	case ch <- ev:
		return
	default:
	}

	pending := make([]domain.Event, 0, cap(ch)+1)
	for drained := false; !drained; {
		select {
		case queued := <-ch:
			if !droppable(queued.Type) {
				pending = append(pending, queued)
			}
		default:
			drained = true
		}
	}
	if len(pending) < cap(ch) || !droppable(ev.Type) {
		pending = append(pending, ev)
	}
	if len(pending) > cap(ch) {
		pending = pending[len(pending)-cap(ch):]
	}
	for _, queued := range pending {
		select {
		case ch <- queued:
		default:
		}
	}
}

func droppable(t domain.EventType) bool {
	return t == domain.EventBatch || t == domain.EventScore
}
