package app

import (
	"context"
	"errors"
	"time"

	"dex-quiz-service/internal/domain"
	"dex-quiz-service/internal/logger"
	"github.com/google/uuid"
)

// SessionRepository abstracts where live sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
	// Track records the latest status of a live session. Best effort.
	Track(sessionID string, status domain.SessionStatus)
}

// RegionCatalog resolves region keys to record ids.
type RegionCatalog interface {
	Lookup(key string) (domain.Region, bool)
	IDsFor(key string) []int
	Regions() []domain.Region
}

// RecordFetcher resolves ids to records in input order.
type RecordFetcher interface {
	FetchAll(ctx context.Context, ids []int, progress func(domain.BatchProgress)) ([]domain.Record, error)
}

// Observer receives quiz outcomes, typically for metrics.
type Observer interface {
	GuessJudged(v domain.Verdict)
	SessionCompleted(region string)
	SessionOpened()
	SessionEnded()
}

// QuizService contains the quiz use cases.
type QuizService struct {
	sessions    SessionRepository
	regions     RegionCatalog
	fetcher     RecordFetcher
	observer    Observer
	log         *logger.Logger
	loadTimeout time.Duration
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithObserver reports guesses and session lifecycle to o.
func WithObserver(o Observer) Option {
	return func(s *QuizService) { s.observer = o }
}

// WithLogger sets the service logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *QuizService) { s.log = l }
}

// WithLoadTimeout bounds how long a region load may run. Zero means no bound.
func WithLoadTimeout(d time.Duration) Option {
	return func(s *QuizService) { s.loadTimeout = d }
}

func NewQuizService(store SessionRepository, regions RegionCatalog, fetcher RecordFetcher, opts ...Option) *QuizService {
	s := &QuizService{
		sessions: store,
		regions:  regions,
		fetcher:  fetcher,
		observer: nopObserver{},
		log:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Regions lists the selectable regions.
func (s *QuizService) Regions() []domain.Region {
	return s.regions.Regions()
}

// Start opens a new idle session.
func (s *QuizService) Start(_ context.Context) domain.Snapshot {
	session := NewSession(uuid.NewString(), s.regions, s.fetcher)
	s.sessions.Put(session)
	s.sessions.Track(session.ID(), session.Status())
	s.observer.SessionOpened()
	s.log.Info("session started", "session_id", session.ID())
	return session.Snapshot()
}

// SelectRegion loads key's records into the session, replacing its slots.
func (s *QuizService) SelectRegion(ctx context.Context, sessionID, key string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	ctx, cancel := s.loadContext(ctx)
	defer cancel()

	started := time.Now()
	snap, err := session.SelectRegion(ctx, key)
	s.afterLoad(session, key, started, err)
	return snap, err
}

// Reset reloads the session's current region.
func (s *QuizService) Reset(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	ctx, cancel := s.loadContext(ctx)
	defer cancel()

	started := time.Now()
	snap, err := session.Reset(ctx)
	s.afterLoad(session, snap.Region, started, err)
	return snap, err
}

// SubmitGuess judges text for a slot of the session.
func (s *QuizService) SubmitGuess(_ context.Context, sessionID string, slotIndex int, text string) (domain.GuessResult, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.GuessResult{}, domain.ErrSessionNotFound
	}
	result, err := session.SubmitGuess(slotIndex, text)
	if err != nil {
		return result, err
	}

	s.observer.GuessJudged(result.Verdict)
	if result.Verdict == domain.VerdictCorrect {
		status := session.Status()
		s.sessions.Track(sessionID, status)
		// Every slot is locked once complete, so only the finishing guess gets here.
		if result.Complete {
			s.observer.SessionCompleted(status.Region)
			s.log.Info("session complete", "session_id", sessionID, "region", status.Region, "score", status.Progress.Score)
		}
	}
	return result, nil
}

// Snapshot returns the session's current state.
func (s *QuizService) Snapshot(_ context.Context, sessionID string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// Subscribe returns a channel that receives the session's events.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, sessionID string) (<-chan domain.Event, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// End closes the session and forgets it.
func (s *QuizService) End(_ context.Context, sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Delete(sessionID)
	s.observer.SessionEnded()
	s.log.Info("session ended", "session_id", sessionID)
}

func (s *QuizService) loadContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.loadTimeout > 0 {
		return context.WithTimeout(ctx, s.loadTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *QuizService) afterLoad(session *Session, key string, started time.Time, err error) {
	switch {
	case errors.Is(err, domain.ErrStaleLoad), errors.Is(err, domain.ErrSessionClosed):
		s.log.Debug("region load discarded", "session_id", session.ID(), "region", key)
		return
	case errors.Is(err, domain.ErrUnknownRegion):
		return
	case err != nil:
		s.log.Error("region load failed", "session_id", session.ID(), "region", key, "error", err)
	default:
		s.log.Info("region loaded", "session_id", session.ID(), "region", key, "elapsed", time.Since(started))
	}
	s.sessions.Track(session.ID(), session.Status())
}

type nopObserver struct{}

func (nopObserver) GuessJudged(domain.Verdict) {}
func (nopObserver) SessionCompleted(string)    {}
func (nopObserver) SessionOpened()             {}
func (nopObserver) SessionEnded()              {}
