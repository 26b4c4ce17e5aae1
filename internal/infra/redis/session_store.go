package redis

import (
	"context"
	"strconv"
	"sync"
	"time"

	"dex-quiz-service/internal/app"
	"dex-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of SessionRepository.
// Sessions themselves live in process; Redis holds a hash per live session
// (region, state, score, total) so operators can see what is running:
//
//	HSET quiz:session:{id} region kanto state ready score 12 total 151
//
// The hash expires after ttl without updates and is removed when the session ends.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
}

// Track writes the status hash; failures are ignored.
func (s *SessionStore) Track(sessionID string, status domain.SessionStatus) {
	s.mu.RLock()
	_, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return
	}

	ctx := context.Background()
	key := s.key(sessionID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		"region", status.Region,
		"state", string(status.State),
		"score", status.Progress.Score,
		"total", status.Progress.Total,
	)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, _ = pipe.Exec(ctx)
}

// Status reads a session's status hash back.
func (s *SessionStore) Status(ctx context.Context, sessionID string) (domain.SessionStatus, bool, error) {
	fields, err := s.client.HGetAll(ctx, s.key(sessionID)).Result()
	if err != nil {
		return domain.SessionStatus{}, false, err
	}
	if len(fields) == 0 {
		return domain.SessionStatus{}, false, nil
	}
	score, _ := strconv.Atoi(fields["score"])
	total, _ := strconv.Atoi(fields["total"])
	return domain.SessionStatus{
		Region:   fields["region"],
		State:    domain.SessionState(fields["state"]),
		Progress: domain.NewProgress(score, total),
	}, true, nil
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
