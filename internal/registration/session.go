package registration

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"github.com/rotaworks/workforce-auth/internal"
	"github.com/rotaworks/workforce-auth/internal/core/datamodel/employee"
)

// Session binds a verified claim to a pending credential-creation step.
type Session struct {
	Email     string
	Employee  employee.Record
	CreatedAt time.Time
}

// SessionStore keeps verification sessions in memory, keyed by an unguessable
// token. Expiry is enforced on read; the sweeper only bounds memory.
//
// Redemption is split into Peek and Close: Peek returns the session without
// consuming it, so a transient failure between verification and account
// creation does not cost the visitor their token. Close must be called once
// the account is durably created, or as soon as the email turns out to be
// taken.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewSessionStore(ttl time.Duration, logger *slog.Logger) *SessionStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SessionStore{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// Open mints a token for a matched employee record. Concurrent opens for the
// same email are independent; uniqueness is only checked at redemption.
func (s *SessionStore) Open(email string, rec employee.Record) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", internal.NewInternalError("failed to generate session token", err)
	}
	token := hex.EncodeToString(buf)

	s.mu.Lock()
	s.sessions[token] = Session{
		Email:     email,
		Employee:  rec,
		CreatedAt: s.now(),
	}
	s.mu.Unlock()

	return token, nil
}

// Peek returns the session bound to token without consuming it. Absent or
// expired tokens report ErrSessionExpired; the two cases are deliberately
// indistinguishable.
func (s *SessionStore) Peek(token string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, internal.ErrSessionExpired
	}

	if s.now().Sub(sess.CreatedAt) > s.ttl {
		delete(s.sessions, token)
		return nil, internal.ErrSessionExpired
	}

	return &sess, nil
}

// Close invalidates the token. Closing an unknown token is a no-op.
func (s *SessionStore) Close(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Sweep drops expired sessions and returns how many were removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	cutoff := s.now().Add(-s.ttl)
	for token, sess := range s.sessions {
		if sess.CreatedAt.Before(cutoff) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep on an interval until ctx is cancelled.
func (s *SessionStore) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := s.Sweep(); removed > 0 {
					s.logger.Debug("expired registration sessions removed", "count", removed)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
