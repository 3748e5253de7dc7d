package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/floorreports/apiserver/internal/store"
	"github.com/floorreports/apiserver/types"
)

// ErrSessionExpired is returned when a presented session token has passed
// its expiry. The stale row is removed as a side effect.
var ErrSessionExpired = errors.New("session expired")

// SessionRepository defines persistence operations for sessions.
type SessionRepository interface {
	Create(ctx context.Context, session types.Session) error
	Get(ctx context.Context, token string) (types.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) (int64, error)
	DeleteForUser(ctx context.Context, userID int) error
}

// SessionService manages browser login sessions.
type SessionService struct {
	repo SessionRepository
	ttl  time.Duration
}

func NewSessionService(repo SessionRepository, ttl time.Duration) *SessionService {
	return &SessionService{repo: repo, ttl: ttl}
}

// Start creates a session for the user and returns it with a fresh token.
func (s *SessionService) Start(ctx context.Context, userID int) (types.Session, error) {
	token, err := newSessionToken()
	if err != nil {
		return types.Session{}, err
	}

	now := time.Now()
	session := types.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return types.Session{}, err
	}
	return session, nil
}

// Validate looks up a session by token and checks its expiry.
func (s *SessionService) Validate(ctx context.Context, token string) (types.Session, error) {
	session, err := s.repo.Get(ctx, token)
	if err != nil {
		return types.Session{}, err
	}

	if session.Expired(time.Now()) {
		_ = s.repo.Delete(ctx, token)
		return types.Session{}, ErrSessionExpired
	}
	return session, nil
}

// End removes a session. A missing session is not an error; logout is
// idempotent.
func (s *SessionService) End(ctx context.Context, token string) error {
	if err := s.repo.Delete(ctx, token); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

// EndAllForUser removes every session belonging to the user.
func (s *SessionService) EndAllForUser(ctx context.Context, userID int) error {
	return s.repo.DeleteForUser(ctx, userID)
}

// PurgeExpired removes expired session rows.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx)
}

func newSessionToken() (string, error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf[:]), nil
}
