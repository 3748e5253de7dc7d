package services

import (
	"context"
	"testing"
	"time"

	"github.com/floorreports/apiserver/internal/store"
	"github.com/floorreports/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessionRepo struct {
	sessions map[string]types.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]types.Session)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, session types.Session) error {
	r.sessions[session.Token] = session
	return nil
}

func (r *fakeSessionRepo) Get(ctx context.Context, token string) (types.Session, error) {
	session, ok := r.sessions[token]
	if !ok {
		return types.Session{}, store.ErrNotFound
	}
	return session, nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, token string) error {
	if _, ok := r.sessions[token]; !ok {
		return store.ErrNotFound
	}
	delete(r.sessions, token)
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	var removed int64
	now := time.Now()
	for token, session := range r.sessions {
		if session.Expired(now) {
			delete(r.sessions, token)
			removed++
		}
	}
	return removed, nil
}

func (r *fakeSessionRepo) DeleteForUser(ctx context.Context, userID int) error {
	for token, session := range r.sessions {
		if session.UserID == userID {
			delete(r.sessions, token)
		}
	}
	return nil
}

func TestSessionStartAndValidate(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := NewSessionService(repo, time.Hour)

	session, err := svc.Start(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, session.Token, 64)
	assert.Equal(t, 1, session.UserID)

	validated, err := svc.Validate(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, validated.UserID)
}

func TestSessionTokensAreUnique(t *testing.T) {
	svc := NewSessionService(newFakeSessionRepo(), time.Hour)

	a, err := svc.Start(context.Background(), 1)
	require.NoError(t, err)
	b, err := svc.Start(context.Background(), 1)
	require.NoError(t, err)
	assert.NotEqual(t, a.Token, b.Token)
}

func TestValidateExpiredSession(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := NewSessionService(repo, time.Hour)

	expired := types.Session{
		Token:     "stale",
		UserID:    1,
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, repo.Create(context.Background(), expired))

	_, err := svc.Validate(context.Background(), "stale")
	assert.ErrorIs(t, err, ErrSessionExpired)

	// The stale row is removed as a side effect.
	_, err = repo.Get(context.Background(), "stale")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestValidateUnknownToken(t *testing.T) {
	svc := NewSessionService(newFakeSessionRepo(), time.Hour)

	_, err := svc.Validate(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEndIsIdempotent(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := NewSessionService(repo, time.Hour)

	session, err := svc.Start(context.Background(), 1)
	require.NoError(t, err)

	require.NoError(t, svc.End(context.Background(), session.Token))
	assert.NoError(t, svc.End(context.Background(), session.Token))
}

func TestPurgeExpired(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := NewSessionService(repo, time.Hour)

	_, err := svc.Start(context.Background(), 1)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), types.Session{
		Token:     "stale",
		UserID:    2,
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	purged, err := svc.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}
