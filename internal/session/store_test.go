package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/rental-portal/internal/domain"
)

func sampleSession(expires time.Time) Session {
	return Session{
		ID:        "abc",
		Token:     "token-1",
		User:      domain.User{ID: 7, Email: "landlord@example.com", Type: domain.UserTypeLandlord},
		ExpiresAt: expires,
	}
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Load(ctx, "abc")
	assert.ErrorIs(t, err, ErrNoSession)

	sess := sampleSession(time.Now().Add(time.Hour))
	require.NoError(t, store.Save(ctx, sess))

	loaded, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, sess.Token, loaded.Token)
	assert.Equal(t, sess.User.Email, loaded.User.Email)

	require.NoError(t, store.Clear(ctx, "abc"))
	_, err = store.Load(ctx, "abc")
	assert.ErrorIs(t, err, ErrNoSession)

	assert.Error(t, store.Save(ctx, Session{ID: "x"}), "token required")
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreDropsExpired(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(context.Background(), sampleSession(now.Add(time.Minute))))
	now = now.Add(2 * time.Minute)

	_, err := store.Load(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = store.Load(context.Background(), "abc")
	assert.NotErrorIs(t, err, ErrSessionExpired, "only the first load reports the expiry")
}

func TestFileStore(t *testing.T) {
	exerciseStore(t, NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json")))
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, NewFileStore(path).Save(context.Background(), sampleSession(time.Now().Add(time.Hour))))

	loaded, err := NewFileStore(path).Load(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(7), loaded.User.ID)
}

func TestFileStoreReportsExpiry(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(context.Background(), sampleSession(now.Add(time.Minute))))
	now = now.Add(2 * time.Minute)

	_, err := store.Load(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "test"), mr
}

func TestRedisStore(t *testing.T) {
	store, _ := newRedisStore(t)
	exerciseStore(t, store)
}

func TestRedisStoreWritesTokenWithTTLAndDurableProfile(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, store.Save(context.Background(), sampleSession(time.Now().Add(time.Hour))))

	assert.True(t, mr.Exists("test:session:abc:token"))
	assert.True(t, mr.Exists("test:session:abc:profile"))
	assert.Greater(t, mr.TTL("test:session:abc:token"), 59*time.Minute)
	assert.Equal(t, time.Duration(0), mr.TTL("test:session:abc:profile"))
}

func TestRedisStoreExpiredTokenClearsProfile(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, store.Save(context.Background(), sampleSession(time.Now().Add(time.Hour))))

	mr.FastForward(61 * time.Minute)

	_, err := store.Load(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.False(t, mr.Exists("test:session:abc:profile"), "profile must not outlive the token")
}

func TestRedisStoreRejectsExpiredSave(t *testing.T) {
	store, _ := newRedisStore(t)
	assert.Error(t, store.Save(context.Background(), sampleSession(time.Now().Add(-time.Second))))
}
