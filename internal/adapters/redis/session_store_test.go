package redis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/recon-console/internal/cryptoutil"
	domainauth "github.com/target/recon-console/internal/domain/auth"
	"github.com/target/recon-console/internal/ports"
	"github.com/target/recon-console/internal/testutil"
)

var (
	_ ports.SessionStore  = (*SessionStore)(nil)
	_ ports.SessionLister = (*SessionStore)(nil)
	_ ports.NoticeStore   = (*NoticeStore)(nil)
	_ ports.UploadTracker = (*UploadTracker)(nil)
)

// setupTestRedis skips the test when Redis is not reachable.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := testutil.SetupTestRedis(t)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func testSession(id string, ttl time.Duration) domainauth.Session {
	return domainauth.Session{
		ID:          id,
		UserID:      "user-123",
		DisplayName: "Pat Preparer",
		Email:       "user@example.com",
		ActiveRole:  domainauth.RoleReviewer,
		Roles:       []domainauth.Role{domainauth.RoleReviewer, domainauth.RolePreparer},
		AccessToken: "token-abc",
		ExpiresAt:   time.Now().Add(ttl),
	}
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	store := NewSessionStore(setupTestRedis(t))
	ctx := context.Background()

	session := testSession("test-session-1", 30*time.Minute)
	require.NoError(t, store.Save(ctx, session))

	got, err := store.Get(ctx, "test-session-1")
	require.NoError(t, err)
	assert.Equal(t, session.UserID, got.UserID)
	assert.Equal(t, session.DisplayName, got.DisplayName)
	assert.Equal(t, session.ActiveRole, got.ActiveRole)
	assert.Equal(t, session.Roles, got.Roles)
	assert.Equal(t, session.AccessToken, got.AccessToken)
	assert.WithinDuration(t, session.ExpiresAt, got.ExpiresAt, time.Second)
}

func TestSessionStore_GetMissing(t *testing.T) {
	store := NewSessionStore(setupTestRedis(t))

	_, err := store.Get(context.Background(), "non-existent")
	assert.Equal(t, ErrNotFound, err)

	_, err = store.Get(context.Background(), "")
	assert.Equal(t, ErrNotFound, err)
}

func TestSessionStore_Delete(t *testing.T) {
	store := NewSessionStore(setupTestRedis(t))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("test-session-delete", 30*time.Minute)))
	require.NoError(t, store.Delete(ctx, "test-session-delete"))

	_, err := store.Get(ctx, "test-session-delete")
	assert.Equal(t, ErrNotFound, err)
	assert.NoError(t, store.Delete(ctx, ""))
}

func TestSessionStore_TTLExpiration(t *testing.T) {
	store := NewSessionStore(setupTestRedis(t))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("test-session-ttl", 100*time.Millisecond)))
	time.Sleep(200 * time.Millisecond)

	_, err := store.Get(ctx, "test-session-ttl")
	assert.Equal(t, ErrNotFound, err)
}

func TestSessionStore_ExpiredRecordIsRemoved(t *testing.T) {
	client := setupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("skewed", 30*time.Minute)))
	store.now = func() time.Time { return time.Now().Add(time.Hour) }

	_, err := store.Get(ctx, "skewed")
	assert.Equal(t, ErrNotFound, err)
	assert.Equal(t, int64(0), client.Exists(ctx, "session:skewed").Val())
}

func TestSessionStore_CustomPrefix(t *testing.T) {
	client := setupTestRedis(t)
	store := NewSessionStoreWithPrefix(client, "test-prefix:")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("prefix-test", 30*time.Minute)))
	assert.Equal(t, int64(1), client.Exists(ctx, "test-prefix:prefix-test").Val())

	got, err := store.Get(ctx, "prefix-test")
	require.NoError(t, err)
	assert.Equal(t, "prefix-test", got.ID)
}

func TestSessionStore_SaveRejectsInvalid(t *testing.T) {
	store := NewSessionStore(setupTestRedis(t))
	ctx := context.Background()

	err := store.Save(ctx, testSession("", 30*time.Minute))
	require.ErrorContains(t, err, "session ID cannot be empty")

	err = store.Save(ctx, testSession("expired-session", -time.Hour))
	require.ErrorContains(t, err, "session is expired")
}

func TestSessionStore_ListAndDeleteAll(t *testing.T) {
	client := setupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Save(ctx, testSession(id, 30*time.Minute)))
	}
	// Foreign keys and garbage under the prefix are ignored.
	require.NoError(t, client.Set(ctx, "notice:a", "{}", time.Minute).Err())
	require.NoError(t, client.Set(ctx, "session:garbage", "not-json", time.Minute).Err())

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids)

	removed, err := store.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, removed)

	sessions, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.Equal(t, int64(1), client.Exists(ctx, "notice:a").Val())
}

func sealedStore(t *testing.T, client *redis.Client) *SessionStore {
	t.Helper()
	sealer, err := cryptoutil.NewAESGCM([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	return NewSessionStoreWithPrefix(client, "sealed:").WithTokenSealer(sealer)
}

func TestSessionStore_TokenSealedAtRest(t *testing.T) {
	client := setupTestRedis(t)
	store := sealedStore(t, client)
	ctx := context.Background()

	session := testSession("sealed-1", 30*time.Minute)
	require.NoError(t, store.Save(ctx, session))

	raw, err := client.Get(ctx, "sealed:sealed-1").Result()
	require.NoError(t, err)
	assert.NotContains(t, raw, "token-abc")
	assert.Contains(t, raw, `"access_token":"v1:`)

	got, err := store.Get(ctx, "sealed-1")
	require.NoError(t, err)
	assert.Equal(t, "token-abc", got.AccessToken)

	listed, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "token-abc", listed[0].AccessToken)
}

func TestSessionStore_SwappedRecordIsDropped(t *testing.T) {
	client := setupTestRedis(t)
	store := sealedStore(t, client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("victim", 30*time.Minute)))
	raw, err := client.Get(ctx, "sealed:victim").Result()
	require.NoError(t, err)

	// The same record copied under another id keeps its original session id in
	// the payload, so rewrite the id to pose as a different session.
	forged := strings.Replace(raw, `"id":"victim"`, `"id":"attacker"`, 1)
	require.NoError(t, client.Set(ctx, "sealed:attacker", forged, time.Minute).Err())

	_, err = store.Get(ctx, "attacker")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int64(0), client.Exists(ctx, "sealed:attacker").Val())
}
