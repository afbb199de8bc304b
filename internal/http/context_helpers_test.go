package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/target/recon-console/internal/domain/auth"
)

func TestGetUserSessionFromContext(t *testing.T) {
	// No session
	if s, ok := GetUserSessionFromContext(context.Background()); assert.False(t, ok) {
		assert.Nil(t, s)
	}

	// Nil session leaves the context alone
	ctx := SetSessionInContext(context.Background(), nil)
	_, ok := GetUserSessionFromContext(ctx)
	assert.False(t, ok)

	// With session
	sess := testSession("abc", domainauth.RolePreparer)
	ctx = SetSessionInContext(context.Background(), sess)
	s, ok := GetUserSessionFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, sess, s)
	assert.Equal(t, sess, GetSessionFromContext(ctx))
}

func TestCallerFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, sessionIDFromRequest(r))
	assert.Empty(t, callerFromRequest(r).Token)

	r = asUser(r, testSession("s9", domainauth.RoleReviewer))
	assert.Equal(t, "s9", sessionIDFromRequest(r))
	caller := callerFromRequest(r)
	assert.Equal(t, "token-s9", caller.Token)
	assert.Equal(t, "user-s9", caller.UserID)
}

func TestRecordAuthFailure(t *testing.T) {
	assert.False(t, recordAuthFailure(context.Background(), http.StatusUnauthorized))

	ctx, rec := withAuthFailureRecorder(context.Background())
	assert.Zero(t, rec.Status())

	assert.True(t, recordAuthFailure(ctx, http.StatusForbidden))
	assert.Equal(t, http.StatusForbidden, rec.Status())

	assert.True(t, recordAuthFailure(ctx, http.StatusUnauthorized))
	assert.True(t, recordAuthFailure(ctx, http.StatusForbidden))
	assert.Equal(t, http.StatusUnauthorized, rec.Status(), "401 must not be downgraded")
}

func TestRecordAuthFailure_Concurrent(t *testing.T) {
	ctx, rec := withAuthFailureRecorder(context.Background())

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := http.StatusForbidden
			if i == 7 {
				status = http.StatusUnauthorized
			}
			recordAuthFailure(ctx, status)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, http.StatusUnauthorized, rec.Status())
}
