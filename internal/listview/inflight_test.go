package listview

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInflight_NewerCancelsOlder(t *testing.T) {
	f := NewInflight()
	key := Key("sess-1", "tab-1", "reconciliations")

	oldCtx, oldTicket := f.Begin(context.Background(), key)
	newCtx, newTicket := f.Begin(context.Background(), key)

	assert.ErrorIs(t, oldCtx.Err(), context.Canceled)
	assert.NoError(t, newCtx.Err())
	assert.False(t, oldTicket.Current())
	assert.True(t, newTicket.Current())

	assert.ErrorIs(t, oldTicket.Finish(), ErrSuperseded)
	assert.NoError(t, newTicket.Finish())
	assert.Equal(t, 0, f.Len())
}

func TestInflight_KeysAreIndependent(t *testing.T) {
	f := NewInflight()

	ctxA, a := f.Begin(context.Background(), Key("s1", "tab-1", "users"))
	ctxB, b := f.Begin(context.Background(), Key("s1", "tab-2", "users"))
	_, c := f.Begin(context.Background(), Key("s2", "tab-1", "users"))

	assert.NoError(t, ctxA.Err())
	assert.NoError(t, ctxB.Err())
	assert.NoError(t, a.Finish())
	assert.NoError(t, b.Finish())
	assert.NoError(t, c.Finish())
}

func TestRunExclusive_LateResolveIsDiscarded(t *testing.T) {
	f := NewInflight()
	key := Key("sess-1", "tab-1", "ledger-imports")

	started := make(chan struct{})
	slow := ClientFunc[idRow](func(ctx context.Context) ([]idRow, error) {
		close(started)
		<-ctx.Done()
		return []idRow{{ID: "stale"}}, nil
	})
	fast := ClientFunc[idRow](twoRows)

	var (
		wg      sync.WaitGroup
		slowErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, slowErr = NewClientPipeline[idRow](slow, idFields).RunExclusive(context.Background(), f, key, Query{Page: 1, PageSize: 10})
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("slow fetch did not start")
	}

	view, err := NewClientPipeline[idRow](fast, idFields).RunExclusive(context.Background(), f, key, Query{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, "1-2 of 2", view.RangeLabel)

	wg.Wait()
	assert.ErrorIs(t, slowErr, ErrSuperseded)
}
