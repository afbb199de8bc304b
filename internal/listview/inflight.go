package listview

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned for a fetch that was replaced by a newer one.
var ErrSuperseded = errors.New("listview: superseded by a newer request")

// Key identifies the fetch slot for one browser tab of a session on one screen.
func Key(sessionID, tabID, screen string) string {
	return sessionID + "|" + tabID + "|" + screen
}

// Inflight tracks the newest fetch per key. Starting a fetch cancels the previous
// one for the same key; results are accepted only from the newest generation.
type Inflight struct {
	mu    sync.Mutex
	next  uint64
	slots map[string]inflightSlot
}

type inflightSlot struct {
	gen    uint64
	cancel context.CancelFunc
}

// NewInflight returns an empty tracker.
func NewInflight() *Inflight {
	return &Inflight{slots: make(map[string]inflightSlot)}
}

// Ticket is the handle for one started fetch.
type Ticket struct {
	owner  *Inflight
	key    string
	gen    uint64
	cancel context.CancelFunc
}

// Begin starts a new generation for key, cancelling any older fetch, and returns
// a context bound to this generation.
func (f *Inflight) Begin(ctx context.Context, key string) (context.Context, *Ticket) {
	ctx, cancel := context.WithCancel(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()

	if prev, ok := f.slots[key]; ok {
		prev.cancel()
	}
	f.next++
	f.slots[key] = inflightSlot{gen: f.next, cancel: cancel}
	return ctx, &Ticket{owner: f, key: key, gen: f.next, cancel: cancel}
}

// Current reports whether the ticket is still the newest for its key.
func (t *Ticket) Current() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	return t.owner.currentLocked(t)
}

// Finish releases the ticket. It returns ErrSuperseded when a newer fetch
// started after this one.
func (t *Ticket) Finish() error {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()

	t.cancel()
	if !t.owner.currentLocked(t) {
		return ErrSuperseded
	}
	delete(t.owner.slots, t.key)
	return nil
}

func (f *Inflight) currentLocked(t *Ticket) bool {
	s, ok := f.slots[t.key]
	return ok && s.gen == t.gen
}

// Len returns the number of keys with a fetch in progress.
func (f *Inflight) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.slots)
}
