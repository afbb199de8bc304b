// Package store contains in-memory doubles for the notice and upload ports.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/target/recon-console/internal/domain/model"
	"github.com/target/recon-console/internal/ports"
)

var (
	_ ports.NoticeStore   = (*MemoryNoticeStore)(nil)
	_ ports.UploadTracker = (*MemoryUploadTracker)(nil)
)

// ErrNotFound is returned when no record exists.
var ErrNotFound = ports.ErrNotFound

// MemoryNoticeStore keeps one notice per session. TTLs are recorded, not enforced.
type MemoryNoticeStore struct {
	mu      sync.Mutex
	notices map[string]model.Notice
	ttls    map[string]time.Duration
}

// NewMemoryNoticeStore creates an empty store.
func NewMemoryNoticeStore() *MemoryNoticeStore {
	return &MemoryNoticeStore{notices: map[string]model.Notice{}, ttls: map[string]time.Duration{}}
}

func (s *MemoryNoticeStore) Set(_ context.Context, sessionID string, n model.Notice, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices[sessionID] = n
	s.ttls[sessionID] = ttl
	return nil
}

func (s *MemoryNoticeStore) Get(_ context.Context, sessionID string) (*model.Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notices[sessionID]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (s *MemoryNoticeStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notices, sessionID)
	delete(s.ttls, sessionID)
	return nil
}

// TTL returns the ttl recorded for sessionID.
func (s *MemoryNoticeStore) TTL(sessionID string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ttls[sessionID]
}

// MemoryUploadTracker stores upload progress in memory.
type MemoryUploadTracker struct {
	mu      sync.Mutex
	records map[string]model.UploadProgress
	history map[string][]model.UploadProgress
}

// NewMemoryUploadTracker creates an empty tracker.
func NewMemoryUploadTracker() *MemoryUploadTracker {
	return &MemoryUploadTracker{
		records: map[string]model.UploadProgress{},
		history: map[string][]model.UploadProgress{},
	}
}

func (t *MemoryUploadTracker) Save(_ context.Context, p model.UploadProgress, _ time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[p.ID] = p
	t.history[p.ID] = append(t.history[p.ID], p)
	return nil
}

func (t *MemoryUploadTracker) Get(_ context.Context, id string) (model.UploadProgress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.records[id]
	if !ok {
		return model.UploadProgress{}, ErrNotFound
	}
	return p, nil
}

// History returns every saved snapshot for id, oldest first.
func (t *MemoryUploadTracker) History(id string) []model.UploadProgress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]model.UploadProgress(nil), t.history[id]...)
}
