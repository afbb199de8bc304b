package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/recon-console/internal/domain/model"
)

// NoticeStore keeps at most one pending notice per session.
type NoticeStore struct {
	client redis.UniversalClient
	prefix string
}

// NewNoticeStore creates a notice store with the given key prefix.
func NewNoticeStore(client redis.UniversalClient, prefix string) *NoticeStore {
	if prefix == "" {
		prefix = "notice:"
	}
	return &NoticeStore{client: client, prefix: prefix}
}

// Set replaces the session's notice. A zero ttl keeps it until read or cleared.
func (s *NoticeStore) Set(ctx context.Context, sessionID string, n model.Notice, ttl time.Duration) error {
	if sessionID == "" {
		return errors.New("session ID cannot be empty")
	}
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+sessionID, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set notice: %w", err)
	}
	return nil
}

// Get returns the pending notice or nil when there is none.
func (s *NoticeStore) Get(ctx context.Context, sessionID string) (*model.Notice, error) {
	if sessionID == "" {
		return nil, nil
	}
	data, err := s.client.Get(ctx, s.prefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get notice: %w", err)
	}
	var n model.Notice
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("unmarshal notice: %w", err)
	}
	return &n, nil
}

func (s *NoticeStore) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.prefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis clear notice: %w", err)
	}
	return nil
}
