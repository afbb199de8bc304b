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

// UploadTracker records background upload progress so any replica can answer polls.
type UploadTracker struct {
	client redis.UniversalClient
	prefix string
}

// NewUploadTracker creates a tracker with the given key prefix.
func NewUploadTracker(client redis.UniversalClient, prefix string) *UploadTracker {
	if prefix == "" {
		prefix = "upload:"
	}
	return &UploadTracker{client: client, prefix: prefix}
}

func (t *UploadTracker) Save(ctx context.Context, p model.UploadProgress, ttl time.Duration) error {
	if p.ID == "" {
		return errors.New("upload ID cannot be empty")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal upload progress: %w", err)
	}
	if err := t.client.Set(ctx, t.prefix+p.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set upload progress: %w", err)
	}
	return nil
}

// Get returns ErrNotFound for unknown or expired uploads.
func (t *UploadTracker) Get(ctx context.Context, id string) (model.UploadProgress, error) {
	if id == "" {
		return model.UploadProgress{}, ErrNotFound
	}
	data, err := t.client.Get(ctx, t.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.UploadProgress{}, ErrNotFound
	}
	if err != nil {
		return model.UploadProgress{}, fmt.Errorf("redis get upload progress: %w", err)
	}
	var p model.UploadProgress
	if err := json.Unmarshal(data, &p); err != nil {
		return model.UploadProgress{}, fmt.Errorf("unmarshal upload progress: %w", err)
	}
	return p, nil
}
