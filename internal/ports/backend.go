package ports

import (
	"context"
	"time"

	"github.com/target/recon-console/internal/domain/model"
	"github.com/target/recon-console/internal/gateway"
)

// Backend performs calls against the backend REST services.
type Backend interface {
	Do(ctx context.Context, req gateway.Request) (*gateway.Response, error)
	Extractor() *gateway.Extractor
}

// NoticeStore keeps at most one pending notice per session. Setting a notice
// replaces the previous one.
type NoticeStore interface {
	Set(ctx context.Context, sessionID string, n model.Notice, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*model.Notice, error)
	Clear(ctx context.Context, sessionID string) error
}

// UploadTracker records the progress of background upload submissions.
type UploadTracker interface {
	Save(ctx context.Context, p model.UploadProgress, ttl time.Duration) error
	Get(ctx context.Context, id string) (model.UploadProgress, error)
}
