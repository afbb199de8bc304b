package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/target/recon-console/config"
	"github.com/target/recon-console/internal/domain/model"
	"github.com/target/recon-console/internal/ports"
)

// NoticeServiceOptions groups dependencies for NoticeService.
type NoticeServiceOptions struct {
	Store  ports.NoticeStore
	Config config.NoticeConfig
	Logger *slog.Logger
}

// NoticeService manages the single pending toast of each session.
type NoticeService struct {
	store  ports.NoticeStore
	cfg    config.NoticeConfig
	logger *slog.Logger
}

// NewNoticeService constructs a NoticeService. Store is required.
func NewNoticeService(opts NoticeServiceOptions) *NoticeService {
	if opts.Store == nil {
		panic("service: notice store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	cfg.Sanitize()
	return &NoticeService{store: opts.Store, cfg: cfg, logger: logger}
}

// Duration is how long a notice of kind k stays on screen.
func (s *NoticeService) Duration(k model.NoticeKind) time.Duration {
	if k.Alert() {
		return s.cfg.AlertDuration
	}
	return s.cfg.InfoDuration
}

// Notify replaces the session's pending notice. The record expires with the toast.
func (s *NoticeService) Notify(ctx context.Context, sessionID string, kind model.NoticeKind, text string) (model.Notice, error) {
	if !kind.Valid() {
		kind = model.NoticeInfo
	}
	n := model.Notice{Kind: kind, Text: strings.TrimSpace(text), DismissAfter: s.Duration(kind)}
	if n.Text == "" {
		return n, errors.New("notice text is empty")
	}
	if err := s.store.Set(ctx, sessionID, n, n.DismissAfter); err != nil {
		return n, fmt.Errorf("store notice: %w", err)
	}
	return n, nil
}

// Take returns and clears the pending notice, or nil when there is none.
// Store failures are logged and treated as no notice.
func (s *NoticeService) Take(ctx context.Context, sessionID string) *model.Notice {
	if sessionID == "" {
		return nil
	}
	n, err := s.store.Get(ctx, sessionID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read notice", "error", err)
		return nil
	}
	if n == nil {
		return nil
	}
	if err := s.store.Clear(ctx, sessionID); err != nil {
		s.logger.WarnContext(ctx, "failed to clear notice", "error", err)
	}
	return n
}
