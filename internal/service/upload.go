package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/target/recon-console/config"
	"github.com/target/recon-console/internal/domain/model"
	apperrors "github.com/target/recon-console/internal/errors"
	"github.com/target/recon-console/internal/gateway"
	"github.com/target/recon-console/internal/listview"
	"github.com/target/recon-console/internal/observability/metrics"
	"github.com/target/recon-console/internal/observability/statsd"
	"github.com/target/recon-console/internal/ports"
	"github.com/target/recon-console/internal/upload"
)

const (
	endpointBulkUpload = "bulk-upload"
	endpointBulkStatus = "bulk-upload/status"

	uploadFormField = "file"
	uploadUserField = "userId"
)

// UploadServiceOptions groups dependencies for UploadService.
type UploadServiceOptions struct {
	Backend   ports.Backend
	Tracker   ports.UploadTracker
	Notices   *NoticeService
	Config    config.UploadConfig
	Metrics   statsd.Sink
	Logger    *slog.Logger
	PageSizes []int

	// BaseContext bounds background submissions; cancelling it aborts them.
	BaseContext context.Context
}

// UploadService validates spreadsheets and submits them to the bulk-upload endpoint
// in the background, tracking progress for polling.
type UploadService struct {
	api       backendClient
	tracker   ports.UploadTracker
	notices   *NoticeService
	validator *upload.Validator
	cfg       config.UploadConfig
	metrics   statsd.Sink
	logger    *slog.Logger
	pageSizes []int
	base      context.Context

	wg    sync.WaitGroup
	sleep func(ctx context.Context, d time.Duration) error
}

// NewUploadService constructs an UploadService. Backend, Tracker and Notices are required.
func NewUploadService(opts UploadServiceOptions) *UploadService {
	if opts.Tracker == nil {
		panic("service: upload tracker is required")
	}
	if opts.Notices == nil {
		panic("service: notice service is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	base := opts.BaseContext
	if base == nil {
		base = context.Background()
	}
	cfg := opts.Config
	cfg.Sanitize()
	return &UploadService{
		api:       newBackendClient(opts.Backend, logger),
		tracker:   opts.Tracker,
		notices:   opts.Notices,
		validator: upload.NewValidator(cfg),
		cfg:       cfg,
		metrics:   opts.Metrics,
		logger:    logger.With("component", "upload"),
		pageSizes: opts.PageSizes,
		base:      base,
		sleep:     sleepContext,
	}
}

// Validator exposes the configured limits for form rendering.
func (s *UploadService) Validator() *upload.Validator { return s.validator }

// SubmitInput is one file chosen on the upload screen.
type SubmitInput struct {
	SessionID string
	FileName  string
	Data      []byte
}

// Preview validates the file and parses its header and row count without any network call.
func (s *UploadService) Preview(caller Caller, fileName string, data []byte) (model.UploadPreview, error) {
	if err := s.validator.Validate(fileName, int64(len(data)), caller.UserID); err != nil {
		return model.UploadPreview{}, err
	}
	return upload.Preview(filepath.Base(fileName), data)
}

// Submit validates the file, records a pending progress entry and starts the
// background submission. The returned progress carries the id to poll.
func (s *UploadService) Submit(ctx context.Context, caller Caller, in SubmitInput) (model.UploadProgress, error) {
	if _, err := s.Preview(caller, in.FileName, in.Data); err != nil {
		return model.UploadProgress{}, err
	}

	p := model.UploadProgress{
		ID:       uuid.NewString(),
		FileName: filepath.Base(in.FileName),
		UserID:   caller.UserID,
		State:    model.UploadStatePending,
	}
	if err := s.tracker.Save(ctx, p, s.cfg.ProgressTTL); err != nil {
		return model.UploadProgress{}, fmt.Errorf("save upload progress: %w", err)
	}

	// Detach from the request so the submission outlives it; request-scoped values stay.
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
	stop := context.AfterFunc(s.base, cancel)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		defer stop()
		s.run(bg, caller, in, p)
	}()
	return p, nil
}

// Wait blocks until every background submission has finished.
func (s *UploadService) Wait() { s.wg.Wait() }

func (s *UploadService) run(ctx context.Context, caller Caller, in SubmitInput, p model.UploadProgress) {
	start := time.Now()
	ext := upload.Extension(in.FileName)

	err := s.submit(ctx, caller, in, &p)
	if err == nil {
		err = s.awaitStatus(ctx, caller, &p)
	}

	metrics.EmitUpload(s.metrics, metrics.UploadOutcome{
		Extension: ext,
		Bytes:     int64(len(in.Data)),
		Duration:  time.Since(start),
		Err:       err,
	})

	if err != nil {
		p.State = model.UploadStateFailed
		p.Message = apperrors.UserMessage(err)
		s.logger.ErrorContext(ctx, "bulk upload failed", "upload_id", p.ID, "file", p.FileName, "error", err)
		s.record(ctx, p)
		s.notify(ctx, in.SessionID, model.NoticeError, p.Message)
		return
	}

	p.State = model.UploadStateCompleted
	p.Percent = 100
	if p.Message == "" {
		p.Message = fmt.Sprintf("%s was uploaded successfully.", p.FileName)
	}
	s.logger.InfoContext(ctx, "bulk upload completed", "upload_id", p.ID, "file", p.FileName)
	s.record(ctx, p)
	s.notify(ctx, in.SessionID, model.NoticeInfo, p.Message)
}

func (s *UploadService) submit(ctx context.Context, caller Caller, in SubmitInput, p *model.UploadProgress) error {
	body, contentType, err := multipartBody(p.FileName, caller.UserID, in.Data)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "The file could not be prepared for upload.")
	}

	p.State = model.UploadStateUploading
	s.record(ctx, *p)

	// Progress runs on the transport's write goroutine and only sees a copy.
	var mu sync.Mutex
	snap, last := *p, 0
	_, err = s.api.do(ctx, caller, gateway.Request{
		API:         gateway.APIRecon,
		Endpoint:    endpointBulkUpload,
		Method:      http.MethodPost,
		Body:        body,
		ContentType: contentType,
		Progress: func(percent int) {
			mu.Lock()
			defer mu.Unlock()
			if percent < 100 && percent-last < 5 {
				return
			}
			last = percent
			snap.Percent = percent
			s.record(ctx, snap)
		},
	})
	return err
}

// awaitStatus waits for the backend to settle and reads back the status listing.
func (s *UploadService) awaitStatus(ctx context.Context, caller Caller, p *model.UploadProgress) error {
	p.State = model.UploadStateProcessing
	p.Percent = 100
	s.record(ctx, *p)

	if err := s.sleep(ctx, s.cfg.SettleDelay); err != nil {
		return apperrors.MapUpstreamError(err)
	}
	statuses, err := s.Statuses(ctx, caller)
	if err != nil {
		return err
	}
	st, ok := latestFor(statuses, p.FileName)
	if !ok {
		return nil
	}
	if st.Status == model.UploadStateFailed {
		msg := st.Message
		if msg == "" {
			msg = fmt.Sprintf("%s could not be processed.", p.FileName)
		}
		return apperrors.Upstream(msg)
	}
	p.Message = st.Message
	return nil
}

// Statuses lists the bulk-upload status rows.
func (s *UploadService) Statuses(ctx context.Context, caller Caller) ([]model.UploadStatus, error) {
	items, _, err := list[model.UploadStatus](ctx, s.api, caller, gateway.APIRecon, endpointBulkStatus, nil)
	return items, err
}

// UploadStatusFields are the searchable status columns.
func UploadStatusFields() listview.Fields[model.UploadStatus] {
	return listview.Fields[model.UploadStatus]{
		func(u model.UploadStatus) any { return u.ID },
		func(u model.UploadStatus) any { return u.FileName },
		func(u model.UploadStatus) any { return string(u.Status) },
		func(u model.UploadStatus) any { return u.Message },
		func(u model.UploadStatus) any { return u.SubmittedBy },
	}
}

// Pipeline returns a client-filtered pipeline over the status listing.
func (s *UploadService) Pipeline(caller Caller) *listview.Pipeline[model.UploadStatus] {
	src := listview.ClientFunc[model.UploadStatus](func(ctx context.Context) ([]model.UploadStatus, error) {
		return s.Statuses(ctx, caller)
	})
	return listview.NewClientPipeline[model.UploadStatus](src, UploadStatusFields(), pageSizeOption[model.UploadStatus](s.pageSizes)...)
}

// Progress returns the tracked progress of an upload owned by userID.
func (s *UploadService) Progress(ctx context.Context, id, userID string) (model.UploadProgress, error) {
	p, err := s.tracker.Get(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return model.UploadProgress{}, apperrors.NotFound("upload")
	}
	if err != nil {
		return model.UploadProgress{}, fmt.Errorf("get upload progress: %w", err)
	}
	if p.UserID != userID {
		return model.UploadProgress{}, apperrors.NotFound("upload")
	}
	return p, nil
}

func (s *UploadService) record(ctx context.Context, p model.UploadProgress) {
	// The submission may have timed out; progress is still worth keeping.
	if err := s.tracker.Save(context.WithoutCancel(ctx), p, s.cfg.ProgressTTL); err != nil {
		s.logger.WarnContext(ctx, "failed to record upload progress", "upload_id", p.ID, "error", err)
	}
}

func (s *UploadService) notify(ctx context.Context, sessionID string, kind model.NoticeKind, text string) {
	if sessionID == "" {
		return
	}
	if _, err := s.notices.Notify(context.WithoutCancel(ctx), sessionID, kind, text); err != nil {
		s.logger.WarnContext(ctx, "failed to store upload notice", "error", err)
	}
}

func multipartBody(fileName, userID string, data []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField(uploadUserField, userID); err != nil {
		return nil, "", err
	}
	part, err := w.CreateFormFile(uploadFormField, fileName)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// latestFor picks the most recent status row for fileName.
func latestFor(rows []model.UploadStatus, fileName string) (model.UploadStatus, bool) {
	var (
		best  model.UploadStatus
		found bool
	)
	for _, r := range rows {
		if r.FileName != fileName {
			continue
		}
		if !found || newer(r.SubmittedAt, best.SubmittedAt) {
			best, found = r, true
		}
	}
	return best, found
}

func newer(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	return b == nil || a.After(*b)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
