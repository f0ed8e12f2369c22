package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/scnpatch/internal/config"
	"github.com/JonMunkholm/scnpatch/internal/logging"
	"github.com/JonMunkholm/scnpatch/internal/scene"
)

var (
	// ErrNoScene is returned when an upload carries no body.
	ErrNoScene = errors.New("no file provided")

	// ErrEmptyScene is returned when the body holds zero bytes.
	ErrEmptyScene = errors.New("empty file")
)

// Service parses uploaded scenes and keeps a history of the attempts.
type Service struct {
	upload    config.UploadConfig
	pageLimit int
	retention RetentionConfig
	limiter   *ParseLimiter
	history   HistoryStore
	logger    *slog.Logger
	now       func() time.Time
	newID     func() uuid.UUID
}

// NewService creates a Service. A nil history falls back to an in-memory
// store sized from cfg; a nil logger to slog.Default().
func NewService(cfg *config.Config, history HistoryStore, logger *slog.Logger) *Service {
	if history == nil {
		history = NewMemoryHistory(cfg.History.MemoryEntries)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		upload:    cfg.Upload,
		pageLimit: cfg.History.PageLimit,
		retention: RetentionConfig{
			MaxAge:        cfg.History.Retention,
			CheckInterval: cfg.History.PruneInterval,
		},
		limiter:   NewParseLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		history:   history,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.New,
	}
}

// SceneUpload is one scene file handed to ParseScene. Size is the declared
// length, or zero when unknown.
type SceneUpload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// ParseResult is a successfully parsed scene.
type ParseResult struct {
	ID       uuid.UUID
	Filename string
	Scene    *scene.Scene
	Bytes    int64
	Duration time.Duration
}

// ParseScene parses one upload under the concurrency limit and parse
// timeout and records the attempt in the history store. Uploads rejected
// before parsing starts (busy, oversized, missing) are not recorded.
func (s *Service) ParseScene(ctx context.Context, up SceneUpload) (*ParseResult, error) {
	if up.Body == nil {
		return nil, ErrNoScene
	}
	if up.Size > s.upload.MaxSceneSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrSceneTooLarge, up.Size, s.upload.MaxSceneSize)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	id := s.newID()
	logger := logging.Enrich(ctx, s.logger).With("parse_id", id, "file", up.Filename)

	parseCtx, cancel := context.WithTimeout(ctx, s.upload.ParseTimeout)
	defer cancel()

	start := s.now()
	body, counter := WrapForStreaming(up.Body, s.upload.MaxSceneSize)
	sc, err := scene.ParseContext(parseCtx, body, scene.WithLogger(logger))
	if err == nil && counter.BytesRead() == 0 {
		err = ErrEmptyScene
	}
	elapsed := s.now().Sub(start)

	entry := HistoryEntry{
		ID:        id,
		Filename:  up.Filename,
		Bytes:     counter.BytesRead(),
		Duration:  elapsed,
		Status:    StatusOK,
		IPAddress: ClientIPFromContext(ctx),
		UserAgent: UserAgentFromContext(ctx),
		CreatedAt: start.UTC(),
	}
	if err != nil {
		entry.Status = StatusFailed
		entry.ErrorCode = MapError(err).Code
	} else {
		stats := sc.Stats()
		entry.Routes = sc.RouteCount()
		entry.Channels = stats.Channels
		entry.Outputs = stats.Outputs
	}

	// The request may already be cancelled; the attempt is still recorded.
	if recErr := s.history.Record(context.WithoutCancel(ctx), entry); recErr != nil {
		logger.Warn("failed to record parse history", "error", recErr)
	}

	if err != nil {
		logger.Info("scene parse failed", "code", entry.ErrorCode, "error", err, "bytes", entry.Bytes)
		return nil, fmt.Errorf("parse %s: %w", up.Filename, err)
	}

	logger.Info("scene parsed",
		"bytes", entry.Bytes,
		"routes", entry.Routes,
		"channels", entry.Channels,
		"outputs", entry.Outputs,
		"ignored", sc.Stats().Ignored,
		"duration", elapsed,
	)

	return &ParseResult{
		ID:       id,
		Filename: up.Filename,
		Scene:    sc,
		Bytes:    entry.Bytes,
		Duration: elapsed,
	}, nil
}

// History returns recent parses, newest first. limit is clamped to the
// configured page size.
func (s *Service) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 || limit > s.pageLimit {
		limit = s.pageLimit
	}
	entries, err := s.history.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent history: %w", err)
	}
	return entries, nil
}

// LimiterStatus reports parse slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForParses blocks until in-flight parses finish or ctx is done.
func (s *Service) WaitForParses(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
