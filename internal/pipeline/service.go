// Package pipeline implements the media acquisition flow: gate, classify,
// probe, negotiate quality, fetch, size-check, deliver, clean up, record.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mxbot/MXBot_Go/internal/domain"
	"github.com/mxbot/MXBot_Go/internal/generic"
	"github.com/mxbot/MXBot_Go/internal/logger"
	"github.com/mxbot/MXBot_Go/internal/metrics"
	"github.com/mxbot/MXBot_Go/internal/provider"
	"github.com/mxbot/MXBot_Go/internal/ratelimit"
	"github.com/mxbot/MXBot_Go/internal/repository"
	"github.com/mxbot/MXBot_Go/internal/transport"
	"github.com/mxbot/MXBot_Go/internal/urlrouter"
)

const (
	pendingSelectionTTL = 10 * time.Minute
	pendingSelectionCap = 512
)

// Status tells the chat layer what to render for a submission.
type Status int

const (
	// StatusDelivered means media was uploaded to the user.
	StatusDelivered Status = iota
	// StatusRateLimited means the cooldown denied the request.
	StatusRateLimited
	// StatusNotDownloadable means no allow-listed link was found.
	StatusNotDownloadable
	// StatusNeedsVerification means a provider link arrived from an identity
	// without a verified account. No network work was done.
	StatusNeedsVerification
	// StatusQualityChoice means a menu of quality options must be shown; the
	// flow resumes via Select or Cancel.
	StatusQualityChoice
)

// Result is the outcome of a submission or a quality selection.
type Result struct {
	Status     Status
	RetryAfter time.Duration
	Options    []domain.QualityOption
	Prompt     string
	Record     *domain.DownloadRecord
}

// Verifier answers whether an identity may use provider links.
type Verifier interface {
	HasVerified(ctx context.Context, userID string) (bool, error)
}

// SessionHandle hands out the shared authenticated provider client.
type SessionHandle interface {
	Handle() (provider.Client, error)
	Invalidate(ctx context.Context, reason string)
}

// GenericBackend is the yt-dlp based backend boundary.
type GenericBackend interface {
	ProbeInfo(ctx context.Context, url string) (*domain.ProbeInfo, error)
	Fetch(ctx context.Context, url string, sel generic.Selection, outDir string) (*domain.FetchResult, error)
}

// pendingJob is a probed link parked behind a quality menu.
type pendingJob struct {
	url     string
	probe   *domain.ProbeInfo
	options []domain.QualityOption
}

// Service runs the acquisition pipeline.
type Service struct {
	limiter   ratelimit.Service
	verifier  Verifier
	session   SessionHandle
	generic   GenericBackend
	downloads repository.Download
	users     repository.User
	messenger transport.Messenger

	pending *expirable.LRU[string, *pendingJob]

	downloadDir string
	cooldown    time.Duration
	now         func() time.Time
	newID       func() string
}

// NewService wires the acquisition pipeline.
func NewService(
	limiter ratelimit.Service,
	verifier Verifier,
	session SessionHandle,
	genericBackend GenericBackend,
	downloads repository.Download,
	users repository.User,
	messenger transport.Messenger,
	downloadDir string,
	cooldown time.Duration,
) *Service {
	return &Service{
		limiter:     limiter,
		verifier:    verifier,
		session:     session,
		generic:     genericBackend,
		downloads:   downloads,
		users:       users,
		messenger:   messenger,
		pending:     expirable.NewLRU[string, *pendingJob](pendingSelectionCap, nil, pendingSelectionTTL),
		downloadDir: downloadDir,
		cooldown:    cooldown,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Submit runs the pipeline for free text from one identity. It returns a
// typed Result for flows the chat layer must render, and an error only for
// failures (too large, fetch failed, banned, storage down).
func (s *Service) Submit(ctx context.Context, userID, text string) (*Result, error) {
	log := logger.FromContext(ctx)

	banned, err := s.users.IsBanned(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check ban list: %w", err)
	}
	if banned {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserBanned, userID)
	}

	kind, link := urlrouter.Classify(text)
	if kind == urlrouter.KindNone {
		return &Result{Status: StatusNotDownloadable}, nil
	}

	allowed, retryAfter, err := s.limiter.TryAcquire(ctx, userID, s.cooldown)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return &Result{Status: StatusRateLimited, RetryAfter: retryAfter}, nil
	}

	log.Info("Link accepted", "user_id", userID, "backend", kind.String())

	if kind == urlrouter.KindProviderLink {
		verified, err := s.verifier.HasVerified(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check verification: %w", err)
		}
		if !verified {
			return &Result{Status: StatusNeedsVerification}, nil
		}
		return s.runProvider(ctx, userID, link)
	}

	return s.runGeneric(ctx, userID, link)
}

// Select resumes a parked submission with the option the user picked.
func (s *Service) Select(ctx context.Context, userID string, optionIndex int) (*Result, error) {
	job, ok := s.pending.Get(userID)
	if !ok {
		return nil, fmt.Errorf("%w: nothing pending for this chat", domain.ErrSelectionExpired)
	}
	if optionIndex < 0 || optionIndex >= len(job.options) {
		return nil, fmt.Errorf("%w: option %d out of range", domain.ErrInvalidInput, optionIndex)
	}
	s.pending.Remove(userID)

	opt := job.options[optionIndex]
	sel := generic.Selection{Audio: opt.Audio, FormatID: opt.FormatID, Height: opt.Height}
	return s.fetchGeneric(ctx, userID, job.url, sel, job.probe)
}

// Cancel drops a parked quality menu. It reports whether one existed and
// never touches other conversation state.
func (s *Service) Cancel(userID string) bool {
	return s.pending.Remove(userID)
}

// runProvider acquires a provider post through the shared session, falling
// back once to the generic backend when the provider fetch fails. Only the
// fetch retries: a size-gate rejection or a delivery error is final and is
// returned as-is, never re-downloaded.
func (s *Service) runProvider(ctx context.Context, userID, link string) (*Result, error) {
	log := logger.FromContext(ctx)

	dir, cleanup, err := s.scratchDir()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	paths, info, err := s.fetchProvider(ctx, link, dir)
	if err != nil {
		if domain.IsAuthError(err) {
			s.session.Invalidate(ctx, "auth error during download")
		}
		log.Warn("Provider fetch failed, falling back to generic backend", "user_id", userID, "error", err)
		metrics.DownloadFailures.WithLabelValues("provider_fallback").Inc()
		return s.fetchGeneric(ctx, userID, link, generic.Best, nil)
	}

	total, err := s.gateSize(paths)
	if err != nil {
		return nil, err
	}

	hint := domain.MediaKindPhoto
	if info != nil {
		hint = info.Kind
	}

	recordKind, err := s.deliver(ctx, userID, paths, hint, providerCaption(info))
	if err != nil {
		return nil, err
	}

	return s.record(ctx, userID, link, domain.BackendProvider, recordKind, total)
}

// fetchProvider covers the acquisition steps only: session handle, post
// resolution, metadata and the download into dir.
func (s *Service) fetchProvider(ctx context.Context, link, dir string) ([]string, *domain.MediaInfo, error) {
	log := logger.FromContext(ctx)

	client, err := s.session.Handle()
	if err != nil {
		return nil, nil, err
	}

	mediaID, err := client.ResolvePostID(ctx, link)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve post: %w", err)
	}

	// Metadata is an enhancement; the download proceeds without it.
	info, err := client.FetchPostInfo(ctx, mediaID)
	if err != nil {
		if domain.IsAuthError(err) {
			return nil, nil, err
		}
		log.Warn("Post metadata unavailable", "media_id", mediaID, "error", err)
		info = nil
	}

	paths, err := client.DownloadPost(ctx, mediaID, dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to download post: %w", err)
	}
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("%w: post produced no files", domain.ErrFetchFailed)
	}
	return paths, info, nil
}

// runGeneric probes the link and either parks it behind a quality menu or
// fetches immediately. A failed probe degrades to a best-quality fetch.
func (s *Service) runGeneric(ctx context.Context, userID, link string) (*Result, error) {
	log := logger.FromContext(ctx)

	probe, err := s.generic.ProbeInfo(ctx, link)
	if err != nil {
		log.Warn("Probe failed, downloading best quality", "user_id", userID, "error", err)
		return s.fetchGeneric(ctx, userID, link, generic.Best, nil)
	}

	if len(probe.Formats) > 1 {
		s.pending.Add(userID, &pendingJob{url: link, probe: probe, options: probe.Formats})
		return &Result{
			Status:  StatusQualityChoice,
			Options: probe.Formats,
			Prompt:  genericCaption(probe, nil),
		}, nil
	}

	sel := generic.Best
	if len(probe.Formats) == 1 {
		opt := probe.Formats[0]
		sel = generic.Selection{Audio: opt.Audio, FormatID: opt.FormatID, Height: opt.Height}
	}
	return s.fetchGeneric(ctx, userID, link, sel, probe)
}

func (s *Service) fetchGeneric(ctx context.Context, userID, link string, sel generic.Selection, probe *domain.ProbeInfo) (*Result, error) {
	dir, cleanup, err := s.scratchDir()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	fetched, err := s.generic.Fetch(ctx, link, sel, dir)
	if err != nil {
		metrics.DownloadFailures.WithLabelValues("fetch").Inc()
		return nil, err
	}
	if len(fetched.Paths) == 0 {
		return nil, fmt.Errorf("%w: fetch produced no files", domain.ErrFetchFailed)
	}

	total, err := s.gateSize(fetched.Paths)
	if err != nil {
		return nil, err
	}

	caption := genericCaption(probe, fetched)

	recordKind, err := s.deliver(ctx, userID, fetched.Paths, fetched.Kind, caption)
	if err != nil {
		return nil, err
	}

	return s.record(ctx, userID, link, domain.BackendGeneric, recordKind, total)
}

// gateSize enforces the per-file delivery limit and returns the total byte
// size. Exactly the limit passes; one byte over does not. Oversized files
// are removed here and the whole scratch dir goes with the deferred cleanup.
func (s *Service) gateSize(paths []string) (int64, error) {
	var total int64
	for _, path := range paths {
		fi, err := os.Stat(path)
		if err != nil {
			return 0, fmt.Errorf("%w: cannot stat output: %v", domain.ErrFetchFailed, err)
		}
		if fi.Size() > domain.MaxDeliverableBytes {
			_ = os.Remove(path)
			metrics.DownloadFailures.WithLabelValues("too_large").Inc()
			return 0, fmt.Errorf("%w: %d bytes", domain.ErrFileTooLarge, fi.Size())
		}
		total += fi.Size()
	}
	return total, nil
}

// deliver uploads every file, captioning only the first, and returns the
// media kind to record (album when more than one file was sent).
func (s *Service) deliver(ctx context.Context, userID string, paths []string, hint domain.MediaKind, caption string) (domain.MediaKind, error) {
	recordKind := domain.MediaKind("")
	for i, path := range paths {
		media := transport.Media{Path: path, Kind: kindForFile(path, hint)}
		if i == 0 {
			media.Caption = caption
			recordKind = media.Kind
		}
		if err := s.messenger.SendMedia(ctx, userID, media); err != nil {
			metrics.DownloadFailures.WithLabelValues("transport").Inc()
			return "", fmt.Errorf("failed to deliver media: %w", err)
		}
	}
	if len(paths) > 1 {
		recordKind = domain.MediaKindCarousel
	}
	return recordKind, nil
}

func (s *Service) record(ctx context.Context, userID, link string, backend domain.Backend, kind domain.MediaKind, total int64) (*Result, error) {
	log := logger.FromContext(ctx)

	rec := &domain.DownloadRecord{
		UserID:    userID,
		Kind:      kind,
		Backend:   backend,
		SourceURL: link,
		ByteSize:  total,
		CreatedAt: s.now(),
	}
	if err := s.downloads.RecordDownload(ctx, rec); err != nil {
		// Delivery already happened; history is best-effort.
		log.Error("Failed to record download", "user_id", userID, "error", err)
	}
	if err := s.downloads.IncrementDownloadCounter(ctx, userID); err != nil {
		log.Error("Failed to bump download counter", "user_id", userID, "error", err)
	}

	metrics.DownloadsTotal.WithLabelValues(string(backend), string(kind)).Inc()
	metrics.DownloadBytes.Add(float64(total))

	log.Info("Download delivered", "user_id", userID, "backend", backend, "kind", kind, "bytes", total)

	return &Result{Status: StatusDelivered, Record: rec}, nil
}

// scratchDir creates the per-job working directory. The returned cleanup
// removes it with everything inside and runs on every exit path.
func (s *Service) scratchDir() (string, func(), error) {
	dir := filepath.Join(s.downloadDir, s.newID())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}
