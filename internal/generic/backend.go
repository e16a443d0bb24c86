// Package generic wraps the yt-dlp based backend used for everything that
// is not a provider link: metadata probes, quality selection and fetches.
package generic

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/mxbot/MXBot_Go/internal/domain"
	"github.com/mxbot/MXBot_Go/internal/logger"
)

// Selection describes what the user (or the default policy) asked for.
type Selection struct {
	// Audio requests audio-only extraction to mp3.
	Audio bool
	// FormatID pins a specific probe-reported format. Empty means best.
	FormatID string
	// Height caps the resolution when no FormatID is pinned.
	Height int
}

// Best is the default selection used when metadata was unavailable.
var Best = Selection{}

// Backend executes yt-dlp probes and fetches.
type Backend struct {
	probeTimeout time.Duration
	fetchTimeout time.Duration
}

// NewBackend creates the generic backend. Install ensures the yt-dlp binary
// is available; call it once at startup.
func NewBackend(probeTimeout, fetchTimeout time.Duration) *Backend {
	return &Backend{
		probeTimeout: probeTimeout,
		fetchTimeout: fetchTimeout,
	}
}

// Install downloads the yt-dlp binary when it is not already present.
func Install(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, &ytdlp.InstallOptions{}); err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	return nil
}

// ProbeInfo fetches metadata without downloading. Failures map to
// domain.ErrProbeFailed; callers treat metadata as an enhancement and fall
// back to a best-quality direct fetch.
func (b *Backend) ProbeInfo(ctx context.Context, url string) (*domain.ProbeInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, b.probeTimeout)
	defer cancel()

	dl := ytdlp.New().
		Quiet().
		NoWarnings().
		SkipDownload().
		DumpSingleJSON()

	result, err := dl.Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProbeFailed, err)
	}

	infos, err := result.GetExtractedInfo()
	if err != nil || len(infos) == 0 {
		return nil, fmt.Errorf("%w: no metadata extracted", domain.ErrProbeFailed)
	}
	info := infos[0]

	probe := &domain.ProbeInfo{
		Title:     strOr(info.Title, "Unknown"),
		Uploader:  strOr(info.Uploader, strOr(info.Channel, "Unknown")),
		Duration:  time.Duration(floatOr(info.Duration, 0)) * time.Second,
		ViewCount: int64(floatOr(info.ViewCount, 0)),
	}

	var raw []rawFormat
	for _, f := range info.Formats {
		if f == nil {
			continue
		}
		vcodec := strOr(f.VCodec, "none")
		acodec := strOr(f.ACodec, "none")
		raw = append(raw, rawFormat{
			FormatID:   strOr(f.FormatID, ""),
			Ext:        strOr(f.Extension, ""),
			Height:     int(floatOr(f.Height, 0)),
			Width:      int(floatOr(f.Width, 0)),
			Filesize:   int64(intOr(f.FileSize, intOr(f.FileSizeApprox, 0))),
			FormatNote: strOr(f.FormatNote, ""),
			HasVideo:   vcodec != "none",
			HasAudio:   acodec != "none",
		})
	}
	probe.Formats = buildQualityOptions(raw)

	return probe, nil
}

// Fetch downloads url into outDir according to the selection and returns
// what landed on disk.
func (b *Backend) Fetch(ctx context.Context, url string, sel Selection, outDir string) (*domain.FetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, b.fetchTimeout)
	defer cancel()

	log := logger.FromContext(ctx)

	dl := ytdlp.New().
		ForceOverwrites().
		RestrictFilenames().
		NoWarnings().
		Output(filepath.Join(outDir, "%(title).100s.%(ext)s"))

	switch {
	case sel.Audio:
		dl = dl.ExtractAudio().AudioFormat("mp3").AudioQuality("192K").Format("bestaudio/best")
	case sel.FormatID != "":
		dl = dl.Format(sel.FormatID + "+bestaudio/best")
	case sel.Height > 0:
		dl = dl.Format(fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", sel.Height, sel.Height))
	default:
		dl = dl.Format("bestvideo+bestaudio/best")
	}

	result, err := dl.Run(ctx, url)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: fetch timed out", domain.ErrFetchFailed)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}

	infos, err := result.GetExtractedInfo()
	if err != nil || len(infos) == 0 {
		return nil, fmt.Errorf("%w: download produced no metadata", domain.ErrFetchFailed)
	}
	info := infos[0]

	path := strOr(info.Filename, "")
	if sel.Audio {
		// Post-processing replaced the container; point at the mp3.
		mp3 := strings.TrimSuffix(path, filepath.Ext(path)) + ".mp3"
		if _, statErr := os.Stat(mp3); statErr == nil {
			path = mp3
		}
	}
	if path == "" {
		return nil, fmt.Errorf("%w: no output file reported", domain.ErrFetchFailed)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: output file missing: %v", domain.ErrFetchFailed, err)
	}

	kind := domain.MediaKindVideo
	if sel.Audio {
		kind = domain.MediaKindAudio
	}

	log.Info("Generic fetch complete", "url", url, "path", path, "audio", sel.Audio)

	return &domain.FetchResult{
		Paths:    []string{path},
		Title:    strOr(info.Title, "Unknown"),
		Uploader: strOr(info.Uploader, strOr(info.Channel, "Unknown")),
		Kind:     kind,
		IsAudio:  sel.Audio,
	}, nil
}

func strOr(p *string, fallback string) string {
	if p != nil && *p != "" {
		return *p
	}
	return fallback
}

func floatOr(p *float64, fallback float64) float64 {
	if p != nil {
		return *p
	}
	return fallback
}

func intOr(p *int, fallback int) int {
	if p != nil {
		return *p
	}
	return fallback
}
