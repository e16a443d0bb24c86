package repository

import (
	"context"

	"github.com/mxbot/MXBot_Go/internal/domain"
)

// Download defines data access for download history.
type Download interface {
	// RecordDownload appends a delivery summary to history.
	RecordDownload(ctx context.Context, record *domain.DownloadRecord) error

	// IncrementDownloadCounter bumps the per-identity counter.
	IncrementDownloadCounter(ctx context.Context, userID string) error

	// TotalDownloads returns the all-time download count.
	TotalDownloads(ctx context.Context) (int64, error)

	// DownloadsByKind returns per-media-kind totals for the admin surface.
	DownloadsByKind(ctx context.Context) (map[domain.MediaKind]int64, error)
}
