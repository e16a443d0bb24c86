package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mxbot/MXBot_Go/internal/domain"
)

// DownloadRepository implements repository.Download for PostgreSQL
type DownloadRepository struct {
	db *pgxpool.Pool
}

// NewDownloadRepository creates a new DownloadRepository
func NewDownloadRepository(db *pgxpool.Pool) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// RecordDownload appends a delivery summary to history
func (r *DownloadRepository) RecordDownload(ctx context.Context, record *domain.DownloadRecord) error {
	query := `
		INSERT INTO downloads (user_id, kind, backend, source_url, byte_size, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		record.UserID,
		record.Kind,
		record.Backend,
		record.SourceURL,
		record.ByteSize,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToRecordDownload, err)
	}
	return nil
}

// IncrementDownloadCounter bumps the per-identity counter
func (r *DownloadRepository) IncrementDownloadCounter(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET download_count = download_count + 1, updated_at = NOW()
		WHERE user_id = $1
	`
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToRecordDownload, err)
	}
	return nil
}

// TotalDownloads returns the all-time download count
func (r *DownloadRepository) TotalDownloads(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM downloads`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToCountDownloads, err)
	}
	return count, nil
}

// DownloadsByKind returns per-media-kind totals for the admin surface
func (r *DownloadRepository) DownloadsByKind(ctx context.Context) (map[domain.MediaKind]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT kind, COUNT(*) FROM downloads GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToCountDownloads, err)
	}
	defer rows.Close()

	totals := make(map[domain.MediaKind]int64)
	for rows.Next() {
		var kind domain.MediaKind
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToCountDownloads, err)
		}
		totals[kind] = count
	}
	return totals, rows.Err()
}
