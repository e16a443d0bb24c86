package domain

import "time"

// MediaKind classifies a delivered file for transport upload.
type MediaKind string

const (
	MediaKindPhoto    MediaKind = "photo"
	MediaKindVideo    MediaKind = "video"
	MediaKindAudio    MediaKind = "audio"
	MediaKindDocument MediaKind = "document"
	MediaKindCarousel MediaKind = "album"
)

// Backend identifies which acquisition backend produced a download.
type Backend string

const (
	BackendProvider Backend = "provider"
	BackendGeneric  Backend = "generic"
)

// MediaInfo is resolved post metadata from the verification-capable provider.
type MediaInfo struct {
	Kind          MediaKind `json:"kind"`
	OwnerUsername string    `json:"owner_username"`
	OwnerFullName string    `json:"owner_full_name"`
	Caption       string    `json:"caption"`
	LikeCount     int       `json:"like_count"`
	CommentCount  int       `json:"comment_count"`
	TakenAt       time.Time `json:"taken_at"`
}

// ProbeInfo is metadata from the generic backend's probe. Best-effort: a
// failed probe still allows a default-quality download.
type ProbeInfo struct {
	Title     string          `json:"title"`
	Uploader  string          `json:"uploader"`
	Duration  time.Duration   `json:"duration"`
	ViewCount int64           `json:"view_count"`
	Formats   []QualityOption `json:"formats"`
}

// QualityOption is one distinct resolution-labelled download choice.
type QualityOption struct {
	Label    string `json:"label"` // e.g. "1080p", "audio"
	FormatID string `json:"format_id"`
	Height   int    `json:"height"`
	Filesize int64  `json:"filesize"`
	Audio    bool   `json:"audio"`
}

// FetchResult is what a backend fetch produced on disk.
type FetchResult struct {
	Paths    []string  `json:"paths"`
	Title    string    `json:"title"`
	Uploader string    `json:"uploader"`
	Kind     MediaKind `json:"kind"`
	IsAudio  bool      `json:"is_audio"`
}

// DownloadRecord is the persisted summary of a successful delivery.
type DownloadRecord struct {
	UserID    string    `json:"user_id"`
	Kind      MediaKind `json:"kind"`
	Backend   Backend   `json:"backend"`
	SourceURL string    `json:"source_url"`
	ByteSize  int64     `json:"byte_size"`
	CreatedAt time.Time `json:"created_at"`
}
