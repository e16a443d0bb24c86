package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/mxbot/MXBot_Go/internal/domain"
)

// kindForFile classifies a downloaded file for transport upload from its
// extension, with the backend's hint winning when the extension is unknown.
func kindForFile(path string, hint domain.MediaKind) domain.MediaKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".webp", ".heic":
		return domain.MediaKindPhoto
	case ".mp4", ".mkv", ".webm", ".mov", ".avi":
		return domain.MediaKindVideo
	case ".mp3", ".m4a", ".ogg", ".opus", ".wav", ".flac":
		return domain.MediaKindAudio
	}
	if hint != "" && hint != domain.MediaKindCarousel {
		return hint
	}
	return domain.MediaKindDocument
}
