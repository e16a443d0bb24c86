package format

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	maxFilenameLength = 200
	maxCaptionLength  = 1000
)

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// Count renders a number compactly (1.2K, 3.4M) for captions.
func Count(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

var groupedPrinter = message.NewPrinter(language.English)

// GroupedCount renders a number with thousands separators for stats output.
func GroupedCount(n int64) string {
	return groupedPrinter.Sprintf("%d", n)
}

// FileSize renders a byte count as a human readable size.
func FileSize(bytes int64) string {
	size := float64(bytes)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024.0 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024.0
	}
	return fmt.Sprintf("%.1f TB", size)
}

// Duration renders a duration as MM:SS or HH:MM:SS.
func Duration(d time.Duration) string {
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// Filename sanitizes a title for safe storage on disk.
func Filename(name string) string {
	name = invalidFilenameChars.ReplaceAllString(name, "")
	name = strings.ReplaceAll(name, " ", "_")
	if len(name) > maxFilenameLength {
		ext := filepath.Ext(name)
		name = cutAtRune(name, maxFilenameLength-len(ext)) + ext
	}
	return name
}

// Caption collapses whitespace and truncates a caption for delivery.
func Caption(caption string) string {
	caption = strings.Join(strings.Fields(caption), " ")
	if len(caption) > maxCaptionLength {
		caption = cutAtRune(caption, maxCaptionLength) + "..."
	}
	return caption
}

// Truncate shortens text to at most maxLength bytes, appending an ellipsis
// when cut.
func Truncate(text string, maxLength int) string {
	if len(text) <= maxLength {
		return text
	}
	const suffix = "..."
	if maxLength <= len(suffix) {
		return cutAtRune(text, maxLength)
	}
	return cutAtRune(text, maxLength-len(suffix)) + suffix
}

// cutAtRune cuts text at the last rune boundary at or before max bytes, so a
// multi-byte character is never split mid-sequence.
func cutAtRune(text string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(text) <= max {
		return text
	}
	for max > 0 && !utf8.RuneStart(text[max]) {
		max--
	}
	return text[:max]
}
