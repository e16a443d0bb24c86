package generic

import (
	"fmt"
	"sort"

	"github.com/mxbot/MXBot_Go/internal/domain"
)

// rawFormat is one format entry as reported by the backend probe, before
// tier deduplication.
type rawFormat struct {
	FormatID   string
	Ext        string
	Height     int
	Width      int
	Filesize   int64
	FormatNote string
	HasVideo   bool
	HasAudio   bool
}

// buildQualityOptions turns raw probe formats into the menu shown to the
// user: distinct height-labelled video tiers, highest first, capped at
// domain.MaxQualityOptions, plus one audio-only extraction option.
func buildQualityOptions(raw []rawFormat) []domain.QualityOption {
	seen := make(map[string]struct{})
	var options []domain.QualityOption

	for _, f := range raw {
		// Audio-only formats are folded into the single audio option below.
		if !f.HasVideo {
			continue
		}

		label := f.FormatNote
		if f.Height > 0 {
			label = fmt.Sprintf("%dp", f.Height)
		}
		if label == "" {
			label = f.FormatID
		}

		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}

		options = append(options, domain.QualityOption{
			Label:    label,
			FormatID: f.FormatID,
			Height:   f.Height,
			Filesize: f.Filesize,
		})
	}

	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Height > options[j].Height
	})

	if len(options) > domain.MaxQualityOptions {
		options = options[:domain.MaxQualityOptions]
	}

	options = append(options, domain.QualityOption{
		Label: "audio",
		Audio: true,
	})
	return options
}
