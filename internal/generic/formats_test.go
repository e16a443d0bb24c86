package generic

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxbot/MXBot_Go/internal/domain"
)

func TestBuildQualityOptions(t *testing.T) {
	t.Run("dedupes by label and sorts highest first", func(t *testing.T) {
		raw := []rawFormat{
			{FormatID: "1", Height: 480, HasVideo: true},
			{FormatID: "2", Height: 1080, HasVideo: true},
			{FormatID: "3", Height: 1080, HasVideo: true}, // duplicate tier
			{FormatID: "4", Height: 720, HasVideo: true},
			{FormatID: "5", HasAudio: true}, // audio-only, folded away
		}

		options := buildQualityOptions(raw)
		require.Len(t, options, 4) // 3 tiers + audio

		assert.Equal(t, "1080p", options[0].Label)
		assert.Equal(t, "2", options[0].FormatID, "first format wins the tier")
		assert.Equal(t, "720p", options[1].Label)
		assert.Equal(t, "480p", options[2].Label)

		audio := options[len(options)-1]
		assert.True(t, audio.Audio)
		assert.Equal(t, "audio", audio.Label)
	})

	t.Run("caps video tiers and keeps audio option", func(t *testing.T) {
		var raw []rawFormat
		for h := 144; h <= 4320; h += 144 {
			raw = append(raw, rawFormat{FormatID: fmt.Sprintf("f%d", h), Height: h, HasVideo: true})
		}

		options := buildQualityOptions(raw)
		require.Len(t, options, domain.MaxQualityOptions+1)
		assert.True(t, options[len(options)-1].Audio)

		for i := 1; i < len(options)-1; i++ {
			assert.Greater(t, options[i-1].Height, options[i].Height)
		}
	})

	t.Run("falls back to note then format id for label", func(t *testing.T) {
		raw := []rawFormat{
			{FormatID: "hls-1", FormatNote: "low", HasVideo: true},
			{FormatID: "hls-2", HasVideo: true},
		}
		options := buildQualityOptions(raw)
		require.Len(t, options, 3)
		assert.Equal(t, "low", options[0].Label)
		assert.Equal(t, "hls-2", options[1].Label)
	})

	t.Run("no formats still offers audio", func(t *testing.T) {
		options := buildQualityOptions(nil)
		require.Len(t, options, 1)
		assert.True(t, options[0].Audio)
	})
}
