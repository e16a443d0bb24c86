package urlrouter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Run("provider link in plain text", func(t *testing.T) {
		kind, url := Classify("check this out https://instagram.com/p/ABC123/")
		assert.Equal(t, KindProviderLink, kind)
		assert.Equal(t, "https://instagram.com/p/ABC123/", url)
	})

	t.Run("provider link with www prefix", func(t *testing.T) {
		kind, _ := Classify("https://www.instagram.com/reel/XyZ_9/")
		assert.Equal(t, KindProviderLink, kind)
	})

	t.Run("generic link", func(t *testing.T) {
		kind, url := Classify("https://youtube.com/watch?v=xyz")
		assert.Equal(t, KindGenericLink, kind)
		assert.Equal(t, "https://youtube.com/watch?v=xyz", url)
	})

	t.Run("true subdomain is accepted", func(t *testing.T) {
		kind, _ := Classify("https://music.youtube.com/watch?v=xyz")
		assert.Equal(t, KindGenericLink, kind)
	})

	t.Run("trailing punctuation is stripped", func(t *testing.T) {
		kind, url := Classify("look: https://youtu.be/abc123!")
		assert.Equal(t, KindGenericLink, kind)
		assert.Equal(t, "https://youtu.be/abc123", url)
	})

	t.Run("suffix trick hostname is rejected", func(t *testing.T) {
		kind, _ := Classify("https://instagram.com.evil.com/p/ABC/")
		assert.Equal(t, KindNone, kind)
	})

	t.Run("path lookalike is rejected", func(t *testing.T) {
		kind, _ := Classify("https://evil.com/instagram.com/p/ABC/")
		assert.Equal(t, KindNone, kind)
	})

	t.Run("superstring domain is rejected", func(t *testing.T) {
		kind, _ := Classify("https://notinstagram.com/p/ABC/")
		assert.Equal(t, KindNone, kind)

		kind, _ = Classify("https://evil-youtube.com/watch?v=x")
		assert.Equal(t, KindNone, kind)
	})

	t.Run("no url yields none", func(t *testing.T) {
		kind, url := Classify("just some text without links")
		assert.Equal(t, KindNone, kind)
		assert.Empty(t, url)
	})

	t.Run("unknown host yields none", func(t *testing.T) {
		kind, _ := Classify("https://example.org/video.mp4")
		assert.Equal(t, KindNone, kind)
	})
}

func TestParseShortcode(t *testing.T) {
	t.Run("post", func(t *testing.T) {
		assert.Equal(t, "ABC123", ParseShortcode("https://instagram.com/p/ABC123/"))
	})

	t.Run("reel", func(t *testing.T) {
		assert.Equal(t, "XyZ_9-a", ParseShortcode("https://www.instagram.com/reel/XyZ_9-a/"))
	})

	t.Run("igtv", func(t *testing.T) {
		assert.Equal(t, "TvCode", ParseShortcode("https://instagram.com/tv/TvCode/"))
	})

	t.Run("story", func(t *testing.T) {
		assert.Equal(t, "12345", ParseShortcode("https://instagram.com/stories/someuser/12345/"))
	})

	t.Run("profile url has no shortcode", func(t *testing.T) {
		assert.Empty(t, ParseShortcode("https://instagram.com/someuser/"))
	})
}
