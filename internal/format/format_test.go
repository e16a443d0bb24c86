package format

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestCount(t *testing.T) {
	assert.Equal(t, "999", Count(999))
	assert.Equal(t, "1.5K", Count(1500))
	assert.Equal(t, "2.3M", Count(2_300_000))
}

func TestFileSize(t *testing.T) {
	assert.Equal(t, "512.0 B", FileSize(512))
	assert.Equal(t, "1.0 KB", FileSize(1024))
	assert.Equal(t, "50.0 MB", FileSize(50*1024*1024))
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "03:05", Duration(3*time.Minute+5*time.Second))
	assert.Equal(t, "01:02:03", Duration(time.Hour+2*time.Minute+3*time.Second))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "some_video_title", Filename("some video:title"))
	assert.NotContains(t, Filename(`a<b>c"d/e\f|g?h*i`), "<")

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	assert.LessOrEqual(t, len(Filename(string(long))), 200)
}

func TestCaption(t *testing.T) {
	assert.Equal(t, "a b c", Caption("a\n\n b \t c"))

	long := make([]byte, 1500)
	for i := range long {
		long[i] = 'x'
	}
	got := Caption(string(long))
	assert.LessOrEqual(t, len(got), 1003)
	assert.True(t, len(got) > 0)

	t.Run("truncates on a rune boundary", func(t *testing.T) {
		got := Caption(strings.Repeat("日", 500))
		assert.True(t, utf8.ValidString(got))
		assert.True(t, strings.HasSuffix(got, "..."))
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "longer ...", Truncate("longer text than limit", 10))

	t.Run("never splits a multi-byte rune", func(t *testing.T) {
		got := Truncate(strings.Repeat("é", 20), 10)
		assert.True(t, utf8.ValidString(got))
		assert.LessOrEqual(t, len(got), 10)
	})

	t.Run("tiny limits stay valid", func(t *testing.T) {
		got := Truncate("🎉🎉🎉", 3)
		assert.True(t, utf8.ValidString(got))
		assert.LessOrEqual(t, len(got), 3)
	})
}

func TestGroupedCount(t *testing.T) {
	assert.Equal(t, "999", GroupedCount(999))
	assert.Equal(t, "1,234", GroupedCount(1234))
	assert.Equal(t, "1,234,567", GroupedCount(1234567))
}
