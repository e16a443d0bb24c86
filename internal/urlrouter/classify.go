package urlrouter

import (
	"net/url"
	"regexp"
	"strings"
)

// Kind is the routing decision for a submitted link.
type Kind int

const (
	// KindNone means no downloadable link was found. Never treat it as
	// downloadable by default.
	KindNone Kind = iota
	// KindProviderLink routes to the verification-capable provider backend.
	KindProviderLink
	// KindGenericLink routes to the generic media backend.
	KindGenericLink
)

// String returns a human readable name for logging.
func (k Kind) String() string {
	switch k {
	case KindProviderLink:
		return "provider"
	case KindGenericLink:
		return "generic"
	default:
		return "none"
	}
}

// providerHosts are hostnames handled by the verification-capable provider.
var providerHosts = map[string]struct{}{
	"instagram.com": {},
}

// genericHosts are hostnames handled by the generic media backend.
var genericHosts = map[string]struct{}{
	"youtube.com":    {},
	"youtu.be":       {},
	"soundcloud.com": {},
	"twitter.com":    {},
	"x.com":          {},
	"tiktok.com":     {},
	"vimeo.com":      {},
	"dailymotion.com": {},
	"twitch.tv":      {},
	"facebook.com":   {},
	"fb.watch":       {},
	"reddit.com":     {},
	"streamable.com": {},
	"bandcamp.com":   {},
	"mixcloud.com":   {},
	"bilibili.com":   {},
}

var (
	urlPattern       = regexp.MustCompile(`https?://[^\s<>"{}|\\^` + "`" + `\[\]]+`)
	shortcodePattern = regexp.MustCompile(`instagram\.com/(?:p|reel|tv)/([A-Za-z0-9_-]+)`)
	storyPattern     = regexp.MustCompile(`instagram\.com/stories/[^/]+/(\d+)`)
)

// Classify extracts the first URL embedded in free text and decides which
// backend should handle it. Provider links win when a URL would match both
// allow-lists. Hostname matching is exact-or-subdomain, never substring, so
// look-alike hosts such as "instagram.com.evil.com" are rejected.
func Classify(text string) (Kind, string) {
	raw := extractURL(text)
	if raw == "" {
		return KindNone, ""
	}

	host := hostname(raw)
	if host == "" {
		return KindNone, ""
	}

	if matchesAllowList(host, providerHosts) {
		return KindProviderLink, raw
	}
	if matchesAllowList(host, genericHosts) {
		return KindGenericLink, raw
	}
	return KindNone, ""
}

// ParseShortcode extracts the post shortcode from a provider URL, handling
// post, reel, tv and story paths. Returns empty string when none is present.
func ParseShortcode(rawURL string) string {
	if m := shortcodePattern.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	if m := storyPattern.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	return ""
}

// extractURL finds the first URL in free text and strips trailing punctuation
// that commonly rides along when links are pasted into prose.
func extractURL(text string) string {
	match := urlPattern.FindString(text)
	if match == "" {
		return ""
	}
	return strings.TrimRight(match, ".,;:!?)")
}

// hostname parses the URL and returns its lowercased host with any "www."
// prefix removed. Returns empty string for unparseable input.
func hostname(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// matchesAllowList reports whether host is an allow-listed domain or a true
// subdomain of one. Suffix tricks like "evil-instagram.com" do not match.
func matchesAllowList(host string, allowed map[string]struct{}) bool {
	if _, ok := allowed[host]; ok {
		return true
	}
	for domain := range allowed {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
