package pipeline

import (
	"fmt"
	"strings"

	"github.com/mxbot/MXBot_Go/internal/domain"
	"github.com/mxbot/MXBot_Go/internal/format"
)

// providerCaption builds the delivery caption from resolved post metadata.
func providerCaption(info *domain.MediaInfo) string {
	if info == nil {
		return ""
	}
	var b strings.Builder
	if info.OwnerUsername != "" {
		fmt.Fprintf(&b, "@%s", info.OwnerUsername)
	}
	if info.Caption != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(format.Caption(info.Caption))
	}
	if info.LikeCount > 0 || info.CommentCount > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "❤️ %s   💬 %s",
			format.Count(int64(info.LikeCount)),
			format.Count(int64(info.CommentCount)))
	}
	return b.String()
}

// genericCaption builds the delivery caption from probe metadata or, when
// the probe failed, from what the fetch itself reported.
func genericCaption(probe *domain.ProbeInfo, fetched *domain.FetchResult) string {
	title := ""
	uploader := ""
	if probe != nil {
		title = probe.Title
		uploader = probe.Uploader
	}
	if title == "" && fetched != nil {
		title = fetched.Title
	}
	if uploader == "" && fetched != nil {
		uploader = fetched.Uploader
	}

	var b strings.Builder
	if title != "" {
		b.WriteString(format.Truncate(title, 200))
	}
	if uploader != "" && uploader != "Unknown" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "👤 %s", uploader)
	}
	if probe != nil && probe.Duration > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "⏱ %s", format.Duration(probe.Duration))
		if probe.ViewCount > 0 {
			fmt.Fprintf(&b, "   👁 %s", format.Count(probe.ViewCount))
		}
	}
	return b.String()
}
