package discord

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// parseCommand splits "/cmd arg arg" into its parts. Returns an empty cmd
// for anything that is not a command.
func parseCommand(content string) (string, []string) {
	if !strings.HasPrefix(content, "/") {
		return "", nil
	}
	fields := strings.Fields(content)
	cmd := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	return cmd, fields[1:]
}

// maxAttachmentBytes bounds credential blob downloads. Real blobs are a few
// kilobytes; anything bigger is not a session file.
const maxAttachmentBytes = 4 << 20

// fetchAttachment downloads an uploaded attachment from Discord's CDN.
func fetchAttachment(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build attachment request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("attachment fetch returned %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachmentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	if len(data) > maxAttachmentBytes {
		return nil, fmt.Errorf("attachment exceeds %d bytes", maxAttachmentBytes)
	}
	return data, nil
}
