package session

import (
	"encoding/json"
	"fmt"

	"github.com/mxbot/MXBot_Go/internal/domain"
)

// ValidateBlob checks that an uploaded credential blob is well-formed JSON
// before it is persisted or handed to the provider client.
func ValidateBlob(blob []byte) error {
	var data map[string]any
	if err := json.Unmarshal(blob, &data); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidBlob, err)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: empty document", domain.ErrInvalidBlob)
	}
	return nil
}

// ExtractUsername pulls the provider username out of a credential blob. The
// blob format places it under authorization_data.ds_user or uuids.username
// depending on client version; any nested object with a username/ds_user key
// is accepted as a last resort. Returns empty string when none is found.
func ExtractUsername(blob []byte) string {
	var data map[string]any
	if err := json.Unmarshal(blob, &data); err != nil {
		return ""
	}

	if auth, ok := data["authorization_data"].(map[string]any); ok {
		if user, ok := auth["ds_user"].(string); ok && user != "" {
			return user
		}
	}
	if uuids, ok := data["uuids"].(map[string]any); ok {
		if user, ok := uuids["username"].(string); ok && user != "" {
			return user
		}
	}

	for _, value := range data {
		nested, ok := value.(map[string]any)
		if !ok {
			continue
		}
		if user, ok := nested["username"].(string); ok && user != "" {
			return user
		}
		if user, ok := nested["ds_user"].(string); ok && user != "" {
			return user
		}
	}
	return ""
}
