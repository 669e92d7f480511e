package cataloging

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrUnparsableResponse is returned when the model's answer is not a JSON object
var ErrUnparsableResponse = errors.New("response is not a JSON object")

// ParseDescriptions parses a model answer into a filename to description map.
// The JSON object may be wrapped in a ```json or unlabeled ``` code fence.
// Entries whose value is not a string are skipped.
func ParseDescriptions(response string) (map[string]string, error) {
	raw := extractJSON(response)

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparsableResponse, err)
	}
	if decoded == nil {
		return nil, fmt.Errorf("%w: got null", ErrUnparsableResponse)
	}

	descriptions := make(map[string]string, len(decoded))
	for name, value := range decoded {
		desc, ok := value.(string)
		if !ok {
			slog.Debug("Skipping non-string description", "file", name, "type", fmt.Sprintf("%T", value))
			continue
		}
		descriptions[name] = strings.TrimSpace(desc)
	}
	return descriptions, nil
}

// extractJSON returns the body of the first fenced block, preferring one
// labeled json. Text without a fence is returned trimmed.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	for _, fence := range []string{"```json", "```"} {
		start := strings.Index(response, fence)
		if start == -1 {
			continue
		}
		body := response[start+len(fence):]
		if end := strings.Index(body, "```"); end != -1 {
			body = body[:end]
		}
		return strings.TrimSpace(body)
	}

	return response
}
