package providers

import (
	"context"

	"github.com/lehigh-university-libraries/asset-cataloger/internal/images"
)

// Config represents a single request to a vision-capable LLM provider
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Prompt      string
	// Images are sent ahead of Prompt, in order.
	Images []images.Inline
}

// Provider defines the interface for an LLM provider
type Provider interface {
	ExtractText(ctx context.Context, config Config) (string, error)
}

// maxErrorBody bounds how much of a failed response body ends up in an error.
const maxErrorBody = 500

// BodyExcerpt trims a response body for inclusion in an error message
func BodyExcerpt(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
