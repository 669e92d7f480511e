package gemini

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/lehigh-university-libraries/asset-cataloger/internal/images"
	"github.com/lehigh-university-libraries/asset-cataloger/internal/providers"
)

func TestBuildParts(t *testing.T) {
	parts := buildParts(providers.Config{
		Prompt: "describe these",
		Images: []images.Inline{
			{Name: "a.webp", MIMEType: "image/webp", Data: []byte{1, 2}},
			{Name: "b.gif", MIMEType: "image/gif", Data: []byte{3}},
		},
	})

	if len(parts) != 3 {
		t.Fatalf("Expected 3 parts, got %d", len(parts))
	}

	blob, ok := parts[0].(genai.Blob)
	if !ok {
		t.Fatalf("Expected first part to be a blob, got %T", parts[0])
	}
	if blob.MIMEType != "image/webp" || len(blob.Data) != 2 {
		t.Errorf("Unexpected first blob: %+v", blob)
	}

	if _, ok := parts[1].(genai.Blob); !ok {
		t.Errorf("Expected second part to be a blob, got %T", parts[1])
	}

	txt, ok := parts[2].(genai.Text)
	if !ok || string(txt) != "describe these" {
		t.Errorf("Expected trailing text part, got %#v", parts[2])
	}
}

func TestBuildPartsTextOnly(t *testing.T) {
	parts := buildParts(providers.Config{Prompt: "hello"})
	if len(parts) != 1 {
		t.Fatalf("Expected 1 part, got %d", len(parts))
	}
	if _, ok := parts[0].(genai.Text); !ok {
		t.Errorf("Expected text part, got %T", parts[0])
	}
}
