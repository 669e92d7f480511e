// Package images reads image files and encodes them for vision model requests.
package images

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMIMEType is used for image extensions missing from mimeTypes.
const DefaultMIMEType = "image/png"

// mimeTypes maps recognized image extensions to their MIME type.
// Only files with one of these extensions are cataloged.
var mimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Inline is an image loaded into memory and ready to embed in a model request
type Inline struct {
	Name     string
	MIMEType string
	Data     []byte
}

// IsImage reports whether name has a recognized image extension (case-insensitive)
func IsImage(name string) bool {
	_, ok := mimeTypes[strings.ToLower(filepath.Ext(name))]
	return ok
}

// MIMEType returns the MIME type for path based on its extension
func MIMEType(path string) string {
	if mime, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mime
	}
	return DefaultMIMEType
}

// Load reads the raw bytes of the image at path.
func Load(path string) (Inline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Inline{}, fmt.Errorf("failed to read image: %w", err)
	}

	return Inline{
		Name:     filepath.Base(path),
		MIMEType: MIMEType(path),
		Data:     data,
	}, nil
}

// Base64 returns the standard base64 encoding of the image bytes
func (i Inline) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURL returns the image as a data: URL, the form expected by
// OpenAI-compatible image_url content parts.
func (i Inline) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + i.Base64()
}
