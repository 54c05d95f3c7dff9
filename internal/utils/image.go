package utils

import (
	"encoding/base64"
	"strings"

	"github.com/Danuuuq/BACKEND-for-project-with-recipes/domain"
)

// DecodeBase64Image parses a "data:image/<ext>;base64,<payload>" string and
// returns the raw bytes, file extension and content type.
func DecodeBase64Image(data string) ([]byte, string, string, error) {
	if !strings.HasPrefix(data, "data:image/") {
		return nil, "", "", domain.ErrInvalidImage
	}

	meta, payload, found := strings.Cut(data, ";base64,")
	if !found {
		return nil, "", "", domain.ErrInvalidImage
	}

	contentType := strings.TrimPrefix(meta, "data:")
	ext := strings.TrimPrefix(contentType, "image/")
	if ext == "" {
		return nil, "", "", domain.ErrInvalidImage
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(raw) == 0 {
		return nil, "", "", domain.ErrInvalidImage
	}

	return raw, ext, contentType, nil
}
