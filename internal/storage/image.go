package storage

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrInvalidImage = errors.New("image must be a base64 data URL of type image/*")

// Image is a decoded data URL payload.
type Image struct {
	ContentType string
	Ext         string
	Data        []byte
}

var extByType = map[string]string{
	"image/jpeg":    "jpg",
	"image/png":     "png",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/svg+xml": "svg",
}

// DecodeDataURL parses data:<mime>;base64,<payload>.
func DecodeDataURL(s string) (Image, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return Image{}, ErrInvalidImage
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, ErrInvalidImage
	}
	contentType, ok := strings.CutSuffix(meta, ";base64")
	if !ok || !strings.HasPrefix(contentType, "image/") {
		return Image{}, ErrInvalidImage
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return Image{}, ErrInvalidImage
	}

	ext, known := extByType[contentType]
	if !known {
		ext = strings.TrimPrefix(contentType, "image/")
	}
	return Image{ContentType: contentType, Ext: ext, Data: data}, nil
}
