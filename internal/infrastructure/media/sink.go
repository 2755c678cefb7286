// Package media stores console image uploads and returns a URL the public
// site can render.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// MaxImageBytes is the largest image accepted by any sink
const MaxImageBytes = 8 << 20

var (
	// ErrEmptyImage is returned when no bytes were supplied
	ErrEmptyImage = errors.New("media: image is empty")
	// ErrTooLarge is returned when the image exceeds MaxImageBytes
	ErrTooLarge = errors.New("media: image too large")
	// ErrNotImage is returned when the content is not an image
	ErrNotImage = errors.New("media: content is not an image")
)

// ImageSink stores an image and returns the URL to reference it by
type ImageSink interface {
	Store(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// DetectImageType validates data and resolves its content type. A declared
// type is trusted only when it is an image type; otherwise the bytes are sniffed.
func DetectImageType(contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyImage
	}
	if len(data) > MaxImageBytes {
		return "", ErrTooLarge
	}
	ct := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	if !strings.HasPrefix(ct, "image/") {
		ct = http.DetectContentType(data)
	}
	if !strings.HasPrefix(ct, "image/") {
		return "", fmt.Errorf("%w: %s", ErrNotImage, ct)
	}
	return ct, nil
}

// DataURISink inlines images as base64 data URIs
type DataURISink struct{}

// NewDataURISink creates a DataURISink
func NewDataURISink() *DataURISink {
	return &DataURISink{}
}

// Store returns data encoded as a data: URI
func (DataURISink) Store(_ context.Context, _ string, contentType string, data []byte) (string, error) {
	ct, err := DetectImageType(contentType, data)
	if err != nil {
		return "", err
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

var _ ImageSink = (*DataURISink)(nil)

var extensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

func extensionFor(contentType, name string) string {
	if ext, ok := extensions[contentType]; ok {
		return ext
	}
	if i := strings.LastIndex(name, "."); i >= 0 && len(name)-i <= 6 {
		return strings.ToLower(name[i:])
	}
	return ""
}
