package storage

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// MaxImageSize is the largest community image accepted.
const MaxImageSize = 5 * 1024 * 1024

var (
	ErrEmptyImage       = errors.New("image is empty")
	ErrImageTooLarge    = errors.New("image exceeds 5MB limit")
	ErrUnsupportedImage = errors.New("unsupported image type")
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Image is an upload whose type was sniffed from its bytes.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// ImageStore persists an image and returns the reference stored on the
// community: a path relative to the API host or an absolute URL.
type ImageStore interface {
	Save(ctx context.Context, img Image) (string, error)
}

// SniffImage checks size and detects the content type from the bytes,
// ignoring whatever the client claimed.
func SniffImage(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, ErrEmptyImage
	}
	if len(data) > MaxImageSize {
		return Image{}, ErrImageTooLarge
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	contentType := strings.ToLower(http.DetectContentType(head))
	ext, ok := imageExtensions[contentType]
	if !ok {
		return Image{}, ErrUnsupportedImage
	}
	return Image{Data: data, ContentType: contentType, Ext: ext}, nil
}
