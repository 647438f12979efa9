// Package qrcode renders QR code images for payment payloads (PIX
// copy-and-paste strings, checkout URLs) as PNG bytes or data URIs
// embeddable in clients without a separate image request.
package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrEmptyContent is returned when the content is empty or whitespace.
	ErrEmptyContent = errors.New("qrcode: content cannot be empty")
	// ErrEncodeFailed is returned when the underlying encoder fails.
	ErrEncodeFailed = errors.New("qrcode: failed to encode content")
)

// DefaultSize is the image edge in pixels when the caller passes size <= 0.
const DefaultSize = 256

// PNG encodes content into a QR code PNG image.
func PNG(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = DefaultSize
	}
	png, err := skipqrcode.Encode(content, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrEncodeFailed, err)
	}
	return png, nil
}

// DataURI encodes content into a base64 PNG data URI, ready for an
// <img src> attribute or a mobile client image view.
func DataURI(content string, size int) (string, error) {
	png, err := PNG(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
