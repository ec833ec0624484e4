package imagedata

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"strings"
)

const fallbackMimeType = "image/png"

var (
	ErrEmpty      = errors.New("image is empty")
	ErrInvalidURL = errors.New("invalid data url")
)

// Image is a self-describing data URL ("data:<mime>;base64,<payload>").
// The zero value means no image. Values built by New, FromBase64 or Parse
// always decode back into their MIME type and raw bytes.
type Image string

func New(mimeType string, raw []byte) (Image, error) {
	if len(raw) == 0 {
		return "", ErrEmpty
	}
	mimeType = normalizeMimeType(mimeType)
	if mimeType == "" {
		mimeType = fallbackMimeType
	}
	return Image("data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(raw)), nil
}

// FromBase64 wraps an already encoded payload as returned by the generation
// API. The payload is kept byte for byte; it is only checked for validity.
func FromBase64(mimeType, data string) (Image, error) {
	mimeType = normalizeMimeType(mimeType)
	if mimeType == "" || data == "" {
		return "", ErrEmpty
	}
	if _, err := base64.StdEncoding.DecodeString(data); err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}
	return Image("data:" + mimeType + ";base64," + data), nil
}

// Parse validates an incoming data URL. A missing MIME tag falls back to
// image/png.
func Parse(value string) (Image, error) {
	mimeType, data, err := split(strings.TrimSpace(value))
	if err != nil {
		return "", err
	}
	return FromBase64(mimeType, data)
}

func (img Image) IsZero() bool {
	return img == ""
}

func (img Image) String() string {
	return string(img)
}

// MimeType returns the embedded MIME tag.
func (img Image) MimeType() string {
	mimeType, _, err := split(string(img))
	if err != nil {
		return ""
	}
	return mimeType
}

// Base64 returns the payload without the data URL header.
func (img Image) Base64() string {
	_, data, err := split(string(img))
	if err != nil {
		return ""
	}
	return data
}

// Decode returns the MIME type and raw bytes.
func (img Image) Decode() (string, []byte, error) {
	mimeType, data, err := split(string(img))
	if err != nil {
		return "", nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", nil, fmt.Errorf("decode base64: %w", err)
	}
	return mimeType, raw, nil
}

// Extension picks a file extension for the MIME type, ".png" when unknown.
func (img Image) Extension() string {
	switch img.MimeType() {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	if exts, _ := mime.ExtensionsByType(img.MimeType()); len(exts) > 0 {
		return exts[0]
	}
	return ".png"
}

func split(value string) (mimeType string, data string, err error) {
	if value == "" {
		return "", "", ErrEmpty
	}

	const prefix = "data:"
	if !strings.HasPrefix(value, prefix) {
		return "", "", ErrInvalidURL
	}

	header, data, ok := strings.Cut(value, ",")
	if !ok || data == "" {
		return "", "", ErrInvalidURL
	}

	meta := strings.TrimPrefix(header, prefix)
	metaParts := strings.Split(meta, ";")
	if len(metaParts) < 2 || metaParts[len(metaParts)-1] != "base64" {
		return "", "", ErrInvalidURL
	}

	mimeType = strings.TrimSpace(metaParts[0])
	if mimeType == "" {
		mimeType = fallbackMimeType
	}
	return mimeType, data, nil
}

func normalizeMimeType(value string) string {
	value = strings.TrimSpace(value)
	if base, _, ok := strings.Cut(value, ";"); ok {
		value = strings.TrimSpace(base)
	}
	return strings.ToLower(value)
}
