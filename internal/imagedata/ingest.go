package imagedata

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

var (
	ErrNotImage = errors.New("selected file is not an image")
	ErrTooLarge = errors.New("image exceeds upload limit")
)

// Ingest reads a user selected file into an Image. The declared content
// type decides; it is sniffed from the bytes only when the caller did not
// declare one. A limit <= 0 disables the size check.
func Ingest(r io.Reader, declaredType string, limit int64) (Image, error) {
	if r == nil {
		return "", ErrNotImage
	}

	reader := r
	if limit > 0 {
		reader = io.LimitReader(r, limit+1)
	}
	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if limit > 0 && int64(len(raw)) > limit {
		return "", ErrTooLarge
	}
	if len(raw) == 0 {
		return "", ErrNotImage
	}

	mimeType := normalizeMimeType(declaredType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = normalizeMimeType(mimetype.Detect(raw).String())
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return "", ErrNotImage
	}

	return New(mimeType, raw)
}

type Info struct {
	Format string
	Width  int
	Height int
}

// Probe decodes only the image header. Formats outside jpeg, png, gif and
// webp return an error.
func Probe(img Image) (Info, error) {
	_, raw, err := img.Decode()
	if err != nil {
		return Info{}, err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return Info{}, fmt.Errorf("decode config: %w", err)
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}
