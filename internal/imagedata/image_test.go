package imagedata

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBase64(t *testing.T) {
	img, err := FromBase64("image/png", "QUJD")
	require.NoError(t, err)
	assert.Equal(t, Image("data:image/png;base64,QUJD"), img)

	mimeType, raw, err := img.Decode()
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
	assert.Equal(t, []byte("ABC"), raw)
}

func TestFromBase64Rejects(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		data     string
	}{
		{name: "missing mime", mimeType: "", data: "QUJD"},
		{name: "missing data", mimeType: "image/png", data: ""},
		{name: "bad base64", mimeType: "image/png", data: "%%%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromBase64(tt.mimeType, tt.data)
			assert.Error(t, err)
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		wantMime string
		wantErr  bool
	}{
		{name: "jpeg", value: "data:image/jpeg;base64,QUJD", wantMime: "image/jpeg"},
		{name: "no mime falls back", value: "data:;base64,QUJD", wantMime: "image/png"},
		{name: "not a data url", value: "QUJD", wantErr: true},
		{name: "not base64 encoded", value: "data:image/png,QUJD", wantErr: true},
		{name: "empty", value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Parse(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMime, img.MimeType())
			assert.Equal(t, "QUJD", img.Base64())
		})
	}
}

func TestNewRoundTrip(t *testing.T) {
	img, err := New("image/jpeg; charset=binary", []byte{0xff, 0xd8, 0xff})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(img.String(), "data:image/jpeg;base64,"))
	assert.Equal(t, ".jpg", img.Extension())

	_, raw, err := img.Decode()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, raw)

	_, err = New("image/png", nil)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestIngest(t *testing.T) {
	pngBytes := encodePNG(t, 3, 5)

	t.Run("declared image type", func(t *testing.T) {
		img, err := Ingest(bytes.NewReader(pngBytes), "image/png", 0)
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.MimeType())
	})

	t.Run("sniffed when undeclared", func(t *testing.T) {
		img, err := Ingest(bytes.NewReader(pngBytes), "application/octet-stream", 0)
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.MimeType())
	})

	t.Run("non image declared", func(t *testing.T) {
		_, err := Ingest(strings.NewReader("hello"), "text/plain", 0)
		assert.ErrorIs(t, err, ErrNotImage)
	})

	t.Run("non image sniffed", func(t *testing.T) {
		_, err := Ingest(strings.NewReader("hello"), "", 0)
		assert.ErrorIs(t, err, ErrNotImage)
	})

	t.Run("no file", func(t *testing.T) {
		_, err := Ingest(bytes.NewReader(nil), "image/png", 0)
		assert.ErrorIs(t, err, ErrNotImage)
	})

	t.Run("too large", func(t *testing.T) {
		_, err := Ingest(bytes.NewReader(pngBytes), "image/png", 4)
		assert.ErrorIs(t, err, ErrTooLarge)
	})
}

func TestProbe(t *testing.T) {
	img, err := New("image/png", encodePNG(t, 9, 16))
	require.NoError(t, err)

	info, err := Probe(img)
	require.NoError(t, err)
	assert.Equal(t, Info{Format: "png", Width: 9, Height: 16}, info)

	garbage, err := New("image/png", []byte("nope"))
	require.NoError(t, err)
	_, err = Probe(garbage)
	assert.Error(t, err)
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}
