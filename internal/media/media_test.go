package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCheck(t *testing.T) {
	t.Parallel()
	pngData := tinyPNG(t, 4, 4)

	tests := []struct {
		name    string
		file    File
		kind    Kind
		max     int
		wantExt string
		wantErr string
	}{
		{"Image Declared", File{ContentType: "image/png", Data: pngData}, KindImage, MaxImageBytes, "png", ""},
		{"Image Sniffed", File{Data: pngData}, KindImage, MaxImageBytes, "png", ""},
		{"Jpg Alias", File{ContentType: "image/jpg", Data: []byte("x")}, KindImage, MaxImageBytes, "jpg", ""},
		{"Video", File{ContentType: "video/mp4; codecs=avc1", Data: []byte("x")}, KindVideo, MaxVideoBytes, "mp4", ""},
		{"Wrong Family", File{ContentType: "image/png", Data: pngData}, KindVideo, MaxVideoBytes, "", "expected video"},
		{"Not Allowed", File{ContentType: "image/tiff", Data: []byte("x")}, KindImage, MaxImageBytes, "", "unsupported"},
		{"Empty", File{ContentType: "image/png"}, KindImage, MaxImageBytes, "", "no file"},
		{"Too Large", File{ContentType: "image/png", Data: make([]byte, 11)}, KindImage, 10, "", "too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Check(tt.file, tt.kind, tt.max)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, got.Ext)
		})
	}
}

func TestProfileImage_FitsAndEncodesWebP(t *testing.T) {
	t.Parallel()
	out, err := ProfileImage(tinyPNG(t, 1024, 600))
	require.NoError(t, err)

	cfg, err := webp.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, ProfileImageSize, cfg.Width)
	assert.Equal(t, 300, cfg.Height)
}

func TestProfileImage_SmallImageKeepsSize(t *testing.T) {
	t.Parallel()
	out, err := ProfileImage(tinyPNG(t, 64, 48))
	require.NoError(t, err)

	cfg, err := webp.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 48, cfg.Height)
}

func TestProfileImage_RejectsGarbage(t *testing.T) {
	t.Parallel()
	_, err := ProfileImage([]byte("definitely not an image"))
	assert.Error(t, err)
}
