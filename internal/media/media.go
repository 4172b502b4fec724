// Package media validates uploads and prepares profile images.
package media

import (
	"bytes"
	"fmt"
	"image"
	"mime"
	"net/http"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Size limits per upload kind.
const (
	MaxImageBytes     = 10 << 20
	MaxVideoBytes     = 100 << 20
	MaxThumbnailBytes = 2 << 20
	MaxProfileBytes   = 5 << 20

	ProfileImageSize = 512
	WebPQuality      = 80
)

var (
	imageTypes = map[string]string{
		"image/jpeg": "jpg",
		"image/jpg":  "jpg",
		"image/png":  "png",
		"image/gif":  "gif",
		"image/webp": "webp",
	}
	videoTypes = map[string]string{
		"video/mp4":       "mp4",
		"video/quicktime": "mov",
		"video/x-msvideo": "avi",
		"video/webm":      "webm",
	}
)

// Kind is the family an upload must belong to.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// File is an upload as received from a multipart form.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Checked is a validated upload with its canonical type and extension.
type Checked struct {
	ContentType string
	Ext         string
}

// NormalizeContentType strips parameters and lowercases a MIME type.
func NormalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// Check verifies f belongs to kind, is on the allow-list and is at most maxBytes.
// The declared type wins when present; otherwise the content is sniffed.
func Check(f File, kind Kind, maxBytes int) (Checked, error) {
	if len(f.Data) == 0 {
		return Checked{}, fmt.Errorf("no file uploaded")
	}
	if len(f.Data) > maxBytes {
		return Checked{}, fmt.Errorf("file too large (max %dMB)", maxBytes>>20)
	}

	ct := NormalizeContentType(f.ContentType)
	if ct == "" || ct == "application/octet-stream" {
		ct = NormalizeContentType(http.DetectContentType(f.Data))
	}

	allowed := imageTypes
	if kind == KindVideo {
		allowed = videoTypes
	}
	if !strings.HasPrefix(ct, string(kind)+"/") {
		return Checked{}, fmt.Errorf("invalid file type, expected %s file", kind)
	}
	ext, ok := allowed[ct]
	if !ok {
		return Checked{}, fmt.Errorf("unsupported %s type %s", kind, ct)
	}
	if ct == "image/jpg" {
		ct = "image/jpeg"
	}
	return Checked{ContentType: ct, Ext: ext}, nil
}

// ProfileImage decodes an uploaded image, fits it into a square of
// ProfileImageSize and re-encodes it as WebP.
func ProfileImage(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := src.Bounds()
	if b.Dx() > ProfileImageSize || b.Dy() > ProfileImageSize {
		src = imaging.Fit(src, ProfileImageSize, ProfileImageSize, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, src, &webp.Options{Quality: WebPQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode webp: %w", err)
	}
	return buf.Bytes(), nil
}
