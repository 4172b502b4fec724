package feed

import (
	"path"
	"strings"
)

// URL prefixes under which stored files are served.
const (
	MediaPrefix     = "/uploads/content/media/"
	ThumbnailPrefix = "/uploads/content/thumbnail/"
	ProfilePrefix   = "/uploads/profile/"
)

// URLBuilder turns stored relative paths into public URLs.
type URLBuilder struct {
	base string
}

// NewURLBuilder returns a builder rooted at base (no trailing slash needed).
func NewURLBuilder(base string) URLBuilder {
	return URLBuilder{base: strings.TrimRight(base, "/")}
}

func (b URLBuilder) build(prefix string, stored *string) *string {
	if stored == nil || *stored == "" {
		return nil
	}
	if strings.HasPrefix(*stored, "http://") || strings.HasPrefix(*stored, "https://") {
		u := *stored
		return &u
	}
	u := b.base + prefix + path.Base(*stored)
	return &u
}

// Media returns the public URL of a content media file.
func (b URLBuilder) Media(stored string) string {
	if u := b.build(MediaPrefix, &stored); u != nil {
		return *u
	}
	return ""
}

// Thumbnail returns the public URL of a thumbnail, or nil when there is none.
func (b URLBuilder) Thumbnail(stored *string) *string {
	return b.build(ThumbnailPrefix, stored)
}

// Profile returns the public URL of a profile image, or nil when there is none.
func (b URLBuilder) Profile(stored string) *string {
	return b.build(ProfilePrefix, &stored)
}
