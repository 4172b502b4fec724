// Package storage persists uploaded files and returns stable relative paths.
package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"creatorhub/internal/config"

	"github.com/google/uuid"
)

// Upload directories. Stored paths always start with one of these.
const (
	DirMedia     = "uploads/content/media"
	DirThumbnail = "uploads/content/thumbnail"
	DirProfile   = "uploads/profile"
)

// Store saves and removes uploaded files.
type Store interface {
	// Save writes data under dir and returns its relative path.
	Save(ctx context.Context, dir, ext, contentType string, data []byte) (string, error)
	// Delete removes a previously saved path. Missing files are not an error.
	Delete(ctx context.Context, relPath string) error
}

// New builds the Store selected by STORAGE_BACKEND.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageBackend {
	case "s3":
		return NewS3Store(ctx, S3Options{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	case "local", "":
		return NewLocalStore(cfg.UploadRoot), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// objectName returns a fresh object name under dir with ext (".jpg", "mp4", ...).
func objectName(dir, ext string) (string, error) {
	if !knownDir(dir) {
		return "", fmt.Errorf("unknown upload directory %q", dir)
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	name := uuid.NewString()
	if ext != "" {
		name += "." + ext
	}
	return path.Join(dir, name), nil
}

func knownDir(dir string) bool {
	switch dir {
	case DirMedia, DirThumbnail, DirProfile:
		return true
	}
	return false
}

// cleanRel rejects paths that escape the upload directories.
func cleanRel(relPath string) (string, error) {
	p := path.Clean(filepath.ToSlash(relPath))
	if p == "." || strings.HasPrefix(p, "/") || strings.HasPrefix(p, "..") || !knownDir(path.Dir(p)) {
		return "", fmt.Errorf("invalid stored path %q", relPath)
	}
	return p, nil
}
