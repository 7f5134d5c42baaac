// Package media integrates the external image host. Product images are
// uploaded as byte streams and referenced afterwards only by the public URL
// the host returns.
package media

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Backend defines the object operations implemented by each provider.
type Backend interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PublicURL(key string) string
	Bucket() string
}

// Uploader is the surface the catalog service depends on.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error)
}

// Host wraps a Backend with a stable upload API.
type Host struct {
	backend Backend
}

// NewHost constructs a Host for the provided backend.
func NewHost(backend Backend) *Host {
	return &Host{backend: backend}
}

// EnsureBucket ensures the configured bucket exists.
func (h *Host) EnsureBucket(ctx context.Context) error {
	return h.backend.EnsureBucket(ctx)
}

// Upload stores the image under a fresh object key and returns its public URL.
func (h *Host) Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error) {
	key := objectKey(filename)
	if err := h.backend.Put(ctx, key, r, size, contentType); err != nil {
		return "", err
	}
	return h.backend.PublicURL(key), nil
}

// Bucket returns the configured bucket name.
func (h *Host) Bucket() string {
	return h.backend.Bucket()
}

// objectKey derives a collision-free object key, keeping the original file
// extension so the host serves a sensible content type.
func objectKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	return uuid.NewString() + ext
}
