// Package storage persists uploaded assets (logos, menu photos, QR codes)
// in an S3-compatible bucket and serves them through a public asset URL.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ObjectStore is the minimal surface handlers and services need.  The
// production implementation talks to R2; tests use the in-memory store.
type ObjectStore interface {
	// Upload writes the object and returns its public URL.
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	// Delete removes the object.  Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// ObjectKey builds a collision-free key under a folder, keeping the
// original extension so content type can be inferred from the URL.
func ObjectKey(folder, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), ext)
}
