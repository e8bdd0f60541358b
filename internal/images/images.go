// Package images is the image-storage collaborator: it accepts a binary
// payload and returns a durable URL. The review pipeline only ever sees the
// URL; upload mechanics stay here.
package images

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"
)

type Store interface {
	Store(ctx context.Context, data []byte, contentType string) (url string, err error)
}

// DiskStore writes images to a local directory and serves them back under
// baseURL/images/. Object keys are ULIDs so listings sort by upload time.
type DiskStore struct {
	dir     string
	baseURL string
}

func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating image dir: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: baseURL}, nil
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

func (s *DiskStore) Store(_ context.Context, data []byte, contentType string) (string, error) {
	ext, ok := extensions[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}

	name := ulid.Make().String() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}
	return s.baseURL + "/images/" + name, nil
}
