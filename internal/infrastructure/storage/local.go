// Package storage implements the image store port on the local filesystem.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// extByType maps accepted content types to the stored file extension.
var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// LocalStore saves uploads under a directory and serves them from baseURL.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("image dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save writes the upload to disk under a random name. The original filename
// is discarded: it is user input and never trusted.
func (s *LocalStore) Save(_ context.Context, _ string, contentType string, r io.Reader) (string, error) {
	ext, ok := extByType[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}

	name := uuid.NewString() + ext
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}

	return s.baseURL + "/" + name, nil
}

// Delete removes a previously stored image. Unknown URLs are ignored.
func (s *LocalStore) Delete(_ context.Context, url string) error {
	name := path.Base(url)
	if name == "." || name == "/" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Dir exposes the root directory so the HTTP layer can mount a static route.
func (s *LocalStore) Dir() string {
	return s.dir
}
