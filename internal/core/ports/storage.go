package ports

import (
	"context"
	"io"
)

// ImageStore persists uploaded listing photos and returns a public URL.
type ImageStore interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (url string, err error)
	Delete(ctx context.Context, url string) error
}
