// Package artifacts stores generated image bytes and uploaded plan files
// behind a small interface so the rest of the app never touches a
// filesystem or bucket directly.
package artifacts

import (
	"context"
	"errors"
	"io"
)

// ErrStoreDisabled indicates that artifact storage is not configured.
var ErrStoreDisabled = errors.New("artifact store disabled")

// Well-known directories inside the store.
const (
	DirRenderings = "renderings"
	DirUploads    = "uploads"
)

// Store hides the backing implementation for persisting binary artifacts.
// Refs are opaque slash-separated keys such as "renderings/<uuid>.png".
type Store interface {
	// Save persists data under dir and returns the new ref.
	Save(ctx context.Context, dir string, data []byte, contentType string) (string, error)
	// Open streams a previously saved artifact.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	// Delete removes an artifact. Deleting a missing ref is not an error.
	Delete(ctx context.Context, ref string) error
	// URL returns the address clients can fetch the artifact from.
	URL(ref string) string
}

type disabledStore struct{}

func (disabledStore) Save(context.Context, string, []byte, string) (string, error) {
	return "", ErrStoreDisabled
}

func (disabledStore) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, ErrStoreDisabled
}

func (disabledStore) Delete(context.Context, string) error { return ErrStoreDisabled }

func (disabledStore) URL(string) string { return "" }

// Disabled returns a store that always signals missing configuration.
func Disabled() Store {
	return disabledStore{}
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	default:
		return ".png"
	}
}
