package artifacts

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

// DiskStore keeps artifacts on the local filesystem under a base directory.
// The HTTP layer serves the base directory, so refs double as URL paths.
type DiskStore struct {
	BaseDir string
}

// NewDiskStore constructs a store rooted at baseDir, creating the well-known
// subdirectories up front.
func NewDiskStore(baseDir string) (*DiskStore, error) {
	if baseDir == "" {
		baseDir = "data"
	}
	for _, dir := range []string{DirRenderings, DirUploads} {
		if err := os.MkdirAll(filepath.Join(baseDir, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create artifact dir: %w", err)
		}
	}
	return &DiskStore{BaseDir: baseDir}, nil
}

// Save writes data to a fresh uuid-named file under dir.
func (d *DiskStore) Save(_ context.Context, dir string, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("artifact data is required")
	}
	ref := path.Join(dir, uuid.NewString()+extensionFor(contentType))
	dst, err := d.resolve(ref)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return ref, nil
}

// Open returns a reader over the stored artifact.
func (d *DiskStore) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	src, err := d.resolve(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(src)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("artifact %s: %w", ref, os.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	return f, nil
}

// Delete removes the artifact file. A missing file is treated as success.
func (d *DiskStore) Delete(_ context.Context, ref string) error {
	dst, err := d.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove artifact: %w", err)
	}
	return nil
}

// URL maps a ref onto the path the HTTP layer serves the base directory at.
func (d *DiskStore) URL(ref string) string {
	return "/" + strings.TrimPrefix(ref, "/")
}

// resolve rejects refs that would escape the base directory.
func (d *DiskStore) resolve(ref string) (string, error) {
	clean := path.Clean("/" + ref)
	if clean == "/" || strings.Contains(ref, "..") {
		return "", fmt.Errorf("invalid artifact ref %q", ref)
	}
	return filepath.Join(d.BaseDir, filepath.FromSlash(clean)), nil
}
