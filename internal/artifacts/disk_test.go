package artifacts

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	ref, err := store.Save(ctx, DirRenderings, []byte("image-bytes"), "image/png")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(ref, DirRenderings+"/") || !strings.HasSuffix(ref, ".png") {
		t.Errorf("ref = %q", ref)
	}
	if url := store.URL(ref); url != "/"+ref {
		t.Errorf("URL(%q) = %q", ref, url)
	}

	body, err := store.Open(ctx, ref)
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(body)
	body.Close()
	if err != nil || string(data) != "image-bytes" {
		t.Errorf("read back %q, %v", data, err)
	}

	if err := store.Delete(ctx, ref); err != nil {
		t.Fatal(err)
	}
	// Deleting again is fine.
	if err := store.Delete(ctx, ref); err != nil {
		t.Errorf("second delete: %v", err)
	}
	if _, err := store.Open(ctx, ref); err == nil {
		t.Error("deleted artifact still readable")
	}
}

func TestDiskStoreRejectsTraversal(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Open(context.Background(), "../etc/passwd"); err == nil {
		t.Error("traversal ref accepted")
	}
	if err := store.Delete(context.Background(), "renderings/../../x"); err == nil {
		t.Error("traversal delete accepted")
	}
}

func TestExtensionFor(t *testing.T) {
	cases := map[string]string{
		"image/png":       ".png",
		"image/jpeg":      ".jpg",
		"image/webp":      ".webp",
		"application/pdf": ".pdf",
		"":                ".png",
	}
	for contentType, want := range cases {
		if got := extensionFor(contentType); got != want {
			t.Errorf("extensionFor(%q) = %q, want %q", contentType, got, want)
		}
	}
}
