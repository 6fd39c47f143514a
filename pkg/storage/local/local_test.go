package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/speedsterx/storefront-backend/pkg/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(config.UploadsConfig{
		Dir:        dir,
		PublicPath: "/uploads/products",
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestSaveAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	url, err := store.Save(ctx, "product-id", "chassis.PNG", strings.NewReader("image-bytes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/products/product-id-") {
		t.Fatalf("unexpected url %q", url)
	}
	if !strings.HasSuffix(url, ".png") {
		t.Fatalf("expected lowercased extension, got %q", url)
	}

	onDisk := filepath.Join(store.dir, filepath.Base(url))
	contents, err := os.ReadFile(onDisk)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(contents) != "image-bytes" {
		t.Fatalf("unexpected contents %q", contents)
	}

	if err := store.Delete(ctx, url); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(onDisk); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, got %v", err)
	}
}

func TestSaveRejectsUnsupportedExtension(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Save(context.Background(), "p", "payload.exe", strings.NewReader("x")); err == nil {
		t.Fatal("expected extension error")
	}
}

func TestDeleteMissingFileIsNoop(t *testing.T) {
	store := newTestStore(t)
	if err := store.Delete(context.Background(), "/uploads/products/gone.png"); err != nil {
		t.Fatalf("expected noop, got %v", err)
	}
}

func TestSanitizedPrefix(t *testing.T) {
	store := newTestStore(t)
	url, err := store.Save(context.Background(), "../..//Evil ID", "a.jpg", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	base := filepath.Base(url)
	if strings.ContainsAny(base, "/\\ .") && !strings.HasSuffix(base, ".jpg") {
		t.Fatalf("prefix not sanitized: %q", base)
	}
	if strings.Contains(base, "..") {
		t.Fatalf("path traversal residue in %q", base)
	}
}
