package local

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/speedsterx/storefront-backend/pkg/config"
)

// Store persists uploaded files on the local filesystem and serves them back
// under a public URL path. Filenames are generated server-side so client
// input never reaches the disk path.
type Store struct {
	dir        string
	publicPath string
}

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
	".gif":  {},
}

// NewStore prepares the upload directory and returns a store.
func NewStore(cfg config.UploadsConfig) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("uploads dir is required")
	}
	if cfg.PublicPath == "" {
		return nil, fmt.Errorf("uploads public path is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads dir: %w", err)
	}
	return &Store{
		dir:        cfg.Dir,
		publicPath: strings.TrimSuffix(cfg.PublicPath, "/"),
	}, nil
}

// Save writes the file contents to disk under a generated name and returns
// the public URL. The prefix scopes the name, typically the product ID.
func (s *Store) Save(ctx context.Context, prefix, originalName string, contents io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", fmt.Errorf("unsupported file extension %q", ext)
	}

	name, err := generateName(prefix, ext)
	if err != nil {
		return "", err
	}

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, contents); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("writing upload file: %w", err)
	}

	return s.publicPath + "/" + name, nil
}

// Delete removes the file behind a public URL. Missing files are not an
// error; the database row is the source of truth.
func (s *Store) Delete(ctx context.Context, publicURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name := path.Base(publicURL)
	if name == "." || name == "/" || name == "" {
		return fmt.Errorf("invalid upload url %q", publicURL)
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing upload file: %w", err)
	}
	return nil
}

func generateName(prefix, ext string) (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating file name: %w", err)
	}
	prefix = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return -1
		}
	}, prefix)
	if prefix == "" {
		prefix = "upload"
	}
	return fmt.Sprintf("%s-%d-%s%s", prefix, time.Now().UnixMilli(), hex.EncodeToString(buf), ext), nil
}
