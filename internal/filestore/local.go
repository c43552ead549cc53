package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"studynotes/internal/config"
	"studynotes/internal/pkg/apperr"
)

type localStore struct {
	dir     string
	baseURL string
}

func init() {
	Register("local", func(_ context.Context, cfg config.FileStoreConfig, baseURL string) (Store, error) {
		return NewLocal(cfg.Local.Dir, baseURL)
	})
}

// NewLocal stores files in dir and serves them from baseURL/uploads.
func NewLocal(dir, baseURL string) (Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("local store dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir failed: %w", err)
	}
	return &localStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *localStore) Type() string {
	return "local"
}

func (s *localStore) URL(key string) string {
	return s.baseURL + "/uploads/" + url.PathEscape(key)
}

func (s *localStore) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if !ValidKey(key) {
		return fmt.Errorf("%w: invalid file key", apperr.ErrInvalidInput)
	}
	path := filepath.Join(s.dir, key)
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create stored file failed: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write stored file failed: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close stored file failed: %w", err)
	}
	return nil
}

func (s *localStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if !ValidKey(key) {
		return nil, apperr.ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("open stored file failed: %w", err)
	}
	return f, nil
}

func (s *localStore) Delete(ctx context.Context, key string) error {
	if !ValidKey(key) {
		return fmt.Errorf("%w: invalid file key", apperr.ErrInvalidInput)
	}
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stored file failed: %w", err)
	}
	return nil
}
