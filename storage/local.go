package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage writes files under baseDir and reports them as
// urlPrefix/<name>.
type LocalStorage struct {
	baseDir   string
	urlPrefix string
}

func NewLocalStorage(baseDir, urlPrefix string) *LocalStorage {
	return &LocalStorage{baseDir: baseDir, urlPrefix: "/" + strings.Trim(urlPrefix, "/")}
}

func (s *LocalStorage) BaseDir() string   { return s.baseDir }
func (s *LocalStorage) URLPrefix() string { return s.urlPrefix }

func (s *LocalStorage) Save(_ context.Context, name string, data io.Reader, _ string) (string, error) {
	dest := filepath.Join(s.baseDir, filepath.Base(name))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("storage: mkdir: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("storage: create: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return "", fmt.Errorf("storage: write: %w", err)
	}
	return s.urlPrefix + "/" + filepath.Base(name), nil
}

func (s *LocalStorage) Open(_ context.Context, storedPath string) (io.ReadCloser, error) {
	key, err := keyFor(s.urlPrefix, storedPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.baseDir, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, storedPath)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}
	return f, nil
}

func (s *LocalStorage) Delete(_ context.Context, storedPath string) error {
	key, err := keyFor(s.urlPrefix, storedPath)
	if err != nil {
		return nil
	}
	dest := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove: %w", err)
	}
	return nil
}
