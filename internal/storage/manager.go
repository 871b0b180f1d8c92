package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/howplatform/ocr-client/internal/models"
)

// maxNameAttempts bounds the "name (n).ext" search for a free file name.
const maxNameAttempts = 1000

// Store defines the interface for saving downloaded results.
type Store interface {
	Save(name, sourceURL string, r io.Reader) (*models.FileInfo, error)
}

// LocalStore implements Store using a local directory. Existing files are
// never overwritten.
type LocalStore struct {
	dir string
}

// NewLocalStore creates a new LocalStore.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &LocalStore{dir: dir}, nil
}

// Dir returns the directory files are saved in.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes r under a free variant of name.
func (s *LocalStore) Save(name, sourceURL string, r io.Reader) (*models.FileInfo, error) {
	name = SanitizeName(name)

	f, path, err := s.createUnique(name)
	if err != nil {
		return nil, err
	}

	size, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	return &models.FileInfo{
		Name:      filepath.Base(path),
		Path:      path,
		Size:      size,
		SourceURL: sourceURL,
		SavedAt:   time.Now(),
	}, nil
}

// createUnique opens name, or "name (n).ext" when name is taken.
func (s *LocalStore) createUnique(name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; i < maxNameAttempts; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		path := filepath.Join(s.dir, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("creating file: %w", err)
		}
	}
	return nil, "", fmt.Errorf("no free file name for %s in %s", name, s.dir)
}

// SanitizeName reduces name to a plain file name safe to join to a directory.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." || name == "" {
		return "download"
	}
	return name
}
