package images

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Storage manages cover image filesystem operations.
// Thread-safe for concurrent operations.
type Storage struct {
	basePath string
	mu       sync.RWMutex // Protects file operations
}

// NewStorage creates a new Storage instance for book covers.
// basePath should be the uploads directory; covers are stored in
// {basePath}/covers/.
func NewStorage(basePath string) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	storagePath := filepath.Join(basePath, "covers")
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create covers directory: %w", err)
	}

	return &Storage{basePath: storagePath}, nil
}

// Save stores image data under a random filename and returns the
// storage-relative path (e.g. "covers/3f2a....jpeg"). Random names keep
// re-uploads from clobbering a cover another request is serving.
func (s *Storage) Save(data []byte, format string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("image data cannot be empty")
	}
	if format == "" {
		format = "jpeg"
	}

	name := uuid.NewString() + "." + format

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(filepath.Join(s.basePath, name), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	return filepath.Join("covers", name), nil
}

// Get retrieves image data for a storage-relative path.
func (s *Storage) Get(path string) ([]byte, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	return data, nil
}

// Exists checks if an image exists at a storage-relative path.
func (s *Storage) Exists(path string) bool {
	full, err := s.resolve(path)
	if err != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err = os.Stat(full)
	return err == nil
}

// Delete removes an image. Deleting a missing image is not an error.
func (s *Storage) Delete(path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image file: %w", err)
	}
	return nil
}

// Hash computes the SHA256 hash of an image.
// Returns a hex-encoded string for ETag/cache validation.
func (s *Storage) Hash(path string) (string, error) {
	data, err := s.Get(path)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}

// resolve maps a storage-relative path to a filesystem path, rejecting
// anything that escapes the covers directory.
func (s *Storage) resolve(path string) (string, error) {
	name := filepath.Base(filepath.Clean(path))
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid image path %q", path)
	}
	return filepath.Join(s.basePath, name), nil
}
