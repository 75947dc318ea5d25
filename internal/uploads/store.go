// Package uploads stores storefront-uploaded files on disk, named by
// content hash so identical payloads dedupe to one file.
package uploads

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var (
	// ErrTooLarge means the payload exceeds the store's size limit.
	ErrTooLarge = errors.New("upload too large")
	// ErrInvalidName means the requested filename is not one this store
	// could ever have produced.
	ErrInvalidName = errors.New("invalid filename")
	// ErrNotFound means no stored file has the requested name.
	ErrNotFound = errors.New("upload not found")
)

const hashLen = 16

// Store holds one kind of upload in a single directory. Filenames are the
// first 16 hex characters of the content's SHA-256 plus the kind's extension.
type Store struct {
	dir      string
	kind     string
	ext      string
	maxBytes int
	namePat  *regexp.Regexp
}

// NewPreviewStore stores configurator screenshots (JPEG, max 5 MB).
func NewPreviewStore(dir string) (*Store, error) {
	return newStore(dir, "preview", ".jpg", 5*1024*1024)
}

// NewFMLStore stores edited floor-plan documents (JSON, max 1 MB).
func NewFMLStore(dir string) (*Store, error) {
	return newStore(dir, "fml", ".fml", 1*1024*1024)
}

func newStore(dir, kind, ext string, maxBytes int) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s dir: %w", kind, err)
	}
	pat := regexp.MustCompile(fmt.Sprintf(`^[a-f0-9]{%d}\%s$`, hashLen, ext))
	return &Store{dir: dir, kind: kind, ext: ext, maxBytes: maxBytes, namePat: pat}, nil
}

// Kind names the upload category, used for index rows and counters.
func (s *Store) Kind() string {
	return s.kind
}

// Save writes the payload and returns its content-derived filename. Saving
// the same bytes twice returns the same name.
func (s *Store) Save(raw []byte) (string, error) {
	if len(raw) > s.maxBytes {
		return "", ErrTooLarge
	}
	sum := sha256.Sum256(raw)
	filename := hex.EncodeToString(sum[:])[:hashLen] + s.ext
	if err := os.WriteFile(filepath.Join(s.dir, filename), raw, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", s.kind, err)
	}
	return filename, nil
}

// Path validates the filename and returns the on-disk location. The name
// check runs before any filesystem access, so traversal names never reach
// the disk.
func (s *Store) Path(filename string) (string, error) {
	if !s.namePat.MatchString(filename) {
		return "", ErrInvalidName
	}
	path := filepath.Join(s.dir, filename)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", err
	}
	return path, nil
}

// Remove deletes a stored file. Removing an absent file is not an error.
func (s *Store) Remove(filename string) error {
	if !s.namePat.MatchString(filename) {
		return ErrInvalidName
	}
	err := os.Remove(filepath.Join(s.dir, filename))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
