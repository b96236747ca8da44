package attachment

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store writes attachment bytes to a directory on disk, named by content
// hash so identical uploads collapse into one file.
type Store struct {
	dir string
}

// NewStore creates a disk-backed attachment store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create attachment dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save streams src to disk and returns the content hash used as the
// stored filename.
func (s *Store) Save(src io.Reader) (string, int64, error) {
	tmp, err := os.CreateTemp(s.dir, "upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), src)
	if err != nil {
		tmp.Close()
		return "", 0, fmt.Errorf("write attachment: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", 0, fmt.Errorf("close temp file: %w", err)
	}

	hash := hex.EncodeToString(hasher.Sum(nil))
	dest := filepath.Join(s.dir, hash)
	if _, err := os.Stat(dest); err == nil {
		// Identical content already stored.
		return hash, size, nil
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", 0, fmt.Errorf("store attachment: %w", err)
	}
	return hash, size, nil
}

// Open returns a reader for a stored attachment by hash.
func (s *Store) Open(hash string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.dir, filepath.Base(hash)))
	if err != nil {
		return nil, fmt.Errorf("open attachment: %w", err)
	}
	return f, nil
}
