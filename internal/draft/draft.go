// Package draft persists unsubmitted incident form state so an
// interrupted report survives a crash or an accidental quit. Drafts are
// written periodically in the background and offered back exactly once
// on the next start.
package draft

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Draft is a snapshot of the incident form.
type Draft struct {
	SessionID          string    `json:"session_id,omitempty"`
	Category           string    `json:"category,omitempty"`
	Description        string    `json:"description,omitempty"`
	Confidential       bool      `json:"confidential,omitempty"`
	SubjectKind        string    `json:"subject_kind,omitempty"`
	SubjectIndexNumber string    `json:"subject_index_number,omitempty"`
	SubjectFullName    string    `json:"subject_full_name,omitempty"`
	SubjectProgram     string    `json:"subject_program,omitempty"`
	AttachmentPaths    []string  `json:"attachment_paths,omitempty"`
	SavedAt            time.Time `json:"saved_at"`
}

// Empty reports whether the draft carries nothing worth saving.
func (d Draft) Empty() bool {
	return d.Description == "" &&
		d.Category == "" &&
		d.SubjectIndexNumber == "" &&
		d.SubjectFullName == "" &&
		len(d.AttachmentPaths) == 0
}

// Store loads and saves the single pending draft.
type Store interface {
	// Load returns the stored draft, or ok=false when none exists.
	// A corrupt draft is treated as absent, not as an error.
	Load() (Draft, bool, error)
	Save(Draft) error
	Clear() error
}

// FileStore keeps the draft as a JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a store at path, creating parent directories.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating draft dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Load() (Draft, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Draft{}, false, nil
	}
	if err != nil {
		return Draft{}, false, fmt.Errorf("reading draft: %w", err)
	}

	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		// Unparseable draft: discard it rather than blocking startup.
		_ = s.Clear()
		return Draft{}, false, nil
	}
	if d.Empty() {
		return Draft{}, false, nil
	}
	return d, true, nil
}

func (s *FileStore) Save(d Draft) error {
	d.SavedAt = time.Now()
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing draft: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing draft: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
