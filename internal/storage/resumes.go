package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrResumeNotFound is returned when a stored résumé does not exist.
	ErrResumeNotFound = errors.New("resume not found")
	// ErrInvalidFilename is returned for names that would escape the upload directory.
	ErrInvalidFilename = errors.New("invalid filename")
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// ResumeStore keeps uploaded résumés in a single flat directory.
type ResumeStore struct {
	dir string
}

// NewResumeStore creates dir if needed.
func NewResumeStore(dir string) (*ResumeStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &ResumeStore{dir: dir}, nil
}

// StoredName derives the on-disk name: a unique prefix, a dash, then the
// client's base file name with whitespace runs replaced by underscores.
func StoredName(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	if base == "." || base == "/" || base == ".." {
		base = "resume"
	}
	return uuid.NewString() + "-" + whitespaceRun.ReplaceAllString(base, "_")
}

// Save writes r under a fresh stored name and returns that name.
func (s *ResumeStore) Save(original string, r io.Reader) (string, error) {
	name := StoredName(original)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create resume file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write resume file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close resume file: %w", err)
	}
	return name, nil
}

// Remove deletes a stored résumé. Used to roll back an upload whose
// applicant record could not be saved.
func (s *ResumeStore) Remove(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove resume file: %w", err)
	}
	return nil
}

// Open returns the stored résumé for reading. The caller closes it.
func (s *ResumeStore) Open(name string) (*os.File, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrResumeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open resume file: %w", err)
	}
	return f, nil
}

func (s *ResumeStore) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return "", ErrInvalidFilename
	}
	return filepath.Join(s.dir, name), nil
}
