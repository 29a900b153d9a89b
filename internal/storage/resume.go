// Package storage keeps uploaded resumes on local disk.
package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/joshuacenter/applicant-intake/internal/apperr"
)

// PublicPrefix is the URL path under which stored resumes are served.
const PublicPrefix = "/uploads/"

// sniffLen is how many leading bytes are inspected to detect the type.
const sniffLen = 3072

var (
	ErrNotPDF       = apperr.Validation("resume must be a PDF document")
	ErrTooLarge     = apperr.Validation("resume exceeds the maximum allowed size")
	ErrEmptyResume  = apperr.Validation("resume is empty")
	errOutsideStore = errors.New("path is outside the upload directory")
)

// ResumeStore writes resumes to Dir under random names.
type ResumeStore struct {
	Dir      string
	MaxBytes int64
}

// NewResumeStore creates dir if needed.
func NewResumeStore(dir string, maxBytes int64) (*ResumeStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &ResumeStore{Dir: dir, MaxBytes: maxBytes}, nil
}

// Save checks that r holds a PDF no larger than MaxBytes and writes it to
// a new file.  It returns the public path ("/uploads/<uuid>.pdf").  Nothing
// is left on disk when Save fails.
func (s *ResumeStore) Save(ctx context.Context, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperr.Storage(err)
	}
	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", apperr.Storage(err)
	}
	if len(head) == 0 {
		return "", ErrEmptyResume
	}
	if !mimetype.Detect(head).Is("application/pdf") {
		return "", ErrNotPDF
	}

	name := uuid.NewString() + ".pdf"
	full := filepath.Join(s.Dir, name)
	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", apperr.Storage(err)
	}
	// one byte past the limit is enough to know it was exceeded
	n, err := io.Copy(f, io.LimitReader(br, s.MaxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > s.MaxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(full)
		if apperr.KindOf(err) != apperr.KindStorage {
			return "", err
		}
		return "", apperr.Storage(err)
	}
	return path.Join(PublicPrefix, name), nil
}

// Remove deletes a resume previously returned by Save.  A file that is
// already gone is not an error.
func (s *ResumeStore) Remove(publicPath string) error {
	full, err := s.localPath(publicPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *ResumeStore) localPath(publicPath string) (string, error) {
	name := strings.TrimPrefix(publicPath, PublicPrefix)
	if name == "" || name != filepath.Base(name) {
		return "", errOutsideStore
	}
	return filepath.Join(s.Dir, name), nil
}
