package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"ats-resume-checker/internal/shared/util"
)

// DefaultMaxBytes is the upload size cap.
const DefaultMaxBytes = 5 << 20

var (
	// ErrFileTooLarge means the upload exceeded the size cap.
	ErrFileTooLarge = errors.New("file too large")
	// ErrFileType means the upload extension is not allowed.
	ErrFileType = errors.New("invalid file type; only PDF and DOCX files are allowed")
	// ErrNoFile means no upload was supplied.
	ErrNoFile = errors.New("no file uploaded")
)

var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".docx": {},
	".doc":  {},
}

// Allowed reports whether ext may be uploaded.
func Allowed(ext string) bool {
	_, ok := allowedExtensions[ext]
	return ok
}

// Document is a transient uploaded file owned by a single analysis run.
type Document struct {
	Path         string
	OriginalName string
	Extension    string
	SizeBytes    int64
	ContentType  string
}

// Remove deletes the file. A file that is already gone is not an error.
func (d *Document) Remove() error {
	if d == nil || d.Path == "" {
		return nil
	}
	if err := os.Remove(d.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// TempStore writes uploads to a scratch directory.
type TempStore struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

// NewTempStore creates a store rooted at dir. maxBytes <= 0 uses DefaultMaxBytes.
func NewTempStore(dir string, maxBytes int64) *TempStore {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "ats-uploads")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &TempStore{dir: dir, maxBytes: maxBytes, now: time.Now}
}

// Dir returns the scratch directory.
func (s *TempStore) Dir() string { return s.dir }

// MaxBytes returns the size cap.
func (s *TempStore) MaxBytes() int64 { return s.maxBytes }

// Save validates the name and writes r to resume-<unixms>-<rand><ext>.
func (s *TempStore) Save(ctx context.Context, originalName string, r io.Reader) (*Document, error) {
	if r == nil {
		return nil, ErrNoFile
	}
	sanitizedName, err := util.SanitizeFileName(originalName)
	if err != nil {
		return nil, fmt.Errorf("sanitize file name: %w", err)
	}
	ext := util.Extension(sanitizedName)
	if !Allowed(ext) {
		return nil, ErrFileType
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	finalName := fmt.Sprintf("resume-%d-%d%s", s.now().UnixMilli(), uuid.New().ID()%1_000_000_000, ext)
	fullPath := filepath.Join(s.dir, finalName)

	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	doc := &Document{Path: fullPath, OriginalName: sanitizedName, Extension: ext}

	size, contentType, err := s.write(f, r)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = doc.Remove()
		return nil, err
	}
	doc.SizeBytes = size
	doc.ContentType = contentType
	return doc, nil
}

func (s *TempStore) write(f *os.File, r io.Reader) (int64, string, error) {
	limited := io.LimitReader(r, s.maxBytes+1)

	var sniff [512]byte
	n, readErr := io.ReadFull(limited, sniff[:])
	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		return 0, "", fmt.Errorf("read sniff: %w", readErr)
	}
	contentType := http.DetectContentType(sniff[:n])

	size := int64(0)
	if n > 0 {
		if _, err := f.Write(sniff[:n]); err != nil {
			return 0, "", fmt.Errorf("write sniff: %w", err)
		}
		size += int64(n)
	}
	written, err := io.Copy(f, limited)
	if err != nil {
		return 0, "", fmt.Errorf("write body: %w", err)
	}
	size += written
	if size > s.maxBytes {
		return 0, "", ErrFileTooLarge
	}
	return size, contentType, nil
}

// Ping verifies the scratch directory is writable.
func (s *TempStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(s.dir, ".ping-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
