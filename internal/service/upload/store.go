package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxAudioBytes is the hard ceiling for a single uploaded recording.
const MaxAudioBytes = 25 << 20 // 25 MiB

// ErrUnsupportedType is returned when the uploaded filename does not carry
// one of the allowed audio extensions.
var ErrUnsupportedType = errors.New("unsupported file type")

var allowedExtensions = []string{
	".mp3", ".mp4", ".mpeg", ".mpga", ".m4a", ".wav", ".webm",
}

func isAllowedExtension(ext string) bool {
	for _, allowed := range allowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Store owns the transient upload directory. Files placed here belong to a
// single in-flight request and are removed as soon as transcription
// resolves; the sweeper only mops up after crashed requests.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

// Save validates the upload's extension and writes it under a random name
// inside the store directory, returning the stored path.
func (s *Store) Save(file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(file.Filename)))
	if !isAllowedExtension(ext) {
		return "", ErrUnsupportedType
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	destPath := filepath.Join(s.dir, uuid.New().String()+ext)
	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(dest, src); err != nil {
		dest.Close()
		_ = os.Remove(destPath)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := dest.Close(); err != nil {
		_ = os.Remove(destPath)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return destPath, nil
}

// Remove deletes a stored upload. A file that is already gone is not an
// error, so Remove can sit in a defer on every exit path.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove temp file: %w", err)
	}
	return nil
}
