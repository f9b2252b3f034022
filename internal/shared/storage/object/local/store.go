package local

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"social-insight/internal/shared/storage/object"
	"social-insight/internal/shared/util"
)

// Store implements ObjectStore using the local filesystem.
type Store struct {
	baseDir string
	// Unique prefixes each saved name with a random id so repeated saves never collide.
	unique bool
	create func(path string) (io.WriteCloser, error)
}

// New creates a new local object store rooted at baseDir whose keys carry a random prefix.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, unique: true}
}

// NewPlain creates a local store that writes files under their sanitized names, overwriting
// earlier files with the same name.
func NewPlain(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Save writes the reader to disk under the namespace directory.
func (s *Store) Save(ctx context.Context, namespace, fileName, contentType string, r io.Reader) (string, int64, error) {
	_ = contentType
	sanitizedName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", 0, fmt.Errorf("sanitize file name: %w", err)
	}
	ns, err := util.CleanNamespace(namespace)
	if err != nil {
		return "", 0, fmt.Errorf("sanitize namespace: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	finalName := sanitizedName
	if s.unique {
		finalName = fmt.Sprintf("%s_%s", randomID(), sanitizedName)
	}

	dirPath := filepath.Join(s.baseDir, filepath.FromSlash(ns))
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return "", 0, fmt.Errorf("mkdir: %w", err)
	}

	fullPath := filepath.Join(dirPath, finalName)
	f, err := s.createFile(fullPath)
	if err != nil {
		return "", 0, fmt.Errorf("open file: %w", err)
	}

	written, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		return "", 0, fmt.Errorf("write body: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", 0, fmt.Errorf("close file: %w", err)
	}

	key := finalName
	if ns != "" {
		key = ns + "/" + finalName
	}
	return key, written, nil
}

// Open opens a stored object for reading.
func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clean := filepath.Clean(filepath.FromSlash(storageKey))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, fmt.Errorf("invalid storage key")
	}

	f, err := os.Open(filepath.Join(s.baseDir, clean))
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Store) createFile(path string) (io.WriteCloser, error) {
	if s.create != nil {
		return s.create(path)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
}

func randomID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

var _ object.ObjectStore = (*Store)(nil)
