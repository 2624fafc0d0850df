// Package upload stores uploaded image bytes on disk and hands back the URL
// they are served under.
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

	util "memorludo/internal/util"
)

var (
	ErrTooLarge = errors.New("file exceeds the upload size limit")
	ErrBadType  = errors.New("file type is not an accepted image format")
)

var allowedExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
}

// Store writes image files into a single directory with uuid-derived names,
// so uploaded names never collide and never leak into paths.
type Store struct {
	dir      string
	urlBase  string
	maxBytes int64
}

func NewStore(dir, urlBase string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &Store{dir: dir, urlBase: urlBase, maxBytes: maxBytes}, nil
}

// Save persists one uploaded file and returns its serving URL.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	if fh.Size > s.maxBytes {
		return "", ErrTooLarge
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", ErrBadType
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + ext
	dstPath := filepath.Join(s.dir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dstPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(src, s.maxBytes+1)); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dstPath, err)
	}

	util.LogInfo("Stored upload %s (%d bytes)", name, fh.Size)
	return s.urlBase + "/" + name, nil
}

// SaveAll stores every file, cleaning nothing up on partial failure; the
// caller decides whether a partial set is usable.
func (s *Store) SaveAll(files []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, fh := range files {
		url, err := s.Save(fh)
		if err != nil {
			return urls, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}
