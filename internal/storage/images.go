package storage

import (
	"bytes"
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
)

var (
	ErrFileTooLarge    = errors.New("file exceeds the maximum upload size")
	ErrUnsupportedType = errors.New("only image files are allowed")
)

// PublicPrefix is the URL prefix under which stored files are served.
const PublicPrefix = "/uploads"

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// StoredFile describes a file persisted by an ImageStore.
type StoredFile struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	MimeType string `json:"mimetype"`
	Size     int64  `json:"size"`
}

// ImageStore persists uploaded product images and removes them again.
type ImageStore interface {
	Save(ctx context.Context, r io.Reader) (*StoredFile, error)
	Delete(ctx context.Context, publicPath string) error
	Owns(publicPath string) bool
}

// LocalImageStore keeps images on the local disk below root/products.
type LocalImageStore struct {
	root     string
	subdir   string
	maxBytes int64
}

// NewLocalImageStore creates the image directory if needed.
func NewLocalImageStore(root string, maxBytes int64) (*LocalImageStore, error) {
	s := &LocalImageStore{root: root, subdir: "products", maxBytes: maxBytes}
	if err := os.MkdirAll(filepath.Join(root, s.subdir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return s, nil
}

// Root is the directory served under PublicPrefix.
func (s *LocalImageStore) Root() string {
	return s.root
}

// Save sniffs the content type, rejects anything that is not an image and
// writes the file under a random name.
func (s *LocalImageStore) Save(ctx context.Context, r io.Reader) (*StoredFile, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if n > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	mtype := mimetype.Detect(buf.Bytes())
	base := strings.SplitN(mtype.String(), ";", 2)[0]
	if !allowedTypes[base] {
		return nil, ErrUnsupportedType
	}

	filename := uuid.New().String() + mtype.Extension()
	if err := os.WriteFile(filepath.Join(s.root, s.subdir, filename), buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}

	return &StoredFile{
		Filename: filename,
		Path:     path.Join(PublicPrefix, s.subdir, filename),
		MimeType: base,
		Size:     n,
	}, nil
}

// Owns reports whether publicPath points at a file managed by this store.
// External image URLs are left alone.
func (s *LocalImageStore) Owns(publicPath string) bool {
	_, ok := s.diskPath(publicPath)
	return ok
}

// Delete removes a stored file. Missing files count as already deleted.
func (s *LocalImageStore) Delete(ctx context.Context, publicPath string) error {
	diskPath, ok := s.diskPath(publicPath)
	if !ok {
		return nil
	}

	if err := os.Remove(diskPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", publicPath, err)
	}
	return nil
}

func (s *LocalImageStore) diskPath(publicPath string) (string, bool) {
	prefix := path.Join(PublicPrefix, s.subdir) + "/"
	if !strings.HasPrefix(publicPath, prefix) {
		return "", false
	}

	name := strings.TrimPrefix(path.Clean(publicPath), prefix)
	if name == "" || strings.Contains(name, "/") || name == ".." {
		return "", false
	}

	return filepath.Join(s.root, s.subdir, name), true
}
