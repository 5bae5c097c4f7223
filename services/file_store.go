package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/kendall-kelly/workshop-manager/config"
)

// FileStore is the port the repositories use for product images and service
// receipts. The core stores only the returned path and never the bytes.
type FileStore interface {
	// Save writes r under the logical name, replacing any file of that name,
	// and returns the stored path
	Save(ctx context.Context, name string, r io.Reader) (string, error)

	// Open reads a previously stored path
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Remove deletes a stored path. Removing a missing file is not an error.
	Remove(ctx context.Context, path string) error
}

// ErrFileNotFound is returned by Open for paths that do not exist
var ErrFileNotFound = errors.New("file not found")

// ProductImageName is the deterministic storage name of a product image
func ProductImageName(key, ext string) string {
	return "product_" + sanitizeName(key) + normalizeExt(ext)
}

// ServiceReceiptName is the deterministic storage name of a service receipt
func ServiceReceiptName(serviceID uint, ext string) string {
	return fmt.Sprintf("service_%d_receipt%s", serviceID, normalizeExt(ext))
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func sanitizeName(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, key)
}

// LocalFileStore keeps files in a directory on the local disk
type LocalFileStore struct {
	dir string
}

// NewLocalFileStore creates a store rooted at dir
func NewLocalFileStore(dir string) *LocalFileStore {
	return &LocalFileStore{dir: dir}
}

// Save writes the file as dir/name, overwriting an existing one
func (s *LocalFileStore) Save(ctx context.Context, name string, r io.Reader) (path string, err error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}

	path = filepath.Join(s.dir, filepath.Base(name))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() {
		if closeErr := dst.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close destination file: %w", closeErr)
		}
	}()

	if _, err := io.Copy(dst, r); err != nil {
		// a partial write must not be served later
		_ = dst.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return path, nil
}

// Open opens a stored file for reading
func (s *LocalFileStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, ErrFileNotFound
	}
	return f, err
}

// Remove deletes a stored file
func (s *LocalFileStore) Remove(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// NewFileStores builds the image and receipt stores selected by cfg
func NewFileStores(ctx context.Context, cfg *config.Config) (images, receipts FileStore, err error) {
	switch cfg.StorageDriver {
	case config.StorageS3:
		client, err := NewS3Client(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Storing files in s3://%s", cfg.AWSS3Bucket)
		return NewS3FileStore(client, cfg.AWSS3Bucket, "images"), NewS3FileStore(client, cfg.AWSS3Bucket, "receipts"), nil
	default:
		log.Printf("Storing images in %s and receipts in %s", cfg.ImageDir, cfg.ReceiptDir)
		return NewLocalFileStore(cfg.ImageDir), NewLocalFileStore(cfg.ReceiptDir), nil
	}
}
