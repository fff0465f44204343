package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/domain"
)

var _ domain.ObjectStorage = (*LocalStorage)(nil)

// LocalStorage keeps objects on disk under root/<bucket>/<path>
type LocalStorage struct {
	root          string
	publicBaseURL string
}

// NewLocalStorage creates the root directory if needed
func NewLocalStorage(root, publicBaseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{root: root, publicBaseURL: publicBaseURL}, nil
}

// resolve maps bucket/path to a file under root, rejecting escapes
func (s *LocalStorage) resolve(bucket, path string) (string, error) {
	if bucket == "" || path == "" {
		return "", domain.NewValidationError("bucket and path are required")
	}
	full := filepath.Join(s.root, bucket, filepath.FromSlash(path))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", domain.NewValidationError("object path escapes the storage root")
	}
	return full, nil
}

// Upload writes data atomically
func (s *LocalStorage) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	full, err := s.resolve(bucket, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return domain.NewStorageError("upload", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return domain.NewStorageError("upload", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return domain.NewStorageError("upload", err)
	}
	if err := tmp.Close(); err != nil {
		return domain.NewStorageError("upload", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return domain.NewStorageError("upload", err)
	}
	return nil
}

// PublicURL returns the URL Handler serves bucket/path under
func (s *LocalStorage) PublicURL(bucket, path string) string {
	return PublicURL(s.publicBaseURL, bucket, path)
}

// Download reads bucket/path
func (s *LocalStorage) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	full, err := s.resolve(bucket, path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.NewNotFoundError("stored report")
		}
		return nil, domain.NewStorageError("download", err)
	}
	return data, nil
}

// Handler serves stored objects under /storage/v1/object/public/<bucket>/<path>.
// Only regular files are served; directories and upload temp files answer 404.
func (s *LocalStorage) Handler() http.Handler {
	return http.StripPrefix(publicPrefix, http.HandlerFunc(s.serveObject))
}

func (s *LocalStorage) serveObject(w http.ResponseWriter, r *http.Request) {
	bucket, path, ok := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if !ok || path == "" || strings.HasSuffix(path, "/") || strings.HasPrefix(filepath.Base(path), ".") {
		http.NotFound(w, r)
		return
	}
	full, err := s.resolve(bucket, path)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(full)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
