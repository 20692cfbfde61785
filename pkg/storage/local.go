package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage persists files on disk under a base directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Save writes the given bytes to the provided relative key under the base dir.
func (s *LocalStorage) Save(key string, data []byte) error {
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("prepare blob directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write blob file: %w", err)
	}
	return nil
}

// Open returns a read-only handle for the stored file.
func (s *LocalStorage) Open(key string) (*os.File, error) {
	target, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("open blob file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(key string) error {
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob file: %w", err)
	}
	return nil
}

// resolve maps a slash separated key into the base dir, refusing keys that escape it.
func (s *LocalStorage) resolve(key string) (string, error) {
	for _, segment := range strings.Split(key, "/") {
		if segment == ".." {
			return "", fmt.Errorf("invalid blob key %q", key)
		}
	}
	cleaned := path.Clean("/" + key)
	if cleaned == "/" {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(strings.TrimPrefix(cleaned, "/"))), nil
}

// LocalBlobStore exposes LocalStorage as a BlobStore whose URLs point at the
// signed media route of this service.
type LocalBlobStore struct {
	files   *LocalStorage
	signer  *SignedURLSigner
	baseURL string
}

// NewLocalBlobStore builds a local blob store. baseURL is the public origin the media route is served from.
func NewLocalBlobStore(files *LocalStorage, signer *SignedURLSigner, baseURL string) *LocalBlobStore {
	return &LocalBlobStore{files: files, signer: signer, baseURL: strings.TrimRight(baseURL, "/")}
}

// contentTypePrefix holds one sidecar per blob recording the content type it was checked as.
const contentTypePrefix = ".content-type/"

// MediaObject is an opened local blob.
type MediaObject struct {
	File        *os.File
	Key         string
	ContentType string
}

// Put implements BlobStore.
func (s *LocalBlobStore) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.files.Save(key, data); err != nil {
		return "", err
	}
	if err := s.files.Save(contentTypePrefix+key, []byte(contentType)); err != nil {
		_ = s.files.Delete(key)
		return "", err
	}
	token, _, err := s.signer.Generate(key)
	if err != nil {
		_ = s.Delete(context.Background(), key)
		return "", fmt.Errorf("sign blob url: %w", err)
	}
	return fmt.Sprintf("%s/media/%s", s.baseURL, token), nil
}

// Delete implements BlobStore.
func (s *LocalBlobStore) Delete(_ context.Context, key string) error {
	if err := s.files.Delete(key); err != nil {
		return err
	}
	return s.files.Delete(contentTypePrefix + key)
}

// Resolve validates a media token and opens the referenced file. Blobs without a
// recorded content type resolve as application/octet-stream.
func (s *LocalBlobStore) Resolve(token string) (*MediaObject, error) {
	key, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(key, contentTypePrefix) {
		return nil, ErrObjectNotFound
	}
	file, err := s.files.Open(key)
	if err != nil {
		return nil, err
	}
	return &MediaObject{File: file, Key: key, ContentType: s.contentType(key)}, nil
}

func (s *LocalBlobStore) contentType(key string) string {
	f, err := s.files.Open(contentTypePrefix + key)
	if err != nil {
		return "application/octet-stream"
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, 256))
	if err != nil || len(raw) == 0 {
		return "application/octet-stream"
	}
	return strings.TrimSpace(string(raw))
}
