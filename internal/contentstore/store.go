package contentstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"compliance-backend/internal/shared/storage/object"
	"compliance-backend/internal/shared/telemetry"
	"compliance-backend/internal/shared/util"
)

// stagingPrefix roots copies made for external-platform handoff.
const stagingPrefix = "staging"

// Store is the content-addressed layer over the raw object store. Paths are
// derived from a BlobRef and the SHA-256 of the content.
type Store struct {
	Blobs object.ObjectStore
}

// New constructs a content store over the given object store.
func New(blobs object.ObjectStore) *Store {
	return &Store{Blobs: blobs}
}

// Upload stores data under its content-addressed path and returns the path.
func (s *Store) Upload(ctx context.Context, data []byte, ref BlobRef) (string, error) {
	if err := ref.validate(); err != nil {
		return "", err
	}
	if err := s.ping(ctx); err != nil {
		return "", err
	}

	hash := util.ContentHash(data)
	storagePath := BuildPath(ref, hash)
	contentType := http.DetectContentType(data)

	if _, err := s.Blobs.Put(ctx, storagePath, contentType, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("upload path=%s: %w", storagePath, err)
	}
	return storagePath, nil
}

// Download returns the full contents of the object at path.
func (s *Store) Download(ctx context.Context, storagePath string) ([]byte, error) {
	if err := s.ping(ctx); err != nil {
		return nil, err
	}

	body, err := s.Blobs.Open(ctx, storagePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("download path=%s: %w", storagePath, ErrNotFound)
		}
		return nil, fmt.Errorf("download path=%s: %w", storagePath, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("download path=%s: read: %w", storagePath, err)
	}
	return data, nil
}

// Move copies the object into the staging area for the target platform and
// returns the new path. The source object is retained for audit trail
// continuity; this is not a rename.
func (s *Store) Move(ctx context.Context, storagePath, targetPlatform string) (string, error) {
	if strings.TrimSpace(targetPlatform) == "" {
		return "", fmt.Errorf("%w: target platform is required", ErrInvalidInput)
	}

	newPath := path.Join(stagingPrefix, targetPlatform, storagePath)
	if err := s.Copy(ctx, storagePath, newPath); err != nil {
		return "", err
	}
	return newPath, nil
}

// Copy duplicates the object at src under dst.
func (s *Store) Copy(ctx context.Context, src, dst string) error {
	data, err := s.Download(ctx, src)
	if err != nil {
		return err
	}
	contentType := http.DetectContentType(data)
	if _, err := s.Blobs.Put(ctx, dst, contentType, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("copy src=%s dst=%s: %w", src, dst, err)
	}
	return nil
}

// Delete removes the object at path. It reports whether an object was
// actually removed.
func (s *Store) Delete(ctx context.Context, storagePath string) (bool, error) {
	if err := s.ping(ctx); err != nil {
		return false, err
	}

	present, err := s.Blobs.Exists(ctx, storagePath)
	if err != nil {
		return false, fmt.Errorf("delete path=%s: %w", storagePath, err)
	}
	if !present {
		return false, nil
	}
	if err := s.Blobs.Delete(ctx, storagePath); err != nil {
		return false, fmt.Errorf("delete path=%s: %w", storagePath, err)
	}
	return true, nil
}

// SignedURL returns a time-limited download URL, or "" when the backend
// cannot produce one.
func (s *Store) SignedURL(ctx context.Context, storagePath string, ttl time.Duration) (string, error) {
	if err := s.ping(ctx); err != nil {
		return "", err
	}
	url, err := s.Blobs.SignedURL(ctx, storagePath, ttl)
	if err != nil {
		return "", fmt.Errorf("signed url path=%s: %w", storagePath, err)
	}
	return url, nil
}

// Exists reports whether an object is present at path.
func (s *Store) Exists(ctx context.Context, storagePath string) (bool, error) {
	if err := s.ping(ctx); err != nil {
		return false, err
	}
	present, err := s.Blobs.Exists(ctx, storagePath)
	if err != nil {
		return false, fmt.Errorf("exists path=%s: %w", storagePath, err)
	}
	return present, nil
}

// CleanupOrphan deletes a blob whose owning record failed to persist. The
// failure to clean up is logged but not surfaced: the caller is already
// propagating the original error.
func (s *Store) CleanupOrphan(ctx context.Context, storagePath string) {
	if _, err := s.Delete(ctx, storagePath); err != nil {
		telemetry.Error("contentstore.orphan_cleanup_failed", map[string]any{
			"path": storagePath,
			"err":  err.Error(),
		})
	}
}

func (s *Store) ping(ctx context.Context) error {
	if err := s.Blobs.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}
