package contentstore

import (
	"fmt"
	"path"
	"strings"
)

// BlobRef identifies the logical slot a blob belongs to. The storage path is
// derived entirely from the ref plus the content hash, which makes paths
// self-describing and collision-resistant.
type BlobRef struct {
	TenantID   string
	EntityType string
	EntityID   string
	Category   string
	Version    int
	FileName   string
}

func (r BlobRef) validate() error {
	if r.TenantID == "" || r.EntityType == "" || r.EntityID == "" || r.Category == "" {
		return fmt.Errorf("%w: tenant, entity type, entity id and category are required", ErrInvalidInput)
	}
	if r.Version < 1 {
		return fmt.Errorf("%w: version must be >= 1", ErrInvalidInput)
	}
	for _, part := range []string{r.TenantID, r.EntityType, r.EntityID, r.Category} {
		if strings.ContainsAny(part, "/\\") || strings.Contains(part, "..") {
			return fmt.Errorf("%w: path segment %q", ErrInvalidInput, part)
		}
	}
	return nil
}

// BuildPath renders the content-addressed storage path:
// {tenant}/{entityType}/{entityId}/{category}/v{version}/{sha256}.{ext}
func BuildPath(ref BlobRef, contentHash string) string {
	name := contentHash + FileExt(ref.FileName)
	return path.Join(ref.TenantID, ref.EntityType, ref.EntityID, ref.Category,
		fmt.Sprintf("v%d", ref.Version), name)
}

// FileExt returns the lowercase extension of name including the dot, or "".
func FileExt(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == "." {
		return ""
	}
	return ext
}
