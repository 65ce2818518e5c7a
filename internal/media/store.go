package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/spec-kit/review-feed/pkg/util"
)

// allowedExtensions is the fixed allow-set for ticket images.
var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
}

// Store accepts uploaded image blobs and returns a reference path that
// the content store persists alongside the ticket.
type Store interface {
	Save(ownerID, filename string, data []byte) (string, error)
	Remove(path string) error
}

// ValidateExtension rejects filenames outside the image allow-set.
func ValidateExtension(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return apperrors.NewValidationError(
			fmt.Sprintf("image extension %q not allowed", ext),
			map[string]any{"allowed": []string{"jpg", "jpeg", "png", "gif"}},
		)
	}
	return nil
}

// LocalStore writes blobs under a base directory, keyed by
// (ownerID, slug, unique suffix).
type LocalStore struct {
	baseDir  string
	maxBytes int64
}

// NewLocalStore constructs a disk-backed store.
func NewLocalStore(baseDir string, maxBytes int64) *LocalStore {
	return &LocalStore{baseDir: baseDir, maxBytes: maxBytes}
}

// Save validates the extension and size, then writes the blob and
// returns the relative reference path.
func (s *LocalStore) Save(ownerID, filename string, data []byte) (string, error) {
	if err := ValidateExtension(filename); err != nil {
		return "", err
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", apperrors.NewValidationError("image exceeds maximum upload size", nil)
	}

	key := ObjectKey(ownerID, filename)
	full := filepath.Join(s.baseDir, key)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", err
	}
	return key, nil
}

// Remove deletes a previously stored blob. Missing files are not an
// error; the reference may already be gone.
func (s *LocalStore) Remove(path string) error {
	err := os.Remove(filepath.Join(s.baseDir, path))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ObjectKey derives the storage key for an upload: the owner's
// directory, the slugged filename, and a unique suffix so re-uploads
// never collide.
func ObjectKey(ownerID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	slug := Slugify(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return filepath.Join("tickets", "user_"+ownerID, fmt.Sprintf("%s_%s%s", slug, suffix, ext))
}

// Slugify lowercases a name and replaces spaces and quotes with
// underscores, keeping only filename-safe runes.
func Slugify(name string) string {
	name = strings.ToLower(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		case r == ' ', r == '\'':
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "image"
	}
	return b.String()
}
