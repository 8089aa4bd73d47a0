package cache

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// File names written by [FileCache]. Keys whose encoded form exceeds
// maxNameBytes are stored under their SHA-256 digest instead.
const (
	fileSuffix   = ".cache"
	tmpPrefix    = ".tmp-"
	maxNameBytes = 200
)

// FileCache implements a file-based cache for CLI usage.
// Each key is stored as one file in a folder that must already exist. The
// folder may be shared with other files: the cache only touches names it
// writes itself.
type FileCache struct {
	dir string
}

// NewFileCache creates a file-based cache in the given directory.
// Unlike the other strategies it never creates its folder: a missing folder
// is reported as [ErrFolderNotFound].
func NewFileCache(dir string) (Cache, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: empty path", ErrFolderNotFound)
	}
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFolderNotFound, dir)
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrFolderNotFound, dir)
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the cache folder.
func (c *FileCache) Dir() string { return c.dir }

// Get retrieves a value from the cache. A missing file is a miss.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(c.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set overwrites the file for key. The data is written to a temporary file
// first and renamed into place, so concurrent readers see either the old or
// the new contents.
func (c *FileCache) Set(ctx context.Context, key string, data []byte) error {
	tmp := filepath.Join(c.dir, tmpPrefix+uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, c.path(key)); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Delete removes a value from the cache.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Clear removes every cache file and leftover temporary file in the folder.
// Other files are left alone. Files that cannot be removed are skipped; the
// first such error is returned after the sweep.
func (c *FileCache) Clear(ctx context.Context) error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	var firstErr error
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.Type().IsRegular() || !owned(e.Name()) {
			continue
		}
		err := os.Remove(filepath.Join(c.dir, e.Name()))
		if err != nil && !errors.Is(err, os.ErrNotExist) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close does nothing for file cache.
func (c *FileCache) Close() error {
	return nil
}

// path converts a cache key to a file path inside the cache folder.
func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, FileName(key))
}

// FileName percent-encodes key into a single filesystem-safe file name
// carrying the cache suffix.
func FileName(key string) string {
	name := url.QueryEscape(key)
	if len(name) > maxNameBytes {
		name = "sha256-" + Hash([]byte(key))
	}
	return name + fileSuffix
}

func owned(name string) bool {
	return strings.HasSuffix(name, fileSuffix) || strings.HasPrefix(name, tmpPrefix)
}

// Ensure FileCache implements Cache.
var _ Cache = (*FileCache)(nil)
