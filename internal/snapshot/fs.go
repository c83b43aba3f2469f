package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/starford/wanikanji/internal/checksum"
)

const (
	ext        = ".json"
	tempPrefix = ".wanikanji-tmp-"
)

// FS implements Store with one <key>.json file per snapshot.
type FS struct {
	dir string // absolute path to the cache directory
}

var _ Store = (*FS)(nil)

// NewFS opens the cache rooted at dir. The directory must already exist;
// it is never created here.
func NewFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("snapshot: resolve dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCacheDirectoryNotFound, abs)
		}
		return nil, fmt.Errorf("snapshot: stat dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrCacheDirectoryNotFound, abs)
	}
	return &FS{dir: abs}, nil
}

// Dir returns the absolute cache directory.
func (f *FS) Dir() string { return f.dir }

// Path returns the file backing key.
func (f *FS) Path(key string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	return filepath.Join(f.dir, key+ext), nil
}

// Insert writes v as indented JSON: tmp file → fsync → rename.
func (f *FS) Insert(key string, v any) error {
	path, err := f.Path(key)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot: encode %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(f.dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("snapshot: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("snapshot: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("snapshot: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("snapshot: rename: %w", err)
	}
	success = true
	return nil
}

// Get reads and decodes the snapshot stored under key.
func (f *FS) Get(key string, v any) (bool, error) {
	path, err := f.Path(key)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("snapshot: read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("snapshot: decode %s: %w", key, err)
	}
	return true, nil
}

// List returns metadata for every snapshot file in the cache directory.
func (f *FS) List() ([]Meta, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("snapshot: list: %w", err)
	}
	out := make([]Meta, 0, len(entries))
	for _, e := range entries {
		key, ok := KeyOf(e.Name())
		if e.IsDir() || !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("snapshot: list: %w", err)
		}
		data, err := os.ReadFile(filepath.Join(f.dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("snapshot: list: %w", err)
		}
		out = append(out, Meta{
			Key:       key,
			Checksum:  checksum.Sum(data),
			Size:      info.Size(),
			UpdatedAt: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// KeyOf maps a cache file name back to its snapshot key. Temp files and
// non-JSON files are not snapshots.
func KeyOf(name string) (string, bool) {
	base := filepath.Base(name)
	if strings.HasPrefix(base, tempPrefix) || !strings.HasSuffix(base, ext) {
		return "", false
	}
	key := strings.TrimSuffix(base, ext)
	return key, validKey(key) == nil
}

// validKey rejects keys that would escape the cache directory.
func validKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("snapshot: invalid key %q", key)
	}
	return nil
}
