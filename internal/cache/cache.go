// Package cache memoizes expensive sub-simulation results on disk. Entries
// are msgpack blobs named after a hash of the configuration that produced
// them. An entry is recomputed only when its file is absent.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/vk/h2integrate/internal/ctxlog"
	"github.com/vk/h2integrate/internal/fsutil"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

const ext = ".msgpack"

// Key hashes the canonical JSON form of config followed by the plant life.
// Map keys and object attributes are emitted sorted, so equal
// configurations always produce the same key.
func Key(config any, plantLife int) (string, error) {
	var (
		b   []byte
		err error
	)
	switch v := config.(type) {
	case cty.Value:
		if v == cty.NilVal {
			v = cty.NullVal(cty.DynamicPseudoType)
		}
		b, err = ctyjson.Marshal(v, v.Type())
	default:
		b, err = json.Marshal(v)
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode cache key: %w", err)
	}

	h := xxhash.New()
	_, _ = h.Write(b)
	_, _ = h.WriteString(strconv.Itoa(plantLife))
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// Cache stores blobs under Dir.
type Cache struct {
	Dir string
}

// New returns a cache rooted at dir.
func New(dir string) *Cache {
	return &Cache{Dir: dir}
}

// Path returns the file an entry is stored in.
func (c *Cache) Path(key string) string {
	return filepath.Join(c.Dir, key+ext)
}

// Load decodes the entry for key into v. It reports false when there is no
// entry.
func (c *Cache) Load(key string, v any) (bool, error) {
	b, err := os.ReadFile(c.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}
	if err := msgpack.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}
	return true, nil
}

// Store writes v as the entry for key, creating the directory on demand.
func (c *Cache) Store(key string, v any) error {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(c.Dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	return os.Rename(tmp.Name(), c.Path(key))
}

// Prune removes entries last written more than maxAge ago and returns how
// many were removed. A missing directory is not an error.
func (c *Cache) Prune(ctx context.Context, maxAge time.Duration) (int, error) {
	logger := ctxlog.FromContext(ctx)
	if _, err := os.Stat(c.Dir); errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	files, err := fsutil.FindStaleFiles(c.Dir, ext, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			return removed, err
		}
		removed++
		logger.Debug("Pruned cache entry.", "file", f)
	}
	return removed, nil
}
