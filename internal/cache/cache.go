// Package cache keeps scan results on disk, keyed by the digest of the
// content they were computed from.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"vigil/internal/scope"
	"vigil/internal/violation"
)

// Current schema version - increment when a payload format changes
const schemaVersion uint16 = 1

// Digest is the SHA-256 of cached input.
type Digest [sha256.Size]byte

// Sum digests data.
func Sum(data []byte) Digest {
	return sha256.Sum256(data)
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Cache stores msgpack payloads under a directory.
// Thread-safe for concurrent access.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// BoundaryPayload is the cached scan of one source file.
type BoundaryPayload struct {
	Schema     uint16
	Path       string
	Boundaries scope.Boundaries
}

// ViolationPayload is a cached decode of one engine results file.
type ViolationPayload struct {
	Schema     uint16
	Source     string
	Violations []*violation.Violation
}

// Open returns the cache for app under XDG_CACHE_HOME, or ~/.cache.
func Open(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDir(filepath.Join(base, app))
}

// OpenDir returns a cache rooted at dir, creating it if needed.
func OpenDir(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *Cache) pathFor(kind string, key Digest) string {
	return filepath.Join(c.dir, kind, key.String()+".mp")
}

// PutBoundaries stores the scan of the file at path whose content hashes to key.
func (c *Cache) PutBoundaries(key Digest, path string, b scope.Boundaries) error {
	return c.put("scope", key, &BoundaryPayload{Schema: schemaVersion, Path: path, Boundaries: b})
}

// GetBoundaries returns a cached scan. A payload from another schema is a miss.
func (c *Cache) GetBoundaries(key Digest) (scope.Boundaries, bool, error) {
	var p BoundaryPayload
	ok, err := c.get("scope", key, &p)
	if !ok || err != nil || p.Schema != schemaVersion {
		return scope.Boundaries{}, false, err
	}
	return p.Boundaries, true, nil
}

// PutViolations stores the decoded violations of a results file.
func (c *Cache) PutViolations(key Digest, source string, vs []*violation.Violation) error {
	return c.put("violations", key, &ViolationPayload{Schema: schemaVersion, Source: source, Violations: vs})
}

// GetViolations returns cached violations. A payload from another schema is a miss.
func (c *Cache) GetViolations(key Digest) ([]*violation.Violation, bool, error) {
	var p ViolationPayload
	ok, err := c.get("violations", key, &p)
	if !ok || err != nil || p.Schema != schemaVersion {
		return nil, false, err
	}
	return p.Violations, true, nil
}

func (c *Cache) put(kind string, key Digest, payload any) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(kind, key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp) //nolint:errcheck
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close() //nolint:errcheck
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// atomic replace
	return os.Rename(tmp, p)
}

func (c *Cache) get(kind string, key Digest, out any) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(kind, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("cache: corrupt entry %s: %w", key, err)
	}
	return true, nil
}

// DropAll removes every entry.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}
