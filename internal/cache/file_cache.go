// Package cache keeps recent backend responses on disk so repeated CLI
// invocations inside the TTL do not hit the fleet backend.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/campus-velo/velo/internal/clock"
)

const appDir = "velo"

// FileCache implements a file-based cache with TTL
type FileCache struct {
	dir   string
	ttl   time.Duration
	clock clock.Clock
}

// cacheEntry represents a cached item with its storage and expiry time
type cacheEntry struct {
	Data      []byte    `json:"data"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Option configures a FileCache
type Option func(*FileCache)

// WithClock replaces the wall clock used for expiry
func WithClock(c clock.Clock) Option {
	return func(fc *FileCache) {
		fc.clock = c
	}
}

// NewFileCache creates a new file cache
func NewFileCache(dir string, ttl time.Duration, opts ...Option) (*FileCache, error) {
	// Create cache directory if it doesn't exist (0750 for security)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, err
	}

	fc := &FileCache{
		dir:   dir,
		ttl:   ttl,
		clock: clock.Real(),
	}
	for _, opt := range opts {
		opt(fc)
	}
	return fc, nil
}

// DefaultCacheDir returns the default cache directory
func DefaultCacheDir() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return filepath.Join(xdgCache, appDir)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appDir+"-cache")
	}

	return filepath.Join(home, ".cache", appDir)
}

// Dir returns the directory holding the entries
func (c *FileCache) Dir() string {
	return c.dir
}

// keyToFilename converts a cache key (URL) to a filename
func (c *FileCache) keyToFilename(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(hash[:])+".json")
}

// read loads an entry, removing it when it is corrupt or expired
func (c *FileCache) read(filename string) (cacheEntry, bool) {
	// #nosec G304 -- filename is derived from hash of cache key, not user input
	data, err := os.ReadFile(filename)
	if err != nil {
		return cacheEntry{}, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = os.Remove(filename)
		return cacheEntry{}, false
	}

	if !c.clock.Now().Before(entry.ExpiresAt) {
		_ = os.Remove(filename)
		return cacheEntry{}, false
	}

	return entry, true
}

// Get retrieves a value from the cache
func (c *FileCache) Get(key string) ([]byte, bool) {
	entry, ok := c.read(c.keyToFilename(key))
	if !ok {
		return nil, false
	}
	return entry.Data, true
}

// Age reports how long ago a live entry was stored
func (c *FileCache) Age(key string) (time.Duration, bool) {
	entry, ok := c.read(c.keyToFilename(key))
	if !ok {
		return 0, false
	}
	return c.clock.Now().Sub(entry.StoredAt), true
}

// Set stores a value in the cache
func (c *FileCache) Set(key string, value []byte) error {
	now := c.clock.Now()
	entry := cacheEntry{
		Data:      value,
		StoredAt:  now,
		ExpiresAt: now.Add(c.ttl),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	// Use 0600 for cache files to restrict access to owner only
	return os.WriteFile(c.keyToFilename(key), data, 0600)
}

// Delete removes one entry
func (c *FileCache) Delete(key string) error {
	err := os.Remove(c.keyToFilename(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// entryFiles lists the entry files in the cache directory
func (c *FileCache) entryFiles() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			files = append(files, filepath.Join(c.dir, entry.Name()))
		}
	}
	return files, nil
}

// Clear removes all cache entries
func (c *FileCache) Clear() error {
	files, err := c.entryFiles()
	if err != nil {
		return err
	}
	for _, f := range files {
		_ = os.Remove(f)
	}
	return nil
}

// Cleanup removes expired and corrupt entries and returns how many live
// entries remain
func (c *FileCache) Cleanup() (int, error) {
	files, err := c.entryFiles()
	if err != nil {
		return 0, err
	}

	live := 0
	for _, f := range files {
		if _, ok := c.read(f); ok {
			live++
		}
	}
	return live, nil
}
