// Package keycache stores flattened key sequences on disk, addressed by the
// digest of the document content and the extraction settings.
package keycache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// bump when Entry changes shape
const schemaVersion uint16 = 1

// Digest identifies one (content, extraction mode) combination.
type Digest [sha256.Size]byte

// Cache is a directory of msgpack entries. A nil *Cache is a valid disabled cache.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Entry is the on-disk payload.
type Entry struct {
	Schema uint16
	Mode   string
	Keys   []string
}

// Open returns a cache under $XDG_CACHE_HOME/<app> (or ~/.cache/<app>).
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
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// Key digests the extraction mode together with the document bytes.
func Key(mode string, content []byte) Digest {
	h := sha256.New()
	h.Write([]byte(mode))
	h.Write([]byte{0})
	h.Write(content)
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

func (c *Cache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "keys", hexKey[:2], hexKey+".mp")
}

// Put writes keys under key. The file is replaced atomically.
func (c *Cache) Put(key Digest, mode string, keys []string) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp) //nolint:errcheck

	if err := msgpack.NewEncoder(f).Encode(&Entry{Schema: schemaVersion, Mode: mode, Keys: keys}); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// Get returns the cached keys for key. Entries of another schema or mode miss.
func (c *Cache) Get(key Digest, mode string) ([]string, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close() //nolint:errcheck

	var e Entry
	if err := msgpack.NewDecoder(f).Decode(&e); err != nil {
		return nil, false, err
	}
	if e.Schema != schemaVersion || e.Mode != mode {
		return nil, false, nil
	}
	return e.Keys, true, nil
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
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
