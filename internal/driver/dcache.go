package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"joosc/internal/source"
)

// Bump when the DiskPayload format changes.
const diskCacheSchemaVersion uint16 = 1

// Digest identifies one source set by content.
type Digest [32]byte

// DiskCache records front-end health per source-set digest, so repeated
// builds of an unchanged tree can report cache status. Safe to delete at
// any time.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is the cached record for one source set.
type DiskPayload struct {
	Schema  uint16
	Files   int
	Healthy bool
}

// OpenDiskCache initializes the cache under the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "builds", hex.EncodeToString(key[:])+".bin")
}

// Load reads the payload for a digest, if present and decodable.
func (c *DiskCache) Load(key Digest) (DiskPayload, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// #nosec G304 -- path derives from a content hash
	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		return DiskPayload{}, false
	}
	var p DiskPayload
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return DiskPayload{}, false
	}
	return p, true
}

// Store writes the payload for a digest.
func (c *DiskCache) Store(key Digest, p DiskPayload) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := msgpack.Marshal(&p)
	if err != nil {
		return err
	}
	path := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// digestOf folds every file hash in the set into one digest.
func digestOf(fset *source.FileSet) Digest {
	h := sha256.New()
	for i := 0; i < fset.Len(); i++ {
		f := fset.Get(source.FileID(i))
		h.Write(f.Hash[:])
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}
