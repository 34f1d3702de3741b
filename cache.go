package archipelago

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/singleflight"

	"github.com/michael4d45/archipelago/internal/protocol"
)

// Cache stores downloaded datapackages on disk so a client doesn't have to
// re-request them (which can be tens of megabytes for large games) on every
// connection.
type Cache struct {
	root   string
	logger *log.Logger
	group  singleflight.Group
}

// SharedCache returns a Cache that uses Archipelago's platform-default
// shared directory, letting multiple client libraries and games reuse the
// same downloaded datapackages.
func SharedCache(logger *log.Logger) *Cache {
	root := platformCacheDir()
	if root == "" {
		if wd, err := os.Getwd(); err == nil {
			root = filepath.Join(wd, "Archipelago", "Cache")
		} else {
			root = filepath.Join("Archipelago", "Cache")
		}
	}
	return NewCache(root, logger)
}

// NewCache returns a Cache rooted at a custom path.
func NewCache(root string, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.Default()
	}
	return &Cache{root: root, logger: logger}
}

func platformCacheDir() string {
	switch runtime.GOOS {
	case "windows":
		if v := os.Getenv("LOCALAPPDATA"); v != "" {
			return filepath.Join(v, "Archipelago", "Cache")
		}
		return ""
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "Library", "Caches", "Archipelago", "Cache")
		}
		return ""
	default:
		if v := os.Getenv("XDG_CACHE_HOME"); v != "" {
			return filepath.Join(v, "Archipelago", "Cache")
		}
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".cache", "Archipelago", "Cache")
		}
		return ""
	}
}

func (c *Cache) dataPackageDir() string {
	return filepath.Join(c.root, "datapackage")
}

// Load returns the cached game data for every entry of checksums (a map
// from game name to expected checksum) whose file exists, deserializes, and
// has a matching embedded checksum. Missing or mismatched entries are
// simply omitted, not an error. Concurrent loads of the same game and
// checksum on one Cache are deduplicated.
func (c *Cache) Load(checksums map[string]string) map[string]protocol.GameData {
	out := make(map[string]protocol.GameData, len(checksums))
	for game, checksum := range checksums {
		key := fmt.Sprintf("%s@%s", game, checksum)
		v, _, _ := c.group.Do(key, func() (any, error) {
			return c.loadOne(game, checksum), nil
		})
		if data, ok := v.(*protocol.GameData); ok && data != nil {
			out[game] = *data
		}
	}
	return out
}

func (c *Cache) loadOne(game, checksum string) *protocol.GameData {
	path := filepath.Join(c.dataPackageDir(), game, checksum+".json")
	b, err := os.ReadFile(path)
	if err != nil {
		c.logger.Printf("archipelago: cache: missing or unreadable cache for %s: %v", game, err)
		return nil
	}

	var data protocol.GameData
	if err := json.Unmarshal(b, &data); err != nil {
		c.logger.Printf("archipelago: cache: failed to deserialize cached data package for %s: %v", game, err)
		return nil
	}
	if data.Checksum != checksum {
		return nil
	}
	return &data
}

// Store persists dataPackages (game name -> game data) to disk. Each
// game's subdirectory is created best-effort; if that fails, the whole
// store aborts since later entries would likely fail the same way. An
// individual game's serialization failure only skips that game.
func (c *Cache) Store(dataPackages map[string]protocol.GameData) {
	dir := c.dataPackageDir()
	for game, data := range dataPackages {
		gameDir := filepath.Join(dir, game)
		if err := os.MkdirAll(gameDir, 0o755); err != nil {
			c.logger.Printf("archipelago: cache: failed to create cache directory %s: %v", gameDir, err)
			return
		}

		b, err := json.Marshal(data)
		if err != nil {
			c.logger.Printf("archipelago: cache: failed to serialize data package for %s: %v", game, err)
			continue
		}

		path := filepath.Join(gameDir, data.Checksum+".json")
		if err := writeFileAtomic(path, b); err != nil {
			c.logger.Printf("archipelago: cache: failed to write cached data package to %s: %v", path, err)
		}
	}
}

// writeFileAtomic writes data to a temporary sibling of path and renames it
// into place, so a reader never observes a partially-written file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
