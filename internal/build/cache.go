package build

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Workspace directory layout:
//
//	workspaceDir/
//	  <name>/                         # formula-level dir (cacheDir)
//	    .cache.json                   # build cache: maps plan digest → buildEntry
//	  <name>@<version>-<digest>/      # unpacked and built source tree (sourceDir)
const cacheFile = ".cache.json"

// buildEntry contains metadata about a single successful build.
type buildEntry struct {
	Keg       string    `json:"keg"`
	BuildTime time.Time `json:"build_time"`
}

// buildCache maps plan digests to their build entries.
type buildCache struct {
	Cache map[string]*buildEntry `json:"cache"`
}

func (c *buildCache) get(digest string) (*buildEntry, bool) {
	entry, ok := c.Cache[digest]
	return entry, ok
}

func (c *buildCache) set(digest string, entry *buildEntry) {
	if c.Cache == nil {
		c.Cache = make(map[string]*buildEntry)
	}
	c.Cache[digest] = entry
}

// cacheDir returns the formula-level directory for cache storage: workspaceDir/<name>.
func (b *Builder) cacheDir(name string) string {
	return filepath.Join(b.workspaceDir, name)
}

// sourceDir returns the build tree: workspaceDir/<name>@<version>-<digest>.
func (b *Builder) sourceDir(name, version, digest string) string {
	return filepath.Join(b.workspaceDir, fmt.Sprintf("%s@%s-%s", name, version, digest[:12]))
}

// loadCache reads the cache file of a formula. A missing file yields an
// empty cache.
func (b *Builder) loadCache(name string) (*buildCache, error) {
	data, err := os.ReadFile(filepath.Join(b.cacheDir(name), cacheFile))
	if os.IsNotExist(err) {
		return &buildCache{}, nil
	}
	if err != nil {
		return nil, err
	}
	var cache buildCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, err
	}
	return &cache, nil
}

// saveCache writes the cache file of a formula to the workspace directory.
func (b *Builder) saveCache(name string, cache *buildCache) error {
	dir := b.cacheDir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, cacheFile), data, 0o644)
}
