// Package audiocache stores synthesized narration clips on disk and hands
// out the server-relative URLs under which the HTTP layer serves them.
package audiocache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// URLPrefix is the route under which cached clips are served.
const URLPrefix = "/static/"

// Cache is a flat directory of audio clips keyed by file name. Put-style
// methods write the clip and return its URL; Clear empties the directory
// when a new rule set invalidates old narration.
type Cache struct {
	mu  sync.Mutex
	dir string
}

// New creates the cache directory if needed and returns a Cache over it.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating audio cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the backing directory, for mounting as a file server.
func (c *Cache) Dir() string {
	return c.dir
}

// Put stores data under a random name with the given extension and returns
// the clip's URL.
func (c *Cache) Put(data []byte, ext string) (string, error) {
	name := uuid.NewString() + "." + strings.TrimPrefix(ext, ".")
	return c.PutNamed(name, data)
}

// PutNamed stores data under an exact file name, overwriting any previous
// clip of that name, and returns the clip's URL. Used for singleton clips
// like the intro narration.
func (c *Cache) PutNamed(name string, data []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.WriteFile(filepath.Join(c.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("writing audio clip %s: %w", name, err)
	}
	return URLPrefix + name, nil
}

// Lookup returns the URL for name if a clip of that name exists.
func (c *Cache) Lookup(name string) (url string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := os.Stat(filepath.Join(c.dir, name)); err != nil {
		return "", false
	}
	return URLPrefix + name, true
}

// Clear removes every cached clip. The directory itself survives.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("listing audio cache: %w", err)
	}
	var firstErr error
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
