package audio

import (
	"log/slog"
	"path/filepath"
	"sync"
)

// Cache keeps decoded clips in memory so playback does not wait on disk.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*Resource
	load  func(path string) (*Resource, error)
}

func NewCache() *Cache {
	return &Cache{
		items: make(map[string]*Resource),
		load:  LoadResource,
	}
}

// Load returns the cached clip, reading it from disk on a miss.
func (c *Cache) Load(path string) (*Resource, error) {
	key := filepath.Clean(path)

	c.mu.RLock()
	res, ok := c.items[key]
	c.mu.RUnlock()
	if ok {
		return res, nil
	}

	res, err := c.load(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.items[key]; ok {
		return existing, nil
	}
	c.items[key] = res
	return res, nil
}

// Warm pre-buffers a clip so the first real playback starts quickly.
func (c *Cache) Warm(path string) error {
	res, err := c.Load(path)
	if err != nil {
		return err
	}
	slog.Info("Audio clip buffered", "title", res.Title, "frames", len(res.Frames))
	return nil
}

// Reload replaces the cached clip with a fresh read. The old clip stays cached on failure.
func (c *Cache) Reload(path string) error {
	res, err := c.load(path)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.items[filepath.Clean(path)] = res
	c.mu.Unlock()

	slog.Info("Audio clip reloaded", "title", res.Title, "frames", len(res.Frames))
	return nil
}
