package discord

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// HashCache remembers, per guild, the hash of every command last pushed to
// Discord so unchanged commands are not re-uploaded on each start.
type HashCache struct {
	dir string
	mu  sync.Mutex
}

func NewHashCache(dir string) *HashCache {
	return &HashCache{dir: dir}
}

func (c *HashCache) path(guildID string) string {
	return filepath.Join(c.dir, guildID+".json")
}

// Load returns the stored name to hash map. A missing or unreadable file is
// an empty cache.
func (c *HashCache) Load(guildID string) map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	hashes := make(map[string]string)
	data, err := os.ReadFile(c.path(guildID))
	if err != nil {
		return hashes
	}
	if err := json.Unmarshal(data, &hashes); err != nil {
		return make(map[string]string)
	}
	return hashes
}

func (c *HashCache) Save(guildID string, hashes map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create command cache dir: %w", err)
	}
	data, err := json.MarshalIndent(hashes, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path(guildID), data, 0o644)
}

// Forget drops the cache for a guild, e.g. after the bot leaves it.
func (c *HashCache) Forget(guildID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := os.Remove(c.path(guildID))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
