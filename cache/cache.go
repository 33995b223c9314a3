package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Cache stores JSON responses on disk, one directory per namespace.
type Cache struct {
	dir    string
	maxAge time.Duration
}

func New(dir string, maxAge time.Duration) *Cache {
	if dir == "" {
		dir = "cache"
	}
	if maxAge <= 0 {
		maxAge = time.Minute
	}
	return &Cache{dir: dir, maxAge: maxAge}
}

// Path returns the cache file for a request key
func (c *Cache) Path(namespace, key string) string {
	return filepath.Join(c.dir, namespace, generateHash(key)+".json")
}

// generateHash generates an xxHash hash for the given string
func generateHash(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}

func (c *Cache) Write(namespace, key string, body []byte) error {
	if err := os.MkdirAll(filepath.Join(c.dir, namespace), 0755); err != nil {
		return err
	}
	return os.WriteFile(c.Path(namespace, key), body, 0644)
}

// Read returns the cached body if it exists and is not expired
func (c *Cache) Read(namespace, key string) ([]byte, bool) {
	path := c.Path(namespace, key)

	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) > c.maxAge {
		return nil, false
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return content, true
}

// Clear drops every entry of the given namespaces
func (c *Cache) Clear(namespaces ...string) error {
	for _, ns := range namespaces {
		if err := os.RemoveAll(filepath.Join(c.dir, ns)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) ClearAll() error {
	return os.RemoveAll(c.dir)
}

// ClearOld removes cache files older than maxAge
func (c *Cache) ClearOld() error {
	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return nil
	}
	return filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		if time.Since(info.ModTime()) > c.maxAge {
			os.Remove(path)
		}
		return nil
	})
}

// Schedule sweeps expired entries every ten minutes.
func (c *Cache) Schedule(sched *cron.Cron) error {
	_, err := sched.AddFunc("@every 10m", func() {
		if err := c.ClearOld(); err != nil {
			zap.S().Warnf("cache sweep failed: %v", err)
		}
	})
	return err
}
