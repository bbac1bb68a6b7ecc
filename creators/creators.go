// Package creators answers whether a scraped artist already exists in the
// creator directory. The directory itself lives elsewhere; this package only
// reads from it.
package creators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Index is the creator directory port: a case-insensitive match limited to
// one result.
type Index interface {
	Contains(ctx context.Context, name string) (bool, error)
}

// LookupError wraps an index failure with the artist being checked.
type LookupError struct {
	Name string
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("check artist %q exists: %v", e.Name, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Artist returns the name whose lookup failed.
func (e *LookupError) Artist() string {
	return e.Name
}

// Checker trims names, short-circuits empty ones and caches answers.
type Checker struct {
	index Index
	cache *lru.Cache[string, bool]
}

// NewChecker wraps index with an LRU of cacheSize entries (0 disables caching).
func NewChecker(index Index, cacheSize int) (*Checker, error) {
	if index == nil {
		index = NopIndex{}
	}
	c := &Checker{index: index}
	if cacheSize > 0 {
		cache, err := lru.New[string, bool](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create creator cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// ArtistExists reports whether name matches a known creator. Blank names
// return false without touching the index. Failures are not cached.
func (c *Checker) ArtistExists(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, nil
	}

	key := strings.ToLower(name)
	if c.cache != nil {
		if found, ok := c.cache.Get(key); ok {
			return found, nil
		}
	}

	found, err := c.index.Contains(ctx, name)
	if err != nil {
		return false, &LookupError{Name: name, Err: err}
	}
	if c.cache != nil {
		c.cache.Add(key, found)
	}
	slog.Debug("creator lookup", slog.String("artist", name), slog.Bool("found", found))
	return found, nil
}

// NopIndex never matches. It stands in when no directory is configured.
type NopIndex struct{}

// Contains always reports false.
func (NopIndex) Contains(context.Context, string) (bool, error) {
	return false, nil
}
