package antikvarium

import (
	"strings"
	"sync"

	"github.com/otapi/antikvarium/internal/metadata"
)

// ResolutionCache is the run-scoped identifier cache shared by the detail
// workers: antik id to cover URL, and ISBN to antik id. Both mappings grow
// monotonically for the lifetime of one Source instance; overwrites are
// allowed, deletions are not. A single mutex serializes all access —
// contention is negligible at this scale.
type ResolutionCache struct {
	mu          sync.Mutex
	coverURLs   map[string]string
	identifiers map[string]string
}

// NewResolutionCache creates an empty cache.
func NewResolutionCache() *ResolutionCache {
	return &ResolutionCache{
		coverURLs:   make(map[string]string),
		identifiers: make(map[string]string),
	}
}

// SetCoverURL records the cover image URL for an antik id.
func (c *ResolutionCache) SetCoverURL(antikID, coverURL string) {
	if antikID == "" || coverURL == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coverURLs[antikID] = coverURL
}

// SetIdentifier records the antik id resolved for an ISBN.
func (c *ResolutionCache) SetIdentifier(isbn, antikID string) {
	if isbn == "" || antikID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identifiers[isbn] = antikID
}

// AntikID returns the cached antik id for an ISBN, if any.
func (c *ResolutionCache) AntikID(isbn string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.identifiers[isbn]
	return id, ok
}

// CoverURL resolves a cover URL from request identifiers without touching
// the network. The antik id is probed directly, then under the "small/"
// variant key; without an antik id the ISBN mapping is consulted first.
func (c *ResolutionCache) CoverURL(identifiers map[string]string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	antikID := identifiers[metadata.IDKeyAntik]
	if antikID == "" {
		antikID = c.identifiers[identifiers[metadata.IDKeyISBN]]
	}
	if antikID == "" {
		return "", false
	}

	if url := c.coverURLLocked(antikID); url != "" {
		return url, true
	}
	// A lower-resolution image may already be cached under the variant key.
	if url := c.coverURLLocked("small/" + antikID); url != "" {
		return url, true
	}
	return "", false
}

// coverURLLocked looks up one key, falling back to any key sharing the
// same prefix: the site is not consistent about which image size lands in
// the cache, so a sibling key may still hold a usable URL.
func (c *ResolutionCache) coverURLLocked(id string) string {
	if url, ok := c.coverURLs[id]; ok {
		return url
	}
	idx := strings.LastIndex(id, "/")
	if idx <= 0 {
		return ""
	}
	prefix := id[:idx]
	for key, url := range c.coverURLs {
		if strings.HasPrefix(key, prefix) {
			return url
		}
	}
	return ""
}
