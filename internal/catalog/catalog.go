// Package catalog holds the in-memory forms catalog.
package catalog

import (
	"strings"
	"sync"
)

// Entry is one catalog listing. ID is empty for entries not yet created on
// the backend; the backend owns ID uniqueness.
type Entry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"desc"`
	BaseURL     string `json:"baseUrl"`
}

// Cache is the ordered in-memory catalog. The backing slice is replaced
// wholesale on every successful list fetch; there is no incremental merge.
// The list result is the only writer, everything else reads.
type Cache struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewCache() *Cache {
	return &Cache{}
}

// Replace atomically swaps the backing sequence. Readers never observe a
// partial update. The slice is copied so callers cannot alias the cache.
func (c *Cache) Replace(entries []Entry) {
	copied := make([]Entry, len(entries))
	copy(copied, entries)

	c.mu.Lock()
	c.entries = copied
	c.mu.Unlock()
}

// Clear empties the catalog. Used when a list fetch exhausts its retries.
func (c *Cache) Clear() {
	c.Replace(nil)
}

// Entries returns a snapshot of the catalog in backend order.
func (c *Cache) Entries() []Entry {
	return c.Search("")
}

// Search returns the entries whose title or description contains query
// case-insensitively. The empty query matches everything. The projection is
// recomputed on every call; catalogs are small and searches are driven by
// keystrokes.
func (c *Cache) Search(query string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))

	c.mu.RLock()
	defer c.mu.RUnlock()

	matched := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		if q == "" ||
			strings.Contains(strings.ToLower(entry.Title), q) ||
			strings.Contains(strings.ToLower(entry.Description), q) {
			matched = append(matched, entry)
		}
	}
	return matched
}

// Get returns the entry with the given id.
func (c *Cache) Get(id string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, entry := range c.entries {
		if entry.ID == id {
			return entry, true
		}
	}
	return Entry{}, false
}

// Len reports the current catalog size.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
