// Package offline implements the offline caching layer: named response
// caches, an install/activate lifecycle, and an http.RoundTripper that serves
// cached responses when the network is slow or gone.
package offline

import (
	"context"
	"net/http"
	"time"
)

// Entry is a cached HTTP response.
type Entry struct {
	URL      string
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// Cache is a single named store of responses keyed by request URL.
type Cache interface {
	// Match returns the cached entry for the key, or nil when absent.
	Match(ctx context.Context, key string) (*Entry, error)

	// Put stores an entry under the key, replacing any previous one.
	Put(ctx context.Context, key string, entry *Entry) error

	// Keys returns all keys present in the cache.
	Keys(ctx context.Context) ([]string, error)

	// Delete removes the entry for the key; it reports whether one existed.
	Delete(ctx context.Context, key string) (bool, error)
}

// Storage manages named caches. Versioned shell caches and the runtime cache
// live side by side; activation deletes stores from older versions.
type Storage interface {
	// Open returns the cache with the given name, creating it if needed.
	Open(ctx context.Context, name string) (Cache, error)

	// Delete removes an entire named cache; it reports whether one existed.
	Delete(ctx context.Context, name string) (bool, error)

	// Names lists all existing cache names.
	Names(ctx context.Context) ([]string, error)

	// Close releases any resources held by the storage.
	Close() error
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Header = e.Header.Clone()
	clone.Body = make([]byte, len(e.Body))
	copy(clone.Body, e.Body)
	return &clone
}
