// Package vocab provides custom vocabulary lookups for the value codec.
//
// A custom vocabulary defines canonical labels for its uris. Labels are read
// from a Source (memory, Redis or the file store) into a Cache owned by the
// caller, which is primed before reconciliation so the engine itself never
// performs I/O.
package vocab

import (
	"context"
	"sort"
	"time"

	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/value"
	gocache "github.com/patrickmn/go-cache"
)

// Source lists the uri labels of a vocabulary.
type Source interface {
	URILabels(ctx context.Context, vocabID string) (map[string]string, error)
}

// ShapeSource is implemented by sources that know which shape a vocabulary's
// values have. Vocabularies default to uri values.
type ShapeSource interface {
	Shape(ctx context.Context, vocabID string) (value.Shape, error)
}

// Cache holds primed vocabularies and implements value.Vocabularies.
// Entries never expire unless the cache is built with WithTTL.
type Cache struct {
	store *gocache.Cache
}

type entry struct {
	shape  value.Shape
	labels map[string]string
}

var _ value.Vocabularies = (*Cache)(nil)

// CacheOption configures a Cache.
type CacheOption func(*cacheOptions)

type cacheOptions struct {
	ttl time.Duration
}

// WithTTL expires primed vocabularies after ttl so long-running processes
// pick up label changes on the next Prime.
func WithTTL(ttl time.Duration) CacheOption {
	return func(o *cacheOptions) {
		o.ttl = ttl
	}
}

// NewCache creates an empty cache.
func NewCache(opts ...CacheOption) *Cache {
	o := cacheOptions{ttl: gocache.NoExpiration}
	for _, opt := range opts {
		opt(&o)
	}
	cleanup := time.Duration(0)
	if o.ttl > 0 {
		cleanup = 2 * o.ttl
	}
	return &Cache{store: gocache.New(o.ttl, cleanup)}
}

// Prime loads the given vocabularies from src. Vocabularies already in the
// cache are not reloaded. A vocabulary src does not know is cached empty.
func (c *Cache) Prime(ctx context.Context, src Source, ids ...string) error {
	for _, id := range ids {
		if c.Has(id) {
			continue
		}
		labels, err := src.URILabels(ctx, id)
		if errors.IsNotFound(err) {
			c.Put(id, value.ShapeURI, nil)
			continue
		}
		if err != nil {
			return errors.WrapResource("load", "vocabulary", id, err)
		}
		shape := value.ShapeURI
		if ss, ok := src.(ShapeSource); ok {
			s, err := ss.Shape(ctx, id)
			if err != nil {
				return errors.WrapResource("load", "vocabulary", id, err)
			}
			if s != value.ShapeUnknown {
				shape = s
			}
		}
		c.Put(id, shape, labels)
	}
	return nil
}

// Put stores a vocabulary.
func (c *Cache) Put(id string, shape value.Shape, labels map[string]string) {
	cp := make(map[string]string, len(labels))
	for k, v := range labels {
		cp[k] = v
	}
	c.store.Set(id, entry{shape: shape, labels: cp}, gocache.DefaultExpiration)
}

func (c *Cache) get(id string) (entry, bool) {
	v, ok := c.store.Get(id)
	if !ok {
		return entry{}, false
	}
	e, ok := v.(entry)
	return e, ok
}

// Has reports whether id has been loaded.
func (c *Cache) Has(id string) bool {
	_, ok := c.get(id)
	return ok
}

// Label implements value.Vocabularies.
func (c *Cache) Label(vocabID, uri string) (string, bool) {
	e, ok := c.get(vocabID)
	if !ok {
		return "", false
	}
	label, ok := e.labels[uri]
	return label, ok
}

// Shape implements value.Vocabularies.
func (c *Cache) Shape(vocabID string) (value.Shape, bool) {
	e, ok := c.get(vocabID)
	if !ok {
		return value.ShapeUnknown, false
	}
	return e.shape, true
}

// Len returns the number of cached vocabularies.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

// Reset empties the cache.
func (c *Cache) Reset() {
	c.store.Flush()
}

// Referenced returns the sorted, distinct vocabulary ids of the customvocab
// data types among dataTypes.
func Referenced(dataTypes ...string) []string {
	seen := make(map[string]struct{})
	for _, dt := range dataTypes {
		if id := value.VocabID(dt); id != "" {
			seen[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
