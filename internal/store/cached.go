package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/langarchive/catalog/internal/cachemanager"
	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/log"
)

type searchInput struct {
	kind  string
	query string
	page  Page
}

// CachedSearch caches relationship search results. A save invalidates the
// cached searches of the saved kind, since labels may have changed.
type CachedSearch struct {
	Store
	search *cachemanager.ReadThroughCache[string, []catalog.Ref, searchInput]
	ttl    time.Duration
}

// NewCachedSearch wraps next with a search cache of the given TTL.
func NewCachedSearch(next Store, ttl time.Duration) *CachedSearch {
	c := &CachedSearch{Store: next, ttl: ttl}
	c.search = cachemanager.NewReadThroughCache[string, []catalog.Ref, searchInput](
		cachemanager.NewInMemoryCacheManager[string, []catalog.Ref]("search", ttl, cachemanager.DefaultCleanupInterval),
		func(ctx context.Context, in searchInput) ([]catalog.Ref, error) {
			return next.Search(ctx, in.kind, in.query, in.page)
		},
		ttl <= 0,
	)
	return c
}

func searchKey(kind, query string, page Page) string {
	return fmt.Sprintf("%s:%d:%d:%s", kind, page.Offset, page.Limit, strings.ToLower(strings.TrimSpace(query)))
}

// Search serves repeated queries from the cache.
func (c *CachedSearch) Search(ctx context.Context, kind, query string, page Page) ([]catalog.Ref, error) {
	return c.search.Get(ctx, searchKey(kind, query, page), searchInput{kind: kind, query: query, page: page}, c.ttl)
}

// Save forwards to the store and drops cached searches of kind.
func (c *CachedSearch) Save(ctx context.Context, kind string, rows []SaveRow) (SaveResponse, error) {
	resp, err := c.Store.Save(ctx, kind, rows)
	if err == nil && len(resp.Saved) > 0 {
		c.Invalidate(ctx, kind)
	}
	return resp, err
}

// Invalidate drops cached searches of kind.
func (c *CachedSearch) Invalidate(ctx context.Context, kind string) {
	n := c.search.Invalidate(ctx, func(k string) bool { return strings.HasPrefix(k, kind+":") })
	log.Debug(log.CatCache, "search cache invalidated", "kind", kind, "entries", n)
}
