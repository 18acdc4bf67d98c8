package store

import (
	"context"
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/jmoiron/sqlx"
)

// stmtCache keeps prepared statements keyed by SQL text. Evicted
// statements are closed. A nil cache prepares nothing.
type stmtCache struct {
	mu    sync.Mutex
	cache *lru.Cache
}

func newStmtCache(size int) *stmtCache {
	if size <= 0 {
		return nil
	}
	c := lru.New(size)
	c.OnEvicted = func(_ lru.Key, v any) {
		v.(*sqlx.Stmt).Close()
	}
	return &stmtCache{cache: c}
}

// prepare returns the cached statement for query, preparing it on a miss.
func (c *stmtCache) prepare(ctx context.Context, db *sqlx.DB, query string) (*sqlx.Stmt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.cache.Get(query); ok {
		return v.(*sqlx.Stmt), nil
	}
	stmt, err := db.PreparexContext(ctx, query)
	if err != nil {
		return nil, err
	}
	c.cache.Add(query, stmt)
	return stmt, nil
}

// len returns the number of cached statements.
func (c *stmtCache) len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}

// clear closes and drops every cached statement.
func (c *stmtCache) clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Clear()
}
