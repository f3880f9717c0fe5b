package service

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"archivePortal/internal/models"
)

// exploreCache holds anonymous explore listings. Any change to the set of approved
// submissions flushes it.
//
// Every flush bumps a generation. A listing read from the repository is stored only
// if no flush happened since the reader took its generation, so a slow reader cannot
// put back a listing that predates the change.
type exploreCache struct {
	mu  sync.Mutex
	gen uint64
	c   *cache.Cache
}

func newExploreCache(ttl time.Duration) *exploreCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &exploreCache{c: cache.New(ttl, 2*ttl)}
}

func (e *exploreCache) get(key string) ([]*models.Submission, bool) {
	v, ok := e.c.Get(key)
	if !ok {
		return nil, false
	}
	return v.([]*models.Submission), true
}

// generation must be read before the repository is queried.
func (e *exploreCache) generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen
}

func (e *exploreCache) set(key string, subs []*models.Submission, gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		return false
	}
	e.c.SetDefault(key, subs)
	return true
}

func (e *exploreCache) flush() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.c.Flush()
}
