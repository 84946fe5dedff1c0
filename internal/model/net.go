package model

import (
	"fmt"
	"net/http"

	"github.com/logjuicer/logjuicer-go/internal/cache"
)

// NetContext bundles the cache and crawler a remote Content needs to
// enumerate its sources and a remote Source needs to read its bytes.
// A nil NetContext means "local only": FromURL refuses to build a
// remote Content without one, and openRemoteSource refuses to read a
// remote Source without one.
type NetContext struct {
	Cache   *cache.Cache
	Crawler *cache.Crawler
	Fetcher cache.Fetcher
}

// NewNetContext opens a content cache and an httpdir listing store
// rooted at cacheDir and wires them into a crawler with the given
// worker concurrency (the spec's default of 4), all fetching through
// client. Per §4.10/§6, disk caching is opt-in; callers gate calling
// this behind the LOGJUICER_CACHE environment flag.
func NewNetContext(cacheDir string, concurrency int, client *http.Client) (*NetContext, func() error, error) {
	c, err := cache.NewCache(cacheDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening content cache: %w", err)
	}
	store, err := cache.OpenHttpdirStore(cacheDir + "/httpdir.db")
	if err != nil {
		return nil, nil, fmt.Errorf("opening httpdir store: %w", err)
	}
	crawler := cache.NewCrawler(client, store, concurrency)
	return &NetContext{Cache: c, Crawler: crawler, Fetcher: client}, store.Close, nil
}
