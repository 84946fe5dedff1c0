package cache

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
)

// Fetcher is the HTTP surface a Crawler needs; satisfied by
// *http.Client, and replaceable in tests.
type Fetcher interface {
	Get(url string) (*http.Response, error)
}

// Crawler lists "Index of…"-style remote directories concurrently,
// caching every listing it fetches so a later run of the same target
// never re-crawls a directory it has already seen.
type Crawler struct {
	fetcher     Fetcher
	store       *HttpdirStore
	concurrency int
	maxRetries  int
	baseBackoff time.Duration
}

// NewCrawler returns a Crawler backed by store, fetching via fetcher
// with up to concurrency directories in flight at once.
func NewCrawler(fetcher Fetcher, store *HttpdirStore, concurrency int) *Crawler {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &Crawler{
		fetcher:     fetcher,
		store:       store,
		concurrency: concurrency,
		maxRetries:  3,
		baseBackoff: 2 * time.Second,
	}
}

// Crawl recursively lists every file reachable under root, caching
// each directory's listing, and returns the resolved file URLs (a
// UrlResult.Err entry records a href that failed to resolve against
// its directory rather than aborting the whole crawl).
func (c *Crawler) Crawl(ctx context.Context, root string) ([]UrlResult, error) {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []UrlResult
		firstErr error
	)
	sem := make(chan struct{}, c.concurrency)

	var visit func(dirURL string)
	visit = func(dirURL string) {
		defer wg.Done()
		sem <- struct{}{}
		defer func() { <-sem }()

		entries, err := c.list(ctx, dirURL)
		if err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("crawling %s: %w", dirURL, err)
			}
			mu.Unlock()
			return
		}

		for _, e := range entries {
			if e.Err != "" {
				mu.Lock()
				results = append(results, e)
				mu.Unlock()
				continue
			}
			if strings.HasSuffix(e.URL, "/") {
				wg.Add(1)
				go visit(e.URL)
				continue
			}
			mu.Lock()
			results = append(results, e)
			mu.Unlock()
		}
	}

	wg.Add(1)
	go visit(root)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// list fetches (or recalls from cache) one directory's immediate
// listing.
func (c *Crawler) list(ctx context.Context, dirURL string) ([]UrlResult, error) {
	if cached, ok, err := c.store.Get(dirURL); err == nil && ok {
		return cached, nil
	}

	body, err := c.getWithRetry(ctx, dirURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	entries, err := parseListing(dirURL, body)
	if err != nil {
		return nil, err
	}
	if err := c.store.Put(dirURL, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Crawler) getWithRetry(ctx context.Context, target string) (respBody, error) {
	backoff := c.baseBackoff
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}
		resp, err := c.fetcher.Get(target)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("fetching %s: status %d", target, resp.StatusCode)
		}
		return resp.Body, nil
	}
	return nil, fmt.Errorf("fetching %s after %d retries: %w", target, c.maxRetries, lastErr)
}

type respBody interface {
	Read(p []byte) (int, error)
	Close() error
}

// parseListing extracts every anchor href from an "Index of…" page and
// resolves it against dirURL, reporting unresolvable hrefs as
// UrlResult.Err entries instead of failing the whole parse.
func parseListing(dirURL string, body respBody) ([]UrlResult, error) {
	base, err := url.Parse(dirURL)
	if err != nil {
		return nil, fmt.Errorf("parsing directory url: %w", err)
	}

	doc, err := html.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parsing listing html: %w", err)
	}

	var out []UrlResult
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				href := attr.Val
				if href == "" || href == "../" || href == "." || strings.HasPrefix(href, "?") {
					continue
				}
				ref, err := url.Parse(href)
				if err != nil {
					out = append(out, UrlResult{Err: fmt.Sprintf("%s: %v", href, err)})
					continue
				}
				out = append(out, UrlResult{URL: base.ResolveReference(ref).String()})
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return out, nil
}
