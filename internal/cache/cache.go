// Package cache implements the content-addressed, write-once file
// cache (§4.10): remote source bodies and head-check results are
// stored under a sha256-derived filename so a given URL is ever
// fetched once, and a directory-listing cache speaks the same
// write-once contract through a bbolt-backed store (see httpdir.go).
package cache

import (
	"compress/gzip"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// defaultPrefixLen mirrors the original's "first 23 bytes of the URL"
// bucketing default, used to spread cache entries for a given remote
// root across subdirectories without hashing the whole URL up front.
const defaultPrefixLen = 23

// Cache is a content-addressed file cache rooted at Dir.
type Cache struct {
	Dir string
}

// NewCache creates (if needed) and returns a Cache rooted at dir.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &Cache{Dir: dir}, nil
}

func digest(prefix byte, s string) string {
	sum := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%c%X", prefix, sum)
}

func baseBucket(prefixLen int, url string) string {
	if prefixLen == 0 {
		prefixLen = defaultPrefixLen
	}
	if prefixLen > len(url) {
		prefixLen = len(url)
	}
	return digest('1', url[:prefixLen])
}

func httpName(prefixLen int, url string) string {
	return filepath.Join(baseBucket(prefixLen, url), digest('2', url))
}

func headSuccessName(prefixLen int, url string) string {
	return filepath.Join(baseBucket(prefixLen, url), digest('3', url))
}

func headFailureName(prefixLen int, url string) string {
	return filepath.Join(baseBucket(prefixLen, url), digest('4', url))
}

// Head returns a cached head-check result for url: (true, true) for a
// known success, (false, true) for a known failure, (false, false)
// when nothing is cached yet.
func (c *Cache) Head(prefixLen int, url string) (result bool, found bool) {
	if _, ok := c.path(headSuccessName(prefixLen, url)); ok {
		return true, true
	}
	if _, ok := c.path(headFailureName(prefixLen, url)); ok {
		return false, true
	}
	return false, false
}

// HeadSet records a head-check result for url.
func (c *Cache) HeadSet(prefixLen int, url string, result bool) error {
	name := headFailureName(prefixLen, url)
	if result {
		name = headSuccessName(prefixLen, url)
	}
	f, err := c.create(name)
	if err != nil {
		return err
	}
	return f.Close()
}

// RemoteGet opens the cached, gzip-compressed body for url, or
// (nil, false, nil) when nothing is cached.
func (c *Cache) RemoteGet(prefixLen int, url string) (io.ReadCloser, bool, error) {
	path, ok := c.path(httpName(prefixLen, url))
	if !ok {
		return nil, false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, false, fmt.Errorf("opening cached body: %w", err)
	}
	gr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, false, fmt.Errorf("opening cached body: %w", err)
	}
	return &gzipReadCloser{Reader: gr, gz: gr, file: f}, true, nil
}

// RemoteAdd returns a reader that streams remote while transparently
// saving a gzip-compressed copy into the cache, write-once per key.
func (c *Cache) RemoteAdd(prefixLen int, url string, remote io.Reader) (io.ReadCloser, error) {
	f, err := c.create(httpName(prefixLen, url))
	if err != nil {
		return nil, err
	}
	gw := gzip.NewWriter(f)
	return &cacheTeeReader{remote: remote, local: gw, file: f}, nil
}

// RemoteDrop removes a cached remote body, if any.
func (c *Cache) RemoteDrop(prefixLen int, url string) error {
	return c.remove(httpName(prefixLen, url))
}

// UrlResult is one entry of a directory listing: either a resolved
// URL, or an error message for an entry that couldn't be joined into
// a valid URL. Directory listings themselves are cached in
// HttpdirStore (httpdir.go), not here: a single bbolt database is a
// better fit for the queryable, overwrite-on-recrawl record than a
// write-once file per directory.
type UrlResult struct {
	URL string `cbor:"url,omitempty"`
	Err string `cbor:"err,omitempty"`
}

func (c *Cache) path(name string) (string, bool) {
	full := filepath.Join(c.Dir, name)
	if _, err := os.Stat(full); err != nil {
		return "", false
	}
	return full, true
}

// create makes a brand new cache entry, refusing to overwrite an
// existing one (I5's write-once-per-key invariant).
func (c *Cache) create(name string) (*os.File, error) {
	full := filepath.Join(c.Dir, name)
	if _, err := os.Stat(full); err == nil {
		return nil, fmt.Errorf("cache entry already exists: %s", full)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache parent dir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return nil, fmt.Errorf("creating cache entry: %w", err)
	}
	return f, nil
}

func (c *Cache) remove(name string) error {
	full := filepath.Join(c.Dir, name)
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cache entry: %w", err)
	}
	return nil
}

type gzipReadCloser struct {
	io.Reader
	gz   *gzip.Reader
	file *os.File
}

func (g *gzipReadCloser) Close() error {
	g.gz.Close()
	return g.file.Close()
}

// cacheTeeReader reads from remote and mirrors every byte read into a
// local gzip-compressed file, so the cache is populated exactly as
// the caller consumes the body.
type cacheTeeReader struct {
	remote io.Reader
	local  *gzip.Writer
	file   *os.File
}

func (c *cacheTeeReader) Read(p []byte) (int, error) {
	n, err := c.remote.Read(p)
	if n > 0 {
		if _, werr := c.local.Write(p[:n]); werr != nil {
			return n, werr
		}
	}
	return n, err
}

func (c *cacheTeeReader) Close() error {
	if err := c.local.Close(); err != nil {
		c.file.Close()
		return fmt.Errorf("flushing cached body: %w", err)
	}
	return c.file.Close()
}
