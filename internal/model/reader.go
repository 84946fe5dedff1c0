package model

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// sourceReader wraps the underlying file handle so a transparent gzip
// decompressor can be closed alongside it.
type sourceReader struct {
	io.Reader
	file *os.File
	gz   *gzip.Reader
}

func (r *sourceReader) Close() error {
	if r.gz != nil {
		r.gz.Close()
	}
	return r.file.Close()
}

// OpenSource opens a Source for reading, transparently decompressing
// .gz files. Exported so internal/errmode's alternate report mode can
// read the same sources without duplicating gzip-handling logic.
func OpenSource(source Source) (io.ReadCloser, error) {
	return openSource(source)
}

// openSource opens a Source for reading, transparently decompressing
// .gz files so the rest of the pipeline never has to care. Remote
// sources are routed through the cache (§4.10): a cache hit is served
// straight from disk, a miss fetches over HTTP(S) while teeing a
// gzip-compressed copy into the cache as it streams.
func openSource(source Source) (io.ReadCloser, error) {
	if source.Kind == SourceRemote {
		return openRemoteSource(source)
	}
	f, err := os.Open(source.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", source.Path, err)
	}
	if strings.HasSuffix(source.Path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening gzip %s: %w", source.Path, err)
		}
		return &sourceReader{Reader: gz, file: f, gz: gz}, nil
	}
	return &sourceReader{Reader: f, file: f}, nil
}

// remoteSourceReader closes both the live HTTP response body and the
// cache writer teed off it, in that order, so a partial read still
// flushes whatever was already streamed into the cache.
type remoteSourceReader struct {
	io.Reader
	body   io.Closer
	cached io.Closer
}

func (r *remoteSourceReader) Close() error {
	r.body.Close()
	return r.cached.Close()
}

// openRemoteSource reads a remote Source through its NetContext's
// cache, fetching and populating the cache on a miss.
func openRemoteSource(source Source) (io.ReadCloser, error) {
	net := source.net
	if net == nil || net.Cache == nil {
		return nil, fmt.Errorf("opening %s: no cache configured for remote source", source.URL)
	}

	if r, found, err := net.Cache.RemoteGet(source.PrefixLen, source.URL); err != nil {
		return nil, fmt.Errorf("reading cached body for %s: %w", source.URL, err)
	} else if found {
		return r, nil
	}

	fetcher := net.Fetcher
	if fetcher == nil {
		fetcher = http.DefaultClient
	}
	resp, err := fetcher.Get(source.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.URL, err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: status %d", source.URL, resp.StatusCode)
	}

	cached, err := net.Cache.RemoteAdd(source.PrefixLen, source.URL, resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("caching %s: %w", source.URL, err)
	}
	return &remoteSourceReader{Reader: cached, body: resp.Body, cached: cached}, nil
}

// isJobOutputFor reports whether a source is a Zuul job-output file,
// used by the chunk processor to stop reading once the post-task
// logjuicer report section begins (it only ever repeats earlier
// content).
func isJobOutputFor(source Source) bool {
	full := source.Path
	if source.Kind == SourceRemote {
		full = source.URL
	}
	name := filepath.Base(full)
	name = strings.TrimSuffix(name, ".gz")
	return strings.HasPrefix(name, "job-output")
}
