package model

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/logjuicer/logjuicer-go/internal/indexname"
)

// IndexNameOf derives the grouping key for a source from its relative
// path.
func IndexNameOf(source Source) IndexName {
	return indexname.FromPath(source.Relative())
}

// SourceKind tags whether a Source reads from the local filesystem or
// over HTTP(S), per §3's Local/Remote Source variants.
type SourceKind int

const (
	// SourceLocal is a file on the local filesystem.
	SourceLocal SourceKind = iota
	// SourceRemote is a file fetched (and cached) over HTTP(S).
	SourceRemote
)

// Source is one readable log unit, addressed relative to the root of
// the Content it came from. For a SourceLocal, Path is a filesystem
// path; for a SourceRemote, URL is the absolute HTTP(S) location and
// net is the cache/fetch context it was discovered through. PrefixLen
// is the byte length of the enclosing Content's root (path or URL), so
// Relative returns the suffix used for display and index-name
// derivation.
type Source struct {
	Kind      SourceKind
	PrefixLen int
	Path      string
	URL       string
	net       *NetContext
}

// Relative returns the path suffix beyond the enclosing Content root.
func (s Source) Relative() string {
	full := s.Path
	if s.Kind == SourceRemote {
		full = s.URL
	}
	if s.PrefixLen >= len(full) {
		return full
	}
	rel := strings.TrimPrefix(full[s.PrefixLen:], "/")
	if rel == "" {
		return full
	}
	return rel
}

func (s Source) String() string {
	if s.Kind == SourceRemote {
		return fmt.Sprintf("Remote(%s)", s.URL)
	}
	return fmt.Sprintf("Local(%s)", s.Path)
}

// IsJSON reports whether the source's raw lines should be split on
// unquoted JSON separators (container-log wrapped format).
func (s Source) IsJSON() bool {
	full := s.Path
	if s.Kind == SourceRemote {
		full = s.URL
	}
	return strings.HasSuffix(full, ".json") || strings.HasSuffix(full, ".json.gz")
}

// ContentKind tags how a Content's sources should be enumerated.
type ContentKind int

const (
	// KindFile is a single readable local file.
	KindFile ContentKind = iota
	// KindDirectory is a local tree walked recursively for files.
	KindDirectory
	// KindRemoteFile is a single file fetched over HTTP(S).
	KindRemoteFile
	// KindRemoteDir is an "Index of…" HTTP(S) directory listing,
	// crawled recursively for files.
	KindRemoteDir
)

// Content is a handle to a logical corpus: a local file, a local
// directory tree, or a remote file/directory reached over HTTP(S).
type Content struct {
	Kind ContentKind
	Path string
	net  *NetContext
}

func (c Content) String() string {
	switch c.Kind {
	case KindDirectory:
		return fmt.Sprintf("Directory(%s)", c.Path)
	case KindRemoteFile, KindRemoteDir:
		return fmt.Sprintf("Remote(%s)", c.Path)
	default:
		return fmt.Sprintf("File(%s)", c.Path)
	}
}

// FromPath classifies a filesystem path into a File or Directory
// Content, depending on what's actually there.
func FromPath(path string) (Content, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Content{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Content{Kind: KindDirectory, Path: path}, nil
	}
	return Content{Kind: KindFile, Path: path}, nil
}

// FromURL classifies an HTTP(S) URL into a remote File or Directory
// Content: a trailing slash is an "Index of…" listing to crawl,
// matching the convention the crawled listings themselves produce.
// net supplies the cache and crawler used to enumerate and read it.
func FromURL(rawURL string, net *NetContext) (Content, error) {
	if net == nil {
		return Content{}, fmt.Errorf("remote content %s requires a cache/crawler context", rawURL)
	}
	kind := KindRemoteFile
	if strings.HasSuffix(rawURL, "/") {
		kind = KindRemoteDir
	}
	return Content{Kind: kind, Path: rawURL, net: net}, nil
}

// Sources enumerates the readable Sources of a Content: a single
// entry for a file, every regular file under a local directory tree,
// or every file reachable under a crawled remote directory.
func (c Content) Sources() ([]Source, error) {
	switch c.Kind {
	case KindFile:
		return []Source{{Kind: SourceLocal, PrefixLen: 0, Path: c.Path}}, nil
	case KindRemoteFile:
		return []Source{{Kind: SourceRemote, PrefixLen: 0, URL: c.Path, net: c.net}}, nil
	case KindRemoteDir:
		return c.remoteDirSources()
	default:
		return dirSources(c.Path)
	}
}

// remoteDirSources crawls a remote directory listing and turns every
// resolved file URL into a Source; entries the crawler couldn't
// resolve into a URL are dropped (they carry no readable location).
func (c Content) remoteDirSources() ([]Source, error) {
	results, err := c.net.Crawler.Crawl(context.Background(), c.Path)
	if err != nil {
		return nil, fmt.Errorf("crawling %s: %w", c.Path, err)
	}
	prefixLen := len(c.Path)
	var out []Source
	for _, r := range results {
		if r.Err != "" {
			continue
		}
		out = append(out, Source{Kind: SourceRemote, PrefixLen: prefixLen, URL: r.URL, net: c.net})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out, nil
}

func dirSources(root string) ([]Source, error) {
	prefixLen := len(root)
	var out []Source
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Keep walking; record nothing for paths we can't stat.
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		out = append(out, Source{PrefixLen: prefixLen, Path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return out, nil
}

// GroupSources enumerates every source across a set of baseline
// Contents, grouped by derived IndexName.
func GroupSources(baselines []Content, valid func(Source) bool) (map[IndexName][]Source, error) {
	groups := make(map[IndexName][]Source)
	for _, baseline := range baselines {
		sources, err := baseline.Sources()
		if err != nil {
			return nil, err
		}
		for _, source := range sources {
			if valid != nil && !valid(source) {
				continue
			}
			name := IndexNameOf(source)
			groups[name] = append(groups[name], source)
		}
	}
	for name := range groups {
		sort.Slice(groups[name], func(i, j int) bool {
			return groups[name][i].Relative() < groups[name][j].Relative()
		})
	}
	return groups, nil
}
