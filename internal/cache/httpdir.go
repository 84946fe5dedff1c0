package cache

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"
)

const httpdirBucket = "httpdir"

// HttpdirStore is a bbolt-backed directory-listing cache: one entry
// per crawled remote directory URL, storing the parsed UrlResult list
// so a re-run of the same report never re-crawls a directory it has
// already listed.
type HttpdirStore struct {
	db *bolt.DB
}

// OpenHttpdirStore opens (creating if needed) a bbolt database at
// path.
func OpenHttpdirStore(path string) (*HttpdirStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening httpdir store: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(httpdirBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating httpdir bucket: %w", err)
	}
	return &HttpdirStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *HttpdirStore) Close() error { return s.db.Close() }

// Get returns a cached listing for url, if any.
func (s *HttpdirStore) Get(url string) ([]UrlResult, bool, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(httpdirBucket))
		if v := b.Get([]byte(url)); v != nil {
			data = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("reading httpdir store: %w", err)
	}
	if data == nil {
		return nil, false, nil
	}
	var paths []UrlResult
	if err := cbor.Unmarshal(data, &paths); err != nil {
		return nil, false, fmt.Errorf("decoding httpdir entry: %w", err)
	}
	return paths, true, nil
}

// Put stores a listing for url, overwriting any previous entry (a
// caller wanting write-once semantics should check Get first).
func (s *HttpdirStore) Put(url string, paths []UrlResult) error {
	data, err := cbor.Marshal(paths)
	if err != nil {
		return fmt.Errorf("encoding httpdir entry: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(httpdirBucket))
		return b.Put([]byte(url), data)
	})
}

// Drop removes a cached listing for url, if any.
func (s *HttpdirStore) Drop(url string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(httpdirBucket))
		return b.Delete([]byte(url))
	})
}
