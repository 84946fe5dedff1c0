package cache

import (
	"path/filepath"
	"testing"
)

func TestHttpdirStorePutGetDrop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "httpdir.db")
	store, err := OpenHttpdirStore(path)
	if err != nil {
		t.Fatalf("OpenHttpdirStore: %v", err)
	}
	defer store.Close()

	const url = "http://example/builds/"
	want := []UrlResult{{URL: "http://example/builds/job-output.txt"}}

	if _, found, _ := store.Get(url); found {
		t.Fatalf("expected no entry before Put")
	}
	if err := store.Put(url, want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, found, err := store.Get(url)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || len(got) != 1 || got[0] != want[0] {
		t.Fatalf("got %v, found=%v, want %v", got, found, want)
	}

	if err := store.Drop(url); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if _, found, _ := store.Get(url); found {
		t.Fatalf("expected entry gone after Drop")
	}
}
