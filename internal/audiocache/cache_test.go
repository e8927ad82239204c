package audiocache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPutAndServeableFile(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	url, err := c.Put([]byte("mp3-bytes"), "mp3")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasPrefix(url, URLPrefix) || !strings.HasSuffix(url, ".mp3") {
		t.Fatalf("url = %q", url)
	}

	name := strings.TrimPrefix(url, URLPrefix)
	data, err := os.ReadFile(filepath.Join(c.Dir(), name))
	if err != nil {
		t.Fatalf("reading clip: %v", err)
	}
	if string(data) != "mp3-bytes" {
		t.Fatalf("clip content = %q", data)
	}
}

func TestPutNamedAndLookup(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, ok := c.Lookup("intro.mp3"); ok {
		t.Fatal("Lookup found clip before Put")
	}

	url, err := c.PutNamed("intro.mp3", []byte("hello"))
	if err != nil {
		t.Fatalf("PutNamed: %v", err)
	}
	if url != URLPrefix+"intro.mp3" {
		t.Fatalf("url = %q", url)
	}

	got, ok := c.Lookup("intro.mp3")
	if !ok || got != url {
		t.Fatalf("Lookup = %q, %v", got, ok)
	}
}

func TestClear(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Put([]byte("a"), "mp3"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := c.PutNamed("intro.mp3", []byte("b")); err != nil {
		t.Fatalf("PutNamed: %v", err)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	entries, err := os.ReadDir(c.Dir())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("cache not empty after Clear: %d entries", len(entries))
	}
}
