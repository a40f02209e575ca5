package cache

import (
	"context"
	"fmt"
	"testing"
	"time"
)

type fakeMirror struct {
	store map[string]Entry
}

func newFakeMirror() *fakeMirror { return &fakeMirror{store: map[string]Entry{}} }

func (m *fakeMirror) Get(_ context.Context, key string) (Entry, bool, error) {
	e, ok := m.store[key]
	return e, ok, nil
}

func (m *fakeMirror) Put(_ context.Context, key string, e Entry, _ time.Duration) error {
	m.store[key] = e
	return nil
}

func TestGetMissReturnsFalse(t *testing.T) {
	c := New(nil, 0)
	if _, ok := c.Get(context.Background(), Key{Prefix: "foo", Part: "singleline"}); ok {
		t.Fatal("expected miss on empty cache")
	}
}

func TestPutThenGetRoundTrips(t *testing.T) {
	c := New(nil, 0)
	key := Key{Prefix: "func main() {\n\t", Part: "singleline"}
	c.Put(context.Background(), key, Entry{Text: "fmt.Println()", FinishReason: "stop", Model: "m1"})

	got, ok := c.Get(context.Background(), key)
	if !ok || got.Text != "fmt.Println()" {
		t.Fatalf("Get() = %+v, %v", got, ok)
	}
}

func TestPutDoesNotOverwriteExistingEntry(t *testing.T) {
	c := New(nil, 0)
	key := Key{Prefix: "a", Part: "singleline"}
	c.Put(context.Background(), key, Entry{Text: "first"})
	c.Put(context.Background(), key, Entry{Text: "second"})

	got, _ := c.Get(context.Background(), key)
	if got.Text != "first" {
		t.Fatalf("Put should not overwrite, got %q", got.Text)
	}
}

func TestPutEvictsOldestBeyondMaxEntries(t *testing.T) {
	c := New(nil, 0)
	for i := 0; i < maxEntries+10; i++ {
		c.Put(context.Background(), Key{Prefix: fmt.Sprintf("prefix-%d", i), Part: "singleline"}, Entry{Text: "x"})
	}
	if _, ok := c.Get(context.Background(), Key{Prefix: "prefix-0", Part: "singleline"}); ok {
		t.Fatal("expected the oldest entry to have been evicted")
	}
	if _, ok := c.Get(context.Background(), Key{Prefix: fmt.Sprintf("prefix-%d", maxEntries+9), Part: "singleline"}); !ok {
		t.Fatal("expected the most recently inserted entry to still be cached")
	}
}

func TestKeyTruncatedKeepsTail(t *testing.T) {
	long := make([]byte, maxKeyChars+100)
	for i := range long {
		long[i] = 'a'
	}
	long[len(long)-1] = 'z'
	k := Key{Prefix: string(long), Part: "singleline"}.truncated()
	if len([]rune(k.Prefix)) != maxKeyChars {
		t.Fatalf("truncated prefix length = %d, want %d", len([]rune(k.Prefix)), maxKeyChars)
	}
	if k.Prefix[len(k.Prefix)-1] != 'z' {
		t.Fatal("truncation should keep the tail of the prefix")
	}
}

func TestGetFallsBackToMirrorOnLocalMiss(t *testing.T) {
	mirror := newFakeMirror()
	key := Key{Prefix: "shared prefix", Part: "multiline"}
	mirror.store[mirrorKey(key)] = Entry{Text: "from mirror"}

	c := New(mirror, time.Minute)
	got, ok := c.Get(context.Background(), key)
	if !ok || got.Text != "from mirror" {
		t.Fatalf("Get() = %+v, %v, want fallback to mirror", got, ok)
	}
}

func TestPutMirrorsEntryOutOfProcess(t *testing.T) {
	mirror := newFakeMirror()
	c := New(mirror, time.Minute)
	key := Key{Prefix: "p", Part: "singleline"}
	c.Put(context.Background(), key, Entry{Text: "mirrored"})

	e, ok, err := mirror.Get(context.Background(), mirrorKey(key))
	if err != nil || !ok || e.Text != "mirrored" {
		t.Fatalf("mirror.Get() = %+v, %v, %v", e, ok, err)
	}
}
