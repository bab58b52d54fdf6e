package objectstore

import (
	"context"
	"errors"
	"testing"
)

func newTestStore(t *testing.T) *DiskStore {
	t.Helper()
	ds, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func TestDiskStoreTextRoundTrip(t *testing.T) {
	ds := newTestStore(t)
	ctx := context.Background()

	if err := ds.WriteText(ctx, "notes/hello.txt", "hello 'world'"); err != nil {
		t.Fatal(err)
	}
	got, err := ds.ReadText(ctx, "notes/hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello 'world'" {
		t.Fatalf("unexpected content: %s", got)
	}
}

func TestDiskStoreJSONIsExplicit(t *testing.T) {
	ds := newTestStore(t)
	ctx := context.Background()

	if err := ds.WriteJSON(ctx, "cfg.json", map[string]any{"a": 1}); err != nil {
		t.Fatal(err)
	}

	// The text path returns the raw JSON, no content sniffing
	raw, err := ds.ReadText(ctx, "cfg.json")
	if err != nil {
		t.Fatal(err)
	}
	if raw != `{"a":1}` {
		t.Fatalf("unexpected raw content: %s", raw)
	}

	var out map[string]any
	if err := ds.ReadJSON(ctx, "cfg.json", &out); err != nil {
		t.Fatal(err)
	}
	if out["a"] != float64(1) {
		t.Fatalf("unexpected decoded value: %+v", out)
	}

	// Non-JSON content read through the JSON path is an error, not a guess
	if err := ds.WriteText(ctx, "plain.txt", "not json"); err != nil {
		t.Fatal(err)
	}
	if err := ds.ReadJSON(ctx, "plain.txt", &out); err == nil {
		t.Fatal("expected a decode error")
	}
}

func TestDiskStoreDeleteAndExists(t *testing.T) {
	ds := newTestStore(t)
	ctx := context.Background()

	if err := ds.WriteText(ctx, "a/b.txt", "x"); err != nil {
		t.Fatal(err)
	}
	exists, err := ds.Exists(ctx, "a/b.txt")
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Fatal("expected key to exist")
	}

	if err := ds.Delete(ctx, "a/b.txt", false); err != nil {
		t.Fatal(err)
	}
	exists, err = ds.Exists(ctx, "a/b.txt")
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Fatal("expected key to be gone")
	}

	if err := ds.Delete(ctx, "a/b.txt", false); err == nil {
		t.Fatal("expected an error deleting a missing key")
	}
	if err := ds.Delete(ctx, "a/b.txt", true); err != nil {
		t.Fatalf("missingOK delete should succeed: %s", err)
	}
}

func TestDiskStoreList(t *testing.T) {
	ds := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"inserts/users/b.json", "inserts/users/a.json", "inserts/events/c.json", "other.txt"} {
		if err := ds.WriteText(ctx, key, "x"); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := ds.List(ctx, "inserts/users/")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "inserts/users/a.json" || keys[1] != "inserts/users/b.json" {
		t.Fatalf("unexpected keys: %v", keys)
	}

	keys, err = ds.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 4 {
		t.Fatalf("expected 4 keys, got %v", keys)
	}
}

func TestDiskStoreRejectsEscapingKeys(t *testing.T) {
	ds := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"", "/etc/passwd", "../outside.txt", "a/../../outside.txt"} {
		err := ds.WriteText(ctx, key, "x")
		if !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("expected ErrInvalidKey for %q, got %v", key, err)
		}
	}

	// Dotted segments that stay inside the root are fine
	if err := ds.WriteText(ctx, "a/../b.txt", "x"); err != nil {
		t.Fatal(err)
	}
}
