package storetest

import (
	"context"
	"testing"

	"github.com/tabwatch/tabwatch/internal/store"
)

// Run exercises a minimal compliance suite against a store.KV implementation.
// makeKV should return a clean, isolated store.
func Run(t *testing.T, makeKV func(t *testing.T) store.KV) {
	t.Helper()

	kv := makeKV(t)
	ctx := context.Background()

	// Missing keys are absent, not errors.
	got, err := kv.GetAll(ctx, []string{"nope"})
	if err != nil {
		t.Fatalf("GetAll empty store: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no values, got %d", len(got))
	}

	// Round trip.
	if err := kv.SetAll(ctx, map[string][]byte{"a": []byte(`{"x":1}`), "b": []byte(`[]`)}); err != nil {
		t.Fatalf("SetAll: %v", err)
	}
	got, err = kv.GetAll(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if string(got["a"]) != `{"x":1}` || string(got["b"]) != `[]` {
		t.Fatalf("unexpected values: %v", got)
	}
	if _, ok := got["c"]; ok {
		t.Fatalf("key c should be absent")
	}

	// Last write wins.
	if err := kv.SetAll(ctx, map[string][]byte{"a": []byte(`{"x":2}`)}); err != nil {
		t.Fatalf("SetAll overwrite: %v", err)
	}
	got, err = kv.GetAll(ctx, []string{"a"})
	if err != nil {
		t.Fatalf("GetAll after overwrite: %v", err)
	}
	if string(got["a"]) != `{"x":2}` {
		t.Fatalf("overwrite not applied: %s", got["a"])
	}

	if err := kv.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
