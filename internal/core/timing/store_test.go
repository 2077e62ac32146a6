package timing

import (
	"context"
	"errors"
	"testing"

	"github.com/tabwatch/tabwatch/internal/model"
	"github.com/tabwatch/tabwatch/internal/store"
	"github.com/tabwatch/tabwatch/internal/store/storetest"
)

func TestUpsertPersistsOnEveryMutation(t *testing.T) {
	kv := storetest.NewMemoryKV()
	ctx := context.Background()
	s := Load(ctx, kv)

	s.Upsert(ctx, 1, model.TimingRecord{OpenedAt: 100, TotalActiveTime: 0})
	s.Upsert(ctx, 1, model.TimingRecord{OpenedAt: 100, TotalActiveTime: 5000})
	s.Remove(ctx, 1)

	if kv.Writes() != 3 {
		t.Fatalf("expected 3 persistence writes, got %d", kv.Writes())
	}
}

func TestLoadRestoresSnapshot(t *testing.T) {
	kv := storetest.NewMemoryKV()
	ctx := context.Background()

	s := Load(ctx, kv)
	s.Upsert(ctx, 7, model.TimingRecord{OpenedAt: 42, TotalActiveTime: 1234})

	reloaded := Load(ctx, kv)
	rec, ok := reloaded.Get(7)
	if !ok || rec.OpenedAt != 42 || rec.TotalActiveTime != 1234 {
		t.Fatalf("reloaded record = %+v ok=%v", rec, ok)
	}
}

func TestLoadToleratesCorruptSnapshot(t *testing.T) {
	kv := storetest.NewMemoryKV()
	ctx := context.Background()
	if err := kv.SetAll(ctx, map[string][]byte{store.KeyTimingData: []byte("{not json")}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s := Load(ctx, kv)
	if len(s.SnapshotAll()) != 0 {
		t.Fatalf("corrupt snapshot should yield empty store")
	}
}

func TestPersistFailureNotSurfaced(t *testing.T) {
	kv := storetest.NewMemoryKV()
	ctx := context.Background()
	s := Load(ctx, kv)

	kv.Err = errors.New("disk full")
	s.Upsert(ctx, 1, model.TimingRecord{OpenedAt: 1})

	// In-memory state stays authoritative despite the failed write.
	if _, ok := s.Get(1); !ok {
		t.Fatalf("in-memory record lost after persistence failure")
	}
}

func TestRemoveMissingIsNoop(t *testing.T) {
	kv := storetest.NewMemoryKV()
	ctx := context.Background()
	s := Load(ctx, kv)

	s.Remove(ctx, 99)
	if kv.Writes() != 0 {
		t.Fatalf("removing a missing record should not write")
	}
}

func TestSnapshotAllReturnsCopy(t *testing.T) {
	kv := storetest.NewMemoryKV()
	ctx := context.Background()
	s := Load(ctx, kv)
	s.Upsert(ctx, 1, model.TimingRecord{OpenedAt: 10})

	snap := s.SnapshotAll()
	snap[1] = model.TimingRecord{OpenedAt: 999}

	rec, _ := s.Get(1)
	if rec.OpenedAt != 10 {
		t.Fatalf("snapshot mutation leaked into store: %+v", rec)
	}
}
