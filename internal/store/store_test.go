package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/verte-zerg/sramscan/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	counts := model.BitCounts{Ones: []uint32{0, 2, 2, 4, 0, 1, 3, 2}, TotalDumps: 4}
	if err := st.Save(ctx, "dev1", counts); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := st.Load(ctx, "dev1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.TotalDumps != counts.TotalDumps {
		t.Fatalf("expected %d dumps, got %d", counts.TotalDumps, loaded.TotalDumps)
	}
	if len(loaded.Ones) != len(counts.Ones) {
		t.Fatalf("expected %d positions, got %d", len(counts.Ones), len(loaded.Ones))
	}
	for i := range counts.Ones {
		if loaded.Ones[i] != counts.Ones[i] {
			t.Fatalf("bit %d: expected %d, got %d", i, counts.Ones[i], loaded.Ones[i])
		}
	}
}

func TestLoadMiss(t *testing.T) {
	st := openTestStore(t)
	_, err := st.Load(context.Background(), "never-stored")
	if !errors.Is(err, ErrNotCached) {
		t.Fatalf("expected ErrNotCached, got %v", err)
	}
}

func TestExists(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	ok, err := st.Exists(ctx, "dev1")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if ok {
		t.Fatalf("device should not exist before save")
	}

	if err := st.Save(ctx, "dev1", model.BitCounts{Ones: []uint32{1}, TotalDumps: 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	ok, err = st.Exists(ctx, "dev1")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !ok {
		t.Fatalf("device should exist after save")
	}
}

func TestSaveOverwrites(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.Save(ctx, "dev1", model.BitCounts{Ones: []uint32{1, 1}, TotalDumps: 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.Save(ctx, "dev1", model.BitCounts{Ones: []uint32{3, 0}, TotalDumps: 3}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	loaded, err := st.Load(ctx, "dev1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.TotalDumps != 3 || loaded.Ones[0] != 3 || loaded.Ones[1] != 0 {
		t.Fatalf("unexpected counts after overwrite: %+v", loaded)
	}
}

func TestList(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"beta", "alpha"} {
		if err := st.Save(ctx, name, model.BitCounts{Ones: []uint32{0, 1}, TotalDumps: 2}); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}

	devices, err := st.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(devices))
	}
	if devices[0].Name != "alpha" || devices[1].Name != "beta" {
		t.Fatalf("expected name-ordered devices, got %+v", devices)
	}
	if devices[0].MemoryBits != 2 || devices[0].TotalDumps != 2 {
		t.Fatalf("unexpected metadata: %+v", devices[0])
	}
	if devices[0].UpdatedAt.IsZero() {
		t.Fatalf("expected non-zero update time")
	}
}

func TestSaveEmptyNameRejected(t *testing.T) {
	st := openTestStore(t)
	if err := st.Save(context.Background(), "", model.BitCounts{Ones: []uint32{1}, TotalDumps: 1}); err == nil {
		t.Fatalf("expected error for empty device name")
	}
}
