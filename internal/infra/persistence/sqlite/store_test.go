package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStorePersistAndReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	store, err := NewStore(ctx, path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if err := store.Save(ctx, "occuCalc.ui.prefs.v1", []byte(`{"mode":"manual"}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, "occuCalc.ui.prefs.v1", []byte(`{"mode":"upload"}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(ctx, path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	got, ok, err := reloaded.Load(ctx, "occuCalc.ui.prefs.v1")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if string(got) != `{"mode":"upload"}` {
		t.Fatalf("unexpected payload %s", got)
	}
	if reloaded.Path() != path {
		t.Fatalf("unexpected path %s", reloaded.Path())
	}
}

func TestSQLiteStoreMissingBucket(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if _, ok, err := store.Load(ctx, "nope"); err != nil || ok {
		t.Fatalf("expected missing bucket, got ok=%v err=%v", ok, err)
	}
	var count int
	if err := store.DB().QueryRow("SELECT count(*) FROM sqlite_master WHERE type='table' AND name='state'").Scan(&count); err != nil {
		t.Fatalf("lookup state table: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected state table, got %d", count)
	}
}

func TestSQLiteStoreClosedDatabaseErrors(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	_ = store.Close()
	if err := store.Save(ctx, "k", []byte("{}")); err == nil {
		t.Fatalf("expected save on closed db to fail")
	}
	if _, _, err := store.Load(ctx, "k"); err == nil {
		t.Fatalf("expected load on closed db to fail")
	}
}
