package postgres

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"occucalc/internal/infra/persistence/postgres/testutil"
)

func openStub(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, conn
}

func TestNewStoreEnsuresStateTable(t *testing.T) {
	_, conn := openStub(t)
	var sawDDL bool
	for _, stmt := range conn.Statements() {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE IF NOT EXISTS STATE") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected state table DDL, got %v", conn.Statements())
	}
}

func TestSaveAndLoadBucket(t *testing.T) {
	ctx := context.Background()
	store, conn := openStub(t)

	if _, ok, err := store.Load(ctx, "occuCalc.codeOverrides.v1"); err != nil || ok {
		t.Fatalf("expected missing bucket, got ok=%v err=%v", ok, err)
	}
	if err := store.Save(ctx, "occuCalc.codeOverrides.v1", []byte(`{"GENERIC":{"Retail":3}}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(ctx, "occuCalc.codeOverrides.v1", []byte(`{}`)); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	if got := len(conn.Rows("state")); got != 1 {
		t.Fatalf("expected 1 state row, got %d", got)
	}
	got, ok, err := store.Load(ctx, "occuCalc.codeOverrides.v1")
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if string(got) != `{}` {
		t.Fatalf("unexpected payload %s", got)
	}
}

func TestStoreSurfacesDriverErrors(t *testing.T) {
	ctx := context.Background()
	store, conn := openStub(t)
	conn.FailExec = true
	if err := store.Save(ctx, "k", []byte("{}")); err == nil || !strings.Contains(err.Error(), "upsert k") {
		t.Fatalf("expected upsert error, got %v", err)
	}
	conn.FailQuery = true
	if _, _, err := store.Load(ctx, "k"); err == nil {
		t.Fatalf("expected select error")
	}
}

func TestNewStorePingFailure(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(context.Background(), "postgres://x"); err == nil || !strings.Contains(err.Error(), "ping postgres") {
		t.Fatalf("expected ping error, got %v", err)
	}
}
