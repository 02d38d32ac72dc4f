package memory

import (
	"context"
	"testing"
)

func TestStoreRoundTripAndIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if _, ok, err := s.Load(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing bucket, got ok=%v err=%v", ok, err)
	}

	payload := []byte(`{"a":1}`)
	if err := s.Save(ctx, "k", payload); err != nil {
		t.Fatalf("Save: %v", err)
	}
	payload[0] = 'X'

	got, ok, err := s.Load(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("payload aliased caller buffer: %s", got)
	}
	got[0] = 'Y'
	again, _, _ := s.Load(ctx, "k")
	if string(again) != `{"a":1}` {
		t.Fatalf("payload aliased returned buffer: %s", again)
	}
	if b := s.Buckets(); len(b) != 1 || b[0] != "k" {
		t.Fatalf("unexpected buckets %v", b)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
