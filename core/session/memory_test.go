package session

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreAbsentThenSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, found, err := s.Get(ctx, "tg_user_1_state"); err != nil || found {
		t.Fatalf("expected absent key, got found=%v err=%v", found, err)
	}
	if err := s.Set(ctx, "tg_user_1_state", "HANDLE_MENU"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "tg_user_1_state", "HANDLE_PROGRAM"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, found, err := s.Get(ctx, "tg_user_1_state")
	if err != nil || !found || v != "HANDLE_PROGRAM" {
		t.Fatalf("get = %q found=%v err=%v", v, found, err)
	}
	if len(s.values) != 1 {
		t.Fatalf("stored sessions = %d", len(s.values))
	}
}

func TestMemoryStoreClosed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, _, err := s.Get(ctx, "k"); !errors.Is(err, ErrClosed) {
		t.Fatalf("get after close err = %v", err)
	}
	if err := s.Set(ctx, "k", "v"); !errors.Is(err, ErrClosed) {
		t.Fatalf("set after close err = %v", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("ping after close err = %v", err)
	}
}

func TestMemoryStoreHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryStore()
	if err := s.Set(ctx, "k", "v"); !errors.Is(err, context.Canceled) {
		t.Fatalf("set err = %v", err)
	}
	if _, _, err := s.Get(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Fatalf("get err = %v", err)
	}
}
