package wishlog

import (
	"context"
	"testing"
	"time"
)

func TestMemStoreAppendAndList(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	entries := []Entry{
		{Object: "ball", Door: 1, Transcript: "a red ball", Granted: true, Time: time.Now()},
		{Object: "duck", Door: 2, Transcript: "a duck please", Granted: false, Time: time.Now()},
	}
	for _, e := range entries {
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List returned %d entries, want 2", len(got))
	}
	if got[0].Object != "ball" || got[1].Object != "duck" {
		t.Fatalf("order wrong: %v", got)
	}
	if !got[0].Granted || got[1].Granted {
		t.Fatal("granted flags wrong")
	}
}

func TestMemStoreListIsCopy(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	if err := s.Append(ctx, Entry{Object: "cat", Door: 1}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, _ := s.List(ctx)
	got[0].Object = "mutated"

	again, _ := s.List(ctx)
	if again[0].Object != "cat" {
		t.Fatal("List exposed internal slice")
	}
}

func TestMemStoreClear(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	_ = s.Append(ctx, Entry{Object: "cat", Door: 1})

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("entries after Clear: %v", got)
	}
}
