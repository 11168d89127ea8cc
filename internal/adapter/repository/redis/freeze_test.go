package redis

import (
	"context"
	"testing"
)

func TestFreezeStoreLifecycle(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewFreezeStore(client)
	ctx := context.Background()

	frozen, _, err := store.IsFrozen(ctx, "ret-1")
	if err != nil {
		t.Fatalf("IsFrozen failed: %v", err)
	}
	if frozen {
		t.Fatalf("retailer should not start frozen")
	}

	if err := store.Freeze(ctx, "ret-1", "allocation shortfall"); err != nil {
		t.Fatalf("Freeze failed: %v", err)
	}

	frozen, reason, err := store.IsFrozen(ctx, "ret-1")
	if err != nil {
		t.Fatalf("IsFrozen failed: %v", err)
	}
	if !frozen || reason != "allocation shortfall" {
		t.Fatalf("expected frozen with reason, got frozen=%v reason=%q", frozen, reason)
	}

	// The freeze key carries no TTL; only an explicit unfreeze lifts it.
	if mr.TTL(store.prefix+"ret-1") != 0 {
		t.Fatalf("freeze key must not expire")
	}

	if err := store.Unfreeze(ctx, "ret-1"); err != nil {
		t.Fatalf("Unfreeze failed: %v", err)
	}

	frozen, _, err = store.IsFrozen(ctx, "ret-1")
	if err != nil {
		t.Fatalf("IsFrozen failed: %v", err)
	}
	if frozen {
		t.Fatalf("retailer should be unfrozen")
	}
}

func TestFreezeStoreIsolatesRetailers(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewFreezeStore(client)
	ctx := context.Background()

	if err := store.Freeze(ctx, "ret-1", "corrupt entry"); err != nil {
		t.Fatalf("Freeze failed: %v", err)
	}

	frozen, _, err := store.IsFrozen(ctx, "ret-2")
	if err != nil {
		t.Fatalf("IsFrozen failed: %v", err)
	}
	if frozen {
		t.Fatalf("freeze must not leak across retailers")
	}
}
