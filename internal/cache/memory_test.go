package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func testArtifact(name string) *Artifact {
	return &Artifact{
		Filename: name,
		MIME:     "image/png",
		Data:     []byte("payload-" + name),
	}
}

func TestMemoryStorePutGet(t *testing.T) {
	store := NewMemoryStore(time.Minute, 10)
	ctx := context.Background()

	if err := store.Put(ctx, "tok-1", testArtifact("a.png")); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	got, err := store.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Filename != "a.png" {
		t.Fatalf("unexpected artifact: %#v", got)
	}
}

func TestMemoryStoreGetUnknownToken(t *testing.T) {
	store := NewMemoryStore(time.Minute, 10)
	if _, err := store.Get(context.Background(), "never-issued"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute, 10)
	current := time.Unix(1700000000, 0)
	store.now = func() time.Time { return current }

	ctx := context.Background()
	if err := store.Put(ctx, "tok-1", testArtifact("a.png")); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	current = current.Add(2 * time.Minute)
	if _, err := store.Get(ctx, "tok-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expired entry not removed, len=%d", store.Len())
	}
}

func TestMemoryStoreCapacityEviction(t *testing.T) {
	store := NewMemoryStore(0, 2)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		token := fmt.Sprintf("tok-%d", i)
		if err := store.Put(ctx, token, testArtifact(token)); err != nil {
			t.Fatalf("Put returned error: %v", err)
		}
	}

	if store.Len() != 2 {
		t.Fatalf("len = %d, want 2", store.Len())
	}
	// 最も古い tok-1 が追い出される
	if _, err := store.Get(ctx, "tok-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected oldest entry evicted, got %v", err)
	}
	if _, err := store.Get(ctx, "tok-3"); err != nil {
		t.Fatalf("newest entry missing: %v", err)
	}
}

func TestMemoryStoreEvict(t *testing.T) {
	store := NewMemoryStore(time.Minute, 10)
	ctx := context.Background()

	if err := store.Put(ctx, "tok-1", testArtifact("a.png")); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := store.Evict(ctx, "tok-1"); err != nil {
		t.Fatalf("Evict returned error: %v", err)
	}
	if _, err := store.Get(ctx, "tok-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after evict, got %v", err)
	}
	// 存在しないトークンの破棄はエラーにならない
	if err := store.Evict(ctx, "missing"); err != nil {
		t.Fatalf("Evict of missing token returned error: %v", err)
	}
}

func TestMemoryStoreRejectsEmptyArtifact(t *testing.T) {
	store := NewMemoryStore(time.Minute, 10)
	if err := store.Put(context.Background(), "tok-1", &Artifact{Filename: "x"}); err == nil {
		t.Fatal("expected error for empty artifact payload")
	}
}

func TestMemoryStoreConcurrentInserts(t *testing.T) {
	store := NewMemoryStore(time.Minute, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token := fmt.Sprintf("tok-%d", i)
			if err := store.Put(ctx, token, testArtifact(token)); err != nil {
				t.Errorf("Put(%s) returned error: %v", token, err)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 32; i++ {
		token := fmt.Sprintf("tok-%d", i)
		got, err := store.Get(ctx, token)
		if err != nil {
			t.Fatalf("Get(%s) returned error: %v", token, err)
		}
		if got.Filename != token {
			t.Fatalf("entry %s corrupted: %#v", token, got)
		}
	}
}
