package cache

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "layout:abc", []byte("positions"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	data, hit, err := c.Get(ctx, "layout:abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !hit {
		t.Fatal("expected hit after Set")
	}
	if !bytes.Equal(data, []byte("positions")) {
		t.Errorf("data = %q, want positions", data)
	}

	// Unknown key is a clean miss
	if _, hit, err := c.Get(ctx, "layout:other"); err != nil || hit {
		t.Errorf("Get(other) = hit %v, err %v, want miss", hit, err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if err := c.Set(ctx, "key", []byte("v"), -time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// A negative TTL writes an already-expired entry.
	if _, hit, err := c.Get(ctx, "key"); err != nil || hit {
		t.Errorf("expired entry: hit = %v, err = %v, want miss", hit, err)
	}
}

func TestFileCacheZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if err := c.Set(ctx, "key", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, hit, err := c.Get(ctx, "key"); err != nil || !hit {
		t.Errorf("zero-TTL entry: hit = %v, err = %v, want hit", hit, err)
	}
}

func TestFileCacheDelete(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if err := c.Set(ctx, "key", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("entry survived Delete")
	}

	// Deleting an absent key is not an error
	if err := c.Delete(ctx, "absent"); err != nil {
		t.Errorf("Delete(absent): %v", err)
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestHashJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	h1, err := HashJSON(payload{Name: "a"})
	if err != nil {
		t.Fatalf("HashJSON: %v", err)
	}
	h2, _ := HashJSON(payload{Name: "a"})
	h3, _ := HashJSON(payload{Name: "b"})

	if h1 != h2 {
		t.Error("HashJSON should be deterministic")
	}
	if h1 == h3 {
		t.Error("Different values should produce different hashes")
	}
}

func TestKeys(t *testing.T) {
	// LayoutKey should include options in the hash
	lk1 := LayoutKey("hash123", LayoutKeyOpts{RootID: "a", Direction: "top-down"})
	lk2 := LayoutKey("hash123", LayoutKeyOpts{RootID: "b", Direction: "top-down"})
	if lk1 == lk2 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}

	// A different tree hash changes the key
	lk3 := LayoutKey("hash456", LayoutKeyOpts{RootID: "a", Direction: "top-down"})
	if lk1 == lk3 {
		t.Error("Different tree hashes should produce different keys")
	}

	// ArtifactKey
	ak1 := ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg", Width: 800})
	ak2 := ArtifactKey("hash123", ArtifactKeyOpts{Format: "png", Width: 800})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}

	// Layout and artifact namespaces never collide
	if LayoutKey("h", LayoutKeyOpts{}) == ArtifactKey("h", ArtifactKeyOpts{}) {
		t.Error("LayoutKey and ArtifactKey should use distinct prefixes")
	}
}
