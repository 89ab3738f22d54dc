// internal/cache/cache_test.go
// Package cache provides tests for the in-memory artifact cache.
package cache

import (
	"testing"

	"github.com/ArchiveLens/archivelens-explorer-go/internal/model"
)

// TestMemoryRoundTrip tests basic get/set semantics.
func TestMemoryRoundTrip(t *testing.T) {
	c := NewMemory()

	if _, ok := c.Get(model.ArtifactTranscript, "dQw4w9WgXcQ"); ok {
		t.Error("Get on empty cache returned a hit")
	}

	c.Set(model.ArtifactTranscript, "dQw4w9WgXcQ", "hello transcript")
	v, ok := c.Get(model.ArtifactTranscript, "dQw4w9WgXcQ")
	if !ok {
		t.Fatal("Get after Set returned a miss")
	}
	if v.(string) != "hello transcript" {
		t.Errorf("Get = %v, want %q", v, "hello transcript")
	}

	// Same id under a different artifact type is a distinct key.
	if _, ok := c.Get(model.ArtifactSummary, "dQw4w9WgXcQ"); ok {
		t.Error("Get with different artifact type returned a hit")
	}
}

// TestMemoryNilNotCached tests that nil payloads are never stored, so a
// failed resolution can be retried later.
func TestMemoryNilNotCached(t *testing.T) {
	c := NewMemory()
	c.Set(model.ArtifactSummary, "dQw4w9WgXcQ", nil)
	if _, ok := c.Get(model.ArtifactSummary, "dQw4w9WgXcQ"); ok {
		t.Error("nil payload was cached")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

// TestMemoryClear tests the explicit full reset.
func TestMemoryClear(t *testing.T) {
	c := NewMemory()
	c.Set(model.ArtifactComments, "AAAAAAAAAAA", []model.CommentRecord{})
	c.Set(model.ArtifactKeywords, "BBBBBBBBBBB", []string{"yoga"})
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	if _, ok := c.Get(model.ArtifactComments, "AAAAAAAAAAA"); ok {
		t.Error("Get after Clear returned a hit")
	}
}
