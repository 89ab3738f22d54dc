// internal/resolver/resolver_test.go
// Package resolver provides tests for the fallback chain orchestration.
package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/ArchiveLens/archivelens-explorer-go/internal/cache"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/model"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/source"
)

// fakeSource is a scripted source that counts lookups.
type fakeSource struct {
	name    string
	payload map[string]*source.Payload // key: type + "/" + id
	err     error
	calls   int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Lookup(ctx context.Context, t model.ArtifactType, id string, _ source.Hint) (*source.Payload, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.payload[string(t)+"/"+id], nil
}

// TestResolveOrder verifies the chain stops at the first hit.
func TestResolveOrder(t *testing.T) {
	first := &fakeSource{name: "first", payload: map[string]*source.Payload{
		"transcript/dQw4w9WgXcQ": {Type: model.ArtifactTranscript, Transcript: "from first"},
	}}
	second := &fakeSource{name: "second", payload: map[string]*source.Payload{
		"transcript/dQw4w9WgXcQ": {Type: model.ArtifactTranscript, Transcript: "from second"},
	}}

	r := New(cache.NewMemory(), first, second)
	got, ok := r.Transcript(context.Background(), "dQw4w9WgXcQ")
	if !ok || got != "from first" {
		t.Fatalf("Transcript = %q, %v", got, ok)
	}
	if second.calls != 0 {
		t.Errorf("second source consulted %d times, want 0", second.calls)
	}
}

// TestResolveFallsThrough verifies misses and errors both advance the chain.
func TestResolveFallsThrough(t *testing.T) {
	broken := &fakeSource{name: "broken", err: errors.New("bucket unreachable")}
	empty := &fakeSource{name: "empty"}
	last := &fakeSource{name: "last", payload: map[string]*source.Payload{
		"summary/dQw4w9WgXcQ": {Type: model.ArtifactSummary, Summary: "found"},
	}}

	r := New(cache.NewMemory(), broken, empty, last)
	got, ok := r.Summary(context.Background(), "dQw4w9WgXcQ")
	if !ok || got != "found" {
		t.Fatalf("Summary = %q, %v", got, ok)
	}
	if broken.calls != 1 || empty.calls != 1 || last.calls != 1 {
		t.Errorf("calls = %d/%d/%d, want 1/1/1", broken.calls, empty.calls, last.calls)
	}
}

// TestResolveCachesHits verifies the single-fetch cache property: two
// consecutive resolutions of the same key issue exactly one source lookup.
func TestResolveCachesHits(t *testing.T) {
	src := &fakeSource{name: "only", payload: map[string]*source.Payload{
		"transcript/dQw4w9WgXcQ": {Type: model.ArtifactTranscript, Transcript: "body"},
	}}
	r := New(cache.NewMemory(), src)

	ctx := context.Background()
	if _, ok := r.Transcript(ctx, "dQw4w9WgXcQ"); !ok {
		t.Fatal("first resolution missed")
	}
	if _, ok := r.Transcript(ctx, "dQw4w9WgXcQ"); !ok {
		t.Fatal("second resolution missed")
	}
	if src.calls != 1 {
		t.Errorf("source consulted %d times, want 1", src.calls)
	}
}

// TestResolveMissNotCached verifies a miss is retried on the next request.
func TestResolveMissNotCached(t *testing.T) {
	src := &fakeSource{name: "flaky", payload: map[string]*source.Payload{}}
	r := New(cache.NewMemory(), src)

	ctx := context.Background()
	if _, ok := r.Comments(ctx, "dQw4w9WgXcQ"); ok {
		t.Fatal("unexpected hit")
	}

	// The artifact appears later (say the user grants the directory).
	src.payload["comments/dQw4w9WgXcQ"] = &source.Payload{
		Type:     model.ArtifactComments,
		Comments: []model.CommentRecord{{ID: "c1", VideoID: "dQw4w9WgXcQ"}},
	}
	got, ok := r.Comments(ctx, "dQw4w9WgXcQ")
	if !ok || len(got) != 1 {
		t.Fatalf("retry after miss = %v, %v", got, ok)
	}
	if src.calls != 2 {
		t.Errorf("source consulted %d times, want 2", src.calls)
	}
}

// TestResolveExhausted verifies the all-sources-missed outcome is a clean
// false, not an error or panic.
func TestResolveExhausted(t *testing.T) {
	r := New(cache.NewMemory(), &fakeSource{name: "empty"})
	if _, ok := r.Keywords(context.Background(), "dQw4w9WgXcQ"); ok {
		t.Error("want miss when every source is empty")
	}
}
