// internal/source/source_test.go
// Package source provides tests for payload normalization and the local
// lookup strategies.
package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/ArchiveLens/archivelens-explorer-go/internal/model"
)

// TestNormalizeComments tests the flat and nested comment shapes.
func TestNormalizeComments(t *testing.T) {
	t.Run("flat with parent ids", func(t *testing.T) {
		data := `[
			{"id": "c1", "author": "a", "text": "top", "like_count": 3},
			{"id": "c2", "author": "b", "text": "reply", "is_reply": true, "parent_id": "c1"}
		]`
		got, err := NormalizeComments("dQw4w9WgXcQ", []byte(data))
		if err != nil {
			t.Fatalf("NormalizeComments() error = %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d comments, want 2", len(got))
		}
		if got[0].ID != "c1" || got[0].IsReply || got[0].LikeCount != 3 {
			t.Errorf("top-level comment = %+v", got[0])
		}
		if !got[1].IsReply || got[1].ParentID != "c1" {
			t.Errorf("reply = %+v", got[1])
		}
	})

	t.Run("nested replies flattened after parent", func(t *testing.T) {
		data := `{"comments": [
			{"id": "c1", "text": "first", "replies": [{"text": "nested"}]},
			{"id": "c2", "text": "second"}
		]}`
		got, err := NormalizeComments("dQw4w9WgXcQ", []byte(data))
		if err != nil {
			t.Fatalf("NormalizeComments() error = %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("got %d comments, want 3", len(got))
		}
		if got[1].ParentID != "c1" || !got[1].IsReply {
			t.Errorf("nested reply = %+v", got[1])
		}
		// Synthetic id uses the flattened index.
		if got[1].ID != "dQw4w9WgXcQ_comment_1" {
			t.Errorf("synthetic id = %q", got[1].ID)
		}
		if got[2].ID != "c2" || got[2].IsReply {
			t.Errorf("second top-level = %+v", got[2])
		}
	})

	t.Run("alternate key names", func(t *testing.T) {
		data := `[{"comment_id": "x", "content": "body", "likes": "7", "time": "2024-03-01"}]`
		got, err := NormalizeComments("dQw4w9WgXcQ", []byte(data))
		if err != nil {
			t.Fatalf("NormalizeComments() error = %v", err)
		}
		c := got[0]
		if c.ID != "x" || c.Text != "body" || c.LikeCount != 7 || c.PublishedAt == nil {
			t.Errorf("normalized = %+v", c)
		}
	})

	t.Run("malformed document", func(t *testing.T) {
		if _, err := NormalizeComments("dQw4w9WgXcQ", []byte(`{"nope`)); err == nil {
			t.Error("want error for malformed document")
		}
	})
}

// TestNormalizeText tests the three transcript encodings.
func TestNormalizeText(t *testing.T) {
	if got := NormalizeText([]byte(`"hello"`)); got != "hello" {
		t.Errorf("bare string = %q", got)
	}
	if got := NormalizeText([]byte(`{"text": "hello"}`)); got != "hello" {
		t.Errorf("object form = %q", got)
	}
	if got := NormalizeText([]byte("plain text\n")); got != "plain text\n" {
		t.Errorf("raw form = %q", got)
	}
}

// TestDirLookup tests structured-directory resolution with title templates.
func TestDirLookup(t *testing.T) {
	fsys := fstest.MapFS{
		"subtitles/Morning Talk_dQw4w9WgXcQ_en_auto_ytdlp.txt": {Data: []byte("transcript body")},
		"summaries/dQw4w9WgXcQ_summary.txt":                    {Data: []byte("summary body")},
		"comments/dQw4w9WgXcQ.json":                            {Data: []byte(`[{"id":"c1","text":"hi"}]`)},
		"videos/Morning Talk_dQw4w9WgXcQ.mp4":                  {Data: []byte{0}},
	}
	d := NewDir(fsys)
	ctx := context.Background()
	hint := Hint{Title: "Morning Talk"}

	p, err := d.Lookup(ctx, model.ArtifactTranscript, "dQw4w9WgXcQ", hint)
	if err != nil || p == nil {
		t.Fatalf("transcript lookup = %v, %v", p, err)
	}
	if p.Transcript != "transcript body" {
		t.Errorf("transcript = %q", p.Transcript)
	}

	// Summary resolves through the id-only template when no titled file exists.
	p, err = d.Lookup(ctx, model.ArtifactSummary, "dQw4w9WgXcQ", hint)
	if err != nil || p == nil || p.Summary != "summary body" {
		t.Fatalf("summary lookup = %+v, %v", p, err)
	}

	p, err = d.Lookup(ctx, model.ArtifactComments, "dQw4w9WgXcQ", hint)
	if err != nil || p == nil || len(p.Comments) != 1 {
		t.Fatalf("comments lookup = %+v, %v", p, err)
	}

	// Absent artifact is a silent miss.
	p, err = d.Lookup(ctx, model.ArtifactTranscript, "BBBBBBBBBBB", Hint{})
	if err != nil || p != nil {
		t.Errorf("missing artifact = %+v, %v", p, err)
	}

	// Keywords have no per-video files.
	p, err = d.Lookup(ctx, model.ArtifactKeywords, "dQw4w9WgXcQ", hint)
	if err != nil || p != nil {
		t.Errorf("keywords via dir = %+v, %v", p, err)
	}
}

// TestDirExists tests the probing helper used by discovery.
func TestDirExists(t *testing.T) {
	fsys := fstest.MapFS{
		"videos/Q and A_dQw4w9WgXcQ.mp4": {Data: []byte{0}},
	}
	d := NewDir(fsys)

	// The PathVariant candidate ("Q and A") matches where the raw title
	// ("Q & A") does not.
	loc, ok := d.Exists(model.ArtifactVideoFile, "dQw4w9WgXcQ", "Q & A")
	if !ok || loc != "videos/Q and A_dQw4w9WgXcQ.mp4" {
		t.Errorf("Exists = %q, %v", loc, ok)
	}
	if _, ok := d.Exists(model.ArtifactVideoFile, "BBBBBBBBBBB", "Other"); ok {
		t.Error("Exists reported a hit for a missing file")
	}
}

// TestIndexLookup tests bulk index loading, indexing, and key listing.
func TestIndexLookup(t *testing.T) {
	fsys := fstest.MapFS{
		"metadata.json":    {Data: []byte(`[{"video_id":"dQw4w9WgXcQ","title":"Test","view_count":"100"}]`)},
		"transcripts.json": {Data: []byte(`{"dQw4w9WgXcQ":"hello transcript"}`)},
		"keywords.json":    {Data: []byte(`{"dQw4w9WgXcQ":["yoga","healing"]}`)},
	}
	ix := NewIndex(fsys, "archive-index")
	ctx := context.Background()

	p, err := ix.Lookup(ctx, model.ArtifactTranscript, "dQw4w9WgXcQ", Hint{})
	if err != nil || p == nil || p.Transcript != "hello transcript" {
		t.Fatalf("transcript = %+v, %v", p, err)
	}

	p, err = ix.Lookup(ctx, model.ArtifactMetadata, "dQw4w9WgXcQ", Hint{})
	if err != nil || p == nil || p.Metadata.Title != "Test" {
		t.Fatalf("metadata = %+v, %v", p, err)
	}
	if p.Metadata.ViewCount.Int() != 100 {
		t.Errorf("view count = %d, want 100", p.Metadata.ViewCount.Int())
	}

	p, err = ix.Lookup(ctx, model.ArtifactKeywords, "dQw4w9WgXcQ", Hint{})
	if err != nil || p == nil || len(p.Keywords) != 2 {
		t.Fatalf("keywords = %+v, %v", p, err)
	}

	// Summary index file is absent entirely: silent miss.
	p, err = ix.Lookup(ctx, model.ArtifactSummary, "dQw4w9WgXcQ", Hint{})
	if err != nil || p != nil {
		t.Errorf("summary = %+v, %v", p, err)
	}

	keys := ix.Keys(model.ArtifactTranscript)
	if len(keys) != 1 || keys[0] != "dQw4w9WgXcQ" {
		t.Errorf("Keys = %v", keys)
	}

	entries, err := ix.MetadataEntries(ctx)
	if err != nil || len(entries) != 1 {
		t.Fatalf("MetadataEntries = %v, %v", entries, err)
	}
}

// TestIndexMissingMetadata verifies the metadata-specific error path.
func TestIndexMissingMetadata(t *testing.T) {
	ix := NewIndex(fstest.MapFS{}, "fallback-index")
	if _, err := ix.MetadataEntries(context.Background()); err == nil {
		t.Error("want error when metadata index absent")
	}
}

// TestIndexMalformedNonMetadata verifies malformed non-metadata indexes load
// as empty rather than erroring.
func TestIndexMalformedNonMetadata(t *testing.T) {
	fsys := fstest.MapFS{
		"transcripts.json": {Data: []byte(`[not json`)},
	}
	ix := NewIndex(fsys, "archive-index")
	p, err := ix.Lookup(context.Background(), model.ArtifactTranscript, "dQw4w9WgXcQ", Hint{})
	if err != nil || p != nil {
		t.Errorf("malformed index lookup = %+v, %v", p, err)
	}
}

// TestRemoteLookup tests the envelope handling against a stub API.
func TestRemoteLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/transcript/dQw4w9WgXcQ":
			w.Write([]byte(`{"success": true, "data": "remote transcript"}`))
		case "/api/transcript/AAAAAAAAAAA":
			w.Write([]byte(`{"success": false}`))
		case "/api/metadata":
			w.Write([]byte(`{"success": true, "data": [{"video_id":"dQw4w9WgXcQ"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	r := NewRemote(srv.URL)
	ctx := context.Background()

	p, err := r.Lookup(ctx, model.ArtifactTranscript, "dQw4w9WgXcQ", Hint{})
	if err != nil || p == nil || p.Transcript != "remote transcript" {
		t.Fatalf("remote transcript = %+v, %v", p, err)
	}

	// success=false is a miss, not an error.
	p, err = r.Lookup(ctx, model.ArtifactTranscript, "AAAAAAAAAAA", Hint{})
	if err != nil || p != nil {
		t.Errorf("success=false = %+v, %v", p, err)
	}

	// 404 is a miss, not an error.
	p, err = r.Lookup(ctx, model.ArtifactSummary, "BBBBBBBBBBB", Hint{})
	if err != nil || p != nil {
		t.Errorf("404 = %+v, %v", p, err)
	}

	entries, err := r.MetadataEntries(ctx)
	if err != nil || len(entries) != 1 {
		t.Fatalf("MetadataEntries = %v, %v", entries, err)
	}
}
