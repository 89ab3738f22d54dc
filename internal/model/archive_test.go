// internal/model/archive_test.go
// Package model provides tests for the shared data structures.
package model

import (
	"encoding/json"
	"testing"
)

// TestFlexIntUnmarshal tests tolerant numeric decoding for count fields.
func TestFlexIntUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{name: "number", in: `42`, want: 42},
		{name: "numeric string", in: `"42"`, want: 42},
		{name: "garbage string", in: `"abc"`, want: 0},
		{name: "null", in: `null`, want: 0},
		{name: "float", in: `12.0`, want: 12},
		{name: "negative clamped", in: `-7`, want: 0},
		{name: "negative float clamped", in: `-3.5`, want: 0},
		{name: "negative float string clamped", in: `"-3.5"`, want: 0},
		{name: "float truncated", in: `7.9`, want: 7},
		{name: "empty string", in: `""`, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FlexInt
			if err := json.Unmarshal([]byte(tt.in), &f); err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", tt.in, err)
			}
			if f.Int() != tt.want {
				t.Errorf("Unmarshal(%s) = %d, want %d", tt.in, f.Int(), tt.want)
			}
		})
	}
}

// TestFlexIntInEntry tests the metadata entry decoding path end to end.
func TestFlexIntInEntry(t *testing.T) {
	var e MetadataEntry
	data := `{"video_id":"AAAAAAAAAAA","title":"Test","view_count":"abc","like_count":"42"}`
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if e.ViewCount.Int() != 0 {
		t.Errorf("ViewCount = %d, want 0", e.ViewCount.Int())
	}
	if e.LikeCount.Int() != 42 {
		t.Errorf("LikeCount = %d, want 42", e.LikeCount.Int())
	}
}

// TestParseDate tests the tolerated date layouts.
func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ok   bool
	}{
		{name: "rfc3339", in: "2024-03-01T12:00:00Z", ok: true},
		{name: "date only", in: "2024-03-01", ok: true},
		{name: "ytdlp upload date", in: "20240301", ok: true},
		{name: "empty", in: "", ok: false},
		{name: "garbage", in: "not-a-date", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDate(tt.in)
			if (got != nil) != tt.ok {
				t.Errorf("ParseDate(%q) = %v, want parsed=%v", tt.in, got, tt.ok)
			}
		})
	}
}

// TestValidateID tests the 11-character identifier grammar.
func TestValidateID(t *testing.T) {
	valid := []string{"dQw4w9WgXcQ", "AAAAAAAAAAA", "a_b-c_d-e_f"}
	for _, id := range valid {
		if err := ValidateID(id); err != nil {
			t.Errorf("ValidateID(%q) = %v, want nil", id, err)
		}
	}
	invalid := []string{"", "short", "waaaaaaaytoolong", "has spaces!", "dQw4w9WgXc?"}
	for _, id := range invalid {
		if err := ValidateID(id); err == nil {
			t.Errorf("ValidateID(%q) = nil, want error", id)
		}
	}
}

// TestDiscoveryMapIDs tests the union semantics of the id universe.
func TestDiscoveryMapIDs(t *testing.T) {
	d := NewDiscoveryMap()
	d.Transcripts["AAAAAAAAAAA"] = "a.txt"
	d.Summaries["AAAAAAAAAAA"] = "a_summary.txt"
	d.Comments["BBBBBBBBBBB"] = "b_comments.json"
	d.VideoFiles["CCCCCCCCCCC"] = "c.mp4"

	ids := d.IDs()
	if len(ids) != 3 {
		t.Fatalf("IDs() returned %d ids, want 3: %v", len(ids), ids)
	}
	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("IDs() returned duplicate %q", id)
		}
		seen[id] = true
	}

	av := d.Availability("AAAAAAAAAAA")
	if !av.HasTranscript || !av.HasSummary || av.HasComments || av.HasVideoFile {
		t.Errorf("Availability(AAAAAAAAAAA) = %+v", av)
	}
	av = d.Availability("CCCCCCCCCCC")
	if av.HasTranscript || !av.HasVideoFile {
		t.Errorf("Availability(CCCCCCCCCCC) = %+v", av)
	}
}
