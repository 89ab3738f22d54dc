// internal/model/archive.go
// Package model defines the data structures used throughout the explorer service.
// These structures represent the core domain objects for videos, comments, and
// the artifact discovery map.
package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ArtifactType identifies one of the per-video artifacts the resolver can
// locate: transcript, summary, comment set, keyword set, or metadata blob.
type ArtifactType string

const (
	ArtifactTranscript ArtifactType = "transcript" // Subtitle/transcript text
	ArtifactSummary    ArtifactType = "summary"    // Generated summary text
	ArtifactComments   ArtifactType = "comments"   // Comment list for a video
	ArtifactMetadata   ArtifactType = "metadata"   // Metadata entry for a video
	ArtifactKeywords   ArtifactType = "keywords"   // Keyword list for a video
	ArtifactVideoFile  ArtifactType = "video"      // The media file itself (discovery only)
)

// Availability carries the four advisory has* flags derived from the
// discovery map. A true flag does not guarantee a later fetch succeeds;
// the discovery build is heuristic and callers must still tolerate a
// subsequent not-found.
type Availability struct {
	HasTranscript bool `json:"hasTranscript"` // Transcript located during discovery
	HasSummary    bool `json:"hasSummary"`    // Summary located during discovery
	HasComments   bool `json:"hasComments"`   // Comment set located during discovery
	HasVideoFile  bool `json:"hasVideoFile"`  // Media file located during discovery
}

// VideoRecord is the normalized video entry produced by the assembler.
// Records are built once per initialization pass and treated as immutable
// values afterward; a full reset re-creates them wholesale.
type VideoRecord struct {
	ID              string       `json:"id"`              // 11-character video identifier (unique key)
	Title           string       `json:"title"`           // Title, placeholder-generated when no metadata exists
	Description     string       `json:"description"`     // Description, may be empty
	PublishedAt     *time.Time   `json:"publishedAt"`     // Publication date; nil when missing or unparseable
	ViewCount       int          `json:"viewCount"`       // Non-negative, 0 when absent or non-numeric
	LikeCount       int          `json:"likeCount"`       // Non-negative, 0 when absent or non-numeric
	CommentCount    int          `json:"commentCount"`    // Non-negative, 0 when absent or non-numeric
	DurationSeconds int          `json:"durationSeconds"` // Non-negative, 0 when absent or non-numeric
	Keywords        []string     `json:"keywords"`        // Ordered keyword list, empty when none indexed
	Availability    Availability `json:"availability"`    // Advisory artifact flags
}

// CommentRecord is a single normalized comment for a video.
// IDs fall back to a synthetic "{videoId}_comment_{index}" form when the
// source data carries none; synthetic IDs are unique within a video but not
// stable across reloads.
type CommentRecord struct {
	ID          string     `json:"id"`          // Unique within the video
	VideoID     string     `json:"videoId"`     // Owning video identifier
	Author      string     `json:"author"`      // Author display name, empty allowed
	Text        string     `json:"text"`        // Comment body, empty allowed
	LikeCount   int        `json:"likeCount"`   // Non-negative, 0 when absent
	PublishedAt *time.Time `json:"publishedAt"` // Publication date; nil when missing
	IsReply     bool       `json:"isReply"`     // True for replies to a top-level comment
	ParentID    string     `json:"parentId"`    // Top-level comment ID for replies, empty otherwise
}

// CommentThread is a top-level comment with its attached replies, in source
// order. Replies whose parent ID matches no top-level comment are dropped
// from the tree (documented orphan behavior).
type CommentThread struct {
	Comment CommentRecord   `json:"comment"` // The top-level comment
	Replies []CommentRecord `json:"replies"` // Replies in source order, may be empty
}

// DiscoveryMap holds four independent videoId → locator mappings, one per
// artifact type. A given id may be present in zero to four maps; absence in
// one implies nothing about the others. The map is a snapshot: built once per
// initialization and never refreshed mid-session.
type DiscoveryMap struct {
	Transcripts map[string]string `json:"transcripts"` // id → transcript locator
	Summaries   map[string]string `json:"summaries"`   // id → summary locator
	Comments    map[string]string `json:"comments"`    // id → comment set locator
	VideoFiles  map[string]string `json:"videoFiles"`  // id → media file locator
}

// NewDiscoveryMap returns a DiscoveryMap with all four maps allocated.
func NewDiscoveryMap() DiscoveryMap {
	return DiscoveryMap{
		Transcripts: make(map[string]string),
		Summaries:   make(map[string]string),
		Comments:    make(map[string]string),
		VideoFiles:  make(map[string]string),
	}
}

// IDs returns the union of identifiers appearing in any of the four maps.
// The result is the id universe the assembler builds records for.
func (d DiscoveryMap) IDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, m := range []map[string]string{d.Transcripts, d.Summaries, d.Comments, d.VideoFiles} {
		for id := range m {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// Availability derives the advisory flags for a single id by membership test.
func (d DiscoveryMap) Availability(id string) Availability {
	_, t := d.Transcripts[id]
	_, s := d.Summaries[id]
	_, c := d.Comments[id]
	_, v := d.VideoFiles[id]
	return Availability{HasTranscript: t, HasSummary: s, HasComments: c, HasVideoFile: v}
}

// MetadataEntry is a raw metadata record as found in the bulk metadata index.
// Field shapes vary per source, so counts use FlexInt and dates stay strings
// until normalization.
type MetadataEntry struct {
	VideoID      string   `json:"video_id"`      // 11-character identifier
	Title        string   `json:"title"`         // Title as archived
	Description  string   `json:"description"`   // Description as archived
	UploadDate   string   `json:"upload_date"`   // yt-dlp style YYYYMMDD, may be empty
	PublishedAt  string   `json:"published_at"`  // ISO date, may be empty
	ViewCount    FlexInt  `json:"view_count"`    // Tolerant of string/number/garbage
	LikeCount    FlexInt  `json:"like_count"`    // Tolerant of string/number/garbage
	CommentCount FlexInt  `json:"comment_count"` // Tolerant of string/number/garbage
	Duration     FlexInt  `json:"duration"`      // Seconds, tolerant of string/number/garbage
	Tags         []string `json:"tags"`          // Optional tag list from the uploader
}

// VideoInfo is the optional per-video sidecar payload (upload-tool generated).
// Its fields are consulted only where the primary metadata field is absent.
type VideoInfo struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	UploadDate  string  `json:"upload_date"`
	ViewCount   FlexInt `json:"view_count"`
	LikeCount   FlexInt `json:"like_count"`
	Duration    FlexInt `json:"duration"`
}

// FlexInt is an integer that unmarshals from a JSON number, a numeric string,
// or anything else. Unparseable input decodes to 0 rather than failing the
// whole document (MalformedInput recovery).
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler with safe-default semantics.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		// Some sources format counts as floats.
		if fl, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			if fl < 0 {
				fl = 0
			}
			*f = FlexInt(int(fl))
			return nil
		}
		*f = 0
		return nil
	}
	if n < 0 {
		n = 0
	}
	*f = FlexInt(n)
	return nil
}

// Int returns the plain int value.
func (f FlexInt) Int() int { return int(f) }

// ParseDate attempts the date layouts seen across archive sources and returns
// nil when none applies. Invalid values never abort processing; downstream
// renders a nil date as "unavailable".
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
		"20060102",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// VideoQuery captures the optional, AND-combined filters and pagination for
// listing assembled videos.
type VideoQuery struct {
	Text        string     `json:"q"`           // Case-insensitive substring over title+description
	From        *time.Time `json:"from"`        // Inclusive publishedAt lower bound
	To          *time.Time `json:"to"`          // Inclusive publishedAt upper bound
	MinViews    int        `json:"minViews"`    // Inclusive minimum view count
	MinComments int        `json:"minComments"` // Inclusive minimum comment count
	Keyword     string     `json:"keyword"`     // Case-insensitive exact-or-substring keyword match
	Sort        SortField  `json:"sort"`        // Sort field, default date
	Order       SortOrder  `json:"order"`       // Sort direction, default descending
	Page        int        `json:"page"`        // 1-indexed page number
}

// CommentQuery captures the filters and pagination for a per-video comment
// listing.
type CommentQuery struct {
	Text  string    `json:"q"`     // Case-insensitive substring over author+text
	Sort  SortField `json:"sort"`  // likes or date
	Order SortOrder `json:"order"` // asc or desc
	Page  int       `json:"page"`  // 1-indexed page number
}

// SortField enumerates the allowed sort keys.
type SortField string

const (
	SortDate     SortField = "date"
	SortViews    SortField = "views"
	SortComments SortField = "comments"
	SortTitle    SortField = "title"
	SortLikes    SortField = "likes"
)

// SortOrder enumerates the two sort directions.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// Page is the pagination envelope shared by video and comment queries.
// Requesting a page beyond the last yields an empty Items slice, not an
// error.
type Page[T any] struct {
	Items      []T  `json:"items"`      // The page contents
	Total      int  `json:"total"`      // Total matching items across all pages
	Page       int  `json:"page"`       // 1-indexed current page
	TotalPages int  `json:"totalPages"` // ceil(total / pageSize), minimum 1
	HasNext    bool `json:"hasNext"`    // True when page < totalPages
	HasPrev    bool `json:"hasPrev"`    // True when page > 1
}

// ValidateID reports whether s satisfies the 11-character identifier grammar:
// exactly 11 characters drawn from [A-Za-z0-9_-].
func ValidateID(s string) error {
	if len(s) != 11 {
		return fmt.Errorf("identifier %q: want 11 characters, got %d", s, len(s))
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return fmt.Errorf("identifier %q: invalid character %q", s, r)
		}
	}
	return nil
}
