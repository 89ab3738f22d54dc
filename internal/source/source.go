// internal/source/source.go
// Package source implements the individual lookup strategies the resolver
// chains together: the archive directory's structured layout, flat bulk
// index files, an S3-compatible archive bucket, and a remote archive API.
// Every strategy normalizes its raw JSON into the tagged Payload union at
// this boundary so downstream code never branches on payload shape.
package source

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ArchiveLens/archivelens-explorer-go/internal/model"
)

// Payload is the tagged union of resolved artifact values. Exactly one of
// the value fields is meaningful, selected by Type.
type Payload struct {
	Type       model.ArtifactType    // Which value field applies
	Transcript string                // ArtifactTranscript
	Summary    string                // ArtifactSummary
	Comments   []model.CommentRecord // ArtifactComments
	Metadata   *model.MetadataEntry  // ArtifactMetadata
	Keywords   []string              // ArtifactKeywords
}

// Hint carries optional per-request context a strategy may use to build
// candidate filenames. Currently just the video title.
type Hint struct {
	Title string
}

// Source is a single lookup strategy. Lookup returns (nil, nil) when the
// artifact is absent at this source; absence is expected and drives the
// resolver's fallback, so it is never an error. A non-nil error means the
// source itself misbehaved (unreachable bucket, malformed index); the
// resolver logs it and falls through all the same.
type Source interface {
	// Name identifies the strategy in logs and metrics.
	Name() string
	// Lookup attempts to resolve one artifact for one video id.
	Lookup(ctx context.Context, t model.ArtifactType, id string, hint Hint) (*Payload, error)
}

// rawComment tolerates the comment shapes seen across archive sources:
// alternate key names for id/text/likes/date and optionally nested replies.
type rawComment struct {
	ID          string        `json:"id"`
	CommentID   string        `json:"comment_id"`
	Author      string        `json:"author"`
	Text        string        `json:"text"`
	Content     string        `json:"content"`
	LikeCount   model.FlexInt `json:"like_count"`
	Likes       model.FlexInt `json:"likes"`
	PublishedAt string        `json:"published_at"`
	Time        string        `json:"time"`
	IsReply     bool          `json:"is_reply"`
	ParentID    string        `json:"parent_id"`
	Replies     []rawComment  `json:"replies"`
}

// commentsEnvelope tolerates the `{"comments": [...]}` wrapper variant.
type commentsEnvelope struct {
	Comments []rawComment `json:"comments"`
}

// NormalizeComments decodes a raw comment document for one video into the
// flat normalized list: each top-level comment in source order, immediately
// followed by its nested replies (if the source nests them). Comments
// without an id get the synthetic "{videoId}_comment_{index}" form; the
// index is the position in the flattened list, so synthetic ids are unique
// within the video but not stable across reloads.
func NormalizeComments(videoID string, data []byte) ([]model.CommentRecord, error) {
	var raws []rawComment
	if err := json.Unmarshal(data, &raws); err != nil {
		var env commentsEnvelope
		if err2 := json.Unmarshal(data, &env); err2 != nil {
			return nil, fmt.Errorf("comments for %s: %w", videoID, err)
		}
		raws = env.Comments
	}

	out := make([]model.CommentRecord, 0, len(raws))
	index := 0
	var walk func(rc rawComment, isReply bool, parentID string)
	walk = func(rc rawComment, isReply bool, parentID string) {
		rec := normalizeComment(videoID, rc, index)
		index++
		if isReply {
			rec.IsReply = true
			rec.ParentID = parentID
		}
		out = append(out, rec)
		for _, child := range rc.Replies {
			walk(child, true, rec.ID)
		}
	}
	for _, rc := range raws {
		walk(rc, rc.IsReply, rc.ParentID)
	}
	return out, nil
}

// normalizeComment maps one raw comment onto the normalized record,
// preferring the primary key names and falling back to the alternates.
func normalizeComment(videoID string, rc rawComment, index int) model.CommentRecord {
	id := rc.ID
	if id == "" {
		id = rc.CommentID
	}
	if id == "" {
		id = fmt.Sprintf("%s_comment_%d", videoID, index)
	}
	text := rc.Text
	if text == "" {
		text = rc.Content
	}
	likes := rc.LikeCount.Int()
	if likes == 0 {
		likes = rc.Likes.Int()
	}
	published := rc.PublishedAt
	if published == "" {
		published = rc.Time
	}
	return model.CommentRecord{
		ID:          id,
		VideoID:     videoID,
		Author:      rc.Author,
		Text:        text,
		LikeCount:   likes,
		PublishedAt: model.ParseDate(published),
		IsReply:     rc.IsReply,
		ParentID:    rc.ParentID,
	}
}

// transcriptDoc tolerates the `{"text": "..."}` transcript variant.
type transcriptDoc struct {
	Text string `json:"text"`
}

// NormalizeText decodes an artifact that is logically a single string:
// either a bare JSON string, a `{"text": ...}` object, or raw text.
func NormalizeText(data []byte) string {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	var doc transcriptDoc
	if err := json.Unmarshal(data, &doc); err == nil && doc.Text != "" {
		return doc.Text
	}
	return string(data)
}
