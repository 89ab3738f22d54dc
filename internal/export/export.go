// internal/export/export.go
// Package export prepares the flattened comment bundle handed to the
// external render collaborator (image/ZIP generation happens outside this
// process). The bundle is plain data: the video title plus one row per
// comment in flattened source order.
package export

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ArchiveLens/archivelens-explorer-go/internal/model"
)

// Row is one comment prepared for rendering.
type Row struct {
	ID          string     `json:"id"`
	Author      string     `json:"author"`
	Text        string     `json:"text"`
	LikeCount   int        `json:"likeCount"`
	PublishedAt *time.Time `json:"publishedAt"`
	IsReply     bool       `json:"isReply"`
}

// Bundle is the full export payload for one video.
type Bundle struct {
	JobID       string    `json:"jobId"`   // ulid, sortable by creation time
	VideoID     string    `json:"videoId"`
	Title       string    `json:"title"`
	Rows        []Row     `json:"rows"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Build assembles the export bundle, checking for cancellation between
// per-comment units of work so a navigated-away client stops the pass early.
func Build(ctx context.Context, videoID, title string, comments []model.CommentRecord) (*Bundle, error) {
	bundle := &Bundle{
		JobID:       ulid.Make().String(),
		VideoID:     videoID,
		Title:       title,
		Rows:        make([]Row, 0, len(comments)),
		GeneratedAt: time.Now().UTC(),
	}

	for _, c := range comments {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		bundle.Rows = append(bundle.Rows, Row{
			ID:          c.ID,
			Author:      c.Author,
			Text:        c.Text,
			LikeCount:   c.LikeCount,
			PublishedAt: c.PublishedAt,
			IsReply:     c.IsReply,
		})
	}
	return bundle, nil
}
