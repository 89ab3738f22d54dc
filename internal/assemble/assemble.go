// internal/assemble/assemble.go
// Package assemble merges metadata entries, optional per-video sidecar
// overrides, and keyword lookups into the normalized video record set. The
// id universe is discovery-driven: a video with metadata but zero discovered
// artifacts is excluded, while a discovered video without metadata gets
// placeholder fields.
package assemble

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ArchiveLens/archivelens-explorer-go/internal/model"
)

// SidecarFunc resolves the optional secondary per-video info payload.
// It may be nil when no sidecar source is configured.
type SidecarFunc func(ctx context.Context, id string) (*model.MetadataEntry, bool)

// Assemble builds one VideoRecord per id in the discovery map union.
// Records come back sorted by id for deterministic output; the query engine
// imposes user-selected ordering later. The returned records are treated as
// immutable values until the next full initialization pass.
func Assemble(ctx context.Context, entries []model.MetadataEntry, d model.DiscoveryMap, keywords map[string][]string, sidecar SidecarFunc) []model.VideoRecord {
	// Exact-id metadata lookup; first entry wins when duplicates exist.
	byID := make(map[string]*model.MetadataEntry, len(entries))
	for i := range entries {
		if _, dup := byID[entries[i].VideoID]; !dup {
			byID[entries[i].VideoID] = &entries[i]
		}
	}

	ids := d.IDs()
	sort.Strings(ids)

	records := make([]model.VideoRecord, 0, len(ids))
	placeholders := 0
	for _, id := range ids {
		meta := byID[id]

		var side *model.MetadataEntry
		if sidecar != nil {
			if s, ok := sidecar(ctx, id); ok {
				side = s
			}
		}

		rec := build(id, meta, side)
		if meta == nil {
			placeholders++
		}

		if kws, ok := keywords[id]; ok && kws != nil {
			rec.Keywords = kws
		} else {
			rec.Keywords = []string{}
		}
		rec.Availability = d.Availability(id)
		records = append(records, rec)
	}

	slog.Info("video records assembled",
		"total", len(records),
		"placeholders", placeholders,
		"metadata_entries", len(entries))
	return records
}

// build merges the primary metadata entry with the sidecar override. The
// primary always wins on conflict; sidecar fields apply only where the
// primary is absent. With neither, the record carries placeholder fields.
func build(id string, meta, side *model.MetadataEntry) model.VideoRecord {
	rec := model.VideoRecord{
		ID:    id,
		Title: fmt.Sprintf("Video %s", id),
	}

	pick := func(primary, secondary string) string {
		if primary != "" {
			return primary
		}
		return secondary
	}
	pickN := func(primary, secondary model.FlexInt) int {
		if primary.Int() != 0 {
			return primary.Int()
		}
		return secondary.Int()
	}

	var m, s model.MetadataEntry
	if meta != nil {
		m = *meta
	}
	if side != nil {
		s = *side
	}

	if title := pick(m.Title, s.Title); title != "" {
		rec.Title = title
	}
	rec.Description = pick(m.Description, s.Description)

	// publishedAt prefers the explicit date, then the yt-dlp upload date,
	// then the sidecar's. Unparseable values stay nil rather than failing.
	for _, candidate := range []string{m.PublishedAt, m.UploadDate, s.PublishedAt, s.UploadDate} {
		if ts := model.ParseDate(candidate); ts != nil {
			rec.PublishedAt = ts
			break
		}
	}

	rec.ViewCount = pickN(m.ViewCount, s.ViewCount)
	rec.LikeCount = pickN(m.LikeCount, s.LikeCount)
	rec.CommentCount = m.CommentCount.Int()
	rec.DurationSeconds = pickN(m.Duration, s.Duration)
	return rec
}
