// internal/discovery/discovery.go
// Package discovery reconstructs the artifact availability map for a
// session. With a real directory to walk it extracts identifiers from actual
// filenames and extrapolates a sample-validated naming pattern across the
// metadata; without one it falls back to key presence in the bulk indexes.
// The result is a snapshot: built once per initialization and never
// refreshed mid-session.
package discovery

import (
	"context"
	"log/slog"

	"github.com/ArchiveLens/archivelens-explorer-go/internal/metrics"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/model"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/source"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/vid"
)

// DefaultSampleSize is how many metadata entries the probing pass checks
// against the file system before extrapolating the naming pattern.
const DefaultSampleSize = 5

// DefaultHitThreshold is the minimum probe hit rate for extrapolation.
const DefaultHitThreshold = 0.4

// subdirTypes maps conventional subdirectory names to artifact types for the
// authoritative walk.
var subdirTypes = map[string]model.ArtifactType{
	"subtitles": model.ArtifactTranscript,
	"summaries": model.ArtifactSummary,
	"comments":  model.ArtifactComments,
	"videos":    model.ArtifactVideoFile,
}

// Builder assembles a DiscoveryMap from the available listing capabilities.
type Builder struct {
	dir          *source.Dir     // nil when no directory was granted
	indexes      []*source.Index // ordered bulk indexes (archive, then fallback)
	sampleSize   int
	hitThreshold float64
	metrics      *metrics.Metrics
}

// NewBuilder creates a discovery builder. dir may be nil; indexes may be
// empty. sampleSize and hitThreshold fall back to the defaults when zero.
func NewBuilder(dir *source.Dir, indexes []*source.Index, sampleSize int, hitThreshold float64) *Builder {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	if hitThreshold <= 0 {
		hitThreshold = DefaultHitThreshold
	}
	return &Builder{
		dir:          dir,
		indexes:      indexes,
		sampleSize:   sampleSize,
		hitThreshold: hitThreshold,
		metrics:      metrics.NewMetrics(),
	}
}

// Build produces the four id → locator maps. metadataEntries drive the
// probing pass and the synthetic fallback; they are not themselves a
// discovery source (a video with metadata but no discovered artifact stays
// out of the map).
func (b *Builder) Build(ctx context.Context, metadataEntries []model.MetadataEntry) model.DiscoveryMap {
	d := model.NewDiscoveryMap()

	if b.dir != nil {
		b.walkDir(d)
		b.extrapolateVideoFiles(d, metadataEntries)
	}

	// Any artifact type the walk produced nothing for falls back to bulk
	// index key presence. This also covers the no-directory case entirely.
	b.synthetic(d)

	b.metrics.DiscoveryMapSize.WithLabelValues(string(model.ArtifactTranscript)).Set(float64(len(d.Transcripts)))
	b.metrics.DiscoveryMapSize.WithLabelValues(string(model.ArtifactSummary)).Set(float64(len(d.Summaries)))
	b.metrics.DiscoveryMapSize.WithLabelValues(string(model.ArtifactComments)).Set(float64(len(d.Comments)))
	b.metrics.DiscoveryMapSize.WithLabelValues(string(model.ArtifactVideoFile)).Set(float64(len(d.VideoFiles)))

	slog.Info("discovery map built",
		"transcripts", len(d.Transcripts),
		"summaries", len(d.Summaries),
		"comments", len(d.Comments),
		"video_files", len(d.VideoFiles))
	return d
}

// walkDir is the authoritative mode: list the actual files, extract ids,
// and group by subdirectory convention. First locator per id wins.
func (b *Builder) walkDir(d model.DiscoveryMap) {
	b.dir.Walk(func(subdir, name, fullPath string) {
		t, ok := subdirTypes[subdir]
		if !ok {
			return
		}
		id := vid.Extract(name)
		if id == "" || model.ValidateID(id) != nil {
			return
		}
		m := mapFor(d, t)
		if _, exists := m[id]; !exists {
			m[id] = fullPath
		}
	})
}

// extrapolateVideoFiles probes a small sample of metadata entries against
// the file system, measures the hit rate of the title-based naming pattern,
// and when the rate clears the threshold, predicts locators for the
// remaining entries without re-probing each one. Predicted locators may be
// wrong for entries whose naming diverges from the sampled pattern; the
// availability flags derived from them are advisory.
func (b *Builder) extrapolateVideoFiles(d model.DiscoveryMap, entries []model.MetadataEntry) {
	if len(entries) == 0 {
		return
	}

	sample := entries
	if len(sample) > b.sampleSize {
		sample = sample[:b.sampleSize]
	}

	hits := 0
	for _, e := range sample {
		if loc, ok := b.dir.Exists(model.ArtifactVideoFile, e.VideoID, e.Title); ok {
			hits++
			if _, exists := d.VideoFiles[e.VideoID]; !exists {
				d.VideoFiles[e.VideoID] = loc
			}
		}
	}

	rate := float64(hits) / float64(len(sample))
	b.metrics.DiscoveryProbeHitRate.Set(rate)
	slog.Debug("discovery probe pass", "sample", len(sample), "hits", hits, "rate", rate)

	if rate < b.hitThreshold {
		return
	}
	for _, e := range entries[len(sample):] {
		if _, exists := d.VideoFiles[e.VideoID]; exists {
			continue
		}
		candidates := vid.FileCandidates(e.Title, e.VideoID, ".mp4")
		if len(candidates) == 0 {
			continue
		}
		d.VideoFiles[e.VideoID] = "videos/" + candidates[0]
	}
}

// synthetic fills any still-empty artifact map from bulk index key presence.
// Presence of the key, not validity of the content, is the signal.
func (b *Builder) synthetic(d model.DiscoveryMap) {
	for _, t := range []model.ArtifactType{
		model.ArtifactTranscript,
		model.ArtifactSummary,
		model.ArtifactComments,
	} {
		m := mapFor(d, t)
		if len(m) > 0 {
			continue
		}
		for _, ix := range b.indexes {
			for _, id := range ix.Keys(t) {
				if model.ValidateID(id) != nil {
					continue
				}
				if _, exists := m[id]; !exists {
					m[id] = ix.Name()
				}
			}
		}
	}
}

// mapFor selects the per-type map inside the discovery snapshot.
func mapFor(d model.DiscoveryMap, t model.ArtifactType) map[string]string {
	switch t {
	case model.ArtifactTranscript:
		return d.Transcripts
	case model.ArtifactSummary:
		return d.Summaries
	case model.ArtifactComments:
		return d.Comments
	case model.ArtifactVideoFile:
		return d.VideoFiles
	default:
		return map[string]string{}
	}
}
