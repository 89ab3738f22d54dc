// internal/archive/session.go
// Package archive owns the explorer session: it wires the source chain from
// configuration, runs the initialization pass (discovery, metadata load,
// assembly), and serves the read-side operations over the resulting
// in-memory state. A full reset rebuilds everything and clears the cache;
// nothing is refreshed piecemeal.
package archive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/ArchiveLens/archivelens-explorer-go/internal/analytics"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/assemble"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/cache"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/config"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/discovery"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/event"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/model"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/query"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/resolver"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/source"
)

// metadataProvider is any source that can list the bulk metadata entries.
type metadataProvider interface {
	Name() string
	MetadataEntries(ctx context.Context) ([]model.MetadataEntry, error)
	KeywordIndex(ctx context.Context) map[string][]string
}

// Session is the in-memory explorer state for one archive directory.
// Reads take the read lock; Initialize and Reset take the write lock, so
// queries observe either the old snapshot or the new one, never a mix.
type Session struct {
	cfg config.Config
	pub event.Publisher

	res       *resolver.Resolver
	builder   *discovery.Builder
	cache     cache.Cache
	providers []metadataProvider

	mu        sync.RWMutex
	records   []model.VideoRecord
	byID      map[string]model.VideoRecord
	discovery model.DiscoveryMap
	keywords  map[string][]string
	ready     bool
	stale     bool
}

// NewSession wires the source chain from configuration. The chain order is
// fixed: archive dir layout, archive flat index, fallback index, S3 bucket,
// remote API. Optional steps simply do not appear when unconfigured.
func NewSession(ctx context.Context, cfg config.Config, pub event.Publisher) (*Session, error) {
	if pub == nil {
		pub = event.NewPublisher("")
	}

	dir := source.NewDir(os.DirFS(cfg.ArchiveDir))
	archiveIndex := source.NewIndex(os.DirFS(cfg.ArchiveDir), "archive-index")

	sources := []source.Source{dir, archiveIndex}
	indexes := []*source.Index{archiveIndex}
	providers := []metadataProvider{archiveIndex}

	if cfg.FallbackDir != "" {
		fallbackIndex := source.NewIndex(os.DirFS(cfg.FallbackDir), "fallback-index")
		sources = append(sources, fallbackIndex)
		indexes = append(indexes, fallbackIndex)
		providers = append(providers, fallbackIndex)
	}

	if cfg.S3Configured() {
		s3src, err := source.NewS3(ctx, cfg.S3Endpoint, cfg.S3Region, cfg.S3Bucket, cfg.S3AccessKey, cfg.S3SecretKey)
		if err != nil {
			return nil, fmt.Errorf("s3 source: %w", err)
		}
		sources = append(sources, s3src)
	}

	if cfg.RemoteAPIURL != "" {
		remote := source.NewRemote(cfg.RemoteAPIURL)
		sources = append(sources, remote)
		providers = append(providers, remote)
	}

	c := cache.NewMemory()
	res := resolver.New(c, sources...)
	res.SetNotifier(func(t model.ArtifactType, id, src string) {
		if err := pub.PublishArtifactResolved(ctx, string(t), id, src); err != nil {
			slog.Debug("artifact event publish failed", "error", err)
		}
	})

	s := &Session{
		cfg:       cfg,
		pub:       pub,
		res:       res,
		builder:   discovery.NewBuilder(dir, indexes, cfg.SampleSize, cfg.HitThreshold),
		cache:     c,
		providers: providers,
		byID:      make(map[string]model.VideoRecord),
		keywords:  make(map[string][]string),
	}

	// Installed once, before any request runs. The closure reads the current
	// snapshot under the session lock, so it never needs re-installing after
	// a reset.
	res.SetHinter(func(id string) string {
		s.mu.RLock()
		defer s.mu.RUnlock()
		if rec, ok := s.byID[id]; ok {
			return rec.Title
		}
		return ""
	})

	return s, nil
}

// Resolver exposes the session's resolver for artifact reads.
func (s *Session) Resolver() *resolver.Resolver { return s.res }

// Initialize runs the full startup pass: load metadata entries, build the
// discovery map, and assemble video records. It is also the body of Reset.
// Individual malformed inputs degrade to defaults; an archive yielding
// neither metadata nor discoverable artifacts fails initialization outright.
func (s *Session) Initialize(ctx context.Context) error {
	start := time.Now()

	entries := s.loadMetadata(ctx)
	keywords := s.loadKeywords(ctx)

	dmap := s.builder.Build(ctx, entries)

	// A metadata-less archive is legal as long as discovery found artifacts
	// (records get placeholders). Nothing at all means the archive is
	// unusable and the session must not come up.
	if len(entries) == 0 && len(dmap.IDs()) == 0 {
		return fmt.Errorf("archive %s: no metadata source and no discoverable artifacts", s.cfg.ArchiveDir)
	}

	records := assemble.Assemble(ctx, entries, dmap, keywords, s.res.Sidecar)

	byID := make(map[string]model.VideoRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	s.mu.Lock()
	s.records = records
	s.byID = byID
	s.discovery = dmap
	s.keywords = keywords
	s.ready = true
	s.stale = false
	s.mu.Unlock()

	summary := event.SessionSummary{
		Videos: len(records),
		Artifacts: map[string]int{
			"transcripts": len(dmap.Transcripts),
			"summaries":   len(dmap.Summaries),
			"comments":    len(dmap.Comments),
			"videoFiles":  len(dmap.VideoFiles),
		},
		InitMillis:  time.Since(start).Milliseconds(),
		ArchivePath: s.cfg.ArchiveDir,
	}
	if err := s.pub.PublishSessionInitialized(ctx, summary); err != nil {
		slog.Debug("session event publish failed", "error", err)
	}

	slog.Info("session initialized",
		"videos", len(records),
		"duration_ms", summary.InitMillis,
		"archive_dir", s.cfg.ArchiveDir)
	return nil
}

// Reset clears the artifact cache and re-runs the full initialization pass.
// This is the only cache invalidation the session performs.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.ready = false
	s.mu.Unlock()

	s.cache.Clear()
	return s.Initialize(ctx)
}

// loadMetadata returns the first provider's non-empty entry list, trying
// providers in chain order. A provider error is logged and skipped; an
// archive with no bulk metadata at all is legal (records get placeholders).
func (s *Session) loadMetadata(ctx context.Context) []model.MetadataEntry {
	for _, p := range s.providers {
		entries, err := p.MetadataEntries(ctx)
		if err != nil {
			slog.Warn("metadata load failed, trying next provider", "provider", p.Name(), "error", err)
			continue
		}
		if len(entries) > 0 {
			slog.Info("metadata loaded", "provider", p.Name(), "entries", len(entries))
			return entries
		}
	}
	slog.Warn("no metadata entries found in any provider")
	return nil
}

// loadKeywords merges the keyword indexes of all providers; the earliest
// provider in chain order wins per video id.
func (s *Session) loadKeywords(ctx context.Context) map[string][]string {
	merged := make(map[string][]string)
	for _, p := range s.providers {
		for id, kws := range p.KeywordIndex(ctx) {
			if _, exists := merged[id]; !exists {
				merged[id] = kws
			}
		}
	}
	return merged
}

// Ready reports whether the session has completed an initialization pass.
func (s *Session) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// MarkStale flags the session after an archive directory change. Data keeps
// serving from the existing snapshot until a reset.
func (s *Session) MarkStale() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}

// Stale reports whether the archive changed since the last initialization.
func (s *Session) Stale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stale
}

// Videos runs a filtered, sorted, paginated query over the assembled records.
func (s *Session) Videos(q model.VideoQuery) model.Page[model.VideoRecord] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return query.Videos(s.records, q)
}

// Video returns one assembled record by id.
func (s *Session) Video(id string) (model.VideoRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	return rec, ok
}

// Records returns the full assembled record list (corpus-wide analytics).
func (s *Session) Records() []model.VideoRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records
}

// Transcript lazily resolves a video's transcript through the chain.
func (s *Session) Transcript(ctx context.Context, id string) (string, bool) {
	return s.res.Transcript(ctx, id)
}

// Summary lazily resolves a video's summary through the chain.
func (s *Session) Summary(ctx context.Context, id string) (string, bool) {
	return s.res.Summary(ctx, id)
}

// Comments lazily resolves and queries a video's comments. The flat list is
// resolved once per session (resolver cache) and filtered per request.
func (s *Session) Comments(ctx context.Context, id string, q model.CommentQuery) (model.Page[model.CommentRecord], bool) {
	comments, ok := s.res.Comments(ctx, id)
	if !ok {
		return model.Page[model.CommentRecord]{}, false
	}
	return query.Comments(comments, q), true
}

// CommentThreads returns the reply-grouped comment tree for a video.
func (s *Session) CommentThreads(ctx context.Context, id string) ([]model.CommentThread, bool) {
	comments, ok := s.res.Comments(ctx, id)
	if !ok {
		return nil, false
	}
	return query.Threads(comments), true
}

// FlatComments returns a video's comments in flattened source order, for the
// analytics and export paths.
func (s *Session) FlatComments(ctx context.Context, id string) ([]model.CommentRecord, bool) {
	return s.res.Comments(ctx, id)
}

// Analytics computes the per-video comment analytics bundle.
func (s *Session) Analytics(ctx context.Context, id string) (analytics.Result, bool) {
	comments, ok := s.res.Comments(ctx, id)
	if !ok {
		return analytics.Result{}, false
	}
	return analytics.Compute(comments), true
}

// KeywordReport computes the corpus-wide keyword categorization aggregates.
func (s *Session) KeywordReport() analytics.KeywordReport {
	s.mu.RLock()
	records := s.records
	s.mu.RUnlock()
	return analytics.Keywords(records)
}
