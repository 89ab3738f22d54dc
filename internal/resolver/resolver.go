// internal/resolver/resolver.go
// Package resolver orchestrates the ordered fallback chain over artifact
// sources. For each artifact request it consults the injected cache, then
// tries each source in order and stops at the first hit. Failures degrade to
// a miss; nothing in this package ever surfaces an error to callers.
package resolver

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ArchiveLens/archivelens-explorer-go/internal/cache"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/metrics"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/model"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/source"
)

// Hinter supplies a video title for candidate filename construction.
// It may return "" when no title is known yet (e.g. during initialization
// before assembly has run).
type Hinter func(videoID string) string

// Notifier observes successful chain resolutions (not cache hits) with the
// name of the source that served them.
type Notifier func(artifact model.ArtifactType, videoID, sourceName string)

// Resolver walks the configured source chain with per-(type, id) caching.
// Concurrent resolutions for the same key may both run the chain; the
// lookups are idempotent reads, so the duplicate work is accepted rather
// than de-duplicated in flight.
type Resolver struct {
	sources  []source.Source
	cache    cache.Cache
	hinter   Hinter
	notifier Notifier
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// New creates a resolver over the given cache and ordered sources.
func New(c cache.Cache, sources ...source.Source) *Resolver {
	return &Resolver{
		sources:  sources,
		cache:    c,
		hinter:   func(string) string { return "" },
		notifier: func(model.ArtifactType, string, string) {},
		metrics:  metrics.NewMetrics(),
		tracer:   otel.Tracer("resolver"),
	}
}

// SetHinter installs the title hinter. Must be called during wiring, before
// the resolver serves concurrent requests; the field is read unsynchronized.
func (r *Resolver) SetHinter(h Hinter) {
	if h != nil {
		r.hinter = h
	}
}

// SetNotifier installs the resolution observer used for event publishing.
// Same wiring-time constraint as SetHinter.
func (r *Resolver) SetNotifier(n Notifier) {
	if n != nil {
		r.notifier = n
	}
}

// Transcript resolves the transcript text for a video. ok is false when
// every source missed (ResolutionExhausted).
func (r *Resolver) Transcript(ctx context.Context, id string) (string, bool) {
	p, ok := r.resolve(ctx, model.ArtifactTranscript, id)
	if !ok {
		return "", false
	}
	return p.Transcript, true
}

// Summary resolves the summary text for a video.
func (r *Resolver) Summary(ctx context.Context, id string) (string, bool) {
	p, ok := r.resolve(ctx, model.ArtifactSummary, id)
	if !ok {
		return "", false
	}
	return p.Summary, true
}

// Comments resolves the normalized comment list for a video.
func (r *Resolver) Comments(ctx context.Context, id string) ([]model.CommentRecord, bool) {
	p, ok := r.resolve(ctx, model.ArtifactComments, id)
	if !ok {
		return nil, false
	}
	return p.Comments, true
}

// Sidecar resolves the optional per-video info payload used as a secondary
// metadata source during assembly.
func (r *Resolver) Sidecar(ctx context.Context, id string) (*model.MetadataEntry, bool) {
	p, ok := r.resolve(ctx, model.ArtifactMetadata, id)
	if !ok {
		return nil, false
	}
	return p.Metadata, true
}

// Keywords resolves the keyword list for a video.
func (r *Resolver) Keywords(ctx context.Context, id string) ([]string, bool) {
	p, ok := r.resolve(ctx, model.ArtifactKeywords, id)
	if !ok {
		return nil, false
	}
	return p.Keywords, true
}

// resolve runs the chain for one (type, id) key. A successful payload is
// cached; a miss is NOT cached, so a source that appears later in the
// session (a freshly granted directory, a bucket coming back) gets retried.
func (r *Resolver) resolve(ctx context.Context, t model.ArtifactType, id string) (*source.Payload, bool) {
	ctx, span := r.tracer.Start(ctx, "resolve",
		trace.WithAttributes(
			attribute.String("artifact", string(t)),
			attribute.String("video_id", id),
		))
	defer span.End()

	if v, ok := r.cache.Get(t, id); ok {
		r.metrics.CacheHitTotal.WithLabelValues(string(t)).Inc()
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return v.(*source.Payload), true
	}
	r.metrics.CacheMissTotal.WithLabelValues(string(t)).Inc()

	start := time.Now()
	hint := source.Hint{Title: r.hinter(id)}
	for _, src := range r.sources {
		p, err := src.Lookup(ctx, t, id, hint)
		switch {
		case err != nil:
			r.metrics.ResolveAttemptTotal.WithLabelValues(string(t), src.Name(), "error").Inc()
			slog.Debug("source lookup failed, falling through",
				"artifact", t, "video_id", id, "source", src.Name(), "error", err)
		case p != nil:
			r.metrics.ResolveAttemptTotal.WithLabelValues(string(t), src.Name(), "hit").Inc()
			r.metrics.ResolveDuration.WithLabelValues(string(t), "hit").Observe(time.Since(start).Seconds())
			span.SetAttributes(attribute.String("resolved_by", src.Name()))
			r.cache.Set(t, id, p)
			r.notifier(t, id, src.Name())
			return p, true
		default:
			r.metrics.ResolveAttemptTotal.WithLabelValues(string(t), src.Name(), "miss").Inc()
		}
	}

	r.metrics.ResolveDuration.WithLabelValues(string(t), "exhausted").Observe(time.Since(start).Seconds())
	slog.Debug("resolution exhausted", "artifact", t, "video_id", id)
	return nil, false
}
