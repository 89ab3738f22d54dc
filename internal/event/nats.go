// internal/event/nats.go
// Package event provides NATS JetStream implementation for event publishing.
// It streams session and resolution events to support companion indexing and
// export tooling.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Publisher interface defines the event publishing operations required by the
// explorer service. All methods are best-effort: a lost event never fails the
// operation that produced it.
type Publisher interface {
	// Session events
	PublishSessionInitialized(ctx context.Context, summary SessionSummary) error

	// Resolution events
	PublishArtifactResolved(ctx context.Context, artifact, videoID, source string) error

	// Close closes the publisher connection
	Close() error
}

// SessionSummary is the payload of a session-initialized event.
type SessionSummary struct {
	Videos      int            `json:"videos"`      // Assembled record count
	Artifacts   map[string]int `json:"artifacts"`   // Discovery map size per artifact type
	InitMillis  int64          `json:"initMillis"`  // Wall time of the initialization pass
	ArchivePath string         `json:"archivePath"` // The archive directory served
}

// noop is a no-op implementation of Publisher for when NATS is not configured.
// It implements all Publisher methods but does nothing, allowing the service
// to function without event streaming when NATS is not available.
type noop struct{}

// Close implements Publisher
// It does nothing and always returns nil.
func (n *noop) Close() error { return nil }

// PublishSessionInitialized implements Publisher
// It does nothing and always returns nil.
func (n *noop) PublishSessionInitialized(ctx context.Context, summary SessionSummary) error {
	return nil
}

// PublishArtifactResolved implements Publisher
// It does nothing and always returns nil.
func (n *noop) PublishArtifactResolved(ctx context.Context, artifact, videoID, source string) error {
	return nil
}

// natsPub is the NATS JetStream implementation of Publisher.
// It connects to a NATS server and publishes events to JetStream streams.
type natsPub struct {
	nc *nats.Conn            // NATS connection
	js nats.JetStreamContext // JetStream context for stream operations

	// Deduplication fields
	resolvedDedup map[string]time.Time // (artifact, id) keys to last publish time
	mutex         sync.RWMutex         // Mutex for thread-safe access to the dedup map
}

// NewPublisher creates a new publisher for the given NATS URL. An empty URL
// or a failed connection yields a no-op publisher; event streaming is always
// optional.
func NewPublisher(url string) Publisher {
	if url == "" {
		return &noop{}
	}

	nc, err := nats.Connect(url)
	if err != nil {
		slog.Warn("NATS connect failed, using noop publisher", "error", err)
		return &noop{}
	}

	// Create JetStream context for stream operations
	js, err := nc.JetStream()
	if err != nil {
		slog.Warn("NATS JetStream context creation failed, using noop publisher", "error", err)
		nc.Close()
		return &noop{}
	}

	// Initialize required streams
	if err := initStreams(js); err != nil {
		slog.Warn("NATS stream initialization failed, using noop publisher", "error", err)
		nc.Close()
		return &noop{}
	}

	return &natsPub{
		nc:            nc,
		js:            js,
		resolvedDedup: make(map[string]time.Time),
	}
}

// initStreams initializes the required NATS streams.
// The LENS_SESSIONS stream carries session lifecycle events and the
// LENS_ARTIFACTS stream carries per-artifact resolution events.
func initStreams(js nats.JetStreamContext) error {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:      "LENS_SESSIONS",
		Subjects:  []string{"lens.sessions.*"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Discard:   nats.DiscardOld,
		Storage:   nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to create LENS_SESSIONS stream: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:      "LENS_ARTIFACTS",
		Subjects:  []string{"lens.artifacts.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Discard:   nats.DiscardOld,
		Storage:   nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to create LENS_ARTIFACTS stream: %w", err)
	}

	return nil
}

// EventEnvelope represents the standard event envelope structure.
// All events published to NATS are wrapped in this envelope for consistency.
type EventEnvelope struct {
	Type          string      `json:"type"`          // Event type identifier
	Version       string      `json:"version"`       // Event schema version
	OccurredAt    time.Time   `json:"occurredAt"`    // When the event occurred
	CorrelationID string      `json:"correlationId"` // Correlation ID for tracing
	Payload       interface{} `json:"payload"`       // Event-specific data
}

// Close closes the NATS connection.
func (p *natsPub) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}

// shouldDedup checks if an event should be deduplicated based on the 2-minute
// window. Repeated resolutions of the same artifact (cache misses after a
// reset, retries) would otherwise flood the stream.
func (p *natsPub) shouldDedup(key string) bool {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if lastTime, exists := p.resolvedDedup[key]; exists {
		return time.Since(lastTime) < 2*time.Minute
	}

	return false
}

// updateDedup updates the deduplication map with the current time for a given key.
// This should be called after successfully publishing an event.
func (p *natsPub) updateDedup(key string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	// Clean up old entries to prevent memory leaks
	cutoff := time.Now().Add(-5 * time.Minute)
	for k, t := range p.resolvedDedup {
		if t.Before(cutoff) {
			delete(p.resolvedDedup, k)
		}
	}

	p.resolvedDedup[key] = time.Now()
}

// PublishSessionInitialized publishes a session lifecycle event after a
// successful initialization or full reset.
func (p *natsPub) PublishSessionInitialized(ctx context.Context, summary SessionSummary) error {
	envelope := EventEnvelope{
		Type:          "lens.sessions.initialized",
		Version:       "1.0.0",
		OccurredAt:    time.Now().UTC(),
		CorrelationID: uuid.New().String(),
		Payload:       summary,
	}

	b, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	_, err = p.js.Publish("lens.sessions.initialized", b)
	return err
}

// PublishArtifactResolved publishes a per-artifact resolution event naming
// the source step that served it.
func (p *natsPub) PublishArtifactResolved(ctx context.Context, artifact, videoID, source string) error {
	key := artifact + "/" + videoID
	if p.shouldDedup(key) {
		return nil
	}

	subject := fmt.Sprintf("lens.artifacts.%s.resolved", artifact)
	envelope := EventEnvelope{
		Type:          subject,
		Version:       "1.0.0",
		OccurredAt:    time.Now().UTC(),
		CorrelationID: uuid.New().String(),
		Payload: map[string]string{
			"artifact": artifact,
			"videoId":  videoID,
			"source":   source,
		},
	}

	b, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(subject, b)
	if err != nil {
		return err
	}

	p.updateDedup(key)

	return nil
}
