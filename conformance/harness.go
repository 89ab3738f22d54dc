// Package conformance provides a black-box test harness for the explorer
// service. It materializes a small fixture archive on disk, runs a full
// session over it, and serves the HTTP surface through httptest so tests
// exercise the same path a browser UI would.
package conformance

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/ArchiveLens/archivelens-explorer-go/internal/archive"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/config"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/event"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/server"
)

// Fixture video ids used throughout the conformance suite.
const (
	FixtureFullVideo      = "AAAAAAAAAA1" // transcript, comments, video file, synthetic summary
	FixtureTranscriptOnly = "AAAAAAAAAA2" // structured transcript only
	FixtureMetadataOrphan = "AAAAAAAAAA9" // metadata entry with zero discovered artifacts
	FixtureUnknownVideo   = "AAAAAAAAAA7" // never present anywhere
)

// fixtureFiles is the on-disk archive the harness materializes. The layout
// exercises both the structured directory conventions and the bulk flat
// indexes, including the synthetic discovery path (summaries exist only in
// summaries.json).
var fixtureFiles = map[string]string{
	"metadata.json": `[
		{"video_id": "AAAAAAAAAA1", "title": "Go Talk", "description": "a talk about channels", "view_count": "1200", "comment_count": 3, "published_at": "2024-03-01"},
		{"video_id": "AAAAAAAAAA2", "title": "Rust Talk", "view_count": 450, "upload_date": "20240110"},
		{"video_id": "AAAAAAAAAA9", "title": "Lost Video", "view_count": 10}
	]`,
	"summaries.json": `{"AAAAAAAAAA1": "a short summary of the go talk"}`,
	"keywords.json":  `{"AAAAAAAAAA1": ["go tutorial", "conference talk"]}`,

	"subtitles/Go Talk_AAAAAAAAAA1_en_auto_ytdlp.txt":   "welcome to the go talk transcript",
	"subtitles/Rust Talk_AAAAAAAAAA2_en_auto_ytdlp.txt": "welcome to the rust talk transcript",
	"videos/Go Talk_AAAAAAAAAA1.mp4":                    "not really a video",

	"comments/Go Talk_AAAAAAAAAA1_en_auto_ytdlp_comments.json": `[
		{"id": "c1", "author": "ana", "text": "thank you, amazing talk", "like_count": 12, "published_at": "2024-03-02",
		 "replies": [{"id": "c1r1", "author": "bob", "text": "agreed completely"}]},
		{"author": "cho", "text": "why no section on generics", "like_count": 4}
	]`,
}

// Harness runs one explorer session over the fixture archive behind an
// httptest server.
type Harness struct {
	server  *httptest.Server
	session *archive.Session
	dir     string
}

// Config holds configuration for the conformance test harness.
type Config struct {
	// NATSURL connects the session's event publisher when set; the
	// default is the no-op publisher.
	NATSURL string

	// CORSAllowedOrigins passes through to the HTTP mux.
	CORSAllowedOrigins []string
}

// NewHarness materializes the fixture archive, initializes a session over
// it, and starts the HTTP server.
func NewHarness(cfg Config) (*Harness, error) {
	dir, err := os.MkdirTemp("", "lens-conformance-*")
	if err != nil {
		return nil, err
	}

	for name, content := range fixtureFiles {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			os.RemoveAll(dir)
			return nil, err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			os.RemoveAll(dir)
			return nil, err
		}
	}

	svcCfg := config.Config{
		Env:                "test",
		Port:               "0",
		ArchiveDir:         dir,
		SampleSize:         5,
		HitThreshold:       0.4,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}

	ctx := context.Background()
	session, err := archive.NewSession(ctx, svcCfg, event.NewPublisher(cfg.NATSURL))
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("wire session: %w", err)
	}
	if err := session.Initialize(ctx); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("initialize session: %w", err)
	}

	return &Harness{
		server:  httptest.NewServer(server.NewMux(session, svcCfg.CORSAllowedOrigins)),
		session: session,
		dir:     dir,
	}, nil
}

// URL returns the base URL of the running test server.
func (h *Harness) URL() string { return h.server.URL }

// Session exposes the underlying session for white-box assertions.
func (h *Harness) Session() *archive.Session { return h.session }

// ArchiveDir returns the fixture archive path, for tests that mutate it.
func (h *Harness) ArchiveDir() string { return h.dir }

// Close shuts the server down and removes the fixture archive.
func (h *Harness) Close() {
	h.server.Close()
	os.RemoveAll(h.dir)
}
