// internal/server/mux.go
// Package server implements the HTTP handlers and routing for the explorer
// service. It serves the assembled video list, lazily resolved artifacts,
// comment trees, and analytics as plain JSON to the local browser UI.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ArchiveLens/archivelens-explorer-go/internal/archive"
	errordefs "github.com/ArchiveLens/archivelens-explorer-go/internal/errors"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/export"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/metrics"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/model"
)

// ContextKey is used for context values to avoid collisions
// when storing values in request context
type ContextKey string

const (
	// ContextKeyCorrelationID stores the unique ID for request tracking
	ContextKeyCorrelationID ContextKey = "correlationId"
)

// Mux handles HTTP requests for the explorer service.
type Mux struct {
	mux *http.ServeMux   // HTTP request multiplexer
	s   *archive.Session // The in-memory archive session
	m   *metrics.Metrics // Metrics for monitoring

	// CORS configuration
	corsAllowedOrigins []string // Allowed origins for the local UI (empty means deny all)
}

// NewMux creates a new HTTP mux with all explorer endpoints.
func NewMux(s *archive.Session, corsAllowedOrigins []string) *http.ServeMux {
	m := &Mux{
		mux:                http.NewServeMux(),
		s:                  s,
		m:                  metrics.NewMetrics(),
		corsAllowedOrigins: corsAllowedOrigins,
	}

	// Register health endpoints
	m.mux.HandleFunc("/healthz", m.handleHealthz)
	m.mux.HandleFunc("/readyz", m.handleReadyz)
	m.mux.Handle("/metrics", promhttp.Handler())

	// Register explorer endpoints with appropriate middleware
	m.mux.HandleFunc("/v1/session", m.method("GET", m.withMiddleware(m.handleSession)))
	m.mux.HandleFunc("/v1/session/reset", m.method("POST", m.withMiddleware(m.handleSessionReset)))
	m.mux.HandleFunc("/v1/videos", m.method("GET", m.withMiddleware(m.handleListVideos)))
	m.mux.HandleFunc("/v1/videos/", m.method("GET", m.withMiddleware(m.handleVideoSubtree)))
	m.mux.HandleFunc("/v1/analytics/keywords", m.method("GET", m.withMiddleware(m.handleKeywordReport)))
	m.mux.HandleFunc("/v1/export/comments/", m.method("GET", m.withMiddleware(m.handleExportComments)))

	return m.mux
}

// method ensures the HTTP method matches the expected method. OPTIONS passes
// through for CORS preflight.
func (m *Mux) method(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method && r.Method != http.MethodOptions {
			err := errordefs.New(errordefs.LENS_BAD_REQUEST, "method not allowed", "")
			m.writeErrorDef(w, err)
			return
		}
		h(w, r)
	}
}

// withMiddleware applies common middleware to handlers: CORS headers,
// correlation IDs, request metrics, and request logging.
func (m *Mux) withMiddleware(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Handle CORS preflight requests
		if r.Method == http.MethodOptions {
			if origin := m.allowedOrigin(r); origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Correlation-Id")
				w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours
			}
			w.WriteHeader(http.StatusOK)
			return
		}

		// Set CORS headers for regular requests
		if origin := m.allowedOrigin(r); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}

		// Add correlation ID if not present
		correlationID := r.Header.Get("X-Correlation-Id")
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		r = r.WithContext(context.WithValue(r.Context(), ContextKeyCorrelationID, correlationID))
		w.Header().Set("X-Correlation-Id", correlationID)

		// Call the handler through a recorder so metrics see the status
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)

		status := strconv.Itoa(rec.status)
		m.m.HTTPRequestTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		m.m.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(time.Since(start).Seconds())
		m.logRequest(r, rec.status, time.Since(start), correlationID)
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// allowedOrigin returns the request origin when CORS permits it, else "".
func (m *Mux) allowedOrigin(r *http.Request) string {
	if len(m.corsAllowedOrigins) == 0 {
		return ""
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return ""
	}
	for _, allowed := range m.corsAllowedOrigins {
		if allowed == "*" || allowed == origin {
			return origin
		}
	}
	return ""
}

// writeSuccess writes a successful response
func (m *Mux) writeSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]interface{}{
		"data": data,
	}
	_ = json.NewEncoder(w).Encode(response)
}

// writeErrorDef writes an error response following the explorer error taxonomy
func (m *Mux) writeErrorDef(w http.ResponseWriter, err *errordefs.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	errBody := map[string]interface{}{
		"code":          string(err.Code),
		"message":       err.Message,
		"correlationId": err.CorrelationID,
	}
	if err.Details != nil {
		errBody["details"] = err.Details
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"error": errBody})
}

// logRequest logs request details
func (m *Mux) logRequest(r *http.Request, status int, duration time.Duration, correlationID string) {
	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Duration("duration", duration),
		slog.String("remote_addr", r.RemoteAddr),
	}
	if correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}
	level := slog.LevelInfo
	if status >= 500 {
		level = slog.LevelError
	}
	slog.LogAttrs(r.Context(), level, "request completed", attrs...)
}

// correlationID pulls the middleware-assigned id out of the request context.
func correlationID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyCorrelationID).(string); ok {
		return id
	}
	return ""
}

// requireReady guards data endpoints while the session initializes or resets.
func (m *Mux) requireReady(w http.ResponseWriter, r *http.Request) bool {
	if m.s.Ready() {
		return true
	}
	err := errordefs.New(errordefs.LENS_UNAVAILABLE, "session is initializing", correlationID(r.Context()))
	m.writeErrorDef(w, err)
	return false
}

// handleHealthz handles liveness health check requests
func (m *Mux) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReadyz handles readiness health check requests. The service is ready
// once the session has completed an initialization pass.
func (m *Mux) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if !m.s.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleSession handles GET /v1/session
func (m *Mux) handleSession(w http.ResponseWriter, r *http.Request) {
	m.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"ready":  m.s.Ready(),
		"stale":  m.s.Stale(),
		"videos": len(m.s.Records()),
	})
}

// handleSessionReset handles POST /v1/session/reset with a full rebuild.
func (m *Mux) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("lens-service").Start(r.Context(), "handleSessionReset")
	defer span.End()

	if err := m.s.Reset(ctx); err != nil {
		span.SetStatus(codes.Error, "reset failed")
		errDef := errordefs.New(errordefs.LENS_INIT_FAILURE, "session reset failed", correlationID(ctx))
		m.writeErrorDef(w, errDef)
		return
	}
	m.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"ready":  m.s.Ready(),
		"videos": len(m.s.Records()),
	})
}

// handleListVideos handles GET /v1/videos
func (m *Mux) handleListVideos(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("lens-service").Start(r.Context(), "handleListVideos")
	defer span.End()

	if !m.requireReady(w, r) {
		return
	}

	q, errDef := parseVideoQuery(r, correlationID(ctx))
	if errDef != nil {
		span.SetStatus(codes.Error, errDef.Message)
		m.writeErrorDef(w, errDef)
		return
	}
	span.SetAttributes(
		attribute.String("q", q.Text),
		attribute.Int("page", q.Page),
	)

	m.writeSuccess(w, http.StatusOK, m.s.Videos(q))
}

// handleVideoSubtree dispatches GET /v1/videos/{id} and its artifact
// sub-resources (/transcript, /summary, /comments, /analytics).
func (m *Mux) handleVideoSubtree(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("lens-service").Start(r.Context(), "handleVideoSubtree")
	defer span.End()
	r = r.WithContext(ctx)

	if !m.requireReady(w, r) {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/videos/")
	id, sub, _ := strings.Cut(rest, "/")
	span.SetAttributes(attribute.String("video_id", id), attribute.String("resource", sub))

	if err := model.ValidateID(id); err != nil {
		errDef := errordefs.New(errordefs.LENS_BAD_REQUEST, err.Error(), correlationID(ctx))
		m.writeErrorDef(w, errDef)
		return
	}
	rec, ok := m.s.Video(id)
	if !ok {
		errDef := errordefs.New(errordefs.LENS_NOT_FOUND, "unknown video id", correlationID(ctx))
		m.writeErrorDef(w, errDef)
		return
	}

	switch sub {
	case "":
		m.writeSuccess(w, http.StatusOK, rec)
	case "transcript":
		text, ok := m.s.Transcript(ctx, id)
		m.writeArtifact(w, "transcript", text, ok)
	case "summary":
		text, ok := m.s.Summary(ctx, id)
		m.writeArtifact(w, "summary", text, ok)
	case "comments":
		m.handleComments(w, r, id)
	case "analytics":
		m.handleAnalytics(w, r, id)
	default:
		errDef := errordefs.New(errordefs.LENS_BAD_REQUEST, "unknown video resource", correlationID(ctx))
		m.writeErrorDef(w, errDef)
	}
}

// writeArtifact writes a lazily resolved text artifact. Exhausted resolution
// is an available:false body, not an HTTP error.
func (m *Mux) writeArtifact(w http.ResponseWriter, kind, text string, available bool) {
	m.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"kind":      kind,
		"available": available,
		"text":      text,
	})
}

// handleComments handles GET /v1/videos/{id}/comments. With ?tree=true the
// response is the reply-grouped thread list; otherwise a filtered page of
// the flat list.
func (m *Mux) handleComments(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	if r.URL.Query().Get("tree") == "true" {
		threads, ok := m.s.CommentThreads(ctx, id)
		if !ok {
			m.writeSuccess(w, http.StatusOK, map[string]interface{}{
				"available": false,
				"threads":   []model.CommentThread{},
			})
			return
		}
		m.writeSuccess(w, http.StatusOK, map[string]interface{}{
			"available": true,
			"threads":   threads,
		})
		return
	}

	q, errDef := parseCommentQuery(r, correlationID(ctx))
	if errDef != nil {
		m.writeErrorDef(w, errDef)
		return
	}
	page, ok := m.s.Comments(ctx, id, q)
	if !ok {
		m.writeSuccess(w, http.StatusOK, map[string]interface{}{
			"available": false,
			"page":      model.Page[model.CommentRecord]{Items: []model.CommentRecord{}, Page: 1, TotalPages: 1},
		})
		return
	}
	m.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"available": true,
		"page":      page,
	})
}

// handleAnalytics handles GET /v1/videos/{id}/analytics
func (m *Mux) handleAnalytics(w http.ResponseWriter, r *http.Request, id string) {
	result, ok := m.s.Analytics(r.Context(), id)
	m.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"available": ok,
		"analytics": result,
	})
}

// handleKeywordReport handles GET /v1/analytics/keywords
func (m *Mux) handleKeywordReport(w http.ResponseWriter, r *http.Request) {
	if !m.requireReady(w, r) {
		return
	}
	m.writeSuccess(w, http.StatusOK, m.s.KeywordReport())
}

// handleExportComments handles GET /v1/export/comments/{id}
func (m *Mux) handleExportComments(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("lens-service").Start(r.Context(), "handleExportComments")
	defer span.End()

	if !m.requireReady(w, r) {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/export/comments/")
	if err := model.ValidateID(id); err != nil {
		errDef := errordefs.New(errordefs.LENS_BAD_REQUEST, err.Error(), correlationID(ctx))
		m.writeErrorDef(w, errDef)
		return
	}
	rec, ok := m.s.Video(id)
	if !ok {
		errDef := errordefs.New(errordefs.LENS_NOT_FOUND, "unknown video id", correlationID(ctx))
		m.writeErrorDef(w, errDef)
		return
	}

	comments, ok := m.s.FlatComments(ctx, id)
	if !ok {
		errDef := errordefs.New(errordefs.LENS_RESOLUTION_EXHAUSTED, "no comments available for export", correlationID(ctx))
		m.writeErrorDef(w, errDef)
		return
	}

	bundle, err := export.Build(ctx, id, rec.Title, comments)
	if err != nil {
		// The client navigated away; nothing useful to write.
		span.SetStatus(codes.Error, "export cancelled")
		return
	}
	m.writeSuccess(w, http.StatusOK, bundle)
}

// parseVideoQuery validates and decodes the list-videos query parameters.
func parseVideoQuery(r *http.Request, correlationID string) (model.VideoQuery, *errordefs.Error) {
	q := model.VideoQuery{
		Text:    r.URL.Query().Get("q"),
		Keyword: r.URL.Query().Get("keyword"),
		Sort:    model.SortDate,
		Order:   model.OrderDesc,
		Page:    1,
	}

	if raw := r.URL.Query().Get("from"); raw != "" {
		ts := model.ParseDate(raw)
		if ts == nil {
			return q, errordefs.New(errordefs.LENS_BAD_REQUEST, "unparseable from date", correlationID)
		}
		q.From = ts
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		ts := model.ParseDate(raw)
		if ts == nil {
			return q, errordefs.New(errordefs.LENS_BAD_REQUEST, "unparseable to date", correlationID)
		}
		q.To = ts
	}

	var errDef *errordefs.Error
	if q.MinViews, errDef = parseNonNegative(r, "minViews", correlationID); errDef != nil {
		return q, errDef
	}
	if q.MinComments, errDef = parseNonNegative(r, "minComments", correlationID); errDef != nil {
		return q, errDef
	}

	if raw := r.URL.Query().Get("sort"); raw != "" {
		switch model.SortField(raw) {
		case model.SortDate, model.SortViews, model.SortComments, model.SortTitle:
			q.Sort = model.SortField(raw)
		default:
			return q, errordefs.New(errordefs.LENS_BAD_REQUEST, "unknown sort field", correlationID)
		}
	}
	if errDef := parseOrder(r, &q.Order, correlationID); errDef != nil {
		return q, errDef
	}
	if errDef := parsePage(r, &q.Page, correlationID); errDef != nil {
		return q, errDef
	}
	return q, nil
}

// parseCommentQuery validates and decodes the comment-listing parameters.
func parseCommentQuery(r *http.Request, correlationID string) (model.CommentQuery, *errordefs.Error) {
	q := model.CommentQuery{
		Text:  r.URL.Query().Get("q"),
		Sort:  model.SortDate,
		Order: model.OrderDesc,
		Page:  1,
	}

	if raw := r.URL.Query().Get("sort"); raw != "" {
		switch model.SortField(raw) {
		case model.SortDate, model.SortLikes:
			q.Sort = model.SortField(raw)
		default:
			return q, errordefs.New(errordefs.LENS_BAD_REQUEST, "unknown sort field", correlationID)
		}
	}
	if errDef := parseOrder(r, &q.Order, correlationID); errDef != nil {
		return q, errDef
	}
	if errDef := parsePage(r, &q.Page, correlationID); errDef != nil {
		return q, errDef
	}
	return q, nil
}

func parseNonNegative(r *http.Request, param, correlationID string) (int, *errordefs.Error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errordefs.New(errordefs.LENS_BAD_REQUEST, param+" must be a non-negative integer", correlationID)
	}
	return n, nil
}

func parseOrder(r *http.Request, order *model.SortOrder, correlationID string) *errordefs.Error {
	raw := r.URL.Query().Get("order")
	if raw == "" {
		return nil
	}
	switch model.SortOrder(raw) {
	case model.OrderAsc, model.OrderDesc:
		*order = model.SortOrder(raw)
		return nil
	default:
		return errordefs.New(errordefs.LENS_BAD_REQUEST, "order must be asc or desc", correlationID)
	}
}

func parsePage(r *http.Request, page *int, correlationID string) *errordefs.Error {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return errordefs.New(errordefs.LENS_BAD_REQUEST, "page must be a positive integer", correlationID)
	}
	*page = n
	return nil
}
