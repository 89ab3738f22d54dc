// internal/source/index.go
// Bulk flat-index lookups. A single JSON file per artifact type maps video
// id to payload; each file is loaded and validated once, cached in full, and
// then indexed by id. The same implementation serves both the archive
// directory's flat indexes and the bundled fallback data directory.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/ArchiveLens/archivelens-explorer-go/internal/model"
	"github.com/xeipuuv/gojsonschema"
)

// indexFiles maps artifact types to their conventional bulk index filename.
var indexFiles = map[model.ArtifactType]string{
	model.ArtifactMetadata:   "metadata.json",
	model.ArtifactTranscript: "transcripts.json",
	model.ArtifactSummary:    "summaries.json",
	model.ArtifactComments:   "comments.json",
	model.ArtifactKeywords:   "keywords.json",
}

// Index schemas. Validation happens once per file at load time; a document
// that fails its schema is treated as malformed input: logged and replaced
// with an empty index rather than propagated.
const (
	metadataSchema = `{
		"type": "array",
		"items": {
			"type": "object",
			"properties": {
				"video_id": {"type": "string"}
			}
		}
	}`
	idMapSchema = `{
		"type": "object"
	}`
	keywordsSchema = `{
		"type": "object",
		"additionalProperties": {
			"type": "array",
			"items": {"type": "string"}
		}
	}`
)

// indexSchemas pairs each artifact type with its compiled-on-demand schema.
var indexSchemas = map[model.ArtifactType]string{
	model.ArtifactMetadata:   metadataSchema,
	model.ArtifactTranscript: idMapSchema,
	model.ArtifactSummary:    idMapSchema,
	model.ArtifactComments:   idMapSchema,
	model.ArtifactKeywords:   keywordsSchema,
}

// Index resolves artifacts from bulk index files in a directory root.
type Index struct {
	fsys fs.FS
	name string

	mu       sync.Mutex
	metadata []model.MetadataEntry
	byType   map[model.ArtifactType]map[string]json.RawMessage
	keywords map[string][]string
	loaded   map[model.ArtifactType]bool
}

// NewIndex creates a bulk-index source over fsys. The name distinguishes
// instances in logs (e.g. "archive-index" vs "fallback-index").
func NewIndex(fsys fs.FS, name string) *Index {
	return &Index{
		fsys:   fsys,
		name:   name,
		byType: make(map[model.ArtifactType]map[string]json.RawMessage),
		loaded: make(map[model.ArtifactType]bool),
	}
}

// Name implements Source.
func (ix *Index) Name() string { return ix.name }

// Lookup implements Source by indexing the loaded file by id.
func (ix *Index) Lookup(ctx context.Context, t model.ArtifactType, id string, _ Hint) (*Payload, error) {
	if err := ix.load(t); err != nil {
		return nil, err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	switch t {
	case model.ArtifactMetadata:
		for i := range ix.metadata {
			if ix.metadata[i].VideoID == id {
				entry := ix.metadata[i]
				return &Payload{Type: t, Metadata: &entry}, nil
			}
		}
		return nil, nil
	case model.ArtifactKeywords:
		kws, ok := ix.keywords[id]
		if !ok {
			return nil, nil
		}
		return &Payload{Type: t, Keywords: kws}, nil
	case model.ArtifactTranscript:
		raw, ok := ix.byType[t][id]
		if !ok {
			return nil, nil
		}
		return &Payload{Type: t, Transcript: NormalizeText(raw)}, nil
	case model.ArtifactSummary:
		raw, ok := ix.byType[t][id]
		if !ok {
			return nil, nil
		}
		return &Payload{Type: t, Summary: NormalizeText(raw)}, nil
	case model.ArtifactComments:
		raw, ok := ix.byType[t][id]
		if !ok {
			return nil, nil
		}
		comments, err := NormalizeComments(id, raw)
		if err != nil {
			return nil, err
		}
		return &Payload{Type: t, Comments: comments}, nil
	default:
		return nil, nil
	}
}

// MetadataEntries returns every entry of the bulk metadata index, or an
// error when the file is absent or malformed. Unlike per-id lookups the
// caller needs to distinguish "no metadata source here" for the
// initialization-failure path.
func (ix *Index) MetadataEntries(ctx context.Context) ([]model.MetadataEntry, error) {
	if err := ix.load(model.ArtifactMetadata); err != nil {
		return nil, err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if !ix.loaded[model.ArtifactMetadata] || ix.metadata == nil {
		return nil, fmt.Errorf("%s: no metadata index", ix.name)
	}
	return ix.metadata, nil
}

// KeywordIndex returns the full id → keywords mapping, empty when the file
// is absent.
func (ix *Index) KeywordIndex(ctx context.Context) map[string][]string {
	if err := ix.load(model.ArtifactKeywords); err != nil {
		return map[string][]string{}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.keywords == nil {
		return map[string][]string{}
	}
	return ix.keywords
}

// Keys returns the video ids present in the bulk index for t. The discovery
// builder's synthetic mode treats key presence, not content validity, as
// the availability signal.
func (ix *Index) Keys(t model.ArtifactType) []string {
	if err := ix.load(t); err != nil {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	var keys []string
	if t == model.ArtifactMetadata {
		for i := range ix.metadata {
			keys = append(keys, ix.metadata[i].VideoID)
		}
		return keys
	}
	if t == model.ArtifactKeywords {
		for id := range ix.keywords {
			keys = append(keys, id)
		}
		return keys
	}
	for id := range ix.byType[t] {
		keys = append(keys, id)
	}
	return keys
}

// load reads, validates, and decodes the index file for t exactly once.
// A missing file loads as an empty index; a malformed file is logged and
// loads as empty too, except that the metadata error is surfaced so the
// session can try the next metadata source.
func (ix *Index) load(t model.ArtifactType) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.loaded[t] {
		return nil
	}
	ix.loaded[t] = true

	name, ok := indexFiles[t]
	if !ok {
		return nil
	}
	data, err := fs.ReadFile(ix.fsys, name)
	if err != nil {
		if t == model.ArtifactMetadata {
			ix.metadata = nil
			return fmt.Errorf("%s: %s: %w", ix.name, name, err)
		}
		return nil
	}

	if err := validateIndex(t, data); err != nil {
		slog.Warn("bulk index failed validation, treating as empty",
			"source", ix.name, "file", name, "error", err)
		if t == model.ArtifactMetadata {
			ix.metadata = nil
			return fmt.Errorf("%s: %s: %w", ix.name, name, err)
		}
		return nil
	}

	switch t {
	case model.ArtifactMetadata:
		var entries []model.MetadataEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			ix.metadata = nil
			return fmt.Errorf("%s: %s: %w", ix.name, name, err)
		}
		ix.metadata = entries
	case model.ArtifactKeywords:
		var kws map[string][]string
		if err := json.Unmarshal(data, &kws); err != nil {
			slog.Warn("keywords index malformed, treating as empty",
				"source", ix.name, "error", err)
			kws = map[string][]string{}
		}
		ix.keywords = kws
	default:
		var m map[string]json.RawMessage
		if err := json.Unmarshal(data, &m); err != nil {
			slog.Warn("bulk index malformed, treating as empty",
				"source", ix.name, "file", name, "error", err)
			m = map[string]json.RawMessage{}
		}
		ix.byType[t] = m
	}
	return nil
}

// validateIndex checks a bulk index document against its schema.
func validateIndex(t model.ArtifactType, data []byte) error {
	schemaSrc, ok := indexSchemas[t]
	if !ok {
		return nil
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaSrc),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return err
	}
	if !result.Valid() {
		return fmt.Errorf("schema violation: %v", result.Errors())
	}
	return nil
}
