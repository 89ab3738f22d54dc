// internal/source/dir.go
// Structured archive-directory lookups. The user-selected directory follows
// a conventional layout with one subdirectory per artifact type and a small
// set of naming templates per file.
package source

import (
	"context"
	"encoding/json"
	"io/fs"
	"path"

	"github.com/ArchiveLens/archivelens-explorer-go/internal/model"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/vid"
)

// layout describes where one artifact type lives inside the archive
// directory and which filename suffixes to try, most specific first.
type layout struct {
	subdir   string
	suffixes []string
}

// dirLayouts is the conventional archive layout. Keywords have no per-video
// files; they exist only in the bulk index, so they are absent here.
var dirLayouts = map[model.ArtifactType]layout{
	model.ArtifactTranscript: {
		subdir:   "subtitles",
		suffixes: []string{"_en_auto_ytdlp.txt", ".txt"},
	},
	model.ArtifactSummary: {
		subdir:   "summaries",
		suffixes: []string{"_en_auto_ytdlp_summary.txt", "_summary.txt", ".txt"},
	},
	model.ArtifactComments: {
		subdir:   "comments",
		suffixes: []string{"_en_auto_ytdlp_comments.json", "_comments.json", ".json"},
	},
	model.ArtifactMetadata: {
		subdir:   "info",
		suffixes: []string{"_en_auto_ytdlp.youtube.json", ".info.json", ".json"},
	},
}

// VideoFileLayout is the media file convention, used by the discovery
// builder when probing candidate filenames.
var VideoFileLayout = layout{
	subdir:   "videos",
	suffixes: []string{".mp4", ".webm", ".mkv"},
}

// Dir resolves artifacts from a user-selected archive directory using the
// structured layout. It reads through an fs.FS so tests can substitute
// fstest.MapFS for a real directory.
type Dir struct {
	fsys fs.FS
}

// NewDir creates a structured-directory source over fsys.
func NewDir(fsys fs.FS) *Dir {
	return &Dir{fsys: fsys}
}

// Name implements Source.
func (d *Dir) Name() string { return "dir" }

// Lookup implements Source. It builds the ranked candidate filenames for the
// artifact from the id and the title hint, then accepts the first that
// exists. Missing files are not errors.
func (d *Dir) Lookup(ctx context.Context, t model.ArtifactType, id string, hint Hint) (*Payload, error) {
	lay, ok := dirLayouts[t]
	if !ok {
		return nil, nil
	}
	for _, suffix := range lay.suffixes {
		for _, name := range vid.FileCandidates(hint.Title, id, suffix) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			data, err := fs.ReadFile(d.fsys, path.Join(lay.subdir, name))
			if err != nil {
				continue
			}
			return d.decode(t, id, data)
		}
	}
	return nil, nil
}

// Exists reports whether any candidate file for (t, id) is present, without
// decoding it. Used by the discovery builder's probing pass.
func (d *Dir) Exists(t model.ArtifactType, id, title string) (string, bool) {
	lay, ok := dirLayouts[t]
	if t == model.ArtifactVideoFile {
		lay, ok = VideoFileLayout, true
	}
	if !ok {
		return "", false
	}
	for _, suffix := range lay.suffixes {
		for _, name := range vid.FileCandidates(title, id, suffix) {
			p := path.Join(lay.subdir, name)
			if _, err := fs.Stat(d.fsys, p); err == nil {
				return p, true
			}
		}
	}
	return "", false
}

// Walk lists every file under the conventional subdirectories, calling fn
// with the subdirectory, filename, and full path. Used by the discovery
// builder's authoritative mode. Missing subdirectories are skipped.
func (d *Dir) Walk(fn func(subdir, name, fullPath string)) {
	subdirs := []string{
		dirLayouts[model.ArtifactTranscript].subdir,
		dirLayouts[model.ArtifactSummary].subdir,
		dirLayouts[model.ArtifactComments].subdir,
		VideoFileLayout.subdir,
	}
	for _, sub := range subdirs {
		entries, err := fs.ReadDir(d.fsys, sub)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			fn(sub, e.Name(), path.Join(sub, e.Name()))
		}
	}
}

// decode normalizes the raw file contents per artifact type.
func (d *Dir) decode(t model.ArtifactType, id string, data []byte) (*Payload, error) {
	switch t {
	case model.ArtifactTranscript:
		return &Payload{Type: t, Transcript: NormalizeText(data)}, nil
	case model.ArtifactSummary:
		return &Payload{Type: t, Summary: NormalizeText(data)}, nil
	case model.ArtifactComments:
		comments, err := NormalizeComments(id, data)
		if err != nil {
			return nil, err
		}
		return &Payload{Type: t, Comments: comments}, nil
	case model.ArtifactMetadata:
		entry, err := decodeSidecar(id, data)
		if err != nil {
			return nil, err
		}
		return &Payload{Type: t, Metadata: entry}, nil
	default:
		return nil, nil
	}
}

// decodeSidecar maps a per-video info sidecar onto a metadata entry. Sidecar
// fields are used only where the bulk metadata is silent, which the
// assembler enforces; here the shape is just normalized.
func decodeSidecar(id string, data []byte) (*model.MetadataEntry, error) {
	var info model.VideoInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &model.MetadataEntry{
		VideoID:     id,
		Title:       info.Title,
		Description: info.Description,
		UploadDate:  info.UploadDate,
		ViewCount:   info.ViewCount,
		LikeCount:   info.LikeCount,
		Duration:    info.Duration,
	}, nil
}
