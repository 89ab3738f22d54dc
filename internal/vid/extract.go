// internal/vid/extract.go
// Package vid derives canonical 11-character video identifiers from archive
// filenames and builds candidate filenames back from titles and identifiers.
package vid

import (
	"regexp"
	"strings"
)

// token is the 11-character identifier grammar used by all patterns.
const token = `([0-9A-Za-z_-]{11})`

// patterns is the ORDERED fallback list applied by Extract. Most specific
// first: the "_<id>_en_auto_ytdlp" convention adjacent to known artifact
// suffixes, then media-file suffixes, then the bracketed yt-dlp form, and
// finally a bare 11-character token as last resort. The bare token can
// false-positive on any 11-character substring; when a filename contains
// several candidate tokens the first pattern to match wins, which is not
// necessarily the "correct" one. Known ambiguity, kept deliberately.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`_` + token + `_en_auto_ytdlp_summary\.`),
	regexp.MustCompile(`_` + token + `_en_auto_ytdlp_comments\.`),
	regexp.MustCompile(`_` + token + `_en_auto_ytdlp\.youtube`),
	regexp.MustCompile(`_` + token + `_en_auto_ytdlp\.`),
	regexp.MustCompile(`_` + token + `\.(?:mp4|webm|mkv|m4a)$`),
	regexp.MustCompile(`\[` + token + `\]`),
	regexp.MustCompile(token),
}

// Extract derives a video identifier from an arbitrary filename, returning
// the first captured group of the first matching pattern, or "" when nothing
// matches. Deterministic and side-effect-free.
func Extract(filename string) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(filename); m != nil {
			return m[1]
		}
	}
	return ""
}

// illegalChars matches characters that cannot appear in archive filenames.
var illegalChars = regexp.MustCompile(`[\\/:*?"<>|]`)

// multiSpace collapses runs of whitespace.
var multiSpace = regexp.MustCompile(`\s+`)

// CleanTitle strips characters illegal in filenames, collapses whitespace,
// and trims. This is the base form used when constructing candidate paths
// from a video title.
func CleanTitle(title string) string {
	s := illegalChars.ReplaceAllString(title, "")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// timestampParen matches simple MM:SS-shaped parenthetical groups.
var timestampParen = regexp.MustCompile(`\((\d{1,2}):(\d{2})\)`)

// otherParen matches any remaining parenthetical group.
var otherParen = regexp.MustCompile(`\([^)]*\)`)

// PathVariant applies the external-naming-convention transform on top of
// CleanTitle: periods removed, "&" spelled out, apostrophes dropped,
// MM:SS parentheticals converted to a digit run, and other parenthetical
// content dropped. Best effort only; the result is not guaranteed to name an
// existing file, which is why callers treat it as one candidate among
// several.
func PathVariant(title string) string {
	// Parenthetical handling runs before CleanTitle so the ":" inside an
	// MM:SS group survives long enough to be recognized.
	s := timestampParen.ReplaceAllString(title, "$1$2")
	s = otherParen.ReplaceAllString(s, "")
	s = CleanTitle(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, "&", "and")
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, "’", "")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// FileCandidates returns ranked candidate filenames for an artifact,
// combining the title transforms with the identifier and the given suffix
// (e.g. "_en_auto_ytdlp_summary.txt" or ".mp4"). The resolver tries each in
// order and accepts the first that exists. Identifier-only forms rank last
// so that the richer, more specific names are preferred.
func FileCandidates(title, id, suffix string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	if clean := CleanTitle(title); clean != "" {
		add(clean + "_" + id + suffix)
	}
	if variant := PathVariant(title); variant != "" {
		add(variant + "_" + id + suffix)
	}
	add(id + suffix)
	return out
}
