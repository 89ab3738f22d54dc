// internal/analytics/analytics.go
// Package analytics computes comment-corpus statistics: word frequency,
// liked-word averages, rule-based sentiment, theme counts, and keyword
// categorization. Every function is pure over a flattened comment list
// (each top-level comment immediately followed by its replies).
package analytics

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ArchiveLens/archivelens-explorer-go/internal/metrics"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/model"
)

const (
	wordFrequencyLimit = 20
	likedWordLimit     = 15
	themeLimit         = 8
)

// stopWords filters connective tokens out of the frequency histogram.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "her": {}, "was": {}, "one": {},
	"our": {}, "out": {}, "his": {}, "has": {}, "had": {}, "how": {},
	"this": {}, "that": {}, "with": {}, "from": {}, "they": {}, "have": {},
	"what": {}, "when": {}, "your": {}, "will": {}, "would": {}, "there": {},
	"their": {}, "about": {}, "which": {}, "them": {}, "then": {}, "than": {},
	"been": {}, "were": {}, "just": {}, "like": {}, "very": {}, "really": {},
	"much": {}, "more": {}, "some": {}, "also": {}, "into": {}, "because": {},
}

var punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s']+`)

// WordCount is one entry of the frequency histogram.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// LikedWord is one entry of the liked-word ranking.
type LikedWord struct {
	Word     string `json:"word"`
	AvgLikes int    `json:"avgLikes"`
	Comments int    `json:"comments"`
}

// SentimentResult maps each category to the percentage of comments matching
// it. Categories are independent (multi-label): one comment may count toward
// several, so the percentages need not sum to 100.
type SentimentResult struct {
	Total      int            `json:"totalComments"`
	Categories map[string]int `json:"categories"`
}

// ThemeCount is one named theme with its comment count.
type ThemeCount struct {
	Theme string `json:"theme"`
	Count int    `json:"count"`
}

// Result bundles the per-video analytics computed over one comment corpus.
type Result struct {
	WordFrequency []WordCount     `json:"wordFrequency"`
	LikedWords    []LikedWord     `json:"likedWords"`
	Sentiment     SentimentResult `json:"sentiment"`
	Themes        []ThemeCount    `json:"themes"`
}

// Compute runs all per-video analytics over a flattened comment list.
func Compute(comments []model.CommentRecord) Result {
	return Result{
		WordFrequency: WordFrequency(comments),
		LikedWords:    LikedWords(comments),
		Sentiment:     Sentiment(comments),
		Themes:        Themes(comments),
	}
}

// tokenize lowercases, strips punctuation, and splits on whitespace.
func tokenize(text string) []string {
	cleaned := punctuation.ReplaceAllString(strings.ToLower(text), " ")
	return strings.Fields(cleaned)
}

// WordFrequency returns the top 20 tokens by descending count. Tokens of
// length <= 2 and stop words are discarded. Ties keep first-encountered
// order, which the stable sort preserves.
func WordFrequency(comments []model.CommentRecord) []WordCount {
	defer observe("word_frequency", time.Now())

	counts := make(map[string]int)
	var order []string
	for _, c := range comments {
		for _, tok := range tokenize(c.Text) {
			if len(tok) <= 2 {
				continue
			}
			if _, stop := stopWords[tok]; stop {
				continue
			}
			if _, seen := counts[tok]; !seen {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}

	result := make([]WordCount, 0, len(order))
	for _, w := range order {
		result = append(result, WordCount{Word: w, Count: counts[w]})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})
	if len(result) > wordFrequencyLimit {
		result = result[:wordFrequencyLimit]
	}
	return result
}

// LikedWords ranks words by the average likes of the comments they appear
// in, restricted to the top 20% of comments by like count (at least one).
// A word qualifies when longer than 3 characters and present in at least 2
// of those comments; average likes round to the nearest integer.
func LikedWords(comments []model.CommentRecord) []LikedWord {
	defer observe("liked_words", time.Now())

	if len(comments) == 0 {
		return []LikedWord{}
	}
	ranked := make([]model.CommentRecord, len(comments))
	copy(ranked, comments)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].LikeCount > ranked[j].LikeCount
	})
	n := len(ranked) / 5
	if n < 1 {
		n = 1
	}
	top := ranked[:n]

	likes := make(map[string]int)
	occurrences := make(map[string]int)
	var order []string
	for _, c := range top {
		// Count each word once per comment so occurrences means
		// "comments containing the word".
		seen := make(map[string]struct{})
		for _, tok := range tokenize(c.Text) {
			if len(tok) <= 3 {
				continue
			}
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			if _, known := likes[tok]; !known {
				order = append(order, tok)
			}
			likes[tok] += c.LikeCount
			occurrences[tok]++
		}
	}

	result := make([]LikedWord, 0)
	for _, w := range order {
		if occurrences[w] < 2 {
			continue
		}
		avg := int(math.Round(float64(likes[w]) / float64(occurrences[w])))
		result = append(result, LikedWord{Word: w, AvgLikes: avg, Comments: occurrences[w]})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].AvgLikes > result[j].AvgLikes
	})
	if len(result) > likedWordLimit {
		result = result[:likedWordLimit]
	}
	return result
}

// sentimentCategories holds the fixed rule sets. Matching is multi-label:
// each category is tested independently against every comment.
var sentimentCategories = []struct {
	name  string
	words []string
}{
	{"positive", []string{"love", "great", "amazing", "awesome", "excellent", "beautiful", "wonderful", "best", "perfect", "incredible"}},
	{"grateful", []string{"thank", "thanks", "grateful", "gratitude", "appreciate", "blessed", "blessing"}},
	{"negative", []string{"hate", "terrible", "awful", "worst", "bad", "boring", "waste", "disappointed", "annoying"}},
	{"questioning", []string{"why", "how", "what", "when", "where", "anyone", "question", "wondering", "confused"}},
}

// Sentiment computes the percentage of comments matching each category's
// word list. Percentage = round(matches / total * 100).
func Sentiment(comments []model.CommentRecord) SentimentResult {
	defer observe("sentiment", time.Now())

	result := SentimentResult{
		Total:      len(comments),
		Categories: make(map[string]int, len(sentimentCategories)),
	}
	if len(comments) == 0 {
		for _, cat := range sentimentCategories {
			result.Categories[cat.name] = 0
		}
		return result
	}

	matches := make(map[string]int, len(sentimentCategories))
	for _, c := range comments {
		tokens := tokenize(c.Text)
		set := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			set[tok] = struct{}{}
		}
		for _, cat := range sentimentCategories {
			for _, w := range cat.words {
				if _, ok := set[w]; ok {
					matches[cat.name]++
					break
				}
			}
		}
	}
	for _, cat := range sentimentCategories {
		pct := math.Round(float64(matches[cat.name]) / float64(len(comments)) * 100)
		result.Categories[cat.name] = int(pct)
	}
	return result
}

// themes is the fixed theme catalogue. Each comment increments a theme at
// most once regardless of how many of its keywords match.
var themes = []struct {
	name  string
	words []string
}{
	{"Gratitude", []string{"thank", "thanks", "grateful", "gratitude", "appreciate"}},
	{"Learning", []string{"learn", "learned", "learning", "teach", "lesson", "understand", "explained"}},
	{"Nostalgia", []string{"remember", "memories", "miss", "back", "childhood", "nostalgia", "nostalgic"}},
	{"Inspiration", []string{"inspire", "inspired", "inspiring", "motivation", "motivated", "changed"}},
	{"Humor", []string{"funny", "laugh", "laughed", "lol", "hilarious", "joke"}},
	{"Music", []string{"music", "song", "sound", "audio", "soundtrack", "melody"}},
	{"Quality", []string{"quality", "editing", "production", "camera", "footage", "video"}},
	{"Community", []string{"everyone", "community", "family", "together", "people", "world"}},
	{"Requests", []string{"please", "next", "more", "part", "series", "upload"}},
	{"Support", []string{"support", "subscribed", "subscribe", "shared", "share", "liked"}},
}

// Themes counts how many comments touch each theme, drops zero-count themes,
// sorts descending, and caps the list at 8.
func Themes(comments []model.CommentRecord) []ThemeCount {
	defer observe("themes", time.Now())

	counts := make(map[string]int, len(themes))
	for _, c := range comments {
		set := make(map[string]struct{})
		for _, tok := range tokenize(c.Text) {
			set[tok] = struct{}{}
		}
		for _, th := range themes {
			for _, w := range th.words {
				if _, ok := set[w]; ok {
					counts[th.name]++
					break
				}
			}
		}
	}

	result := make([]ThemeCount, 0, len(themes))
	for _, th := range themes {
		if counts[th.name] > 0 {
			result = append(result, ThemeCount{Theme: th.name, Count: counts[th.name]})
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})
	if len(result) > themeLimit {
		result = result[:themeLimit]
	}
	return result
}

// NoCategory is the bucket for keywords no category test matches. Such
// keywords stay out of category aggregates but still count toward frequency
// and performance aggregates.
const NoCategory = "no category"

// keywordBuckets are the ordered substring tests for keyword categorization.
// The first matching bucket wins.
var keywordBuckets = []struct {
	name string
	subs []string
}{
	{"tutorial", []string{"tutorial", "how to", "howto", "guide", "lesson"}},
	{"review", []string{"review", "unboxing", "comparison", "versus"}},
	{"music", []string{"music", "song", "cover", "remix", "album"}},
	{"gaming", []string{"game", "gaming", "playthrough", "speedrun"}},
	{"tech", []string{"tech", "software", "programming", "coding", "computer"}},
	{"vlog", []string{"vlog", "daily", "travel", "day in"}},
	{"interview", []string{"interview", "podcast", "talk", "conversation"}},
	{"news", []string{"news", "update", "announcement", "reaction"}},
}

// Categorize maps a single keyword to at most one bucket.
func Categorize(keyword string) string {
	k := strings.ToLower(keyword)
	for _, b := range keywordBuckets {
		for _, sub := range b.subs {
			if strings.Contains(k, sub) {
				return b.name
			}
		}
	}
	return NoCategory
}

// KeywordStats aggregates keyword usage across the assembled corpus: per
// category and per keyword, with total views of the videos carrying it.
type KeywordStats struct {
	Keyword    string `json:"keyword"`
	Category   string `json:"category"`
	Videos     int    `json:"videos"`
	TotalViews int    `json:"totalViews"`
}

// CategoryCount is one category aggregate.
type CategoryCount struct {
	Category string `json:"category"`
	Keywords int    `json:"keywords"`
	Videos   int    `json:"videos"`
}

// KeywordReport is the corpus-wide keyword analytics payload.
type KeywordReport struct {
	Keywords   []KeywordStats  `json:"keywords"`
	Categories []CategoryCount `json:"categories"`
}

// Keywords builds the corpus-wide keyword report over the assembled records.
// Uncategorized keywords appear in the per-keyword list but never in the
// category aggregates.
func Keywords(records []model.VideoRecord) KeywordReport {
	defer observe("keywords", time.Now())

	videos := make(map[string]int)
	views := make(map[string]int)
	var order []string
	for _, rec := range records {
		for _, kw := range rec.Keywords {
			k := strings.ToLower(strings.TrimSpace(kw))
			if k == "" {
				continue
			}
			if _, seen := videos[k]; !seen {
				order = append(order, k)
			}
			videos[k]++
			views[k] += rec.ViewCount
		}
	}

	report := KeywordReport{Keywords: make([]KeywordStats, 0, len(order))}
	catKeywords := make(map[string]int)
	catVideos := make(map[string]int)
	for _, k := range order {
		cat := Categorize(k)
		report.Keywords = append(report.Keywords, KeywordStats{
			Keyword:    k,
			Category:   cat,
			Videos:     videos[k],
			TotalViews: views[k],
		})
		if cat != NoCategory {
			catKeywords[cat]++
			catVideos[cat] += videos[k]
		}
	}
	sort.SliceStable(report.Keywords, func(i, j int) bool {
		return report.Keywords[i].Videos > report.Keywords[j].Videos
	})

	report.Categories = make([]CategoryCount, 0, len(keywordBuckets))
	for _, b := range keywordBuckets {
		if catKeywords[b.name] > 0 {
			report.Categories = append(report.Categories, CategoryCount{
				Category: b.name,
				Keywords: catKeywords[b.name],
				Videos:   catVideos[b.name],
			})
		}
	}
	sort.SliceStable(report.Categories, func(i, j int) bool {
		return report.Categories[i].Videos > report.Categories[j].Videos
	})
	return report
}

func observe(computation string, start time.Time) {
	metrics.NewMetrics().AnalyticsDuration.WithLabelValues(computation).Observe(time.Since(start).Seconds())
}
