package analytics

import (
	"testing"

	"github.com/ArchiveLens/archivelens-explorer-go/internal/model"
)

func comment(text string, likes int) model.CommentRecord {
	return model.CommentRecord{Text: text, LikeCount: likes}
}

func TestWordFrequencyRanking(t *testing.T) {
	comments := []model.CommentRecord{
		comment("great great video", 0),
		comment("great day", 0),
	}
	freq := WordFrequency(comments)
	if len(freq) == 0 || freq[0].Word != "great" || freq[0].Count != 3 {
		t.Fatalf("want great=3 ranked first, got %+v", freq)
	}
}

func TestWordFrequencyFilters(t *testing.T) {
	comments := []model.CommentRecord{
		comment("Go is ok, the THE and and!", 0),
	}
	freq := WordFrequency(comments)
	for _, wc := range freq {
		if len(wc.Word) <= 2 {
			t.Errorf("short token %q must be discarded", wc.Word)
		}
		if _, stop := stopWords[wc.Word]; stop {
			t.Errorf("stop word %q must be discarded", wc.Word)
		}
	}
}

func TestWordFrequencyTieOrder(t *testing.T) {
	comments := []model.CommentRecord{
		comment("zebra apple zebra apple", 0),
	}
	freq := WordFrequency(comments)
	if freq[0].Word != "zebra" || freq[1].Word != "apple" {
		t.Fatalf("ties must keep first-encountered order, got %+v", freq)
	}
}

func TestWordFrequencyCap(t *testing.T) {
	var comments []model.CommentRecord
	words := ""
	for _, w := range []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot",
		"golf", "hotel", "india", "juliet", "kilo", "lima", "mike", "november",
		"oscar", "papa", "quebec", "romeo", "sierra", "tango", "uniform", "victor"} {
		words += w + " "
	}
	comments = append(comments, comment(words, 0))
	if got := len(WordFrequency(comments)); got != wordFrequencyLimit {
		t.Errorf("frequency list must cap at %d, got %d", wordFrequencyLimit, got)
	}
}

func TestLikedWords(t *testing.T) {
	// Ten comments: the top 20% by likes is the two most-liked ones.
	comments := []model.CommentRecord{
		comment("incredible editing incredible pacing", 100),
		comment("the editing here shines", 80),
	}
	for i := 0; i < 8; i++ {
		comments = append(comments, comment("filler words below the cut editing", 1))
	}

	liked := LikedWords(comments)
	if len(liked) != 1 {
		t.Fatalf("only words in >=2 top comments qualify, got %+v", liked)
	}
	lw := liked[0]
	if lw.Word != "editing" {
		t.Fatalf("want editing, got %q", lw.Word)
	}
	if lw.AvgLikes != 90 {
		t.Errorf("avg likes should be (100+80)/2=90, got %d", lw.AvgLikes)
	}
	if lw.Comments != 2 {
		t.Errorf("occurrence count should be comments containing the word, got %d", lw.Comments)
	}
}

func TestLikedWordsMinimumOneComment(t *testing.T) {
	comments := []model.CommentRecord{
		comment("wonderful wonderful craft craft", 10),
	}
	liked := LikedWords(comments)
	// Single comment: no word appears in two comments, so nothing qualifies.
	if len(liked) != 0 {
		t.Errorf("want empty result, got %+v", liked)
	}
}

func TestLikedWordsEmpty(t *testing.T) {
	if got := LikedWords(nil); len(got) != 0 {
		t.Errorf("empty corpus must yield empty result, got %+v", got)
	}
}

func TestSentimentMultiLabel(t *testing.T) {
	comments := []model.CommentRecord{
		comment("thank you, this is amazing", 0), // grateful + positive
		comment("why is this so boring", 0),      // questioning + negative
	}
	s := Sentiment(comments)
	if s.Total != 2 {
		t.Fatalf("total wrong: %d", s.Total)
	}
	for _, cat := range []string{"positive", "grateful", "negative", "questioning"} {
		if s.Categories[cat] != 50 {
			t.Errorf("category %s: want 50%%, got %d%%", cat, s.Categories[cat])
		}
	}
}

func TestSentimentSingleIncrementPerCategory(t *testing.T) {
	comments := []model.CommentRecord{
		comment("amazing wonderful incredible best", 0),
	}
	s := Sentiment(comments)
	if s.Categories["positive"] != 100 {
		t.Errorf("multiple matching words still count the comment once, got %d%%", s.Categories["positive"])
	}
}

func TestSentimentEmptyCorpus(t *testing.T) {
	s := Sentiment(nil)
	if s.Total != 0 {
		t.Fatalf("total wrong: %d", s.Total)
	}
	for cat, pct := range s.Categories {
		if pct != 0 {
			t.Errorf("category %s must be 0%% on empty corpus, got %d%%", cat, pct)
		}
	}
}

func TestThemesSingleIncrement(t *testing.T) {
	comments := []model.CommentRecord{
		comment("thank you, so grateful, much appreciate", 0),
	}
	ts := Themes(comments)
	if len(ts) != 1 || ts[0].Theme != "Gratitude" || ts[0].Count != 1 {
		t.Fatalf("three keywords from one theme must count once: %+v", ts)
	}
}

func TestThemesSortedAndCapped(t *testing.T) {
	comments := []model.CommentRecord{
		comment("thank you", 0),
		comment("thanks a lot", 0),
		comment("this was funny", 0),
	}
	ts := Themes(comments)
	if ts[0].Theme != "Gratitude" || ts[0].Count != 2 {
		t.Fatalf("themes must sort by descending count: %+v", ts)
	}
	if len(ts) > themeLimit {
		t.Errorf("theme list must cap at %d", themeLimit)
	}
	for _, th := range ts {
		if th.Count == 0 {
			t.Errorf("zero-count theme %s must be dropped", th.Theme)
		}
	}
}

func TestCategorizeFirstBucketWins(t *testing.T) {
	cases := map[string]string{
		"go tutorial":        "tutorial",
		"honest review":      "review",
		"cooking":            NoCategory,
		"GAMING highlights":  "gaming",
		"tech news roundup":  "tech",
		"daily vlog":         "vlog",
		"podcast episode 4":  "interview",
		"channel update":     "news",
		"guide to sourdough": "tutorial",
		// matches both review and music; the review bucket is tested first
		"music review": "review",
	}
	for kw, want := range cases {
		if got := Categorize(kw); got != want {
			t.Errorf("Categorize(%q) = %q, want %q", kw, got, want)
		}
	}
}

func TestKeywordsReport(t *testing.T) {
	records := []model.VideoRecord{
		{ID: "AAAAAAAAAA1", ViewCount: 100, Keywords: []string{"go tutorial", "cooking"}},
		{ID: "AAAAAAAAAA2", ViewCount: 50, Keywords: []string{"go tutorial"}},
	}
	report := Keywords(records)

	if len(report.Keywords) != 2 {
		t.Fatalf("want 2 keyword rows, got %+v", report.Keywords)
	}
	top := report.Keywords[0]
	if top.Keyword != "go tutorial" || top.Videos != 2 || top.TotalViews != 150 {
		t.Errorf("per-keyword aggregate wrong: %+v", top)
	}

	if len(report.Categories) != 1 || report.Categories[0].Category != "tutorial" {
		t.Fatalf("uncategorized keywords must stay out of category aggregates: %+v", report.Categories)
	}
	for _, row := range report.Keywords {
		if row.Keyword == "cooking" && row.Category != NoCategory {
			t.Errorf("cooking should be uncategorized, got %q", row.Category)
		}
	}
}

func TestComputeBundle(t *testing.T) {
	res := Compute([]model.CommentRecord{comment("thank you, amazing video", 3)})
	if len(res.WordFrequency) == 0 || res.Sentiment.Total != 1 {
		t.Errorf("Compute must populate all sections: %+v", res)
	}
	if res.LikedWords == nil || res.Themes == nil {
		t.Error("Compute must return non-nil slices")
	}
}
