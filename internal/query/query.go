// internal/query/query.go
// Package query filters, sorts, and paginates the in-memory video and comment
// sets. All filters AND together; sorts are stable so equal keys keep their
// prior relative order.
package query

import (
	"sort"
	"strings"

	"github.com/ArchiveLens/archivelens-explorer-go/internal/model"
)

// DefaultPageSize applies when a query does not specify one.
const DefaultPageSize = 24

// CommentPageSize is the fixed page size for per-video comment listings.
const CommentPageSize = 50

// Videos applies q to the record set and returns the requested page.
// A page beyond the last yields an empty Items slice with correct totals.
func Videos(records []model.VideoRecord, q model.VideoQuery) model.Page[model.VideoRecord] {
	matched := make([]model.VideoRecord, 0, len(records))
	for _, rec := range records {
		if matchVideo(rec, q) {
			matched = append(matched, rec)
		}
	}
	sortVideos(matched, q.Sort, q.Order)
	return paginate(matched, q.Page, DefaultPageSize)
}

// Comments applies q to a single video's flat comment list.
func Comments(comments []model.CommentRecord, q model.CommentQuery) model.Page[model.CommentRecord] {
	matched := make([]model.CommentRecord, 0, len(comments))
	for _, c := range comments {
		if matchComment(c, q) {
			matched = append(matched, c)
		}
	}
	sortComments(matched, q.Sort, q.Order)
	return paginate(matched, q.Page, CommentPageSize)
}

// Threads folds a flat, source-ordered comment list into top-level threads.
// Replies attach to their parent in source order; replies whose parent id
// matches no top-level comment are dropped.
func Threads(comments []model.CommentRecord) []model.CommentThread {
	threads := make([]model.CommentThread, 0)
	index := make(map[string]int)
	for _, c := range comments {
		if !c.IsReply {
			index[c.ID] = len(threads)
			threads = append(threads, model.CommentThread{Comment: c, Replies: []model.CommentRecord{}})
		}
	}
	for _, c := range comments {
		if !c.IsReply {
			continue
		}
		if i, ok := index[c.ParentID]; ok {
			threads[i].Replies = append(threads[i].Replies, c)
		}
	}
	return threads
}

func matchVideo(rec model.VideoRecord, q model.VideoQuery) bool {
	if q.Text != "" {
		needle := strings.ToLower(q.Text)
		if !strings.Contains(strings.ToLower(rec.Title), needle) &&
			!strings.Contains(strings.ToLower(rec.Description), needle) {
			return false
		}
	}
	if q.From != nil {
		if rec.PublishedAt == nil || rec.PublishedAt.Before(*q.From) {
			return false
		}
	}
	if q.To != nil {
		if rec.PublishedAt == nil || rec.PublishedAt.After(*q.To) {
			return false
		}
	}
	if rec.ViewCount < q.MinViews {
		return false
	}
	if rec.CommentCount < q.MinComments {
		return false
	}
	if q.Keyword != "" {
		needle := strings.ToLower(q.Keyword)
		found := false
		for _, kw := range rec.Keywords {
			if strings.Contains(strings.ToLower(kw), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func matchComment(c model.CommentRecord, q model.CommentQuery) bool {
	if q.Text == "" {
		return true
	}
	needle := strings.ToLower(q.Text)
	return strings.Contains(strings.ToLower(c.Text), needle) ||
		strings.Contains(strings.ToLower(c.Author), needle)
}

// sortVideos orders in place. Records with a nil publishedAt sort after dated
// ones regardless of direction so that undated entries never crowd page one.
func sortVideos(recs []model.VideoRecord, field model.SortField, order model.SortOrder) {
	if field == "" {
		field = model.SortDate
	}
	desc := order != model.OrderAsc
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		switch field {
		case model.SortViews:
			if a.ViewCount != b.ViewCount {
				return less(a.ViewCount, b.ViewCount, desc)
			}
		case model.SortComments:
			if a.CommentCount != b.CommentCount {
				return less(a.CommentCount, b.CommentCount, desc)
			}
		case model.SortTitle:
			at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if at != bt {
				if desc {
					return at > bt
				}
				return at < bt
			}
		default: // date
			switch {
			case a.PublishedAt == nil && b.PublishedAt == nil:
				return false
			case a.PublishedAt == nil:
				return false
			case b.PublishedAt == nil:
				return true
			case !a.PublishedAt.Equal(*b.PublishedAt):
				if desc {
					return a.PublishedAt.After(*b.PublishedAt)
				}
				return a.PublishedAt.Before(*b.PublishedAt)
			}
		}
		return false
	})
}

func sortComments(comments []model.CommentRecord, field model.SortField, order model.SortOrder) {
	if field == "" {
		field = model.SortDate
	}
	desc := order != model.OrderAsc
	sort.SliceStable(comments, func(i, j int) bool {
		a, b := comments[i], comments[j]
		switch field {
		case model.SortLikes:
			if a.LikeCount != b.LikeCount {
				return less(a.LikeCount, b.LikeCount, desc)
			}
		default: // date
			switch {
			case a.PublishedAt == nil && b.PublishedAt == nil:
				return false
			case a.PublishedAt == nil:
				return false
			case b.PublishedAt == nil:
				return true
			case !a.PublishedAt.Equal(*b.PublishedAt):
				if desc {
					return a.PublishedAt.After(*b.PublishedAt)
				}
				return a.PublishedAt.Before(*b.PublishedAt)
			}
		}
		return false
	})
}

func less(a, b int, desc bool) bool {
	if desc {
		return a > b
	}
	return a < b
}

// paginate slices matched into 1-indexed pages. TotalPages is never below 1
// so an empty result still reports page 1 of 1.
func paginate[T any](items []T, page, size int) model.Page[T] {
	if page < 1 {
		page = 1
	}
	total := len(items)
	totalPages := (total + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}
	start := (page - 1) * size
	end := start + size
	if start > total {
		start, end = total, total
	} else if end > total {
		end = total
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return model.Page[T]{
		Items:      out,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1 && page <= totalPages,
	}
}
