package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// Scoring weights. Quote's ambiguity thresholds are calibrated against
// these values; changing one changes which quotes are trusted.
const (
	tokenHitScore   = 2
	containsScore   = 5
	startsWithScore = 3
)

// DefaultSearchLimit is used by Search when no positive limit is given.
const DefaultSearchLimit = 10

// Candidate is an entry scored against one query.
type Candidate struct {
	Entry Entry
	Score int
}

// SearchItem is the public projection of a ranked entry.
type SearchItem struct {
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// Rank returns at most limit candidates for rawQuery, best first, with
// pairwise distinct descriptions.
func (ix *Index) Rank(rawQuery string, limit int) []Candidate {
	if limit <= 0 {
		return nil
	}
	query := Normalize(rawQuery)
	if query == "" {
		return nil
	}
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	postings := make([]*roaring.Bitmap, 0, len(queryTokens))
	for _, t := range queryTokens {
		if bm, ok := ix.tokens[t]; ok {
			postings = append(postings, bm)
		}
	}
	var positions *roaring.Bitmap
	if len(postings) > 0 {
		positions = roaring.FastOr(postings...)
	} else {
		// No token hit: fall back to a substring scan over every entry.
		positions = roaring.New()
		for pos := range ix.entries {
			if strings.Contains(ix.entries[pos].Normalized, query) {
				positions.Add(uint32(pos))
			}
		}
	}

	scored := make([]Candidate, 0, positions.GetCardinality())
	it := positions.Iterator()
	for it.HasNext() {
		e := ix.entries[it.Next()]
		if s := score(&e, query, queryTokens); s > 0 {
			scored = append(scored, Candidate{Entry: e, Score: s})
		}
	}

	slices.SortFunc(scored, func(a, b Candidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Entry.Price, b.Entry.Price); c != 0 {
			return c
		}
		return strings.Compare(a.Entry.Description, b.Entry.Description)
	})

	out := make([]Candidate, 0, min(limit, len(scored)))
	seen := make(map[string]struct{}, len(scored))
	for _, c := range scored {
		if _, dup := seen[c.Entry.Description]; dup {
			continue
		}
		seen[c.Entry.Description] = struct{}{}
		out = append(out, c)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// Search ranks entries for query and keeps only description and price.
func (ix *Index) Search(query string, limit int) []SearchItem {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	ranked := ix.Rank(query, limit)
	items := make([]SearchItem, len(ranked))
	for i, c := range ranked {
		items[i] = SearchItem{Description: c.Entry.Description, Price: c.Entry.Price}
	}
	return items
}

func score(e *Entry, query string, queryTokens []string) int {
	s := 0
	for _, t := range queryTokens {
		if e.hasToken(t) {
			s += tokenHitScore
		}
	}
	if strings.Contains(e.Normalized, query) {
		s += containsScore
	}
	if strings.HasPrefix(e.Normalized, query) {
		s += startsWithScore
	}
	return s
}
