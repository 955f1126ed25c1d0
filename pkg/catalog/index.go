package catalog

import "github.com/RoaringBitmap/roaring/v2"

// Entry is one priced catalog row that survived loading.
type Entry struct {
	Description string   `json:"description"`
	Normalized  string   `json:"-"`
	Price       float64  `json:"price"`
	Tokens      []string `json:"-"`
}

func (e *Entry) hasToken(token string) bool {
	for _, t := range e.Tokens {
		if t == token {
			return true
		}
	}
	return false
}

// Index is an immutable catalog snapshot: entries addressed by position and
// an inverted index from token to the positions of the entries holding it.
// It is safe for concurrent use once built.
type Index struct {
	entries []Entry
	tokens  map[string]*roaring.Bitmap
}

func newIndex() *Index {
	return &Index{tokens: make(map[string]*roaring.Bitmap)}
}

// add appends an entry and links each of its tokens to its position.
func (ix *Index) add(e Entry) {
	pos := len(ix.entries)
	ix.entries = append(ix.entries, e)
	for _, t := range e.Tokens {
		bm, ok := ix.tokens[t]
		if !ok {
			bm = roaring.New()
			ix.tokens[t] = bm
		}
		bm.Add(uint32(pos))
	}
}

// PositionsFor returns the positions of the entries containing token,
// in load order.
func (ix *Index) PositionsFor(token string) []int {
	bm, ok := ix.tokens[token]
	if !ok {
		return nil
	}
	positions := make([]int, 0, bm.GetCardinality())
	for _, pos := range bm.ToArray() {
		positions = append(positions, int(pos))
	}
	return positions
}

// Entry returns the entry at position pos.
func (ix *Index) Entry(pos int) Entry {
	return ix.entries[pos]
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// TokenCount returns the number of distinct indexed tokens.
func (ix *Index) TokenCount() int {
	return len(ix.tokens)
}
