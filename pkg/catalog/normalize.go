// CLAUDE:SUMMARY Description normalization (NFD, mark removal, root lowercase, ASCII alnum filter) and stopword-aware tokenization.
package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stopwords are dropped by Tokenize. The set is fixed: the ambiguity
// thresholds in Quote are calibrated against it.
var stopwords = map[string]struct{}{
	"de": {},
	"la": {},
	"el": {},
	"y":  {},
}

// foldChain decomposes, drops combining marks and lowercases without
// locale tailoring. Transformers keep state, so each call gets its own chain.
func foldChain() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.M)), cases.Lower(language.Und))
}

// Normalize folds text into the form used for indexing and matching:
// accents stripped, lowercase, anything outside [a-z0-9] turned into a
// single separating space, trimmed (e.g. "Jamón  Crüdo!" -> "jamon crudo").
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	folded, _, err := transform.String(foldChain(), text)
	if err != nil {
		folded = strings.ToLower(text)
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// Tokenize splits a normalized string into its significant words, in
// first-seen order and without duplicates.
func Tokenize(normalized string) []string {
	if strings.TrimSpace(normalized) == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var tokens []string
	for _, t := range strings.Split(normalized, " ") {
		t = strings.TrimSpace(t)
		if len(t) < 2 {
			continue
		}
		if _, stop := stopwords[t]; stop {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tokens = append(tokens, t)
	}
	return tokens
}
