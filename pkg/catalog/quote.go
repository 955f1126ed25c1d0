package catalog

import "math"

// quoteCandidates is how many ranked entries are considered per quote line.
const quoteCandidates = 8

// Ambiguity thresholds, in score points.
const (
	minLeadOverRunnerUp = 2 // top1 - top2 below this is a tie
	closeScoreWindow    = 2 // scores within this of top1 count as close
	maxCloseCandidates  = 3 // this many close scores is too crowded to pick
)

// QuoteItem is one free-text line to price.
type QuoteItem struct {
	Name         string `json:"name"`
	QuantityText string `json:"quantityText,omitempty"`
}

// QuoteCandidate is offered back for manual choice when a line is ambiguous.
type QuoteCandidate struct {
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Score       int     `json:"score"`
}

// QuoteLine is the outcome for one QuoteItem.
type QuoteLine struct {
	InputName          string           `json:"inputName"`
	Found              bool             `json:"found"`
	Ambiguous          bool             `json:"ambiguous"`
	MatchedDescription *string          `json:"matchedDescription"`
	Price              *float64         `json:"price"`
	Candidates         []QuoteCandidate `json:"candidates"`
}

// QuoteResult holds every line and the sum of the trusted matches.
type QuoteResult struct {
	Items          []QuoteLine `json:"items"`
	TotalEstimated float64     `json:"totalEstimated"`
}

// Quote matches each item against the catalog. A line is priced only when
// its best candidate clearly beats the rest; otherwise it is returned as
// ambiguous with its candidates and left out of the total.
func (ix *Index) Quote(items []QuoteItem) *QuoteResult {
	res := &QuoteResult{Items: make([]QuoteLine, 0, len(items))}

	for _, item := range items {
		line := QuoteLine{InputName: item.Name, Candidates: []QuoteCandidate{}}

		top := ix.Rank(item.Name, quoteCandidates)
		if len(top) == 0 {
			res.Items = append(res.Items, line)
			continue
		}
		line.Found = true

		if isAmbiguous(top) {
			line.Ambiguous = true
			for _, c := range top {
				line.Candidates = append(line.Candidates, QuoteCandidate{
					Description: c.Entry.Description,
					Price:       c.Entry.Price,
					Score:       c.Score,
				})
			}
			res.Items = append(res.Items, line)
			continue
		}

		best := top[0].Entry
		desc, price := best.Description, best.Price
		line.MatchedDescription = &desc
		line.Price = &price
		res.TotalEstimated += price
		res.Items = append(res.Items, line)
	}
	return res
}

// isAmbiguous reports whether the ranked candidates are too close to pick
// the first one automatically. top must be non-empty and sorted.
func isAmbiguous(top []Candidate) bool {
	top1 := top[0].Score
	top2 := math.MinInt
	if len(top) > 1 {
		top2 = top[1].Score
	}

	near := 0
	for _, c := range top {
		if c.Score >= top1-closeScoreWindow {
			near++
		}
	}
	return (len(top) > 1 && top1-top2 < minLeadOverRunnerUp) || near >= maxCloseCandidates
}
