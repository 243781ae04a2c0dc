package models

// SearchCandidate is one catalog track returned by a search
type SearchCandidate struct {
	URI        string `json:"uri"`
	Title      string `json:"title"`
	Artists    string `json:"artists"` // display names joined with ", "
	Popularity int    `json:"popularity"`
}

// MatchResult is the outcome of matching one chart entry.
// An empty URI means no catalog track was found.
type MatchResult struct {
	Entry ChartEntry `json:"entry"`
	URI   string     `json:"uri,omitempty"`
	Score float64    `json:"score"`
	Query string     `json:"query,omitempty"` // query that produced the match
}

// Matched reports whether a catalog track was found
func (r MatchResult) Matched() bool {
	return r.URI != ""
}
