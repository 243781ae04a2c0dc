package search

import (
	"strings"
)

// QuerySpec is one catalog search attempt
type QuerySpec struct {
	Title  string
	Artist string
	Year   string
}

// String renders the query in catalog field syntax, omitting empty fields:
// track:"<title>" artist:"<artist>" year:<year>
func (q QuerySpec) String() string {
	var b strings.Builder
	b.WriteString(`track:"`)
	b.WriteString(q.Title)
	b.WriteString(`"`)
	if q.Artist != "" {
		b.WriteString(` artist:"`)
		b.WriteString(q.Artist)
		b.WriteString(`"`)
	}
	if q.Year != "" {
		b.WriteString(" year:")
		b.WriteString(q.Year)
	}
	return b.String()
}

// BuildQueries returns the queries for one title, most specific first.
// Artist and year steps are skipped when those values are empty, so the
// result never holds duplicates.
func BuildQueries(title, artist, year string) []QuerySpec {
	queries := make([]QuerySpec, 0, 4)
	if artist != "" && year != "" {
		queries = append(queries, QuerySpec{Title: title, Artist: artist, Year: year})
	}
	if artist != "" {
		queries = append(queries, QuerySpec{Title: title, Artist: artist})
	}
	if year != "" {
		queries = append(queries, QuerySpec{Title: title, Year: year})
	}
	return append(queries, QuerySpec{Title: title})
}

// BuildQueryPlan concatenates BuildQueries for every title candidate in order
func BuildQueryPlan(nq NormalizedQuery, year string) []QuerySpec {
	var plan []QuerySpec
	for _, title := range nq.TitleCandidates {
		plan = append(plan, BuildQueries(title, nq.PrimaryArtist, year)...)
	}
	return plan
}
