// Package search turns raw chart text into catalog search queries.
package search

import (
	"regexp"
	"strings"

	"hitcapsule/internal/models"
)

// NormalizedQuery is the matching view of a chart entry
type NormalizedQuery struct {
	TitleCandidates []string
	PrimaryArtist   string
}

var (
	quoteReplacer = strings.NewReplacer(
		"’", "'", "‘", "'",
		"“", `"`, "”", `"`,
		"–", "-", "—", "-",
	)

	parenRE   = regexp.MustCompile(`\([^)]*\)`)
	bracketRE = regexp.MustCompile(`\[[^\]]*\]`)

	// Collaboration separators. Word separators need surrounding spaces so
	// names like "Anderson .Paak" or "Andy" are left alone.
	artistSplitRE = regexp.MustCompile(`(?i)\s*(?:,|&| x |×| with | and | feat\.| featuring | ft\.|\+)\s*`)

	// A/B sides are written "A / B" or "A | B"
	titleSplitRE = regexp.MustCompile(`/|\s\|\s`)
)

// unifyQuotes replaces typographic quotes and dashes with their ASCII forms
func unifyQuotes(s string) string {
	return quoteReplacer.Replace(s)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeTitle strips parenthesized and bracketed spans, unifies quotes and
// collapses whitespace. NormalizeTitle(NormalizeTitle(s)) == NormalizeTitle(s).
func NormalizeTitle(s string) string {
	s = unifyQuotes(s)
	s = parenRE.ReplaceAllString(s, "")
	s = bracketRE.ReplaceAllString(s, "")
	return collapseSpace(s)
}

// PrimaryArtist returns the first credited artist of a collaboration string
func PrimaryArtist(s string) string {
	s = collapseSpace(unifyQuotes(s))
	if s == "" {
		return ""
	}
	parts := artistSplitRE.Split(s, 2)
	return strings.TrimSpace(parts[0])
}

// TitleCandidates returns the normalized title followed by each side of a
// double A-side title. Candidates are distinct and keep their order.
func TitleCandidates(s string) []string {
	base := NormalizeTitle(s)
	candidates := []string{base}
	if !strings.Contains(base, "/") && !strings.Contains(base, " | ") {
		return candidates
	}

	seen := map[string]struct{}{base: {}}
	for _, part := range titleSplitRE.Split(base, -1) {
		part = strings.TrimSpace(part)
		if len([]rune(part)) <= 1 {
			continue
		}
		if _, dup := seen[part]; dup {
			continue
		}
		seen[part] = struct{}{}
		candidates = append(candidates, part)
	}
	return candidates
}

// Normalize derives the title candidates and primary artist for an entry
func Normalize(entry models.ChartEntry) NormalizedQuery {
	return NormalizedQuery{
		TitleCandidates: TitleCandidates(entry.Title),
		PrimaryArtist:   PrimaryArtist(entry.Artist),
	}
}
