// Package scoring ranks catalog candidates against a wanted title and artist.
package scoring

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"hitcapsule/internal/config"
	"hitcapsule/internal/models"
	"hitcapsule/internal/search"
)

// MatchScorer scores search candidates with weighted text similarity and popularity
type MatchScorer struct {
	cfg config.ScoringConfig
}

// NewMatchScorer creates a scorer; a nil cfg uses the loaded scoring config
func NewMatchScorer(cfg *config.ScoringConfig) *MatchScorer {
	if cfg == nil {
		cfg = config.GetScoringConfig()
	}
	return &MatchScorer{cfg: *cfg}
}

// Score computes
//
//	title_weight*sim(title) + artist_weight*sim(artist) + popularity_weight*popularity/100
//
// The candidate title is normalized before comparison. When wantedArtist is
// empty the artist term uses the neutral similarity instead.
func (s *MatchScorer) Score(c models.SearchCandidate, wantedTitle, wantedArtist string) float64 {
	titleSim := Similarity(wantedTitle, search.NormalizeTitle(c.Title))

	artistSim := s.cfg.NeutralArtistSimilarity
	if wantedArtist != "" {
		artistSim = Similarity(wantedArtist, c.Artists)
	}

	return s.cfg.TitleWeight*titleSim +
		s.cfg.ArtistWeight*artistSim +
		s.cfg.PopularityWeight*float64(clampPopularity(c.Popularity))/100
}

// Best returns the highest scoring candidate. Ties keep the earliest
// candidate. ok is false when candidates is empty.
func (s *MatchScorer) Best(candidates []models.SearchCandidate, wantedTitle, wantedArtist string) (best models.SearchCandidate, score float64, ok bool) {
	for i, c := range candidates {
		sc := s.Score(c, wantedTitle, wantedArtist)
		if i == 0 || sc > score {
			best, score = c, sc
		}
	}
	return best, score, len(candidates) > 0
}

// Similarity is the case-insensitive sequence-matcher ratio of a and b:
// 2*M/T where M is the number of matched runes and T the total rune count.
// The ratio is not symmetric; callers pass the wanted text as a.
// Two empty strings are identical.
func Similarity(a, b string) float64 {
	m := difflib.NewMatcher(runeSeq(strings.ToLower(a)), runeSeq(strings.ToLower(b)))
	return m.Ratio()
}

func runeSeq(s string) []string {
	seq := make([]string, 0, len(s))
	for _, r := range s {
		seq = append(seq, string(r))
	}
	return seq
}

func clampPopularity(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
