package scoring

import (
	"testing"

	"hitcapsule/internal/config"
	"hitcapsule/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScorer() *MatchScorer {
	return NewMatchScorer(config.DefaultScoringConfig())
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "Wannabe", "Wannabe", 1.0},
		{"case insensitive", "WANNABE", "wannabe", 1.0},
		{"both empty", "", "", 1.0},
		{"one empty", "abc", "", 0.0},
		{"disjoint", "abc", "xyz", 0.0},
		{"half", "abcd", "abxy", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilarity_Runes(t *testing.T) {
	// Multi-byte characters count once each
	assert.InDelta(t, 1.0, Similarity("Beyoncé", "BEYONCÉ"), 1e-9)
	assert.InDelta(t, 12.0/14.0, Similarity("Beyoncé", "Beyonce"), 1e-9)
}

func TestSimilarity_NotSymmetric(t *testing.T) {
	assert.InDelta(t, 0.5, Similarity("diet", "tide"), 1e-9)
	assert.InDelta(t, 0.25, Similarity("tide", "diet"), 1e-9)
}

func TestScore_ComparesWantedAgainstCandidate(t *testing.T) {
	s := newTestScorer()
	c := models.SearchCandidate{Title: "tide", Artists: "tide", Popularity: 0}

	// 0.6*sim("diet","tide") + 0.25*sim("diet","tide")
	assert.InDelta(t, 0.425, s.Score(c, "diet", "diet"), 1e-9)
}

func TestBest_WantedTitleFirst(t *testing.T) {
	s := newTestScorer()
	candidates := []models.SearchCandidate{
		{URI: "spotify:track:tide", Title: "tide", Popularity: 0},
		{URI: "spotify:track:dxxx", Title: "dxxx", Popularity: 10},
	}

	best, score, ok := s.Best(candidates, "diet", "")
	require.True(t, ok)
	assert.Equal(t, "spotify:track:tide", best.URI)
	assert.InDelta(t, 0.425, score, 1e-9)
}

func TestScore_ExactMatch(t *testing.T) {
	s := newTestScorer()
	c := models.SearchCandidate{URI: "spotify:track:1", Title: "Wannabe", Artists: "Spice Girls", Popularity: 100}

	assert.InDelta(t, 1.0, s.Score(c, "Wannabe", "Spice Girls"), 1e-9)
}

func TestScore_NeutralArtist(t *testing.T) {
	s := newTestScorer()
	c := models.SearchCandidate{URI: "spotify:track:1", Title: "zzz", Artists: "Whoever", Popularity: 0}

	// Title similarity 0, artist neutral 0.5, popularity 0
	assert.InDelta(t, 0.125, s.Score(c, "abc", ""), 1e-9)
}

func TestScore_NormalizesCandidateTitle(t *testing.T) {
	s := newTestScorer()
	c := models.SearchCandidate{Title: "Wannabe (Radio Edit) [Remastered]", Artists: "Spice Girls", Popularity: 0}

	assert.InDelta(t, 0.85, s.Score(c, "Wannabe", "Spice Girls"), 1e-9)
}

func TestScore_PopularityClamped(t *testing.T) {
	s := newTestScorer()
	hi := models.SearchCandidate{Title: "x", Artists: "y", Popularity: 250}
	lo := models.SearchCandidate{Title: "x", Artists: "y", Popularity: -10}

	assert.InDelta(t, 1.0, s.Score(hi, "x", "y"), 1e-9)
	assert.InDelta(t, 0.85, s.Score(lo, "x", "y"), 1e-9)
}

func TestScore_CustomWeights(t *testing.T) {
	s := NewMatchScorer(&config.ScoringConfig{TitleWeight: 1, ArtistWeight: 0, PopularityWeight: 0, NeutralArtistSimilarity: 0.5})
	c := models.SearchCandidate{Title: "Wannabe", Artists: "Nope", Popularity: 90}

	assert.InDelta(t, 1.0, s.Score(c, "Wannabe", "Spice Girls"), 1e-9)
}

func TestBest(t *testing.T) {
	s := newTestScorer()
	candidates := []models.SearchCandidate{
		{URI: "spotify:track:cover", Title: "Wannabe", Artists: "Karaoke Band", Popularity: 10},
		{URI: "spotify:track:orig", Title: "Wannabe - Radio Edit", Artists: "Spice Girls", Popularity: 80},
		{URI: "spotify:track:other", Title: "Stop", Artists: "Spice Girls", Popularity: 70},
	}

	best, score, ok := s.Best(candidates, "Wannabe", "Spice Girls")
	require.True(t, ok)
	assert.Equal(t, "spotify:track:orig", best.URI)
	assert.InDelta(t, s.Score(candidates[1], "Wannabe", "Spice Girls"), score, 1e-9)

	for _, c := range candidates {
		assert.LessOrEqual(t, s.Score(c, "Wannabe", "Spice Girls"), score)
	}
}

func TestBest_TieKeepsFirst(t *testing.T) {
	s := newTestScorer()
	candidates := []models.SearchCandidate{
		{URI: "spotify:track:first", Title: "Song", Artists: "Artist", Popularity: 50},
		{URI: "spotify:track:second", Title: "Song", Artists: "Artist", Popularity: 50},
	}

	best, _, ok := s.Best(candidates, "Song", "Artist")
	require.True(t, ok)
	assert.Equal(t, "spotify:track:first", best.URI)
}

func TestBest_Empty(t *testing.T) {
	_, _, ok := newTestScorer().Best(nil, "Song", "Artist")
	assert.False(t, ok)
}
