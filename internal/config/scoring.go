package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
	toml "github.com/pelletier/go-toml/v2"
)

// ScoringConfig holds the weights used by the match scorer
type ScoringConfig struct {
	// Weight of the title similarity term
	TitleWeight float64 `toml:"title_weight"`

	// Weight of the artist similarity term
	ArtistWeight float64 `toml:"artist_weight"`

	// Weight of the normalized catalog popularity (0-100 mapped to 0-1)
	PopularityWeight float64 `toml:"popularity_weight"`

	// Artist similarity used when the chart entry has no artist
	NeutralArtistSimilarity float64 `toml:"neutral_artist_similarity"`
}

// DefaultScoringConfig returns the stock weights
func DefaultScoringConfig() *ScoringConfig {
	return &ScoringConfig{
		TitleWeight:             0.6,
		ArtistWeight:            0.25,
		PopularityWeight:        0.15,
		NeutralArtistSimilarity: 0.5,
	}
}

var (
	scoringCfg     *ScoringConfig
	scoringCfgOnce sync.Once
	scoringCfgMu   sync.RWMutex
)

// GetScoringConfig loads the scoring config from TOML if SCORING_CONFIG_PATH is set.
// Falls back to defaults if the env var is unset or the file cannot be read/parsed.
func GetScoringConfig() *ScoringConfig {
	scoringCfgOnce.Do(func() {
		cfg := DefaultScoringConfig()
		paths := candidateScoringConfigPaths()
		if path := os.Getenv("SCORING_CONFIG_PATH"); path != "" {
			paths = []string{path}
		}
		for _, p := range paths {
			fileCfg, err := LoadScoringConfig(p)
			if err != nil {
				slog.Warn("Failed to read scoring config", "path", p, "error", err)
				continue
			}
			if fileCfg != nil {
				MergeScoringConfig(cfg, fileCfg)
				slog.Debug("Loaded scoring config", "path", p)
				break
			}
		}
		scoringCfgMu.Lock()
		scoringCfg = cfg
		scoringCfgMu.Unlock()
	})
	scoringCfgMu.RLock()
	defer scoringCfgMu.RUnlock()
	return scoringCfg
}

// LoadScoringConfig reads a TOML file. A missing file yields (nil, nil).
func LoadScoringConfig(path string) (*ScoringConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var cfg ScoringConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MergeScoringConfig copies every positive override onto base
func MergeScoringConfig(base, override *ScoringConfig) {
	if override == nil || base == nil {
		return
	}
	if override.TitleWeight > 0 {
		base.TitleWeight = override.TitleWeight
	}
	if override.ArtistWeight > 0 {
		base.ArtistWeight = override.ArtistWeight
	}
	if override.PopularityWeight > 0 {
		base.PopularityWeight = override.PopularityWeight
	}
	if override.NeutralArtistSimilarity > 0 {
		base.NeutralArtistSimilarity = override.NeutralArtistSimilarity
	}
}

// candidateScoringConfigPaths returns common locations to auto-discover scoring config
func candidateScoringConfigPaths() []string {
	return []string{
		"scoring.toml",
		filepath.Join("config", "scoring.toml"),
		filepath.Join(xdg.ConfigHome, "hitcapsule", "scoring.toml"),
	}
}
