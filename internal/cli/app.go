package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"hitcapsule/internal/artwork"
	"hitcapsule/internal/auth"
	"hitcapsule/internal/cache"
	"hitcapsule/internal/config"
	"hitcapsule/internal/models"
	"hitcapsule/internal/repositories"
	"hitcapsule/internal/scoring"
	"hitcapsule/internal/services"
)

// App owns the process-wide dependencies shared by every command
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Cache  cache.Cache
	DB     *models.Database
	Charts repositories.ChartRepository

	// Billboard scrapes directly; Source serves the archive first
	Billboard services.ChartSource
	Source    services.ChartSource

	closers []io.Closer
}

// NewApp connects storage and builds the chart source. The catalog session
// is built later, only by commands that need it.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	c, err := cache.New(cfg.ValkeyURL, cache.DefaultMemoryMaxItems)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	app.Cache = c
	app.closers = append(app.closers, c)

	if cfg.HasDatabase() {
		db, err := models.NewDatabase(ctx, cfg.MongodbURL, cfg.MongodbDatabase)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		app.DB = db
		app.closers = append(app.closers, closerFunc(func() error { return db.Close(context.Background()) }))

		if err := db.CreateIndexes(ctx); err != nil {
			logger.Warn("Failed to create indexes", "error", err)
		}
		app.Charts = repositories.NewCachedChartRepository(repositories.NewMongoChartRepository(db), c)
	} else {
		logger.Debug("No database configured, archiving charts in memory")
		app.Charts = repositories.NewMemoryChartRepository()
	}

	billboard := services.NewBillboardService(services.BillboardOptions{
		BaseURL: cfg.BillboardURL,
		Timeout: cfg.ChartTimeout,
	})
	app.Billboard = billboard
	app.Source = services.NewArchivedChartSource(billboard, app.Charts)

	return app, nil
}

// Authenticator returns the catalog authenticator for the configured credentials
func (a *App) Authenticator(uploadCover bool) (*auth.Authenticator, error) {
	if err := a.Config.Validate(); err != nil {
		return nil, err
	}
	return auth.New(auth.Options{
		ClientID:     a.Config.SpotifyClientID,
		ClientSecret: a.Config.SpotifyClientSecret,
		RedirectURI:  a.Config.SpotifyRedirectURI,
		TokenPath:    a.Config.TokenCachePath,
		UploadCover:  uploadCover,
	})
}

// CapsuleService authenticates (logging in first if no token is cached)
// and wires the full playlist workflow
func (a *App) CapsuleService(ctx context.Context, uploadCover bool, prompt func(string)) (*services.CapsuleService, *auth.Session, error) {
	authenticator, err := a.Authenticator(uploadCover)
	if err != nil {
		return nil, nil, err
	}
	session, err := authenticator.SessionOrLogin(ctx, prompt)
	if err != nil {
		return nil, nil, err
	}

	catalog := services.NewCatalogService(session.HTTPClient, services.CatalogOptions{
		BaseURL:             a.Config.SpotifyAPIURL,
		Market:              a.Config.SpotifyMarket,
		RateLimit:           a.Config.SpotifyRateLimit,
		MaxRateLimitRetries: a.Config.SpotifyMaxRateLimitRetries,
	})
	matcher := services.NewTrackMatcher(catalog, scoring.NewMatchScorer(nil), a.Config.SearchLimit)
	playlists := services.NewPlaylistService(services.NewSpotifyPlaylistAPI(session.Client, session.UserID))

	return services.NewCapsuleService(a.Source, matcher, playlists, artwork.NewRenderer(), a.Config.ArtifactsDir), session, nil
}

// ChartReader serves validated charts without touching the catalog
func (a *App) ChartReader() *services.CapsuleService {
	return services.NewCapsuleService(a.Source, nil, nil, nil, a.Config.ArtifactsDir)
}

// Close releases storage connections
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.Logger.Warn("Failed to close resource", "error", err)
		}
	}
	a.closers = nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
