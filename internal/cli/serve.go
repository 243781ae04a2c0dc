package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"hitcapsule/internal/handlers"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	var (
		port        string
		uploadCover bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := opts.app
			ctx := cmd.Context()

			svc, session, err := app.CapsuleService(ctx, uploadCover, promptTo(cmd))
			if err != nil {
				return err
			}

			if port == "" {
				port = app.Config.Port
			}
			gin.SetMode(app.Config.GinMode)

			checks := map[string]handlers.HealthCheck{"cache": app.Cache.Health}
			if app.DB != nil {
				checks["database"] = app.DB.Health
			}

			router := handlers.NewRouter(handlers.RouterConfig{
				Capsules:  handlers.NewCapsuleHandler(svc),
				Admin:     handlers.NewAdminHandler(app.Charts, app.Cache, app.DB),
				Health:    handlers.NewHealthHandler(checks),
				JWTSecret: app.Config.APIJWTSecret,
				Logger:    app.Logger,
			})

			srv := &http.Server{
				Addr:              ":" + port,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				app.Logger.Info("Starting HTTP server",
					"port", port,
					"user_id", session.UserID,
					"auth_required", app.Config.APIJWTSecret != "")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server failed: %w", err)
			case <-ctx.Done():
			}

			app.Logger.Info("Shutting down HTTP server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (defaults to PORT)")
	cmd.Flags().BoolVar(&uploadCover, "cover", false, "request the image upload scope so API callers can upload covers")
	return cmd
}
