// Package auth runs the catalog authorization-code login and builds the
// authenticated session used by the catalog and playlist components.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// ErrStateMismatch is returned when the callback state does not match the login request
var ErrStateMismatch = errors.New("oauth state mismatch")

// ErrScopeMissing is returned when the cached token was granted fewer scopes
// than the session needs
var ErrScopeMissing = errors.New("cached token is missing scopes")

const loginTimeout = 5 * time.Minute

// Options configures the authenticator
type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	TokenPath    string

	// UploadCover adds the image upload scope
	UploadCover bool

	// APIURL overrides the catalog API base URL (tests)
	APIURL string

	// Endpoint overrides the OAuth endpoints (tests)
	Endpoint *oauth2.Endpoint
}

// Session is the authenticated capability handed to the catalog and
// playlist components. It is built once per process.
type Session struct {
	HTTPClient  *http.Client
	Client      *spotify.Client
	UserID      string
	DisplayName string
}

// Authenticator drives login and session creation
type Authenticator struct {
	oauth    *oauth2.Config
	redirect *url.URL
	store    *TokenStore
	apiURL   string
}

func logger() *slog.Logger {
	return slog.Default().With("component", "auth")
}

// Scopes returns the scopes requested at login
func Scopes(uploadCover bool) []string {
	scopes := []string{
		spotifyauth.ScopePlaylistReadPrivate,
		spotifyauth.ScopePlaylistModifyPrivate,
		spotifyauth.ScopePlaylistModifyPublic,
	}
	if uploadCover {
		scopes = append(scopes, spotifyauth.ScopeImageUpload)
	}
	return scopes
}

// New validates opts and returns an Authenticator
func New(opts Options) (*Authenticator, error) {
	redirect, err := url.Parse(opts.RedirectURI)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("invalid redirect URI %q", opts.RedirectURI)
	}

	endpoint := oauth2.Endpoint{AuthURL: spotifyauth.AuthURL, TokenURL: spotifyauth.TokenURL}
	if opts.Endpoint != nil {
		endpoint = *opts.Endpoint
	}

	return &Authenticator{
		oauth: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURI,
			Scopes:       Scopes(opts.UploadCover),
			Endpoint:     endpoint,
		},
		redirect: redirect,
		store:    NewTokenStore(opts.TokenPath),
		apiURL:   opts.APIURL,
	}, nil
}

// AuthURL returns the consent page URL for state
func (a *Authenticator) AuthURL(state string) string {
	return a.oauth.AuthCodeURL(state, spotifyauth.ShowDialog)
}

// Login serves the redirect URI, hands the consent URL to prompt and waits
// for the callback. The exchanged token is cached for later sessions.
func (a *Authenticator) Login(ctx context.Context, prompt func(authURL string)) (*oauth2.Token, error) {
	state, err := randomState()
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", a.redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", a.redirect.Host, err)
	}

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           a.callbackRouter(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger().Error("Callback server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	prompt(a.AuthURL(state))

	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	select {
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		if err := a.store.Save(res.token); err != nil {
			return nil, err
		}
		logger().Info("Login complete", "token_path", a.store.Path())
		return res.token, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("login aborted: %w", ctx.Err())
	}
}

type callbackResult struct {
	token *oauth2.Token
	err   error
}

// callbackRouter handles the single redirect back from the consent page
func (a *Authenticator) callbackRouter(state string, results chan<- callbackResult) http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET(a.redirect.Path, func(c *gin.Context) {
		res := a.handleCallback(c.Request.Context(), state, c.Request)
		if res.err != nil {
			c.String(http.StatusBadRequest, "Login failed: %v", res.err)
		} else {
			c.String(http.StatusOK, "Login complete. You can close this tab.")
		}
		select {
		case results <- res:
		default:
		}
	})

	return router
}

func (a *Authenticator) handleCallback(ctx context.Context, state string, r *http.Request) callbackResult {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		return callbackResult{err: fmt.Errorf("authorization denied: %s", e)}
	}
	if q.Get("state") != state {
		return callbackResult{err: ErrStateMismatch}
	}
	code := q.Get("code")
	if code == "" {
		return callbackResult{err: errors.New("callback carried no authorization code")}
	}

	tok, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return callbackResult{err: fmt.Errorf("token exchange failed: %w", err)}
	}
	// An omitted scope means the requested scopes were granted
	if grantedScope(tok) == "" {
		tok = withScope(tok, strings.Join(a.oauth.Scopes, " "))
	}
	return callbackResult{token: tok}
}

// Session builds the authenticated session from the cached token. Refreshed
// tokens are written back to the cache.
func (a *Authenticator) Session(ctx context.Context) (*Session, error) {
	tok, err := a.store.Load()
	if err != nil {
		return nil, err
	}
	if missing := missingScopes(grantedScope(tok), a.oauth.Scopes); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrScopeMissing, strings.Join(missing, ", "))
	}

	source := oauth2.ReuseTokenSource(tok, &persistingTokenSource{
		base:  a.oauth.TokenSource(ctx, tok),
		store: a.store,
		last:  tok.AccessToken,
		scope: grantedScope(tok),
	})
	httpClient := oauth2.NewClient(ctx, source)

	clientOpts := []spotify.ClientOption{spotify.WithRetry(true)}
	if a.apiURL != "" {
		clientOpts = append(clientOpts, spotify.WithBaseURL(a.apiURL))
	}
	client := spotify.New(httpClient, clientOpts...)

	me, err := client.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current user: %w", err)
	}

	logger().Info("Authenticated", "user_id", me.ID, "display_name", me.DisplayName)
	return &Session{
		HTTPClient:  httpClient,
		Client:      client,
		UserID:      me.ID,
		DisplayName: me.DisplayName,
	}, nil
}

// SessionOrLogin returns the cached session, running the login flow first
// when no token is cached or the cached one lacks a requested scope
func (a *Authenticator) SessionOrLogin(ctx context.Context, prompt func(authURL string)) (*Session, error) {
	s, err := a.Session(ctx)
	if !errors.Is(err, ErrNoToken) && !errors.Is(err, ErrScopeMissing) {
		return s, err
	}
	if errors.Is(err, ErrScopeMissing) {
		logger().Warn("Cached token lacks required scopes, logging in again", "error", err)
	}
	if _, err := a.Login(ctx, prompt); err != nil {
		return nil, err
	}
	return a.Session(ctx)
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// missingScopes lists the wanted scopes absent from granted. Tokens cached
// without scope information are taken to hold the base scopes only.
func missingScopes(granted string, wanted []string) []string {
	have := make(map[string]bool)
	if granted == "" {
		for _, sc := range Scopes(false) {
			have[sc] = true
		}
	}
	for _, sc := range strings.Fields(granted) {
		have[sc] = true
	}

	var missing []string
	for _, sc := range wanted {
		if !have[sc] {
			missing = append(missing, sc)
		}
	}
	return missing
}
