package services

import (
	"context"
	"io"
	"strings"

	"github.com/zmb3/spotify/v2"
)

// spotifyPlaylistAPI implements PlaylistAPI with the Spotify Web API client
type spotifyPlaylistAPI struct {
	client *spotify.Client
	userID string
}

// NewSpotifyPlaylistAPI creates a PlaylistAPI acting as userID
func NewSpotifyPlaylistAPI(client *spotify.Client, userID string) PlaylistAPI {
	return &spotifyPlaylistAPI{client: client, userID: userID}
}

func (a *spotifyPlaylistAPI) ListPlaylists(ctx context.Context, offset, limit int) (PlaylistPage, error) {
	page, err := a.client.CurrentUsersPlaylists(ctx, spotify.Limit(limit), spotify.Offset(offset))
	if err != nil {
		return PlaylistPage{}, err
	}

	out := PlaylistPage{
		Playlists: make([]PlaylistTarget, 0, len(page.Playlists)),
		HasNext:   page.Next != "",
	}
	for _, p := range page.Playlists {
		out.Playlists = append(out.Playlists, PlaylistTarget{
			ID:          string(p.ID),
			Name:        p.Name,
			Public:      p.IsPublic,
			Description: p.Description,
		})
	}
	return out, nil
}

func (a *spotifyPlaylistAPI) CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error) {
	pl, err := a.client.CreatePlaylistForUser(ctx, a.userID, name, description, public, false)
	if err != nil {
		return "", err
	}
	return string(pl.ID), nil
}

func (a *spotifyPlaylistAPI) UpdateDetails(ctx context.Context, id, name, description string, public bool) error {
	return a.client.ChangePlaylistNameAccessAndDescription(ctx, spotify.ID(id), name, description, public)
}

func (a *spotifyPlaylistAPI) ReplaceItems(ctx context.Context, id string, uris []string) error {
	return a.client.ReplacePlaylistTracks(ctx, spotify.ID(id), trackIDs(uris)...)
}

func (a *spotifyPlaylistAPI) AddItems(ctx context.Context, id string, uris []string) error {
	_, err := a.client.AddTracksToPlaylist(ctx, spotify.ID(id), trackIDs(uris)...)
	return err
}

func (a *spotifyPlaylistAPI) UploadCoverJPEG(ctx context.Context, id string, jpeg io.Reader) error {
	return a.client.SetPlaylistImage(ctx, spotify.ID(id), jpeg)
}

// trackIDs converts spotify:track:<id> URIs to bare ids; other values pass through
func trackIDs(uris []string) []spotify.ID {
	ids := make([]spotify.ID, 0, len(uris))
	for _, uri := range uris {
		ids = append(ids, spotify.ID(strings.TrimPrefix(uri, "spotify:track:")))
	}
	return ids
}
