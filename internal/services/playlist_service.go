package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	// playlistItemsChunk is the most items the catalog accepts per add/replace call
	playlistItemsChunk = 100
	playlistPageSize   = 50
	playlistURLBase    = "https://open.spotify.com/playlist/"
)

// PlaylistTarget describes a playlist owned by the current user
type PlaylistTarget struct {
	ID          string
	Name        string
	Public      bool
	Description string
}

// PlaylistPage is one page of the current user's playlists
type PlaylistPage struct {
	Playlists []PlaylistTarget
	HasNext   bool
}

// PlaylistAPI is the set of catalog playlist operations the upsert needs
type PlaylistAPI interface {
	ListPlaylists(ctx context.Context, offset, limit int) (PlaylistPage, error)
	CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error)
	UpdateDetails(ctx context.Context, id, name, description string, public bool) error
	ReplaceItems(ctx context.Context, id string, uris []string) error
	AddItems(ctx context.Context, id string, uris []string) error
	UploadCoverJPEG(ctx context.Context, id string, jpeg io.Reader) error
}

// PlaylistService creates or updates playlists by name
type PlaylistService struct {
	api    PlaylistAPI
	logger *slog.Logger
}

// NewPlaylistService creates a new playlist service
func NewPlaylistService(api PlaylistAPI) *PlaylistService {
	return &PlaylistService{
		api:    api,
		logger: slog.Default().With("component", "playlists"),
	}
}

// FindByName returns the first playlist, in listing order, whose name equals
// name ignoring case. ErrPlaylistNotFound is returned when none does.
func (s *PlaylistService) FindByName(ctx context.Context, name string) (*PlaylistTarget, error) {
	for offset := 0; ; offset += playlistPageSize {
		page, err := s.api.ListPlaylists(ctx, offset, playlistPageSize)
		if err != nil {
			return nil, &ServiceError{Service: "spotify", Operation: "list_playlists", Err: err}
		}
		for _, p := range page.Playlists {
			if strings.EqualFold(p.Name, name) {
				found := p
				return &found, nil
			}
		}
		if !page.HasNext || len(page.Playlists) == 0 {
			return nil, ErrPlaylistNotFound
		}
	}
}

// Upsert makes a playlist named name hold uris.
//
// An existing playlist (matched as in FindByName) gets its details refreshed
// and its items replaced, or appended to when replace is false. Otherwise a
// new playlist is created. Lookup and mutation are separate calls, so two
// concurrent upserts of the same name may both create a playlist.
func (s *PlaylistService) Upsert(ctx context.Context, name string, public bool, description string, uris []string, replace bool) (id string, createdNew bool, err error) {
	existing, err := s.FindByName(ctx, name)
	switch {
	case err == nil:
		return existing.ID, false, s.updateExisting(ctx, existing.ID, name, public, description, uris, replace)
	case !errors.Is(err, ErrPlaylistNotFound):
		return "", false, err
	}

	id, err = s.api.CreatePlaylist(ctx, name, description, public)
	if err != nil {
		return "", false, &ServiceError{Service: "spotify", Operation: "create_playlist", Message: name, Err: err}
	}
	s.logger.Info("Created playlist", "id", id, "name", name, "public", public)

	if len(uris) > 0 {
		if err := s.AddItemsChunked(ctx, id, uris); err != nil {
			return id, true, err
		}
	}
	return id, true, nil
}

func (s *PlaylistService) updateExisting(ctx context.Context, id, name string, public bool, description string, uris []string, replace bool) error {
	if err := s.api.UpdateDetails(ctx, id, name, description, public); err != nil {
		s.logger.Warn("Failed to update playlist details", "id", id, "error", err)
	}

	if !replace {
		return s.AddItemsChunked(ctx, id, uris)
	}

	head := uris[:min(len(uris), playlistItemsChunk)]
	if err := s.api.ReplaceItems(ctx, id, head); err != nil {
		return &ServiceError{Service: "spotify", Operation: "replace_items", Message: id, Err: err}
	}
	if err := s.AddItemsChunked(ctx, id, uris[len(head):]); err != nil {
		return err
	}
	s.logger.Info("Replaced playlist items", "id", id, "name", name, "items", len(uris))
	return nil
}

// AddItemsChunked appends uris in order, in batches of at most 100
func (s *PlaylistService) AddItemsChunked(ctx context.Context, id string, uris []string) error {
	for start := 0; start < len(uris); start += playlistItemsChunk {
		end := min(start+playlistItemsChunk, len(uris))
		if err := s.api.AddItems(ctx, id, uris[start:end]); err != nil {
			return &ServiceError{
				Service:   "spotify",
				Operation: "add_items",
				Message:   fmt.Sprintf("%s items %d-%d", id, start, end-1),
				Err:       err,
			}
		}
	}
	return nil
}

// UploadCover sets the playlist image from a JPEG file. Failures are logged
// and reported as false.
func (s *PlaylistService) UploadCover(ctx context.Context, id, path string) bool {
	f, err := os.Open(path)
	if err != nil {
		s.logger.Warn("Failed to open cover image", "path", path, "error", err)
		return false
	}
	defer f.Close()

	if err := s.api.UploadCoverJPEG(ctx, id, f); err != nil {
		s.logger.Warn("Failed to upload playlist cover", "id", id, "error", err)
		return false
	}
	return true
}

// PlaylistURL returns the public web link for a playlist id
func PlaylistURL(id string) string {
	return playlistURLBase + id
}
