// Package spotify implements the catalog client over the Spotify Web API
// using the client-credentials grant. Raw API records are normalized into
// core.TrackRecord at this boundary; nothing downstream sees catalog JSON.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	"spotloader/internal/core"
)

// pageLimit is the item count requested per pagination step.
const pageLimit = 50

type Client struct {
	config *core.SpotifyConfig
	logger *zap.Logger
	api    *spotify.Client

	// artistGenres is cheap to memoize: a collection's tracks usually
	// share a handful of artists, and each miss costs a network call.
	genreMu    sync.Mutex
	genreCache map[string]string
}

func NewClient(config *core.SpotifyConfig, logger *zap.Logger) *Client {
	return &Client{
		config:     config,
		logger:     logger,
		genreCache: make(map[string]string),
	}
}

// Authenticate exchanges client credentials for a bearer token. The token
// source refreshes on expiry, so one call per process lifetime suffices.
func (c *Client) Authenticate(ctx context.Context) error {
	auth := &clientcredentials.Config{
		ClientID:     c.config.ClientID,
		ClientSecret: c.config.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}

	// Fail fast on bad credentials; the client below re-fetches tokens
	// on expiry by itself.
	token, err := auth.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w: token exchange: %v", core.ErrCatalogAuth, err)
	}
	c.api = spotify.New(auth.Client(ctx))

	c.logger.Info("Authenticated with catalog",
		zap.String("token_type", token.TokenType))
	return nil
}

// Track fetches one track and normalizes it.
func (c *Client) Track(ctx context.Context, id string) (core.TrackRecord, error) {
	if c.api == nil {
		return core.TrackRecord{}, fmt.Errorf("catalog client not authenticated")
	}

	ft, err := c.api.GetTrack(ctx, spotify.ID(id))
	if err != nil {
		return core.TrackRecord{}, mapCatalogErr(err)
	}
	return c.record(ctx, ft), nil
}

// Collection fetches a playlist's or album's title and full ordered track
// list, following pagination until the catalog reports no next page. A
// page without items ends the walk; it is end-of-data, not an error.
func (c *Client) Collection(ctx context.Context, link core.Link) (core.Collection, error) {
	if c.api == nil {
		return core.Collection{}, fmt.Errorf("catalog client not authenticated")
	}

	switch link.Kind {
	case core.LinkAlbum:
		return c.albumCollection(ctx, link)
	case core.LinkPlaylist:
		return c.playlistCollection(ctx, link)
	default:
		return core.Collection{}, fmt.Errorf("%w: %q is not a collection", core.ErrMalformedURL, link.Kind)
	}
}

// CollectionAccessible probes the collection's metadata endpoint. Private
// or deleted collections fail the probe and are rejected before any track
// work begins.
func (c *Client) CollectionAccessible(ctx context.Context, link core.Link) bool {
	if c.api == nil {
		return false
	}

	var err error
	switch link.Kind {
	case core.LinkAlbum:
		_, err = c.api.GetAlbum(ctx, spotify.ID(link.ID))
	case core.LinkPlaylist:
		_, err = c.api.GetPlaylist(ctx, spotify.ID(link.ID))
	default:
		return false
	}
	if err != nil {
		c.logger.Info("Collection probe failed",
			zap.String("kind", string(link.Kind)),
			zap.String("id", link.ID),
			zap.Error(err))
		return false
	}
	return true
}

func (c *Client) albumCollection(ctx context.Context, link core.Link) (core.Collection, error) {
	album, err := c.api.GetAlbum(ctx, spotify.ID(link.ID))
	if err != nil {
		return core.Collection{}, mapCatalogErr(err)
	}

	coverURL := ""
	if len(album.Images) > 0 {
		coverURL = album.Images[0].URL
	}
	releaseDate := album.ReleaseDate
	if releaseDate == "" {
		releaseDate = UnknownField
	}
	genres := UnknownField
	if len(album.Artists) > 0 {
		genres = c.artistGenres(ctx, string(album.Artists[0].ID))
	}

	col := core.Collection{Link: link, Title: album.Name}
	offset := 0
	for {
		page, pageErr := c.api.GetAlbumTracks(ctx, spotify.ID(link.ID),
			spotify.Limit(pageLimit), spotify.Offset(offset))
		if pageErr != nil {
			return core.Collection{}, mapCatalogErr(pageErr)
		}
		if len(page.Tracks) == 0 {
			break
		}

		for i := range page.Tracks {
			st := &page.Tracks[i]
			title := st.Name
			if title == "" {
				title = UnknownField
			}
			artists := UnknownField
			if len(st.Artists) > 0 {
				names := make([]string, 0, len(st.Artists))
				for _, a := range st.Artists {
					names = append(names, a.Name)
				}
				artists = strings.Join(names, ", ")
			}
			col.Tracks = append(col.Tracks, core.TrackRecord{
				ID:          string(st.ID),
				Title:       title,
				Artists:     artists,
				Album:       album.Name,
				ReleaseDate: releaseDate,
				Genres:      genres,
				CoverURL:    coverURL,
				TrackNumber: int(st.TrackNumber),
				TotalTracks: int(album.TotalTracks),
			})
		}

		if page.Next == "" {
			break
		}
		offset += len(page.Tracks)
	}

	return col, nil
}

func (c *Client) playlistCollection(ctx context.Context, link core.Link) (core.Collection, error) {
	playlist, err := c.api.GetPlaylist(ctx, spotify.ID(link.ID))
	if err != nil {
		return core.Collection{}, mapCatalogErr(err)
	}

	col := core.Collection{Link: link, Title: playlist.Name}
	offset := 0
	for {
		page, pageErr := c.api.GetPlaylistItems(ctx, spotify.ID(link.ID),
			spotify.Limit(pageLimit), spotify.Offset(offset))
		if pageErr != nil {
			return core.Collection{}, mapCatalogErr(pageErr)
		}
		if len(page.Items) == 0 {
			break
		}

		for i := range page.Items {
			// Episodes and removed tracks surface as nil; skip them.
			ft := page.Items[i].Track.Track
			if ft == nil {
				continue
			}
			col.Tracks = append(col.Tracks, c.record(ctx, ft))
		}

		if page.Next == "" {
			break
		}
		offset += len(page.Items)
	}

	return col, nil
}

// record normalizes one full track. Genre lookup needs an extra artist
// call and degrades to "Unknown" on any failure rather than propagating.
func (c *Client) record(ctx context.Context, ft *spotify.FullTrack) core.TrackRecord {
	genres := UnknownField
	if len(ft.Artists) > 0 {
		genres = c.artistGenres(ctx, string(ft.Artists[0].ID))
	}

	return core.TrackRecord{
		ID:          string(ft.ID),
		Title:       Title(ft),
		Artists:     Artists(ft),
		Album:       AlbumName(ft),
		ReleaseDate: ReleaseDate(ft),
		Genres:      genres,
		CoverURL:    CoverURL(ft),
		TrackNumber: TrackNumber(ft),
		TotalTracks: TotalTracks(ft),
	}
}

func (c *Client) artistGenres(ctx context.Context, artistID string) string {
	if artistID == "" {
		return UnknownField
	}

	c.genreMu.Lock()
	cached, ok := c.genreCache[artistID]
	c.genreMu.Unlock()
	if ok {
		return cached
	}

	artist, err := c.api.GetArtist(ctx, spotify.ID(artistID))
	if err != nil {
		c.logger.Debug("Artist genre lookup failed",
			zap.String("artist", artistID), zap.Error(err))
		return UnknownField
	}

	genres := joinGenres(artist.Genres)
	c.genreMu.Lock()
	c.genreCache[artistID] = genres
	c.genreMu.Unlock()
	return genres
}

// mapCatalogErr translates API failures into the catalog error taxonomy:
// 401/403 means bad credentials, anything else non-2xx (and transport
// failures) means the catalog is unavailable.
func mapCatalogErr(err error) error {
	var se spotify.Error
	if errors.As(err, &se) {
		switch se.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", core.ErrCatalogAuth, se.Message)
		default:
			return fmt.Errorf("%w: %s", core.ErrCatalogUnavailable, se.Message)
		}
	}
	return fmt.Errorf("%w: %v", core.ErrCatalogUnavailable, err)
}
