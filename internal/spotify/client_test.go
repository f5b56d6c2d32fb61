package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"

	"spotloader/internal/core"
)

// rewriteTransport points every API request at the test server. The
// upstream library has no base URL option, so the host is swapped in
// flight instead.
type rewriteTransport struct {
	target *url.URL
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	target, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}

	c := NewClient(&core.SpotifyConfig{}, zap.NewNop())
	c.api = spotify.New(&http.Client{Transport: &rewriteTransport{target: target}})
	return c, server
}

func TestTrackNormalizesRecord(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/tracks/track1", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{
			"id": "track1",
			"name": "One More Time",
			"track_number": 1,
			"artists": [{"id": "artist1", "name": "Daft Punk"}],
			"album": {
				"name": "Discovery",
				"release_date": "2001-03-07",
				"total_tracks": 14,
				"images": [{"url": "https://covers.test/large.jpg", "width": 640, "height": 640}]
			}
		}`)
	})
	mux.HandleFunc("/v1/artists/artist1", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id": "artist1", "name": "Daft Punk", "genres": ["french house"]}`)
	})

	c, _ := newTestClient(t, mux)

	rec, err := c.Track(context.Background(), "track1")
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}

	want := core.TrackRecord{
		ID:          "track1",
		Title:       "One More Time",
		Artists:     "Daft Punk",
		Album:       "Discovery",
		ReleaseDate: "2001-03-07",
		Genres:      "french house",
		CoverURL:    "https://covers.test/large.jpg",
		TrackNumber: 1,
		TotalTracks: 14,
	}
	if rec != want {
		t.Errorf("Track record mismatch:\n got %+v\nwant %+v", rec, want)
	}
}

func TestTrackGenreLookupDegrades(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/tracks/track1", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{
			"id": "track1",
			"name": "Song",
			"artists": [{"id": "artist1", "name": "Somebody"}],
			"album": {"name": "Album"}
		}`)
	})
	mux.HandleFunc("/v1/artists/artist1", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error": {"status": 500, "message": "boom"}}`)
	})

	c, _ := newTestClient(t, mux)

	rec, err := c.Track(context.Background(), "track1")
	if err != nil {
		t.Fatalf("genre failure must not fail the track: %v", err)
	}
	if rec.Genres != UnknownField {
		t.Errorf("Genres = %q, want %q", rec.Genres, UnknownField)
	}
}

func TestAlbumCollectionPagination(t *testing.T) {
	const total = 120 // 3 pages of 50, 50, 20
	pageRequests := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/albums/album1", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{
			"id": "album1",
			"name": "Big Album",
			"release_date": "1999",
			"total_tracks": 120,
			"artists": [{"id": "artist1", "name": "Somebody"}],
			"images": [{"url": "https://covers.test/album.jpg"}]
		}`)
	})
	mux.HandleFunc("/v1/artists/artist1", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id": "artist1", "genres": ["rock"]}`)
	})
	mux.HandleFunc("/v1/albums/album1/tracks", func(w http.ResponseWriter, r *http.Request) {
		pageRequests++
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		count := 50
		if offset+count > total {
			count = total - offset
		}
		next := `"https://api.test/next"`
		if offset+count >= total {
			next = "null"
		}

		items := ""
		for i := 0; i < count; i++ {
			if i > 0 {
				items += ","
			}
			n := offset + i + 1
			items += fmt.Sprintf(
				`{"id": "t%d", "name": "Track %d", "track_number": %d, "artists": [{"id": "artist1", "name": "Somebody"}]}`,
				n, n, n)
		}
		fmt.Fprintf(w, `{"items": [%s], "limit": 50, "offset": %d, "total": %d, "next": %s}`,
			items, offset, total, next)
	})

	c, _ := newTestClient(t, mux)

	col, err := c.Collection(context.Background(), core.Link{Kind: core.LinkAlbum, ID: "album1"})
	if err != nil {
		t.Fatalf("Collection failed: %v", err)
	}

	if pageRequests != 3 {
		t.Errorf("expected exactly 3 page requests, got %d", pageRequests)
	}
	if col.Title != "Big Album" {
		t.Errorf("Title = %q", col.Title)
	}
	if len(col.Tracks) != total {
		t.Fatalf("expected %d tracks, got %d", total, len(col.Tracks))
	}
	// Order must follow the catalog's.
	if col.Tracks[0].Title != "Track 1" || col.Tracks[total-1].Title != "Track 120" {
		t.Errorf("track order broken: first=%q last=%q",
			col.Tracks[0].Title, col.Tracks[total-1].Title)
	}
	first := col.Tracks[0]
	if first.Album != "Big Album" || first.ReleaseDate != "1999" ||
		first.CoverURL != "https://covers.test/album.jpg" || first.TotalTracks != total {
		t.Errorf("album metadata not applied to track: %+v", first)
	}
}

func TestPlaylistCollectionSkipsNonTracks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/playlists/pl1", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id": "pl1", "name": "Mixed Bag"}`)
	})
	mux.HandleFunc("/v1/playlists/pl1/tracks", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{
			"items": [
				{"track": {"type": "track", "id": "t1", "name": "Keep Me",
					"artists": [{"id": "artist1", "name": "Somebody"}],
					"album": {"name": "Album"}}},
				{"track": {"type": "episode", "id": "e1", "name": "Podcast Episode"}},
				{"track": {"type": "track", "id": "t2", "name": "Keep Me Too",
					"artists": [{"id": "artist1", "name": "Somebody"}],
					"album": {"name": "Album"}}}
			],
			"limit": 50, "offset": 0, "total": 3, "next": null
		}`)
	})
	mux.HandleFunc("/v1/artists/artist1", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id": "artist1", "genres": []}`)
	})

	c, _ := newTestClient(t, mux)

	col, err := c.Collection(context.Background(), core.Link{Kind: core.LinkPlaylist, ID: "pl1"})
	if err != nil {
		t.Fatalf("Collection failed: %v", err)
	}
	if len(col.Tracks) != 2 {
		t.Fatalf("expected 2 tracks after skipping the episode, got %d", len(col.Tracks))
	}
	if col.Tracks[0].Title != "Keep Me" || col.Tracks[1].Title != "Keep Me Too" {
		t.Errorf("unexpected tracks: %+v", col.Tracks)
	}
}

func TestCollectionAccessible(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/playlists/open", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id": "open", "name": "Public"}`)
	})
	mux.HandleFunc("/v1/playlists/secret", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": {"status": 404, "message": "Not found."}}`)
	})

	c, _ := newTestClient(t, mux)
	ctx := context.Background()

	if !c.CollectionAccessible(ctx, core.Link{Kind: core.LinkPlaylist, ID: "open"}) {
		t.Error("public playlist should be accessible")
	}
	if c.CollectionAccessible(ctx, core.Link{Kind: core.LinkPlaylist, ID: "secret"}) {
		t.Error("missing playlist should not be accessible")
	}
	if c.CollectionAccessible(ctx, core.Link{Kind: core.LinkTrack, ID: "t1"}) {
		t.Error("a track is not a collection")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/tracks/denied", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"status": 401, "message": "Invalid access token"}}`)
	})
	mux.HandleFunc("/v1/tracks/broken", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"error": {"status": 502, "message": "Upstream down"}}`)
	})

	c, _ := newTestClient(t, mux)
	ctx := context.Background()

	if _, err := c.Track(ctx, "denied"); !errors.Is(err, core.ErrCatalogAuth) {
		t.Errorf("401 should map to ErrCatalogAuth, got %v", err)
	}
	if _, err := c.Track(ctx, "broken"); !errors.Is(err, core.ErrCatalogUnavailable) {
		t.Errorf("502 should map to ErrCatalogUnavailable, got %v", err)
	}
}
