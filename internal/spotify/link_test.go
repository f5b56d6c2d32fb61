package spotify

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"spotloader/internal/core"
)

func testClient() *Client {
	return NewClient(&core.SpotifyConfig{}, zap.NewNop())
}

func TestResolveLink(t *testing.T) {
	c := testClient()

	tests := []struct {
		name     string
		input    string
		wantKind core.LinkKind
		wantID   string
	}{
		{
			"track url",
			"https://open.spotify.com/track/4cOdK2wGLETKBW3PvgPWqT",
			core.LinkTrack, "4cOdK2wGLETKBW3PvgPWqT",
		},
		{
			"album url",
			"https://open.spotify.com/album/1ATL5GLyefJaxhQzSPVrLX",
			core.LinkAlbum, "1ATL5GLyefJaxhQzSPVrLX",
		},
		{
			"playlist url",
			"https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M",
			core.LinkPlaylist, "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			"share query string",
			"https://open.spotify.com/track/4cOdK2wGLETKBW3PvgPWqT?si=abc123&utm_source=copy-link",
			core.LinkTrack, "4cOdK2wGLETKBW3PvgPWqT",
		},
		{
			"intl path segment",
			"https://open.spotify.com/intl-de/track/4cOdK2wGLETKBW3PvgPWqT",
			core.LinkTrack, "4cOdK2wGLETKBW3PvgPWqT",
		},
		{
			"scheme omitted",
			"open.spotify.com/track/4cOdK2wGLETKBW3PvgPWqT",
			core.LinkTrack, "4cOdK2wGLETKBW3PvgPWqT",
		},
		{
			"spotify uri",
			"spotify:track:4cOdK2wGLETKBW3PvgPWqT",
			core.LinkTrack, "4cOdK2wGLETKBW3PvgPWqT",
		},
		{
			"surrounding whitespace",
			"  https://open.spotify.com/track/4cOdK2wGLETKBW3PvgPWqT  ",
			core.LinkTrack, "4cOdK2wGLETKBW3PvgPWqT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, err := c.ResolveLink(tt.input)
			if err != nil {
				t.Fatalf("ResolveLink(%q) failed: %v", tt.input, err)
			}
			if link.Kind != tt.wantKind || link.ID != tt.wantID {
				t.Errorf("ResolveLink(%q) = %v/%q, want %v/%q",
					tt.input, link.Kind, link.ID, tt.wantKind, tt.wantID)
			}
		})
	}
}

func TestResolveLinkIdempotent(t *testing.T) {
	c := testClient()

	plain := "https://open.spotify.com/track/4cOdK2wGLETKBW3PvgPWqT"
	shared := plain + "?si=xyz789"

	a, err := c.ResolveLink(plain)
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.ResolveLink(shared)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("share parameters must not change resolution: %v != %v", a, b)
	}
}

func TestResolveLinkMalformed(t *testing.T) {
	c := testClient()

	inputs := []string{
		"",
		"not a url at all",
		"https://example.com/track/4cOdK2wGLETKBW3PvgPWqT",
		"https://open.spotify.com/artist/4cOdK2wGLETKBW3PvgPWqT",
		"https://open.spotify.com/track/",
		"spotify:artist:4cOdK2wGLETKBW3PvgPWqT",
	}

	for _, input := range inputs {
		if _, err := c.ResolveLink(input); !errors.Is(err, core.ErrMalformedURL) {
			t.Errorf("ResolveLink(%q): expected ErrMalformedURL, got %v", input, err)
		}
	}
}
