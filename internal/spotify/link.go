package spotify

import (
	"net/url"
	"regexp"
	"strings"

	"spotloader/internal/core"
)

var (
	spotifyURLRegex = regexp.MustCompile(`(?:https?://)?(?:open\.)?spotify\.com/(?:intl-[a-z]{2}/)?(track|album|playlist)/([a-zA-Z0-9]+)`)
	spotifyURIRegex = regexp.MustCompile(`spotify:(track|album|playlist):([a-zA-Z0-9]+)`)
)

// ResolveLink parses a Spotify URL or URI into its kind and identifier.
// Query strings are irrelevant: resolving "u" and "u?si=abc" yields the
// same link. Returns core.ErrMalformedURL when no identifier can be found.
func (c *Client) ResolveLink(rawURL string) (core.Link, error) {
	rawURL = strings.TrimSpace(rawURL)

	if m := spotifyURIRegex.FindStringSubmatch(rawURL); len(m) > 2 {
		return core.Link{Kind: core.LinkKind(m[1]), ID: m[2]}, nil
	}
	if m := spotifyURLRegex.FindStringSubmatch(rawURL); len(m) > 2 {
		return core.Link{Kind: core.LinkKind(m[1]), ID: m[2]}, nil
	}

	// Fall back to path inspection so unusual but valid catalog URLs
	// still resolve from their trailing segment.
	u, err := url.Parse(rawURL)
	if err != nil {
		return core.Link{}, core.ErrMalformedURL
	}
	if host := strings.ToLower(u.Hostname()); host != "open.spotify.com" && host != "spotify.com" {
		return core.Link{}, core.ErrMalformedURL
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, part := range parts {
		switch part {
		case "track", "album", "playlist":
			if i+1 >= len(parts) || parts[i+1] == "" {
				return core.Link{}, core.ErrMalformedURL
			}
			id := parts[i+1]
			if idx := strings.Index(id, "?"); idx != -1 {
				id = id[:idx]
			}
			return core.Link{Kind: core.LinkKind(part), ID: id}, nil
		}
	}

	return core.Link{}, core.ErrMalformedURL
}
