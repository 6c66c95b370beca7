package spacetraveling

import (
	"encoding/base64"
	"errors"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/eringen/spacetraveling/views"
)

// ErrBadCursor is returned for a load-more token that does not decode.
var ErrBadCursor = errors.New("spacetraveling: malformed cursor")

// BuildURL joins a base URL with path segments.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join("/", u.Path, path.Join(pathSegments...))
	return u.String()
}

// EncodeCursor turns a CMS next-page cursor into a URL-safe token.
func EncodeCursor(cursor string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursor))
}

// DecodeCursor reverses EncodeCursor.
func DecodeCursor(token string) (string, error) {
	if token == "" {
		return "", ErrBadCursor
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(b) == 0 {
		return "", ErrBadCursor
	}
	return string(b), nil
}

// moreLinks returns the full-page and fragment addresses of the page at
// cursor, or empty strings when there is no next page.
func moreLinks(cursor string) (href, fragment string) {
	if cursor == "" {
		return "", ""
	}
	q := url.Values{"cursor": {EncodeCursor(cursor)}}
	href = "/posts/more?" + q.Encode()
	q.Set("partial", "list")
	return href, "/posts/more?" + q.Encode()
}

func (a *App) viewSite() views.SiteConfig {
	return views.SiteConfig{
		Name:        a.Config.Name,
		URL:         strings.TrimRight(a.Config.URL, "/"),
		Description: a.Config.Description,
		Author:      a.Config.Author,
	}
}

func (a *App) errorData() views.ErrorData {
	return views.ErrorData{Site: a.viewSite(), Format: a.Format}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
