package spacetraveling

import (
	"net/http"
	"net/url"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/blog"
)

const (
	sessionName   = "preview_session"
	previewRefKey = "ref"
	// maxPreviewToken keeps the session cookie under browser limits.
	maxPreviewToken = 2048
)

// handlePreview starts a preview session for the CMS release named by the
// token parameter and redirects to the previewed document.
func (a *App) handlePreview(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" || len(token) > maxPreviewToken {
		return echo.NewHTTPError(http.StatusBadRequest, "missing or invalid preview token")
	}

	target := "/"
	if id := c.QueryParam("documentId"); id != "" {
		uid, err := a.Blog.ResolveUID(c.Request().Context(), id, token)
		if err != nil {
			if blog.IsNotFound(err) {
				return echo.NewHTTPError(http.StatusNotFound).SetInternal(err)
			}
			return err
		}
		target = "/post/" + url.PathEscape(uid)
	}

	if err := setPreviewSession(c, token); err != nil {
		return err
	}
	a.log.Info().Str("document", c.QueryParam("documentId")).Msg("preview session started")
	noStore(c)
	return c.Redirect(http.StatusTemporaryRedirect, target)
}

func (a *App) handleExitPreview(c echo.Context) error {
	if err := clearPreviewSession(c); err != nil {
		return err
	}
	noStore(c)
	return c.Redirect(http.StatusTemporaryRedirect, "/")
}

// previewRef returns the CMS ref of the current preview session, or "".
func (a *App) previewRef(c echo.Context) string {
	if !a.Config.PreviewEnabled {
		return ""
	}
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return ""
	}
	ref, _ := sess.Values[previewRefKey].(string)
	return ref
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

func setPreviewSession(c echo.Context, ref string) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values[previewRefKey] = ref
	return sess.Save(c.Request(), c.Response())
}

func clearPreviewSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	delete(sess.Values, previewRefKey)
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}
