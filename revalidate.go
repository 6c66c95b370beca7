package spacetraveling

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// maxWebhookBody bounds the revalidation payload read from the CMS.
const maxWebhookBody = 64 << 10

type revalidateRequest struct {
	Secret string `json:"secret"`
	Type   string `json:"type"`
}

type revalidateResponse struct {
	Revalidated bool   `json:"revalidated"`
	Epoch       uint64 `json:"epoch"`
}

// handleRevalidate purges the content cache. The secret comes from the
// X-Revalidate-Secret header or the "secret" field of a CMS webhook body.
func (a *App) handleRevalidate(c echo.Context) error {
	secret := c.Request().Header.Get("X-Revalidate-Secret")
	var body revalidateRequest
	if secret == "" {
		b, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
		}
		if len(b) > 0 {
			if err := json.Unmarshal(b, &body); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
			}
		}
		secret = body.Secret
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(a.Config.RevalidateSecret)) != 1 {
		a.log.Warn().Str("ip", c.RealIP()).Msg("revalidate rejected")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid secret")
	}

	epoch, err := a.Cache.Purge(c.Request().Context())
	if err != nil {
		return err
	}
	a.log.Info().Uint64("epoch", epoch).Str("event", body.Type).Msg("content cache purged")
	return c.JSON(http.StatusOK, revalidateResponse{Revalidated: true, Epoch: epoch})
}
