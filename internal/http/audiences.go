package http

import (
	"errors"
	"net/http"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/rfagundes/zapblast/internal/service/verify"
)

func verifyAudienceHandler(svc *verify.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")

		// synchronous: probes every unverified contact before returning
		checked, err := svc.Audience(c.Request().Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, verify.ErrAudienceNotFound):
				return c.JSON(http.StatusNotFound, map[string]string{"error": "audience not found"})
			case errors.Is(err, verify.ErrNoConnectedInstance):
				return c.JSON(http.StatusConflict, map[string]string{"error": "no connected instance"})
			}

			log.Errorf("verify audience %s failed: %v", id, err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "verification failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"audience_id": id,
			"checked":     checked,
		})
	}
}
