package http

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/rfagundes/zapblast/internal/repository"
	"github.com/rfagundes/zapblast/internal/service/campaign"
)

func nullTime(t sql.NullTime) any {
	if !t.Valid {
		return nil
	}
	return t.Time
}

func getCampaignHandler(campaigns repository.CampaignsRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		cmp, err := campaigns.Get(c.Request().Context(), c.Param("id"))
		if err != nil {
			log.Errorf("campaign lookup failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		if cmp == nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "campaign not found"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"id":              cmp.ID,
			"name":            cmp.Name,
			"status":          cmp.Status,
			"total_contacts":  cmp.TotalContacts,
			"sent_count":      cmp.SentCount,
			"delivered_count": cmp.DeliveredCount,
			"read_count":      cmp.ReadCount,
			"failed_count":    cmp.FailedCount,
			"started_at":      nullTime(cmp.StartedAt),
			"completed_at":    nullTime(cmp.CompletedAt),
		})
	}
}

func startCampaignHandler(svc *campaign.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")

		// enroll rows + activate + outbox publish in one pass
		total, err := svc.Start(c.Request().Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, campaign.ErrNotFound):
				return c.JSON(http.StatusNotFound, map[string]string{"error": "campaign not found"})
			case errors.Is(err, campaign.ErrInvalidState):
				return c.JSON(http.StatusConflict, map[string]string{"error": "campaign is not startable"})
			case errors.Is(err, campaign.ErrNoEligibleContacts):
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "no eligible contacts"})
			}

			log.Errorf("start campaign %s failed: %v", id, err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		return c.JSON(http.StatusAccepted, map[string]any{
			"dispatched":     true,
			"campaign_id":    id,
			"total_contacts": total,
		})
	}
}

func pauseCampaignHandler(svc *campaign.Service) echo.HandlerFunc {
	return transitionHandler("pause", svc.Pause)
}

func cancelCampaignHandler(svc *campaign.Service) echo.HandlerFunc {
	return transitionHandler("cancel", svc.Cancel)
}

// transitionHandler shares the error mapping between pause and cancel.
func transitionHandler(action string, fn func(ctx context.Context, campaignID string) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")

		if err := fn(c.Request().Context(), id); err != nil {
			switch {
			case errors.Is(err, campaign.ErrNotFound):
				return c.JSON(http.StatusNotFound, map[string]string{"error": "campaign not found"})
			case errors.Is(err, campaign.ErrInvalidState):
				return c.JSON(http.StatusConflict, map[string]string{"error": "invalid state for " + action})
			}

			log.Errorf("%s campaign %s failed: %v", action, id, err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		return c.JSON(http.StatusOK, map[string]any{"action": action, "campaign_id": id})
	}
}
