package http

import (
	"context"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/rfagundes/zapblast/internal/gateway"
	"github.com/rfagundes/zapblast/internal/model"
	"github.com/rfagundes/zapblast/internal/repository"
	"github.com/rfagundes/zapblast/internal/util"
)

type createInstanceReq struct {
	Name string `json:"name"`
}

func createInstanceHandler(repo repository.InstancesRepository, gw gateway.Client, webhookURL string) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createInstanceReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "name is required"})
		}

		if existing, err := repo.GetByName(c.Request().Context(), req.Name); err != nil {
			log.Errorf("instance lookup failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		} else if existing != nil {
			return c.JSON(http.StatusConflict, map[string]string{"error": "instance already exists"})
		}

		ctx := c.Request().Context()
		if err := gw.CreateInstance(ctx, req.Name); err != nil {
			log.Errorf("gateway create instance %s failed: %v", req.Name, err)

			return c.JSON(http.StatusBadGateway, map[string]string{"error": "gateway create failed"})
		}

		// register webhook so events for this instance start flowing
		if webhookURL != "" {
			if err := gw.SetWebhook(ctx, req.Name, webhookURL, gateway.DefaultWebhookEvents); err != nil {
				log.Errorf("gateway set webhook for %s failed: %v", req.Name, err)
			}
		}

		inst := &model.Instance{
			ID:     util.New(),
			Name:   req.Name,
			Status: model.InstanceDisconnected,
		}
		if err := repo.Create(ctx, inst); err != nil {
			log.Errorf("instance insert failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		return c.JSON(http.StatusCreated, map[string]any{
			"id":     inst.ID,
			"name":   inst.Name,
			"status": inst.Status,
		})
	}
}

func connectInstanceHandler(repo repository.InstancesRepository, gw gateway.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.Param("name")

		inst, err := repo.GetByName(c.Request().Context(), name)
		if err != nil {
			log.Errorf("instance lookup failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		if inst == nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "instance not found"})
		}

		info, err := gw.ConnectInstance(c.Request().Context(), name)
		if err != nil {
			log.Errorf("gateway connect %s failed: %v", name, err)

			return c.JSON(http.StatusBadGateway, map[string]string{"error": "gateway connect failed"})
		}

		if info.QRCode != "" {
			if err := repo.UpdateQRCode(c.Request().Context(), name, info.QRCode); err != nil {
				log.Errorf("qr code update for %s failed: %v", name, err)
			}
		}

		return c.JSON(http.StatusOK, map[string]any{
			"name":    name,
			"qr_code": info.QRCode,
			"state":   info.State,
		})
	}
}

func instanceStatusHandler(repo repository.InstancesRepository, gw gateway.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.Param("name")

		inst, err := repo.GetByName(c.Request().Context(), name)
		if err != nil {
			log.Errorf("instance lookup failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		if inst == nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "instance not found"})
		}

		// ask the gateway for its live view; the local row may lag
		state, err := gw.ConnectionState(c.Request().Context(), name)
		if err != nil {
			log.Errorf("gateway state for %s failed: %v", name, err)

			return c.JSON(http.StatusOK, map[string]any{
				"name":   name,
				"status": inst.Status,
				"stale":  true,
			})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"name":         name,
			"status":       inst.Status,
			"gateway_state": state,
			"phone_number": inst.PhoneNumber.String,
		})
	}
}

func restartInstanceHandler(gw gateway.Client) echo.HandlerFunc {
	return instanceActionHandler("restart", gw.RestartInstance)
}

func logoutInstanceHandler(gw gateway.Client) echo.HandlerFunc {
	return instanceActionHandler("logout", gw.LogoutInstance)
}

func deleteInstanceHandler(repo repository.InstancesRepository, gw gateway.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.Param("name")

		if err := gw.DeleteInstance(c.Request().Context(), name); err != nil {
			log.Errorf("gateway delete %s failed: %v", name, err)

			return c.JSON(http.StatusBadGateway, map[string]string{"error": "gateway delete failed"})
		}

		if err := repo.Delete(c.Request().Context(), name); err != nil {
			log.Errorf("instance delete %s failed: %v", name, err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		return c.NoContent(http.StatusNoContent)
	}
}

func instanceActionHandler(action string, fn func(ctx context.Context, name string) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.Param("name")

		if err := fn(c.Request().Context(), name); err != nil {
			log.Errorf("gateway %s %s failed: %v", action, name, err)

			return c.JSON(http.StatusBadGateway, map[string]string{"error": "gateway " + action + " failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{"action": action, "name": name})
	}
}
