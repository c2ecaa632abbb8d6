package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/rfagundes/zapblast/internal/correlator"
	"github.com/rfagundes/zapblast/internal/metrics"
	"github.com/rfagundes/zapblast/internal/model"
	"github.com/rfagundes/zapblast/internal/repository"
)

// webhookHandler ingests gateway events. Every event is archived (best
// effort), then routed by type. The handler always answers 200 for events it
// parsed: the gateway retries non-2xx responses and most failures here are
// not the gateway's problem.
func webhookHandler(
	instances repository.InstancesRepository,
	events repository.EventsRepository,
	corr *correlator.Correlator,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		var ev model.GatewayEvent
		if err := c.Bind(&ev); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad payload"})
		}
		if ev.Event == "" || ev.Instance == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing event or instance"})
		}

		ctx := c.Request().Context()
		metrics.WebhookEventsTotal.WithLabelValues(ev.Event).Inc()

		archiveEvent(ctx, events, ev)

		switch ev.Event {
		case model.EventConnectionUpdate:
			var data model.ConnectionUpdateData
			if err := json.Unmarshal(ev.Data, &data); err != nil {
				log.Errorf("connection update parse failed: %v", err)
				break
			}

			status := model.InstanceDisconnected
			switch data.State {
			case "open":
				status = model.InstanceConnected
			case "connecting":
				status = model.InstanceConnecting
			}

			phone := ""
			if i := strings.IndexByte(data.User.ID, '@'); i > 0 {
				phone = data.User.ID[:i]
			}

			if err := instances.UpdateConnection(ctx, ev.Instance, status, phone, data.QRCode); err != nil {
				log.Errorf("connection update for %s failed: %v", ev.Instance, err)
			}

		case model.EventQRCodeUpdated:
			var data model.QRCodeUpdateData
			if err := json.Unmarshal(ev.Data, &data); err != nil {
				log.Errorf("qr code update parse failed: %v", err)
				break
			}
			if err := instances.UpdateQRCode(ctx, ev.Instance, data.QRCode); err != nil {
				log.Errorf("qr code update for %s failed: %v", ev.Instance, err)
			}

		case model.EventMessagesUpdate:
			var data model.StatusUpdateData
			if err := json.Unmarshal(ev.Data, &data); err != nil {
				log.Errorf("status update parse failed: %v", err)
				break
			}
			if data.Key.ID == "" {
				break
			}
			if err := corr.ApplyStatus(ctx, data.Key.ID, data.Update.Status); err != nil {
				log.Errorf("status apply for message %s failed: %v", data.Key.ID, err)
			}

		case model.EventSendMessage:
			var data model.SendMessageData
			if err := json.Unmarshal(ev.Data, &data); err != nil {
				log.Errorf("send ack parse failed: %v", err)
				break
			}
			if data.Key.ID == "" || !data.Key.FromMe {
				break
			}
			if err := corr.ApplySendAck(ctx, data.Key.ID); err != nil {
				log.Errorf("send ack for message %s failed: %v", data.Key.ID, err)
			}

		case model.EventMessagesUpsert:
			// inbound messages: archived above, nothing to route

		default:
			log.Debugf("unhandled webhook event %s from %s", ev.Event, ev.Instance)
		}

		return c.JSON(http.StatusOK, map[string]bool{"received": true})
	}
}

// archiveEvent writes the raw event to the append-only store. A failed write
// never fails ingestion.
func archiveEvent(ctx context.Context, events repository.EventsRepository, ev model.GatewayEvent) {
	row := model.WebhookEvent{
		ReceivedAt:   time.Now().UTC(),
		InstanceName: ev.Instance,
		EventType:    ev.Event,
		Payload:      string(ev.Data),
	}

	// best effort to pull the message key for filterable columns
	var key struct {
		Key model.MessageKey `json:"key"`
	}
	if err := json.Unmarshal(ev.Data, &key); err == nil {
		row.MessageID = key.Key.ID
		row.RemoteJid = key.Key.RemoteJid
	}

	if err := events.Insert(ctx, row); err != nil {
		log.Errorf("event archive failed: %v", err)
	}
}
