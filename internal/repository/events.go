package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rfagundes/zapblast/internal/model"
)

// EventsRepository archives raw gateway webhook events (ClickHouse,
// append-only) and serves the event reports endpoint.
type EventsRepository interface {
	Insert(ctx context.Context, ev model.WebhookEvent) error
	List(ctx context.Context, instanceName, eventType string, limit, offset int) ([]model.WebhookEvent, error)
}

type eventsRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewEventsRepository(ch *sqlx.DB) EventsRepository {
	return &eventsRepository{ch: ch}
}

func (r *eventsRepository) Insert(ctx context.Context, ev model.WebhookEvent) error {
	_, err := r.ch.ExecContext(ctx, `
		INSERT INTO zapblast.webhook_events
		    (received_at, instance_name, event_type, message_id, remote_jid, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`, ev.ReceivedAt, ev.InstanceName, ev.EventType, ev.MessageID, ev.RemoteJid, ev.Payload)
	return err
}

func (r *eventsRepository) List(ctx context.Context, instanceName, eventType string, limit, offset int) ([]model.WebhookEvent, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT received_at, instance_name, event_type, message_id, remote_jid, payload
		FROM zapblast.webhook_events
		WHERE 1 = 1
	`
	args := []any{}

	if instanceName != "" {
		q += " AND instance_name = ?"
		args = append(args, instanceName)
	}
	if eventType != "" {
		q += " AND event_type = ?"
		args = append(args, eventType)
	}

	q += " ORDER BY received_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []model.WebhookEvent
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
