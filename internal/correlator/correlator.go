// Package correlator maps asynchronous gateway receipt events back onto the
// campaign_contacts row that produced the message.
package correlator

import (
	"context"
	"fmt"

	"github.com/rfagundes/zapblast/internal/config"
	"github.com/rfagundes/zapblast/internal/metrics"
	"github.com/rfagundes/zapblast/internal/model"
	"github.com/rfagundes/zapblast/internal/repository"
	"github.com/rfagundes/zapblast/internal/stats"
)

type Correlator struct {
	rows     repository.CampaignContactsRepository
	counters *stats.Service
	codes    config.StatusCodes
}

func New(rows repository.CampaignContactsRepository, counters *stats.Service, codes config.StatusCodes) *Correlator {
	return &Correlator{rows: rows, counters: counters, codes: codes}
}

// ApplyStatus handles a MESSAGES_UPDATE receipt. An unknown gateway message
// id is a no-op, not an error: the message may belong to a conversation
// outside any campaign. Advancement is strictly monotonic, so a stale
// delivered receipt arriving after read changes nothing. After any applied
// update the owning campaign's counters are recomputed.
func (c *Correlator) ApplyStatus(ctx context.Context, gatewayMessageID string, code int) error {
	var to model.ContactSendStatus
	switch code {
	case c.codes.Delivered:
		to = model.SendDelivered
	case c.codes.Read:
		to = model.SendRead
	default:
		return nil
	}

	return c.advance(ctx, gatewayMessageID, to)
}

// ApplySendAck handles a SEND_MESSAGE acknowledgement: marks the row sent
// unless it already advanced past pending. Guards against duplicate and
// out-of-order event delivery.
func (c *Correlator) ApplySendAck(ctx context.Context, gatewayMessageID string) error {
	return c.advance(ctx, gatewayMessageID, model.SendSent)
}

func (c *Correlator) advance(ctx context.Context, gatewayMessageID string, to model.ContactSendStatus) error {
	if gatewayMessageID == "" {
		return nil
	}

	row, err := c.rows.FindByGatewayMessageID(ctx, gatewayMessageID)
	if err != nil {
		return fmt.Errorf("find by gateway message id: %w", err)
	}
	if row == nil {
		return nil
	}
	if !row.Status.CanAdvanceTo(to) {
		return nil
	}

	advanced, err := c.rows.Advance(ctx, row.ID, to)
	if err != nil {
		return fmt.Errorf("advance %s to %s: %w", row.ID, to, err)
	}
	if !advanced {
		return nil
	}

	metrics.MessagesTotal.WithLabelValues(to.String()).Inc()

	if err := c.counters.Recompute(ctx, row.CampaignID); err != nil {
		return fmt.Errorf("recompute counters: %w", err)
	}
	return nil
}
