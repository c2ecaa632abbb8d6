// Package stats recomputes the denormalized per-campaign counters from the
// authoritative campaign_contacts rows. The counters are a cache: calling
// Recompute redundantly from any trigger is always safe.
package stats

import (
	"context"
	"fmt"

	"github.com/rfagundes/zapblast/internal/model"
	"github.com/rfagundes/zapblast/internal/repository"
)

// Compute derives the campaign counters from per-status row counts.
// sent counts everything at or past the sent stage; delivered counts
// delivered and read; read and failed count themselves.
func Compute(byStatus map[model.ContactSendStatus]int) model.Counters {
	return model.Counters{
		Sent:      byStatus[model.SendSent] + byStatus[model.SendDelivered] + byStatus[model.SendRead],
		Delivered: byStatus[model.SendDelivered] + byStatus[model.SendRead],
		Read:      byStatus[model.SendRead],
		Failed:    byStatus[model.SendFailed],
	}
}

// Service writes recomputed counters back to the campaign row.
type Service struct {
	campaigns repository.CampaignsRepository
	contacts  repository.CampaignContactsRepository
}

func NewService(campaigns repository.CampaignsRepository, contacts repository.CampaignContactsRepository) *Service {
	return &Service{campaigns: campaigns, contacts: contacts}
}

func (s *Service) Recompute(ctx context.Context, campaignID string) error {
	byStatus, err := s.contacts.CountByStatus(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("count by status: %w", err)
	}

	if err := s.campaigns.UpdateCounters(ctx, campaignID, Compute(byStatus)); err != nil {
		return fmt.Errorf("update counters: %w", err)
	}
	return nil
}
