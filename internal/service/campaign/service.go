// Package campaign implements the campaign start protocol and the
// operator-issued pause/cancel transitions. Dispatch itself runs in the
// background worker; Start only prepares rows and enqueues the job.
package campaign

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rfagundes/zapblast/internal/model"
	"github.com/rfagundes/zapblast/internal/repository"
)

// DispatchTopic is the Kafka topic dispatch jobs are published to (via the
// outbox table and CDC).
const DispatchTopic = "campaign.dispatch"

var (
	ErrNotFound           = errors.New("campaign not found")
	ErrInvalidState       = errors.New("campaign cannot be started in its current state")
	ErrNoEligibleContacts = errors.New("no active whatsapp-capable contacts in audience")
)

type Service struct {
	campaigns repository.CampaignsRepository
	contacts  repository.ContactsRepository
	rows      repository.CampaignContactsRepository
	outbox    repository.OutboxRepository
}

func New(
	campaigns repository.CampaignsRepository,
	contacts repository.ContactsRepository,
	rows repository.CampaignContactsRepository,
	outbox repository.OutboxRepository,
) *Service {
	return &Service{
		campaigns: campaigns,
		contacts:  contacts,
		rows:      rows,
		outbox:    outbox,
	}
}

// Start runs the idempotent start/resume protocol: check preconditions,
// create missing pending rows for every eligible contact, activate the
// campaign and enqueue the dispatch job. Existing rows are never touched, so
// progress survives pause/resume and a double start never duplicates a
// contact. Returns the eligible contact count acknowledged to the caller;
// sending happens in the background worker.
func (s *Service) Start(ctx context.Context, campaignID string) (int, error) {
	camp, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		return 0, fmt.Errorf("load campaign: %w", err)
	}
	if camp == nil {
		return 0, ErrNotFound
	}
	if !camp.Status.Startable() {
		return 0, ErrInvalidState
	}

	eligible, err := s.contacts.ListEligible(ctx, camp.AudienceID)
	if err != nil {
		return 0, fmt.Errorf("list eligible contacts: %w", err)
	}
	if len(eligible) == 0 {
		return 0, ErrNoEligibleContacts
	}

	ids := make([]string, 0, len(eligible))
	for _, c := range eligible {
		ids = append(ids, c.ID)
	}
	if _, err := s.rows.CreateMissing(ctx, campaignID, ids); err != nil {
		return 0, fmt.Errorf("create campaign contacts: %w", err)
	}

	if err := s.campaigns.MarkActive(ctx, campaignID, len(eligible)); err != nil {
		return 0, fmt.Errorf("mark active: %w", err)
	}

	payload, err := json.Marshal(model.DispatchJob{CampaignID: campaignID})
	if err != nil {
		return 0, fmt.Errorf("marshal dispatch job: %w", err)
	}
	if err := s.outbox.Insert(ctx, nil, "campaign", campaignID, DispatchTopic, payload); err != nil {
		return 0, fmt.Errorf("enqueue dispatch job: %w", err)
	}

	return len(eligible), nil
}

// Pause records the operator's pause signal. The running loop observes it at
// the top of its next contact iteration; rows still pending stay pending.
func (s *Service) Pause(ctx context.Context, campaignID string) error {
	return s.transition(ctx, campaignID, model.CampaignPaused, model.CampaignActive)
}

// Cancel terminates the campaign from any non-terminal state.
func (s *Service) Cancel(ctx context.Context, campaignID string) error {
	return s.transition(ctx, campaignID, model.CampaignCancelled,
		model.CampaignDraft, model.CampaignActive, model.CampaignPaused)
}

func (s *Service) transition(ctx context.Context, campaignID string, to model.CampaignStatus, from ...model.CampaignStatus) error {
	camp, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("load campaign: %w", err)
	}
	if camp == nil {
		return ErrNotFound
	}

	ok, err := s.campaigns.SetStatus(ctx, campaignID, to, from...)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if !ok {
		return ErrInvalidState
	}
	return nil
}
