// Package verify probes unverified contacts against the gateway's WhatsApp
// existence check and persists the tri-state outcome.
package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rfagundes/zapblast/internal/gateway"
	"github.com/rfagundes/zapblast/internal/logger"
	"github.com/rfagundes/zapblast/internal/repository"
	"github.com/rfagundes/zapblast/internal/util"
	"go.uber.org/zap"
)

var (
	ErrAudienceNotFound    = errors.New("audience not found")
	ErrNoConnectedInstance = errors.New("no connected instance available")
)

type Service struct {
	contacts    repository.ContactsRepository
	audiences   repository.AudiencesRepository
	instances   repository.InstancesRepository
	gw          gateway.Client
	countryCode string
	probeDelay  time.Duration

	// Sleep paces probes so verification does not hammer the gateway.
	// Overridable in tests.
	Sleep func(ctx context.Context, d time.Duration)
}

func New(
	contacts repository.ContactsRepository,
	audiences repository.AudiencesRepository,
	instances repository.InstancesRepository,
	gw gateway.Client,
	countryCode string,
	probeDelay time.Duration,
) *Service {
	return &Service{
		contacts:    contacts,
		audiences:   audiences,
		instances:   instances,
		gw:          gw,
		countryCode: countryCode,
		probeDelay:  probeDelay,
		Sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Audience probes every contact of the audience whose WhatsApp capability is
// still unknown. Each raw number expands to its candidate JID variations
// (with and without the Brazilian mobile 9); the first variation the gateway
// confirms becomes the contact's canonical phone. A contact whose probes all
// fail is recorded as not WhatsApp-capable rather than aborting the batch.
// Returns the number of contacts verified.
func (s *Service) Audience(ctx context.Context, audienceID string) (int, error) {
	aud, err := s.audiences.Get(ctx, audienceID)
	if err != nil {
		return 0, fmt.Errorf("load audience: %w", err)
	}
	if aud == nil {
		return 0, ErrAudienceNotFound
	}

	pending, err := s.contacts.ListUnverified(ctx, audienceID)
	if err != nil {
		return 0, fmt.Errorf("list unverified contacts: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	inst, err := s.instances.FirstConnected(ctx)
	if err != nil {
		return 0, fmt.Errorf("find connected instance: %w", err)
	}
	if inst == nil {
		return 0, ErrNoConnectedInstance
	}

	verified := 0
	for _, contact := range pending {
		if ctx.Err() != nil {
			break
		}

		exists := false
		name := ""
		canonical := ""
		for _, jid := range util.PhoneJIDVariations(contact.Phone, s.countryCode) {
			check, err := s.gw.CheckNumber(ctx, inst.Name, jid)
			if err != nil {
				logger.Log.Warn("whatsapp existence probe failed",
					zap.String("contact_id", contact.ID),
					zap.String("jid", jid),
					zap.Error(err))
				continue
			}
			if check.Exists {
				exists = true
				name = check.Name
				canonical = jid
				break
			}
		}

		if err := s.contacts.SetVerification(ctx, contact.ID, exists, name, canonical); err != nil {
			return verified, fmt.Errorf("persist verification for %s: %w", contact.ID, err)
		}
		verified++

		s.Sleep(ctx, s.probeDelay)
	}

	if err := s.audiences.RecomputeCounters(ctx, audienceID); err != nil {
		return verified, fmt.Errorf("recompute audience counters: %w", err)
	}
	return verified, nil
}
