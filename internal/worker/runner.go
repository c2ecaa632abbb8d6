package worker

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rfagundes/zapblast/internal/gateway"
	"github.com/rfagundes/zapblast/internal/lock"
	"github.com/rfagundes/zapblast/internal/logger"
	"github.com/rfagundes/zapblast/internal/metrics"
	"github.com/rfagundes/zapblast/internal/model"
	"github.com/rfagundes/zapblast/internal/repository"
	"github.com/rfagundes/zapblast/internal/spintax"
	"github.com/rfagundes/zapblast/internal/stats"
	"github.com/rfagundes/zapblast/internal/util"
	"go.uber.org/zap"
)

// ErrDispatchRunning is returned when another loop holds the campaign lease.
var ErrDispatchRunning = errors.New("dispatch already in flight for campaign")

// Runner drives one campaign's dispatch loop: strictly sequential, one
// contact's full send-and-wait cycle before the next. The pacing IS the
// anti-ban mechanism, so there is no parallelism across contacts.
//
// Liveness is polled from the store at the top of every contact iteration;
// pause/cancel issued mid-wait takes effect at the next iteration boundary.
type Runner struct {
	Campaigns repository.CampaignsRepository
	Instances repository.InstancesRepository
	Rows      repository.CampaignContactsRepository
	Counters  *stats.Service
	Gateway   gateway.Client
	Locker    lock.Locker

	LockTTL     time.Duration
	CountryCode string

	// Sleep is the single suspension primitive (typing and inter-message
	// waits). ctx-aware; overridable in tests.
	Sleep func(ctx context.Context, d time.Duration)
}

func NewRunner(
	campaigns repository.CampaignsRepository,
	instances repository.InstancesRepository,
	rows repository.CampaignContactsRepository,
	counters *stats.Service,
	gw gateway.Client,
	locker lock.Locker,
	lockTTL time.Duration,
	countryCode string,
) *Runner {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &Runner{
		Campaigns:   campaigns,
		Instances:   instances,
		Rows:        rows,
		Counters:    counters,
		Gateway:     gw,
		Locker:      locker,
		LockTTL:     lockTTL,
		CountryCode: countryCode,
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

// Run executes one dispatch iteration for the campaign under its lease.
// A second concurrent run over the same campaign id is rejected with
// ErrDispatchRunning; the lease TTL recovers a crashed owner.
//
// Fail-safe: any error escaping the per-contact scope (state reload, row
// listing) forces the campaign to cancelled so a broken loop never sits
// silently "active" forever.
func (r *Runner) Run(ctx context.Context, campaignID string) error {
	ok, err := r.Locker.Acquire(ctx, campaignID, r.LockTTL)
	if err != nil {
		return fmt.Errorf("acquire dispatch lease: %w", err)
	}
	if !ok {
		metrics.CampaignRunsTotal.WithLabelValues("locked").Inc()
		return ErrDispatchRunning
	}
	defer func() { _ = r.Locker.Release(context.WithoutCancel(ctx), campaignID) }()

	if err := r.run(ctx, campaignID); err != nil {
		logger.Log.Error("dispatch loop aborted, cancelling campaign",
			zap.String("campaign_id", campaignID),
			zap.Error(err))
		if _, serr := r.Campaigns.SetStatus(context.WithoutCancel(ctx), campaignID,
			model.CampaignCancelled, model.CampaignActive); serr != nil {
			logger.Log.Error("failed to cancel broken campaign",
				zap.String("campaign_id", campaignID),
				zap.Error(serr))
		}
		metrics.CampaignRunsTotal.WithLabelValues("failed").Inc()
		return err
	}
	return nil
}

func (r *Runner) run(ctx context.Context, campaignID string) error {
	camp, err := r.Campaigns.Get(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("load campaign: %w", err)
	}
	if camp == nil || camp.Status != model.CampaignActive {
		// Stale or duplicate job; nothing to do.
		return nil
	}

	inst, err := r.Instances.Get(ctx, camp.InstanceID)
	if err != nil {
		return fmt.Errorf("load instance: %w", err)
	}
	if inst == nil {
		return fmt.Errorf("instance %s not found", camp.InstanceID)
	}

	variants, err := r.Campaigns.ListMessages(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("load message variants: %w", err)
	}
	if len(variants) == 0 {
		return fmt.Errorf("campaign %s has no message variants", campaignID)
	}

	pending, err := r.Rows.ListPending(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("list pending contacts: %w", err)
	}

	stopped := false
	for _, p := range pending {
		// Liveness: re-read status so an external pause/cancel stops the
		// loop at the next contact boundary, leaving the rest pending.
		cur, err := r.Campaigns.Get(ctx, campaignID)
		if err != nil {
			return fmt.Errorf("reload campaign state: %w", err)
		}
		if cur == nil || cur.Status != model.CampaignActive || ctx.Err() != nil {
			stopped = true
			break
		}

		_ = r.Locker.Refresh(ctx, campaignID, r.LockTTL)

		r.sendOne(ctx, camp, inst.Name, variants, p)

		// Inter-message pacing happens even after a failure; it is the
		// principal anti-spam control, not a reward for success.
		r.Sleep(ctx, util.RandomSeconds(camp.DelayMin, camp.DelayMax))
	}

	if !stopped {
		remaining, err := r.Rows.CountPending(ctx, campaignID)
		if err != nil {
			return fmt.Errorf("count pending: %w", err)
		}
		if remaining == 0 {
			if err := r.Campaigns.MarkCompleted(ctx, campaignID); err != nil {
				return fmt.Errorf("mark completed: %w", err)
			}
			metrics.CampaignRunsTotal.WithLabelValues("completed").Inc()
		}
	} else {
		metrics.CampaignRunsTotal.WithLabelValues("stopped").Inc()
	}

	// Counters are recomputed unconditionally: background failures are only
	// observable through the persisted status and counts.
	if err := r.Counters.Recompute(context.WithoutCancel(ctx), campaignID); err != nil {
		logger.Log.Error("counter recompute failed after dispatch run",
			zap.String("campaign_id", campaignID),
			zap.Error(err))
	}
	return nil
}

// sendOne performs one contact's full cycle: pick a variant, resolve
// spintax, simulate typing, send, record the outcome. Errors never escape:
// a single bad number or gateway hiccup downgrades this contact to failed
// and the loop moves on.
func (r *Runner) sendOne(ctx context.Context, camp *model.Campaign, instance string, variants []model.CampaignMessage, p model.PendingSend) {
	phone := p.FormattedPhone.String
	if phone == "" {
		phone = util.FormatPhoneJID(p.Phone, r.CountryCode)
	}

	variant := variants[rand.Intn(len(variants))]
	text := spintax.Resolve(variant.MessageText)

	r.Gateway.SetPresence(ctx, instance, phone, gateway.PresenceComposing)
	r.Sleep(ctx, util.RandomMillis(camp.TypingDelayMin, camp.TypingDelayMax))

	var sent gateway.SendResult
	var err error
	if camp.HasMedia() {
		caption := camp.MediaCaption.String
		if caption == "" {
			caption = text
		}
		sent, err = r.Gateway.SendMedia(ctx, instance, phone, camp.MediaURL.String, caption)
	} else {
		sent, err = r.Gateway.SendText(ctx, instance, phone, text)
	}

	r.Gateway.SetPresence(ctx, instance, phone, gateway.PresencePaused)

	if err != nil {
		logger.Log.Warn("send failed",
			zap.String("campaign_id", camp.ID),
			zap.String("contact_id", p.ContactID),
			zap.Error(err))
		metrics.MessagesTotal.WithLabelValues("failed").Inc()
		if merr := r.Rows.MarkFailed(ctx, p.CampaignContactID, err.Error()); merr != nil {
			logger.Log.Error("failed to record send failure",
				zap.String("campaign_contact_id", p.CampaignContactID),
				zap.Error(merr))
		}
		return
	}

	metrics.MessagesTotal.WithLabelValues("sent").Inc()
	if merr := r.Rows.MarkSent(ctx, p.CampaignContactID, text, sent.MessageID); merr != nil {
		logger.Log.Error("failed to record sent message",
			zap.String("campaign_contact_id", p.CampaignContactID),
			zap.String("gateway_message_id", sent.MessageID),
			zap.Error(merr))
	}
}
