package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rfagundes/zapblast/internal/kafka"
	"github.com/rfagundes/zapblast/internal/logger"
	"github.com/rfagundes/zapblast/internal/model"
	"go.uber.org/zap"
)

// Dispatcher consumes campaign.dispatch jobs and runs the dispatch loop for
// each. Jobs are processed one at a time per consumer; at-least-once
// delivery is fine because the runner only re-targets rows still pending
// and the lease rejects overlapping runs for the same campaign.
type Dispatcher struct {
	Consumer *kafka.Consumer
	Runner   *Runner
}

func NewDispatcher(consumer *kafka.Consumer, runner *Runner) *Dispatcher {
	return &Dispatcher{Consumer: consumer, Runner: runner}
}

// Run blocks until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		m, err := d.Consumer.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Log.Warn("kafka fetch failed", zap.Error(err))
			time.Sleep(200 * time.Millisecond)
			continue
		}

		d.processOne(ctx, m)
	}
}

func (d *Dispatcher) processOne(ctx context.Context, m kafka.Message) {
	var job model.DispatchJob
	if err := json.Unmarshal(m.Value, &job); err != nil || job.CampaignID == "" {
		// poison message: commit and skip
		if err != nil {
			logger.Log.Warn("bad dispatch job payload", zap.Error(err))
		} else {
			logger.Log.Warn("dispatch job missing campaign_id")
		}
		_ = d.Consumer.Commit(ctx, m)
		return
	}

	logger.Log.Info("dispatch job received", zap.String("campaign_id", job.CampaignID))

	if err := d.Runner.Run(ctx, job.CampaignID); err != nil {
		if errors.Is(err, ErrDispatchRunning) {
			logger.Log.Info("dispatch already running, skipping job",
				zap.String("campaign_id", job.CampaignID))
		} else {
			// The runner already forced the campaign to cancelled; the
			// job is consumed either way.
			logger.Log.Error("dispatch run failed",
				zap.String("campaign_id", job.CampaignID),
				zap.Error(err))
		}
	}

	if err := d.Consumer.Commit(ctx, m); err != nil {
		logger.Log.Warn("kafka commit failed", zap.Error(err))
	}
}
