package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/rfagundes/zapblast/internal/model"
)

// CampaignsRepository defines persistence for campaigns and their message
// variants.
type CampaignsRepository interface {
	Get(ctx context.Context, id string) (*model.Campaign, error)
	ListMessages(ctx context.Context, campaignID string) ([]model.CampaignMessage, error)

	// MarkActive flips the campaign to active, stamps started_at on the
	// first start only, and caches the audience size.
	MarkActive(ctx context.Context, id string, totalContacts int) error

	// MarkCompleted finishes an active campaign. A campaign paused or
	// cancelled externally mid-loop is left untouched.
	MarkCompleted(ctx context.Context, id string) error

	// SetStatus transitions id to `to` only when the current status is one
	// of `from`. Returns false when no transition happened.
	SetStatus(ctx context.Context, id string, to model.CampaignStatus, from ...model.CampaignStatus) (bool, error)

	UpdateCounters(ctx context.Context, id string, c model.Counters) error
}

type CampaignsRepositoryImpl struct {
	db *sqlx.DB
}

func NewCampaignsRepository(db *sqlx.DB) *CampaignsRepositoryImpl {
	return &CampaignsRepositoryImpl{db: db}
}

var _ CampaignsRepository = (*CampaignsRepositoryImpl)(nil)

func (r *CampaignsRepositoryImpl) Get(ctx context.Context, id string) (*model.Campaign, error) {
	var c model.Campaign
	err := r.db.GetContext(ctx, &c, `
		SELECT id, name, description, instance_id, audience_id, status,
		       message_type, media_url, media_caption,
		       delay_min, delay_max, typing_delay_min, typing_delay_max,
		       total_contacts, sent_count, delivered_count, read_count, failed_count,
		       started_at, completed_at, created_at, updated_at
		  FROM campaigns
		 WHERE id = ? LIMIT 1
	`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignsRepositoryImpl) ListMessages(ctx context.Context, campaignID string) ([]model.CampaignMessage, error) {
	var rows []model.CampaignMessage
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, campaign_id, message_text, order_index, created_at
		  FROM campaign_messages
		 WHERE campaign_id = ?
		 ORDER BY order_index ASC
	`, campaignID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CampaignsRepositoryImpl) MarkActive(ctx context.Context, id string, totalContacts int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE campaigns
		   SET status = 'active',
		       started_at = COALESCE(started_at, NOW()),
		       total_contacts = ?,
		       updated_at = NOW()
		 WHERE id = ?
	`, totalContacts, id)
	return err
}

func (r *CampaignsRepositoryImpl) MarkCompleted(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE campaigns
		   SET status = 'completed', completed_at = NOW(), updated_at = NOW()
		 WHERE id = ? AND status = 'active'
	`, id)
	return err
}

func (r *CampaignsRepositoryImpl) SetStatus(ctx context.Context, id string, to model.CampaignStatus, from ...model.CampaignStatus) (bool, error) {
	q := `UPDATE campaigns SET status = ?, updated_at = NOW() WHERE id = ?`
	args := []any{to.String(), id}

	if len(from) > 0 {
		states := make([]string, 0, len(from))
		for _, s := range from {
			states = append(states, s.String())
		}
		var err error
		q, args, err = sqlx.In(q+` AND status IN (?)`, to.String(), id, states)
		if err != nil {
			return false, err
		}
		q = r.db.Rebind(q)
	}

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *CampaignsRepositoryImpl) UpdateCounters(ctx context.Context, id string, c model.Counters) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE campaigns
		   SET sent_count = ?, delivered_count = ?, read_count = ?, failed_count = ?,
		       updated_at = NOW()
		 WHERE id = ?
	`, c.Sent, c.Delivered, c.Read, c.Failed, id)
	return err
}
