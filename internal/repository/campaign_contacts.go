package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rfagundes/zapblast/internal/model"
	"github.com/rfagundes/zapblast/internal/util"
)

// CampaignContactsRepository persists per-recipient dispatch progress.
type CampaignContactsRepository interface {
	// CreateMissing inserts a pending row for every contact not yet part of
	// the campaign. Idempotent on (campaign_id, contact_id): rows that
	// already exist are left untouched, preserving progress across
	// pause/resume. Returns the number of rows actually created.
	CreateMissing(ctx context.Context, campaignID string, contactIDs []string) (int64, error)

	// ListPending returns pending rows joined with the contact fields the
	// dispatch loop needs, in stable retrieval order.
	ListPending(ctx context.Context, campaignID string) ([]model.PendingSend, error)

	CountPending(ctx context.Context, campaignID string) (int, error)
	CountByStatus(ctx context.Context, campaignID string) (map[model.ContactSendStatus]int, error)

	MarkSent(ctx context.Context, id, messageSent, gatewayMessageID string) error
	MarkFailed(ctx context.Context, id, errorMessage string) error

	FindByGatewayMessageID(ctx context.Context, gatewayMessageID string) (*model.CampaignContact, error)

	// Advance moves a row to `to` only when the current status precedes it
	// in the delivery pipeline, stamping the matching timestamp. Returns
	// false for stale or out-of-order receipts.
	Advance(ctx context.Context, id string, to model.ContactSendStatus) (bool, error)
}

type CampaignContactsRepositoryImpl struct {
	db *sqlx.DB
}

func NewCampaignContactsRepository(db *sqlx.DB) *CampaignContactsRepositoryImpl {
	return &CampaignContactsRepositoryImpl{db: db}
}

var _ CampaignContactsRepository = (*CampaignContactsRepositoryImpl)(nil)

func (r *CampaignContactsRepositoryImpl) CreateMissing(ctx context.Context, campaignID string, contactIDs []string) (int64, error) {
	if len(contactIDs) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	args := make([]any, 0, len(contactIDs)*3)
	for i, contactID := range contactIDs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, 'pending', NOW(), NOW())")
		args = append(args, util.New(), campaignID, contactID)
	}

	// INSERT IGNORE + UNIQUE(campaign_id, contact_id) makes the start
	// protocol safely re-runnable.
	q := `
		INSERT IGNORE INTO campaign_contacts
		    (id, campaign_id, contact_id, status, created_at, updated_at)
		VALUES ` + sb.String()

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *CampaignContactsRepositoryImpl) ListPending(ctx context.Context, campaignID string) ([]model.PendingSend, error) {
	var rows []model.PendingSend
	err := r.db.SelectContext(ctx, &rows, `
		SELECT cc.id, cc.contact_id, c.name AS contact_name, c.phone, c.formatted_phone
		  FROM campaign_contacts cc
		  JOIN contacts c ON c.id = cc.contact_id
		 WHERE cc.campaign_id = ? AND cc.status = 'pending'
		 ORDER BY cc.created_at ASC, cc.id ASC
	`, campaignID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CampaignContactsRepositoryImpl) CountPending(ctx context.Context, campaignID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM campaign_contacts WHERE campaign_id = ? AND status = 'pending'
	`, campaignID)
	return n, err
}

func (r *CampaignContactsRepositoryImpl) CountByStatus(ctx context.Context, campaignID string) (map[model.ContactSendStatus]int, error) {
	var rows []struct {
		Status model.ContactSendStatus `db:"status"`
		N      int                     `db:"n"`
	}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT status, COUNT(*) AS n
		  FROM campaign_contacts
		 WHERE campaign_id = ?
		 GROUP BY status
	`, campaignID)
	if err != nil {
		return nil, err
	}

	out := make(map[model.ContactSendStatus]int, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

func (r *CampaignContactsRepositoryImpl) MarkSent(ctx context.Context, id, messageSent, gatewayMessageID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE campaign_contacts
		   SET status = 'sent', message_sent = ?, gateway_message_id = ?,
		       sent_at = NOW(), updated_at = NOW()
		 WHERE id = ?
	`, messageSent, gatewayMessageID, id)
	return err
}

func (r *CampaignContactsRepositoryImpl) MarkFailed(ctx context.Context, id, errorMessage string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE campaign_contacts
		   SET status = 'failed', error_message = ?, failed_at = NOW(), updated_at = NOW()
		 WHERE id = ?
	`, errorMessage, id)
	return err
}

func (r *CampaignContactsRepositoryImpl) FindByGatewayMessageID(ctx context.Context, gatewayMessageID string) (*model.CampaignContact, error) {
	var cc model.CampaignContact
	err := r.db.GetContext(ctx, &cc, `
		SELECT id, campaign_id, contact_id, status, message_sent, gateway_message_id,
		       sent_at, delivered_at, read_at, failed_at, error_message,
		       created_at, updated_at
		  FROM campaign_contacts
		 WHERE gateway_message_id = ? LIMIT 1
	`, gatewayMessageID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cc, nil
}

func (r *CampaignContactsRepositoryImpl) Advance(ctx context.Context, id string, to model.ContactSendStatus) (bool, error) {
	var q string
	switch to {
	case model.SendSent:
		q = `UPDATE campaign_contacts
		        SET status = 'sent', sent_at = NOW(), updated_at = NOW()
		      WHERE id = ? AND status = 'pending'`
	case model.SendDelivered:
		q = `UPDATE campaign_contacts
		        SET status = 'delivered', delivered_at = NOW(), updated_at = NOW()
		      WHERE id = ? AND status IN ('pending', 'sent')`
	case model.SendRead:
		q = `UPDATE campaign_contacts
		        SET status = 'read', read_at = NOW(), updated_at = NOW()
		      WHERE id = ? AND status IN ('pending', 'sent', 'delivered')`
	default:
		return false, nil
	}

	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
