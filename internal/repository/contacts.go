package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rfagundes/zapblast/internal/model"
)

// ContactsRepository defines persistence for audience members.
type ContactsRepository interface {
	// ListEligible returns the contacts a campaign may target: active and
	// confirmed WhatsApp-capable.
	ListEligible(ctx context.Context, audienceID string) ([]model.Contact, error)

	// ListUnverified returns contacts whose WhatsApp capability was never
	// probed (tri-state NULL).
	ListUnverified(ctx context.Context, audienceID string) ([]model.Contact, error)

	// SetVerification records the probe outcome. Empty whatsappName or
	// formattedPhone is stored as NULL.
	SetVerification(ctx context.Context, id string, hasWhatsApp bool, whatsappName, formattedPhone string) error
}

type ContactsRepositoryImpl struct {
	db *sqlx.DB
}

func NewContactsRepository(db *sqlx.DB) *ContactsRepositoryImpl {
	return &ContactsRepositoryImpl{db: db}
}

var _ ContactsRepository = (*ContactsRepositoryImpl)(nil)

const contactColumns = `
	id, audience_id, name, phone, formatted_phone, whatsapp_name,
	has_whatsapp, status, tag, observations, created_at, updated_at
`

func (r *ContactsRepositoryImpl) ListEligible(ctx context.Context, audienceID string) ([]model.Contact, error) {
	var rows []model.Contact
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+contactColumns+`
		  FROM contacts
		 WHERE audience_id = ? AND status = 'active' AND has_whatsapp = 1
		 ORDER BY created_at ASC, id ASC
	`, audienceID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ContactsRepositoryImpl) ListUnverified(ctx context.Context, audienceID string) ([]model.Contact, error) {
	var rows []model.Contact
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+contactColumns+`
		  FROM contacts
		 WHERE audience_id = ? AND has_whatsapp IS NULL
		 ORDER BY created_at ASC, id ASC
	`, audienceID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ContactsRepositoryImpl) SetVerification(ctx context.Context, id string, hasWhatsApp bool, whatsappName, formattedPhone string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE contacts
		   SET has_whatsapp = ?,
		       whatsapp_name = NULLIF(?, ''),
		       formatted_phone = NULLIF(?, ''),
		       updated_at = NOW()
		 WHERE id = ?
	`, hasWhatsApp, whatsappName, formattedPhone, id)
	return err
}
