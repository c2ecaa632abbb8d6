package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/rfagundes/zapblast/internal/model"
)

// AudiencesRepository defines persistence for named contact lists.
type AudiencesRepository interface {
	Get(ctx context.Context, id string) (*model.Audience, error)

	// RecomputeCounters rebuilds total/active contact counts from the
	// contacts table. Called after any contact-set mutation; the columns are
	// a cache, never a source of truth.
	RecomputeCounters(ctx context.Context, id string) error
}

type AudiencesRepositoryImpl struct {
	db *sqlx.DB
}

func NewAudiencesRepository(db *sqlx.DB) *AudiencesRepositoryImpl {
	return &AudiencesRepositoryImpl{db: db}
}

var _ AudiencesRepository = (*AudiencesRepositoryImpl)(nil)

func (r *AudiencesRepositoryImpl) Get(ctx context.Context, id string) (*model.Audience, error) {
	var a model.Audience
	err := r.db.GetContext(ctx, &a, `
		SELECT id, name, description, total_contacts, active_contacts, created_at, updated_at
		  FROM audiences
		 WHERE id = ? LIMIT 1
	`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AudiencesRepositoryImpl) RecomputeCounters(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE audiences a
		   SET a.total_contacts = (
		           SELECT COUNT(*) FROM contacts c WHERE c.audience_id = a.id
		       ),
		       a.active_contacts = (
		           SELECT COUNT(*) FROM contacts c
		            WHERE c.audience_id = a.id AND c.status = 'active'
		       ),
		       a.updated_at = NOW()
		 WHERE a.id = ?
	`, id)
	return err
}
