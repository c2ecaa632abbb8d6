package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/rfagundes/zapblast/internal/model"
)

// InstancesRepository mirrors gateway-side connection state into rows.
type InstancesRepository interface {
	Get(ctx context.Context, id string) (*model.Instance, error)
	GetByName(ctx context.Context, name string) (*model.Instance, error)

	// FirstConnected returns any connected instance, used for audience
	// verification probes. nil when none is connected.
	FirstConnected(ctx context.Context) (*model.Instance, error)

	Create(ctx context.Context, in *model.Instance) error
	Delete(ctx context.Context, name string) error

	// UpdateConnection applies a connection/QR webhook event. Empty
	// phoneNumber or qrCode is stored as NULL.
	UpdateConnection(ctx context.Context, name string, status model.InstanceStatus, phoneNumber, qrCode string) error
	UpdateQRCode(ctx context.Context, name, qrCode string) error
}

type InstancesRepositoryImpl struct {
	db *sqlx.DB
}

func NewInstancesRepository(db *sqlx.DB) *InstancesRepositoryImpl {
	return &InstancesRepositoryImpl{db: db}
}

var _ InstancesRepository = (*InstancesRepositoryImpl)(nil)

const instanceColumns = `id, name, status, phone_number, qr_code, created_at, updated_at`

func (r *InstancesRepositoryImpl) get(ctx context.Context, where string, arg any) (*model.Instance, error) {
	var in model.Instance
	err := r.db.GetContext(ctx, &in,
		`SELECT `+instanceColumns+` FROM instances WHERE `+where+` LIMIT 1`, arg)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &in, nil
}

func (r *InstancesRepositoryImpl) Get(ctx context.Context, id string) (*model.Instance, error) {
	return r.get(ctx, "id = ?", id)
}

func (r *InstancesRepositoryImpl) GetByName(ctx context.Context, name string) (*model.Instance, error) {
	return r.get(ctx, "name = ?", name)
}

func (r *InstancesRepositoryImpl) FirstConnected(ctx context.Context) (*model.Instance, error) {
	return r.get(ctx, "status = ?", model.InstanceConnected.String())
}

func (r *InstancesRepositoryImpl) Create(ctx context.Context, in *model.Instance) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO instances (id, name, status, created_at, updated_at)
		VALUES (?, ?, ?, NOW(), NOW())
	`, in.ID, in.Name, in.Status.String())
	return err
}

func (r *InstancesRepositoryImpl) Delete(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM instances WHERE name = ?`, name)
	return err
}

func (r *InstancesRepositoryImpl) UpdateConnection(ctx context.Context, name string, status model.InstanceStatus, phoneNumber, qrCode string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE instances
		   SET status = ?, phone_number = NULLIF(?, ''), qr_code = NULLIF(?, ''),
		       updated_at = NOW()
		 WHERE name = ?
	`, status.String(), phoneNumber, qrCode, name)
	return err
}

func (r *InstancesRepositoryImpl) UpdateQRCode(ctx context.Context, name, qrCode string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE instances SET qr_code = NULLIF(?, ''), updated_at = NOW() WHERE name = ?
	`, qrCode, name)
	return err
}
