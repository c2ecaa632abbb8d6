package model

import (
	"database/sql"
	"time"
)

type InstanceStatus string

const (
	InstanceConnected    InstanceStatus = "connected"
	InstanceConnecting   InstanceStatus = "connecting"
	InstanceDisconnected InstanceStatus = "disconnected"
)

func (s InstanceStatus) String() string { return string(s) }

// Instance is one WhatsApp account connection managed through the gateway.
// name is what the gateway addresses; the row mirrors gateway-side state
// pushed in via connection webhooks.
type Instance struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Status      InstanceStatus `db:"status"`
	PhoneNumber sql.NullString `db:"phone_number"`
	QRCode      sql.NullString `db:"qr_code"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}
