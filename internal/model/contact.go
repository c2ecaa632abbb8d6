package model

import (
	"database/sql"
	"time"
)

type ContactStatus string

const (
	ContactActive   ContactStatus = "active"
	ContactInactive ContactStatus = "inactive"
)

func (s ContactStatus) String() string { return string(s) }

// Contact belongs to one audience. HasWhatsApp is tri-state: NULL means the
// number was never probed against the gateway.
type Contact struct {
	ID             string         `db:"id"`
	AudienceID     string         `db:"audience_id"`
	Name           string         `db:"name"`
	Phone          string         `db:"phone"`
	FormattedPhone sql.NullString `db:"formatted_phone"`
	WhatsAppName   sql.NullString `db:"whatsapp_name"`
	HasWhatsApp    sql.NullBool   `db:"has_whatsapp"`
	Status         ContactStatus  `db:"status"`
	Tag            sql.NullString `db:"tag"`
	Observations   sql.NullString `db:"observations"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

// Audience is a named contact list. total/active counts are a cache
// recomputed after any contact-set mutation.
type Audience struct {
	ID             string         `db:"id"`
	Name           string         `db:"name"`
	Description    sql.NullString `db:"description"`
	TotalContacts  int            `db:"total_contacts"`
	ActiveContacts int            `db:"active_contacts"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}
