package model

import (
	"database/sql"
	"time"
)

type ContactSendStatus string

const (
	SendPending   ContactSendStatus = "pending"
	SendSent      ContactSendStatus = "sent"
	SendDelivered ContactSendStatus = "delivered"
	SendRead      ContactSendStatus = "read"
	SendFailed    ContactSendStatus = "failed"
)

func (s ContactSendStatus) String() string { return string(s) }

func (s ContactSendStatus) Valid() bool {
	switch s {
	case SendPending, SendSent, SendDelivered, SendRead, SendFailed:
		return true
	}
	return false
}

// rank orders the delivery pipeline stages. failed sits outside the
// pipeline: it is terminal for the attempt and is never advanced by
// receipts, so it gets no rank.
var sendStatusRank = map[ContactSendStatus]int{
	SendPending:   0,
	SendSent:      1,
	SendDelivered: 2,
	SendRead:      3,
}

// CanAdvanceTo reports whether a receipt may move the row from s to next.
// Advancement is strictly monotonic: a stale delivered receipt must not
// overwrite read, and failed rows are never resurrected by receipts.
func (s ContactSendStatus) CanAdvanceTo(next ContactSendStatus) bool {
	if s == SendFailed {
		return false
	}
	cur, ok := sendStatusRank[s]
	if !ok {
		return false
	}
	nxt, ok := sendStatusRank[next]
	if !ok {
		return false
	}
	return nxt > cur
}

// CampaignContact is the unit of dispatch progress: one row per
// (campaign, contact) pair, unique on that pair.
type CampaignContact struct {
	ID               string            `db:"id"`
	CampaignID       string            `db:"campaign_id"`
	ContactID        string            `db:"contact_id"`
	Status           ContactSendStatus `db:"status"`
	MessageSent      sql.NullString    `db:"message_sent"`
	GatewayMessageID sql.NullString    `db:"gateway_message_id"`
	SentAt           sql.NullTime      `db:"sent_at"`
	DeliveredAt      sql.NullTime      `db:"delivered_at"`
	ReadAt           sql.NullTime      `db:"read_at"`
	FailedAt         sql.NullTime      `db:"failed_at"`
	ErrorMessage     sql.NullString    `db:"error_message"`
	CreatedAt        time.Time         `db:"created_at"`
	UpdatedAt        time.Time         `db:"updated_at"`
}

// PendingSend is a pending campaign_contacts row joined with the contact
// fields the dispatch loop needs.
type PendingSend struct {
	CampaignContactID string         `db:"id"`
	ContactID         string         `db:"contact_id"`
	ContactName       string         `db:"contact_name"`
	Phone             string         `db:"phone"`
	FormattedPhone    sql.NullString `db:"formatted_phone"`
}
