package model

import (
	"database/sql"
	"strings"
	"time"
)

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
	CampaignCancelled CampaignStatus = "cancelled"
)

func (s CampaignStatus) String() string { return string(s) }

func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignDraft, CampaignActive, CampaignPaused, CampaignCompleted, CampaignCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s CampaignStatus) Terminal() bool {
	return s == CampaignCompleted || s == CampaignCancelled
}

// Startable reports whether the dispatch start protocol may run.
func (s CampaignStatus) Startable() bool {
	return s == CampaignDraft || s == CampaignPaused
}

type MessageKind string

const (
	MessageKindText  MessageKind = "text"
	MessageKindMedia MessageKind = "media"
)

func (k MessageKind) String() string { return string(k) }

// ParseMessageKind normalizes input; empty => text.
// Returns (value, true) if valid; otherwise (text, false).
func ParseMessageKind(s string) (MessageKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return MessageKindText, true
	case "media":
		return MessageKindMedia, true
	default:
		return MessageKindText, false
	}
}

// Campaign is one bulk-send job over an audience through one instance.
// The *_count columns are a cache derived from campaign_contacts rows and
// must only be written by the counter recomputation.
type Campaign struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	InstanceID  string         `db:"instance_id"`
	AudienceID  string         `db:"audience_id"`
	Status      CampaignStatus `db:"status"`
	MessageType MessageKind    `db:"message_type"`
	MediaURL    sql.NullString `db:"media_url"`
	MediaCaption sql.NullString `db:"media_caption"`

	// Pacing: inter-message delay in seconds, typing simulation in ms.
	DelayMin       int `db:"delay_min"`
	DelayMax       int `db:"delay_max"`
	TypingDelayMin int `db:"typing_delay_min"`
	TypingDelayMax int `db:"typing_delay_max"`

	TotalContacts  int `db:"total_contacts"`
	SentCount      int `db:"sent_count"`
	DeliveredCount int `db:"delivered_count"`
	ReadCount      int `db:"read_count"`
	FailedCount    int `db:"failed_count"`

	StartedAt   sql.NullTime `db:"started_at"`
	CompletedAt sql.NullTime `db:"completed_at"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}

// HasMedia reports whether dispatch should go through the media send path.
func (c *Campaign) HasMedia() bool {
	return c.MessageType == MessageKindMedia && c.MediaURL.Valid && c.MediaURL.String != ""
}

// CampaignMessage is one spintax template variant. order_index gives the
// variants a stable order; selection among them is random.
type CampaignMessage struct {
	ID          string    `db:"id"`
	CampaignID  string    `db:"campaign_id"`
	MessageText string    `db:"message_text"`
	OrderIndex  int       `db:"order_index"`
	CreatedAt   time.Time `db:"created_at"`
}

// Counters is the derived per-campaign projection written back to the
// campaigns row. sent includes delivered and read; delivered includes read.
type Counters struct {
	Sent      int
	Delivered int
	Read      int
	Failed    int
}
