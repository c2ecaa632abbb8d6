package model

import (
	"encoding/json"
	"time"
)

// Evolution API webhook event types.
const (
	EventConnectionUpdate = "CONNECTION_UPDATE"
	EventQRCodeUpdated    = "QRCODE_UPDATED"
	EventMessagesUpsert   = "MESSAGES_UPSERT"
	EventMessagesUpdate   = "MESSAGES_UPDATE"
	EventSendMessage      = "SEND_MESSAGE"
)

// MessageKey identifies a message on the gateway side.
type MessageKey struct {
	RemoteJid string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
	ID        string `json:"id"`
}

// GatewayEvent is the inbound webhook payload posted by the gateway.
// Data keeps the raw event payload; typed accessors below pull out the
// fields each handler needs.
type GatewayEvent struct {
	Event    string          `json:"event"`
	Instance string          `json:"instance"`
	Data     json.RawMessage `json:"data"`
}

// StatusUpdateData is the MESSAGES_UPDATE payload. Update.Status is the
// gateway's numeric delivery stage; the mapping to local statuses is
// configuration, not code.
type StatusUpdateData struct {
	Key    MessageKey `json:"key"`
	Update struct {
		Status int `json:"status"`
	} `json:"update"`
}

// SendMessageData is the SEND_MESSAGE acknowledgement payload.
type SendMessageData struct {
	Key MessageKey `json:"key"`
}

// ConnectionUpdateData is the CONNECTION_UPDATE payload.
type ConnectionUpdateData struct {
	State string `json:"state"` // open | connecting | close
	User  struct {
		ID string `json:"id"` // "<digits>@s.whatsapp.net"
	} `json:"user"`
	QRCode string `json:"qrcode"`
}

// QRCodeUpdateData is the QRCODE_UPDATED payload.
type QRCodeUpdateData struct {
	QRCode string `json:"qrcode"`
}

// WebhookEvent is the archived event row (ClickHouse, append-only).
type WebhookEvent struct {
	ReceivedAt   time.Time `db:"received_at"`
	InstanceName string    `db:"instance_name"`
	EventType    string    `db:"event_type"`
	MessageID    string    `db:"message_id"`
	RemoteJid    string    `db:"remote_jid"`
	Payload      string    `db:"payload"`
}

// DispatchJob is the payload published to Kafka (via the outbox table and
// CDC) when a campaign is started or resumed.
type DispatchJob struct {
	CampaignID string `json:"campaign_id"`
}
