// Package gateway wraps the Evolution API, the third-party WhatsApp
// automation service every send, presence signal and number check goes
// through.
package gateway

import "context"

type Presence string

const (
	PresenceComposing Presence = "composing"
	PresencePaused    Presence = "paused"
)

// SendResult carries the gateway's identifier for a sent message. The id is
// what delivery receipts are later correlated against.
type SendResult struct {
	MessageID string
	RemoteJid string
	Status    string
}

// NumberCheck is the gateway's answer to a WhatsApp existence probe.
type NumberCheck struct {
	Exists bool
	Name   string
}

// ConnectInfo is returned when connecting an instance: either a QR code to
// scan or an already-established connection.
type ConnectInfo struct {
	QRCode string
	State  string
}

// Client is the gateway surface the core consumes. SetPresence is
// best-effort: implementations swallow failures.
type Client interface {
	SendText(ctx context.Context, instance, phone, text string) (SendResult, error)
	SendMedia(ctx context.Context, instance, phone, mediaURL, caption string) (SendResult, error)
	SetPresence(ctx context.Context, instance, phone string, presence Presence)
	CheckNumber(ctx context.Context, instance, phone string) (NumberCheck, error)

	CreateInstance(ctx context.Context, name string) error
	ConnectInstance(ctx context.Context, name string) (ConnectInfo, error)
	ConnectionState(ctx context.Context, name string) (string, error)
	RestartInstance(ctx context.Context, name string) error
	LogoutInstance(ctx context.Context, name string) error
	DeleteInstance(ctx context.Context, name string) error
	SetWebhook(ctx context.Context, name, url string, events []string) error
}

// DefaultWebhookEvents is the event list registered on every instance.
var DefaultWebhookEvents = []string{
	"QRCODE_UPDATED",
	"MESSAGES_UPSERT",
	"MESSAGES_UPDATE",
	"SEND_MESSAGE",
	"CONNECTION_UPDATE",
}
