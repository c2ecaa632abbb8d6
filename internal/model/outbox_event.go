package model

import "time"

// OutboxEvent rows are picked up by Debezium's outbox SMT and published to
// the Kafka topic named in the `topic` column (campaign.dispatch for
// dispatch jobs).
type OutboxEvent struct {
	ID          int64     `db:"id"`
	Aggregate   string    `db:"aggregate"`    // e.g. "campaign"
	AggregateID string    `db:"aggregate_id"` // campaign ULID
	Topic       string    `db:"topic"`
	Payload     []byte    `db:"payload"`
	CreatedAt   time.Time `db:"created_at"`
}
