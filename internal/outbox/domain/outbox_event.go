// Package domain defines the core outbox domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// OutboxEventStatus represents the status of an outbox event
type OutboxEventStatus string

const (
	OutboxEventStatusPending   OutboxEventStatus = "pending"
	OutboxEventStatusProcessed OutboxEventStatus = "processed"
	OutboxEventStatusFailed    OutboxEventStatus = "failed"
)

// Event types emitted by this service.
const (
	EventTypeAccountRegistered = "account.registered"
)

// OutboxEvent represents an event in the transactional outbox pattern.
// Events are written in the same transaction as the state change they
// describe, then delivered asynchronously by the processor loop.
type OutboxEvent struct {
	ID          uuid.UUID
	EventType   string
	Payload     string
	Status      OutboxEventStatus
	Retries     int
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
