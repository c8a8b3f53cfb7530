package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/parlorchat/parlor/internal/database"
	"github.com/parlorchat/parlor/internal/outbox/domain"
)

// MySQLOutboxEventRepository handles outbox event persistence for MySQL
type MySQLOutboxEventRepository struct {
	db *sql.DB
}

// NewMySQLOutboxEventRepository creates a new MySQLOutboxEventRepository
func NewMySQLOutboxEventRepository(db *sql.DB) *MySQLOutboxEventRepository {
	return &MySQLOutboxEventRepository{
		db: db,
	}
}

// Create inserts a new outbox event
func (r *MySQLOutboxEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO outbox_events (id, event_type, payload, status, retries, last_error, processed_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, event.ID.String(), event.EventType, event.Payload, event.Status,
		event.Retries, event.LastError, event.ProcessedAt)

	return err
}

// GetPendingEvents retrieves pending events with limit
func (r *MySQLOutboxEventRepository) GetPendingEvents(
	ctx context.Context,
	limit int,
) ([]*domain.OutboxEvent, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, event_type, payload, status, retries, last_error, processed_at, created_at, updated_at
			  FROM outbox_events
			  WHERE status = ?
			  ORDER BY created_at ASC
			  LIMIT ?
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, domain.OutboxEventStatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var events []*domain.OutboxEvent
	for rows.Next() {
		var event domain.OutboxEvent
		var id string

		err := rows.Scan(&id, &event.EventType, &event.Payload, &event.Status,
			&event.Retries, &event.LastError, &event.ProcessedAt, &event.CreatedAt, &event.UpdatedAt)
		if err != nil {
			return nil, err
		}

		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, err
		}
		event.ID = parsed

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// Update updates an outbox event
func (r *MySQLOutboxEventRepository) Update(ctx context.Context, event *domain.OutboxEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_events
			  SET event_type = ?, payload = ?, status = ?, retries = ?, last_error = ?,
			      processed_at = ?, updated_at = NOW()
			  WHERE id = ?`

	_, err := querier.ExecContext(ctx, query, event.EventType, event.Payload, event.Status,
		event.Retries, event.LastError, event.ProcessedAt, event.ID.String())

	return err
}

// DeleteProcessedBefore removes processed events older than the cutoff and
// returns the number of deleted rows
func (r *MySQLOutboxEventRepository) DeleteProcessedBefore(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM outbox_events WHERE status = ? AND processed_at < ?`

	result, err := querier.ExecContext(ctx, query, domain.OutboxEventStatusProcessed, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
