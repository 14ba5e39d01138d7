// Package repository persists notifications raised by automation rules and
// due follow-up reminders. Email notifications go through an outbox: rows are
// inserted pending and flushed by the dispatcher.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("notification not found")

const (
	ChannelInApp = "inapp"
	ChannelEmail = "email"

	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

type Notification struct {
	ID         uuid.UUID
	Channel    string
	Recipient  string
	Subject    string
	Body       string
	EntityType string
	EntityID   *uuid.UUID
	Status     string
	LastError  *string
	CreatedAt  time.Time
	SentAt     *time.Time
}

type CreateParams struct {
	Channel    string
	Recipient  string
	Subject    string
	Body       string
	EntityType string
	EntityID   *uuid.UUID
	Status     string
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const notificationCols = `
	id, channel, recipient, subject, body, entity_type, entity_id, status, last_error, created_at, sent_at`

func (r *Repository) Create(ctx context.Context, params CreateParams) (Notification, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (channel, recipient, subject, body, entity_type, entity_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING`+notificationCols+`
	`, params.Channel, params.Recipient, params.Subject, params.Body, params.EntityType, params.EntityID, params.Status)

	return scanNotification(row)
}

// List returns the most recent notifications, newest first.
func (r *Repository) List(ctx context.Context, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT`+notificationCols+`
		FROM notifications
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectNotifications(rows)
}

// ListPending returns pending rows for the channel in insertion order.
func (r *Repository) ListPending(ctx context.Context, channel string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT`+notificationCols+`
		FROM notifications
		WHERE status = $1 AND channel = $2
		ORDER BY created_at ASC
		LIMIT $3
	`, StatusPending, channel, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectNotifications(rows)
}

func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET status = $1, sent_at = now(), last_error = NULL
		WHERE id = $2
	`, StatusSent, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET status = $1, last_error = $2
		WHERE id = $3
	`, StatusFailed, reason, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanNotification(row pgx.Row) (Notification, error) {
	var n Notification
	err := row.Scan(
		&n.ID, &n.Channel, &n.Recipient, &n.Subject, &n.Body,
		&n.EntityType, &n.EntityID, &n.Status, &n.LastError, &n.CreatedAt, &n.SentAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Notification{}, ErrNotFound
	}
	return n, err
}

func collectNotifications(rows pgx.Rows) ([]Notification, error) {
	out := make([]Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
