// Package service dispatches notifications. In-app notifications are stored
// directly; email notifications are written pending and flushed to the SMTP
// sender by the Flusher.
package service

import (
	"context"
	"sync/atomic"

	"github.com/JamshedLatipov/crm-sub002/internal/notification/repository"
	"github.com/JamshedLatipov/crm-sub002/platform/apperr"
	"github.com/JamshedLatipov/crm-sub002/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Repository defines the notification persistence interface.
type Repository interface {
	Create(ctx context.Context, params repository.CreateParams) (repository.Notification, error)
	List(ctx context.Context, limit int) ([]repository.Notification, error)
	ListPending(ctx context.Context, channel string, limit int) ([]repository.Notification, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// EmailSender delivers a single email message. May be nil when SMTP is not
// configured; email notifications then stay pending.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SendParams describes one notification to dispatch.
type SendParams struct {
	Channel    string
	Recipient  string
	Subject    string
	Body       string
	EntityType string
	EntityID   *uuid.UUID
}

type Service struct {
	repo  Repository
	email EmailSender
	log   *logger.Logger
}

func New(repo Repository, email EmailSender, log *logger.Logger) *Service {
	return &Service{repo: repo, email: email, log: log}
}

// Send stores the notification. In-app notifications are complete once
// stored; email notifications wait in the outbox for the flusher.
func (s *Service) Send(ctx context.Context, params SendParams) error {
	switch params.Channel {
	case repository.ChannelInApp, repository.ChannelEmail:
	default:
		return apperr.Validation("unknown notification channel: " + params.Channel)
	}
	if params.Channel == repository.ChannelEmail && params.Recipient == "" {
		return apperr.Validation("email notifications need a recipient")
	}

	status := repository.StatusSent
	if params.Channel == repository.ChannelEmail {
		status = repository.StatusPending
	}

	n, err := s.repo.Create(ctx, repository.CreateParams{
		Channel:    params.Channel,
		Recipient:  params.Recipient,
		Subject:    params.Subject,
		Body:       params.Body,
		EntityType: params.EntityType,
		EntityID:   params.EntityID,
		Status:     status,
	})
	if err != nil {
		return err
	}

	s.log.Info("notification queued", "notificationId", n.ID, "channel", n.Channel, "status", n.Status)
	return nil
}

// List returns recent notifications, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]repository.Notification, error) {
	return s.repo.List(ctx, limit)
}

// FlushEmails delivers pending email notifications. A delivery failure marks
// the row failed and moves on; it is never retried automatically. Returns the
// number of notifications sent.
func (s *Service) FlushEmails(ctx context.Context) (int, error) {
	if s.email == nil {
		return 0, nil
	}

	pending, err := s.repo.ListPending(ctx, repository.ChannelEmail, 100)
	if err != nil {
		return 0, err
	}

	var sent atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, n := range pending {
		g.Go(func() error {
			if err := s.email.Send(gctx, n.Recipient, n.Subject, n.Body); err != nil {
				s.log.Error("email notification failed", "notificationId", n.ID, "error", err)
				if markErr := s.repo.MarkFailed(gctx, n.ID, err.Error()); markErr != nil {
					s.log.Error("failed to mark notification failed", "notificationId", n.ID, "error", markErr)
				}
				return nil
			}
			if err := s.repo.MarkSent(gctx, n.ID); err != nil {
				s.log.Error("failed to mark notification sent", "notificationId", n.ID, "error", err)
				return nil
			}
			sent.Add(1)
			return nil
		})
	}

	_ = g.Wait()
	return int(sent.Load()), nil
}
