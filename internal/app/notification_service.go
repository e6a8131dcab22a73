package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"lessonloop/internal/domain"
)

// NotificationService fans announcements out to class rosters and lets each
// recipient manage their own inbox.
type NotificationService struct {
	store NotificationStore
	now   func() time.Time
}

func NewNotificationService(store NotificationStore) *NotificationService {
	return &NotificationService{store: store, now: time.Now}
}

// Broadcast creates one notification per recipient.
func (s *NotificationService) Broadcast(ctx context.Context, recipients []string, typ domain.NotificationType, message, link string) error {
	if len(recipients) == 0 {
		return nil
	}
	now := s.now().UTC()
	batch := make([]domain.Notification, 0, len(recipients))
	for _, id := range recipients {
		batch = append(batch, domain.Notification{
			ID:          uuid.NewString(),
			RecipientID: id,
			Type:        typ,
			Message:     message,
			Link:        link,
			CreatedAt:   now,
		})
	}
	return s.store.CreateNotifications(ctx, batch)
}

// List returns the requester's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, requester domain.User) ([]domain.Notification, error) {
	return s.store.ListForRecipient(ctx, requester.ID)
}

func (s *NotificationService) owned(ctx context.Context, requester domain.User, id string) (domain.Notification, error) {
	n, err := s.store.GetNotification(ctx, id)
	if err != nil {
		return domain.Notification{}, err
	}
	if n.RecipientID != requester.ID {
		return domain.Notification{}, domain.Forbidden("Not authorized to access this notification")
	}
	return n, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, requester domain.User, id string) (domain.Notification, error) {
	n, err := s.owned(ctx, requester, id)
	if err != nil {
		return domain.Notification{}, err
	}
	if err := s.store.MarkRead(ctx, id); err != nil {
		return domain.Notification{}, err
	}
	n.Read = true
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, requester domain.User) error {
	return s.store.MarkAllRead(ctx, requester.ID)
}

func (s *NotificationService) Delete(ctx context.Context, requester domain.User, id string) error {
	if _, err := s.owned(ctx, requester, id); err != nil {
		return err
	}
	return s.store.DeleteNotification(ctx, id)
}

// DeleteRead clears every notification the requester has already read.
func (s *NotificationService) DeleteRead(ctx context.Context, requester domain.User) error {
	return s.store.DeleteRead(ctx, requester.ID)
}
