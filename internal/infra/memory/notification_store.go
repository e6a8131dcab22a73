package memory

import (
	"context"
	"sync"

	"lessonloop/internal/domain"
)

// NotificationStore is an in-memory implementation of app.NotificationStore.
type NotificationStore struct {
	mu    sync.RWMutex
	items []domain.Notification
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{}
}

func (s *NotificationStore) CreateNotifications(_ context.Context, batch []domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, batch...)
	return nil
}

// ListForRecipient walks insertion order backwards so the newest comes first.
func (s *NotificationStore) ListForRecipient(_ context.Context, recipientID string) ([]domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Notification, 0)
	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i].RecipientID == recipientID {
			out = append(out, s.items[i])
		}
	}
	return out, nil
}

func (s *NotificationStore) GetNotification(_ context.Context, id string) (domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.items {
		if n.ID == id {
			return n, nil
		}
	}
	return domain.Notification{}, domain.ErrNotificationNotFound
}

func (s *NotificationStore) MarkRead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Read = true
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}

func (s *NotificationStore) MarkAllRead(_ context.Context, recipientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].RecipientID == recipientID {
			s.items[i].Read = true
		}
	}
	return nil
}

func (s *NotificationStore) DeleteNotification(_ context.Context, id string) error {
	return s.remove(func(n domain.Notification) bool { return n.ID == id })
}

func (s *NotificationStore) DeleteRead(_ context.Context, recipientID string) error {
	return s.remove(func(n domain.Notification) bool { return n.RecipientID == recipientID && n.Read })
}

func (s *NotificationStore) remove(match func(domain.Notification) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	for _, n := range s.items {
		if !match(n) {
			kept = append(kept, n)
		}
	}
	s.items = kept
	return nil
}
