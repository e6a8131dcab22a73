package memory

import (
	"context"
	"sync"

	"lessonloop/internal/domain"
)

// UserStore is an in-memory implementation of app.UserStore.
type UserStore struct {
	mu         sync.RWMutex
	users      map[string]domain.User
	byIdentity map[string]string
}

func NewUserStore(seed ...domain.User) *UserStore {
	s := &UserStore{
		users:      make(map[string]domain.User),
		byIdentity: make(map[string]string),
	}
	for _, u := range seed {
		_ = s.CreateUser(context.Background(), u)
	}
	return s
}

func (s *UserStore) CreateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.IdentityID != "" {
		if _, taken := s.byIdentity[user.IdentityID]; taken {
			return domain.ErrProfileExists
		}
		s.byIdentity[user.IdentityID] = user.ID
	}
	s.users[user.ID] = user
	return nil
}

func (s *UserStore) GetUser(_ context.Context, userID string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *UserStore) GetByIdentity(_ context.Context, identityID string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byIdentity[identityID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.users[id], nil
}

func (s *UserStore) GetUsers(_ context.Context, ids []string) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}
