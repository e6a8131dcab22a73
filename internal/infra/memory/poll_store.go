package memory

import (
	"context"
	"sync"

	"lessonloop/internal/domain"
)

// PollStore is an in-memory implementation of app.PollStore. The
// single-active-poll rule and the vote guard are checked and applied under
// the same lock.
type PollStore struct {
	mu     sync.Mutex
	polls  map[string]*domain.Poll
	active map[string]string
}

func NewPollStore() *PollStore {
	return &PollStore{
		polls:  make(map[string]*domain.Poll),
		active: make(map[string]string),
	}
}

func (s *PollStore) CreatePoll(_ context.Context, poll domain.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if poll.IsActive {
		if _, busy := s.active[poll.ClassID]; busy {
			return domain.ErrActivePollExists
		}
		s.active[poll.ClassID] = poll.ID
	}
	p := clonePoll(poll)
	s.polls[p.ID] = &p
	return nil
}

func (s *PollStore) GetPoll(_ context.Context, pollID string) (domain.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.polls[pollID]
	if !ok {
		return domain.Poll{}, domain.ErrPollNotFound
	}
	return clonePoll(*p), nil
}

func (s *PollStore) ActivePoll(_ context.Context, classID string) (*domain.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.active[classID]
	if !ok {
		return nil, nil
	}
	p := clonePoll(*s.polls[id])
	return &p, nil
}

func (s *PollStore) RecordVote(_ context.Context, pollID, userID string, option int) (domain.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.polls[pollID]
	if !ok {
		return domain.Poll{}, domain.ErrPollNotFound
	}
	if !p.IsActive {
		return domain.Poll{}, domain.ErrPollInactive
	}
	if p.HasVoted(userID) {
		return domain.Poll{}, domain.ErrAlreadyVoted
	}
	if option < 0 || option >= len(p.Options) {
		return domain.Poll{}, domain.ErrInvalidPollOption
	}
	p.Options[option].Votes++
	p.VotedUsers = append(p.VotedUsers, userID)
	return clonePoll(*p), nil
}

func (s *PollStore) EndPoll(_ context.Context, pollID string) (domain.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.polls[pollID]
	if !ok {
		return domain.Poll{}, domain.ErrPollNotFound
	}
	if !p.IsActive {
		return domain.Poll{}, domain.ErrPollInactive
	}
	p.IsActive = false
	if s.active[p.ClassID] == p.ID {
		delete(s.active, p.ClassID)
	}
	return clonePoll(*p), nil
}

func clonePoll(p domain.Poll) domain.Poll {
	p.Options = append([]domain.PollOption{}, p.Options...)
	p.VotedUsers = append([]string{}, p.VotedUsers...)
	return p
}
