package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"lessonloop/internal/domain"
)

// PollInput describes a new live poll.
type PollInput struct {
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"required,min=2,dive,required"`
	CorrectAnswer int      `json:"correctAnswer" validate:"min=0"`
}

// PollService runs live polls. Every state change is published to the class.
type PollService struct {
	classes  ClassStore
	polls    PollStore
	events   PollEvents
	notifier *NotificationService
	reporter FailureReporter
	now      func() time.Time
}

func NewPollService(stores Stores, events PollEvents, notifier *NotificationService) *PollService {
	return &PollService{
		classes:  stores.Classes,
		polls:    stores.Polls,
		events:   events,
		notifier: notifier,
		now:      time.Now,
	}
}

// WithReporter sets where failed event publishes and notifications go.
func (s *PollService) WithReporter(r FailureReporter) *PollService {
	s.reporter = r
	return s
}

// Create starts a poll in a class the requester teaches. A class has at most
// one active poll.
func (s *PollService) Create(ctx context.Context, teacher domain.User, classID string, in PollInput) (domain.Poll, error) {
	class, err := ownedClass(ctx, s.classes, teacher, classID)
	if err != nil {
		return domain.Poll{}, err
	}
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return domain.Poll{}, domain.Invalid("Poll question is required")
	}
	if len(in.Options) < 2 {
		return domain.Poll{}, domain.Invalid("A poll needs at least two options")
	}
	options := make([]domain.PollOption, 0, len(in.Options))
	for _, text := range in.Options {
		text = strings.TrimSpace(text)
		if text == "" {
			return domain.Poll{}, domain.Invalid("Poll options cannot be empty")
		}
		options = append(options, domain.PollOption{Text: text})
	}
	if in.CorrectAnswer < 0 || in.CorrectAnswer >= len(options) {
		return domain.Poll{}, domain.Invalid("Correct answer must point at one of the options")
	}

	poll := domain.Poll{
		ID:            uuid.NewString(),
		ClassID:       class.ID,
		Question:      question,
		Options:       options,
		CorrectAnswer: in.CorrectAnswer,
		CreatedBy:     teacher.ID,
		IsActive:      true,
		VotedUsers:    []string{},
		CreatedAt:     s.now().UTC(),
	}
	if err := s.polls.CreatePoll(ctx, poll); err != nil {
		return domain.Poll{}, err
	}
	report(ctx, s.reporter, "publish poll created", s.events.Publish(ctx, class.ID, domain.PollEvent{Type: domain.PollCreated, Poll: poll}))

	msg := fmt.Sprintf("A new poll has been started in %s.", class.Name)
	report(ctx, s.reporter, "notify new poll", s.notifier.Broadcast(ctx, class.StudentIDs, domain.NotifyNewPoll, msg, "/class/"+class.ID))
	return poll, nil
}

// Vote records one vote for an enrolled student. A second vote by the same
// student is rejected and leaves the tally unchanged.
func (s *PollService) Vote(ctx context.Context, student domain.User, pollID string, option int) (domain.Poll, error) {
	poll, err := s.polls.GetPoll(ctx, pollID)
	if err != nil {
		return domain.Poll{}, err
	}
	if _, err := enrolledClass(ctx, s.classes, student, poll.ClassID); err != nil {
		return domain.Poll{}, err
	}
	updated, err := s.polls.RecordVote(ctx, poll.ID, student.ID, option)
	if err != nil {
		return domain.Poll{}, err
	}
	report(ctx, s.reporter, "publish poll vote", s.events.Publish(ctx, updated.ClassID, domain.PollEvent{Type: domain.PollUpdated, Poll: updated}))
	return updated, nil
}

// End closes a poll for good. Only its creator may end it.
func (s *PollService) End(ctx context.Context, teacher domain.User, pollID string) (domain.Poll, error) {
	poll, err := s.polls.GetPoll(ctx, pollID)
	if err != nil {
		return domain.Poll{}, err
	}
	if poll.CreatedBy != teacher.ID {
		return domain.Poll{}, domain.Forbidden("Not authorized to end this poll")
	}
	ended, err := s.polls.EndPoll(ctx, poll.ID)
	if err != nil {
		return domain.Poll{}, err
	}
	report(ctx, s.reporter, "publish poll ended", s.events.Publish(ctx, ended.ClassID, domain.PollEvent{Type: domain.PollEnded, Poll: ended}))
	return ended, nil
}

// Active returns the class's active poll, or nil when there is none.
func (s *PollService) Active(ctx context.Context, requester domain.User, classID string) (*domain.Poll, error) {
	if _, err := memberClass(ctx, s.classes, requester, classID); err != nil {
		return nil, err
	}
	return s.polls.ActivePoll(ctx, classID)
}

// Subscribe streams poll events of a class to one of its members.
func (s *PollService) Subscribe(ctx context.Context, requester domain.User, classID string) (<-chan domain.PollEvent, func(), error) {
	if _, err := memberClass(ctx, s.classes, requester, classID); err != nil {
		return nil, nil, err
	}
	return s.events.Subscribe(ctx, classID)
}
