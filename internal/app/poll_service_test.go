package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"lessonloop/internal/domain"
)

func nextEvent(t *testing.T, ch <-chan domain.PollEvent) domain.PollEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for poll event")
	}
	return domain.PollEvent{}
}

func TestPollLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	events, cancel, err := f.polls.Subscribe(ctx, f.alice, f.class.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	poll, err := f.polls.Create(ctx, f.teacher, f.class.ID, PollInput{Question: "Best shape?", Options: []string{"A", "B"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ev := nextEvent(t, events); ev.Type != domain.PollCreated || ev.Poll.ID != poll.ID {
		t.Fatalf("unexpected event %+v", ev)
	}

	if _, err := f.polls.Vote(ctx, f.alice, poll.ID, 0); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if ev := nextEvent(t, events); ev.Type != domain.PollUpdated || ev.Poll.Options[0].Votes != 1 {
		t.Fatalf("unexpected event %+v", ev)
	}

	if _, err := f.polls.Vote(ctx, f.alice, poll.ID, 1); !errors.Is(err, domain.ErrAlreadyVoted) {
		t.Fatalf("expected already voted, got %v", err)
	}
	active, err := f.polls.Active(ctx, f.bob, f.class.ID)
	if err != nil || active == nil {
		t.Fatalf("active: %v, %v", active, err)
	}
	if active.Options[0].Votes != 1 || active.Options[1].Votes != 0 {
		t.Fatalf("expected tally [1,0], got %+v", active.Options)
	}

	if _, err := f.polls.End(ctx, f.alice, poll.ID); domain.KindOf(err) != domain.KindForbidden {
		t.Fatalf("expected forbidden end by student, got %v", err)
	}
	ended, err := f.polls.End(ctx, f.teacher, poll.ID)
	if err != nil || ended.IsActive {
		t.Fatalf("end: %+v, %v", ended, err)
	}
	if ev := nextEvent(t, events); ev.Type != domain.PollEnded {
		t.Fatalf("unexpected event %+v", ev)
	}
	if _, err := f.polls.Vote(ctx, f.bob, poll.ID, 1); !errors.Is(err, domain.ErrPollInactive) {
		t.Fatalf("expected inactive, got %v", err)
	}
	if active, _ := f.polls.Active(ctx, f.bob, f.class.ID); active != nil {
		t.Fatalf("expected no active poll, got %+v", active)
	}
}

func TestPollCreateGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.polls.Create(ctx, f.teacher, f.class.ID, PollInput{Question: "?", Options: []string{"only"}}); domain.KindOf(err) != domain.KindInvalid {
		t.Fatalf("expected invalid options, got %v", err)
	}
	if _, err := f.polls.Create(ctx, f.teacher, f.class.ID, PollInput{Question: "?", Options: []string{"a", "b"}, CorrectAnswer: 2}); domain.KindOf(err) != domain.KindInvalid {
		t.Fatalf("expected invalid correct answer, got %v", err)
	}
	if _, err := f.polls.Create(ctx, f.teacher, f.class.ID, PollInput{Question: "?", Options: []string{"a", "b"}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.polls.Create(ctx, f.teacher, f.class.ID, PollInput{Question: "again", Options: []string{"a", "b"}}); !errors.Is(err, domain.ErrActivePollExists) {
		t.Fatalf("expected active poll conflict, got %v", err)
	}

	inbox, _ := f.notifications.List(ctx, f.bob)
	if len(inbox) != 1 || inbox[0].Type != domain.NotifyNewPoll {
		t.Fatalf("expected one poll notification, got %+v", inbox)
	}
}

func TestVoteRequiresEnrolment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	poll, _ := f.polls.Create(ctx, f.teacher, f.class.ID, PollInput{Question: "?", Options: []string{"a", "b"}})

	stranger := domain.User{ID: "s9", Role: domain.RoleStudent}
	if _, err := f.polls.Vote(ctx, stranger, poll.ID, 0); domain.KindOf(err) != domain.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := f.polls.Vote(ctx, f.alice, "missing", 0); !errors.Is(err, domain.ErrPollNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.polls.Vote(ctx, f.alice, poll.ID, 7); !errors.Is(err, domain.ErrInvalidPollOption) {
		t.Fatalf("expected invalid option, got %v", err)
	}
}

func TestPollFollowUpFailuresAreReported(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reporter := &recordingReporter{}
	f.polls.events = failingEvents{f.hub}
	f.polls.notifier = NewNotificationService(failingNotificationStore{f.stores.Notifications})
	f.polls.WithReporter(reporter)

	poll, err := f.polls.Create(ctx, f.teacher, f.class.ID, PollInput{Question: "Best shape?", Options: []string{"A", "B"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	voted, err := f.polls.Vote(ctx, f.alice, poll.ID, 1)
	if err != nil || voted.Options[1].Votes != 1 {
		t.Fatalf("expected vote stored, got %+v, %v", voted, err)
	}
	if _, err := f.polls.End(ctx, f.teacher, poll.ID); err != nil {
		t.Fatalf("end: %v", err)
	}

	want := []string{"publish poll created", "notify new poll", "publish poll vote", "publish poll ended"}
	got := reporter.reported()
	if len(got) != len(want) {
		t.Fatalf("expected reports %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected reports %v, got %v", want, got)
		}
	}
}
