package memory

import (
	"context"
	"testing"
	"time"

	"lessonloop/internal/domain"
)

func TestPollHubDeliversToClassSubscribers(t *testing.T) {
	hub := NewPollHub()
	ctx := context.Background()

	ch, cancel, err := hub.Subscribe(ctx, "c1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	other, cancelOther, _ := hub.Subscribe(ctx, "c2")
	defer cancelOther()

	_ = hub.Publish(ctx, "c1", domain.PollEvent{Type: domain.PollCreated, Poll: domain.Poll{ID: "p1"}})

	select {
	case ev := <-ch:
		if ev.Type != domain.PollCreated || ev.Poll.ID != "p1" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
	}
	select {
	case ev := <-other:
		t.Fatalf("other class received %+v", ev)
	default:
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after cancel")
	}
	if hub.Subscribers("c1") != 0 {
		t.Fatalf("expected no subscribers left")
	}
	cancel()
}

func TestPollHubSlowSubscriberKeepsLatest(t *testing.T) {
	hub := NewPollHub()
	ctx := context.Background()
	ch, cancel, _ := hub.Subscribe(ctx, "c1")
	defer cancel()

	for i := 0; i < 20; i++ {
		votes := i
		_ = hub.Publish(ctx, "c1", domain.PollEvent{Type: domain.PollUpdated, Poll: domain.Poll{Options: []domain.PollOption{{Votes: votes}}}})
	}

	var last domain.PollEvent
	for len(ch) > 0 {
		last = <-ch
	}
	if last.Poll.Options[0].Votes != 19 {
		t.Fatalf("expected the latest event to survive, got %d", last.Poll.Options[0].Votes)
	}
}
