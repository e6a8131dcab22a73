package redis

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"

	"lessonloop/internal/domain"
)

// PollEvents fans poll events out through Redis Pub/Sub so every instance
// serving a class's sockets sees every vote.
// Events are published as JSON on channel class:{classID}:polls.
type PollEvents struct {
	client *redis.Client
}

func NewPollEvents(client *redis.Client) *PollEvents {
	return &PollEvents{client: client}
}

func (e *PollEvents) Publish(ctx context.Context, classID string, event domain.PollEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return e.client.Publish(ctx, e.channel(classID), raw).Err()
}

// Subscribe returns once the subscription is confirmed by the server.
func (e *PollEvents) Subscribe(ctx context.Context, classID string) (<-chan domain.PollEvent, func(), error) {
	sub := e.client.Subscribe(ctx, e.channel(classID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	out := make(chan domain.PollEvent, 8)
	done := make(chan struct{})
	go func() {
		defer close(out)
		msgs := sub.Channel()
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev domain.PollEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				select {
				case out <- ev:
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = sub.Close()
		})
	}
	return out, cancel, nil
}

func (e *PollEvents) channel(classID string) string {
	return "class:" + classID + ":polls"
}
