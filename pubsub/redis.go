package pubsub

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"room-service/store"
)

// RedisBroker uses Redis PUBLISH/SUBSCRIBE. Messages published while nobody
// listens are dropped, which is fine for hints.
type RedisBroker struct {
	rdb *redis.Client
}

func NewRedisBroker(rdb *redis.Client) *RedisBroker {
	return &RedisBroker{rdb: rdb}
}

func (b *RedisBroker) Publish(ctx context.Context, topic string, ev store.Event) error {
	payload, err := encode(ev)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", eventKey(ev), err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, topic string) (<-chan store.Event, func(), error) {
	ps := b.rdb.Subscribe(ctx, topic)
	// Receive blocks until the subscription is confirmed, so errors surface here.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("redis subscribe %s: %w", topic, err)
	}

	out := make(chan store.Event, 16)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = ps.Close()
		})
	}

	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				ev, err := decode([]byte(msg.Payload))
				if err != nil {
					log.Warn().Err(err).Str("topic", topic).Msg("dropping malformed push event")
					continue
				}
				select {
				case out <- ev:
				default:
					// subscriber is behind; it will catch up on the next poll
				}
			}
		}
	}()
	return out, cancel, nil
}

func (b *RedisBroker) Close() error {
	return b.rdb.Close()
}
