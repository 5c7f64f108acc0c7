package pubsub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"room-service/store"
)

// KafkaBroker writes events to a topic and gives every subscriber its own
// consumer group so each session sees every event from the tail of the log.
type KafkaBroker struct {
	brokers []string
	writer  *kafka.Writer
}

func NewKafkaBroker(brokers []string) *KafkaBroker {
	return &KafkaBroker{
		brokers: brokers,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (b *KafkaBroker) Publish(ctx context.Context, topic string, ev store.Event) error {
	payload, err := encode(ev)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(eventKey(ev)),
		Value: payload,
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish %s: %w", eventKey(ev), err)
	}
	return nil
}

func (b *KafkaBroker) Subscribe(ctx context.Context, topic string) (<-chan store.Event, func(), error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.brokers,
		Topic:       topic,
		GroupID:     "room-service-" + uuid.NewString(),
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
	})

	ctx, stop := context.WithCancel(ctx)
	out := make(chan store.Event, 16)
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			stop()
		})
	}

	go func() {
		defer close(out)
		defer reader.Close()
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
					return
				}
				log.Error().Err(err).Str("topic", topic).Msg("kafka read failed")
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
				continue
			}
			ev, err := decode(msg.Value)
			if err != nil {
				log.Warn().Err(err).Str("key", string(msg.Key)).Msg("dropping malformed push event")
				continue
			}
			select {
			case out <- ev:
			default:
			}
		}
	}()
	return out, cancel, nil
}

func (b *KafkaBroker) Close() error {
	return b.writer.Close()
}
