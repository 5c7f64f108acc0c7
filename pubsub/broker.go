// Package pubsub carries write notifications between service instances so that
// pollers in other sessions can refresh early. Notifications are hints only;
// the store stays the source of truth.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"room-service/store"
)

// Broker publishes store events and delivers them to subscribers of a topic.
type Broker interface {
	Publish(ctx context.Context, topic string, ev store.Event) error
	// Subscribe returns a channel that is closed when ctx ends or the returned
	// cancel func is called.
	Subscribe(ctx context.Context, topic string) (<-chan store.Event, func(), error)
	Close() error
}

// Topic maps a collection to the broker topic/channel name.
func Topic(prefix, collection string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return collection
	}
	return prefix + "." + collection
}

// eventKey follows the "<collection>-<action>-<id>" convention for message keys.
func eventKey(ev store.Event) string {
	return fmt.Sprintf("%s-%s-%s", ev.Collection, ev.Action, ev.ID)
}

func encode(ev store.Event) ([]byte, error) {
	return json.Marshal(ev)
}

func decode(raw []byte) (store.Event, error) {
	var ev store.Event
	err := json.Unmarshal(raw, &ev)
	return ev, err
}
