package pubsub

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"room-service/models"
	"room-service/store"
)

// NotifyingStore decorates a Store: after every committed write it publishes an
// event on the broker, and it exposes the broker as a store.Subscriber.
// A failed publish is logged and never fails the write.
type NotifyingStore struct {
	store.Store
	broker  Broker
	prefix  string
	timeout time.Duration
}

func NewNotifyingStore(inner store.Store, broker Broker, topicPrefix string) *NotifyingStore {
	return &NotifyingStore{Store: inner, broker: broker, prefix: topicPrefix, timeout: 2 * time.Second}
}

func (s *NotifyingStore) publish(collection, action, id string) {
	ev := store.Event{Collection: collection, Action: action, ID: id, At: time.Now().UTC()}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.broker.Publish(ctx, Topic(s.prefix, collection), ev); err != nil {
		log.Warn().Err(err).Str("collection", collection).Str("id", id).Msg("push notification not sent; pollers will pick it up")
	}
}

func (s *NotifyingStore) InsertMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	out, err := s.Store.InsertMenuItem(ctx, item)
	if err == nil {
		s.publish(store.MenuItems, store.ActionInsert, strconv.FormatInt(out.ID, 10))
	}
	return out, err
}

func (s *NotifyingStore) UpdateMenuItem(ctx context.Context, id int64, patch models.MenuItemPatch) (models.MenuItem, error) {
	out, err := s.Store.UpdateMenuItem(ctx, id, patch)
	if err == nil {
		s.publish(store.MenuItems, store.ActionUpdate, strconv.FormatInt(id, 10))
	}
	return out, err
}

func (s *NotifyingStore) DeleteMenuItem(ctx context.Context, id int64) error {
	err := s.Store.DeleteMenuItem(ctx, id)
	if err == nil {
		s.publish(store.MenuItems, store.ActionDelete, strconv.FormatInt(id, 10))
	}
	return err
}

func (s *NotifyingStore) InsertOrder(ctx context.Context, order models.Order) (models.Order, error) {
	out, err := s.Store.InsertOrder(ctx, order)
	if err == nil {
		s.publish(store.Orders, store.ActionInsert, out.ID)
	}
	return out, err
}

func (s *NotifyingStore) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error) {
	out, err := s.Store.UpdateOrderStatus(ctx, id, status)
	if err == nil {
		s.publish(store.Orders, store.ActionUpdate, id)
	}
	return out, err
}

func (s *NotifyingStore) InsertRoomBill(ctx context.Context, bill models.RoomBill) (models.RoomBill, error) {
	out, err := s.Store.InsertRoomBill(ctx, bill)
	if err == nil {
		s.publish(store.RoomBills, store.ActionInsert, out.ID)
	}
	return out, err
}

func (s *NotifyingStore) UpdateRoomBill(ctx context.Context, id string, patch models.RoomBillPatch) (models.RoomBill, error) {
	out, err := s.Store.UpdateRoomBill(ctx, id, patch)
	if err == nil {
		s.publish(store.RoomBills, store.ActionUpdate, id)
	}
	return out, err
}

func (s *NotifyingStore) AddToRoomBill(ctx context.Context, id string, delta float64, updatedAt time.Time) (models.RoomBill, error) {
	out, err := s.Store.AddToRoomBill(ctx, id, delta, updatedAt)
	if err == nil {
		s.publish(store.RoomBills, store.ActionUpdate, id)
	}
	return out, err
}

type brokerSubscription struct {
	cancel func()
	once   sync.Once
}

func (b *brokerSubscription) Unsubscribe() {
	b.once.Do(b.cancel)
}

// Subscribe implements store.Subscriber on top of the broker.
func (s *NotifyingStore) Subscribe(ctx context.Context, collection string, filter func(store.Event) bool, fn func(store.Event)) (store.Subscription, error) {
	events, cancel, err := s.broker.Subscribe(ctx, Topic(s.prefix, collection))
	if err != nil {
		return nil, err
	}
	go func() {
		for ev := range events {
			if filter != nil && !filter(ev) {
				continue
			}
			fn(ev)
		}
	}()
	return &brokerSubscription{cancel: cancel}, nil
}
