// Package store is the persistence boundary for menu items, orders and room bills.
//
// Writes are last-write-wins: no adapter performs version checks. The one
// exception is AddToRoomBill, which increments in place. An adapter that
// needs optimistic concurrency can add it behind the Update methods without the
// services noticing.
package store

import (
	"context"
	"errors"
	"time"

	"room-service/models"
)

// Collection names shared by every adapter and the push channel.
const (
	MenuItems = "menu_items"
	Orders    = "orders"
	RoomBills = "room_bills"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store is implemented by MemoryStore (single process / local) and GormStore (MySQL).
type Store interface {
	ListMenuItems(ctx context.Context) ([]models.MenuItem, error)
	GetMenuItem(ctx context.Context, id int64) (models.MenuItem, error)
	InsertMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id int64, patch models.MenuItemPatch) (models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id int64) error

	ListOrders(ctx context.Context) ([]models.Order, error)
	GetOrder(ctx context.Context, id string) (models.Order, error)
	InsertOrder(ctx context.Context, order models.Order) (models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error)

	ListRoomBills(ctx context.Context) ([]models.RoomBill, error)
	GetRoomBill(ctx context.Context, id string) (models.RoomBill, error)
	InsertRoomBill(ctx context.Context, bill models.RoomBill) (models.RoomBill, error)
	UpdateRoomBill(ctx context.Context, id string, patch models.RoomBillPatch) (models.RoomBill, error)
	// AddToRoomBill adds delta to total_amount and sets updated_at in one
	// atomic step, so concurrent orders never lose each other's amount.
	AddToRoomBill(ctx context.Context, id string, delta float64, updatedAt time.Time) (models.RoomBill, error)
}

// Event describes a committed write.
type Event struct {
	Collection string    `json:"collection"`
	Action     string    `json:"action"`
	ID         string    `json:"id"`
	At         time.Time `json:"at"`
}

const (
	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Subscription is returned by Subscribe; Unsubscribe is safe to call more than once.
type Subscription interface {
	Unsubscribe()
}

// Subscriber is the optional push capability. Callers must type-assert for it
// and fall back to polling when a Store does not implement it.
type Subscriber interface {
	Subscribe(ctx context.Context, collection string, filter func(Event) bool, fn func(Event)) (Subscription, error)
}
