package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"room-service/models"
	"room-service/store"
)

var errStoreDown = errors.New("store unavailable")

// flakyStore fails selected operations and passes the rest through.
type flakyStore struct {
	store.Store
	failInsertOrder    bool
	failInsertBill     bool
	failUpdateBill     bool
	failListOrders     bool
	failGetMenuItem    bool
	duplicateOrderHits int
	insertOrderCalls   int
	insertBillCalls    int
	updateBillCalls    int
	getMenuItemCalls   int
}

func (f *flakyStore) InsertOrder(ctx context.Context, o models.Order) (models.Order, error) {
	f.insertOrderCalls++
	if f.duplicateOrderHits > 0 {
		f.duplicateOrderHits--
		return models.Order{}, store.ErrDuplicate
	}
	if f.failInsertOrder {
		return models.Order{}, errStoreDown
	}
	return f.Store.InsertOrder(ctx, o)
}

func (f *flakyStore) InsertRoomBill(ctx context.Context, b models.RoomBill) (models.RoomBill, error) {
	f.insertBillCalls++
	if f.failInsertBill {
		return models.RoomBill{}, errStoreDown
	}
	return f.Store.InsertRoomBill(ctx, b)
}

func (f *flakyStore) UpdateRoomBill(ctx context.Context, id string, p models.RoomBillPatch) (models.RoomBill, error) {
	f.updateBillCalls++
	if f.failUpdateBill {
		return models.RoomBill{}, errStoreDown
	}
	return f.Store.UpdateRoomBill(ctx, id, p)
}

func (f *flakyStore) AddToRoomBill(ctx context.Context, id string, delta float64, at time.Time) (models.RoomBill, error) {
	f.updateBillCalls++
	if f.failUpdateBill {
		return models.RoomBill{}, errStoreDown
	}
	return f.Store.AddToRoomBill(ctx, id, delta, at)
}

func (f *flakyStore) GetMenuItem(ctx context.Context, id int64) (models.MenuItem, error) {
	f.getMenuItemCalls++
	if f.failGetMenuItem {
		return models.MenuItem{}, errStoreDown
	}
	return f.Store.GetMenuItem(ctx, id)
}

func (f *flakyStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	if f.failListOrders {
		return nil, errStoreDown
	}
	return f.Store.ListOrders(ctx)
}

// clock hands out strictly increasing timestamps.
type clock struct{ t time.Time }

func newClock() *clock {
	return &clock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

type fixture struct {
	store   *flakyStore
	mem     *store.MemoryStore
	orders  *OrderService
	billing *BillingService
	menu    *MenuService
	clock   *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemoryStore()
	fs := &flakyStore{Store: mem}
	clk := newClock()

	billing := NewBillingService(fs)
	billing.Now = clk.Now
	orders := NewOrderService(fs, billing)
	orders.Now = clk.Now
	seq := 0
	orders.NewID = func() string {
		seq++
		return fmt.Sprintf("ord-%03d", seq)
	}
	return &fixture{
		store:   fs,
		mem:     mem,
		orders:  orders,
		billing: billing,
		menu:    NewMenuService(fs),
		clock:   clk,
	}
}

func (f *fixture) addItem(t *testing.T, name string, price float64) models.MenuItem {
	t.Helper()
	item, err := f.menu.CreateMenuItem(context.Background(), models.MenuItem{
		Name:     name,
		Price:    price,
		Category: models.CategoryMains,
		Veg:      true,
	})
	require.NoError(t, err)
	return item
}

func guest(name, mobile, room string) models.CustomerDetails {
	return models.CustomerDetails{Name: name, Mobile: mobile, RoomNumber: room}
}

func (f *fixture) place(t *testing.T, customer models.CustomerDetails, items ...models.CartItem) models.Order {
	t.Helper()
	o, err := f.orders.CreateOrder(context.Background(), items, customer)
	require.NoError(t, err)
	return o
}

func line(item models.MenuItem, qty int) models.CartItem {
	return models.CartItem{MenuItem: item, Quantity: qty}
}
