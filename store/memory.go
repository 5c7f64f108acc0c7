package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"room-service/models"
)

// snapshot is what MemoryStore writes to disk after each mutation.
type snapshot struct {
	MenuItems   []models.MenuItem `json:"menu_items"`
	Orders      []models.Order    `json:"orders"`
	RoomBills   []models.RoomBill `json:"room_bills"`
	MenuCounter int64             `json:"menu_counter"`
}

type memorySub struct {
	id         int
	collection string
	filter     func(Event) bool
	fn         func(Event)
}

// MemoryStore keeps every collection in process memory. With a snapshot path it
// survives restarts, which makes it the local-storage flavour of the service.
type MemoryStore struct {
	mu           sync.RWMutex
	menu         map[int64]models.MenuItem
	orders       map[string]models.Order
	bills        map[string]models.RoomBill
	menuCounter  int64
	snapshotPath string

	subMu  sync.Mutex
	subs   map[int]memorySub
	nextID int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		menu:   map[int64]models.MenuItem{},
		orders: map[string]models.Order{},
		bills:  map[string]models.RoomBill{},
		subs:   map[int]memorySub{},
	}
}

// OpenMemoryStore loads path if it exists and keeps writing snapshots to it.
func OpenMemoryStore(path string) (*MemoryStore, error) {
	s := NewMemoryStore()
	s.snapshotPath = path
	if path == "" {
		return s, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if len(raw) == 0 {
		return s, nil
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	for _, m := range snap.MenuItems {
		s.menu[m.ID] = m
	}
	for _, o := range snap.Orders {
		s.orders[o.ID] = o
	}
	for _, b := range snap.RoomBills {
		s.bills[b.ID] = b
	}
	s.menuCounter = snap.MenuCounter
	return s, nil
}

// persistLocked must be called with mu held.
func (s *MemoryStore) persistLocked() error {
	if s.snapshotPath == "" {
		return nil
	}
	snap := snapshot{MenuCounter: s.menuCounter}
	for _, m := range s.menu {
		snap.MenuItems = append(snap.MenuItems, m)
	}
	for _, o := range s.orders {
		snap.Orders = append(snap.Orders, o)
	}
	for _, b := range s.bills {
		snap.RoomBills = append(snap.RoomBills, b)
	}
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if dir := filepath.Dir(s.snapshotPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir snapshot dir: %w", err)
		}
	}
	tmp := s.snapshotPath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return os.Rename(tmp, s.snapshotPath)
}

// ----------------------------------------------------
// Menu items
// ----------------------------------------------------

func (s *MemoryStore) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.MenuItem, 0, len(s.menu))
	for _, m := range s.menu {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetMenuItem(ctx context.Context, id int64) (models.MenuItem, error) {
	if err := ctx.Err(); err != nil {
		return models.MenuItem{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.menu[id]
	if !ok {
		return models.MenuItem{}, ErrNotFound
	}
	return m, nil
}

func (s *MemoryStore) InsertMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	if err := ctx.Err(); err != nil {
		return models.MenuItem{}, err
	}
	s.mu.Lock()
	prevCounter := s.menuCounter
	if item.ID == 0 {
		s.menuCounter++
		item.ID = s.menuCounter
	} else if _, exists := s.menu[item.ID]; exists {
		s.mu.Unlock()
		return models.MenuItem{}, ErrDuplicate
	} else if item.ID > s.menuCounter {
		s.menuCounter = item.ID
	}
	s.menu[item.ID] = item
	if err := s.persistLocked(); err != nil {
		delete(s.menu, item.ID)
		s.menuCounter = prevCounter
		s.mu.Unlock()
		return models.MenuItem{}, err
	}
	s.mu.Unlock()
	s.emit(Event{Collection: MenuItems, Action: ActionInsert, ID: fmt.Sprint(item.ID), At: time.Now()})
	return item, nil
}

func (s *MemoryStore) UpdateMenuItem(ctx context.Context, id int64, patch models.MenuItemPatch) (models.MenuItem, error) {
	if err := ctx.Err(); err != nil {
		return models.MenuItem{}, err
	}
	s.mu.Lock()
	prev, ok := s.menu[id]
	if !ok {
		s.mu.Unlock()
		return models.MenuItem{}, ErrNotFound
	}
	item := prev
	patch.Apply(&item)
	s.menu[id] = item
	if err := s.persistLocked(); err != nil {
		s.menu[id] = prev
		s.mu.Unlock()
		return models.MenuItem{}, err
	}
	s.mu.Unlock()
	s.emit(Event{Collection: MenuItems, Action: ActionUpdate, ID: fmt.Sprint(id), At: time.Now()})
	return item, nil
}

func (s *MemoryStore) DeleteMenuItem(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	prev, ok := s.menu[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.menu, id)
	if err := s.persistLocked(); err != nil {
		s.menu[id] = prev
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	s.emit(Event{Collection: MenuItems, Action: ActionDelete, ID: fmt.Sprint(id), At: time.Now()})
	return nil
}

// ----------------------------------------------------
// Orders
// ----------------------------------------------------

func cloneOrder(o models.Order) models.Order {
	items := make([]models.OrderLine, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}

func (s *MemoryStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *MemoryStore) GetOrder(ctx context.Context, id string) (models.Order, error) {
	if err := ctx.Err(); err != nil {
		return models.Order{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *MemoryStore) InsertOrder(ctx context.Context, order models.Order) (models.Order, error) {
	if err := ctx.Err(); err != nil {
		return models.Order{}, err
	}
	s.mu.Lock()
	if _, exists := s.orders[order.ID]; exists {
		s.mu.Unlock()
		return models.Order{}, ErrDuplicate
	}
	order = cloneOrder(order)
	s.orders[order.ID] = order
	if err := s.persistLocked(); err != nil {
		delete(s.orders, order.ID)
		s.mu.Unlock()
		return models.Order{}, err
	}
	s.mu.Unlock()
	s.emit(Event{Collection: Orders, Action: ActionInsert, ID: order.ID, At: time.Now()})
	return cloneOrder(order), nil
}

func (s *MemoryStore) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error) {
	if err := ctx.Err(); err != nil {
		return models.Order{}, err
	}
	s.mu.Lock()
	prev, ok := s.orders[id]
	if !ok {
		s.mu.Unlock()
		return models.Order{}, ErrNotFound
	}
	o := prev
	o.Status = status
	s.orders[id] = o
	if err := s.persistLocked(); err != nil {
		s.orders[id] = prev
		s.mu.Unlock()
		return models.Order{}, err
	}
	s.mu.Unlock()
	s.emit(Event{Collection: Orders, Action: ActionUpdate, ID: id, At: time.Now()})
	return cloneOrder(o), nil
}

// ----------------------------------------------------
// Room bills
// ----------------------------------------------------

func (s *MemoryStore) ListRoomBills(ctx context.Context) ([]models.RoomBill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.RoomBill, 0, len(s.bills))
	for _, b := range s.bills {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetRoomBill(ctx context.Context, id string) (models.RoomBill, error) {
	if err := ctx.Err(); err != nil {
		return models.RoomBill{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bills[id]
	if !ok {
		return models.RoomBill{}, ErrNotFound
	}
	return b, nil
}

func (s *MemoryStore) InsertRoomBill(ctx context.Context, bill models.RoomBill) (models.RoomBill, error) {
	if err := ctx.Err(); err != nil {
		return models.RoomBill{}, err
	}
	s.mu.Lock()
	if _, exists := s.bills[bill.ID]; exists {
		s.mu.Unlock()
		return models.RoomBill{}, ErrDuplicate
	}
	s.bills[bill.ID] = bill
	if err := s.persistLocked(); err != nil {
		delete(s.bills, bill.ID)
		s.mu.Unlock()
		return models.RoomBill{}, err
	}
	s.mu.Unlock()
	s.emit(Event{Collection: RoomBills, Action: ActionInsert, ID: bill.ID, At: time.Now()})
	return bill, nil
}

func (s *MemoryStore) UpdateRoomBill(ctx context.Context, id string, patch models.RoomBillPatch) (models.RoomBill, error) {
	return s.changeRoomBill(ctx, id, patch.Apply)
}

func (s *MemoryStore) AddToRoomBill(ctx context.Context, id string, delta float64, updatedAt time.Time) (models.RoomBill, error) {
	return s.changeRoomBill(ctx, id, func(b *models.RoomBill) {
		b.TotalAmount += delta
		b.UpdatedAt = updatedAt
	})
}

// changeRoomBill applies fn under the write lock and restores the old bill
// when the snapshot cannot be written.
func (s *MemoryStore) changeRoomBill(ctx context.Context, id string, fn func(*models.RoomBill)) (models.RoomBill, error) {
	if err := ctx.Err(); err != nil {
		return models.RoomBill{}, err
	}
	s.mu.Lock()
	prev, ok := s.bills[id]
	if !ok {
		s.mu.Unlock()
		return models.RoomBill{}, ErrNotFound
	}
	b := prev
	fn(&b)
	s.bills[id] = b
	if err := s.persistLocked(); err != nil {
		s.bills[id] = prev
		s.mu.Unlock()
		return models.RoomBill{}, err
	}
	s.mu.Unlock()
	s.emit(Event{Collection: RoomBills, Action: ActionUpdate, ID: id, At: time.Now()})
	return b, nil
}

// ----------------------------------------------------
// Subscriptions
// ----------------------------------------------------

type memorySubscription struct {
	s    *MemoryStore
	id   int
	once sync.Once
}

func (m *memorySubscription) Unsubscribe() {
	m.once.Do(func() {
		m.s.subMu.Lock()
		delete(m.s.subs, m.id)
		m.s.subMu.Unlock()
	})
}

// Subscribe registers fn for committed writes on collection. fn runs on the
// writer's goroutine after the write is visible to readers.
func (s *MemoryStore) Subscribe(ctx context.Context, collection string, filter func(Event) bool, fn func(Event)) (Subscription, error) {
	if fn == nil {
		return nil, errors.New("subscribe: nil callback")
	}
	s.subMu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = memorySub{id: id, collection: collection, filter: filter, fn: fn}
	s.subMu.Unlock()

	sub := &memorySubscription{s: s, id: id}
	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			sub.Unsubscribe()
		}()
	}
	return sub, nil
}

func (s *MemoryStore) emit(ev Event) {
	s.subMu.Lock()
	targets := make([]memorySub, 0, len(s.subs))
	for _, sub := range s.subs {
		if sub.collection != ev.Collection {
			continue
		}
		if sub.filter != nil && !sub.filter(ev) {
			continue
		}
		targets = append(targets, sub)
	}
	s.subMu.Unlock()

	for _, sub := range targets {
		sub.fn(ev)
	}
}
