package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	mysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"room-service/models"
)

const mysqlDuplicateEntry = 1062

// GormStore persists the collections in a relational database through gorm.
// Every call runs under its own deadline so a stalled database can never hang a request
// or a poll cycle.
type GormStore struct {
	DB      *gorm.DB
	Timeout time.Duration
}

func NewGormStore(db *gorm.DB, timeout time.Duration) *GormStore {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &GormStore{DB: db, Timeout: timeout}
}

// AutoMigrate creates or updates the three tables.
func (s *GormStore) AutoMigrate() error {
	return s.DB.AutoMigrate(&models.MenuItem{}, &models.Order{}, &models.RoomBill{})
}

func (s *GormStore) db(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	return s.DB.WithContext(ctx), cancel
}

func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ----------------------------------------------------
// Menu items
// ----------------------------------------------------

func (s *GormStore) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	db, cancel := s.db(ctx)
	defer cancel()
	var items []models.MenuItem
	if err := db.Order("id ASC").Find(&items).Error; err != nil {
		return nil, translate("list menu items", err)
	}
	return items, nil
}

func (s *GormStore) GetMenuItem(ctx context.Context, id int64) (models.MenuItem, error) {
	db, cancel := s.db(ctx)
	defer cancel()
	var item models.MenuItem
	if err := db.First(&item, id).Error; err != nil {
		return models.MenuItem{}, translate("get menu item", err)
	}
	return item, nil
}

func (s *GormStore) InsertMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	db, cancel := s.db(ctx)
	defer cancel()
	if err := db.Create(&item).Error; err != nil {
		return models.MenuItem{}, translate("insert menu item", err)
	}
	return item, nil
}

func (s *GormStore) UpdateMenuItem(ctx context.Context, id int64, patch models.MenuItemPatch) (models.MenuItem, error) {
	db, cancel := s.db(ctx)
	defer cancel()

	var item models.MenuItem
	if err := db.First(&item, id).Error; err != nil {
		return models.MenuItem{}, translate("update menu item", err)
	}
	cols := patch.Columns()
	if len(cols) > 0 {
		if err := db.Model(&models.MenuItem{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return models.MenuItem{}, translate("update menu item", err)
		}
	}
	patch.Apply(&item)
	return item, nil
}

func (s *GormStore) DeleteMenuItem(ctx context.Context, id int64) error {
	db, cancel := s.db(ctx)
	defer cancel()
	result := db.Where("id = ?", id).Delete(&models.MenuItem{})
	if result.Error != nil {
		return translate("delete menu item", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ----------------------------------------------------
// Orders
// ----------------------------------------------------

func (s *GormStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	db, cancel := s.db(ctx)
	defer cancel()
	var orders []models.Order
	if err := db.Order("timestamp ASC").Find(&orders).Error; err != nil {
		return nil, translate("list orders", err)
	}
	return orders, nil
}

func (s *GormStore) GetOrder(ctx context.Context, id string) (models.Order, error) {
	db, cancel := s.db(ctx)
	defer cancel()
	var order models.Order
	if err := db.Where("id = ?", id).First(&order).Error; err != nil {
		return models.Order{}, translate("get order", err)
	}
	return order, nil
}

func (s *GormStore) InsertOrder(ctx context.Context, order models.Order) (models.Order, error) {
	db, cancel := s.db(ctx)
	defer cancel()
	if err := db.Create(&order).Error; err != nil {
		return models.Order{}, translate("insert order", err)
	}
	return order, nil
}

func (s *GormStore) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error) {
	db, cancel := s.db(ctx)
	defer cancel()

	var order models.Order
	if err := db.Where("id = ?", id).First(&order).Error; err != nil {
		return models.Order{}, translate("update order status", err)
	}
	if err := db.Model(&models.Order{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		return models.Order{}, translate("update order status", err)
	}
	order.Status = status
	return order, nil
}

// ----------------------------------------------------
// Room bills
// ----------------------------------------------------

func (s *GormStore) ListRoomBills(ctx context.Context) ([]models.RoomBill, error) {
	db, cancel := s.db(ctx)
	defer cancel()
	var bills []models.RoomBill
	if err := db.Order("id ASC").Find(&bills).Error; err != nil {
		return nil, translate("list room bills", err)
	}
	return bills, nil
}

func (s *GormStore) GetRoomBill(ctx context.Context, id string) (models.RoomBill, error) {
	db, cancel := s.db(ctx)
	defer cancel()
	var bill models.RoomBill
	if err := db.Where("id = ?", id).First(&bill).Error; err != nil {
		return models.RoomBill{}, translate("get room bill", err)
	}
	return bill, nil
}

func (s *GormStore) InsertRoomBill(ctx context.Context, bill models.RoomBill) (models.RoomBill, error) {
	db, cancel := s.db(ctx)
	defer cancel()
	if err := db.Create(&bill).Error; err != nil {
		return models.RoomBill{}, translate("insert room bill", err)
	}
	return bill, nil
}

func (s *GormStore) UpdateRoomBill(ctx context.Context, id string, patch models.RoomBillPatch) (models.RoomBill, error) {
	db, cancel := s.db(ctx)
	defer cancel()

	var bill models.RoomBill
	if err := db.Where("id = ?", id).First(&bill).Error; err != nil {
		return models.RoomBill{}, translate("update room bill", err)
	}
	cols := patch.Columns()
	if len(cols) > 0 {
		if err := db.Model(&models.RoomBill{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return models.RoomBill{}, translate("update room bill", err)
		}
	}
	patch.Apply(&bill)
	return bill, nil
}

func (s *GormStore) AddToRoomBill(ctx context.Context, id string, delta float64, updatedAt time.Time) (models.RoomBill, error) {
	db, cancel := s.db(ctx)
	defer cancel()

	result := db.Model(&models.RoomBill{}).Where("id = ?", id).Updates(map[string]interface{}{
		"total_amount": gorm.Expr("total_amount + ?", delta),
		"updated_at":   updatedAt,
	})
	if result.Error != nil {
		return models.RoomBill{}, translate("add to room bill", result.Error)
	}
	var bill models.RoomBill
	if err := db.Where("id = ?", id).First(&bill).Error; err != nil {
		return models.RoomBill{}, translate("add to room bill", err)
	}
	return bill, nil
}
