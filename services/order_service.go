package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"room-service/models"
	"room-service/store"
)

const maxIDRetries = 5

// CartLine is what a checkout request carries: a menu item reference and a quantity.
type CartLine struct {
	MenuItemID int64 `json:"menuItemId" binding:"required"`
	Quantity   int   `json:"quantity" binding:"required"`
}

// OrderService owns order creation and the status state machine.
type OrderService struct {
	Store   store.Store
	Billing *BillingService

	Now   func() time.Time
	NewID func() string
}

func NewOrderService(st store.Store, billing *BillingService) *OrderService {
	return &OrderService{
		Store:   st,
		Billing: billing,
		Now:     func() time.Time { return time.Now().UTC() },
		NewID:   uuid.NewString,
	}
}

// ValidateMobile accepts exactly ten ASCII digits.
func ValidateMobile(mobile string) error {
	if len(mobile) != 10 {
		return invalid("mobile", "mobile number must be exactly 10 digits")
	}
	for _, r := range mobile {
		if r < '0' || r > '9' {
			return invalid("mobile", "mobile number must contain digits only")
		}
	}
	return nil
}

func normalizeCustomer(c models.CustomerDetails) models.CustomerDetails {
	return models.CustomerDetails{
		Name:       strings.TrimSpace(c.Name),
		Mobile:     strings.TrimSpace(c.Mobile),
		RoomNumber: strings.TrimSpace(c.RoomNumber),
	}
}

// ValidateCustomer trims the guest details and checks them. It touches no
// storage, so callers run it before anything that does.
func ValidateCustomer(c models.CustomerDetails) (models.CustomerDetails, error) {
	c = normalizeCustomer(c)
	if c.Name == "" {
		return c, invalid("name", "name is required")
	}
	if err := ValidateMobile(c.Mobile); err != nil {
		return c, err
	}
	if c.RoomNumber == "" {
		return c, invalid("roomNumber", "room number is required")
	}
	return c, nil
}

func validateCart(cart []models.CartItem) error {
	if len(cart) == 0 {
		return invalid("items", "cart is empty")
	}
	for i, line := range cart {
		if line.Quantity < 1 {
			return invalid(fmt.Sprintf("items[%d].quantity", i), "quantity must be at least 1")
		}
		if line.MenuItem.Price <= 0 {
			return invalid(fmt.Sprintf("items[%d].price", i), "price must be positive")
		}
		if strings.TrimSpace(line.MenuItem.Name) == "" {
			return invalid(fmt.Sprintf("items[%d].name", i), "item name is required")
		}
	}
	return nil
}

// ResolveCart turns checkout lines into cart items using the live menu.
// Lines for the same item are merged.
func (s *OrderService) ResolveCart(ctx context.Context, lines []CartLine) ([]models.CartItem, error) {
	if len(lines) == 0 {
		return nil, invalid("items", "cart is empty")
	}
	for i, l := range lines {
		if l.Quantity < 1 {
			return nil, invalid(fmt.Sprintf("items[%d].quantity", i), "quantity must be at least 1")
		}
	}

	var cart models.Cart
	for _, l := range lines {
		item, err := s.Store.GetMenuItem(ctx, l.MenuItemID)
		if err != nil {
			return nil, storeErr("get menu item", "menu item", fmt.Sprint(l.MenuItemID), err)
		}
		if item.Disabled {
			return nil, invalid("items", fmt.Sprintf("%s is not available right now", item.Name))
		}
		cart.Set(item, cart.Quantity(item.ID)+l.Quantity)
	}
	return cart.Lines(), nil
}

// Checkout validates the guest, prices the lines against the live menu and
// places the order. Bad guest details are reported before the menu is read.
func (s *OrderService) Checkout(ctx context.Context, lines []CartLine, customer models.CustomerDetails) (models.Order, error) {
	customer, err := ValidateCustomer(customer)
	if err != nil {
		return models.Order{}, err
	}
	cart, err := s.ResolveCart(ctx, lines)
	if err != nil {
		return models.Order{}, err
	}
	return s.CreateOrder(ctx, cart, customer)
}

// CreateOrder validates the checkout, stores a new order with status new and
// adds it to the guest's room bill.
//
// When the order is stored but the bill update fails, the created order is
// returned together with a *BillingSyncError.
func (s *OrderService) CreateOrder(ctx context.Context, cart []models.CartItem, customer models.CustomerDetails) (models.Order, error) {
	if err := validateCart(cart); err != nil {
		return models.Order{}, err
	}
	customer, err := ValidateCustomer(customer)
	if err != nil {
		return models.Order{}, err
	}

	lines := make([]models.OrderLine, 0, len(cart))
	var total float64
	for _, c := range cart {
		line := models.OrderLine{
			MenuItemID: c.MenuItem.ID,
			Name:       c.MenuItem.Name,
			Quantity:   c.Quantity,
			Price:      c.MenuItem.Price,
			Veg:        c.MenuItem.Veg,
		}
		total += line.Subtotal()
		lines = append(lines, line)
	}

	order := models.Order{
		Items:           lines,
		CustomerDetails: customer,
		Total:           total,
		Timestamp:       s.Now(),
		Status:          models.StatusNew,
		PaymentMethod:   models.DefaultPaymentMethod,
	}

	var created models.Order
	for attempt := 0; attempt < maxIDRetries; attempt++ {
		order.ID = s.NewID()
		created, err = s.Store.InsertOrder(ctx, order)
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrDuplicate) {
			log.Warn().Str("order_id", order.ID).Int("attempt", attempt+1).Msg("order id collision, retrying")
			continue
		}
		log.Error().Err(err).Str("mobile", customer.Mobile).Msg("❌ failed to store order")
		return models.Order{}, &PersistenceError{Op: "insert order", Err: err}
	}
	if err != nil {
		return models.Order{}, &PersistenceError{Op: "insert order", Err: fmt.Errorf("after %d attempts: %w", maxIDRetries, err)}
	}

	log.Info().
		Str("order_id", created.ID).
		Str("room", customer.RoomNumber).
		Float64("total", created.Total).
		Msg("✅ order created")

	if s.Billing == nil {
		return created, nil
	}
	if _, berr := s.Billing.RecordOrderForBilling(ctx, created); berr != nil {
		log.Warn().
			Err(berr).
			Str("order_id", created.ID).
			Str("bill_id", created.BillKey()).
			Msg("⚠️ room bill out of sync with orders; run bill recalculation")
		return created, &BillingSyncError{OrderID: created.ID, BillID: created.BillKey(), Err: berr}
	}
	return created, nil
}

// AdvanceStatus moves an order exactly one step forward: new → preparing → ready → delivered.
func (s *OrderService) AdvanceStatus(ctx context.Context, orderID string, target models.OrderStatus) (models.Order, error) {
	if !target.Valid() {
		return models.Order{}, invalid("status", fmt.Sprintf("unknown status %q", target))
	}

	order, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, storeErr("get order", "order", orderID, err)
	}

	next, ok := order.Status.Next()
	if !ok || next != target {
		return models.Order{}, &InvalidTransitionError{OrderID: orderID, From: order.Status, To: target}
	}

	updated, err := s.Store.UpdateOrderStatus(ctx, orderID, target)
	if err != nil {
		return models.Order{}, storeErr("update order status", "order", orderID, err)
	}
	log.Info().Str("order_id", orderID).Str("from", string(order.Status)).Str("to", string(target)).Msg("order status changed")
	return updated, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (models.Order, error) {
	order, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, storeErr("get order", "order", orderID, err)
	}
	return order, nil
}

func newestFirst(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Timestamp.After(orders[j].Timestamp)
	})
}

// ListOrders returns every order, newest first.
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.Store.ListOrders(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list orders", Err: err}
	}
	newestFirst(orders)
	return orders, nil
}

// ListOrdersByMobile returns the guest's orders, newest first.
func (s *OrderService) ListOrdersByMobile(ctx context.Context, mobile string) ([]models.Order, error) {
	mobile = strings.TrimSpace(mobile)
	if err := ValidateMobile(mobile); err != nil {
		return nil, err
	}
	all, err := s.Store.ListOrders(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list orders", Err: err}
	}
	out := make([]models.Order, 0)
	for _, o := range all {
		if o.CustomerDetails.Mobile == mobile {
			out = append(out, o)
		}
	}
	newestFirst(out)
	return out, nil
}
