package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"room-service/models"
	"room-service/store"
)

// BillingService keeps one RoomBill per (room, mobile) pair.
//
// Bill totals stored in the collection are a cache. Summaries are always
// recomputed from the orders, and RecalculateBills rewrites the cache from them.
// Order amounts are added atomically in the store; other bill writes are
// last-write-wins.
type BillingService struct {
	Store store.Store
	Now   func() time.Time
}

func NewBillingService(st store.Store) *BillingService {
	return &BillingService{
		Store: st,
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

// RecordOrderForBilling adds order.Total to the bill for its (room, mobile) key,
// creating the bill on the first order. is_paid is never touched here: a bill
// that was settled stays settled until staff change it.
func (s *BillingService) RecordOrderForBilling(ctx context.Context, order models.Order) (models.RoomBill, error) {
	key := order.BillKey()

	bill, err := s.Store.AddToRoomBill(ctx, key, order.Total, order.Timestamp)
	if err == nil {
		return bill, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return models.RoomBill{}, &PersistenceError{Op: "add to room bill", Err: err}
	}

	fresh := models.RoomBill{
		ID:             key,
		RoomNumber:     order.CustomerDetails.RoomNumber,
		CustomerName:   order.CustomerDetails.Name,
		CustomerMobile: order.CustomerDetails.Mobile,
		TotalAmount:    order.Total,
		IsPaid:         false,
		CreatedAt:      order.Timestamp,
		UpdatedAt:      order.Timestamp,
	}
	created, err := s.Store.InsertRoomBill(ctx, fresh)
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, store.ErrDuplicate) {
		return models.RoomBill{}, &PersistenceError{Op: "insert room bill", Err: err}
	}

	// another session created it first; add to theirs
	bill, err = s.Store.AddToRoomBill(ctx, key, order.Total, order.Timestamp)
	if err != nil {
		return models.RoomBill{}, storeErr("add to room bill", "room bill", key, err)
	}
	return bill, nil
}

// SetPaid records whether the bill has been settled. Calling it twice with the
// same value only moves updated_at.
func (s *BillingService) SetPaid(ctx context.Context, billID string, paid bool) (models.RoomBill, error) {
	now := s.Now()
	bill, err := s.Store.UpdateRoomBill(ctx, billID, models.RoomBillPatch{
		IsPaid:    &paid,
		UpdatedAt: &now,
	})
	if err != nil {
		return models.RoomBill{}, storeErr("update room bill", "room bill", billID, err)
	}
	log.Info().Str("bill_id", billID).Bool("is_paid", paid).Msg("room bill payment updated")
	return bill, nil
}

func (s *BillingService) GetBill(ctx context.Context, billID string) (models.RoomBill, error) {
	bill, err := s.Store.GetRoomBill(ctx, billID)
	if err != nil {
		return models.RoomBill{}, storeErr("get room bill", "room bill", billID, err)
	}
	return bill, nil
}

func (s *BillingService) ListBills(ctx context.Context) ([]models.RoomBill, error) {
	bills, err := s.Store.ListRoomBills(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list room bills", Err: err}
	}
	return bills, nil
}

func (s *BillingService) BillsByMobile(ctx context.Context, mobile string) ([]models.RoomBill, error) {
	mobile = strings.TrimSpace(mobile)
	if err := ValidateMobile(mobile); err != nil {
		return nil, err
	}
	bills, err := s.ListBills(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.RoomBill, 0)
	for _, b := range bills {
		if b.CustomerMobile == mobile {
			out = append(out, b)
		}
	}
	return out, nil
}

// snapshotFor loads the guest's orders and the paid flag of every bill.
func (s *BillingService) snapshotFor(ctx context.Context, mobile string) ([]models.Order, map[string]bool, error) {
	orders, err := s.Store.ListOrders(ctx)
	if err != nil {
		return nil, nil, &PersistenceError{Op: "list orders", Err: err}
	}
	bills, err := s.Store.ListRoomBills(ctx)
	if err != nil {
		return nil, nil, &PersistenceError{Op: "list room bills", Err: err}
	}
	paid := make(map[string]bool, len(bills))
	for _, b := range bills {
		paid[b.ID] = b.IsPaid
	}
	mine := make([]models.Order, 0)
	for _, o := range orders {
		if o.CustomerDetails.Mobile == mobile {
			mine = append(mine, o)
		}
	}
	return mine, paid, nil
}

// Summarize is the pure part of ComputeSummary.
func Summarize(mobile string, orders []models.Order, paidByBill map[string]bool) models.BillingSummary {
	sum := models.BillingSummary{Mobile: mobile}
	for _, o := range orders {
		if o.CustomerDetails.Mobile != mobile {
			continue
		}
		sum.TotalOrders++
		sum.TotalAmount += o.Total
		if paidByBill[o.BillKey()] {
			sum.PaidOrders++
			sum.PaidAmount += o.Total
		} else {
			sum.UnpaidOrders++
		}
	}
	sum.RemainingAmount = sum.TotalAmount - sum.PaidAmount
	return sum
}

// ComputeSummary totals a guest's orders across all their rooms.
func (s *BillingService) ComputeSummary(ctx context.Context, mobile string) (models.BillingSummary, error) {
	mobile = strings.TrimSpace(mobile)
	if err := ValidateMobile(mobile); err != nil {
		return models.BillingSummary{}, err
	}
	orders, paid, err := s.snapshotFor(ctx, mobile)
	if err != nil {
		return models.BillingSummary{}, err
	}
	return Summarize(mobile, orders, paid), nil
}

// OrdersWithPayment lists a guest's orders newest first, each marked paid when
// its bill is paid.
func (s *BillingService) OrdersWithPayment(ctx context.Context, mobile string) ([]models.OrderView, error) {
	mobile = strings.TrimSpace(mobile)
	if err := ValidateMobile(mobile); err != nil {
		return nil, err
	}
	orders, paid, err := s.snapshotFor(ctx, mobile)
	if err != nil {
		return nil, err
	}
	newestFirst(orders)
	views := make([]models.OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, models.OrderView{
			Order:         o,
			DisplayStatus: o.Status.CustomerLabel(),
			BillPaid:      paid[o.BillKey()],
		})
	}
	return views, nil
}

type billTally struct {
	first models.Order
	total float64
	start time.Time
	last  time.Time
}

// RecalculateBills rebuilds every bill's total and timestamps from the orders
// collection. Paid flags are kept. Bills without orders are left alone.
func (s *BillingService) RecalculateBills(ctx context.Context) ([]models.RoomBill, error) {
	orders, err := s.Store.ListOrders(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list orders", Err: err}
	}

	tallies := map[string]*billTally{}
	keys := make([]string, 0)
	for _, o := range orders {
		key := o.BillKey()
		t, ok := tallies[key]
		if !ok {
			t = &billTally{first: o, start: o.Timestamp, last: o.Timestamp}
			tallies[key] = t
			keys = append(keys, key)
		}
		t.total += o.Total
		if o.Timestamp.Before(t.start) {
			t.start = o.Timestamp
			t.first = o
		}
		if o.Timestamp.After(t.last) {
			t.last = o.Timestamp
		}
	}

	out := make([]models.RoomBill, 0, len(keys))
	for _, key := range keys {
		t := tallies[key]
		existing, err := s.Store.GetRoomBill(ctx, key)
		switch {
		case errors.Is(err, store.ErrNotFound):
			created, ierr := s.Store.InsertRoomBill(ctx, models.RoomBill{
				ID:             key,
				RoomNumber:     t.first.CustomerDetails.RoomNumber,
				CustomerName:   t.first.CustomerDetails.Name,
				CustomerMobile: t.first.CustomerDetails.Mobile,
				TotalAmount:    t.total,
				CreatedAt:      t.start,
				UpdatedAt:      t.last,
			})
			if ierr != nil {
				return out, &PersistenceError{Op: "insert room bill", Err: ierr}
			}
			out = append(out, created)
		case err != nil:
			return out, &PersistenceError{Op: "get room bill", Err: err}
		default:
			total := t.total
			start := t.start
			last := t.last
			if existing.UpdatedAt.After(last) {
				last = existing.UpdatedAt
			}
			updated, uerr := s.Store.UpdateRoomBill(ctx, key, models.RoomBillPatch{
				TotalAmount: &total,
				CreatedAt:   &start,
				UpdatedAt:   &last,
			})
			if uerr != nil {
				return out, storeErr("update room bill", "room bill", key, uerr)
			}
			if existing.TotalAmount != total {
				log.Warn().Str("bill_id", key).Float64("stored", existing.TotalAmount).Float64("orders", total).Msg("room bill total corrected")
			}
			out = append(out, updated)
		}
	}
	return out, nil
}
