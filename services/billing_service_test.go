package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room-service/models"
	"room-service/store"
)

func TestRecordOrderForBilling_AccumulatesPerRoomAndMobile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	thali := f.addItem(t, "Veg Thali", 300)
	lassi := f.addItem(t, "Sweet Lassi", 150)
	asha := guest("Asha", "9876543210", "204")

	first := f.place(t, asha, line(thali, 1))
	second := f.place(t, asha, line(lassi, 1))

	bill, err := f.billing.GetBill(ctx, "204-9876543210")
	require.NoError(t, err)
	assert.InDelta(t, 450.0, bill.TotalAmount, 1e-9)
	assert.False(t, bill.IsPaid)
	assert.Equal(t, "Asha", bill.CustomerName)
	assert.Equal(t, first.Timestamp, bill.CreatedAt)
	assert.Equal(t, second.Timestamp, bill.UpdatedAt)

	// same guest in another room gets a separate bill
	f.place(t, guest("Asha", "9876543210", "305"), line(lassi, 2))
	bills, err := f.billing.BillsByMobile(ctx, "9876543210")
	require.NoError(t, err)
	require.Len(t, bills, 2)
	assert.Equal(t, "204-9876543210", bills[0].ID)
	assert.Equal(t, "305-9876543210", bills[1].ID)
	assert.InDelta(t, 300.0, bills[1].TotalAmount, 1e-9)
}

func TestRecordOrderForBilling_PaidBillStaysPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.addItem(t, "Masala Dosa", 120)
	asha := guest("Asha", "9876543210", "204")

	f.place(t, asha, line(item, 1))
	_, err := f.billing.SetPaid(ctx, "204-9876543210", true)
	require.NoError(t, err)

	f.place(t, asha, line(item, 1))
	bill, err := f.billing.GetBill(ctx, "204-9876543210")
	require.NoError(t, err)
	assert.True(t, bill.IsPaid)
	assert.InDelta(t, 240.0, bill.TotalAmount, 1e-9)
}

// racingStore lets another writer create the bill between our read and insert.
type racingStore struct {
	store.Store
	raced bool
}

func (r *racingStore) InsertRoomBill(ctx context.Context, b models.RoomBill) (models.RoomBill, error) {
	if !r.raced {
		r.raced = true
		other := b
		other.TotalAmount = 100
		if _, err := r.Store.InsertRoomBill(ctx, other); err != nil {
			return models.RoomBill{}, err
		}
	}
	return r.Store.InsertRoomBill(ctx, b)
}

func TestRecordOrderForBilling_LosesInsertRace(t *testing.T) {
	st := &racingStore{Store: store.NewMemoryStore()}
	billing := NewBillingService(st)
	order := models.Order{
		ID:              "o1",
		CustomerDetails: guest("Asha", "9876543210", "204"),
		Total:           250,
		Timestamp:       time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Status:          models.StatusNew,
	}

	bill, err := billing.RecordOrderForBilling(context.Background(), order)
	require.NoError(t, err)
	assert.InDelta(t, 350.0, bill.TotalAmount, 1e-9)
}

// slowBillReads widens the gap between reading a bill and writing it back.
type slowBillReads struct {
	store.Store
}

func (s slowBillReads) GetRoomBill(ctx context.Context, id string) (models.RoomBill, error) {
	time.Sleep(20 * time.Millisecond)
	return s.Store.GetRoomBill(ctx, id)
}

func TestCreateOrder_ConcurrentOrdersKeepEveryAmount(t *testing.T) {
	mem := store.NewMemoryStore()
	st := slowBillReads{Store: mem}
	billing := NewBillingService(st)
	orders := NewOrderService(st, billing)
	ctx := context.Background()

	item, err := NewMenuService(st).CreateMenuItem(ctx, models.MenuItem{
		Name: "Veg Thali", Price: 300, Category: models.CategoryMains, Veg: true,
	})
	require.NoError(t, err)

	// seed the bill so every writer goes through the add path
	_, err = orders.CreateOrder(ctx, []models.CartItem{line(item, 1)}, guest("Asha", "9876543210", "204"))
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(qty int) {
			defer wg.Done()
			_, err := orders.CreateOrder(ctx, []models.CartItem{line(item, qty)}, guest("Asha", "9876543210", "204"))
			errs <- err
		}(i%2 + 1)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	all, err := orders.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, all, writers+1)
	var want float64
	for _, o := range all {
		want += o.Total
	}
	bill, err := billing.GetBill(ctx, "204-9876543210")
	require.NoError(t, err)
	assert.InDelta(t, want, bill.TotalAmount, 1e-9)
}

func TestCreateOrder_ConcurrentFirstOrdersShareOneBill(t *testing.T) {
	mem := store.NewMemoryStore()
	billing := NewBillingService(mem)
	orders := NewOrderService(mem, billing)
	ctx := context.Background()
	item, err := NewMenuService(mem).CreateMenuItem(ctx, models.MenuItem{
		Name: "Masala Dosa", Price: 120, Category: models.CategoryMains, Veg: true,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := orders.CreateOrder(ctx, []models.CartItem{line(item, 1)}, guest("Ravi", "9123456780", "101"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	bills, err := billing.ListBills(ctx)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.InDelta(t, 720.0, bills[0].TotalAmount, 1e-9)
}

func TestSetPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.addItem(t, "Masala Dosa", 120)
	f.place(t, guest("Asha", "9876543210", "204"), line(item, 1))

	paid, err := f.billing.SetPaid(ctx, "204-9876543210", true)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)

	again, err := f.billing.SetPaid(ctx, "204-9876543210", true)
	require.NoError(t, err)
	assert.True(t, again.IsPaid)
	assert.Equal(t, paid.TotalAmount, again.TotalAmount)
	assert.True(t, again.UpdatedAt.After(paid.UpdatedAt))

	unpaid, err := f.billing.SetPaid(ctx, "204-9876543210", false)
	require.NoError(t, err)
	assert.False(t, unpaid.IsPaid)

	_, err = f.billing.SetPaid(ctx, "999-9876543210", true)
	assert.True(t, IsNotFound(err))
}

func TestComputeSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	thali := f.addItem(t, "Veg Thali", 300)
	lassi := f.addItem(t, "Sweet Lassi", 150)

	f.place(t, guest("Asha", "9876543210", "204"), line(thali, 1))
	f.place(t, guest("Asha", "9876543210", "204"), line(lassi, 1))
	f.place(t, guest("Asha", "9876543210", "305"), line(lassi, 2))
	f.place(t, guest("Ravi", "9123456780", "204"), line(thali, 1))

	_, err := f.billing.SetPaid(ctx, "204-9876543210", true)
	require.NoError(t, err)

	sum, err := f.billing.ComputeSummary(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "9876543210", sum.Mobile)
	assert.Equal(t, 3, sum.TotalOrders)
	assert.Equal(t, 2, sum.PaidOrders)
	assert.Equal(t, 1, sum.UnpaidOrders)
	assert.InDelta(t, 750.0, sum.TotalAmount, 1e-9)
	assert.InDelta(t, 450.0, sum.PaidAmount, 1e-9)
	assert.InDelta(t, 300.0, sum.RemainingAmount, 1e-9)

	empty, err := f.billing.ComputeSummary(ctx, "9000000000")
	require.NoError(t, err)
	assert.Zero(t, empty.TotalOrders)
	assert.Zero(t, empty.RemainingAmount)

	_, err = f.billing.ComputeSummary(ctx, "abc")
	assert.True(t, IsValidation(err))
}

func TestSummarize_IgnoresOtherGuests(t *testing.T) {
	orders := []models.Order{
		{ID: "a", Total: 100, CustomerDetails: guest("Asha", "9876543210", "204")},
		{ID: "b", Total: 50, CustomerDetails: guest("Ravi", "9123456780", "204")},
	}
	sum := Summarize("9876543210", orders, map[string]bool{"204-9123456780": true})
	assert.Equal(t, 1, sum.TotalOrders)
	assert.Equal(t, 0, sum.PaidOrders)
	assert.InDelta(t, 100.0, sum.RemainingAmount, 1e-9)
}

func TestOrdersWithPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.addItem(t, "Veg Thali", 300)

	older := f.place(t, guest("Asha", "9876543210", "204"), line(item, 1))
	newer := f.place(t, guest("Asha", "9876543210", "305"), line(item, 1))
	_, err := f.orders.AdvanceStatus(ctx, newer.ID, models.StatusPreparing)
	require.NoError(t, err)
	_, err = f.orders.AdvanceStatus(ctx, newer.ID, models.StatusReady)
	require.NoError(t, err)
	_, err = f.billing.SetPaid(ctx, older.BillKey(), true)
	require.NoError(t, err)

	views, err := f.billing.OrdersWithPayment(ctx, "9876543210")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, newer.ID, views[0].ID)
	assert.Equal(t, "on-the-way", views[0].DisplayStatus)
	assert.False(t, views[0].BillPaid)
	assert.Equal(t, older.ID, views[1].ID)
	assert.Equal(t, "preparing", views[1].DisplayStatus)
	assert.True(t, views[1].BillPaid)
}

func TestRecalculateBills_RepairsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.addItem(t, "Veg Thali", 300)
	asha := guest("Asha", "9876543210", "204")

	f.place(t, asha, line(item, 1))
	_, err := f.billing.SetPaid(ctx, "204-9876543210", true)
	require.NoError(t, err)

	// order lands but its bill update is lost
	f.store.failUpdateBill = true
	_, err = f.orders.CreateOrder(ctx, []models.CartItem{line(item, 1)}, asha)
	require.True(t, IsBillingSync(err))
	f.store.failUpdateBill = false

	bill, err := f.billing.GetBill(ctx, "204-9876543210")
	require.NoError(t, err)
	assert.InDelta(t, 300.0, bill.TotalAmount, 1e-9)

	fixed, err := f.billing.RecalculateBills(ctx)
	require.NoError(t, err)
	require.Len(t, fixed, 1)
	assert.InDelta(t, 600.0, fixed[0].TotalAmount, 1e-9)
	assert.True(t, fixed[0].IsPaid)

	// running it again changes nothing
	again, err := f.billing.RecalculateBills(ctx)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, fixed[0].TotalAmount, again[0].TotalAmount)
	assert.Equal(t, fixed[0].CreatedAt, again[0].CreatedAt)
}

func TestRecalculateBills_ListFailure(t *testing.T) {
	f := newFixture(t)
	f.store.failListOrders = true
	_, err := f.billing.RecalculateBills(context.Background())
	assert.True(t, IsPersistence(err))
}

func TestBillingRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	curry := f.addItem(t, "Kadai Paneer", 100)
	roti := f.addItem(t, "Tandoori Roti", 50)

	o := f.place(t, guest("Asha", "9876543210", "204"), line(curry, 2), line(roti, 1))
	assert.InDelta(t, 250.0, o.Total, 1e-9)

	bill, err := f.billing.GetBill(ctx, o.BillKey())
	require.NoError(t, err)
	assert.InDelta(t, 250.0, bill.TotalAmount, 1e-9)

	sum, err := f.billing.ComputeSummary(ctx, "9876543210")
	require.NoError(t, err)
	assert.InDelta(t, 250.0, sum.TotalAmount, 1e-9)
	assert.InDelta(t, 250.0, sum.RemainingAmount, 1e-9)
	assert.Zero(t, sum.PaidAmount)

	_, err = f.billing.SetPaid(ctx, o.BillKey(), true)
	require.NoError(t, err)
	sum, err = f.billing.ComputeSummary(ctx, "9876543210")
	require.NoError(t, err)
	assert.Zero(t, sum.RemainingAmount)
	assert.InDelta(t, 250.0, sum.PaidAmount, 1e-9)
}

func TestTwoOrdersSameRoomScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	thali := f.addItem(t, "Veg Thali", 300)
	lassi := f.addItem(t, "Sweet Lassi", 150)
	asha := guest("Asha", "9876543210", "204")

	f.place(t, asha, line(thali, 1))
	f.place(t, asha, line(lassi, 1))

	sum, err := f.billing.ComputeSummary(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, 2, sum.TotalOrders)
	assert.InDelta(t, 450.0, sum.TotalAmount, 1e-9)
	assert.Equal(t, 0, sum.PaidOrders)
	assert.Equal(t, 2, sum.UnpaidOrders)
	assert.InDelta(t, 450.0, sum.RemainingAmount, 1e-9)

	_, err = f.billing.SetPaid(ctx, "204-9876543210", true)
	require.NoError(t, err)
	sum, err = f.billing.ComputeSummary(ctx, "9876543210")
	require.NoError(t, err)
	assert.Zero(t, sum.RemainingAmount)
	assert.Equal(t, 2, sum.PaidOrders)
	assert.Zero(t, sum.UnpaidOrders)
}

func TestBillTotalsMatchOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.addItem(t, "Masala Dosa", 120)
	guests := []models.CustomerDetails{
		guest("Asha", "9876543210", "204"),
		guest("Ravi", "9123456780", "204"),
		guest("Asha", "9876543210", "305"),
	}
	for i := 0; i < 9; i++ {
		f.place(t, guests[i%len(guests)], line(item, i%3+1))

		orders, err := f.orders.ListOrders(ctx)
		require.NoError(t, err)
		want := map[string]float64{}
		for _, o := range orders {
			want[o.BillKey()] += o.Total
		}
		bills, err := f.billing.ListBills(ctx)
		require.NoError(t, err)
		require.Len(t, bills, len(want))
		for _, b := range bills {
			assert.InDelta(t, want[b.ID], b.TotalAmount, 1e-9, b.ID)
		}
	}
}
