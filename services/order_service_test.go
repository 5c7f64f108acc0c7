package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room-service/models"
)

func TestValidateMobile(t *testing.T) {
	assert.NoError(t, ValidateMobile("9876543210"))

	for _, bad := range []string{"", "987654321", "98765432100", "98765x3210", "+919876543"} {
		err := ValidateMobile(bad)
		assert.True(t, IsValidation(err), "mobile %q", bad)
	}
}

func TestCreateOrder_SnapshotsCartAndTotals(t *testing.T) {
	f := newFixture(t)
	naan := f.addItem(t, "Butter Naan", 50)
	paneer := f.addItem(t, "Paneer Tikka", 150)

	o := f.place(t, guest("Asha", "9876543210", "204"), line(naan, 2), line(paneer, 1))

	assert.Equal(t, "ord-001", o.ID)
	assert.Equal(t, models.StatusNew, o.Status)
	assert.Equal(t, models.DefaultPaymentMethod, o.PaymentMethod)
	assert.InDelta(t, 250.0, o.Total, 1e-9)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Butter Naan", o.Items[0].Name)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.Equal(t, naan.ID, o.Items[0].MenuItemID)

	stored, err := f.orders.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Total, stored.Total)
	assert.Equal(t, "204", stored.CustomerDetails.RoomNumber)
}

func TestCreateOrder_TrimsCustomerFields(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, "Dal Makhani", 180)

	o := f.place(t, guest("  Ravi ", " 9876543210 ", " 101 "), line(item, 1))
	assert.Equal(t, "Ravi", o.CustomerDetails.Name)
	assert.Equal(t, "9876543210", o.CustomerDetails.Mobile)
	assert.Equal(t, "101", o.CustomerDetails.RoomNumber)
	assert.Equal(t, "101-9876543210", o.BillKey())
}

func TestCreateOrder_RejectsBeforeWriting(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, "Jeera Rice", 120)
	ctx := context.Background()

	cases := []struct {
		name     string
		cart     []models.CartItem
		customer models.CustomerDetails
		field    string
	}{
		{"empty cart", nil, guest("Asha", "9876543210", "204"), "items"},
		{"zero quantity", []models.CartItem{line(item, 0)}, guest("Asha", "9876543210", "204"), "items[0].quantity"},
		{"missing name", []models.CartItem{line(item, 1)}, guest(" ", "9876543210", "204"), "name"},
		{"short mobile", []models.CartItem{line(item, 1)}, guest("Asha", "98765", "204"), "mobile"},
		{"missing room", []models.CartItem{line(item, 1)}, guest("Asha", "9876543210", ""), "roomNumber"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.orders.CreateOrder(ctx, tc.cart, tc.customer)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	assert.Zero(t, f.store.insertOrderCalls)
	assert.Zero(t, f.store.insertBillCalls)
	orders, err := f.orders.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrder_RetriesIDCollision(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, "Gulab Jamun", 90)
	f.store.duplicateOrderHits = 2

	o := f.place(t, guest("Asha", "9876543210", "204"), line(item, 1))
	assert.Equal(t, "ord-003", o.ID)
	assert.Equal(t, 3, f.store.insertOrderCalls)
}

func TestCreateOrder_StoreFailureIsPersistenceError(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, "Gulab Jamun", 90)
	f.store.failInsertOrder = true

	_, err := f.orders.CreateOrder(context.Background(), []models.CartItem{line(item, 1)}, guest("Asha", "9876543210", "204"))
	assert.True(t, IsPersistence(err))
	assert.ErrorIs(t, err, errStoreDown)
	assert.Zero(t, f.store.insertBillCalls)
}

func TestCreateOrder_BillingFailureKeepsOrder(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, "Masala Chai", 40)
	f.store.failInsertBill = true

	o, err := f.orders.CreateOrder(context.Background(), []models.CartItem{line(item, 3)}, guest("Asha", "9876543210", "204"))
	require.Error(t, err)
	assert.True(t, IsBillingSync(err))
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, "ord-001", o.ID)

	stored, gerr := f.orders.GetOrder(context.Background(), o.ID)
	require.NoError(t, gerr)
	assert.InDelta(t, 120.0, stored.Total, 1e-9)

	// the bill is rebuilt from orders once the store recovers
	f.store.failInsertBill = false
	bills, rerr := f.billing.RecalculateBills(context.Background())
	require.NoError(t, rerr)
	require.Len(t, bills, 1)
	assert.InDelta(t, 120.0, bills[0].TotalAmount, 1e-9)
}

func TestResolveCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	naan := f.addItem(t, "Butter Naan", 50)
	lassi := f.addItem(t, "Sweet Lassi", 80)

	cart, err := f.orders.ResolveCart(ctx, []CartLine{
		{MenuItemID: naan.ID, Quantity: 1},
		{MenuItemID: lassi.ID, Quantity: 2},
		{MenuItemID: naan.ID, Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, cart, 2)
	assert.Equal(t, naan.ID, cart[0].MenuItem.ID)
	assert.Equal(t, 3, cart[0].Quantity)
	assert.Equal(t, 2, cart[1].Quantity)

	_, err = f.orders.ResolveCart(ctx, []CartLine{{MenuItemID: 999, Quantity: 1}})
	assert.True(t, IsNotFound(err))

	_, err = f.orders.ResolveCart(ctx, []CartLine{{MenuItemID: naan.ID, Quantity: -1}})
	assert.True(t, IsValidation(err))

	_, err = f.orders.ResolveCart(ctx, nil)
	assert.True(t, IsValidation(err))

	_, err = f.menu.SetDisabled(ctx, lassi.ID, true)
	require.NoError(t, err)
	_, err = f.orders.ResolveCart(ctx, []CartLine{{MenuItemID: lassi.ID, Quantity: 1}})
	assert.True(t, IsValidation(err))
}

func TestAdvanceStatus_SingleStepOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.addItem(t, "Veg Biryani", 220)
	o := f.place(t, guest("Asha", "9876543210", "204"), line(item, 1))

	_, err := f.orders.AdvanceStatus(ctx, o.ID, models.StatusReady)
	var terr *InvalidTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, models.StatusNew, terr.From)

	for _, next := range []models.OrderStatus{models.StatusPreparing, models.StatusReady, models.StatusDelivered} {
		updated, err := f.orders.AdvanceStatus(ctx, o.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	_, err = f.orders.AdvanceStatus(ctx, o.ID, models.StatusDelivered)
	assert.True(t, IsInvalidTransition(err))
	_, err = f.orders.AdvanceStatus(ctx, o.ID, models.StatusNew)
	assert.True(t, IsInvalidTransition(err))
}

func TestAdvanceStatus_UnknownStatusOrOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.addItem(t, "Veg Biryani", 220)
	o := f.place(t, guest("Asha", "9876543210", "204"), line(item, 1))

	_, err := f.orders.AdvanceStatus(ctx, o.ID, models.OrderStatus("cancelled"))
	assert.True(t, IsValidation(err))

	_, err = f.orders.AdvanceStatus(ctx, "missing", models.StatusPreparing)
	assert.True(t, IsNotFound(err))
}

func TestListOrdersByMobile_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.addItem(t, "Veg Biryani", 220)

	first := f.place(t, guest("Asha", "9876543210", "204"), line(item, 1))
	f.place(t, guest("Ravi", "9123456780", "101"), line(item, 1))
	third := f.place(t, guest("Asha", "9876543210", "305"), line(item, 2))

	mine, err := f.orders.ListOrdersByMobile(ctx, "9876543210")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, third.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)

	all, err := f.orders.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, third.ID, all[0].ID)

	_, err = f.orders.ListOrdersByMobile(ctx, "123")
	assert.True(t, IsValidation(err))
}

func TestMenuChangesDoNotRewriteHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.addItem(t, "Paneer Tikka", 150)
	o := f.place(t, guest("Asha", "9876543210", "204"), line(item, 2))

	price := 175.0
	_, err := f.menu.UpdateMenuItem(ctx, item.ID, models.MenuItemPatch{Price: &price})
	require.NoError(t, err)
	_, err = f.menu.SetDisabled(ctx, item.ID, true)
	require.NoError(t, err)
	require.NoError(t, f.menu.DeleteMenuItem(ctx, item.ID))

	stored, err := f.orders.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 150.0, stored.Items[0].Price)
	assert.InDelta(t, 300.0, stored.Total, 1e-9)
}

func TestCheckout_ValidatesGuestBeforeReadingMenu(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, "Jeera Rice", 120)
	f.store.failGetMenuItem = true

	_, err := f.orders.Checkout(context.Background(),
		[]CartLine{{MenuItemID: item.ID, Quantity: 1}},
		guest("Asha", "98765", "204"))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "mobile", verr.Field)
	assert.Zero(t, f.store.getMenuItemCalls)
	assert.Zero(t, f.store.insertOrderCalls)
}

func TestCheckout_PricesFromMenu(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, "Jeera Rice", 120)

	o, err := f.orders.Checkout(context.Background(),
		[]CartLine{{MenuItemID: item.ID, Quantity: 1}, {MenuItemID: item.ID, Quantity: 2}},
		guest(" Asha ", "9876543210", "204"))
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 3, o.Items[0].Quantity)
	assert.InDelta(t, 360.0, o.Total, 1e-9)
	assert.Equal(t, "Asha", o.CustomerDetails.Name)

	f.store.failGetMenuItem = true
	_, err = f.orders.Checkout(context.Background(),
		[]CartLine{{MenuItemID: item.ID, Quantity: 1}},
		guest("Asha", "9876543210", "204"))
	assert.True(t, IsPersistence(err))
}
