package models

import (
	"time"

	"gorm.io/datatypes"
)

type OrderStatus string

const (
	StatusNew       OrderStatus = "new"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
)

var statusFlow = []OrderStatus{StatusNew, StatusPreparing, StatusReady, StatusDelivered}

// Next returns the only status an order may move to from s.
// ok is false for delivered and for unknown values.
func (s OrderStatus) Next() (OrderStatus, bool) {
	for i, v := range statusFlow {
		if v == s && i+1 < len(statusFlow) {
			return statusFlow[i+1], true
		}
	}
	return "", false
}

func (s OrderStatus) Valid() bool {
	for _, v := range statusFlow {
		if v == s {
			return true
		}
	}
	return false
}

// CustomerLabel is the collapsed status shown on the guest tracking screen.
func (s OrderStatus) CustomerLabel() string {
	switch s {
	case StatusNew, StatusPreparing:
		return "preparing"
	case StatusReady:
		return "on-the-way"
	case StatusDelivered:
		return "delivered"
	}
	return string(s)
}

const DefaultPaymentMethod = "Pay at checkout"

// OrderLine is a copy of the menu item taken at checkout time.
type OrderLine struct {
	MenuItemID int64   `json:"menuItemId"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
	Veg        bool    `json:"veg"`
}

func (l OrderLine) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}

type CustomerDetails struct {
	Name       string `gorm:"column:customer_name;size:150" json:"name"`
	Mobile     string `gorm:"column:customer_mobile;size:10;index" json:"mobile"`
	RoomNumber string `gorm:"column:room_number;size:50;index" json:"roomNumber"`
}

type Order struct {
	ID              string                         `gorm:"primaryKey;size:36" json:"id"`
	Items           datatypes.JSONSlice[OrderLine] `gorm:"column:items" json:"items"`
	CustomerDetails CustomerDetails                `gorm:"embedded" json:"customerDetails"`
	Total           float64                        `gorm:"not null" json:"total"`
	Timestamp       time.Time                      `gorm:"column:timestamp;index" json:"timestamp"`
	Status          OrderStatus                    `gorm:"size:20;index" json:"status"`
	PaymentMethod   string                         `gorm:"size:64" json:"paymentMethod"`
}

func (Order) TableName() string { return "orders" }

// BillKey is the room bill id this order contributes to.
func (o Order) BillKey() string {
	return BillID(o.CustomerDetails.RoomNumber, o.CustomerDetails.Mobile)
}

// OrderView is an order as shown to a guest, with payment state looked up from its bill.
type OrderView struct {
	Order
	DisplayStatus string `json:"displayStatus"`
	BillPaid      bool   `json:"billPaid"`
}
