package models

import "time"

// BillID derives the bill key from the (room, mobile) pair, so two guests
// sharing a room keep separate bills.
func BillID(roomNumber, mobile string) string {
	return roomNumber + "-" + mobile
}

type RoomBill struct {
	ID             string    `gorm:"primaryKey;size:80" json:"id"`
	RoomNumber     string    `gorm:"column:room_number;size:50;index" json:"room_number"`
	CustomerName   string    `gorm:"column:customer_name;size:150" json:"customer_name"`
	CustomerMobile string    `gorm:"column:customer_mobile;size:10;index" json:"customer_mobile"`
	TotalAmount    float64   `gorm:"column:total_amount" json:"total_amount"`
	IsPaid         bool      `gorm:"column:is_paid;default:false" json:"is_paid"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime:false" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at"`
}

func (RoomBill) TableName() string { return "room_bills" }

type RoomBillPatch struct {
	CustomerName *string
	TotalAmount  *float64
	IsPaid       *bool
	CreatedAt    *time.Time
	UpdatedAt    *time.Time
}

func (p RoomBillPatch) Apply(b *RoomBill) {
	if p.CustomerName != nil {
		b.CustomerName = *p.CustomerName
	}
	if p.TotalAmount != nil {
		b.TotalAmount = *p.TotalAmount
	}
	if p.IsPaid != nil {
		b.IsPaid = *p.IsPaid
	}
	if p.CreatedAt != nil {
		b.CreatedAt = *p.CreatedAt
	}
	if p.UpdatedAt != nil {
		b.UpdatedAt = *p.UpdatedAt
	}
}

func (p RoomBillPatch) Columns() map[string]interface{} {
	m := map[string]interface{}{}
	if p.CustomerName != nil {
		m["customer_name"] = *p.CustomerName
	}
	if p.TotalAmount != nil {
		m["total_amount"] = *p.TotalAmount
	}
	if p.IsPaid != nil {
		m["is_paid"] = *p.IsPaid
	}
	if p.CreatedAt != nil {
		m["created_at"] = *p.CreatedAt
	}
	if p.UpdatedAt != nil {
		m["updated_at"] = *p.UpdatedAt
	}
	return m
}

// BillingSummary is derived from the orders and bills of one mobile number.
type BillingSummary struct {
	Mobile          string  `json:"mobile"`
	TotalAmount     float64 `json:"totalAmount"`
	PaidAmount      float64 `json:"paidAmount"`
	RemainingAmount float64 `json:"remainingAmount"`
	TotalOrders     int     `json:"totalOrders"`
	PaidOrders      int     `json:"paidOrders"`
	UnpaidOrders    int     `json:"unpaidOrders"`
}
