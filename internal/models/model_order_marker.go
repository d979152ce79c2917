package models

import "time"

// OrderMarker is the idempotency marker for processed orders: a retried
// order-completed webhook that finds the marker must not grant twice.
type OrderMarker struct {
	OrderID   string    `gorm:"column:order_id;type:varchar(64);primary_key" json:"order_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (OrderMarker) TableName() string { return "commerce_order_marker" }
