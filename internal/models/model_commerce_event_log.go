package models

import (
	"time"

	"gorm.io/datatypes"
)

type CommerceEventLogStatus string

const (
	CommerceEventLogStatusReceived     CommerceEventLogStatus = "received"
	CommerceEventLogStatusHandled      CommerceEventLogStatus = "handled"
	CommerceEventLogStatusHandleFailed CommerceEventLogStatus = "handle_failed"
)

// CommerceEventLog records every commerce lifecycle event delivered to the
// adapter, with its raw payload and handling outcome.
type CommerceEventLog struct {
	ID             string                 `gorm:"column:id;type:uuid;primary_key" json:"id"`
	EventType      string                 `gorm:"column:event_type;type:varchar(64);not null" json:"event_type"`
	UserID         *string                `gorm:"column:user_id;type:varchar(64)" json:"user_id"`
	TraceID        string                 `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	OrderID        *string                `gorm:"column:order_id;type:varchar(64)" json:"order_id"`
	SubscriptionID *string                `gorm:"column:subscription_id;type:varchar(64)" json:"subscription_id"`
	Data           datatypes.JSON         `gorm:"column:data;type:jsonb" json:"data"`
	Result         *datatypes.JSON        `gorm:"column:result;type:jsonb" json:"result"`
	Status         CommerceEventLogStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

func (CommerceEventLog) TableName() string { return "commerce_event_log" }
