package models

import "time"

// PlanProduct ties an external commerce product to a plan: purchasing the
// product grants the plan.
type PlanProduct struct {
	ID          string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	PlanID      string    `gorm:"column:plan_id;type:uuid;not null;uniqueIndex:uidx_plan_product,priority:1" json:"plan_id"`
	ProductID   string    `gorm:"column:product_id;type:varchar(64);not null;uniqueIndex:uidx_plan_product,priority:2;index" json:"product_id"`
	ProductType string    `gorm:"column:product_type;type:varchar(50);not null;default:'simple'" json:"product_type"`
	CreatedAt   time.Time `json:"created_at"`
}

func (PlanProduct) TableName() string { return "plan_product" }
