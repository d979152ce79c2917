package models

import "time"

// ContentRule restricts one content item to one plan. A content item with no
// rules is open access; with rules, holding any one of the referenced plans
// grants access.
type ContentRule struct {
	ID        string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	ContentID string `gorm:"column:content_id;type:varchar(64);not null;uniqueIndex:uidx_content_plan,priority:1" json:"content_id"`
	// ContentType is informational only (post, page, ...); the access
	// decision needs just the id.
	ContentType string    `gorm:"column:content_type;type:varchar(50);not null" json:"content_type"`
	PlanID      string    `gorm:"column:plan_id;type:uuid;not null;uniqueIndex:uidx_content_plan,priority:2;index" json:"plan_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ContentRule) TableName() string { return "content_rule" }
