package models

import "time"

// MembershipDailySnapshot stores one per-plan membership count per day,
// written by the stats service so dashboards don't scan the ledger.
type MembershipDailySnapshot struct {
	ID          string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Day         time.Time `gorm:"column:day;type:date;not null;uniqueIndex:uidx_snapshot_day_plan,priority:1" json:"day"`
	PlanID      string    `gorm:"column:plan_id;type:uuid;not null;uniqueIndex:uidx_snapshot_day_plan,priority:2" json:"plan_id"`
	ActiveCount int64     `gorm:"column:active_count;not null" json:"active_count"`
	NewCount    int64     `gorm:"column:new_count;not null" json:"new_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (MembershipDailySnapshot) TableName() string { return "membership_daily_snapshot" }
