package models

import (
	"time"

	"github.com/fatflowers/membership/pkg/types"
)

// Plan is a named entitlement tier. Its duration policy determines how long
// a granted membership lasts; priority decides which plan wins when a user
// holds several overlapping ones.
type Plan struct {
	ID          string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Name        string `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Slug        string `gorm:"column:slug;type:varchar(100);not null;uniqueIndex" json:"slug"`
	Description string `gorm:"column:description;type:text" json:"description"`
	// DurationValue is nil iff DurationType is forever.
	DurationType  types.DurationType `gorm:"column:duration_type;type:varchar(16);not null;default:'forever'" json:"duration_type"`
	DurationValue *int               `gorm:"column:duration_value" json:"duration_value"`
	Priority      int                `gorm:"column:priority;not null;default:0" json:"priority"`
	Status        types.PlanStatus   `gorm:"column:status;type:varchar(16);not null;default:'active'" json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func (Plan) TableName() string { return "plan" }

func (p *Plan) IsActive() bool {
	return p != nil && p.Status == types.PlanStatusActive
}

func (p *Plan) IsUnlimited() bool {
	return p.DurationType == types.DurationForever
}

// ExpirationFrom computes the expiration instant for a period starting at
// start. Returns nil for unlimited plans. Month and year addition uses
// time.AddDate, which normalizes overflow (Jan 31 + 1 month = Mar 2/3); that
// convention is applied consistently everywhere durations are computed.
func (p *Plan) ExpirationFrom(start time.Time) *time.Time {
	if p.IsUnlimited() || p.DurationValue == nil {
		return nil
	}

	var end time.Time
	switch p.DurationType {
	case types.DurationDays:
		end = start.AddDate(0, 0, *p.DurationValue)
	case types.DurationMonths:
		end = start.AddDate(0, *p.DurationValue, 0)
	case types.DurationYears:
		end = start.AddDate(*p.DurationValue, 0, 0)
	default:
		return nil
	}
	return &end
}
