package models

import (
	"time"

	"github.com/fatflowers/membership/pkg/types"
)

// Membership is one user's claim to one plan over one continuous period.
// PlanID is a soft reference: the plan may have been deleted while the
// membership row remains for history.
type Membership struct {
	ID     string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID string `gorm:"column:user_id;type:varchar(64);not null;index:idx_membership_user_status,priority:1" json:"user_id"`
	PlanID string `gorm:"column:plan_id;type:uuid;not null;index" json:"plan_id"`
	// OrderID / SubscriptionID record provenance from the commerce host.
	OrderID        *string                `gorm:"column:order_id;type:varchar(64)" json:"order_id"`
	SubscriptionID *string                `gorm:"column:subscription_id;type:varchar(64);index" json:"subscription_id"`
	Source         types.MembershipSource `gorm:"column:source;type:varchar(16);not null;default:'manual'" json:"source"`
	Status         types.MembershipStatus `gorm:"column:status;type:varchar(16);not null;default:'active';index:idx_membership_user_status,priority:2" json:"status"`
	StartDate      time.Time              `gorm:"column:start_date;not null" json:"start_date"`
	// EndDate is nil for lifetime memberships.
	EndDate *time.Time `gorm:"column:end_date" json:"end_date"`
	// CancelledAt is set iff Status is cancelled.
	CancelledAt *time.Time `gorm:"column:cancelled_at" json:"cancelled_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Membership) TableName() string { return "user_membership" }

// IsActive reports whether the membership currently confers access: status
// active and not past its end date. The date check is authoritative even
// before the sweeper has flipped the row to expired.
func (m *Membership) IsActive() bool {
	return m != nil &&
		m.Status == types.MembershipStatusActive &&
		!m.IsExpired()
}

// IsExpired reports whether the membership has lapsed by status or by date.
func (m *Membership) IsExpired() bool {
	if m == nil {
		return false
	}
	if m.Status == types.MembershipStatusExpired {
		return true
	}
	return m.EndDate != nil && !m.EndDate.After(time.Now())
}

// RemainingDays returns the number of whole days until expiration, nil for
// lifetime memberships. Negative once lapsed.
func (m *Membership) RemainingDays() *int {
	if m == nil || m.EndDate == nil {
		return nil
	}
	days := int(time.Until(*m.EndDate).Hours() / 24)
	return &days
}
